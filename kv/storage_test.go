package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorage(t *testing.T) {
	getHeaders := func() *Storage {
		return NewFolded().
			Set("Foo", "bar").
			Set("Hello", "World").
			Set("Lorem", "ipsum")
	}

	t.Run("last value wins", func(t *testing.T) {
		kv := getHeaders().Set("hello", "Pavlo")

		require.Equal(t, 3, kv.Len())
		require.Equal(t, "Pavlo", kv.Value("Hello"))
		require.Equal(t, []string{"Foo", "Hello", "Lorem"}, kv.Keys())
	})

	t.Run("delete", func(t *testing.T) {
		kv := getHeaders().Delete("HELLO")

		require.Equal(t, []Pair{{"Foo", "bar"}, {"Lorem", "ipsum"}}, kv.Expose())
		require.False(t, kv.Has("hello"))
	})

	t.Run("get", func(t *testing.T) {
		kv := getHeaders()

		value, found := kv.Get("lorem")
		require.True(t, found)
		require.Equal(t, "ipsum", value)

		value, found = kv.Get("missing")
		require.False(t, found)
		require.Empty(t, value)
		require.Equal(t, "default", kv.ValueOr("missing", "default"))
	})

	t.Run("exact keys", func(t *testing.T) {
		kv := New().Set("id", "1").Set("ID", "2")

		require.Equal(t, 2, kv.Len())
		require.Equal(t, "1", kv.Value("id"))
		require.Equal(t, "2", kv.Value("ID"))
		require.False(t, kv.Has("Id"))
	})

	t.Run("iter", func(t *testing.T) {
		collected := make(map[string]string)
		for key, value := range getHeaders().Iter() {
			collected[key] = value
		}

		require.Equal(t, getHeaders().Map(), collected)
	})

	t.Run("clone", func(t *testing.T) {
		original := getHeaders()
		clone := original.Clone()
		clone.Set("Foo", "baz")

		require.Equal(t, "bar", original.Value("Foo"))
		require.Equal(t, "baz", clone.Value("foo"))
	})

	t.Run("clear", func(t *testing.T) {
		kv := getHeaders().Clear()
		require.True(t, kv.Empty())
	})

	t.Run("from map", func(t *testing.T) {
		kv := NewFromMap(map[string]string{"a": "1", "b": "2"})
		require.Equal(t, map[string]string{"a": "1", "b": "2"}, kv.Map())
	})
}

func TestNilStorage(t *testing.T) {
	var storage *Storage
	require.Zero(t, storage.Len())
	require.True(t, storage.Empty())

	for range storage.Iter() {
		require.FailNow(t, "nil storage must yield nothing")
	}
}
