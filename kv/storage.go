package kv

import (
	"iter"

	"github.com/indigo-web/utils/strcomp"
)

type Pair struct {
	Key, Value string
}

// Storage is an associative structure for storing (string, string) pairs. Unlike a map,
// it keeps the insertion order and uses linear search, which proves to be more efficient
// on relatively low amount of entries, which often enough is the case for headers, query
// and path params.
//
// Every key holds at most one value: setting an existing key overwrites its value in place.
type Storage struct {
	pairs []Pair
	fold  bool
}

// New returns a storage comparing keys exactly.
func New() *Storage {
	return new(Storage)
}

// NewFolded returns a storage comparing keys case-insensitively. Keys are stored as they
// were passed in the first place.
func NewFolded() *Storage {
	return &Storage{fold: true}
}

// NewPrealloc returns an instance of Storage with pre-allocated underlying storage.
func NewPrealloc(n int, fold bool) *Storage {
	return &Storage{
		pairs: make([]Pair, 0, n),
		fold:  fold,
	}
}

// NewFromMap returns a new instance with already inserted values from given map.
// Note: as maps are unordered, resulting underlying structure will also contain unordered
// pairs.
func NewFromMap(m map[string]string) *Storage {
	kv := NewPrealloc(len(m), false)

	for key, value := range m {
		kv.Set(key, value)
	}

	return kv
}

// Set stores the value under the key, overwriting the previous one if any.
func (s *Storage) Set(key, value string) *Storage {
	if i := s.index(key); i != -1 {
		s.pairs[i].Value = value
		return s
	}

	s.pairs = append(s.pairs, Pair{
		Key:   key,
		Value: value,
	})

	return s
}

// Value returns the value corresponding to the key. Otherwise, empty string is returned
func (s *Storage) Value(key string) string {
	return s.ValueOr(key, "")
}

// ValueOr returns either the value corresponding to the key or custom value, defined
// via the second parameter.
func (s *Storage) ValueOr(key, or string) string {
	value, found := s.Get(key)
	if !found {
		return or
	}

	return value
}

// Get returns a value and a bool, indicating whether the value was found. If it wasn't, it'll
// be an empty string.
func (s *Storage) Get(key string) (value string, found bool) {
	if i := s.index(key); i != -1 {
		return s.pairs[i].Value, true
	}

	return "", false
}

// Has indicates, whether there's an entry of the key.
func (s *Storage) Has(key string) bool {
	return s.index(key) != -1
}

// Delete removes the entry of the key, keeping the order of the rest.
func (s *Storage) Delete(key string) *Storage {
	if i := s.index(key); i != -1 {
		s.pairs = append(s.pairs[:i], s.pairs[i+1:]...)
	}

	return s
}

// Keys returns all the keys in insertion order.
func (s *Storage) Keys() []string {
	keys := make([]string, len(s.pairs))
	for i, pair := range s.pairs {
		keys[i] = pair.Key
	}

	return keys
}

// Iter returns an iterator over the pairs.
func (s *Storage) Iter() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if s == nil {
			return
		}

		for _, pair := range s.pairs {
			if !yield(pair.Key, pair.Value) {
				break
			}
		}
	}
}

// Len returns a number of stored pairs. A nil storage is empty.
func (s *Storage) Len() int {
	if s == nil {
		return 0
	}

	return len(s.pairs)
}

func (s *Storage) Empty() bool {
	return s.Len() == 0
}

// Map copies the entries into a new map.
func (s *Storage) Map() map[string]string {
	m := make(map[string]string, len(s.pairs))
	for _, pair := range s.pairs {
		m[pair.Key] = pair.Value
	}

	return m
}

// Clone creates a deep copy, which may be used later or stored somewhere safely. However,
// it comes at cost of an allocation.
func (s *Storage) Clone() *Storage {
	pairs := make([]Pair, len(s.pairs))
	copy(pairs, s.pairs)

	return &Storage{
		pairs: pairs,
		fold:  s.fold,
	}
}

// Expose exposes the underlying pairs slice.
func (s *Storage) Expose() []Pair {
	return s.pairs
}

// Clear all the entries. However, all the allocated space won't be freed.
func (s *Storage) Clear() *Storage {
	s.pairs = s.pairs[:0]
	return s
}

func (s *Storage) index(key string) int {
	for i, pair := range s.pairs {
		if s.equal(pair.Key, key) {
			return i
		}
	}

	return -1
}

func (s *Storage) equal(a, b string) bool {
	if s.fold {
		return strcomp.EqualFold(a, b)
	}

	return a == b
}
