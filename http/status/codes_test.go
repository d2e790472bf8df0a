package status

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	t.Run("known", func(t *testing.T) {
		require.Equal(t, "OK", Text(OK))
		require.Equal(t, "Not Found", Text(NotFound))
		require.Equal(t, "Method Not Allowed", Text(MethodNotAllowed))
		require.Equal(t, "Internal Server Error", Text(InternalServerError))
	})

	t.Run("unknown", func(t *testing.T) {
		require.Equal(t, Unknown, Text(299))
		require.Equal(t, Unknown, Text(0))
		require.Equal(t, Unknown, Text(999))
	})

	t.Run("every known code has a phrase", func(t *testing.T) {
		for _, code := range KnownCodes {
			require.NotEqual(t, Unknown, Text(code), code)
		}
	})
}

func TestHTTPError(t *testing.T) {
	err := NewError(Teapot, "short and stout")
	require.EqualError(t, err, "short and stout")

	httpErr, ok := err.(HTTPError)
	require.True(t, ok)
	require.Equal(t, Teapot, httpErr.Code)
	require.True(t, IsError(httpErr.Code))
	require.False(t, IsError(OK))
}

func TestSentinels(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code Code
	}{
		{ErrBadRequest, BadRequest},
		{ErrMalformedRequestLine, BadRequest},
		{ErrNotFound, NotFound},
		{ErrBodyTooLarge, RequestEntityTooLarge},
		{ErrURITooLong, RequestURITooLong},
		{ErrTooManyHeaders, RequestHeaderFieldsTooLarge},
		{ErrUnsupportedMediaType, UnsupportedMediaType},
		{ErrConflict, Conflict},
	} {
		httpErr, ok := tc.err.(HTTPError)
		require.True(t, ok, tc.err.Error())
		require.Equal(t, tc.code, httpErr.Code, tc.err.Error())
		require.NotEmpty(t, httpErr.Message)
	}
}
