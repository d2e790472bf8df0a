package status

// HTTPError is an error carrying the status code it must be answered with.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest           = NewError(BadRequest, "bad request")
	ErrMalformedRequestLine = NewError(BadRequest, "malformed request line")
	ErrNotFound             = NewError(NotFound, "not found")
	ErrBodyTooLarge         = NewError(RequestEntityTooLarge, "request body is too large")
	ErrURITooLong           = NewError(RequestURITooLong, "request URI too long")
	ErrTooManyHeaders       = NewError(RequestHeaderFieldsTooLarge, "too many headers")
	ErrUnsupportedMediaType = NewError(UnsupportedMediaType, "unsupported media type")
	ErrConflict             = NewError(Conflict, "conflict")
)
