package http

import (
	"errors"

	"github.com/indigo-web/xpress/http/status"
)

// ParseError reports a request that is malformed, therefore must be answered with a
// client error. The wrapped status.HTTPError carries the exact code.
type ParseError struct {
	Err status.HTTPError
}

func NewParseError(err error) error {
	var httpErr status.HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = status.HTTPError{Code: status.BadRequest, Message: err.Error()}
	}

	return ParseError{Err: httpErr}
}

func (p ParseError) Error() string {
	return "parse error: " + p.Err.Message
}

func (p ParseError) Unwrap() error {
	return p.Err
}

// Code returns the status code the request must be answered with.
func (p ParseError) Code() status.Code {
	return p.Err.Code
}

// IOError reports a failure of the underlying stream, e.g. the peer closed the connection
// before sending the whole declared body. No response can be delivered after it.
type IOError struct {
	Err error
}

func NewIOError(err error) error {
	return IOError{Err: err}
}

func (i IOError) Error() string {
	return "i/o error: " + i.Err.Error()
}

func (i IOError) Unwrap() error {
	return i.Err
}
