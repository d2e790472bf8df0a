package http

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"

	"github.com/indigo-web/xpress/http/mime"
	"github.com/indigo-web/xpress/http/status"
	"github.com/indigo-web/xpress/kv"
)

// why 7? There's no theory behind this number nor researches.
const preallocRespHeaders = 7

// Fields are the values accumulated by the builder.
type Fields struct {
	Code status.Code
	// Headers are stored as they were set, but compared case-insensitively, so setting
	// "content-type" after "Content-Type" overwrites the value.
	Headers *kv.Storage
	Body    []byte
	// Error is the error passed via Response.Error, if any. The server logs it and decides
	// whether to reveal its text in the body.
	Error error
}

// Response is a builder owned exclusively by a handler during its invocation.
type Response struct {
	fields Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and pre-allocated space for response headers.
// NOTE: it's recommended to use Request.Respond() method inside of handlers, if there's no
// clear reason otherwise
func NewResponse() *Response {
	return &Response{
		fields: Fields{
			Code:    status.OK,
			Headers: kv.NewPrealloc(preallocRespHeaders, true),
		},
	}
}

// Code sets a Response code. Unknown codes are rendered with the "Unknown" status text.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Header sets the header value, overriding the previous one. Content-Length is computed
// from the body while rendering, so setting it has no effect.
func (r *Response) Header(key, value string) *Response {
	r.fields.Headers.Set(key, value)
	return r
}

// Headers simply merges passed headers into Response.
func (r *Response) Headers(headers map[string]string) *Response {
	for k, v := range headers {
		r.Header(k, v)
	}

	return r
}

// ContentType is a shorthand for setting the Content-Type header.
func (r *Response) ContentType(value mime.MIME) *Response {
	return r.Header("Content-Type", value)
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	return r
}

// Write implements io.Writer interface. It always returns n=len(b) and err=nil
func (r *Response) Write(b []byte) (n int, err error) {
	r.fields.Body = append(r.fields.Body, b...)
	return len(b), nil
}

// TryJSON receives a model and serializes it into the body, setting the Content-Type
// to application/json.
func (r *Response) TryJSON(model any) (*Response, error) {
	r.fields.Body = nil
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return r.ContentType(mime.JSON), err
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// TryFile reads the whole file into the body and sets the Content-Type by its extension.
func (r *Response) TryFile(path string) (*Response, error) {
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), isDirErr(path):
		return r, status.ErrNotFound
	default:
		return r, err
	}

	return r.
		ContentType(mime.ByExtension(filepath.Ext(path))).
		Bytes(content), nil
}

// File does the same as TryFile does, except returned error is being implicitly wrapped
// by Error
func (r *Response) File(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// HTML serves an HTML page from the file. The Content-Type is forced to text/html
// regardless of the extension.
func (r *Response) HTML(path string) *Response {
	resp, err := r.TryFile(path)
	if err != nil {
		return r.Error(err)
	}

	return resp.ContentType(mime.HTML)
}

// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, its code is used. Custom code can be passed,
// however only first will be used. By default, the code is 500 Internal Server Error.
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	r.fields.Error = err
	r.fields.Body = nil

	var httpErr status.HTTPError
	switch {
	case len(code) > 0:
		return r.Code(code[0])
	case errors.As(err, &httpErr):
		return r.Code(httpErr.Code)
	default:
		return r.Code(status.InternalServerError)
	}
}

// Reveal returns a struct with values, filled by builder. Used mostly in internal purposes
func (r *Response) Reveal() Fields {
	return r.fields
}

// Clear discards everything was done with Response object before
func (r *Response) Clear() *Response {
	r.fields.Code = status.OK
	r.fields.Headers.Clear()
	r.fields.Body = nil
	r.fields.Error = nil

	return r
}

func isDirErr(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.IsDir()
}

// Respond is a predicate to request.Respond(). May be used as a dummy handler
func Respond(request *Request) *Response {
	return request.Respond()
}

// Code is a predicate to request.Respond().Code(...)
func Code(request *Request, code status.Code) *Response {
	return request.Respond().Code(code)
}

// String is a predicate to request.Respond().String(...)
func String(request *Request, str string) *Response {
	return request.Respond().String(str)
}

// Bytes is a predicate to request.Respond().Bytes(...)
func Bytes(request *Request, b []byte) *Response {
	return request.Respond().Bytes(b)
}

// File is a predicate to request.Respond().File(...)
func File(request *Request, path string) *Response {
	return request.Respond().File(path)
}

// JSON is a predicate to request.Respond().JSON(...)
func JSON(request *Request, model any) *Response {
	return request.Respond().JSON(model)
}

// Error is a predicate to request.Respond().Error(...)
func Error(request *Request, err error, code ...status.Code) *Response {
	return request.Respond().Error(err, code...)
}
