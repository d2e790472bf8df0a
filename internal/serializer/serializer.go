// Package serializer renders http.Response into the HTTP/1.1 wire format.
package serializer

import (
	"io"
	"strconv"

	"github.com/indigo-web/utils/strcomp"

	"github.com/indigo-web/xpress/http"
	"github.com/indigo-web/xpress/http/status"
)

const (
	protocol      = "HTTP/1.1 "
	colonsp       = ": "
	crlf          = "\r\n"
	contentLength = "Content-Length: "
	connection    = "Connection"
	connClose     = "Connection: close\r\n"
)

// Serializer renders responses into an internal buffer, reused across calls. It isn't safe
// for concurrent use, so every worker owns its own instance.
type Serializer struct {
	buff           []byte
	defaultHeaders defaultHeaders
}

func New(buff []byte, defHdrs map[string]string) *Serializer {
	return &Serializer{
		buff:           buff[:0],
		defaultHeaders: processDefaultHeaders(defHdrs),
	}
}

// Render returns the full wire representation of the response. The returned slice is
// valid until the next call.
//
// The headers order is unspecified. Content-Length is always derived from the body, so
// a user-defined one is dropped.
func (s *Serializer) Render(response *http.Response) []byte {
	s.clear()
	fields := response.Reveal()

	s.renderResponseLine(fields.Code)

	var hasConnection bool
	for key, value := range fields.Headers.Iter() {
		if strcomp.EqualFold(key, "content-length") {
			continue
		}

		hasConnection = hasConnection || strcomp.EqualFold(key, connection)
		s.defaultHeaders.Exclude(key)
		s.renderHeader(key, value)
	}

	for _, header := range s.defaultHeaders {
		if !header.Excluded {
			hasConnection = hasConnection || strcomp.EqualFold(header.Key, connection)
			s.buff = append(s.buff, header.Full...)
		}
	}

	if !hasConnection {
		// every connection serves exactly one request
		s.buff = append(s.buff, connClose...)
	}

	s.renderContentLength(len(fields.Body))
	s.buff = append(s.buff, crlf...)
	s.buff = append(s.buff, fields.Body...)

	return s.buff
}

// Write renders the response and writes it at once.
func (s *Serializer) Write(response *http.Response, w io.Writer) error {
	_, err := w.Write(s.Render(response))
	return err
}

func (s *Serializer) renderResponseLine(code status.Code) {
	s.buff = append(s.buff, protocol...)
	s.buff = strconv.AppendUint(s.buff, uint64(code), 10)
	s.buff = append(s.buff, ' ')
	s.buff = append(s.buff, status.Text(code)...)
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) renderHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, colonsp...)
	s.buff = append(s.buff, value...)
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) renderContentLength(value int) {
	s.buff = strconv.AppendInt(append(s.buff, contentLength...), int64(value), 10)
	s.buff = append(s.buff, crlf...)
}

func (s *Serializer) clear() {
	s.buff = s.buff[:0]
	s.defaultHeaders.Reset()
}

// Encode renders the response into a freshly allocated slice.
func Encode(response *http.Response) []byte {
	return New(nil, nil).Render(response)
}

type defaultHeader struct {
	Excluded bool
	Key      string
	Full     string
}

type defaultHeaders []defaultHeader

func processDefaultHeaders(hdrs map[string]string) defaultHeaders {
	processed := make(defaultHeaders, 0, len(hdrs))

	for key, value := range hdrs {
		if strcomp.EqualFold(key, "content-length") {
			continue
		}

		full := key + colonsp + value + crlf
		processed = append(processed, defaultHeader{
			// we let the GC release all the values of the map, as here we're using only
			// the brand-new line without keeping the original string
			Key:  full[:len(key)],
			Full: full,
		})
	}

	return processed
}

func (d defaultHeaders) Exclude(key string) {
	for i := range d {
		if strcomp.EqualFold(d[i].Key, key) {
			d[i].Excluded = true
			return
		}
	}
}

func (d defaultHeaders) Reset() {
	for i := range d {
		d[i].Excluded = false
	}
}
