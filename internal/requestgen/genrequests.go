// Package requestgen generates raw requests for benchmarks.
package requestgen

import (
	"strconv"
	"strings"

	"github.com/indigo-web/xpress/kv"
)

func Headers(n int) *kv.Storage {
	hdrs := kv.NewPrealloc(n, false)

	for i := 0; i < n-1; i++ {
		hdrs.Set("some-random-header-name-nobody-cares-about"+strconv.Itoa(i), strings.Repeat("b", 100))
	}

	hdrs.Set("Host", "localhost")
	return hdrs
}

func HeadersBlock(hdrs *kv.Storage) (buff []byte) {
	for key, value := range hdrs.Iter() {
		buff = append(buff, key+": "+value+"\r\n"...)
	}

	return buff
}

// Generate returns a GET request with the path of form /<uri> and passed headers.
func Generate(uri string, hdrs *kv.Storage) (request []byte) {
	request = append(request, "GET /"+uri+" HTTP/1.1\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)

	return append(request, '\r', '\n')
}

// WithBody returns a POST request with the body and the matching Content-Length.
func WithBody(uri string, hdrs *kv.Storage, body string) (request []byte) {
	request = append(request, "POST /"+uri+" HTTP/1.1\r\n"...)
	request = append(request, HeadersBlock(hdrs)...)
	request = append(request, "Content-Length: "+strconv.Itoa(len(body))+"\r\n\r\n"...)

	return append(request, body...)
}
