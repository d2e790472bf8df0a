// Package httptest parses raw HTTP/1.1 responses, as they were received from the wire.
// It's meant to be used by tests only.
package httptest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/indigo-web/xpress/kv"
)

type Response struct {
	Proto  string
	Code   int
	Status string
	// Headers holds the last value of every header, compared case-insensitively.
	Headers *kv.Storage
	// Lines holds every header line in the received order, duplicates included.
	Lines []kv.Pair
	Body  string
}

// Parse parses a single response. The body must be exactly as long as the Content-Length
// header says.
func Parse(raw string) (response Response, err error) {
	var found bool
	response.Headers = kv.NewFolded()

	response.Proto, raw, found = strings.Cut(raw, " ")
	if !found || len(raw) == 0 {
		return response, fmt.Errorf("bad response line: lacking code and status")
	}

	var code string
	code, raw, found = strings.Cut(raw, " ")
	response.Code, err = strconv.Atoi(code)
	if err != nil {
		return response, err
	}

	if !found || len(raw) == 0 {
		return response, fmt.Errorf("bad response line: lacking status text")
	}

	response.Status, raw, found = strings.Cut(raw, "\r\n")
	if !found {
		return response, fmt.Errorf("bad response: only response line is presented")
	}

	for {
		var headerLine string
		headerLine, raw, found = strings.Cut(raw, "\r\n")
		if !found {
			return response, fmt.Errorf("bad header line %q: no breaking CRLF", headerLine)
		}

		if len(headerLine) == 0 {
			break
		}

		key, value, found := strings.Cut(headerLine, ": ")
		if !found {
			return response, fmt.Errorf("bad header %q: no value", headerLine)
		}

		response.Lines = append(response.Lines, kv.Pair{Key: key, Value: value})
		response.Headers.Set(key, value)
	}

	response.Body, err = processBody(response, raw)

	return response, err
}

// Read reads the reader until EOF and parses the result.
func Read(r io.Reader) (Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Response{}, err
	}

	return Parse(string(data))
}

// Count returns how many times the header was met, compared case-insensitively.
func (r Response) Count(key string) (n int) {
	for _, line := range r.Lines {
		if strings.EqualFold(line.Key, key) {
			n++
		}
	}

	return n
}

func processBody(response Response, data string) (string, error) {
	if response.Count("content-length") > 1 {
		return "", fmt.Errorf("bad response: too many content-lengths")
	}

	value, found := response.Headers.Get("content-length")
	if !found {
		if len(data) == 0 {
			return "", nil
		}

		return "", fmt.Errorf("bad response: no Content-Length, but got %d bytes of body", len(data))
	}

	length, err := strconv.Atoi(value)
	if err != nil {
		return "", err
	}

	if len(data) != length {
		return "", fmt.Errorf("bad response: Content-Length is %d, got %d bytes of body", length, len(data))
	}

	return data, nil
}
