// Package parser turns a buffered byte stream into http.Request.
//
// The parser reads exactly one request: the request line, the headers section and the
// body, which is bounded by Content-Length. It never reads until EOF.
package parser

import (
	"bufio"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/indigo-web/xpress/config"
	"github.com/indigo-web/xpress/http"
	"github.com/indigo-web/xpress/http/status"
)

var (
	errBadTarget    = status.NewError(status.BadRequest, "request target must start with a slash")
	errBadPath      = status.NewError(status.BadRequest, "invalid urlencoded sequence in path")
	errHeaderTooBig = status.NewError(status.RequestHeaderFieldsTooLarge, "header line is too long")
)

type Parser struct {
	cfg *config.Config
}

func New(cfg *config.Config) *Parser {
	return &Parser{cfg: cfg}
}

// Parse fills the request from the reader. Returned error is either http.ParseError, meaning
// the request is malformed and may be answered with its code, or http.IOError, meaning the
// stream itself failed.
func (p *Parser) Parse(reader *bufio.Reader, request *http.Request) error {
	line, err := readLine(reader, p.cfg.URI.MaxRequestLineSize, status.ErrURITooLong)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		// the stream closed before a single line was sent
		return http.NewParseError(status.ErrMalformedRequestLine)
	default:
		return wrap(err)
	}

	if err = p.parseRequestLine(line, request); err != nil {
		return http.NewParseError(err)
	}

	if err = p.parseHeaders(reader, request); err != nil {
		return wrap(err)
	}

	return p.readBody(reader, request)
}

func (p *Parser) parseRequestLine(line string, request *http.Request) error {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return status.ErrMalformedRequestLine
	}

	request.Method = tokens[0]
	// the protocol version isn't interpreted, as every connection serves exactly one request

	target, query, hasQuery := strings.Cut(tokens[1], "?")
	if len(target) == 0 || target[0] != '/' {
		return errBadTarget
	}

	path, err := url.PathUnescape(target)
	if err != nil {
		return errBadPath
	}

	request.Path = path

	if hasQuery {
		parseQuery(query, request.Query)
	}

	return nil
}

func (p *Parser) parseHeaders(reader *bufio.Reader, request *http.Request) error {
	for count := 0; ; count++ {
		line, err := readLine(reader, p.cfg.Headers.MaxLineSize, errHeaderTooBig)
		if err != nil {
			return err
		}

		if len(line) == 0 {
			return nil
		}

		if count >= p.cfg.Headers.MaxCount {
			return status.ErrTooManyHeaders
		}

		key, value, found := strings.Cut(line, ": ")
		if !found {
			// malformed lines are tolerated
			continue
		}

		request.Headers.Set(strings.ToLower(key), strings.TrimSpace(value))
	}
}

func (p *Parser) readBody(reader *bufio.Reader, request *http.Request) error {
	value, found := request.Headers.Get("content-length")
	if !found {
		return nil
	}

	length, err := strconv.Atoi(value)
	if err != nil || length <= 0 {
		// non-numeric and negative values are ignored, leaving the body empty
		return nil
	}

	if length > p.cfg.Body.MaxSize {
		return http.NewParseError(status.ErrBodyTooLarge)
	}

	request.Body = make([]byte, length)
	if _, err = io.ReadFull(reader, request.Body); err != nil {
		request.Body = nil
		return http.NewIOError(err)
	}

	return nil
}

// parseQuery fills the storage with key-value pairs. Keys without the value map to an
// empty string, empty pairs are skipped and the last occurrence of the key wins.
func parseQuery(query string, into http.Query) {
	for len(query) > 0 {
		var pair string
		pair, query, _ = strings.Cut(query, "&")
		if len(pair) == 0 {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		into.Set(unescape(key), unescape(value))
	}
}

func unescape(str string) string {
	if strings.IndexByte(str, '%') == -1 && strings.IndexByte(str, '+') == -1 {
		return str
	}

	decoded, err := url.QueryUnescape(str)
	if err != nil {
		return str
	}

	return decoded
}

// readLine reads a single line, stripping the trailing CRLF or bare LF. If the line
// overflows the limit, tooLong is returned.
func readLine(reader *bufio.Reader, limit int, tooLong error) (string, error) {
	var line []byte

	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if len(line) > 0 && errors.Is(err, io.EOF) {
				return "", io.ErrUnexpectedEOF
			}

			return "", err
		}

		if len(line)+len(chunk) > limit {
			return "", tooLong
		}

		if line == nil && !isPrefix {
			return string(chunk), nil
		}

		line = append(line, chunk...)
		if !isPrefix {
			return string(line), nil
		}
	}
}

// wrap classifies the error: status errors are client faults, everything else comes
// from the stream.
func wrap(err error) error {
	var httpErr status.HTTPError
	if errors.As(err, &httpErr) {
		return http.NewParseError(httpErr)
	}

	return http.NewIOError(err)
}
