package config

import (
	"runtime"
	"time"
)

type (
	URI struct {
		// MaxRequestLineSize limits the length of the request line in bytes, line ending
		// excluded. Longer request lines are answered with 414 Request URI Too Long.
		MaxRequestLineSize int
		// QueryPrealloc for http.Request.Query field.
		QueryPrealloc int
		// ParamsPrealloc for http.Request.Params field.
		ParamsPrealloc int
	}

	Headers struct {
		// MaxCount is the maximal number of header lines, malformed ones included. Requests
		// exceeding it are answered with 431 Request Header Fields Too Large.
		MaxCount int
		// MaxLineSize limits every single header line in bytes.
		MaxLineSize int
		// Prealloc is the initial capacity of http.Request.Headers.
		Prealloc int
		// Default headers are included into every response implicitly, unless explicitly
		// overridden by the handler.
		Default map[string]string `test:"nullable"`
	}

	Body struct {
		// MaxSize describes the maximal size of a body, declared via Content-Length, that
		// can be processed. Bigger ones are answered with 413 Request Entity Too Large.
		MaxSize int
	}

	NET struct {
		// ReadBufferSize is a size of buffer in bytes which will be used to read from
		// socket.
		ReadBufferSize int
		// ReadTimeout limits the time it may take to receive the whole request. Zero
		// disables the deadline, so a client that never completes its body ties up a
		// worker.
		ReadTimeout time.Duration `test:"nullable"`
		// WriteTimeout limits the time it may take to transmit the response. Zero disables
		// the deadline.
		WriteTimeout time.Duration `test:"nullable"`
	}

	Workers struct {
		// Count is the fixed number of long-lived workers processing connections.
		Count int
		// QueueSize is the capacity of the job queue between the acceptor and the workers.
		// When it's full, the acceptor blocks until any worker becomes free.
		QueueSize int
	}

	HTTP struct {
		// RedactErrors replaces error texts from handlers with the generic reason phrase
		// in 5xx response bodies. Errors are logged either way.
		RedactErrors bool `test:"nullable"`
	}
)

// Config holds settings used across various parts of xpress, mainly restrictions, limitations
// and pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	URI     URI
	Headers Headers
	Body    Body
	NET     NET
	Workers Workers
	HTTP    HTTP
}

// Default returns default config. The number of workers follows the available parallelism.
func Default() *Config {
	workers := runtime.NumCPU()

	return &Config{
		URI: URI{
			// most web-entities limit it to 4-8kb, so 16kb is pretty much tolerant.
			MaxRequestLineSize: 16 * 1024,
			QueryPrealloc:      5,
			ParamsPrealloc:     5,
		},
		Headers: Headers{
			MaxCount:    50,
			MaxLineSize: 8 * 1024,
			Prealloc:    10,
			Default:     make(map[string]string),
		},
		Body: Body{
			MaxSize: 16 * 1024 * 1024, // 16 megabytes, as the body is always buffered
		},
		NET: NET{
			ReadBufferSize: 4 * 1024,
		},
		Workers: Workers{
			Count:     workers,
			QueueSize: workers,
		},
	}
}
