// Package server glues everything together: a single acceptor hands connections over to
// the worker pool, and every worker runs the whole pipeline for a connection: parse,
// route, call the handler, serialize, close.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/dchest/uniuri"
	"github.com/rs/zerolog"

	"github.com/indigo-web/xpress/config"
	"github.com/indigo-web/xpress/http"
	"github.com/indigo-web/xpress/http/status"
	"github.com/indigo-web/xpress/internal/parser"
	"github.com/indigo-web/xpress/internal/serializer"
	"github.com/indigo-web/xpress/internal/workerpool"
	"github.com/indigo-web/xpress/router"
)

var ErrAlreadyServing = errors.New("server is already serving")

type Server struct {
	cfg    *config.Config
	table  *router.Table
	log    zerolog.Logger
	parser *parser.Parser
	// readers and serializers are owned by the worker with the same index.
	readers     []*bufio.Reader
	serializers []*serializer.Serializer
	pool        *workerpool.Pool[net.Conn]
	listener    net.Listener
	started     *atomic.Bool
	serving     *atomic.Bool
	stopping    *atomic.Bool
	done        chan struct{}
	onStart     func()
}

func New(cfg *config.Config, table *router.Table, logger zerolog.Logger) *Server {
	workers := max(cfg.Workers.Count, 1)
	s := &Server{
		cfg:         cfg,
		table:       table,
		log:         logger,
		parser:      parser.New(cfg),
		readers:     make([]*bufio.Reader, workers),
		serializers: make([]*serializer.Serializer, workers),
		started:     new(atomic.Bool),
		serving:     new(atomic.Bool),
		stopping:    new(atomic.Bool),
		done:        make(chan struct{}),
	}

	for i := range workers {
		s.readers[i] = bufio.NewReaderSize(nil, cfg.NET.ReadBufferSize)
		s.serializers[i] = serializer.New(make([]byte, 0, 1024), cfg.Headers.Default)
	}

	return s
}

// Serve accepts connections until the listener fails or Stop is called. In the latter case,
// nil is returned once all the accepted connections are processed.
func (s *Server) Serve(listener net.Listener) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	defer close(s.done)

	s.listener = listener
	s.pool = workerpool.New[net.Conn](len(s.readers), s.cfg.Workers.QueueSize, s.HandleConn)
	defer s.pool.Stop()
	s.serving.Store(true)

	s.log.Info().
		Str("addr", listener.Addr().String()).
		Int("workers", s.pool.Workers()).
		Msg("listening")

	if s.onStart != nil {
		s.onStart()
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.stopping.Load() {
				return nil
			}

			_ = listener.Close()
			return err
		}

		if err = s.pool.Submit(conn); err != nil {
			_ = conn.Close()
		}
	}
}

// NotifyOnStart sets the callback, called once the server is ready to accept connections.
func (s *Server) NotifyOnStart(cb func()) {
	s.onStart = cb
}

// Serving reports whether the server is accepting connections.
func (s *Server) Serving() bool {
	return s.serving.Load() && !s.stopping.Load()
}

// Stop closes the listener, lets the workers process what's already accepted and waits
// until they're done. Calling Stop on a server that isn't serving does nothing.
func (s *Server) Stop() {
	if !s.serving.Load() || !s.stopping.CompareAndSwap(false, true) {
		return
	}

	_ = s.listener.Close()
	<-s.done
	s.log.Info().Msg("stopped")
}

// HandleConn serves exactly one request on the connection and closes it. A panic at any
// stage is recovered, and if nothing was written yet, the request is answered with 500.
func (s *Server) HandleConn(worker int, conn net.Conn) {
	var (
		request *http.Request
		written bool
	)

	defer func() {
		if r := recover(); r != nil {
			event := s.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack())
			if request != nil {
				event = event.Str("request_id", request.ID)
			}
			event.Msg("connection handling panicked")

			if !written {
				s.serializers[worker] = serializer.New(make([]byte, 0, 1024), s.cfg.Headers.Default)
				fallback := http.NewResponse().
					Code(status.InternalServerError).
					String(status.Text(status.InternalServerError))
				_ = s.serializers[worker].Write(fallback, conn)
			}
		}

		_ = conn.Close()
	}()

	if timeout := s.cfg.NET.ReadTimeout; timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	}

	reader := s.readers[worker]
	reader.Reset(conn)
	defer reader.Reset(nil)

	request = http.NewRequest(s.cfg, conn.RemoteAddr())
	request.ID = uniuri.New()

	response := s.Process(reader, request)
	if response == nil {
		return
	}

	if timeout := s.cfg.NET.WriteTimeout; timeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	}

	data := s.serializers[worker].Render(response)
	written = true
	if _, err := conn.Write(data); err != nil {
		s.log.Debug().
			Err(err).
			Str("request_id", request.ID).
			Msg("failed to write the response")
	}
}

// Process reads the request and produces the response for it. Nil is returned only if the
// request couldn't be read, so no response can be delivered.
func (s *Server) Process(reader *bufio.Reader, request *http.Request) *http.Response {
	if err := s.parser.Parse(reader, request); err != nil {
		return s.onParseError(request, err)
	}

	resolution := s.table.Resolve(request.Method, request.Path, request.Params)

	var response *http.Response
	switch resolution.Outcome {
	case router.Found:
		response = s.finalize(request, s.call(resolution.Handler, request))
	case router.MethodNotAllowed:
		response = respondStatus(request, status.MethodNotAllowed).
			Header("Allow", resolution.Allow)
	default:
		response = respondStatus(request, status.NotFound)
	}

	s.log.Debug().
		Str("request_id", request.ID).
		Str("method", request.Method).
		Str("path", request.Path).
		Uint16("status", uint16(response.Reveal().Code)).
		Msg("request served")

	return response
}

func (s *Server) onParseError(request *http.Request, err error) *http.Response {
	var parseErr http.ParseError
	if !errors.As(err, &parseErr) {
		s.log.Debug().
			Err(err).
			Str("request_id", request.ID).
			Msg("connection abandoned")

		return nil
	}

	s.log.Debug().
		Err(err).
		Str("request_id", request.ID).
		Msg("bad request")

	return request.Respond().
		Code(parseErr.Code()).
		String(parseErr.Err.Message)
}

// call invokes the handler, recovering it from panics.
func (s *Server) call(handler router.Handler, request *http.Request) (response *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("request_id", request.ID).
				Str("method", request.Method).
				Str("path", request.Path).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			response = respondStatus(request, status.InternalServerError)
		}
	}()

	response = handler(request)
	// a response not obtained via request.Respond() or http.NewResponse() is unusable
	if response == nil || response.Reveal().Headers == nil {
		s.log.Error().
			Str("request_id", request.ID).
			Str("method", request.Method).
			Str("path", request.Path).
			Msg("handler returned no usable response")

		response = respondStatus(request, status.InternalServerError)
	}

	return response
}

// finalize renders the error set by the handler, if any, into the response body.
func (s *Server) finalize(request *http.Request, response *http.Response) *http.Response {
	fields := response.Reveal()
	if fields.Error == nil {
		return response
	}

	event := s.log.Warn()
	if fields.Code >= status.InternalServerError {
		event = s.log.Error()
	}

	text := errorText(fields.Error)
	event.
		Str("error", text).
		Str("request_id", request.ID).
		Str("method", request.Method).
		Str("path", request.Path).
		Uint16("status", uint16(fields.Code)).
		Msg("handler failed")

	if len(fields.Body) > 0 {
		return response
	}

	if s.cfg.HTTP.RedactErrors && fields.Code >= status.InternalServerError {
		return response.String(status.Text(fields.Code))
	}

	return response.String(text)
}

// errorText returns the message of the error. Errors failing to produce one, e.g. typed nil
// pointers with a pointer receiver, are described by the type.
func errorText(err error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("%T (failed to render the error: %v)", err, r)
		}
	}()

	return err.Error()
}

func respondStatus(request *http.Request, code status.Code) *http.Response {
	return request.Respond().
		Code(code).
		String(status.Text(code))
}
