package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/indigo-web/xpress/config"
	"github.com/indigo-web/xpress/http"
	"github.com/indigo-web/xpress/http/status"
	"github.com/indigo-web/xpress/internal/httptest"
	"github.com/indigo-web/xpress/router"
)

func serve(t *testing.T, cfg *config.Config, r *router.Router) *Server {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(cfg, r.Freeze(), zerolog.Nop())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	require.Eventually(t, srv.Serving, time.Second, time.Millisecond)
	t.Cleanup(func() {
		srv.Stop()
		require.NoError(t, <-errCh)
		require.True(t, srv.pool.Stopped())
	})

	return srv
}

// send writes the raw request, half-closes the connection and reads everything the server
// sends back until it closes the connection.
func send(t *testing.T, srv *Server, raw string) string {
	data, err := roundTrip(srv.listener.Addr().String(), raw)
	require.NoError(t, err)

	return data
}

func roundTrip(addr, raw string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", err
	}

	defer conn.Close()

	if _, err = conn.Write([]byte(raw)); err != nil {
		return "", err
	}

	if err = conn.(*net.TCPConn).CloseWrite(); err != nil {
		return "", err
	}

	if err = conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return "", err
	}

	data, err := io.ReadAll(conn)
	return string(data), err
}

func sendParsed(t *testing.T, srv *Server, raw string) httptest.Response {
	response, err := httptest.Parse(send(t, srv, raw))
	require.NoError(t, err)
	require.Equal(t, "HTTP/1.1", response.Proto)
	require.Equal(t, "close", response.Headers.Value("Connection"))

	return response
}

func testRouter() *router.Router {
	return router.New().
		Get("/hello", func(request *http.Request) *http.Response {
			return request.Respond().String("Hello, World!")
		}).
		Get("/test/:id", func(request *http.Request) *http.Response {
			return request.Respond().String(fmt.Sprintf(
				"id=%s foo=%s", request.Params.Value("id"), request.Query.Value("foo"),
			))
		}).
		Post("/echo", func(request *http.Request) *http.Response {
			return request.Respond().
				Header("Content-Type", request.Headers.Value("content-type")).
				Bytes(request.Body)
		}).
		Put("/echo", func(request *http.Request) *http.Response {
			return request.Respond()
		})
}

func TestServer(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.Count = 2
	srv := serve(t, cfg, testRouter())

	t.Run("hello", func(t *testing.T) {
		response := sendParsed(t, srv, "GET /hello HTTP/1.1\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Equal(t, "OK", response.Status)
		require.Equal(t, "13", response.Headers.Value("Content-Length"))
		require.Equal(t, "Hello, World!", response.Body)
	})

	t.Run("dynamic segment and query", func(t *testing.T) {
		response := sendParsed(t, srv, "GET /test/42?foo=bar HTTP/1.1\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Equal(t, "id=42 foo=bar", response.Body)
	})

	t.Run("body", func(t *testing.T) {
		raw := "POST /echo HTTP/1.1\r\nContent-Type: text/plain\r\nContent-Length: 11\r\n\r\nhello world"
		response := sendParsed(t, srv, raw)
		require.Equal(t, 200, response.Code)
		require.Equal(t, "text/plain", response.Headers.Value("Content-Type"))
		require.Equal(t, "hello world", response.Body)
	})

	t.Run("not found", func(t *testing.T) {
		response := sendParsed(t, srv, "GET /nope HTTP/1.1\r\n\r\n")
		require.Equal(t, 404, response.Code)
		require.Equal(t, "Not Found", response.Body)
	})

	t.Run("method not allowed", func(t *testing.T) {
		response := sendParsed(t, srv, "DELETE /echo HTTP/1.1\r\n\r\n")
		require.Equal(t, 405, response.Code)
		require.Equal(t, "POST, PUT", response.Headers.Value("Allow"))
	})

	t.Run("malformed request line", func(t *testing.T) {
		response := sendParsed(t, srv, "HELLO\r\n\r\n")
		require.Equal(t, 400, response.Code)
	})

	t.Run("empty stream", func(t *testing.T) {
		response := sendParsed(t, srv, "")
		require.Equal(t, 400, response.Code)
	})

	t.Run("truncated body", func(t *testing.T) {
		raw := "POST /echo HTTP/1.1\r\nContent-Length: 100\r\n\r\nshort"
		require.Empty(t, send(t, srv, raw))
	})

	t.Run("sequential connections", func(t *testing.T) {
		for range 10 {
			response := sendParsed(t, srv, "GET /hello HTTP/1.1\r\n\r\n")
			require.Equal(t, "Hello, World!", response.Body)
		}
	})
}

func TestConcurrentConnections(t *testing.T) {
	const workers = 4

	cfg := config.Default()
	cfg.Workers.Count = workers
	cfg.Workers.QueueSize = workers

	r := router.New()
	for i := range workers {
		body := fmt.Sprintf("route %d", i)
		r.Get(fmt.Sprintf("/route/%d", i), func(request *http.Request) *http.Response {
			return request.Respond().String(body)
		})
	}

	srv := serve(t, cfg, r)

	var wg sync.WaitGroup
	addr := srv.listener.Addr().String()
	results := make([]string, workers*4)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := fmt.Sprintf("GET /route/%d HTTP/1.1\r\n\r\n", i%workers)
			data, err := roundTrip(addr, raw)
			if err != nil {
				errs[i] = err
				return
			}

			response, err := httptest.Parse(data)
			results[i], errs[i] = response.Body, err
		}(i)
	}

	wg.Wait()

	for i, body := range results {
		require.NoError(t, errs[i])
		require.Equal(t, fmt.Sprintf("route %d", i%workers), body)
	}
}

func TestHandlerFailures(t *testing.T) {
	var called atomic.Int32
	r := router.New().
		Get("/panic", func(request *http.Request) *http.Response {
			panic("something went wrong")
		}).
		Get("/nil", func(request *http.Request) *http.Response {
			return nil
		}).
		Get("/conflict", func(request *http.Request) *http.Response {
			return request.Respond().Error(status.NewError(status.Conflict, "user already exists"))
		}).
		Get("/internal", func(request *http.Request) *http.Response {
			return request.Respond().Error(errors.New("database is down"))
		}).
		Get("/custom", func(request *http.Request) *http.Response {
			return request.Respond().
				Error(errors.New("oops"), status.ServiceUnavailable).
				String("try later")
		}).
		Get("/zero", func(request *http.Request) *http.Response {
			return new(http.Response)
		}).
		Get("/typed-nil", func(request *http.Request) *http.Response {
			var err *failure
			return request.Respond().Error(err)
		}).
		Get("/ok", func(request *http.Request) *http.Response {
			called.Add(1)
			return request.Respond()
		})

	t.Run("errors revealed", func(t *testing.T) {
		cfg := config.Default()
		cfg.Workers.Count = 1
		srv := serve(t, cfg, r)

		response := sendParsed(t, srv, "GET /panic HTTP/1.1\r\n\r\n")
		require.Equal(t, 500, response.Code)
		require.Equal(t, "Internal Server Error", response.Body)

		// the only worker must survive the panic
		response = sendParsed(t, srv, "GET /ok HTTP/1.1\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Equal(t, int32(1), called.Load())

		response = sendParsed(t, srv, "GET /zero HTTP/1.1\r\n\r\n")
		require.Equal(t, 500, response.Code)
		require.Equal(t, "Internal Server Error", response.Body)

		response = sendParsed(t, srv, "GET /typed-nil HTTP/1.1\r\n\r\n")
		require.Equal(t, 500, response.Code)
		require.Contains(t, response.Body, "*server.failure")

		// still alive after both
		response = sendParsed(t, srv, "GET /ok HTTP/1.1\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Equal(t, int32(2), called.Load())

		response = sendParsed(t, srv, "GET /nil HTTP/1.1\r\n\r\n")
		require.Equal(t, 500, response.Code)

		response = sendParsed(t, srv, "GET /conflict HTTP/1.1\r\n\r\n")
		require.Equal(t, 409, response.Code)
		require.Equal(t, "user already exists", response.Body)

		response = sendParsed(t, srv, "GET /internal HTTP/1.1\r\n\r\n")
		require.Equal(t, 500, response.Code)
		require.Equal(t, "database is down", response.Body)

		response = sendParsed(t, srv, "GET /custom HTTP/1.1\r\n\r\n")
		require.Equal(t, 503, response.Code)
		require.Equal(t, "try later", response.Body)
	})

	t.Run("errors redacted", func(t *testing.T) {
		cfg := config.Default()
		cfg.HTTP.RedactErrors = true
		srv := New(cfg, r.Freeze(), zerolog.Nop())

		response := process(t, srv, "GET /internal HTTP/1.1\r\n\r\n")
		require.Equal(t, status.InternalServerError, response.Reveal().Code)
		require.Equal(t, "Internal Server Error", string(response.Reveal().Body))

		// client errors are meant to be seen by the client
		response = process(t, srv, "GET /conflict HTTP/1.1\r\n\r\n")
		require.Equal(t, "user already exists", string(response.Reveal().Body))
	})
}

func process(t *testing.T, srv *Server, raw string) *http.Response {
	request := http.NewRequest(srv.cfg, nil)
	request.ID = "test"
	response := srv.Process(bufio.NewReader(strings.NewReader(raw)), request)
	require.NotNil(t, response)

	return response
}

func TestProcess(t *testing.T) {
	cfg := config.Default()
	cfg.Body.MaxSize = 8
	cfg.Headers.Default = map[string]string{"Server": "xpress"}
	srv := New(cfg, testRouter().Freeze(), zerolog.Nop())

	t.Run("body too large", func(t *testing.T) {
		response := process(t, srv, "POST /echo HTTP/1.1\r\nContent-Length: 9\r\n\r\n123456789")
		require.Equal(t, status.RequestEntityTooLarge, response.Reveal().Code)
	})

	t.Run("io error", func(t *testing.T) {
		request := http.NewRequest(cfg, nil)
		raw := "POST /echo HTTP/1.1\r\nContent-Length: 5\r\n\r\nab"
		require.Nil(t, srv.Process(bufio.NewReader(strings.NewReader(raw)), request))
	})

	t.Run("default headers", func(t *testing.T) {
		client, server := net.Pipe()
		go srv.HandleConn(0, server)

		_, err := client.Write([]byte("GET /hello HTTP/1.1\r\n\r\n"))
		require.NoError(t, err)

		response, err := httptest.Read(client)
		require.NoError(t, err)
		require.Equal(t, "xpress", response.Headers.Value("Server"))
		require.Equal(t, "Hello, World!", response.Body)
	})
}

type failure struct {
	reason string
}

func (f *failure) Error() string {
	return f.reason
}

func TestHandleConnRecovery(t *testing.T) {
	// resolving against a nil table panics outside of the handler
	srv := New(config.Default(), nil, zerolog.Nop())

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.HandleConn(0, server)
		close(done)
	}()

	_, err := client.Write([]byte("GET /hello HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	response, err := httptest.Read(client)
	require.NoError(t, err)
	require.Equal(t, 500, response.Code)
	require.Equal(t, "Internal Server Error", response.Body)
	<-done

	// the same worker slot keeps serving
	client, server = net.Pipe()
	go srv.HandleConn(0, server)
	_, err = client.Write([]byte("GET /hello HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	response, err = httptest.Read(client)
	require.NoError(t, err)
	require.Equal(t, 500, response.Code)
}

func TestServeTwice(t *testing.T) {
	srv := serve(t, config.Default(), testRouter())
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	require.ErrorIs(t, srv.Serve(listener), ErrAlreadyServing)
}
