// Package xpress is a minimal HTTP/1.1 server framework. Every connection carries exactly one
// request, which is processed by one of a fixed amount of workers and is answered with
// exactly one response.
package xpress

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/indigo-web/xpress/config"
	"github.com/indigo-web/xpress/internal/server"
	"github.com/indigo-web/xpress/router"
)

var ErrRunning = errors.New("xpress: application is already running")

// App holds the routes, the settings and the hooks of the application.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	router *router.Router
	hooks  hooks

	mu     sync.Mutex
	server *server.Server
}

// New returns a new App instance with default settings.
func New() *App {
	return &App{
		cfg:    config.Default(),
		log:    zerolog.New(os.Stderr).With().Timestamp().Logger(),
		router: router.New(),
	}
}

// Tune replaces default settings.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	return a
}

// Logger replaces the default logger, writing JSON lines into stderr.
func (a *App) Logger(logger zerolog.Logger) *App {
	a.log = logger
	return a
}

// NotifyOnStart calls the callback at the moment, when the server is ready to accept
// connections.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when the server is down. It's guaranteed
// that all the accepted connections are already served at this point.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Register adds a route by the pattern in form of "METHOD /path/:param".
func (a *App) Register(pattern string, handler router.Handler) error {
	return a.router.Register(pattern, handler)
}

// Route adds a route. It panics if the route can't be registered.
func (a *App) Route(method, path string, handler router.Handler) *App {
	a.router.Route(method, path, handler)
	return a
}

// Group returns a router, registering all the routes with the prefix.
func (a *App) Group(prefix string) *router.Router {
	return a.router.Group(prefix)
}

func (a *App) Get(path string, handler router.Handler) *App {
	a.router.Get(path, handler)
	return a
}

func (a *App) Head(path string, handler router.Handler) *App {
	a.router.Head(path, handler)
	return a
}

func (a *App) Post(path string, handler router.Handler) *App {
	a.router.Post(path, handler)
	return a
}

func (a *App) Put(path string, handler router.Handler) *App {
	a.router.Put(path, handler)
	return a
}

func (a *App) Patch(path string, handler router.Handler) *App {
	a.router.Patch(path, handler)
	return a
}

func (a *App) Delete(path string, handler router.Handler) *App {
	a.router.Delete(path, handler)
	return a
}

func (a *App) Options(path string, handler router.Handler) *App {
	a.router.Options(path, handler)
	return a
}

// Listen binds the TCP address and serves on it. A bind failure is returned immediately,
// otherwise the call blocks until the application is stopped.
func (a *App) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("xpress: listen: %w", err)
	}

	return a.Serve(listener)
}

// Serve serves on an already bound listener. The routing table is frozen at this point,
// so no routes can be added anymore. A stopped application may be served again.
func (a *App) Serve(listener net.Listener) error {
	a.mu.Lock()
	if a.server != nil {
		a.mu.Unlock()
		_ = listener.Close()
		return ErrRunning
	}

	a.server = server.New(a.cfg, a.router.Freeze(), a.log)
	a.server.NotifyOnStart(a.hooks.OnStart)
	srv := a.server
	a.mu.Unlock()

	err := srv.Serve(listener)

	a.mu.Lock()
	a.server = nil
	a.mu.Unlock()

	callIfNotNil(a.hooks.OnStop)

	return err
}

// Stop closes the listener and waits until all the accepted connections are served. Calling
// it before the application started serving does nothing.
func (a *App) Stop() {
	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()

	if srv != nil {
		srv.Stop()
	}
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
