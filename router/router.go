// Package router maps (method, path) pairs to handlers.
//
// Routes are registered on a Router during the startup. Once the server starts, the Router
// is frozen into a Table, which is immutable and therefore shared by all the workers
// without any synchronization.
package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/indigo-web/xpress/http"
	"github.com/indigo-web/xpress/http/method"
	"github.com/indigo-web/xpress/http/status"
	"github.com/indigo-web/xpress/router/radix"
)

// Handler produces a response for the request. A fresh response builder is available via
// request.Respond(), failures are reported via Response.Error.
type Handler func(request *http.Request) *http.Response

var (
	ErrFrozen            = errors.New("no routes can be registered after the router is frozen")
	ErrAlreadyRegistered = errors.New("route already registered")
)

// Router is the registration stage of the routing. It isn't safe for concurrent use, which
// is fine as long as all the routes are registered from a single goroutine before serving.
type Router struct {
	root   *Router
	prefix string
	trees  map[string]*radix.Node[Handler]
	frozen bool
}

func New() *Router {
	r := &Router{
		trees: make(map[string]*radix.Node[Handler]),
	}
	r.root = r

	return r
}

// Register adds a route defined by the pattern in form of "METHOD /path/:param". The pattern
// is rejected with http.ParseError if it doesn't consist of a method token and a path.
func (r *Router) Register(pattern string, handler Handler) error {
	tokens := strings.Fields(pattern)
	if len(tokens) < 2 {
		return http.NewParseError(status.NewError(
			status.BadRequest, fmt.Sprintf("bad route pattern %q: want METHOD and path", pattern),
		))
	}

	// the query part, if any, doesn't participate in routing
	path, _, _ := strings.Cut(tokens[1], "?")

	return r.Add(tokens[0], path, handler)
}

// Add registers the handler for the method and the path template.
func (r *Router) Add(m, path string, handler Handler) error {
	if r.root.frozen {
		return ErrFrozen
	}

	if !method.IsValid(m) {
		return http.NewParseError(status.NewError(
			status.BadRequest, fmt.Sprintf("bad route method %q", m),
		))
	}

	template, err := radix.Parse(r.prefix + "/" + path)
	if err != nil {
		return http.NewParseError(status.NewError(
			status.BadRequest, fmt.Sprintf("bad route template %q: %s", path, err),
		))
	}

	tree := r.root.trees[m]
	if tree == nil {
		tree = radix.New[Handler]()
		r.root.trees[m] = tree
	}

	switch err = tree.Insert(template, handler); {
	case errors.Is(err, radix.ErrAlreadyInserted):
		return fmt.Errorf("%w: %s %s", ErrAlreadyRegistered, m, template)
	case err != nil:
		return fmt.Errorf("%s %s: %w", m, template, err)
	}

	return nil
}

// Route is a base method for registering handlers. It panics if the route can't be
// registered, as it's always a programming error.
func (r *Router) Route(method, path string, handler Handler) *Router {
	if err := r.Add(method, path, handler); err != nil {
		panic(err)
	}

	return r
}

// Group returns a router registering every route with the prefix. Registered routes
// land in the same table.
func (r *Router) Group(prefix string) *Router {
	return &Router{
		root:   r.root,
		prefix: r.prefix + "/" + prefix,
	}
}

// Freeze finishes the registration stage. All the further registrations fail with
// ErrFrozen.
func (r *Router) Freeze() *Table {
	r.root.frozen = true
	return newTable(r.root.trees)
}
