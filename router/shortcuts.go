package router

import (
	"github.com/indigo-web/xpress/http/method"
)

// Get is a shortcut for registering GET-requests.
func (r *Router) Get(path string, handler Handler) *Router {
	return r.Route(method.GET, path, handler)
}

// Head is a shortcut for registering HEAD-requests.
func (r *Router) Head(path string, handler Handler) *Router {
	return r.Route(method.HEAD, path, handler)
}

// Post is a shortcut for registering POST-requests.
func (r *Router) Post(path string, handler Handler) *Router {
	return r.Route(method.POST, path, handler)
}

// Put is a shortcut for registering PUT-requests.
func (r *Router) Put(path string, handler Handler) *Router {
	return r.Route(method.PUT, path, handler)
}

// Patch is a shortcut for registering PATCH-requests.
func (r *Router) Patch(path string, handler Handler) *Router {
	return r.Route(method.PATCH, path, handler)
}

// Delete is a shortcut for registering DELETE-requests.
func (r *Router) Delete(path string, handler Handler) *Router {
	return r.Route(method.DELETE, path, handler)
}

// Options is a shortcut for registering OPTIONS-requests.
func (r *Router) Options(path string, handler Handler) *Router {
	return r.Route(method.OPTIONS, path, handler)
}
