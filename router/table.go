package router

import (
	"sort"
	"strings"

	"github.com/indigo-web/xpress/kv"
	"github.com/indigo-web/xpress/router/radix"
)

// Outcome tells how the resolution ended up.
type Outcome uint8

const (
	// Found means a handler was found for both the method and the path.
	Found Outcome = iota + 1
	// NotFound means no route matches the path for any method.
	NotFound
	// MethodNotAllowed means some routes match the path, but none of them for the method.
	MethodNotAllowed
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not found"
	case MethodNotAllowed:
		return "method not allowed"
	default:
		return "unknown"
	}
}

type Resolution struct {
	Outcome Outcome
	// Handler is non-nil only if the Outcome is Found.
	Handler Handler
	// Allow lists comma-separated methods matching the path, if the Outcome is
	// MethodNotAllowed.
	Allow string
}

// Table is the frozen routing table. It's never mutated, so it's safe for concurrent use.
type Table struct {
	trees   map[string]*radix.Node[Handler]
	methods []string
}

func newTable(trees map[string]*radix.Node[Handler]) *Table {
	methods := make([]string, 0, len(trees))
	for m := range trees {
		methods = append(methods, m)
	}

	sort.Strings(methods)

	return &Table{
		trees:   trees,
		methods: methods,
	}
}

// Resolve finds the handler for the method and the path. Values of dynamic segments are
// stored into params only if the handler was found.
func (t *Table) Resolve(method, path string, params *kv.Storage) Resolution {
	if tree, found := t.trees[method]; found {
		if handler, found := tree.Lookup(path, params); found {
			return Resolution{Outcome: Found, Handler: handler}
		}
	}

	var allowed []string
	for _, m := range t.methods {
		if m != method && t.trees[m].Match(path) {
			allowed = append(allowed, m)
		}
	}

	if len(allowed) == 0 {
		return Resolution{Outcome: NotFound}
	}

	return Resolution{
		Outcome: MethodNotAllowed,
		Allow:   strings.Join(allowed, ", "),
	}
}

// Methods returns the sorted list of methods having at least one route.
func (t *Table) Methods() []string {
	return append([]string(nil), t.methods...)
}
