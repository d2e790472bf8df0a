package radix

import (
	"errors"

	"github.com/indigo-web/xpress/kv"
)

var (
	ErrMismatchingWildcards = errors.New(
		"having two different names for wildcards sharing common prefix isn't supported",
	)
	ErrAlreadyInserted = errors.New("template is already inserted")
)

// Node is a segment trie. Every node has any number of static children and at most one
// dynamic child. Static children are always probed first, so a more specific template
// wins over a less specific one regardless of the insertion order.
type Node[T any] struct {
	static   map[string]*Node[T]
	dyn      *Node[T]
	wildcard string
	isLeaf   bool
	payload  T
}

func New[T any]() *Node[T] {
	return new(Node[T])
}

// Insert binds the value to the template.
func (n *Node[T]) Insert(template Template, value T) error {
	node := n

	for _, segment := range template {
		if segment.IsWildcard {
			if node.dyn == nil {
				node.dyn = New[T]()
				node.wildcard = segment.Value
			}

			if node.wildcard != segment.Value {
				return ErrMismatchingWildcards
			}

			node = node.dyn
			continue
		}

		child, found := node.static[segment.Value]
		if !found {
			if node.static == nil {
				node.static = make(map[string]*Node[T])
			}

			child = New[T]()
			node.static[segment.Value] = child
		}

		node = child
	}

	if node.isLeaf {
		return ErrAlreadyInserted
	}

	node.isLeaf = true
	node.payload = value

	return nil
}

// Lookup finds the value bound to the path. Values of dynamic segments are stored into
// params, but only if the path matched.
func (n *Node[T]) Lookup(path string, params *kv.Storage) (value T, found bool) {
	node, captured := n.match(path, nil)
	if node == nil {
		return value, false
	}

	if params != nil {
		for _, pair := range captured {
			params.Set(pair.Key, pair.Value)
		}
	}

	return node.payload, true
}

// Match reports whether any template matches the path.
func (n *Node[T]) Match(path string) bool {
	node, _ := n.match(path, nil)
	return node != nil
}

func (n *Node[T]) match(path string, captured []kv.Pair) (*Node[T], []kv.Pair) {
	segment, rest := next(path)
	if len(segment) == 0 {
		if n.isLeaf {
			return n, captured
		}

		return nil, nil
	}

	if child, found := n.static[segment]; found {
		if node, c := child.match(rest, captured); node != nil {
			return node, c
		}
	}

	if n.dyn == nil {
		return nil, nil
	}

	// the static branch didn't work out, so the dynamic one is the last chance
	return n.dyn.match(rest, append(captured, kv.Pair{Key: n.wildcard, Value: segment}))
}
