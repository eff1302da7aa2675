package memhost

import (
	"reflect"
	"slices"

	"github.com/vango-dev/fiber/pkg/host"
)

// TextKind is the Kind of text nodes.
const TextKind = "#text"

// Node is a host node.
type Node struct {
	ID       int
	Kind     string
	Text     string
	Props    map[string]any
	Parent   *Node
	Children []*Node

	listeners map[string][]host.Callback
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n.Kind == TextKind
}

// Listeners returns the callbacks bound to an event type.
func (n *Node) Listeners(event string) []host.Callback {
	return n.listeners[event]
}

// ListenerCount returns the total number of bound callbacks.
func (n *Node) ListenerCount() int {
	total := 0
	for _, cbs := range n.listeners {
		total += len(cbs)
	}
	return total
}

// Events returns the event types with at least one listener, sorted.
func (n *Node) Events() []string {
	out := make([]string, 0, len(n.listeners))
	for ev, cbs := range n.listeners {
		if len(cbs) > 0 {
			out = append(out, ev)
		}
	}
	slices.Sort(out)
	return out
}

// TextContent concatenates all descendant text.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var s string
	for _, c := range n.Children {
		s += c.TextContent()
	}
	return s
}

// Walk visits n and its descendants depth-first. Returning false stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first node (depth-first) matching pred.
func (n *Node) Find(pred func(*Node) bool) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// ByAttr returns the first node whose prop name equals value.
func (n *Node) ByAttr(name string, value any) *Node {
	return n.Find(func(c *Node) bool {
		v, ok := c.Props[name]
		return ok && v == value
	})
}

func (n *Node) indexOf(child *Node) int {
	return slices.Index(n.Children, child)
}

func (n *Node) detach(child *Node) bool {
	i := n.indexOf(child)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	child.Parent = nil
	return true
}

// sameCallback compares callbacks without panicking on uncomparable
// dynamic types (e.g., host.CallbackFunc).
func sameCallback(a, b host.Callback) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
