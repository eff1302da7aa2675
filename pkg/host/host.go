// Package host defines the boundary between the fiber engine and the
// environment that owns the real node tree.
//
// The engine never touches host nodes directly. It calls the eight
// primitives on Host and treats the returned Handle values as opaque.
// Implementations live elsewhere: memhost keeps an in-memory document,
// remote batches mutations for a wire transport.
package host

// Handle is an opaque reference to a host node.
// A nil Handle means "not materialized". Handles must be comparable.
type Handle any

// Event is delivered to listeners bound with AddListener.
type Event struct {
	// Type is the event type without the "on" prefix (e.g., "click").
	Type string

	// Target is the handle the listener was bound to.
	Target Handle

	// Value carries an optional payload (e.g., an input's value).
	Value string
}

// Callback receives host events.
type Callback interface {
	Invoke(Event)
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func(Event)

// Invoke implements Callback.
func (f CallbackFunc) Invoke(e Event) {
	if f != nil {
		f(e)
	}
}

// Host is the set of mutation primitives the commit phase relies on.
//
// Every method may fail. The engine does not retry or roll back; a
// failure aborts the commit and is reported to the caller.
type Host interface {
	// CreateNode creates a detached element node of the given kind.
	CreateNode(kind string) (Handle, error)

	// CreateTextNode creates a detached text node.
	CreateTextNode(value string) (Handle, error)

	// SetAttribute sets a property on a node.
	SetAttribute(h Handle, name string, value any) error

	// RemoveAttribute clears a property on a node.
	RemoveAttribute(h Handle, name string) error

	// AddListener binds cb to the event type on a node.
	AddListener(h Handle, event string, cb Callback) error

	// RemoveListener unbinds a previously added cb.
	RemoveListener(h Handle, event string, cb Callback) error

	// AppendChild attaches child as the last child of parent.
	AppendChild(parent, child Handle) error

	// RemoveChild detaches child from parent.
	RemoveChild(parent, child Handle) error
}
