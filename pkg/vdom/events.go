package vdom

import "github.com/vango-dev/fiber/pkg/host"

// Listener is the value stored under an "on*" attribute.
//
// Listeners compare by pointer identity: reusing the same *Listener
// across renders leaves the host binding untouched, while a fresh one
// rebinds it.
type Listener struct {
	Fn func(host.Event)
}

// Invoke implements host.Callback.
func (l *Listener) Invoke(e host.Event) {
	if l != nil && l.Fn != nil {
		l.Fn(e)
	}
}

// NewListener wraps a handler. Accepted forms: func(), func(host.Event),
// func(string) (receives Event.Value), *Listener, host.Callback.
// Unsupported forms yield nil.
func NewListener(handler any) *Listener {
	switch h := handler.(type) {
	case *Listener:
		return h
	case func(host.Event):
		return &Listener{Fn: h}
	case func():
		return &Listener{Fn: func(host.Event) { h() }}
	case func(string):
		return &Listener{Fn: func(e host.Event) { h(e.Value) }}
	case host.Callback:
		return &Listener{Fn: h.Invoke}
	default:
		return nil
	}
}

// On binds a handler to an event type (e.g., On("click", fn) → "onclick").
func On(event string, handler any) Attr {
	l := NewListener(handler)
	if l == nil {
		return Attr{}
	}
	return Attr{Key: "on" + event, Value: l}
}

// Mouse events

// OnClick handles click events.
func OnClick(handler any) Attr { return On("click", handler) }

// OnDblClick handles double-click events.
func OnDblClick(handler any) Attr { return On("dblclick", handler) }

// OnMouseEnter handles mouseenter events.
func OnMouseEnter(handler any) Attr { return On("mouseenter", handler) }

// OnMouseLeave handles mouseleave events.
func OnMouseLeave(handler any) Attr { return On("mouseleave", handler) }

// Keyboard events

// OnKeyDown handles keydown events.
func OnKeyDown(handler any) Attr { return On("keydown", handler) }

// OnKeyUp handles keyup events.
func OnKeyUp(handler any) Attr { return On("keyup", handler) }

// Form events

// OnInput handles input events (fired when value changes).
func OnInput(handler any) Attr { return On("input", handler) }

// OnChange handles change events (fired when value is committed).
func OnChange(handler any) Attr { return On("change", handler) }

// OnSubmit handles form submit events.
func OnSubmit(handler any) Attr { return On("submit", handler) }

// OnFocus handles focus events.
func OnFocus(handler any) Attr { return On("focus", handler) }

// OnBlur handles blur events.
func OnBlur(handler any) Attr { return On("blur", handler) }
