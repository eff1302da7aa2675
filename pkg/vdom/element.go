package vdom

import (
	"fmt"
	"maps"

	"github.com/vango-dev/fiber/internal/errors"
)

// ElementType is the element variant discriminator.
type ElementType uint8

const (
	TypeHost      ElementType = iota // <div>, <button>, etc.
	TypeText                         // Text node
	TypeComponent                    // Pure render function, no host node
)

// String returns the string representation of the ElementType.
func (t ElementType) String() string {
	switch t {
	case TypeHost:
		return "Host"
	case TypeText:
		return "Text"
	case TypeComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// Reserved names.
const (
	// TextKind is the kind of every text element.
	TextKind = "TEXT_ELEMENT"

	// NodeValue is the attribute holding a text element's content.
	NodeValue = "nodeValue"

	// ChildrenAttr is reserved and never applied as a host property.
	ChildrenAttr = "children"
)

// Attrs holds attributes and event listeners.
type Attrs map[string]any

// Clone returns a shallow copy of the attributes. A nil map clones to an empty one.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	maps.Copy(out, a)
	return out
}

// RenderFunc is a component body. It must be pure.
type RenderFunc func(attrs Attrs) *Element

// Element is a node description.
type Element struct {
	Type     ElementType // Variant
	Kind     string      // Tag name, TextKind, or component name
	Attrs    Attrs       // Attributes and listeners
	Children []*Element  // Ordered children
	Render   RenderFunc  // For TypeComponent
}

// Value returns a text element's content.
func (e *Element) Value() string {
	if e == nil || e.Type != TypeText {
		return ""
	}
	return FormatValue(e.Attrs[NodeValue])
}

// CreateElement builds a host element. Children may be *Element,
// []*Element, nil (skipped), or scalars that become text elements.
// Every "on*" attribute is stored as a *Listener; handler forms
// NewListener rejects fail with E001, as do an empty kind and
// unsupported children.
func CreateElement(kind string, attrs Attrs, children ...any) (*Element, error) {
	if kind == "" {
		return nil, errors.New("E001").WithDetail("element kind is empty")
	}
	if kind == TextKind {
		return nil, errors.New("E001").
			WithDetailf("kind %q is reserved for text elements", TextKind).
			WithSuggestion("Use CreateTextElement for text")
	}
	node := &Element{
		Type:     TypeHost,
		Kind:     kind,
		Attrs:    attrs.Clone(),
		Children: make([]*Element, 0, len(children)),
	}
	delete(node.Attrs, ChildrenAttr)
	if err := bindListeners(node.Attrs); err != nil {
		return nil, errors.New("E001").WithDetailf("<%s>: %v", kind, err)
	}
	for i, child := range children {
		var err error
		node.Children, err = appendChild(node.Children, child)
		if err != nil {
			return nil, errors.New("E001").
				WithDetailf("child %d of <%s>: %v", i, kind, err)
		}
	}
	return node, nil
}

// MustElement is like CreateElement but panics on a malformed description.
func MustElement(kind string, attrs Attrs, children ...any) *Element {
	node, err := CreateElement(kind, attrs, children...)
	if err != nil {
		panic(err)
	}
	return node
}

// CreateTextElement builds a text element holding value.
func CreateTextElement(value any) *Element {
	return &Element{
		Type:     TypeText,
		Kind:     TextKind,
		Attrs:    Attrs{NodeValue: FormatValue(value)},
		Children: nil,
	}
}

// Text creates a text element.
func Text(content string) *Element {
	return CreateTextElement(content)
}

// Textf creates a formatted text element.
func Textf(format string, args ...any) *Element {
	return CreateTextElement(fmt.Sprintf(format, args...))
}

// Component builds a component element. Args are attributes (Attr,
// []Attr, Attrs) passed to render on every unit of work for the fiber.
// "on*" attributes reach render as *Listener values.
func Component(name string, render RenderFunc, args ...any) (*Element, error) {
	if name == "" {
		return nil, errors.New("E001").WithDetail("component name is empty")
	}
	if render == nil {
		return nil, errors.New("E001").WithDetailf("component %q has no render function", name)
	}
	node := &Element{
		Type:   TypeComponent,
		Kind:   name,
		Attrs:  make(Attrs),
		Render: render,
	}
	for _, arg := range args {
		applyAttrArg(node.Attrs, arg)
	}
	if err := bindListeners(node.Attrs); err != nil {
		return nil, errors.New("E001").WithDetailf("component %q: %v", name, err)
	}
	return node, nil
}

// bindListeners replaces each "on*" value in attrs with its *Listener.
func bindListeners(attrs Attrs) error {
	for name, v := range attrs {
		if !IsEvent(name) {
			continue
		}
		l := NewListener(v)
		if l == nil {
			return fmt.Errorf("%s: unsupported handler %T", name, v)
		}
		attrs[name] = l
	}
	return nil
}

// appendChild normalizes a single child argument.
func appendChild(children []*Element, child any) ([]*Element, error) {
	switch v := child.(type) {
	case nil:
		return children, nil
	case *Element:
		if v != nil {
			children = append(children, v)
		}
		return children, nil
	case []*Element:
		for _, c := range v {
			if c != nil {
				children = append(children, c)
			}
		}
		return children, nil
	case string, fmt.Stringer, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return append(children, CreateTextElement(v)), nil
	default:
		return children, fmt.Errorf("unsupported child type %T", child)
	}
}
