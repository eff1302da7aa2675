// Package vdom builds element descriptions, the declarative input to a
// fiber render request.
//
// An Element is plain data: a kind, an attribute map, and an ordered
// list of children. Elements are immutable once built and are created
// fresh for every render.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1("Title"),
//	    P("Content"),
//	    OnClick(func() { ... }),
//	)
//
// Strings and other scalar children become text elements of kind
// TextKind with a single "nodeValue" attribute.
//
// # Attributes
//
// Attribute names starting with "on" bind event listeners; the event
// type is the lower-cased remainder of the name. The name "children" is
// reserved and never applied to a host node.
//
// # Components
//
// Component wraps a pure render function. Its fiber owns no host node;
// the rendered element becomes its only child.
package vdom
