package vdom

// Attr represents a single attribute or listener binding.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// el creates a host element with the given tag and arguments.
// Arguments can be: nil, Attr, []Attr, Attrs, *Element, []*Element, or
// a scalar (string, number, bool, fmt.Stringer) that becomes a text child.
// Anything else is ignored, as are "on*" values that are not handlers.
func el(tag string, args []any) *Element {
	node := &Element{
		Type:     TypeHost,
		Kind:     tag,
		Attrs:    make(Attrs),
		Children: make([]*Element, 0),
	}
	for _, arg := range args {
		if applyAttrArg(node.Attrs, arg) {
			continue
		}
		if children, err := appendChild(node.Children, arg); err == nil {
			node.Children = children
		}
	}
	delete(node.Attrs, ChildrenAttr)
	for name, v := range node.Attrs {
		if !IsEvent(name) {
			continue
		}
		if l := NewListener(v); l != nil {
			node.Attrs[name] = l
		} else {
			delete(node.Attrs, name)
		}
	}
	return node
}

// applyAttrArg merges arg into attrs if it is an attribute form.
func applyAttrArg(attrs Attrs, arg any) bool {
	switch v := arg.(type) {
	case Attr:
		if !v.IsEmpty() {
			attrs[v.Key] = v.Value
		}
		return true
	case []Attr:
		for _, a := range v {
			if !a.IsEmpty() {
				attrs[a.Key] = a.Value
			}
		}
		return true
	case Attrs:
		for k, val := range v {
			attrs[k] = val
		}
		return true
	}
	return false
}

// Document structure elements

func Html(args ...any) *Element  { return el("html", args) }
func Head(args ...any) *Element  { return el("head", args) }
func Body(args ...any) *Element  { return el("body", args) }
func Title(args ...any) *Element { return el("title", args) }

// Content sectioning elements

func Header(args ...any) *Element  { return el("header", args) }
func Footer(args ...any) *Element  { return el("footer", args) }
func Main(args ...any) *Element    { return el("main", args) }
func Nav(args ...any) *Element     { return el("nav", args) }
func Section(args ...any) *Element { return el("section", args) }
func Article(args ...any) *Element { return el("article", args) }
func Aside(args ...any) *Element   { return el("aside", args) }
func H1(args ...any) *Element      { return el("h1", args) }
func H2(args ...any) *Element      { return el("h2", args) }
func H3(args ...any) *Element      { return el("h3", args) }

// Text content elements

func Div(args ...any) *Element  { return el("div", args) }
func P(args ...any) *Element    { return el("p", args) }
func Span(args ...any) *Element { return el("span", args) }
func Pre(args ...any) *Element  { return el("pre", args) }
func Ul(args ...any) *Element   { return el("ul", args) }
func Ol(args ...any) *Element   { return el("ol", args) }
func Li(args ...any) *Element   { return el("li", args) }
func Hr(args ...any) *Element   { return el("hr", args) }

// Inline text semantics

func A(args ...any) *Element      { return el("a", args) }
func Strong(args ...any) *Element { return el("strong", args) }
func Em(args ...any) *Element     { return el("em", args) }
func Code(args ...any) *Element   { return el("code", args) }
func Br(args ...any) *Element     { return el("br", args) }

// Form elements

func Form(args ...any) *Element     { return el("form", args) }
func Input(args ...any) *Element    { return el("input", args) }
func Textarea(args ...any) *Element { return el("textarea", args) }
func Select(args ...any) *Element   { return el("select", args) }
func Option(args ...any) *Element   { return el("option", args) }
func Button(args ...any) *Element   { return el("button", args) }
func Label(args ...any) *Element    { return el("label", args) }

// Table elements

func Table(args ...any) *Element { return el("table", args) }
func Thead(args ...any) *Element { return el("thead", args) }
func Tbody(args ...any) *Element { return el("tbody", args) }
func Tr(args ...any) *Element    { return el("tr", args) }
func Th(args ...any) *Element    { return el("th", args) }
func Td(args ...any) *Element    { return el("td", args) }

// Media elements

func Img(args ...any) *Element    { return el("img", args) }
func Canvas(args ...any) *Element { return el("canvas", args) }

// CustomElement creates an element with a custom tag name.
// An empty tag fails the same way CreateElement does.
func CustomElement(tag string, args ...any) (*Element, error) {
	if tag == "" || tag == TextKind {
		_, err := CreateElement(tag, nil)
		return nil, err
	}
	return el(tag, args), nil
}
