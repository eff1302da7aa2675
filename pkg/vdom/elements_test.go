package vdom

import (
	"testing"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
)

func TestCreateElement(t *testing.T) {
	t.Run("basic element", func(t *testing.T) {
		node, err := CreateElement("div", nil)
		if err != nil {
			t.Fatalf("CreateElement error: %v", err)
		}
		if node.Type != TypeHost {
			t.Errorf("Type = %v, want Host", node.Type)
		}
		if node.Kind != "div" {
			t.Errorf("Kind = %v, want div", node.Kind)
		}
		if node.Attrs == nil {
			t.Error("Attrs should be non-nil")
		}
	})

	t.Run("empty kind fails fast", func(t *testing.T) {
		_, err := CreateElement("", Attrs{"id": "x"})
		if !errors.HasCode(err, "E001") {
			t.Errorf("err = %v, want E001", err)
		}
	})

	t.Run("text kind is reserved", func(t *testing.T) {
		_, err := CreateElement(TextKind, nil)
		if !errors.HasCode(err, "E001") {
			t.Errorf("err = %v, want E001", err)
		}
	})

	t.Run("unsupported child fails", func(t *testing.T) {
		_, err := CreateElement("div", nil, struct{}{})
		if !errors.HasCode(err, "E001") {
			t.Errorf("err = %v, want E001", err)
		}
	})

	t.Run("attrs are copied", func(t *testing.T) {
		attrs := Attrs{"id": "a"}
		node, _ := CreateElement("div", attrs)
		attrs["id"] = "b"
		if node.Attrs["id"] != "a" {
			t.Errorf("id = %v, want a (element must not alias caller map)", node.Attrs["id"])
		}
	})

	t.Run("children attr is dropped", func(t *testing.T) {
		node, _ := CreateElement("div", Attrs{ChildrenAttr: []any{"x"}})
		if _, ok := node.Attrs[ChildrenAttr]; ok {
			t.Error("children attribute should be stripped")
		}
	})

	t.Run("scalar children become text", func(t *testing.T) {
		node, err := CreateElement("p", nil, "hello", 42, nil, Span())
		if err != nil {
			t.Fatal(err)
		}
		if len(node.Children) != 3 {
			t.Fatalf("Children len = %d, want 3", len(node.Children))
		}
		if node.Children[0].Type != TypeText || node.Children[0].Value() != "hello" {
			t.Errorf("child 0 = %+v", node.Children[0])
		}
		if node.Children[1].Value() != "42" {
			t.Errorf("child 1 value = %q, want 42", node.Children[1].Value())
		}
		if node.Children[2].Kind != "span" {
			t.Errorf("child 2 kind = %q, want span", node.Children[2].Kind)
		}
	})
}

func TestMustElementPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustElement(\"\") should panic")
		}
	}()
	MustElement("", nil)
}

func TestCreateTextElement(t *testing.T) {
	node := CreateTextElement("hi")
	if node.Kind != TextKind {
		t.Errorf("Kind = %q, want %q", node.Kind, TextKind)
	}
	if node.Attrs[NodeValue] != "hi" {
		t.Errorf("nodeValue = %v, want hi", node.Attrs[NodeValue])
	}
	if len(node.Attrs) != 1 {
		t.Errorf("text element should carry a single attribute, got %v", node.Attrs)
	}
	if len(node.Children) != 0 {
		t.Error("text element should have no children")
	}
}

func TestTagHelpers(t *testing.T) {
	t.Run("with attributes", func(t *testing.T) {
		node := Div(Class("card", "wide"), ID("main"))
		if node.Attrs["class"] != "card wide" {
			t.Errorf("class = %v, want %q", node.Attrs["class"], "card wide")
		}
		if node.Attrs["id"] != "main" {
			t.Errorf("id = %v, want main", node.Attrs["id"])
		}
	})

	t.Run("with nested children", func(t *testing.T) {
		node := Ul(Li("one"), Li("two"), []*Element{Li("three"), nil})
		if len(node.Children) != 3 {
			t.Fatalf("Children len = %d, want 3", len(node.Children))
		}
		if got := node.Children[2].Children[0].Value(); got != "three" {
			t.Errorf("third item text = %q", got)
		}
	})

	t.Run("with attr slice and map", func(t *testing.T) {
		node := Input([]Attr{Type("text"), Name("q")}, Attrs{"value": "x"})
		for k, want := range map[string]string{"type": "text", "name": "q", "value": "x"} {
			if node.Attrs[k] != want {
				t.Errorf("%s = %v, want %s", k, node.Attrs[k], want)
			}
		}
	})

	t.Run("custom element", func(t *testing.T) {
		node, err := CustomElement("my-widget", ID("w"))
		if err != nil || node.Kind != "my-widget" {
			t.Errorf("CustomElement = %v, %v", node, err)
		}
		if _, err := CustomElement(""); !errors.HasCode(err, "E001") {
			t.Errorf("CustomElement(\"\") err = %v, want E001", err)
		}
	})
}

func TestComponent(t *testing.T) {
	render := func(a Attrs) *Element { return P(a["label"]) }

	node, err := Component("Label", render, Prop("label", "hi"))
	if err != nil {
		t.Fatal(err)
	}
	if node.Type != TypeComponent || node.Kind != "Label" {
		t.Errorf("node = %+v", node)
	}
	out := node.Render(node.Attrs)
	if out.Children[0].Value() != "hi" {
		t.Errorf("rendered text = %q, want hi", out.Children[0].Value())
	}

	if _, err := Component("", render); !errors.HasCode(err, "E001") {
		t.Errorf("empty name err = %v", err)
	}
	if _, err := Component("X", nil); !errors.HasCode(err, "E001") {
		t.Errorf("nil render err = %v", err)
	}
}

func TestListenerAttributesAreBound(t *testing.T) {
	calls := 0
	node, err := CreateElement("button", Attrs{
		"onClick": func(host.Event) { calls++ },
		"onInput": func(string) {},
		"title":   "save",
	})
	if err != nil {
		t.Fatalf("CreateElement error: %v", err)
	}
	l, ok := node.Attrs["onClick"].(*Listener)
	if !ok {
		t.Fatalf("onClick = %T, want *Listener", node.Attrs["onClick"])
	}
	l.Invoke(host.Event{Type: "click"})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if _, ok := node.Attrs["onInput"].(*Listener); !ok {
		t.Errorf("onInput = %T, want *Listener", node.Attrs["onInput"])
	}
	if node.Attrs["title"] != "save" {
		t.Errorf("title = %v, want save", node.Attrs["title"])
	}

	same := NewListener(func() {})
	node = MustElement("a", Attrs{"onClick": same})
	if node.Attrs["onClick"] != same {
		t.Error("an existing *Listener must be kept as is")
	}

	if _, err := CreateElement("button", Attrs{"onClick": "alert(1)"}); !errors.HasCode(err, "E001") {
		t.Errorf("string handler err = %v, want E001", err)
	}
	if _, err := CreateElement("button", Attrs{"onClick": nil}); !errors.HasCode(err, "E001") {
		t.Errorf("nil handler err = %v, want E001", err)
	}

	render := func(a Attrs) *Element { return Button(a) }
	comp, err := Component("Save", render, Prop("onClick", func() {}))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := comp.Attrs["onClick"].(*Listener); !ok {
		t.Errorf("component onClick = %T, want *Listener", comp.Attrs["onClick"])
	}
	if _, err := Component("Save", render, Prop("onClick", 42)); !errors.HasCode(err, "E001") {
		t.Errorf("component bad handler err = %v, want E001", err)
	}

	built := Button(Prop("onClick", func() {}), Prop("onHover", 3))
	if _, ok := built.Attrs["onClick"].(*Listener); !ok {
		t.Errorf("builder onClick = %T, want *Listener", built.Attrs["onClick"])
	}
	if _, ok := built.Attrs["onHover"]; ok {
		t.Error("builder should drop a non-handler on* value")
	}
}

func TestElementTypeString(t *testing.T) {
	cases := map[ElementType]string{
		TypeHost:         "Host",
		TypeText:         "Text",
		TypeComponent:    "Component",
		ElementType(200): "Unknown",
	}
	for typ, want := range cases {
		if typ.String() != want {
			t.Errorf("%d.String() = %q, want %q", typ, typ.String(), want)
		}
	}
}
