package vdom

import "testing"

func TestConditionals(t *testing.T) {
	a, b := Div(), Span()
	if If(true, a) != a || If(false, a) != nil {
		t.Error("If misbehaves")
	}
	if IfElse(true, a, b) != a || IfElse(false, a, b) != b {
		t.Error("IfElse misbehaves")
	}
	if Unless(true, a) != nil || Unless(false, a) != a {
		t.Error("Unless misbehaves")
	}
	called := false
	if When(false, func() *Element { called = true; return a }) != nil || called {
		t.Error("When(false) must not call fn")
	}
	if When(true, func() *Element { return a }) != a {
		t.Error("When(true) should return fn result")
	}
}

func TestRangeAndRepeat(t *testing.T) {
	items := []string{"a", "", "c"}
	nodes := Range(items, func(s string, _ int) *Element {
		if s == "" {
			return nil
		}
		return Li(s)
	})
	if len(nodes) != 2 {
		t.Errorf("Range len = %d, want 2", len(nodes))
	}

	if Repeat(0, func(int) *Element { return Div() }) != nil {
		t.Error("Repeat(0) should be nil")
	}
	if got := len(Repeat(3, func(int) *Element { return Div() })); got != 3 {
		t.Errorf("Repeat(3) len = %d", got)
	}
}

func TestCount(t *testing.T) {
	tree := Div(H1("t"), Ul(Li("a"), Li("b")))
	// div, h1, text, ul, li, text, li, text
	if got := Count(tree); got != 8 {
		t.Errorf("Count = %d, want 8", got)
	}
	if Count(nil) != 0 {
		t.Error("Count(nil) should be 0")
	}
}
