package vdom

import "testing"

func TestIsEvent(t *testing.T) {
	tests := map[string]bool{
		"onclick": true,
		"onClick": true,
		"on":      false,
		"one":     true,
		"id":      false,
		"class":   false,
	}
	for name, want := range tests {
		if got := IsEvent(name); got != want {
			t.Errorf("IsEvent(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEventType(t *testing.T) {
	if got := EventType("onClick"); got != "click" {
		t.Errorf("EventType(onClick) = %q, want click", got)
	}
	if got := EventType("onkeydown"); got != "keydown" {
		t.Errorf("EventType(onkeydown) = %q, want keydown", got)
	}
}

func TestIsProperty(t *testing.T) {
	if IsProperty("children") {
		t.Error("children must not be a property")
	}
	if IsProperty("onClick") {
		t.Error("listeners must not be properties")
	}
	if !IsProperty("id") || !IsProperty(NodeValue) {
		t.Error("id and nodeValue are properties")
	}
}

func TestSameValue(t *testing.T) {
	l1, l2 := &Listener{}, &Listener{}
	fn := func() {}
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal strings", "a", "a", true},
		{"different strings", "a", "b", false},
		{"string vs int", "1", 1, false},
		{"equal ints", 1, 1, true},
		{"equal int64", int64(2), int64(2), true},
		{"equal floats", 1.5, 1.5, true},
		{"bools", true, false, false},
		{"nil nil", nil, nil, true},
		{"nil vs value", nil, "x", false},
		{"same listener", l1, l1, true},
		{"different listeners", l1, l2, false},
		{"func never equal", fn, fn, false},
		{"slices deep equal", []string{"a"}, []string{"a"}, true},
	}
	for _, tt := range tests {
		if got := SameValue(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: SameValue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

type stringer struct{}

func (stringer) String() string { return "str" }

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{true, "true"},
		{7, "7"},
		{int64(-3), "-3"},
		{2.5, "2.5"},
		{stringer{}, "str"},
		{uint8(9), "9"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
