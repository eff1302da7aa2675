package memhost

import (
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/vdom"
)

func mustNode(t *testing.T, d *Document, kind string) *Node {
	t.Helper()
	h, err := d.CreateNode(kind)
	if err != nil {
		t.Fatalf("CreateNode(%q): %v", kind, err)
	}
	return h.(*Node)
}

func TestCreateAndAppend(t *testing.T) {
	d := New()
	div := mustNode(t, d, "div")
	th, err := d.CreateTextNode("hello")
	if err != nil {
		t.Fatal(err)
	}
	text := th.(*Node)

	if err := d.AppendChild(div, text); err != nil {
		t.Fatal(err)
	}
	if err := d.AppendChild(d.Container(), div); err != nil {
		t.Fatal(err)
	}

	if text.Parent != div || div.Parent != d.Container() {
		t.Error("parent links not set")
	}
	if got := d.Container().TextContent(); got != "hello" {
		t.Errorf("TextContent = %q, want hello", got)
	}
	if d.Node(div.ID) != div {
		t.Error("Node lookup failed")
	}
	if n := d.CountOps(OpAppendChild); n != 2 {
		t.Errorf("appends = %d, want 2", n)
	}
}

func TestAppendMovesAttachedChild(t *testing.T) {
	d := New()
	a := mustNode(t, d, "a")
	b := mustNode(t, d, "b")
	c := mustNode(t, d, "c")
	_ = d.AppendChild(a, c)
	if err := d.AppendChild(b, c); err != nil {
		t.Fatal(err)
	}
	if len(a.Children) != 0 || len(b.Children) != 1 || c.Parent != b {
		t.Error("child should move from a to b")
	}
}

func TestAppendRejectsCycleAndText(t *testing.T) {
	d := New()
	a := mustNode(t, d, "a")
	b := mustNode(t, d, "b")
	_ = d.AppendChild(a, b)
	if err := d.AppendChild(b, a); err == nil {
		t.Error("appending an ancestor should fail")
	}
	th, _ := d.CreateTextNode("x")
	if err := d.AppendChild(th, mustNode(t, d, "c")); err == nil {
		t.Error("appending under a text node should fail")
	}
}

func TestRemoveChild(t *testing.T) {
	d := New()
	a := mustNode(t, d, "a")
	b := mustNode(t, d, "b")
	if err := d.RemoveChild(a, b); err == nil {
		t.Error("removing a non-child should fail")
	}
	_ = d.AppendChild(a, b)
	if err := d.RemoveChild(a, b); err != nil {
		t.Fatal(err)
	}
	if len(a.Children) != 0 || b.Parent != nil {
		t.Error("b still attached")
	}
}

func TestForeignHandles(t *testing.T) {
	d1, d2 := New(), New()
	n := mustNode(t, d1, "div")
	if err := d2.SetAttribute(n, "id", "x"); err == nil {
		t.Error("node from another document should be rejected")
	}
	if err := d1.SetAttribute("not a node", "id", "x"); err == nil {
		t.Error("non-node handle should be rejected")
	}
}

func TestAttributes(t *testing.T) {
	d := New()
	n := mustNode(t, d, "input")
	_ = d.SetAttribute(n, "value", "abc")
	_ = d.SetAttribute(n, "disabled", true)
	if n.Props["value"] != "abc" || n.Props["disabled"] != true {
		t.Errorf("Props = %v", n.Props)
	}
	_ = d.RemoveAttribute(n, "value")
	if _, ok := n.Props["value"]; ok {
		t.Error("value not removed")
	}

	th, _ := d.CreateTextNode("old")
	text := th.(*Node)
	_ = d.SetAttribute(text, vdom.NodeValue, "new")
	if text.Text != "new" {
		t.Errorf("Text = %q, want new", text.Text)
	}
	if len(text.Props) != 0 {
		t.Error("nodeValue should not be stored as a prop on text nodes")
	}
}

func TestListeners(t *testing.T) {
	d := New()
	n := mustNode(t, d, "button")
	var got []string
	l1 := vdom.NewListener(func(e host.Event) { got = append(got, "l1:"+e.Value) })
	l2 := vdom.NewListener(func() { got = append(got, "l2") })

	_ = d.AddListener(n, "click", l1)
	_ = d.AddListener(n, "click", l2)
	if n.ListenerCount() != 2 {
		t.Fatalf("ListenerCount = %d, want 2", n.ListenerCount())
	}
	if ran := d.Dispatch(n, "click", "v"); ran != 2 {
		t.Errorf("Dispatch ran %d, want 2", ran)
	}
	if strings.Join(got, ",") != "l1:v,l2" {
		t.Errorf("calls = %v", got)
	}

	_ = d.RemoveListener(n, "click", l1)
	got = nil
	d.Dispatch(n, "click", "")
	if strings.Join(got, ",") != "l2" {
		t.Errorf("calls after remove = %v", got)
	}

	// Removing an unbound callback is a no-op.
	if err := d.RemoveListener(n, "click", l1); err != nil {
		t.Errorf("RemoveListener(unbound) = %v", err)
	}
	if ev := n.Events(); len(ev) != 1 || ev[0] != "click" {
		t.Errorf("Events = %v", ev)
	}
}

func TestUncomparableCallbacks(t *testing.T) {
	d := New()
	n := mustNode(t, d, "div")
	cb := host.CallbackFunc(func(host.Event) {})
	_ = d.AddListener(n, "click", cb)
	// Func-typed callbacks can never be matched for removal.
	if err := d.RemoveListener(n, "click", cb); err != nil {
		t.Fatal(err)
	}
	if n.ListenerCount() != 1 {
		t.Errorf("ListenerCount = %d, want 1", n.ListenerCount())
	}
}

func TestFailOn(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	d.FailOn = func(op Op) error {
		if op.Kind == OpSetAttr && op.Name == "bad" {
			return boom
		}
		return nil
	}
	n := mustNode(t, d, "div")
	if err := d.SetAttribute(n, "bad", 1); !errors.Is(err, boom) {
		t.Errorf("SetAttribute = %v, want boom", err)
	}
	if _, ok := n.Props["bad"]; ok {
		t.Error("failed op should not mutate the node")
	}
	if n := d.CountOps(OpSetAttr); n != 0 {
		t.Errorf("failed op journaled: %d", n)
	}
}

func TestJournalReset(t *testing.T) {
	d := New()
	mustNode(t, d, "div")
	if len(d.Journal()) != 1 {
		t.Fatalf("Journal = %v", d.Journal())
	}
	d.ResetJournal()
	if len(d.Journal()) != 0 {
		t.Error("journal not cleared")
	}
}

func TestOutline(t *testing.T) {
	d := New()
	ul := mustNode(t, d, "ul")
	_ = d.SetAttribute(ul, "class", "list")
	_ = d.SetAttribute(ul, "aria-label", "items")
	_ = d.AddListener(ul, "click", vdom.NewListener(func() {}))
	li := mustNode(t, d, "li")
	th, _ := d.CreateTextNode("one")
	_ = d.AppendChild(li, th)
	_ = d.AppendChild(ul, li)
	_ = d.AppendChild(ul, mustNode(t, d, "hr"))
	_ = d.AppendChild(d.Container(), ul)

	want := `<ul aria-label="items" class="list" @click>
  <li>
    "one"
  </li>
  <hr/>
</ul>
`
	if got := d.Outline(); got != want {
		t.Errorf("Outline =\n%s\nwant\n%s", got, want)
	}
}

func TestFindAndByAttr(t *testing.T) {
	d := New()
	root := d.Container()
	a := mustNode(t, d, "div")
	b := mustNode(t, d, "span")
	_ = d.SetAttribute(b, "id", "target")
	_ = d.AppendChild(a, b)
	_ = d.AppendChild(root, a)

	if got := root.ByAttr("id", "target"); got != b {
		t.Errorf("ByAttr = %v, want span", got)
	}
	if got := root.Find(func(n *Node) bool { return n.Kind == "nope" }); got != nil {
		t.Errorf("Find = %v, want nil", got)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Op{Kind: OpAppendChild, Target: 1, Child: 2}, "AppendChild(1, 2)"},
		{Op{Kind: OpSetAttr, Target: 3, Name: "id", Value: "x"}, "SetAttr(3, id=x)"},
		{Op{Kind: OpCreateNode, Target: 4, Name: "div"}, "CreateNode(4, div)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
