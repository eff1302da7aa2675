package demo

import (
	"strings"
	"testing"

	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/fibertest"
	"github.com/vango-dev/fiber/pkg/host/memhost"
)

// mount renders a Todo into a harness and re-renders on every change.
func mount(t *testing.T, titles ...string) (*fibertest.Harness, *Todo) {
	t.Helper()
	h := fibertest.New(t)
	todo := NewTodo(titles...)
	todo.OnChange = func() { h.Render(todo.View()) }
	h.Mount(todo.View())
	return h, todo
}

func itemNodes(h *fibertest.Harness) []*memhost.Node {
	ul := h.ByAttr("class", "items")
	if ul == nil {
		return nil
	}
	return ul.Children
}

func itemTitles(h *fibertest.Harness) []string {
	var out []string
	for _, li := range itemNodes(h) {
		out = append(out, li.ByAttr("class", "title").TextContent())
	}
	return out
}

func TestInitialView(t *testing.T) {
	h, _ := mount(t, "milk", "eggs")

	if got := strings.Join(itemTitles(h), ","); got != "milk,eggs" {
		t.Errorf("items = %q, want milk,eggs", got)
	}
	if got := h.ByAttr("class", "count").TextContent(); got != "2 items left" {
		t.Errorf("count = %q", got)
	}
	if h.ByAttr("class", "clear") != nil {
		t.Error("clear button shown with nothing done")
	}
	if got := h.ByKind("strong").TextContent(); got != "all" {
		t.Errorf("selected filter = %q, want all", got)
	}
}

func TestAddThroughEntry(t *testing.T) {
	h, todo := mount(t, "milk")

	h.Fire(h.ByKind("input"), "input", "bread")
	h.Settle()
	if got := h.ByKind("input").Props["value"]; got != "bread" {
		t.Errorf("input value = %v, want bread", got)
	}

	h.Fire(h.ByAttr("class", "add"), "click", "")
	h.Settle()
	if got := strings.Join(itemTitles(h), ","); got != "milk,bread" {
		t.Errorf("items = %q, want milk,bread", got)
	}
	if stats := h.LastCommit(); stats.Placements == 0 {
		t.Errorf("LastCommit() = %+v, want placements for the new row", stats)
	}
	if len(todo.Items()) != 2 {
		t.Errorf("Items() = %d, want 2", len(todo.Items()))
	}
}

func TestBlankAddIsIgnored(t *testing.T) {
	h, todo := mount(t, "milk")
	commits := h.Engine.Commits()

	todo.Add("   ")
	if h.Engine.Commits() != commits || h.Engine.WorkInProgress() != nil {
		t.Error("blank Add scheduled a render")
	}
}

func TestToggleUpdatesInPlace(t *testing.T) {
	h, _ := mount(t, "milk", "eggs")
	first := itemNodes(h)[0]

	h.Fire(first.ByAttr("type", "checkbox"), "change", "")
	h.Settle()

	if got := itemNodes(h)[0]; got != first {
		t.Error("toggled row was replaced instead of updated")
	}
	if got := first.Props["class"]; got != "item done" {
		t.Errorf("class = %v, want item done", got)
	}
	if got := h.ByAttr("class", "count").TextContent(); got != "1 item left" {
		t.Errorf("count = %q", got)
	}
	if h.ByAttr("class", "clear") == nil {
		t.Error("clear button missing")
	}
	// The clear button and its label are the only new fibers.
	if c := h.Census(); c[fiber.Placement] != 2 {
		t.Errorf("Census() = %v, want 2 placements", c)
	}
}

func TestRemoveRow(t *testing.T) {
	h, _ := mount(t, "a", "b", "c")

	h.Fire(itemNodes(h)[1].ByAttr("class", "remove"), "click", "")
	h.Settle()

	if got := strings.Join(itemTitles(h), ","); got != "a,c" {
		t.Errorf("items = %q, want a,c", got)
	}
	if s := h.LastCommit(); s.Deletions != 1 {
		t.Errorf("Deletions = %d, want 1", s.Deletions)
	}
}

func TestFilterSwitchChangesKinds(t *testing.T) {
	h, todo := mount(t, "a", "b")
	todo.Toggle(1)
	h.Settle()

	h.Fire(h.ByAttr("data-filter", "active"), "click", "")
	h.Settle()

	if got := strings.Join(itemTitles(h), ","); got != "b" {
		t.Errorf("items = %q, want b", got)
	}
	if got := h.ByKind("strong").TextContent(); got != "active" {
		t.Errorf("selected filter = %q, want active", got)
	}
	if h.ByAttr("data-filter", "all") == nil {
		t.Error("all filter is not a button")
	}
}

func TestClearDone(t *testing.T) {
	h, todo := mount(t, "a", "b", "c")
	todo.Toggle(1)
	todo.Toggle(3)
	h.Settle()

	h.Fire(h.ByAttr("class", "clear"), "click", "")
	h.Settle()

	if got := strings.Join(itemTitles(h), ","); got != "b" {
		t.Errorf("items = %q, want b", got)
	}
	if todo.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", todo.Remaining())
	}
}

func TestStableListenersAreNotRebound(t *testing.T) {
	h, _ := mount(t, "a")
	h.Doc.ResetJournal()

	h.Fire(h.ByKind("input"), "input", "x")
	h.Settle()

	if n := h.Doc.CountOps(memhost.OpAddListener); n != 0 {
		t.Errorf("AddListener ops = %d, want 0", n)
	}
}
