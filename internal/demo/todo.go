// Package demo is the sample application behind `fiber demo` and
// `fiber serve`: a todo list whose interactions touch every effect the
// engine produces.
package demo

import (
	"strconv"
	"strings"

	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/server"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// Filter selects which items the list shows.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterActive Filter = "active"
	FilterDone   Filter = "done"
)

var filters = []Filter{FilterAll, FilterActive, FilterDone}

// Item is one todo entry.
type Item struct {
	ID    int
	Title string
	Done  bool

	toggle *vdom.Listener
	remove *vdom.Listener
}

// Todo is the application state. It is not safe for concurrent use;
// the server calls it only from a session's loop goroutine.
type Todo struct {
	items  []*Item
	nextID int
	filter Filter
	draft  string

	// Listeners that live as long as the Todo keep their host bindings
	// across renders.
	onDraft  *vdom.Listener
	onAdd    *vdom.Listener
	onClear  *vdom.Listener
	onFilter map[Filter]*vdom.Listener

	// OnChange is called after every state change.
	OnChange func()
}

// NewTodo creates a list holding titles.
func NewTodo(titles ...string) *Todo {
	t := &Todo{filter: FilterAll, onFilter: make(map[Filter]*vdom.Listener)}
	t.onDraft = vdom.NewListener(func(e host.Event) { t.SetDraft(e.Value) })
	t.onAdd = vdom.NewListener(func() { t.Add(t.draft) })
	t.onClear = vdom.NewListener(func() { t.ClearDone() })
	for _, f := range filters {
		t.onFilter[f] = vdom.NewListener(func() { t.SetFilter(f) })
	}
	for _, title := range titles {
		t.add(title)
	}
	return t
}

func (t *Todo) changed() {
	if t.OnChange != nil {
		t.OnChange()
	}
}

func (t *Todo) add(title string) *Item {
	t.nextID++
	it := &Item{ID: t.nextID, Title: title}
	it.toggle = vdom.NewListener(func() { t.Toggle(it.ID) })
	it.remove = vdom.NewListener(func() { t.Remove(it.ID) })
	t.items = append(t.items, it)
	return it
}

// Add appends an item. Blank titles are ignored.
func (t *Todo) Add(title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	t.add(title)
	t.draft = ""
	t.changed()
}

// SetDraft records the text typed into the entry field.
func (t *Todo) SetDraft(s string) {
	t.draft = s
	t.changed()
}

// Toggle flips an item's done state.
func (t *Todo) Toggle(id int) {
	for _, it := range t.items {
		if it.ID == id {
			it.Done = !it.Done
			t.changed()
			return
		}
	}
}

// Remove deletes an item.
func (t *Todo) Remove(id int) {
	for i, it := range t.items {
		if it.ID == id {
			t.items = append(t.items[:i], t.items[i+1:]...)
			t.changed()
			return
		}
	}
}

// ClearDone removes every done item.
func (t *Todo) ClearDone() {
	kept := t.items[:0]
	for _, it := range t.items {
		if !it.Done {
			kept = append(kept, it)
		}
	}
	t.items = kept
	t.changed()
}

// SetFilter changes the visible subset.
func (t *Todo) SetFilter(f Filter) {
	t.filter = f
	t.changed()
}

// Items returns a copy of every item.
func (t *Todo) Items() []Item {
	out := make([]Item, len(t.items))
	for i, it := range t.items {
		out[i] = *it
	}
	return out
}

// Remaining returns the number of items not done.
func (t *Todo) Remaining() int {
	n := 0
	for _, it := range t.items {
		if !it.Done {
			n++
		}
	}
	return n
}

func (t *Todo) visible() []*Item {
	out := make([]*Item, 0, len(t.items))
	for _, it := range t.items {
		switch {
		case t.filter == FilterActive && it.Done:
		case t.filter == FilterDone && !it.Done:
		default:
			out = append(out, it)
		}
	}
	return out
}

// View describes the current state.
func (t *Todo) View() *vdom.Element {
	remaining := t.Remaining()
	word := "items"
	if remaining == 1 {
		word = "item"
	}
	return vdom.Section(vdom.ID("todo"), vdom.Class("todo"),
		vdom.H1(vdom.Text("Todos")),
		vdom.Div(vdom.Class("entry"),
			vdom.Input(vdom.Type("text"), vdom.Placeholder("What needs doing?"),
				vdom.Value(t.draft), vdom.On("input", t.onDraft)),
			vdom.Button(vdom.Class("add"), vdom.On("click", t.onAdd), vdom.Text("Add")),
		),
		vdom.Ul(vdom.Class("items"),
			vdom.Range(t.visible(), func(it *Item, _ int) *vdom.Element {
				return itemComponent(it)
			}),
		),
		vdom.Footer(
			vdom.Span(vdom.Class("count"), vdom.Textf("%d %s left", remaining, word)),
			vdom.Range(filters, func(f Filter, _ int) *vdom.Element {
				return t.filterButton(f)
			}),
			vdom.If(remaining < len(t.items),
				vdom.Button(vdom.Class("clear"), vdom.On("click", t.onClear), vdom.Text("Clear done"))),
		),
	)
}

func (t *Todo) filterButton(f Filter) *vdom.Element {
	// The selected filter renders as <strong>, so switching filters
	// changes kinds at two positions.
	if f == t.filter {
		return vdom.Strong(vdom.Class("filter"), vdom.Text(string(f)))
	}
	return vdom.Button(vdom.Class("filter"), vdom.Data("filter", string(f)),
		vdom.On("click", t.onFilter[f]), vdom.Text(string(f)))
}

func itemComponent(it *Item) *vdom.Element {
	el, err := vdom.Component("TodoItem", renderItem, vdom.Attrs{"item": *it})
	if err != nil {
		panic(err)
	}
	return el
}

func renderItem(attrs vdom.Attrs) *vdom.Element {
	it := attrs["item"].(Item)
	class := "item"
	if it.Done {
		class = "item done"
	}
	return vdom.Li(vdom.Class(class), vdom.Data("id", strconv.Itoa(it.ID)),
		vdom.Input(vdom.Type("checkbox"), vdom.Checked(it.Done), vdom.On("change", it.toggle)),
		vdom.Span(vdom.Class("title"), vdom.Text(it.Title)),
		vdom.Button(vdom.Class("remove"), vdom.On("click", it.remove), vdom.Text("×")),
	)
}

// App serves one Todo per session, seeded with titles.
func App(titles ...string) server.App {
	return func(s *server.Session) *vdom.Element {
		v, ok := s.Get("todo")
		if !ok {
			t := NewTodo(titles...)
			t.OnChange = func() {
				if err := s.Refresh(); err != nil {
					s.Close()
				}
			}
			s.Set("todo", t)
			v = t
		}
		return v.(*Todo).View()
	}
}
