package fiber

import (
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// ID indexes a fiber within its tree.
type ID int32

// None is the absent-fiber sentinel.
const None ID = -1

// RootKind marks the host-container fiber at the top of every tree.
const RootKind = "ROOT"

// Effect is the commit action recorded on a fiber.
type Effect uint8

const (
	EffectNone Effect = iota
	Placement
	Update
	Deletion
)

// String returns the string representation of the Effect.
func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "None"
	case Placement:
		return "Placement"
	case Update:
		return "Update"
	case Deletion:
		return "Deletion"
	default:
		return "Unknown"
	}
}

// Fiber is one node of a fiber tree.
type Fiber struct {
	Type    vdom.ElementType
	Kind    string
	Attrs   vdom.Attrs
	Element *vdom.Element // Declared description; nil for the root
	Host    host.Handle   // Owned host node; nil for components and until materialized

	Parent    ID // Non-owning
	Child     ID
	Sibling   ID
	Alternate ID // Same position in the previous tree; None after commit

	Effect Effect

	rootChildren []*vdom.Element
}

// IsRoot reports whether f is a tree's container fiber.
func (f *Fiber) IsRoot() bool {
	return f.Kind == RootKind && f.Element == nil
}

// Tree is an arena of fibers. Index 0 is always the root.
type Tree struct {
	fibers []Fiber
}

func newTree(sizeHint int) *Tree {
	return &Tree{fibers: make([]Fiber, 0, sizeHint)}
}

// alloc appends f and returns its ID. Pointers from At are invalid after alloc.
func (t *Tree) alloc(f Fiber) ID {
	t.fibers = append(t.fibers, f)
	return ID(len(t.fibers) - 1)
}

// Root returns the root fiber's ID.
func (t *Tree) Root() ID {
	if len(t.fibers) == 0 {
		return None
	}
	return 0
}

// At returns the fiber for id, or nil for None or an out-of-range ID.
// The pointer stays valid until the tree grows.
func (t *Tree) At(id ID) *Fiber {
	if id < 0 || int(id) >= len(t.fibers) {
		return nil
	}
	return &t.fibers[id]
}

// Len returns the number of fibers in the arena.
func (t *Tree) Len() int {
	return len(t.fibers)
}

// Children returns the sibling chain under id in order.
func (t *Tree) Children(id ID) []ID {
	var out []ID
	f := t.At(id)
	if f == nil {
		return nil
	}
	for c := f.Child; c != None; c = t.fibers[c].Sibling {
		out = append(out, c)
	}
	return out
}

// Walk visits the subtree under from (inclusive) depth-first: child, then
// sibling, then the nearest ancestor's sibling. Returning false stops it.
func (t *Tree) Walk(from ID, fn func(id ID, f *Fiber) bool) {
	if t.At(from) == nil {
		return
	}
	id := from
	for {
		if !fn(id, &t.fibers[id]) {
			return
		}
		next := t.nextWithin(id, from)
		if next == None {
			return
		}
		id = next
	}
}

// nextWithin returns the fiber after id in depth-first order, without
// leaving the subtree rooted at stop.
func (t *Tree) nextWithin(id, stop ID) ID {
	if c := t.fibers[id].Child; c != None {
		return c
	}
	for n := id; n != None && n != stop; n = t.fibers[n].Parent {
		if s := t.fibers[n].Sibling; s != None {
			return s
		}
	}
	return None
}

// hostParent returns the nearest ancestor of id that owns a host node.
func (t *Tree) hostParent(id ID) host.Handle {
	for p := t.fibers[id].Parent; p != None; p = t.fibers[p].Parent {
		if h := t.fibers[p].Host; h != nil {
			return h
		}
	}
	return nil
}

// Census counts fibers by effect, excluding the root.
func (t *Tree) Census() map[Effect]int {
	out := make(map[Effect]int)
	for i := 1; i < len(t.fibers); i++ {
		out[t.fibers[i].Effect]++
	}
	return out
}
