package fiber

import "github.com/vango-dev/fiber/pkg/vdom"

// reconcileChildren builds the child chain of parent in the WIP tree from
// elements, matching against the alternate's children by position.
//
// Both cursors advance on every iteration. A same-kind pair becomes an
// Update that reuses the old host node; an unmatched element becomes a
// Placement; an unmatched old fiber is tagged Deletion and queued.
// Keys are not consulted, so a reorder shows up as in-place updates
// plus placement/deletion pairs.
func (e *Engine) reconcileChildren(parent ID, elements []*vdom.Element) {
	wip := e.wip

	old := None
	if alt := wip.At(parent).Alternate; alt != None && e.current != nil {
		old = e.current.At(alt).Child
	}
	wip.At(parent).Child = None

	prev := None
	for index := 0; index < len(elements) || old != None; index++ {
		var element *vdom.Element
		if index < len(elements) {
			element = elements[index]
		}
		var oldFiber *Fiber
		if old != None {
			oldFiber = e.current.At(old)
		}

		same := element != nil && oldFiber != nil &&
			element.Type == oldFiber.Type && element.Kind == oldFiber.Kind

		next := None
		switch {
		case same:
			next = wip.alloc(Fiber{
				Type:      oldFiber.Type,
				Kind:      oldFiber.Kind,
				Attrs:     element.Attrs,
				Element:   element,
				Host:      oldFiber.Host,
				Parent:    parent,
				Child:     None,
				Sibling:   None,
				Alternate: old,
				Effect:    Update,
			})
		case element != nil:
			next = wip.alloc(Fiber{
				Type:      element.Type,
				Kind:      element.Kind,
				Attrs:     element.Attrs,
				Element:   element,
				Parent:    parent,
				Child:     None,
				Sibling:   None,
				Alternate: None,
				Effect:    Placement,
			})
		}

		if oldFiber != nil && !same {
			oldFiber.Effect = Deletion
			e.deletions = append(e.deletions, old)
		}

		if next != None {
			if prev == None {
				wip.At(parent).Child = next
			} else {
				wip.At(prev).Sibling = next
			}
			prev = next
		}

		if oldFiber != nil {
			old = oldFiber.Sibling
		}
	}
}
