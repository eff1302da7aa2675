package fiber

import (
	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// performUnitOfWork processes one fiber and returns the next one to visit.
//
// Host fibers get their node created (with initial attributes applied)
// if they do not have one yet; the node stays detached until commit.
// Component fibers render their single child. Either way the declared
// children are then reconciled.
func (e *Engine) performUnitOfWork(id ID) (ID, error) {
	f := e.wip.At(id)

	var children []*vdom.Element
	switch {
	case f.IsRoot():
		children = f.rootChildren

	case f.Type == vdom.TypeComponent:
		rendered := f.Element.Render(f.Attrs)
		if rendered != nil {
			if err := validate(rendered); err != nil {
				return None, errors.New("E001").
					WithDetailf("component %q rendered an invalid element", f.Kind).
					Wrap(err)
			}
			children = []*vdom.Element{rendered}
		}

	default:
		if f.Host == nil {
			h, err := e.createHostNode(f)
			if err != nil {
				return None, err
			}
			f.Host = h
		}
		children = f.Element.Children
	}

	e.reconcileChildren(id, children)

	return e.nextUnit(id), nil
}

// nextUnit returns the first child of id, else the nearest sibling walking
// up through parents, else None once the root is reached.
func (e *Engine) nextUnit(id ID) ID {
	t := e.wip
	if c := t.At(id).Child; c != None {
		return c
	}
	for n := id; n != None; n = t.At(n).Parent {
		if s := t.At(n).Sibling; s != None {
			return s
		}
	}
	return None
}

// validate checks the element tree for missing kinds before any fiber
// is built from it. Component output is checked when it is rendered.
func validate(root *vdom.Element) error {
	stack := []*vdom.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if el == nil {
			return errors.New("E001").WithDetail("nil element in children")
		}
		if el.Kind == "" {
			return errors.New("E001").WithDetail("element kind is empty")
		}
		if el.Type == vdom.TypeComponent && el.Render == nil {
			return errors.New("E001").WithDetailf("component %q has no render function", el.Kind)
		}
		stack = append(stack, el.Children...)
	}
	return nil
}
