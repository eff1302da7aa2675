package fiber

import (
	"slices"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// createHostNode materializes the host node for a host or text fiber.
func (e *Engine) createHostNode(f *Fiber) (host.Handle, error) {
	if f.Type == vdom.TypeText {
		h, err := e.host.CreateTextNode(f.Element.Value())
		if err != nil {
			return nil, hostError("CreateTextNode", f.Kind, err)
		}
		return h, nil
	}
	h, err := e.host.CreateNode(f.Kind)
	if err != nil {
		return nil, hostError("CreateNode", f.Kind, err)
	}
	if err := e.updateHost(h, f.Kind, nil, f.Attrs); err != nil {
		return nil, err
	}
	return h, nil
}

// updateHost applies the attribute diff between prev and next to h:
// stale or changed listeners are removed, gone properties cleared, new or
// changed properties set, and new or changed listeners added. Keys are
// visited in sorted order so the mutation sequence is deterministic.
func (e *Engine) updateHost(h host.Handle, kind string, prev, next vdom.Attrs) error {
	prevKeys := sortedKeys(prev)
	nextKeys := sortedKeys(next)

	for _, name := range prevKeys {
		if !vdom.IsEvent(name) {
			continue
		}
		nv, ok := next[name]
		if ok && vdom.SameValue(prev[name], nv) {
			continue
		}
		cb := callback(prev[name])
		if cb == nil {
			continue
		}
		if err := e.host.RemoveListener(h, vdom.EventType(name), cb); err != nil {
			return hostError("RemoveListener", kind, err)
		}
	}

	for _, name := range prevKeys {
		if !vdom.IsProperty(name) {
			continue
		}
		if _, ok := next[name]; ok {
			continue
		}
		if err := e.host.RemoveAttribute(h, name); err != nil {
			return hostError("RemoveAttribute", kind, err)
		}
	}

	for _, name := range nextKeys {
		if !vdom.IsProperty(name) {
			continue
		}
		pv, ok := prev[name]
		if ok && vdom.SameValue(pv, next[name]) {
			continue
		}
		if err := e.host.SetAttribute(h, name, next[name]); err != nil {
			return hostError("SetAttribute", kind, err)
		}
	}

	for _, name := range nextKeys {
		if !vdom.IsEvent(name) {
			continue
		}
		pv, ok := prev[name]
		if ok && vdom.SameValue(pv, next[name]) {
			continue
		}
		cb := callback(next[name])
		if cb == nil {
			e.logger.Debug("listener value is not a callback", "kind", kind, "attr", name)
			continue
		}
		if err := e.host.AddListener(h, vdom.EventType(name), cb); err != nil {
			return hostError("AddListener", kind, err)
		}
	}
	return nil
}

func callback(v any) host.Callback {
	cb, _ := v.(host.Callback)
	return cb
}

func sortedKeys(a vdom.Attrs) []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func hostError(op, kind string, err error) error {
	return errors.New("E002").WithDetailf("%s failed for <%s>", op, kind).Wrap(err)
}
