package remote

import (
	"log/slog"
	"reflect"
	"slices"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/protocol"
)

// NodeID is the host handle type used by Host.
type NodeID uint64

// Root is the handle of the remote mount container.
const Root = NodeID(protocol.RootNode)

type listenerKey struct {
	node  NodeID
	event string
}

type node struct {
	kind     string
	parent   NodeID
	attached bool
	children []NodeID
}

// Host is a host.Host whose mutations are queued for a remote surface.
// It is not safe for concurrent use.
type Host struct {
	logger    *slog.Logger
	nextID    NodeID
	seq       uint64
	nodes     map[NodeID]*node
	listeners map[listenerKey][]host.Callback
	pending   []protocol.Mutation
}

var _ host.Host = (*Host)(nil)

// NewHost creates a host whose container is Root.
func NewHost(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		logger:    logger.With("component", "remote"),
		nodes:     map[NodeID]*node{Root: {kind: "#root"}},
		listeners: make(map[listenerKey][]host.Callback),
	}
}

// Container returns the handle to pass to fiber.Engine.Render.
func (h *Host) Container() host.Handle {
	return Root
}

// Pending returns the number of queued mutations.
func (h *Host) Pending() int {
	return len(h.pending)
}

// Live returns the number of nodes not yet released, excluding Root.
func (h *Host) Live() int {
	return len(h.nodes) - 1
}

// Seq returns the sequence number of the last flushed batch.
func (h *Host) Seq() uint64 {
	return h.seq
}

// Flush returns the queued mutations as the next batch and clears the
// queue. It returns nil when nothing is queued.
func (h *Host) Flush() *protocol.Batch {
	if len(h.pending) == 0 {
		return nil
	}
	h.seq++
	b := &protocol.Batch{Seq: h.seq, Mutations: h.pending}
	h.pending = nil
	return b
}

func (h *Host) lookup(handle host.Handle) (NodeID, *node, error) {
	id, ok := handle.(NodeID)
	if !ok {
		return 0, nil, errors.New("E161").WithDetailf("handle %T is not a remote.NodeID", handle)
	}
	n, ok := h.nodes[id]
	if !ok {
		return 0, nil, errors.New("E161").WithDetailf("node %d", id)
	}
	return id, n, nil
}

func (h *Host) alloc(kind string) NodeID {
	h.nextID++
	h.nodes[h.nextID] = &node{kind: kind}
	return h.nextID
}

// CreateNode implements host.Host.
func (h *Host) CreateNode(kind string) (host.Handle, error) {
	id := h.alloc(kind)
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpCreateNode, Node: uint64(id), Name: kind})
	return id, nil
}

// CreateTextNode implements host.Host.
func (h *Host) CreateTextNode(value string) (host.Handle, error) {
	id := h.alloc("#text")
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpCreateText, Node: uint64(id), Value: value})
	return id, nil
}

// SetAttribute implements host.Host.
func (h *Host) SetAttribute(handle host.Handle, name string, value any) error {
	id, _, err := h.lookup(handle)
	if err != nil {
		return err
	}
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpSetAttr, Node: uint64(id), Name: name, Value: value})
	return nil
}

// RemoveAttribute implements host.Host.
func (h *Host) RemoveAttribute(handle host.Handle, name string) error {
	id, _, err := h.lookup(handle)
	if err != nil {
		return err
	}
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpRemoveAttr, Node: uint64(id), Name: name})
	return nil
}

// AddListener implements host.Host. The callback stays local; only the
// binding is sent.
func (h *Host) AddListener(handle host.Handle, event string, cb host.Callback) error {
	id, _, err := h.lookup(handle)
	if err != nil {
		return err
	}
	key := listenerKey{id, event}
	h.listeners[key] = append(h.listeners[key], cb)
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpAddListener, Node: uint64(id), Name: event})
	return nil
}

// RemoveListener implements host.Host. Removing an unbound callback is a no-op.
func (h *Host) RemoveListener(handle host.Handle, event string, cb host.Callback) error {
	id, _, err := h.lookup(handle)
	if err != nil {
		return err
	}
	key := listenerKey{id, event}
	cbs := h.listeners[key]
	i := slices.IndexFunc(cbs, func(c host.Callback) bool { return sameCallback(c, cb) })
	if i < 0 {
		return nil
	}
	h.listeners[key] = slices.Delete(cbs, i, i+1)
	if len(h.listeners[key]) == 0 {
		delete(h.listeners, key)
	}
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpRemoveListener, Node: uint64(id), Name: event})
	return nil
}

// AppendChild implements host.Host. An attached child is moved.
func (h *Host) AppendChild(parent, child host.Handle) error {
	pid, p, err := h.lookup(parent)
	if err != nil {
		return err
	}
	cid, c, err := h.lookup(child)
	if err != nil {
		return err
	}
	if c.attached {
		old := h.nodes[c.parent]
		old.children = slices.DeleteFunc(old.children, func(id NodeID) bool { return id == cid })
	}
	p.children = append(p.children, cid)
	c.parent, c.attached = pid, true
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpAppendChild, Node: uint64(pid), Child: uint64(cid)})
	return nil
}

// RemoveChild implements host.Host. The removed subtree is released:
// its listeners are dropped and its handles become unknown.
func (h *Host) RemoveChild(parent, child host.Handle) error {
	pid, p, err := h.lookup(parent)
	if err != nil {
		return err
	}
	cid, c, err := h.lookup(child)
	if err != nil {
		return err
	}
	if !c.attached || c.parent != pid {
		return errors.New("E161").WithDetailf("<%s> %d is not a child of %d", c.kind, cid, pid)
	}
	p.children = slices.DeleteFunc(p.children, func(id NodeID) bool { return id == cid })
	h.pending = append(h.pending, protocol.Mutation{Op: protocol.OpRemoveChild, Node: uint64(pid), Child: uint64(cid)})
	h.release(cid)
	return nil
}

func (h *Host) release(id NodeID) {
	n := h.nodes[id]
	for _, c := range n.children {
		h.release(c)
	}
	delete(h.nodes, id)
	for key := range h.listeners {
		if key.node == id {
			delete(h.listeners, key)
		}
	}
}

// Dispatch invokes the listeners bound to ev.Node for ev.Type and
// returns how many ran. Events for released or unknown nodes fail with
// E161.
func (h *Host) Dispatch(ev protocol.Event) (int, error) {
	id := NodeID(ev.Node)
	if _, ok := h.nodes[id]; !ok {
		return 0, errors.New("E161").WithDetailf("event %q for node %d", ev.Type, id)
	}
	cbs := slices.Clone(h.listeners[listenerKey{id, ev.Type}])
	for _, cb := range cbs {
		cb.Invoke(host.Event{Type: ev.Type, Target: id, Value: ev.Value})
	}
	if len(cbs) == 0 {
		h.logger.Debug("event without listener", "node", id, "event", ev.Type)
	}
	return len(cbs), nil
}

func sameCallback(a, b host.Callback) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta == nil || tb == nil {
		return ta == tb
	}
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
