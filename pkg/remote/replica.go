package remote

import (
	"log/slog"

	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/protocol"
)

// Replica applies mutation batches to a local memhost.Document.
// It is not safe for concurrent use.
type Replica struct {
	doc      *memhost.Document
	logger   *slog.Logger
	nodes    map[NodeID]*memhost.Node
	ids      map[*memhost.Node]NodeID
	bound    map[listenerKey]*binding
	lastSeq  uint64
	eventSeq uint64

	// OnEvent receives an Event whenever a replicated listener fires.
	OnEvent func(protocol.Event)
}

type binding struct {
	f     *forwarder
	count int
}

// forwarder stands in for a server-side listener.
type forwarder struct {
	r     *Replica
	node  NodeID
	event string
}

func (f *forwarder) Invoke(e host.Event) {
	f.r.eventSeq++
	if f.r.OnEvent != nil {
		f.r.OnEvent(protocol.Event{Seq: f.r.eventSeq, Node: uint64(f.node), Type: f.event, Value: e.Value})
	}
}

// NewReplica creates a replica backed by a fresh document.
func NewReplica(logger *slog.Logger) *Replica {
	if logger == nil {
		logger = slog.Default()
	}
	doc := memhost.New()
	r := &Replica{
		doc:    doc,
		logger: logger.With("component", "replica"),
		nodes:  map[NodeID]*memhost.Node{Root: doc.Container()},
		ids:    map[*memhost.Node]NodeID{doc.Container(): Root},
		bound:  make(map[listenerKey]*binding),
	}
	return r
}

// Document returns the replicated document.
func (r *Replica) Document() *memhost.Document {
	return r.doc
}

// LastSeq returns the sequence number of the last applied batch.
func (r *Replica) LastSeq() uint64 {
	return r.lastSeq
}

// NodeID returns the remote ID of a replicated node.
func (r *Replica) NodeID(n *memhost.Node) (NodeID, bool) {
	id, ok := r.ids[n]
	return id, ok
}

// Apply applies b. Batches must arrive in sequence; a gap, a repeat, or
// a mutation naming an unknown node fails with E160 and leaves the
// mutations before it applied.
func (r *Replica) Apply(b *protocol.Batch) error {
	if b.Seq != r.lastSeq+1 {
		return errors.New("E160").WithDetailf("batch %d out of order (last applied %d)", b.Seq, r.lastSeq)
	}
	for i := range b.Mutations {
		if err := r.apply(&b.Mutations[i]); err != nil {
			return errors.New("E160").
				WithDetailf("batch %d mutation %d (%s)", b.Seq, i, b.Mutations[i]).
				Wrap(err)
		}
	}
	r.lastSeq = b.Seq
	r.logger.Debug("batch applied", "seq", b.Seq, "mutations", len(b.Mutations))
	return nil
}

// ApplyFrame decodes and applies a FrameMutations payload.
func (r *Replica) ApplyFrame(payload []byte) error {
	b, err := protocol.DecodeBatch(payload)
	if err != nil {
		return errors.New("E160").WithDetail("undecodable mutation batch").Wrap(err)
	}
	return r.Apply(b)
}

func (r *Replica) node(id uint64) (*memhost.Node, error) {
	n, ok := r.nodes[NodeID(id)]
	if !ok {
		return nil, errors.New("E161").WithDetailf("node %d", id)
	}
	return n, nil
}

func (r *Replica) apply(m *protocol.Mutation) error {
	if m.Op == protocol.OpCreateNode || m.Op == protocol.OpCreateText {
		if _, exists := r.nodes[NodeID(m.Node)]; exists {
			return errors.New("E160").WithDetailf("node %d already exists", m.Node)
		}
		var (
			h   host.Handle
			err error
		)
		if m.Op == protocol.OpCreateNode {
			h, err = r.doc.CreateNode(m.Name)
		} else {
			text, _ := m.Value.(string)
			h, err = r.doc.CreateTextNode(text)
		}
		if err != nil {
			return err
		}
		n := h.(*memhost.Node)
		r.nodes[NodeID(m.Node)] = n
		r.ids[n] = NodeID(m.Node)
		return nil
	}

	n, err := r.node(m.Node)
	if err != nil {
		return err
	}
	switch m.Op {
	case protocol.OpSetAttr:
		return r.doc.SetAttribute(n, m.Name, m.Value)
	case protocol.OpRemoveAttr:
		return r.doc.RemoveAttribute(n, m.Name)
	case protocol.OpAddListener:
		// One forwarder per node and event: the server runs every bound
		// listener for a single incoming event.
		key := listenerKey{NodeID(m.Node), m.Name}
		b := r.bound[key]
		if b == nil {
			b = &binding{f: &forwarder{r: r, node: key.node, event: key.event}}
			if err := r.doc.AddListener(n, m.Name, b.f); err != nil {
				return err
			}
			r.bound[key] = b
		}
		b.count++
		return nil
	case protocol.OpRemoveListener:
		key := listenerKey{NodeID(m.Node), m.Name}
		b := r.bound[key]
		if b == nil {
			return nil
		}
		if b.count--; b.count > 0 {
			return nil
		}
		delete(r.bound, key)
		return r.doc.RemoveListener(n, m.Name, b.f)
	case protocol.OpAppendChild:
		c, err := r.node(m.Child)
		if err != nil {
			return err
		}
		return r.doc.AppendChild(n, c)
	case protocol.OpRemoveChild:
		c, err := r.node(m.Child)
		if err != nil {
			return err
		}
		if err := r.doc.RemoveChild(n, c); err != nil {
			return err
		}
		r.forget(c)
		return nil
	default:
		return errors.New("E160").WithDetailf("unsupported op %s", m.Op)
	}
}

// forget drops a removed subtree's ID mappings, mirroring Host.release.
func (r *Replica) forget(n *memhost.Node) {
	for _, c := range n.Children {
		r.forget(c)
	}
	id := r.ids[n]
	delete(r.ids, n)
	delete(r.nodes, id)
	for key := range r.bound {
		if key.node == id {
			delete(r.bound, key)
		}
	}
}

// Fire dispatches event on n as if a user triggered it. It reports
// whether a replicated listener was bound there (and so reported
// through OnEvent).
func (r *Replica) Fire(n *memhost.Node, event, value string) bool {
	return r.doc.Dispatch(n, event, value) > 0
}
