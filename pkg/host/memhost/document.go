package memhost

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/vdom"
)

// OpKind identifies a host primitive.
type OpKind uint8

const (
	OpCreateNode OpKind = iota + 1
	OpCreateText
	OpSetAttr
	OpRemoveAttr
	OpAddListener
	OpRemoveListener
	OpAppendChild
	OpRemoveChild
)

// String returns the string representation of the OpKind.
func (k OpKind) String() string {
	switch k {
	case OpCreateNode:
		return "CreateNode"
	case OpCreateText:
		return "CreateText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpAddListener:
		return "AddListener"
	case OpRemoveListener:
		return "RemoveListener"
	case OpAppendChild:
		return "AppendChild"
	case OpRemoveChild:
		return "RemoveChild"
	default:
		return "Unknown"
	}
}

// Op is one journaled primitive call.
type Op struct {
	Kind   OpKind
	Target int    // Node the op applies to (parent for Append/Remove)
	Child  int    // Child node for Append/Remove
	Name   string // Kind, attribute name, or event type
	Value  any    // Attribute value or callback
}

// String renders the op for test failure messages.
func (o Op) String() string {
	switch o.Kind {
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s(%d, %d)", o.Kind, o.Target, o.Child)
	case OpSetAttr:
		return fmt.Sprintf("%s(%d, %s=%v)", o.Kind, o.Target, o.Name, o.Value)
	default:
		return fmt.Sprintf("%s(%d, %s)", o.Kind, o.Target, o.Name)
	}
}

// Document is an in-memory host tree.
// It is not safe for concurrent use.
type Document struct {
	root    *Node
	nextID  int
	nodes   map[int]*Node
	journal []Op

	// FailOn, when set, is consulted before each primitive; a non-nil
	// result aborts the call with that error.
	FailOn func(op Op) error
}

var _ host.Host = (*Document)(nil)

// New creates a document with an empty container node of kind "#root".
func New() *Document {
	d := &Document{nodes: make(map[int]*Node)}
	d.root = d.newNode("#root")
	return d
}

// Container returns the root container node; pass it to fiber.Engine.Render.
func (d *Document) Container() *Node {
	return d.root
}

// Node looks up a node by ID.
func (d *Document) Node(id int) *Node {
	return d.nodes[id]
}

// Journal returns the recorded ops since the last Reset.
func (d *Document) Journal() []Op {
	return slices.Clone(d.journal)
}

// ResetJournal clears the recorded ops.
func (d *Document) ResetJournal() {
	d.journal = d.journal[:0]
}

// CountOps returns the number of journaled ops of kind k.
func (d *Document) CountOps(k OpKind) int {
	n := 0
	for _, op := range d.journal {
		if op.Kind == k {
			n++
		}
	}
	return n
}

func (d *Document) newNode(kind string) *Node {
	d.nextID++
	n := &Node{
		ID:        d.nextID,
		Kind:      kind,
		Props:     make(map[string]any),
		listeners: make(map[string][]host.Callback),
	}
	d.nodes[n.ID] = n
	return n
}

func (d *Document) record(op Op) error {
	if d.FailOn != nil {
		if err := d.FailOn(op); err != nil {
			return err
		}
	}
	d.journal = append(d.journal, op)
	return nil
}

func (d *Document) node(h host.Handle) (*Node, error) {
	n, ok := h.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("memhost: handle %T is not a *memhost.Node", h)
	}
	if d.nodes[n.ID] != n {
		return nil, fmt.Errorf("memhost: node %d belongs to another document", n.ID)
	}
	return n, nil
}

// CreateNode implements host.Host.
func (d *Document) CreateNode(kind string) (host.Handle, error) {
	if err := d.record(Op{Kind: OpCreateNode, Target: d.nextID + 1, Name: kind}); err != nil {
		return nil, err
	}
	return d.newNode(kind), nil
}

// CreateTextNode implements host.Host.
func (d *Document) CreateTextNode(value string) (host.Handle, error) {
	if err := d.record(Op{Kind: OpCreateText, Target: d.nextID + 1, Name: TextKind, Value: value}); err != nil {
		return nil, err
	}
	n := d.newNode(TextKind)
	n.Text = value
	return n, nil
}

// SetAttribute implements host.Host. On text nodes, nodeValue sets the text.
func (d *Document) SetAttribute(h host.Handle, name string, value any) error {
	n, err := d.node(h)
	if err != nil {
		return err
	}
	if err := d.record(Op{Kind: OpSetAttr, Target: n.ID, Name: name, Value: value}); err != nil {
		return err
	}
	if n.IsText() && name == vdom.NodeValue {
		n.Text = vdom.FormatValue(value)
		return nil
	}
	n.Props[name] = value
	return nil
}

// RemoveAttribute implements host.Host.
func (d *Document) RemoveAttribute(h host.Handle, name string) error {
	n, err := d.node(h)
	if err != nil {
		return err
	}
	if err := d.record(Op{Kind: OpRemoveAttr, Target: n.ID, Name: name}); err != nil {
		return err
	}
	if n.IsText() && name == vdom.NodeValue {
		n.Text = ""
		return nil
	}
	delete(n.Props, name)
	return nil
}

// AddListener implements host.Host.
func (d *Document) AddListener(h host.Handle, event string, cb host.Callback) error {
	n, err := d.node(h)
	if err != nil {
		return err
	}
	if err := d.record(Op{Kind: OpAddListener, Target: n.ID, Name: event, Value: cb}); err != nil {
		return err
	}
	n.listeners[event] = append(n.listeners[event], cb)
	return nil
}

// RemoveListener implements host.Host. Removing an unbound callback is a no-op,
// matching DOM removeEventListener.
func (d *Document) RemoveListener(h host.Handle, event string, cb host.Callback) error {
	n, err := d.node(h)
	if err != nil {
		return err
	}
	if err := d.record(Op{Kind: OpRemoveListener, Target: n.ID, Name: event, Value: cb}); err != nil {
		return err
	}
	cbs := n.listeners[event]
	for i, existing := range cbs {
		if sameCallback(existing, cb) {
			n.listeners[event] = slices.Delete(cbs, i, i+1)
			break
		}
	}
	return nil
}

// AppendChild implements host.Host. A child that already has a parent is moved.
func (d *Document) AppendChild(parent, child host.Handle) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	if p.IsText() {
		return fmt.Errorf("memhost: cannot append to text node %d", p.ID)
	}
	for a := p; a != nil; a = a.Parent {
		if a == c {
			return fmt.Errorf("memhost: appending node %d under %d would create a cycle", c.ID, p.ID)
		}
	}
	if err := d.record(Op{Kind: OpAppendChild, Target: p.ID, Child: c.ID}); err != nil {
		return err
	}
	if c.Parent != nil {
		c.Parent.detach(c)
	}
	p.Children = append(p.Children, c)
	c.Parent = p
	return nil
}

// RemoveChild implements host.Host.
func (d *Document) RemoveChild(parent, child host.Handle) error {
	p, err := d.node(parent)
	if err != nil {
		return err
	}
	c, err := d.node(child)
	if err != nil {
		return err
	}
	if c.Parent != p {
		return fmt.Errorf("memhost: node %d is not a child of %d", c.ID, p.ID)
	}
	if err := d.record(Op{Kind: OpRemoveChild, Target: p.ID, Child: c.ID}); err != nil {
		return err
	}
	p.detach(c)
	return nil
}

// Dispatch invokes every listener bound to event on n and returns how many ran.
func (d *Document) Dispatch(n *Node, event, value string) int {
	cbs := slices.Clone(n.listeners[event])
	for _, cb := range cbs {
		cb.Invoke(host.Event{Type: event, Target: n, Value: value})
	}
	return len(cbs)
}

// Outline renders the container's subtree as indented markup.
// Props are sorted; listeners are listed as @event.
func (d *Document) Outline() string {
	var b strings.Builder
	for _, c := range d.root.Children {
		writeOutline(&b, c, 0)
	}
	return b.String()
}

func writeOutline(b *strings.Builder, n *Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsText() {
		fmt.Fprintf(b, "%s%q\n", indent, n.Text)
		return
	}
	b.WriteString(indent)
	b.WriteString("<")
	b.WriteString(n.Kind)
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%q", k, vdom.FormatValue(n.Props[k]))
	}
	for _, ev := range n.Events() {
		fmt.Fprintf(b, " @%s", ev)
	}
	if len(n.Children) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteString(">\n")
	for _, c := range n.Children {
		writeOutline(b, c, depth+1)
	}
	fmt.Fprintf(b, "%s</%s>\n", indent, n.Kind)
}
