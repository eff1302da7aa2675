package protocol

import (
	"errors"
	"fmt"
)

// OpCode identifies a host primitive on the wire.
type OpCode uint8

const (
	OpCreateNode     OpCode = 0x01
	OpCreateText     OpCode = 0x02
	OpSetAttr        OpCode = 0x03
	OpRemoveAttr     OpCode = 0x04
	OpAddListener    OpCode = 0x05
	OpRemoveListener OpCode = 0x06
	OpAppendChild    OpCode = 0x07
	OpRemoveChild    OpCode = 0x08
)

// String returns the string representation of the op code.
func (op OpCode) String() string {
	switch op {
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
		return fmt.Sprintf("Unknown(0x%02x)", uint8(op))
	}
}

// RootNode is the node ID of the client's mount container.
const RootNode uint64 = 0

// ErrInvalidOpCode is returned for an unknown mutation op.
var ErrInvalidOpCode = errors.New("protocol: invalid op code")

// Mutation is one host primitive call.
type Mutation struct {
	Op    OpCode
	Node  uint64 // Target node, or the parent for Append/RemoveChild
	Child uint64 // Child node for Append/RemoveChild
	Name  string // Kind, attribute name, or event type
	Value any    // Text for CreateText, value for SetAttr
}

// String renders the mutation for logs and test failures.
func (m Mutation) String() string {
	switch m.Op {
	case OpAppendChild, OpRemoveChild:
		return fmt.Sprintf("%s(%d, %d)", m.Op, m.Node, m.Child)
	case OpSetAttr:
		return fmt.Sprintf("%s(%d, %s=%v)", m.Op, m.Node, m.Name, m.Value)
	case OpCreateText:
		return fmt.Sprintf("%s(%d, %q)", m.Op, m.Node, m.Value)
	default:
		return fmt.Sprintf("%s(%d, %s)", m.Op, m.Node, m.Name)
	}
}

// Batch is the ordered set of mutations from one commit.
type Batch struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeBatch encodes a batch to bytes.
func EncodeBatch(b *Batch) []byte {
	e := NewEncoder()
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes a batch using the provided encoder.
//
// Format: [Seq: uvarint][Count: uvarint][Mutation...]
func EncodeBatchTo(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Mutations)))
	for i := range b.Mutations {
		encodeMutation(e, &b.Mutations[i])
	}
}

func encodeMutation(e *Encoder, m *Mutation) {
	e.WriteByte(byte(m.Op))
	e.WriteUvarint(m.Node)
	switch m.Op {
	case OpCreateNode, OpRemoveAttr, OpAddListener, OpRemoveListener:
		e.WriteString(m.Name)
	case OpCreateText:
		s, _ := m.Value.(string)
		e.WriteString(s)
	case OpSetAttr:
		e.WriteString(m.Name)
		e.WriteValue(m.Value)
	case OpAppendChild, OpRemoveChild:
		e.WriteUvarint(m.Child)
	}
}

// DecodeBatch decodes a batch from bytes. Trailing bytes are an error.
func DecodeBatch(data []byte) (*Batch, error) {
	d := NewDecoder(data)
	b, err := DecodeBatchFrom(d)
	if err != nil {
		return nil, err
	}
	if !d.EOF() {
		return nil, fmt.Errorf("protocol: %d trailing bytes after batch", d.Remaining())
	}
	return b, nil
}

// DecodeBatchFrom decodes a batch from a decoder.
func DecodeBatchFrom(d *Decoder) (*Batch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	b := &Batch{Seq: seq, Mutations: make([]Mutation, count)}
	for i := range b.Mutations {
		if err := decodeMutation(d, &b.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return b, nil
}

func decodeMutation(d *Decoder, m *Mutation) error {
	op, err := d.ReadByte()
	if err != nil {
		return err
	}
	m.Op = OpCode(op)
	if m.Node, err = d.ReadUvarint(); err != nil {
		return err
	}
	switch m.Op {
	case OpCreateNode, OpRemoveAttr, OpAddListener, OpRemoveListener:
		m.Name, err = d.ReadString()
	case OpCreateText:
		var s string
		s, err = d.ReadString()
		m.Value = s
	case OpSetAttr:
		if m.Name, err = d.ReadString(); err != nil {
			return err
		}
		m.Value, err = d.ReadValue()
	case OpAppendChild, OpRemoveChild:
		m.Child, err = d.ReadUvarint()
	default:
		return fmt.Errorf("%w: 0x%02x", ErrInvalidOpCode, op)
	}
	return err
}
