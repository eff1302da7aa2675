package protocol

// Event reports that a listener fired on the client.
type Event struct {
	Seq   uint64 // Client-side counter, echoed in logs
	Node  uint64 // Node the listener is bound to
	Type  string // Event type, e.g. "click"
	Value string // Input value or other scalar payload
}

// EncodeEvent encodes an event to bytes.
//
// Format: [Seq: uvarint][Node: uvarint][Type: string][Value: string]
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteUvarint(ev.Node)
	e.WriteString(ev.Type)
	e.WriteString(ev.Value)
	return e.Bytes()
}

// DecodeEvent decodes an event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)
	ev := &Event{}
	var err error
	if ev.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Node, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if ev.Type, err = d.ReadString(); err != nil {
		return nil, err
	}
	if ev.Value, err = d.ReadString(); err != nil {
		return nil, err
	}
	return ev, nil
}
