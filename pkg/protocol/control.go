package protocol

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing  ControlType = 0x01
	ControlPong  ControlType = 0x02
	ControlClose ControlType = 0x20
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Control is the payload of a FrameControl frame.
type Control struct {
	Type      ControlType
	Timestamp uint64 // Unix milliseconds, echoed by Pong
}

// EncodeControl encodes a control message to bytes.
func EncodeControl(c *Control) []byte {
	e := NewEncoder()
	e.WriteByte(byte(c.Type))
	e.WriteUvarint(c.Timestamp)
	return e.Bytes()
}

// DecodeControl decodes a control message from bytes.
func DecodeControl(data []byte) (*Control, error) {
	d := NewDecoder(data)
	t, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ts, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return &Control{Type: ControlType(t), Timestamp: ts}, nil
}
