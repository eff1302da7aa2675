package protocol

import "fmt"

// Version is the current wire protocol version.
const Version uint8 = 1

// Hello is the first frame a server sends on a new session.
type Hello struct {
	Version   uint8
	SessionID string
}

// EncodeHello encodes a Hello to bytes.
func EncodeHello(h *Hello) []byte {
	e := NewEncoder()
	e.WriteByte(h.Version)
	e.WriteString(h.SessionID)
	return e.Bytes()
}

// DecodeHello decodes a Hello and rejects versions this package does not speak.
func DecodeHello(data []byte) (*Hello, error) {
	d := NewDecoder(data)
	v, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if v != Version {
		return nil, fmt.Errorf("protocol: unsupported version %d (want %d)", v, Version)
	}
	id, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	return &Hello{Version: v, SessionID: id}, nil
}
