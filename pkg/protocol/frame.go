package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize caps a frame payload (4MB). A first render of a
	// large tree is a single batch, so this is well above a websocket
	// message's typical size.
	MaxPayloadSize = 4 << 20
)

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameHello     FrameType = 0x00 // Server → Client session setup
	FrameEvent     FrameType = 0x01 // Client → Server listener invocation
	FrameMutations FrameType = 0x02 // Server → Client committed batch
	FrameControl   FrameType = 0x03 // Ping, pong, close
	FrameAck       FrameType = 0x04 // Client → Server applied sequence
	FrameError     FrameType = 0x05 // Coded error
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameEvent:
		return "Event"
	case FrameMutations:
		return "Mutations"
	case FrameControl:
		return "Control"
	case FrameAck:
		return "Ack"
	case FrameError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional per-frame flags.
type FrameFlags uint8

const (
	FlagInitial FrameFlags = 0x01 // Batch is a full mount, not a delta
	FlagFinal   FrameFlags = 0x02 // Sender closes after this frame
)

// Has reports whether ff contains flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a header plus payload.
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with no flags.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame including its header.
func (f *Frame) Encode() []byte {
	length := len(f.Payload)
	buf := make([]byte, FrameHeaderSize+length)
	buf[0] = byte(f.Type)
	buf[1] = byte(f.Flags)
	binary.BigEndian.PutUint32(buf[2:], uint32(length))
	copy(buf[FrameHeaderSize:], f.Payload)
	return buf
}

// DecodeFrame decodes one frame. data must hold the header and the whole
// payload; trailing bytes are ignored.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, flags, length, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}
	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

func decodeHeader(h []byte) (FrameType, FrameFlags, int, error) {
	if len(h) < FrameHeaderSize {
		return 0, 0, 0, io.ErrUnexpectedEOF
	}
	ft := FrameType(h[0])
	if ft > FrameError {
		return 0, 0, 0, ErrInvalidFrameType
	}
	length := int(binary.BigEndian.Uint32(h[2:]))
	if length > MaxPayloadSize {
		return 0, 0, 0, ErrFrameTooLarge
	}
	return ft, FrameFlags(h[1]), length, nil
}

// ReadFrame reads a complete frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, flags, length, err := decodeHeader(header)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
