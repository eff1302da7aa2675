package protocol

import (
	"errors"
	"fmt"
)

// ValueKind tags an encoded attribute value.
type ValueKind uint8

const (
	ValueNull   ValueKind = 0x00
	ValueString ValueKind = 0x01
	ValueBool   ValueKind = 0x02
	ValueInt    ValueKind = 0x03
	ValueFloat  ValueKind = 0x04
)

// ErrInvalidValueKind is returned for an unknown value tag.
var ErrInvalidValueKind = errors.New("protocol: invalid value kind")

// WriteValue appends an attribute value. Strings, bools, integers and
// floats keep their type; anything else is sent in its fmt form.
func (e *Encoder) WriteValue(v any) {
	switch x := v.(type) {
	case nil:
		e.WriteByte(byte(ValueNull))
	case string:
		e.WriteByte(byte(ValueString))
		e.WriteString(x)
	case bool:
		e.WriteByte(byte(ValueBool))
		e.WriteBool(x)
	case int:
		e.writeInt(int64(x))
	case int8:
		e.writeInt(int64(x))
	case int16:
		e.writeInt(int64(x))
	case int32:
		e.writeInt(int64(x))
	case int64:
		e.writeInt(x)
	case uint:
		e.writeInt(int64(x))
	case uint8:
		e.writeInt(int64(x))
	case uint16:
		e.writeInt(int64(x))
	case uint32:
		e.writeInt(int64(x))
	case uint64:
		e.writeInt(int64(x))
	case float32:
		e.WriteByte(byte(ValueFloat))
		e.WriteFloat64(float64(x))
	case float64:
		e.WriteByte(byte(ValueFloat))
		e.WriteFloat64(x)
	default:
		e.WriteByte(byte(ValueString))
		e.WriteString(fmt.Sprint(x))
	}
}

func (e *Encoder) writeInt(v int64) {
	e.WriteByte(byte(ValueInt))
	e.WriteSvarint(v)
}

// ReadValue reads a value written by WriteValue. Integers decode as int
// and floats as float64.
func (d *Decoder) ReadValue() (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch ValueKind(tag) {
	case ValueNull:
		return nil, nil
	case ValueString:
		return d.ReadString()
	case ValueBool:
		return d.ReadBool()
	case ValueInt:
		v, err := d.ReadSvarint()
		if err != nil {
			return nil, err
		}
		return int(v), nil
	case ValueFloat:
		return d.ReadFloat64()
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidValueKind, tag)
	}
}
