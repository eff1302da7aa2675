package protocol

// Ack is sent by the client once it has applied a batch.
type Ack struct {
	LastSeq uint64
}

// EncodeAck encodes an Ack to bytes.
func EncodeAck(ack *Ack) []byte {
	e := NewEncoder()
	e.WriteUvarint(ack.LastSeq)
	return e.Bytes()
}

// DecodeAck decodes an Ack from bytes.
func DecodeAck(data []byte) (*Ack, error) {
	seq, err := NewDecoder(data).ReadUvarint()
	if err != nil {
		return nil, err
	}
	return &Ack{LastSeq: seq}, nil
}
