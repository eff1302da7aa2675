package protocol

// ErrorMessage carries a coded error across the wire. Code is a fiber
// error code such as "E160".
type ErrorMessage struct {
	Code    string
	Message string
	Fatal   bool // Sender closes the connection after this frame
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
	return e.Bytes()
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)
	em := &ErrorMessage{}
	var err error
	if em.Code, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return em, nil
}
