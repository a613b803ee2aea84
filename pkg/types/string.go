package types

import (
	"encoding/binary"
	"io"
	"strings"

	"sqlcore/pkg/primitives"
)

// StringField represents a variable-length string field
type StringField struct {
	Value string
}

func NewStringField(value string) *StringField {
	return &StringField{Value: value}
}

// Serialize writes the type tag, the byte length as a uvarint and the raw bytes.
func (s *StringField) Serialize(w io.Writer) error {
	buf := make([]byte, 1+binary.MaxVarintLen64, 1+binary.MaxVarintLen64+len(s.Value))
	buf[0] = byte(StringType)
	n := binary.PutUvarint(buf[1:], uint64(len(s.Value)))
	buf = append(buf[:1+n], s.Value...)
	_, err := w.Write(buf)
	return err
}

func (s *StringField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return Evaluate(op, s, other)
}

func (s *StringField) Type() Type {
	return StringType
}

func (s *StringField) String() string {
	return s.Value
}

func (s *StringField) Equals(other Field) bool {
	o, ok := other.(*StringField)
	if !ok {
		return false
	}
	return strings.Compare(s.Value, o.Value) == 0
}

func (s *StringField) Hash() primitives.HashCode {
	return hashBytes(byte(StringType), []byte(s.Value))
}
