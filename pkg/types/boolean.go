package types

import (
	"io"

	"sqlcore/pkg/primitives"
)

// BoolField represents a boolean field.
type BoolField struct {
	Value bool
}

func NewBoolField(value bool) *BoolField {
	return &BoolField{Value: value}
}

func (b *BoolField) Serialize(w io.Writer) error {
	buf := [2]byte{byte(BoolType), 0}
	if b.Value {
		buf[1] = 1
	}
	_, err := w.Write(buf[:])
	return err
}

func (b *BoolField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return Evaluate(op, b, other)
}

func (b *BoolField) Type() Type {
	return BoolType
}

func (b *BoolField) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (b *BoolField) Equals(other Field) bool {
	o, ok := other.(*BoolField)
	return ok && o.Value == b.Value
}

func (b *BoolField) Hash() primitives.HashCode {
	if b.Value {
		return hashBytes(byte(BoolType), []byte{1})
	}
	return hashBytes(byte(BoolType), []byte{0})
}
