package types

import (
	"encoding/binary"
	"io"
	"strconv"

	"sqlcore/pkg/primitives"
)

// IntField represents a 64-bit signed integer field
type IntField struct {
	Value int64
}

func NewIntField(value int64) *IntField {
	return &IntField{Value: value}
}

func (f *IntField) Serialize(w io.Writer) error {
	buf := make([]byte, 1+binary.MaxVarintLen64)
	buf[0] = byte(IntType)
	n := binary.PutVarint(buf[1:], f.Value)
	_, err := w.Write(buf[:1+n])
	return err
}

func (f *IntField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return Evaluate(op, f, other)
}

func (f *IntField) Type() Type {
	return IntType
}

func (f *IntField) String() string {
	return strconv.FormatInt(f.Value, 10)
}

func (f *IntField) Equals(other Field) bool {
	switch o := other.(type) {
	case *IntField:
		return f.Value == o.Value
	case *FloatField:
		return float64(f.Value) == o.Value
	default:
		return false
	}
}

func (f *IntField) Hash() primitives.HashCode {
	return hashFloat(float64(f.Value))
}
