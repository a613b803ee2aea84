package types

import (
	"encoding/binary"
	"io"
	"math"
	"strconv"

	"sqlcore/pkg/primitives"
)

// FloatField represents a 64-bit floating point field
type FloatField struct {
	Value float64
}

func NewFloatField(value float64) *FloatField {
	return &FloatField{Value: value}
}

func (f *FloatField) Serialize(w io.Writer) error {
	var buf [9]byte
	buf[0] = byte(FloatType)
	binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f.Value))
	_, err := w.Write(buf[:])
	return err
}

func (f *FloatField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return Evaluate(op, f, other)
}

func (f *FloatField) Type() Type {
	return FloatType
}

func (f *FloatField) String() string {
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}

func (f *FloatField) Equals(other Field) bool {
	switch o := other.(type) {
	case *FloatField:
		return f.Value == o.Value
	case *IntField:
		return f.Value == float64(o.Value)
	default:
		return false
	}
}

func (f *FloatField) Hash() primitives.HashCode {
	return hashFloat(f.Value)
}
