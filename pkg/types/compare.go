package types

import (
	"cmp"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/primitives"
)

// Compare returns the three-way ordering of a and b. NULL sorts after every
// non-NULL value and equal to another NULL. Numeric values of different
// types are compared as floats.
func Compare(a, b Field) (int, error) {
	aNull, bNull := IsNull(a), IsNull(b)
	switch {
	case aNull && bNull:
		return 0, nil
	case aNull:
		return 1, nil
	case bNull:
		return -1, nil
	}

	switch av := a.(type) {
	case *IntField:
		switch bv := b.(type) {
		case *IntField:
			return cmp.Compare(av.Value, bv.Value), nil
		case *FloatField:
			return cmp.Compare(float64(av.Value), bv.Value), nil
		}
	case *FloatField:
		switch bv := b.(type) {
		case *FloatField:
			return cmp.Compare(av.Value, bv.Value), nil
		case *IntField:
			return cmp.Compare(av.Value, float64(bv.Value)), nil
		}
	case *StringField:
		if bv, ok := b.(*StringField); ok {
			return cmp.Compare(av.Value, bv.Value), nil
		}
	case *BoolField:
		if bv, ok := b.(*BoolField); ok {
			return cmp.Compare(boolRank(av.Value), boolRank(bv.Value)), nil
		}
	}

	return 0, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTypeMismatch,
		"cannot compare %s with %s", a.Type(), b.Type())
}

// Evaluate applies op to a and b with SQL semantics: any NULL operand makes
// the comparison false.
func Evaluate(op primitives.Predicate, a, b Field) (bool, error) {
	if IsNull(a) || IsNull(b) {
		return false, nil
	}
	c, err := Compare(a, b)
	if err != nil {
		return false, err
	}
	return op.Holds(c), nil
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func hashFloat(v float64) primitives.HashCode {
	if v == 0 {
		v = 0 // fold -0 into +0
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return hashBytes(byte(FloatType), buf[:])
}

func hashBytes(tag byte, b []byte) primitives.HashCode {
	d := xxhash.New()
	_, _ = d.Write([]byte{tag})
	_, _ = d.Write(b)
	return primitives.HashCode(d.Sum64())
}

// HashFields combines the hashes of several fields into one key hash.
func HashFields(fields []Field) primitives.HashCode {
	d := xxhash.New()
	var buf [8]byte
	for _, f := range fields {
		h := Null.Hash()
		if f != nil {
			h = f.Hash()
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(h))
		_, _ = d.Write(buf[:])
	}
	return primitives.HashCode(d.Sum64())
}

// FieldsEqual reports whether two keys are equal slot by slot.
func FieldsEqual(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if IsNull(a[i]) {
			if !IsNull(b[i]) {
				return false
			}
			continue
		}
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
