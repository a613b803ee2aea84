package types

import (
	"io"

	"sqlcore/pkg/primitives"
)

// NullField is the SQL NULL datum. Use the shared Null value.
type NullField struct{}

// Null is the single NULL datum instance.
var Null = &NullField{}

func (n *NullField) Serialize(w io.Writer) error {
	_, err := w.Write([]byte{byte(NullType)})
	return err
}

func (n *NullField) Compare(op primitives.Predicate, other Field) (bool, error) {
	return false, nil
}

func (n *NullField) Type() Type {
	return NullType
}

func (n *NullField) String() string {
	return "NULL"
}

// Equals treats NULLs as equal to each other, which is what grouping needs.
// Join and filter predicates go through Compare, where NULL never matches.
func (n *NullField) Equals(other Field) bool {
	return IsNull(other)
}

func (n *NullField) Hash() primitives.HashCode {
	return hashBytes(byte(NullType), nil)
}
