package types

import (
	"io"

	"sqlcore/pkg/primitives"
)

// Field is a single typed value (a datum) stored in a tuple slot.
type Field interface {
	// Serialize writes the value, prefixed by its type tag, to w.
	Serialize(w io.Writer) error

	// Compare evaluates op between the receiver and other. A comparison that
	// involves NULL is false.
	Compare(op primitives.Predicate, other Field) (bool, error)

	Type() Type

	String() string

	Equals(other Field) bool

	// Hash returns a hash that agrees with Equals: equal values, including an
	// int and a float holding the same number, hash alike.
	Hash() primitives.HashCode
}

// IsNull reports whether f is nil or a NULL datum.
func IsNull(f Field) bool {
	if f == nil {
		return true
	}
	_, ok := f.(*NullField)
	return ok
}
