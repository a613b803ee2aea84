package types

// Type is the static data type of a column or expression.
type Type int

const (
	NullType Type = iota
	IntType
	FloatType
	StringType
	BoolType
)

// String returns a string representation of the type
func (t Type) String() string {
	switch t {
	case NullType:
		return "NULL"
	case IntType:
		return "INT"
	case FloatType:
		return "FLOAT"
	case StringType:
		return "TEXT"
	case BoolType:
		return "BOOL"
	default:
		return "UNKNOWN"
	}
}

// IsNumeric reports whether arithmetic is defined on values of this type.
func (t Type) IsNumeric() bool {
	return t == IntType || t == FloatType
}

// Comparable reports whether values of t and other can be ordered against
// each other. NULL compares with everything.
func (t Type) Comparable(other Type) bool {
	if t == NullType || other == NullType || t == other {
		return true
	}
	return t.IsNumeric() && other.IsNumeric()
}

// Promote returns the result type of an arithmetic operation on t and other.
func Promote(t, other Type) Type {
	switch {
	case t == NullType:
		return other
	case other == NullType:
		return t
	case t == FloatType || other == FloatType:
		return FloatType
	default:
		return IntType
	}
}
