package primitives

// Predicate is a binary comparison operator.
type Predicate int

const (
	Equals Predicate = iota
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	NotEqual
)

func (p Predicate) String() string {
	switch p {
	case Equals:
		return "="

	case LessThan:
		return "<"

	case GreaterThan:
		return ">"

	case LessThanOrEqual:
		return "<="

	case GreaterThanOrEqual:
		return ">="

	case NotEqual:
		return "<>"

	default:
		return "UNKNOWN"
	}
}

// Flip returns the predicate that holds after swapping the operands,
// e.g. a < b becomes b > a.
func (p Predicate) Flip() Predicate {
	switch p {
	case LessThan:
		return GreaterThan
	case GreaterThan:
		return LessThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThanOrEqual:
		return LessThanOrEqual
	default:
		return p
	}
}

// Holds reports whether the predicate is satisfied by a three-way
// comparison result (negative, zero or positive).
func (p Predicate) Holds(cmp int) bool {
	switch p {
	case Equals:
		return cmp == 0
	case NotEqual:
		return cmp != 0
	case LessThan:
		return cmp < 0
	case LessThanOrEqual:
		return cmp <= 0
	case GreaterThan:
		return cmp > 0
	case GreaterThanOrEqual:
		return cmp >= 0
	default:
		return false
	}
}
