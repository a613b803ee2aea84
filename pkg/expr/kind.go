package expr

import (
	"sqlcore/pkg/primitives"
	"sqlcore/pkg/types"
)

// Kind tags the variant of an EvalNode.
type Kind int

const (
	KindField Kind = iota
	KindConst

	KindPlus
	KindMinus
	KindMultiply
	KindDivide
	KindModulo

	KindAnd
	KindOr

	KindEqual
	KindNotEqual
	KindLessThan
	KindLessEqual
	KindGreaterThan
	KindGreaterEqual

	KindNot
	KindFuncCall
	KindAggFuncCall
	KindLike
	KindBetween
	KindIn
	KindIsNull
)

var kindNames = map[Kind]string{
	KindField:        "FIELD",
	KindConst:        "CONST",
	KindPlus:         "+",
	KindMinus:        "-",
	KindMultiply:     "*",
	KindDivide:       "/",
	KindModulo:       "%",
	KindAnd:          "AND",
	KindOr:           "OR",
	KindEqual:        "=",
	KindNotEqual:     "<>",
	KindLessThan:     "<",
	KindLessEqual:    "<=",
	KindGreaterThan:  ">",
	KindGreaterEqual: ">=",
	KindNot:          "NOT",
	KindFuncCall:     "FUNCTION",
	KindAggFuncCall:  "AGG_FUNCTION",
	KindLike:         "LIKE",
	KindBetween:      "BETWEEN",
	KindIn:           "IN",
	KindIsNull:       "IS NULL",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsArithmetic reports + - * / %.
func (k Kind) IsArithmetic() bool {
	return k >= KindPlus && k <= KindModulo
}

// IsLogical reports AND and OR.
func (k Kind) IsLogical() bool {
	return k == KindAnd || k == KindOr
}

// IsComparison reports the binary comparison operators.
func (k Kind) IsComparison() bool {
	return k >= KindEqual && k <= KindGreaterEqual
}

// IsBinary reports every kind represented by *BinaryEval.
func (k Kind) IsBinary() bool {
	return k.IsArithmetic() || k.IsLogical() || k.IsComparison()
}

// Predicate maps a comparison kind to the field-level predicate.
func (k Kind) Predicate() (primitives.Predicate, bool) {
	switch k {
	case KindEqual:
		return primitives.Equals, true
	case KindNotEqual:
		return primitives.NotEqual, true
	case KindLessThan:
		return primitives.LessThan, true
	case KindLessEqual:
		return primitives.LessThanOrEqual, true
	case KindGreaterThan:
		return primitives.GreaterThan, true
	case KindGreaterEqual:
		return primitives.GreaterThanOrEqual, true
	default:
		return 0, false
	}
}

// ArithOp maps an arithmetic kind to the field-level operator.
func (k Kind) ArithOp() (types.ArithOp, bool) {
	switch k {
	case KindPlus:
		return types.Plus, true
	case KindMinus:
		return types.Minus, true
	case KindMultiply:
		return types.Multiply, true
	case KindDivide:
		return types.Divide, true
	case KindModulo:
		return types.Modulo, true
	default:
		return 0, false
	}
}
