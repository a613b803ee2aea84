package algebra

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
)

// Commutate swaps the operands of e. Symmetric operators keep their kind;
// ordering comparisons are mirrored (a > b becomes b < a).
func Commutate(e expr.EvalNode) (*expr.BinaryEval, error) {
	b, ok := e.(*expr.BinaryEval)
	if !ok {
		return nil, dberror.Algebraf("Commutate", "cannot commutate %s", e)
	}

	var op expr.Kind
	switch b.Op {
	case expr.KindAnd, expr.KindOr, expr.KindEqual, expr.KindNotEqual, expr.KindPlus, expr.KindMultiply:
		op = b.Op
	case expr.KindGreaterThan, expr.KindGreaterEqual, expr.KindLessThan, expr.KindLessEqual:
		op = mirror(b.Op)
	default:
		return nil, dberror.Algebraf("Commutate", "cannot commutate operator %s in %s", b.Op, b)
	}
	return &expr.BinaryEval{Op: op, Left: b.Right.Clone(), Right: b.Left.Clone()}, nil
}

// InverseOperator returns the arithmetic operator that undoes op.
func InverseOperator(op expr.Kind) (expr.Kind, error) {
	switch op {
	case expr.KindPlus:
		return expr.KindMinus, nil
	case expr.KindMinus:
		return expr.KindPlus, nil
	case expr.KindMultiply:
		return expr.KindDivide, nil
	case expr.KindDivide:
		return expr.KindMultiply, nil
	default:
		return 0, dberror.Algebraf("InverseOperator", "cannot inverse operator %s", op)
	}
}

// mirror maps an ordering comparison to the one that holds with swapped
// operands. = and <> are their own mirror.
func mirror(op expr.Kind) expr.Kind {
	switch op {
	case expr.KindGreaterThan:
		return expr.KindLessThan
	case expr.KindGreaterEqual:
		return expr.KindLessEqual
	case expr.KindLessThan:
		return expr.KindGreaterThan
	case expr.KindLessEqual:
		return expr.KindGreaterEqual
	default:
		return op
	}
}
