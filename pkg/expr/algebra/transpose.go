package algebra

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/types"
)

// PartialBinary is one side of an arithmetic node detached from it: the
// operator together with the term that was on the detached side.
type PartialBinary struct {
	Op   expr.Kind
	Term expr.EvalNode
}

// Apply rebuilds the binary node with lhs as left operand.
func (p PartialBinary) Apply(lhs expr.EvalNode) *expr.BinaryEval {
	return &expr.BinaryEval{Op: p.Op, Left: lhs, Right: p.Term}
}

// SplitLeftTerm detaches the left operand of an arithmetic node. For x * y it
// returns y and (*, x).
func SplitLeftTerm(e expr.EvalNode) (expr.EvalNode, PartialBinary, error) {
	b, err := arithmetic(e, "SplitLeftTerm")
	if err != nil {
		return nil, PartialBinary{}, err
	}
	return b.Right.Clone(), PartialBinary{Op: b.Op, Term: b.Left.Clone()}, nil
}

// SplitRightTerm detaches the right operand of an arithmetic node. For x * y
// it returns x and (*, y).
func SplitRightTerm(e expr.EvalNode) (expr.EvalNode, PartialBinary, error) {
	b, err := arithmetic(e, "SplitRightTerm")
	if err != nil {
		return nil, PartialBinary{}, err
	}
	return b.Left.Clone(), PartialBinary{Op: b.Op, Term: b.Right.Clone()}, nil
}

func arithmetic(e expr.EvalNode, operation string) (*expr.BinaryEval, error) {
	b, ok := e.(*expr.BinaryEval)
	if !ok || b.Op == expr.KindModulo || !b.Op.IsArithmetic() {
		return nil, dberror.Algebraf(operation, "%s is not a + - * / expression", e)
	}
	return b, nil
}

// Transpose rewrites the comparison e so that column stands alone on the
// left, e.g. 2 * x + 1 > 7 becomes x > 3. The expression must be linear in
// column: column may occur only once, and multiplications or divisions on
// the way to it must be by constants.
func Transpose(e expr.EvalNode, column string) (*expr.BinaryEval, error) {
	cmp, ok := e.(*expr.BinaryEval)
	if !ok || !cmp.Op.IsComparison() {
		return nil, dberror.Algebraf("Transpose", "%s is not a comparison", e)
	}

	inLeft, inRight := ContainsColumn(cmp.Left, column), ContainsColumn(cmp.Right, column)
	switch {
	case inLeft && inRight:
		return nil, dberror.Algebraf("Transpose", "%s appears on both sides of %s", column, e)
	case !inLeft && !inRight:
		return nil, dberror.Algebraf("Transpose", "%s does not reference %s", e, column)
	case inRight:
		var err error
		if cmp, err = Commutate(cmp); err != nil {
			return nil, err
		}
	}

	op := cmp.Op
	left, err := EliminateConstantExprs(cmp.Left)
	if err != nil {
		return nil, err
	}
	right, err := EliminateConstantExprs(cmp.Right)
	if err != nil {
		return nil, err
	}

	for {
		if f, ok := left.(*expr.FieldEval); ok && f.Column.Matches(column) {
			return &expr.BinaryEval{Op: op, Left: left, Right: right}, nil
		}

		inner, err := arithmetic(left, "Transpose")
		if err != nil {
			return nil, err
		}
		varLeft, varRight := ContainsColumn(inner.Left, column), ContainsColumn(inner.Right, column)
		if varLeft && varRight {
			return nil, dberror.Algebraf("Transpose", "%s is not linear in %s", inner, column)
		}

		var rest expr.EvalNode
		var term PartialBinary
		if varLeft {
			// x op t cmp r  =>  x cmp r inv(op) t
			if rest, term, err = SplitRightTerm(inner); err != nil {
				return nil, err
			}
			inv, err := InverseOperator(term.Op)
			if err != nil {
				return nil, err
			}
			if term.Op == expr.KindMultiply || term.Op == expr.KindDivide {
				if op, err = scaleComparison(op, term.Term, inner); err != nil {
					return nil, err
				}
			}
			right = &expr.BinaryEval{Op: inv, Left: right, Right: term.Term}
		} else {
			if rest, term, err = SplitLeftTerm(inner); err != nil {
				return nil, err
			}
			switch term.Op {
			case expr.KindPlus:
				// t + x cmp r  =>  x cmp r - t
				right = &expr.BinaryEval{Op: expr.KindMinus, Left: right, Right: term.Term}
			case expr.KindMultiply:
				// t * x cmp r  =>  x cmp r / t
				if op, err = scaleComparison(op, term.Term, inner); err != nil {
					return nil, err
				}
				right = &expr.BinaryEval{Op: expr.KindDivide, Left: right, Right: term.Term}
			case expr.KindMinus:
				// t - x cmp r  =>  x mirror(cmp) t - r
				op = mirror(op)
				right = &expr.BinaryEval{Op: expr.KindMinus, Left: term.Term, Right: right}
			default:
				return nil, dberror.Algebraf("Transpose", "cannot isolate %s in %s", column, inner)
			}
		}

		left = rest
		if right, err = EliminateConstantExprs(right); err != nil {
			return nil, err
		}
	}
}

// scaleComparison checks that factor is a non-zero constant and mirrors op
// when it is negative.
func scaleComparison(op expr.Kind, factor expr.EvalNode, in expr.EvalNode) (expr.Kind, error) {
	v, ok := constValue(factor)
	if !ok || !v.Type().IsNumeric() {
		return 0, dberror.Algebraf("Transpose", "factor %s in %s is not a numeric constant", factor, in)
	}
	if f, _ := types.ToFloat(v); f == 0 {
		return 0, dberror.Algebraf("Transpose", "factor %s in %s is zero", factor, in)
	}
	if types.Negative(v) {
		return mirror(op), nil
	}
	return op, nil
}
