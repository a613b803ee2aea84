package algebra

import (
	"sqlcore/pkg/expr"
	"sqlcore/pkg/types"
)

// EliminateConstantExprs folds every subtree whose operands are all
// constants into a single constant, bottom-up.
func EliminateConstantExprs(e expr.EvalNode) (expr.EvalNode, error) {
	switch n := e.(type) {
	case *expr.BinaryEval:
		left, err := EliminateConstantExprs(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := EliminateConstantExprs(n.Right)
		if err != nil {
			return nil, err
		}

		folded := &expr.BinaryEval{Op: n.Op, Left: left, Right: right}
		if isConst(left) && isConst(right) {
			return evalConst(folded)
		}
		return folded, nil

	case *expr.NotEval:
		child, err := EliminateConstantExprs(n.Child)
		if err != nil {
			return nil, err
		}
		folded := expr.NewNot(child)
		if isConst(child) {
			return evalConst(folded)
		}
		return folded, nil

	default:
		return e.Clone(), nil
	}
}

func evalConst(e expr.EvalNode) (expr.EvalNode, error) {
	v, err := e.Eval(nil, nil)
	if err != nil {
		return nil, err
	}
	return expr.NewConst(v), nil
}

func isConst(e expr.EvalNode) bool {
	_, ok := e.(*expr.ConstEval)
	return ok
}

// constValue returns the value of e when e is a non-null constant.
func constValue(e expr.EvalNode) (types.Field, bool) {
	c, ok := e.(*expr.ConstEval)
	if !ok || types.IsNull(c.Value) {
		return nil, false
	}
	return c.Value, true
}
