package expr

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/types"
)

// Check validates operand types throughout e. It reports the first mismatch
// as a planning error.
func Check(e EvalNode) error {
	var err error
	Walk(e, func(n EvalNode) bool {
		if err != nil {
			return false
		}
		err = checkNode(n)
		return err == nil
	})
	return err
}

// CheckPredicate is Check plus the requirement that e yields a boolean.
func CheckPredicate(e EvalNode) error {
	if err := Check(e); err != nil {
		return err
	}
	if rt := e.ResultType(); rt != types.BoolType && rt != types.NullType {
		return mismatch(e, "predicate must be BOOL, got %s", rt)
	}
	return nil
}

func checkNode(n EvalNode) error {
	switch x := n.(type) {
	case *BinaryEval:
		lt, rt := x.Left.ResultType(), x.Right.ResultType()
		switch {
		case x.Op.IsArithmetic():
			if !isNumericOrNull(lt) || !isNumericOrNull(rt) {
				return mismatch(n, "operator %s needs numeric operands, got %s and %s", x.Op, lt, rt)
			}
		case x.Op.IsLogical():
			if !isBoolOrNull(lt) || !isBoolOrNull(rt) {
				return mismatch(n, "operator %s needs BOOL operands, got %s and %s", x.Op, lt, rt)
			}
		default:
			if !lt.Comparable(rt) {
				return mismatch(n, "cannot compare %s with %s", lt, rt)
			}
		}

	case *NotEval:
		if !isBoolOrNull(x.Child.ResultType()) {
			return mismatch(n, "NOT needs a BOOL operand, got %s", x.Child.ResultType())
		}

	case *LikeEval:
		if ct := x.Child.ResultType(); ct != types.StringType && ct != types.NullType {
			return mismatch(n, "LIKE needs a TEXT operand, got %s", ct)
		}

	case *BetweenEval:
		ct := x.Child.ResultType()
		if !ct.Comparable(x.Low.ResultType()) || !ct.Comparable(x.High.ResultType()) {
			return mismatch(n, "BETWEEN bounds %s and %s do not compare with %s",
				x.Low.ResultType(), x.High.ResultType(), ct)
		}

	case *InEval:
		ct := x.Child.ResultType()
		for _, v := range x.Values {
			if !ct.Comparable(v.ResultType()) {
				return mismatch(n, "IN value %s does not compare with %s", v.ResultType(), ct)
			}
		}

	case *FuncCallEval:
		return checkArgs(n, x.Func.ParamTypes, x.Args)

	case *AggFuncCallEval:
		return checkArgs(n, x.Func.ParamTypes, x.Args)
	}
	return nil
}

func checkArgs(n EvalNode, params []types.Type, args []EvalNode) error {
	if len(params) != len(args) {
		return mismatch(n, "expected %d arguments, got %d", len(params), len(args))
	}
	for i, a := range args {
		at := a.ResultType()
		if at == types.NullType || at == params[i] {
			continue
		}
		if at == types.IntType && params[i] == types.FloatType {
			continue
		}
		return mismatch(n, "argument %d is %s, expected %s", i+1, at, params[i])
	}
	return nil
}

func isNumericOrNull(t types.Type) bool { return t.IsNumeric() || t == types.NullType }
func isBoolOrNull(t types.Type) bool    { return t == types.BoolType || t == types.NullType }

func mismatch(n EvalNode, format string, args ...any) error {
	return dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeTypeMismatch, format, args...).
		WithDetail("in %s", n)
}
