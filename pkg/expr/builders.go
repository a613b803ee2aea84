package expr

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

// Shorthand constructors used by plan builders and tests.

// Col references a column by (optionally qualified) name.
func Col(name string, t types.Type) *FieldEval {
	return NewField(catalog.ParseColumn(name, t))
}

func Int(v int64) *ConstEval     { return NewConst(types.NewIntField(v)) }
func Float(v float64) *ConstEval { return NewConst(types.NewFloatField(v)) }
func Str(v string) *ConstEval    { return NewConst(types.NewStringField(v)) }
func Bool(v bool) *ConstEval     { return NewConst(types.NewBoolField(v)) }
func NullConst() *ConstEval      { return NewConst(types.Null) }

func And(l, r EvalNode) *BinaryEval   { return NewBinary(KindAnd, l, r) }
func Or(l, r EvalNode) *BinaryEval    { return NewBinary(KindOr, l, r) }
func Eq(l, r EvalNode) *BinaryEval    { return NewBinary(KindEqual, l, r) }
func NotEq(l, r EvalNode) *BinaryEval { return NewBinary(KindNotEqual, l, r) }
func Lt(l, r EvalNode) *BinaryEval    { return NewBinary(KindLessThan, l, r) }
func Le(l, r EvalNode) *BinaryEval    { return NewBinary(KindLessEqual, l, r) }
func Gt(l, r EvalNode) *BinaryEval    { return NewBinary(KindGreaterThan, l, r) }
func Ge(l, r EvalNode) *BinaryEval    { return NewBinary(KindGreaterEqual, l, r) }
func Plus(l, r EvalNode) *BinaryEval  { return NewBinary(KindPlus, l, r) }
func Minus(l, r EvalNode) *BinaryEval { return NewBinary(KindMinus, l, r) }
func Mul(l, r EvalNode) *BinaryEval   { return NewBinary(KindMultiply, l, r) }
func Div(l, r EvalNode) *BinaryEval   { return NewBinary(KindDivide, l, r) }
func Mod(l, r EvalNode) *BinaryEval   { return NewBinary(KindModulo, l, r) }

// Call resolves name against the catalog for the argument types and builds a
// scalar or aggregate call accordingly.
func Call(cat catalog.Catalog, name string, args ...EvalNode) (EvalNode, error) {
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.ResultType()
	}
	fd, err := cat.FunctionSignature(name, argTypes)
	if err != nil {
		return nil, err
	}
	if fd.Kind == catalog.AggregateFunction {
		return NewAggFuncCall(fd, args...), nil
	}
	return NewFuncCall(fd, args...), nil
}
