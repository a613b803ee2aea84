package expr

import (
	"fmt"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// BinaryEval covers arithmetic, comparison and logical operators. Left and
// Right are exported because the algebra rewrites them in place on clones.
type BinaryEval struct {
	Op    Kind
	Left  EvalNode
	Right EvalNode
}

// NewBinary builds a binary node; op must satisfy Kind.IsBinary.
func NewBinary(op Kind, left, right EvalNode) *BinaryEval {
	if !op.IsBinary() {
		panic(fmt.Sprintf("expr: %s is not a binary operator", op))
	}
	return &BinaryEval{Op: op, Left: left, Right: right}
}

func (b *BinaryEval) Kind() Kind { return b.Op }
func (b *BinaryEval) evalNode()  {}

func (b *BinaryEval) ResultType() types.Type {
	if b.Op.IsArithmetic() {
		return types.Promote(b.Left.ResultType(), b.Right.ResultType())
	}
	return types.BoolType
}

func (b *BinaryEval) Clone() EvalNode {
	return &BinaryEval{Op: b.Op, Left: b.Left.Clone(), Right: b.Right.Clone()}
}

func (b *BinaryEval) String() string {
	return operand(b.Left) + " " + b.Op.String() + " " + operand(b.Right)
}

// operand parenthesizes nested binary expressions.
func operand(e EvalNode) string {
	if _, ok := e.(*BinaryEval); ok {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func (b *BinaryEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	switch {
	case b.Op.IsLogical():
		return b.evalLogical(schema, t)

	case b.Op.IsArithmetic():
		l, r, err := b.evalOperands(schema, t)
		if err != nil {
			return nil, err
		}
		op, _ := b.Op.ArithOp()
		return types.Arith(op, l, r)

	default:
		l, r, err := b.evalOperands(schema, t)
		if err != nil {
			return nil, err
		}
		if types.IsNull(l) || types.IsNull(r) {
			return types.Null, nil
		}
		pred, _ := b.Op.Predicate()
		ok, err := types.Evaluate(pred, l, r)
		if err != nil {
			return nil, err
		}
		return boolField(ok), nil
	}
}

func (b *BinaryEval) evalOperands(schema *catalog.Schema, t *tuple.Tuple) (types.Field, types.Field, error) {
	l, err := b.Left.Eval(schema, t)
	if err != nil {
		return nil, nil, err
	}
	r, err := b.Right.Eval(schema, t)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// evalLogical implements three-valued AND/OR with short-circuiting on the
// deciding value.
func (b *BinaryEval) evalLogical(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	decisive := b.Op == KindOr // true decides OR, false decides AND

	l, err := b.Left.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	if lb, ok := l.(*types.BoolField); ok && lb.Value == decisive {
		return boolField(decisive), nil
	}

	r, err := b.Right.Eval(schema, t)
	if err != nil {
		return nil, err
	}
	if rb, ok := r.(*types.BoolField); ok && rb.Value == decisive {
		return boolField(decisive), nil
	}

	if types.IsNull(l) || types.IsNull(r) {
		return types.Null, nil
	}
	return boolField(!decisive), nil
}
