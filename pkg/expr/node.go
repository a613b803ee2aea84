package expr

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// EvalNode is an expression tree node. The set of implementations is closed
// (see the Kind constants); traversals switch on the concrete type.
//
// A node owns its children exclusively. Expressions moved between plan nodes
// are cloned first.
type EvalNode interface {
	Kind() Kind

	// ResultType is the static type of the value Eval produces.
	ResultType() types.Type

	// Eval computes the value of the expression for t, whose layout is schema.
	Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error)

	Clone() EvalNode

	String() string

	evalNode()
}

// IsTrue reports whether an evaluated predicate accepts the row. NULL and
// false both reject.
func IsTrue(f types.Field) bool {
	b, ok := f.(*types.BoolField)
	return ok && b.Value
}

// EvalBool evaluates a predicate and applies IsTrue.
func EvalBool(e EvalNode, schema *catalog.Schema, t *tuple.Tuple) (bool, error) {
	v, err := e.Eval(schema, t)
	if err != nil {
		return false, err
	}
	return IsTrue(v), nil
}

func boolField(b bool) types.Field {
	return types.NewBoolField(b)
}
