package join

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/expr/algebra"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// Condition is a join qualifier split for execution.
type Condition struct {
	// Qual is the whole qualifier over the merged row; nil for a cross join.
	Qual expr.EvalNode

	OuterKeys []expr.EvalNode
	InnerKeys []expr.EvalNode

	// Residual holds the conjuncts that are not equality keys; nil when
	// there are none.
	Residual expr.EvalNode

	outer  *catalog.Schema
	inner  *catalog.Schema
	merged *catalog.Schema
}

// NewCondition splits qual against the schemas of both inputs.
func NewCondition(qual expr.EvalNode, outer, inner *catalog.Schema) (*Condition, error) {
	merged, err := catalog.Merge(outer, inner)
	if err != nil {
		return nil, err
	}

	c := &Condition{Qual: qual, outer: outer, inner: inner, merged: merged}
	if qual == nil {
		return c, nil
	}

	outerKeys, innerKeys, residual := algebra.EquiJoinKeys(qual, outer, inner)
	c.OuterKeys = outerKeys
	c.InnerKeys = innerKeys
	if len(residual) > 0 {
		c.Residual = algebra.CreateSingletonExprFromCNF(residual...)
	}
	return c, nil
}

// HasEquiKeys reports whether hash and merge joins can run this condition.
func (c *Condition) HasEquiKeys() bool { return len(c.OuterKeys) > 0 }

// Merged is the outer ‖ inner schema the qualifier is evaluated on.
func (c *Condition) Merged() *catalog.Schema { return c.merged }

// OuterKey evaluates the outer key expressions for t. ok is false when a key
// is NULL; such a row never matches.
func (c *Condition) OuterKey(t *tuple.Tuple) (key []types.Field, ok bool, err error) {
	return evalKey(c.OuterKeys, c.outer, t)
}

// InnerKey is OuterKey for the inner side.
func (c *Condition) InnerKey(t *tuple.Tuple) (key []types.Field, ok bool, err error) {
	return evalKey(c.InnerKeys, c.inner, t)
}

func evalKey(keys []expr.EvalNode, schema *catalog.Schema, t *tuple.Tuple) ([]types.Field, bool, error) {
	out := make([]types.Field, len(keys))
	for i, k := range keys {
		v, err := k.Eval(schema, t)
		if err != nil {
			return nil, false, err
		}
		if types.IsNull(v) {
			return nil, false, nil
		}
		out[i] = v
	}
	return out, true, nil
}

// Matches evaluates the whole qualifier on a merged row.
func (c *Condition) Matches(merged *tuple.Tuple) (bool, error) {
	if c.Qual == nil {
		return true, nil
	}
	return expr.EvalBool(c.Qual, c.merged, merged)
}

// ResidualHolds evaluates only the residual on a merged row whose keys are
// already known to be equal.
func (c *Condition) ResidualHolds(merged *tuple.Tuple) (bool, error) {
	if c.Residual == nil {
		return true, nil
	}
	return expr.EvalBool(c.Residual, c.merged, merged)
}

// compareKeys orders two keys lexicographically.
func compareKeys(a, b []types.Field) (int, error) {
	for i := range a {
		c, err := types.Compare(a[i], b[i])
		if err != nil || c != 0 {
			return c, err
		}
	}
	return 0, nil
}
