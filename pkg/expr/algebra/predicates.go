package algebra

import (
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/expr"
)

// SchemaProvider is anything exposing the columns it produces, typically a
// plan node.
type SchemaProvider interface {
	OutSchema() *catalog.Schema
}

// CanBeEvaluated reports whether every column referenced by e resolves
// against the output of node.
func CanBeEvaluated(e expr.EvalNode, node SchemaProvider) bool {
	return ResolvesIn(e, node.OutSchema())
}

// ResolvesIn reports whether every column referenced by e resolves in s.
func ResolvesIn(e expr.EvalNode, s *catalog.Schema) bool {
	for _, f := range expr.Columns(e) {
		if !s.Contains(f.Name()) {
			return false
		}
	}
	return true
}

// ContainsColumn reports whether e references column, given qualified or
// bare.
func ContainsColumn(e expr.EvalNode, column string) bool {
	found := false
	expr.Walk(e, func(n expr.EvalNode) bool {
		if f, ok := n.(*expr.FieldEval); ok && (f.Column.Matches(column) || columnMatchesRef(column, f)) {
			found = true
		}
		return !found
	})
	return found
}

// columnMatchesRef covers a qualified column name checked against a bare
// reference of the same column.
func columnMatchesRef(column string, f *expr.FieldEval) bool {
	return f.Column.Qualifier == "" && catalog.ParseColumn(column, f.Column.Type).Name == f.Column.Name
}

// ContainSingleVar reports whether e references exactly one distinct column.
func ContainSingleVar(e expr.EvalNode) bool {
	return len(expr.Columns(e)) == 1
}

// IsComparisonOperator reports = < <= > >= and BETWEEN.
func IsComparisonOperator(e expr.EvalNode) bool {
	switch e.Kind() {
	case expr.KindEqual, expr.KindLessThan, expr.KindLessEqual,
		expr.KindGreaterThan, expr.KindGreaterEqual, expr.KindBetween:
		return true
	default:
		return false
	}
}

// IsIndexableOperator reports predicates an ordered index could answer: the
// comparisons, IN, and LIKE without a leading wildcard.
func IsIndexableOperator(e expr.EvalNode) bool {
	if IsComparisonOperator(e) || e.Kind() == expr.KindIn {
		return true
	}
	if l, ok := e.(*expr.LikeEval); ok {
		return !l.Not && !l.IsLeadingWildcard()
	}
	return false
}

// IsJoinQual reports whether e is an equality between two column references
// of different relations.
func IsJoinQual(e expr.EvalNode) bool {
	b, ok := e.(*expr.BinaryEval)
	if !ok || b.Op != expr.KindEqual {
		return false
	}
	l, lok := b.Left.(*expr.FieldEval)
	r, rok := b.Right.(*expr.FieldEval)
	return lok && rok && l.Column.Qualifier != r.Column.Qualifier
}

// EquiJoinKeys splits a join qualifier into equality keys, each pairing an
// expression over outer with one over inner, and the residual conjuncts that
// need the combined row.
func EquiJoinKeys(qual expr.EvalNode, outer, inner *catalog.Schema) (outerKeys, innerKeys, residual []expr.EvalNode) {
	for _, c := range ToConjunctiveNormalFormArray(qual) {
		b, ok := c.(*expr.BinaryEval)
		if ok && b.Op == expr.KindEqual {
			switch {
			case sideOnly(b.Left, outer, inner) && sideOnly(b.Right, inner, outer):
				outerKeys = append(outerKeys, b.Left.Clone())
				innerKeys = append(innerKeys, b.Right.Clone())
				continue
			case sideOnly(b.Left, inner, outer) && sideOnly(b.Right, outer, inner):
				outerKeys = append(outerKeys, b.Right.Clone())
				innerKeys = append(innerKeys, b.Left.Clone())
				continue
			}
		}
		residual = append(residual, c.Clone())
	}
	return outerKeys, innerKeys, residual
}

// sideOnly reports whether e references at least one column, all of which
// resolve in side and none of which resolve in other.
func sideOnly(e expr.EvalNode, side, other *catalog.Schema) bool {
	cols := expr.Columns(e)
	if len(cols) == 0 {
		return false
	}
	for _, f := range cols {
		if !side.Contains(f.Name()) || other.Contains(f.Name()) {
			return false
		}
	}
	return true
}
