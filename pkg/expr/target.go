package expr

import (
	"sqlcore/pkg/catalog"
)

// Target is a named output expression of a Projection, GroupBy, Join or
// Literal node.
type Target struct {
	Expr  EvalNode
	Alias string
}

// NewTarget creates a target. An empty alias falls back to the expression's
// own name.
func NewTarget(e EvalNode, alias string) Target {
	return Target{Expr: e, Alias: alias}
}

// ColumnTarget projects a column under its own qualified name.
func ColumnTarget(col catalog.Column) Target {
	return Target{Expr: NewField(col)}
}

// Column derives the output column described by this target. A bare field
// reference keeps its qualifier so that it can still be resolved by its
// qualified name further up the tree.
func (t Target) Column() catalog.Column {
	if t.Alias != "" {
		return catalog.ParseColumn(t.Alias, t.Expr.ResultType())
	}
	if f, ok := t.Expr.(*FieldEval); ok {
		return catalog.NewColumn(f.Column.Qualifier, f.Column.Name, f.Column.Type)
	}
	return catalog.NewColumn("", t.Expr.String(), t.Expr.ResultType())
}

func (t Target) Clone() Target {
	return Target{Expr: t.Expr.Clone(), Alias: t.Alias}
}

func (t Target) String() string {
	if t.Alias == "" {
		return t.Expr.String()
	}
	return t.Expr.String() + " as " + t.Alias
}

// TargetSchema builds the schema produced by evaluating targets in order.
func TargetSchema(targets []Target) (*catalog.Schema, error) {
	cols := make([]catalog.Column, len(targets))
	for i, t := range targets {
		cols[i] = t.Column()
	}
	return catalog.NewSchema(cols...)
}

// CloneTargets deep-copies a target list.
func CloneTargets(targets []Target) []Target {
	if targets == nil {
		return nil
	}
	out := make([]Target, len(targets))
	for i, t := range targets {
		out[i] = t.Clone()
	}
	return out
}
