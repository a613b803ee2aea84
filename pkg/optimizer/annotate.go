package optimizer

import (
	"context"
	"fmt"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/plan"
)

// Annotate assigns input and output schemas to every node of the tree and
// returns the rewritten tree. With a nil needed set nothing is pruned and
// scans produce every column. With a set, scans produce only the columns some
// ancestor registered, and Projections that no longer change their input
// are spliced out from under unary parents.
func Annotate(ctx context.Context, cat catalog.Catalog, root plan.Node, needed *TargetSet) (plan.Node, error) {
	a := &annotator{cat: cat}
	if needed != nil {
		// Sinks register what their child produces unpruned, so schemas of
		// the full plan must exist first.
		if _, err := a.visit(ctx, root, nil); err != nil {
			return nil, err
		}
	}
	return a.visit(ctx, root, needed)
}

type annotator struct {
	cat catalog.Catalog
}

func (a *annotator) visit(ctx context.Context, node plan.Node, needed *TargetSet) (plan.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case *plan.RootNode:
		return a.visitSink(ctx, n, needed)

	case *plan.StoreNode:
		return a.visitSink(ctx, n, needed)

	case *plan.SelectionNode:
		if needed != nil {
			needed.AddExpr(n.Qual)
		}
		if err := a.visitUnaryChild(ctx, n, needed); err != nil {
			return nil, err
		}
		if err := resolve(n.Qual, n.Child().OutSchema(), n); err != nil {
			return nil, err
		}
		passThrough(n)
		return n, nil

	case *plan.SortNode:
		if needed != nil {
			for _, k := range n.Keys {
				needed.AddExpr(k.Column)
			}
		}
		if err := a.visitUnaryChild(ctx, n, needed); err != nil {
			return nil, err
		}
		for _, k := range n.Keys {
			if err := resolve(k.Column, n.Child().OutSchema(), n); err != nil {
				return nil, err
			}
		}
		passThrough(n)
		return n, nil

	case *plan.ProjectionNode:
		return a.visitProjection(ctx, n, needed)

	case *plan.GroupByNode:
		return a.visitGroupBy(ctx, n, needed)

	case *plan.JoinNode:
		return a.visitJoin(ctx, n, needed)

	case *plan.ScanNode:
		return a.visitScan(n, needed)

	case *plan.LiteralNode:
		out, err := expr.TargetSchema(n.Targets)
		if err != nil {
			return nil, err
		}
		n.SetInSchema(catalog.MustSchema())
		n.SetOutSchema(out)
		return n, nil

	default:
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"unsupported plan node %T", node)
	}
}

// visitSink handles Root and Store, which consume every column their child
// produces.
func (a *annotator) visitSink(ctx context.Context, n plan.UnaryNode, needed *TargetSet) (plan.Node, error) {
	if needed != nil {
		needed.AddSchema(n.Child().OutSchema())
	}
	if err := a.visitUnaryChild(ctx, n, needed); err != nil {
		return nil, err
	}
	passThrough(n)
	return n, nil
}

func (a *annotator) visitProjection(ctx context.Context, n *plan.ProjectionNode, needed *TargetSet) (plan.Node, error) {
	childNeeded := needed
	if needed != nil {
		if n.Wildcard {
			// Everything below a wildcard survives.
			childNeeded = nil
		} else {
			needed.AddTargets(n.Targets)
		}
	}
	if err := a.visitUnaryChild(ctx, n, childNeeded); err != nil {
		return nil, err
	}

	in := n.Child().OutSchema()
	n.SetInSchema(in)
	if n.Wildcard {
		n.SetOutSchema(in)
		return n, nil
	}

	for _, t := range n.Targets {
		if err := resolve(t.Expr, in, n); err != nil {
			return nil, err
		}
	}
	out, err := expr.TargetSchema(n.Targets)
	if err != nil {
		return nil, err
	}
	n.SetOutSchema(out)
	return n, nil
}

func (a *annotator) visitGroupBy(ctx context.Context, n *plan.GroupByNode, needed *TargetSet) (plan.Node, error) {
	if needed != nil {
		for _, g := range n.GroupingColumns {
			needed.AddExpr(g)
		}
		needed.AddTargets(n.Targets)
		needed.AddExpr(n.Having)
	}
	if err := a.visitUnaryChild(ctx, n, needed); err != nil {
		return nil, err
	}

	in := n.Child().OutSchema()
	for _, g := range n.GroupingColumns {
		if err := resolve(g, in, n); err != nil {
			return nil, err
		}
	}
	for _, t := range n.Targets {
		if err := resolve(t.Expr, in, n); err != nil {
			return nil, err
		}
	}
	if err := resolve(n.Having, in, n); err != nil {
		return nil, err
	}

	out, err := expr.TargetSchema(n.Targets)
	if err != nil {
		return nil, err
	}
	n.SetInSchema(in)
	n.SetOutSchema(out)
	return n, nil
}

func (a *annotator) visitJoin(ctx context.Context, n *plan.JoinNode, needed *TargetSet) (plan.Node, error) {
	if needed != nil {
		needed.AddExpr(n.Qual)
		needed.AddTargets(n.Targets)
	}

	outer, err := a.visit(ctx, n.Outer(), needed)
	if err != nil {
		return nil, err
	}
	inner, err := a.visit(ctx, n.Inner(), needed)
	if err != nil {
		return nil, err
	}
	n.SetOuter(outer)
	n.SetInner(inner)

	in, err := catalog.Merge(outer.OutSchema(), inner.OutSchema())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeDuplicateColumn, "Annotate", "optimizer")
	}
	if err := resolve(n.Qual, in, n); err != nil {
		return nil, err
	}
	n.SetInSchema(in)

	if len(n.Targets) == 0 {
		n.SetOutSchema(in)
		return n, nil
	}
	for _, t := range n.Targets {
		if err := resolve(t.Expr, in, n); err != nil {
			return nil, err
		}
	}
	out, err := expr.TargetSchema(n.Targets)
	if err != nil {
		return nil, err
	}
	n.SetOutSchema(out)
	return n, nil
}

func (a *annotator) visitScan(n *plan.ScanNode, needed *TargetSet) (plan.Node, error) {
	full, err := a.cat.SchemaOf(n.Table)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeTableNotFound, "Annotate", "optimizer")
	}
	full = full.Qualify(n.Qualifier())
	if err := resolve(n.Qual, full, n); err != nil {
		return nil, err
	}
	n.SetInSchema(full)

	if needed == nil {
		n.SetOutSchema(full)
		n.Targets = nil
		return n, nil
	}

	needed.AddExpr(n.Qual)
	out := full.Select(needed.Covers)
	targets := make([]expr.Target, 0, out.NumColumns())
	for _, c := range out.Columns() {
		targets = append(targets, expr.ColumnTarget(c))
	}
	n.SetOutSchema(out)
	n.Targets = targets
	return n, nil
}

// visitUnaryChild annotates the child of n and splices out a Projection
// child that only copies its input columns, in order.
func (a *annotator) visitUnaryChild(ctx context.Context, n plan.UnaryNode, needed *TargetSet) error {
	child, err := a.visit(ctx, n.Child(), needed)
	if err != nil {
		return err
	}
	if p, ok := child.(*plan.ProjectionNode); ok && needed != nil && copiesInput(p) {
		child = p.Child()
	}
	n.SetChild(child)
	return nil
}

func copiesInput(p *plan.ProjectionNode) bool {
	if !p.OutSchema().Equal(p.InSchema()) {
		return false
	}
	for _, t := range p.Targets {
		if _, ok := t.Expr.(*expr.FieldEval); !ok {
			return false
		}
	}
	return true
}

func passThrough(n plan.UnaryNode) {
	s := n.Child().OutSchema()
	n.SetInSchema(s)
	n.SetOutSchema(s)
}

// resolve checks that every column e references exists in schema.
func resolve(e expr.EvalNode, schema *catalog.Schema, at plan.Node) error {
	if e == nil {
		return nil
	}
	for _, f := range expr.Columns(e) {
		if _, err := schema.ColumnIndex(f.Name()); err != nil {
			dbErr := dberror.Wrap(err, dberror.CodeColumnNotFound, "Annotate", "optimizer")
			if dbErr.Detail == "" {
				dbErr.WithDetail("%s referenced by %s", f.Name(), describe(at))
			}
			return dbErr
		}
	}
	return nil
}

func describe(n plan.Node) string {
	return fmt.Sprintf("%s node", n.PlanString().Title())
}
