package optimizer

import (
	"slices"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/expr/algebra"
	"sqlcore/pkg/plan"
)

// pushSelections removes every Selection from the tree and re-places its
// conjuncts as close to the scans as their columns allow. The tree must be
// annotated.
func pushSelections(node plan.Node) (plan.Node, error) {
	return push(node, nil)
}

// push returns a subtree equivalent to node filtered by every conjunct in
// pending.
func push(node plan.Node, pending []expr.EvalNode) (plan.Node, error) {
	switch n := node.(type) {
	case *plan.SelectionNode:
		all := append(append([]expr.EvalNode(nil), pending...), algebra.ToConjunctiveNormalFormArray(n.Qual)...)
		return push(n.Child(), all)

	case *plan.RootNode, *plan.StoreNode, *plan.SortNode:
		// Same columns as the child: everything moves down.
		u := n.(plan.UnaryNode)
		child, err := push(u.Child(), pending)
		if err != nil {
			return nil, err
		}
		u.SetChild(child)
		return u, nil

	case *plan.ProjectionNode:
		var down, stay []expr.EvalNode
		if n.Wildcard {
			down, stay = partition(pending, func(c expr.EvalNode) bool {
				return algebra.CanBeEvaluated(c, n.Child())
			})
		} else {
			down, stay = rebindAll(pending, n, n.Targets, nil)
		}
		child, err := push(n.Child(), down)
		if err != nil {
			return nil, err
		}
		n.SetChild(child)
		return wrap(n, stay), nil

	case *plan.GroupByNode:
		keys := groupingKeys(n.GroupingColumns)
		down, stay := rebindAll(pending, n, n.Targets, func(f *expr.FieldEval) bool {
			return matchesAny(f, keys)
		})
		child, err := push(n.Child(), down)
		if err != nil {
			return nil, err
		}
		n.SetChild(child)
		return wrap(n, stay), nil

	case *plan.JoinNode:
		return pushIntoJoin(n, pending)

	case *plan.ScanNode:
		down, stay := partition(pending, func(c expr.EvalNode) bool {
			return algebra.ResolvesIn(c, n.InSchema())
		})
		if len(down) > 0 {
			conjuncts := algebra.ToConjunctiveNormalFormArray(n.Qual)
			n.Qual = algebra.CreateSingletonExprFromCNF(append(append([]expr.EvalNode(nil), conjuncts...), down...)...)
		}
		return wrap(n, stay), nil

	case *plan.LiteralNode:
		return wrap(n, pending), nil

	default:
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"unsupported plan node %T", node)
	}
}

// pushIntoJoin routes single-side conjuncts into the child that can evaluate
// them and keeps two-side conjuncts as the join condition. The single-side
// conjuncts of an inner join condition are pushed as well.
func pushIntoJoin(n *plan.JoinNode, pending []expr.EvalNode) (plan.Node, error) {
	all := slices.Clone(pending)
	if n.Qual != nil {
		all = append(all, algebra.ToConjunctiveNormalFormArray(n.Qual)...)
	}

	var outerPreds, innerPreds, joinPreds, stay []expr.EvalNode
	for _, c := range all {
		switch {
		case algebra.CanBeEvaluated(c, n.Outer()):
			outerPreds = append(outerPreds, c)
		case algebra.CanBeEvaluated(c, n.Inner()):
			innerPreds = append(innerPreds, c)
		case algebra.ResolvesIn(c, n.InSchema()):
			joinPreds = append(joinPreds, c)
		default:
			stay = append(stay, c)
		}
	}

	outer, err := push(n.Outer(), outerPreds)
	if err != nil {
		return nil, err
	}
	inner, err := push(n.Inner(), innerPreds)
	if err != nil {
		return nil, err
	}
	n.SetOuter(outer)
	n.SetInner(inner)

	n.Qual = nil
	if len(joinPreds) > 0 {
		n.SetQual(algebra.CreateSingletonExprFromCNF(joinPreds...))
	} else {
		n.Kind = plan.CrossJoin
	}
	return wrap(n, stay), nil
}

// wrap puts the conjuncts in one Selection on top of n.
func wrap(n plan.Node, conjuncts []expr.EvalNode) plan.Node {
	if len(conjuncts) == 0 {
		return n
	}
	sel := plan.NewSelection(algebra.CreateSingletonExprFromCNF(conjuncts...), n)
	sel.SetInSchema(n.OutSchema())
	sel.SetOutSchema(n.OutSchema())
	return sel
}

func partition(conjuncts []expr.EvalNode, down func(expr.EvalNode) bool) (moved, kept []expr.EvalNode) {
	for _, c := range conjuncts {
		if down(c) {
			moved = append(moved, c)
		} else {
			kept = append(kept, c)
		}
	}
	return moved, kept
}

// rebindAll moves the conjuncts that can be rewritten onto the input of n
// (see rebind) and that then evaluate against n's child. The rewritten
// conjuncts are returned in down; the others stay above n unchanged.
func rebindAll(pending []expr.EvalNode, n plan.UnaryNode, targets []expr.Target, accept func(*expr.FieldEval) bool) (down, stay []expr.EvalNode) {
	for _, c := range pending {
		if r, ok := rebind(c, targets, n.OutSchema(), accept); ok && algebra.CanBeEvaluated(r, n.Child()) {
			down = append(down, r)
		} else {
			stay = append(stay, c)
		}
	}
	return down, stay
}

// rebind rewrites c from the columns produced by targets to the child
// columns they copy. Every column of c must come from a target that is a
// plain column reference accepted by accept; a target computing a value,
// even under the name of a child column, cannot be rebound.
func rebind(c expr.EvalNode, targets []expr.Target, out *catalog.Schema, accept func(*expr.FieldEval) bool) (expr.EvalNode, bool) {
	if len(expr.FindAggregates(c)) > 0 {
		return nil, false
	}
	ok := true
	rewritten := expr.Replace(c, func(e expr.EvalNode) expr.EvalNode {
		f, isField := e.(*expr.FieldEval)
		if !isField || !ok {
			return nil
		}
		i, err := out.ColumnIndex(f.Name())
		if err != nil || i >= len(targets) {
			ok = false
			return nil
		}
		src, isField := targets[i].Expr.(*expr.FieldEval)
		if !isField || (accept != nil && !accept(src)) {
			ok = false
			return nil
		}
		return src.Clone()
	})
	return rewritten, ok
}

func groupingKeys(grouping []*expr.FieldEval) []catalog.Column {
	keys := make([]catalog.Column, len(grouping))
	for i, g := range grouping {
		keys[i] = g.Column
	}
	return keys
}

func matchesAny(f *expr.FieldEval, keys []catalog.Column) bool {
	for _, k := range keys {
		if k.Matches(f.Name()) || f.Column.Matches(k.QualifiedName()) {
			return true
		}
	}
	return false
}
