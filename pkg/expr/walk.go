package expr

import (
	"fmt"
)

// Children returns the direct children of e in evaluation order.
func Children(e EvalNode) []EvalNode {
	switch n := e.(type) {
	case *BinaryEval:
		return []EvalNode{n.Left, n.Right}
	case *NotEval:
		return []EvalNode{n.Child}
	case *FuncCallEval:
		return n.Args
	case *AggFuncCallEval:
		return n.Args
	case *LikeEval:
		return []EvalNode{n.Child}
	case *BetweenEval:
		return []EvalNode{n.Child, n.Low, n.High}
	case *InEval:
		return append([]EvalNode{n.Child}, n.Values...)
	case *IsNullEval:
		return []EvalNode{n.Child}
	case *FieldEval, *ConstEval:
		return nil
	default:
		panic(fmt.Sprintf("expr: unhandled node %T", e))
	}
}

// Walk visits e in pre-order. Returning false from visit skips the node's
// children.
func Walk(e EvalNode, visit func(EvalNode) bool) {
	if e == nil || !visit(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, visit)
	}
}

// Columns returns the distinct field references in e, in first-seen order.
func Columns(e EvalNode) []*FieldEval {
	var out []*FieldEval
	seen := make(map[string]struct{})
	Walk(e, func(n EvalNode) bool {
		if f, ok := n.(*FieldEval); ok {
			if _, dup := seen[f.Name()]; !dup {
				seen[f.Name()] = struct{}{}
				out = append(out, f)
			}
		}
		return true
	})
	return out
}

// TargetColumns collects the distinct field references of every target.
func TargetColumns(targets []Target) []*FieldEval {
	var out []*FieldEval
	seen := make(map[string]struct{})
	for _, t := range targets {
		for _, f := range Columns(t.Expr) {
			if _, dup := seen[f.Name()]; !dup {
				seen[f.Name()] = struct{}{}
				out = append(out, f)
			}
		}
	}
	return out
}

// Count returns how many nodes of e satisfy match.
func Count(e EvalNode, match func(EvalNode) bool) int {
	n := 0
	Walk(e, func(node EvalNode) bool {
		if match(node) {
			n++
		}
		return true
	})
	return n
}

// FindAggregates returns the aggregate calls in e. Aggregates do not nest, so
// the search stops at each call.
func FindAggregates(e EvalNode) []*AggFuncCallEval {
	var out []*AggFuncCallEval
	Walk(e, func(n EvalNode) bool {
		if a, ok := n.(*AggFuncCallEval); ok {
			out = append(out, a)
			return false
		}
		return true
	})
	return out
}

// Equal reports structural equality, comparing field references by name.
func Equal(a, b EvalNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case *FieldEval:
		return x.Name() == b.(*FieldEval).Name()
	case *ConstEval:
		y := b.(*ConstEval)
		return x.Value.Type() == y.Value.Type() && x.Value.Equals(y.Value)
	case *FuncCallEval:
		if x.Func.Signature() != b.(*FuncCallEval).Func.Signature() {
			return false
		}
	case *AggFuncCallEval:
		if x.Func.Signature() != b.(*AggFuncCallEval).Func.Signature() {
			return false
		}
	case *LikeEval:
		y := b.(*LikeEval)
		if x.Pattern != y.Pattern || x.Not != y.Not || x.CaseInsensitive != y.CaseInsensitive {
			return false
		}
	case *BetweenEval:
		y := b.(*BetweenEval)
		if x.Not != y.Not || x.Symmetric != y.Symmetric {
			return false
		}
	case *InEval:
		if x.Not != b.(*InEval).Not {
			return false
		}
	case *IsNullEval:
		if x.Not != b.(*IsNullEval).Not {
			return false
		}
	}

	ac, bc := Children(a), Children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// Replace rebuilds e bottom-up, substituting every node for which fn returns
// a non-nil replacement. The input is not modified.
func Replace(e EvalNode, fn func(EvalNode) EvalNode) EvalNode {
	if r := fn(e); r != nil {
		return r
	}

	switch n := e.(type) {
	case *BinaryEval:
		return &BinaryEval{Op: n.Op, Left: Replace(n.Left, fn), Right: Replace(n.Right, fn)}
	case *NotEval:
		return &NotEval{Child: Replace(n.Child, fn)}
	case *FuncCallEval:
		return &FuncCallEval{Func: n.Func, Args: replaceAll(n.Args, fn)}
	case *AggFuncCallEval:
		return &AggFuncCallEval{Func: n.Func, Args: replaceAll(n.Args, fn)}
	case *LikeEval:
		c := n.Clone().(*LikeEval)
		c.Child = Replace(n.Child, fn)
		return c
	case *BetweenEval:
		return &BetweenEval{
			Child:     Replace(n.Child, fn),
			Low:       Replace(n.Low, fn),
			High:      Replace(n.High, fn),
			Not:       n.Not,
			Symmetric: n.Symmetric,
		}
	case *InEval:
		return &InEval{Child: Replace(n.Child, fn), Values: replaceAll(n.Values, fn), Not: n.Not}
	case *IsNullEval:
		return &IsNullEval{Child: Replace(n.Child, fn), Not: n.Not}
	default:
		return e.Clone()
	}
}

func replaceAll(nodes []EvalNode, fn func(EvalNode) EvalNode) []EvalNode {
	out := make([]EvalNode, len(nodes))
	for i, n := range nodes {
		out[i] = Replace(n, fn)
	}
	return out
}
