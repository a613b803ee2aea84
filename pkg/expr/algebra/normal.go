package algebra

import (
	"sqlcore/pkg/expr"
)

// ToConjunctiveNormalFormArray flattens nested AND nodes into the list of
// conjuncts, left to right.
func ToConjunctiveNormalFormArray(e expr.EvalNode) []expr.EvalNode {
	return flatten(expr.KindAnd, nil, e)
}

// CreateSingletonExprFromCNF rebuilds a right-leaning AND chain from
// conjuncts. It returns nil for an empty list.
func CreateSingletonExprFromCNF(conjuncts ...expr.EvalNode) expr.EvalNode {
	return chain(expr.KindAnd, conjuncts)
}

// ToDisjunctiveNormalFormArray flattens nested OR nodes of every argument
// into one list of disjuncts.
func ToDisjunctiveNormalFormArray(exprs ...expr.EvalNode) []expr.EvalNode {
	var out []expr.EvalNode
	for _, e := range exprs {
		out = flatten(expr.KindOr, out, e)
	}
	return out
}

// CreateSingletonExprFromDNF rebuilds a right-leaning OR chain.
func CreateSingletonExprFromDNF(disjuncts ...expr.EvalNode) expr.EvalNode {
	return chain(expr.KindOr, disjuncts)
}

func flatten(op expr.Kind, found []expr.EvalNode, e expr.EvalNode) []expr.EvalNode {
	if e == nil {
		return found
	}
	if b, ok := e.(*expr.BinaryEval); ok && b.Op == op {
		found = flatten(op, found, b.Left)
		return flatten(op, found, b.Right)
	}
	return append(found, e)
}

func chain(op expr.Kind, terms []expr.EvalNode) expr.EvalNode {
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return &expr.BinaryEval{Op: op, Left: terms[0], Right: chain(op, terms[1:])}
	}
}
