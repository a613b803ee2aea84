package planner

import (
	"context"

	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/execution/join"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/plan"
)

// strategy is the join algorithm picked for one join node.
type strategy struct {
	kind config.JoinStrategy

	// sortInputs interposes sorts on the merge join inputs.
	sortInputs bool

	buildOuter bool
}

func (p *Planner) buildJoin(ctx context.Context, node *plan.JoinNode) (physical, error) {
	outer, err := p.build(ctx, node.Outer())
	if err != nil {
		return physical{}, err
	}
	inner, err := p.build(ctx, node.Inner())
	if err != nil {
		return physical{}, err
	}

	cond, err := join.NewCondition(node.Qual, outer.op.Schema(), inner.op.Schema())
	if err != nil {
		return physical{}, err
	}

	s := p.chooseStrategy(node, cond, outer, inner)
	metrics.JoinStrategy.WithLabelValues(string(s.kind)).Inc()
	p.log.Debug("join strategy chosen",
		"strategy", s.kind,
		"kind", node.Kind.String(),
		"sortInputs", s.sortInputs,
		"buildOuter", s.buildOuter,
		"outerRows", outer.rows,
		"innerRows", inner.rows)

	rows := joinEstimate(outer.rows, inner.rows, node.Qual == nil)
	opts := join.Options{Targets: node.Targets}

	var op iterator.DbIterator
	switch s.kind {
	case config.JoinNestedLoop:
		op, err = join.NewNestedLoopJoin(outer.op, inner.op, cond, opts)
	case config.JoinHash:
		op, err = join.NewHashJoin(outer.op, inner.op, cond, join.HashConfigFrom(p.cfg, s.buildOuter), opts)
	case config.JoinMerge:
		if s.sortInputs {
			if outer, err = p.sortOn(cond.OuterKeys, outer); err != nil {
				return physical{}, err
			}
			if inner, err = p.sortOn(cond.InnerKeys, inner); err != nil {
				return physical{}, err
			}
		}
		op, err = join.NewSortMergeJoin(outer.op, inner.op, cond, opts)
	default:
		op, err = join.NewBlockNestedLoopJoin(outer.op, inner.op, cond, p.cfg.BlockSize, opts)
	}
	return physical{op: op, rows: rows}, err
}

// chooseStrategy applies the configured strategy when the condition allows
// it, and the structural rules of the auto strategy otherwise.
func (p *Planner) chooseStrategy(node *plan.JoinNode, cond *join.Condition, outer, inner physical) strategy {
	mergeable := cond.HasEquiKeys() && keysAreColumns(cond)
	presorted := mergeable &&
		sortedOn(node.Outer(), cond.OuterKeys) &&
		sortedOn(node.Inner(), cond.InnerKeys)

	switch p.cfg.JoinStrategy {
	case config.JoinNestedLoop:
		return strategy{kind: config.JoinNestedLoop}
	case config.JoinBlockNestedLoop:
		return strategy{kind: config.JoinBlockNestedLoop}
	case config.JoinHash:
		if cond.HasEquiKeys() {
			return strategy{kind: config.JoinHash, buildOuter: p.buildOuter(outer, inner)}
		}
		return strategy{kind: config.JoinBlockNestedLoop}
	case config.JoinMerge:
		if mergeable {
			return strategy{kind: config.JoinMerge, sortInputs: !presorted}
		}
		return strategy{kind: config.JoinBlockNestedLoop}
	}

	switch {
	case node.Qual == nil:
		return strategy{kind: config.JoinNestedLoop}
	case presorted:
		return strategy{kind: config.JoinMerge}
	case mergeable && p.cfg.PreferMergeJoin:
		return strategy{kind: config.JoinMerge, sortInputs: true}
	case cond.HasEquiKeys():
		return strategy{kind: config.JoinHash, buildOuter: p.buildOuter(outer, inner)}
	default:
		return strategy{kind: config.JoinBlockNestedLoop}
	}
}

// buildOuter picks the outer input as the hash build side only when
// HashBuildSmaller is set, both estimates are known and the outer one is
// smaller. Otherwise the inner input is built and the output keeps outer
// order.
func (p *Planner) buildOuter(outer, inner physical) bool {
	return p.cfg.HashBuildSmaller && known(outer.rows, inner.rows) && outer.rows < inner.rows
}

func keysAreColumns(cond *join.Condition) bool {
	for _, keys := range [][]expr.EvalNode{cond.OuterKeys, cond.InnerKeys} {
		for _, k := range keys {
			if _, ok := k.(*expr.FieldEval); !ok {
				return false
			}
		}
	}
	return true
}

// sortedOn reports whether n is a Sort whose leading keys are ascending on
// exactly the given columns, in order.
func sortedOn(n plan.Node, keys []expr.EvalNode) bool {
	s, ok := n.(*plan.SortNode)
	if !ok || len(s.Keys) < len(keys) {
		return false
	}
	schema := s.OutSchema()
	for i, k := range keys {
		f, ok := k.(*expr.FieldEval)
		if !ok || !s.Keys[i].Ascending {
			return false
		}
		want, err := schema.ColumnIndex(f.Name())
		if err != nil {
			return false
		}
		got, err := schema.ColumnIndex(s.Keys[i].Column.Name())
		if err != nil || got != want {
			return false
		}
	}
	return true
}

// sortOn interposes an ascending sort on the join keys.
func (p *Planner) sortOn(keys []expr.EvalNode, child physical) (physical, error) {
	sk, ok := sortKeys(keys, child)
	if !ok {
		return physical{}, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"merge join keys must be plain columns")
	}
	return p.newSort(sk, child)
}
