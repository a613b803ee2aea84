package join

import (
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
)

// NestedLoopJoin compares every outer tuple with every inner tuple,
// rewinding the inner input once per outer tuple.
type NestedLoopJoin struct {
	*iterator.BinaryOperator
	cond  *Condition
	out   *output
	outer *tuple.Tuple
}

func NewNestedLoopJoin(outer, inner iterator.DbIterator, cond *Condition, opts Options) (*NestedLoopJoin, error) {
	out, err := newOutput(cond, opts.Targets)
	if err != nil {
		return nil, err
	}

	j := &NestedLoopJoin{cond: cond, out: out}
	op, err := iterator.NewBinaryOperator(outer, inner, out.schema, j.readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = op
	return j, nil
}

func (j *NestedLoopJoin) readNext() (*tuple.Tuple, error) {
	for {
		if j.outer == nil {
			t, err := j.FetchOuter()
			if err != nil || t == nil {
				return nil, err
			}
			j.outer = t
			if err := j.Inner().Rewind(); err != nil {
				return nil, err
			}
		}

		inner, err := j.FetchInner()
		if err != nil {
			return nil, err
		}
		if inner == nil {
			j.outer = nil
			continue
		}

		merged, err := j.out.combine(j.outer, inner)
		if err != nil {
			return nil, err
		}
		ok, err := j.cond.Matches(merged)
		if err != nil {
			return nil, err
		}
		if ok {
			metrics.TuplesEmitted.WithLabelValues("NestedLoopJoin").Inc()
			return j.out.project(merged)
		}
	}
}

func (j *NestedLoopJoin) Rewind() error {
	j.outer = nil
	return j.BinaryOperator.Rewind()
}

func (j *NestedLoopJoin) Close() error {
	j.outer = nil
	return j.BinaryOperator.Close()
}
