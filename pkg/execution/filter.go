package execution

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
)

// Filter passes on the child tuples for which the predicate is true. NULL
// and false both reject.
type Filter struct {
	*iterator.UnaryOperator
	predicate expr.EvalNode
}

func NewFilter(predicate expr.EvalNode, child iterator.DbIterator) (*Filter, error) {
	if predicate == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "predicate cannot be nil")
	}

	f := &Filter{predicate: predicate}
	op, err := iterator.NewUnaryOperator(child, nil, f.readNext)
	if err != nil {
		return nil, err
	}
	f.UnaryOperator = op
	return f, nil
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		t, err := f.FetchNext()
		if err != nil || t == nil {
			return nil, err
		}

		passes, err := expr.EvalBool(f.predicate, f.Schema(), t)
		if err != nil {
			return nil, err
		}
		if passes {
			metrics.TuplesEmitted.WithLabelValues("Filter").Inc()
			return t, nil
		}
	}
}
