package execution

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/catalog"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// Project evaluates a target list against each child tuple.
type Project struct {
	*iterator.UnaryOperator
	targets []expr.Target
	in      *catalog.Schema
}

// NewProject creates a projection. A nil out schema is derived from the
// targets.
func NewProject(targets []expr.Target, out *catalog.Schema, child iterator.DbIterator) (*Project, error) {
	if len(targets) == 0 {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "projection needs at least one target")
	}
	if child == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "child operator cannot be nil")
	}
	if out == nil {
		var err error
		if out, err = expr.TargetSchema(targets); err != nil {
			return nil, err
		}
	}

	p := &Project{targets: targets, in: child.Schema()}
	op, err := iterator.NewUnaryOperator(child, out, p.readNext)
	if err != nil {
		return nil, err
	}
	p.UnaryOperator = op
	return p, nil
}

func (p *Project) readNext() (*tuple.Tuple, error) {
	t, err := p.FetchNext()
	if err != nil || t == nil {
		return nil, err
	}

	out, err := EvalTargets(p.targets, p.in, t, p.Schema())
	if err != nil {
		return nil, err
	}
	metrics.TuplesEmitted.WithLabelValues("Project").Inc()
	return out, nil
}

// EvalTargets evaluates targets against t, laid out as in, into a tuple of
// schema out.
func EvalTargets(targets []expr.Target, in *catalog.Schema, t *tuple.Tuple, out *catalog.Schema) (*tuple.Tuple, error) {
	fields := make([]types.Field, len(targets))
	for i, target := range targets {
		v, err := target.Expr.Eval(in, t)
		if err != nil {
			return nil, err
		}
		fields[i] = v
	}
	return tuple.FromFields(out, fields)
}
