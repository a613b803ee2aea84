package aggregation

import (
	"fmt"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/primitives"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// aggregate is one distinct aggregate call of the target list or the having
// qualifier.
type aggregate struct {
	op  AggregateOp
	arg expr.EvalNode // nil for COUNT(*)
}

// group holds the key and the running aggregates of one group.
type group struct {
	key   []types.Field
	calcs []Calculator
}

// HashGroupBy groups its input on a list of columns and evaluates the target
// list once per group.
//
// Every aggregate call found in the targets or the having qualifier is
// computed once per group. A group row is laid out as the grouping columns
// followed by one column per aggregate; targets and having are rewritten to
// read aggregates from that row.
type HashGroupBy struct {
	*iterator.UnaryOperator

	in       *catalog.Schema
	grouping []int
	aggs     []aggregate

	groupRow *catalog.Schema
	targets  []expr.Target
	having   expr.EvalNode

	groups  map[primitives.HashCode][]*group
	order   []*group
	results *iterator.SliceIterator[*tuple.Tuple]
	built   bool
}

// NewHashGroupBy creates the operator. grouping lists the grouping columns
// of the child; out is the schema of the evaluated targets.
func NewHashGroupBy(child iterator.DbIterator, grouping []*expr.FieldEval, targets []expr.Target, having expr.EvalNode, out *catalog.Schema) (*HashGroupBy, error) {
	if child == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "child operator cannot be nil")
	}
	if len(targets) == 0 {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "group by needs at least one target")
	}

	g := &HashGroupBy{in: child.Schema()}
	if err := g.resolve(grouping, targets, having); err != nil {
		return nil, err
	}
	if out == nil {
		var err error
		if out, err = expr.TargetSchema(targets); err != nil {
			return nil, err
		}
	}

	op, err := iterator.NewUnaryOperator(child, out, g.readNext)
	if err != nil {
		return nil, err
	}
	g.UnaryOperator = op
	return g, nil
}

// resolve builds the group row layout and rewrites targets and having onto
// it.
func (g *HashGroupBy) resolve(grouping []*expr.FieldEval, targets []expr.Target, having expr.EvalNode) error {
	cols := make([]catalog.Column, 0, len(grouping))
	for _, f := range grouping {
		idx, err := g.in.ColumnIndex(f.Name())
		if err != nil {
			return err
		}
		g.grouping = append(g.grouping, idx)
		cols = append(cols, g.in.Column(idx))
	}

	var refs []*expr.AggFuncCallEval
	index := func(a *expr.AggFuncCallEval) int {
		for i, r := range refs {
			if expr.Equal(r, a) {
				return i
			}
		}
		return -1
	}

	collect := func(e expr.EvalNode) error {
		for _, a := range expr.FindAggregates(e) {
			if index(a) >= 0 {
				continue
			}
			op, err := ParseAggregateOp(a.Func.Name, len(a.Args))
			if err != nil {
				return err
			}
			agg := aggregate{op: op}
			if len(a.Args) > 0 {
				agg.arg = a.Args[0]
			}
			refs = append(refs, a)
			g.aggs = append(g.aggs, agg)
			cols = append(cols, catalog.NewColumn("", fmt.Sprintf("agg#%d", len(refs)-1), a.ResultType()))
		}
		return nil
	}

	for _, t := range targets {
		if err := collect(t.Expr); err != nil {
			return err
		}
	}
	if having != nil {
		if err := collect(having); err != nil {
			return err
		}
	}

	schema, err := catalog.NewSchema(cols...)
	if err != nil {
		return err
	}
	g.groupRow = schema

	rewrite := func(e expr.EvalNode) (expr.EvalNode, error) {
		out := expr.Replace(e, func(n expr.EvalNode) expr.EvalNode {
			if a, ok := n.(*expr.AggFuncCallEval); ok {
				return expr.NewField(schema.Column(len(g.grouping) + index(a)))
			}
			return nil
		})
		for _, f := range expr.Columns(out) {
			if !schema.Contains(f.Name()) {
				return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeColumnNotFound,
					"column %q must appear in the GROUP BY clause or be used in an aggregate", f.Name())
			}
		}
		return out, nil
	}

	g.targets = make([]expr.Target, len(targets))
	for i, t := range targets {
		e, err := rewrite(t.Expr)
		if err != nil {
			return err
		}
		g.targets[i] = expr.NewTarget(e, t.Alias)
	}
	if having != nil {
		if g.having, err = rewrite(having); err != nil {
			return err
		}
	}
	return nil
}

func (g *HashGroupBy) build() error {
	g.groups = make(map[primitives.HashCode][]*group)
	g.order = nil

	err := iterator.ForEach(g.Child(), func(t *tuple.Tuple) error {
		return g.add(t)
	})
	if err != nil {
		return err
	}

	if len(g.grouping) == 0 && len(g.order) == 0 {
		g.order = append(g.order, g.newGroup(nil))
	}

	results := make([]*tuple.Tuple, 0, len(g.order))
	for _, grp := range g.order {
		t, ok, err := g.emit(grp)
		if err != nil {
			return err
		}
		if ok {
			results = append(results, t)
		}
	}

	logging.WithOperator("HashGroupBy").Debug("groups built",
		"groups", len(g.order),
		"emitted", len(results))

	g.results = iterator.NewSliceIterator(results)
	g.groups = nil
	g.order = nil
	g.built = true
	return nil
}

func (g *HashGroupBy) newGroup(key []types.Field) *group {
	grp := &group{key: key, calcs: make([]Calculator, len(g.aggs))}
	for i, a := range g.aggs {
		grp.calcs[i] = NewCalculator(a.op)
	}
	return grp
}

func (g *HashGroupBy) add(t *tuple.Tuple) error {
	key := make([]types.Field, len(g.grouping))
	for i, idx := range g.grouping {
		key[i] = t.Field(idx)
	}

	h := types.HashFields(key)
	var grp *group
	for _, candidate := range g.groups[h] {
		if types.FieldsEqual(candidate.key, key) {
			grp = candidate
			break
		}
	}
	if grp == nil {
		grp = g.newGroup(key)
		g.groups[h] = append(g.groups[h], grp)
		g.order = append(g.order, grp)
	}

	for i, a := range g.aggs {
		var v types.Field
		if a.arg != nil {
			var err error
			if v, err = a.arg.Eval(g.in, t); err != nil {
				return err
			}
		}
		if err := grp.calcs[i].Update(v); err != nil {
			return err
		}
	}
	return nil
}

// emit evaluates the having qualifier and the targets for one group. ok is
// false when having rejects the group.
func (g *HashGroupBy) emit(grp *group) (*tuple.Tuple, bool, error) {
	fields := make([]types.Field, 0, g.groupRow.NumColumns())
	fields = append(fields, grp.key...)
	for _, c := range grp.calcs {
		fields = append(fields, c.Final())
	}
	row, err := tuple.FromFields(g.groupRow, fields)
	if err != nil {
		return nil, false, err
	}

	if g.having != nil {
		ok, err := expr.EvalBool(g.having, g.groupRow, row)
		if err != nil || !ok {
			return nil, false, err
		}
	}

	out := make([]types.Field, len(g.targets))
	for i, target := range g.targets {
		if out[i], err = target.Expr.Eval(g.groupRow, row); err != nil {
			return nil, false, err
		}
	}
	t, err := tuple.FromFields(g.Schema(), out)
	return t, err == nil, err
}

func (g *HashGroupBy) readNext() (*tuple.Tuple, error) {
	if !g.built {
		if err := g.build(); err != nil {
			return nil, err
		}
	}
	if !g.results.HasNext() {
		return nil, nil
	}
	metrics.TuplesEmitted.WithLabelValues("HashGroupBy").Inc()
	return g.results.Next()
}

// Rewind replays the computed groups.
func (g *HashGroupBy) Rewind() error {
	if g.results != nil {
		g.results.Rewind()
	}
	return g.UnaryOperator.Rewind()
}

func (g *HashGroupBy) Close() error {
	g.results = nil
	g.groups = nil
	g.order = nil
	g.built = false
	return g.UnaryOperator.Close()
}
