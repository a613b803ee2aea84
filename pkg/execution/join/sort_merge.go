package join

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// cursor is the current position in one sorted input.
type cursor struct {
	t   *tuple.Tuple
	key []types.Field
}

// SortMergeJoin merges two inputs that arrive sorted ascending on the
// equality keys. Rows sharing a key on both sides form a run on each side;
// the cross product of the outer run and the inner run is emitted before
// either cursor moves past the key.
type SortMergeJoin struct {
	*iterator.BinaryOperator
	cond *Condition
	out  *output

	outer, inner *cursor
	matches      matchBuffer
}

func NewSortMergeJoin(outer, inner iterator.DbIterator, cond *Condition, opts Options) (*SortMergeJoin, error) {
	if !cond.HasEquiKeys() {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"merge join needs at least one equality key")
	}
	out, err := newOutput(cond, opts.Targets)
	if err != nil {
		return nil, err
	}

	j := &SortMergeJoin{cond: cond, out: out}
	op, err := iterator.NewBinaryOperator(outer, inner, out.schema, j.readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = op
	return j, nil
}

// advance returns the next row of it with a non-NULL key.
func advance(it iterator.DbIterator, key func(*tuple.Tuple) ([]types.Field, bool, error)) (*cursor, error) {
	for {
		t, err := fetch(it)
		if err != nil || t == nil {
			return nil, err
		}
		k, ok, err := key(t)
		if err != nil {
			return nil, err
		}
		if ok {
			return &cursor{t: t, key: k}, nil
		}
	}
}

// run collects first and every following row of it with the same key. The
// first row with a different key is returned as the new cursor.
func run(first *cursor, it iterator.DbIterator, key func(*tuple.Tuple) ([]types.Field, bool, error)) ([]*tuple.Tuple, *cursor, error) {
	rows := []*tuple.Tuple{first.t}
	for {
		next, err := advance(it, key)
		if err != nil || next == nil {
			return rows, nil, err
		}
		c, err := compareKeys(first.key, next.key)
		if err != nil {
			return nil, nil, err
		}
		if c != 0 {
			return rows, next, nil
		}
		rows = append(rows, next.t)
	}
}

func (j *SortMergeJoin) readNext() (*tuple.Tuple, error) {
	var err error
	for {
		if t := j.matches.next(); t != nil {
			metrics.TuplesEmitted.WithLabelValues("SortMergeJoin").Inc()
			return t, nil
		}

		if j.outer == nil {
			if j.outer, err = advance(j.Outer(), j.cond.OuterKey); err != nil || j.outer == nil {
				return nil, err
			}
		}
		if j.inner == nil {
			if j.inner, err = advance(j.Inner(), j.cond.InnerKey); err != nil || j.inner == nil {
				return nil, err
			}
		}

		c, err := compareKeys(j.outer.key, j.inner.key)
		if err != nil {
			return nil, err
		}
		switch {
		case c < 0:
			j.outer = nil
		case c > 0:
			j.inner = nil
		default:
			if err := j.mergeRuns(); err != nil {
				return nil, err
			}
		}
	}
}

// mergeRuns buffers the cross product of the current outer and inner runs.
func (j *SortMergeJoin) mergeRuns() error {
	outerRun, nextOuter, err := run(j.outer, j.Outer(), j.cond.OuterKey)
	if err != nil {
		return err
	}
	innerRun, nextInner, err := run(j.inner, j.Inner(), j.cond.InnerKey)
	if err != nil {
		return err
	}
	j.outer, j.inner = nextOuter, nextInner

	// Once a side is exhausted no later key can match; a nil cursor is
	// refetched and comes back nil, which ends the join.
	j.matches.startNew()
	for _, o := range outerRun {
		for _, i := range innerRun {
			merged, err := j.out.combine(o, i)
			if err != nil {
				return err
			}
			ok, err := j.cond.ResidualHolds(merged)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			row, err := j.out.project(merged)
			if err != nil {
				return err
			}
			j.matches.add(row)
		}
	}
	return nil
}

func (j *SortMergeJoin) Rewind() error {
	j.outer, j.inner = nil, nil
	j.matches.reset()
	return j.BinaryOperator.Rewind()
}

func (j *SortMergeJoin) Close() error {
	j.outer, j.inner = nil, nil
	j.matches.reset()
	return j.BinaryOperator.Close()
}
