package planner

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
)

// QueryResult is a fully materialized query output.
type QueryResult struct {
	Schema   *catalog.Schema
	Tuples   []*tuple.Tuple
	Duration time.Duration
}

// Execute opens op, collects every row and closes it. The context is checked
// between rows. The query is recorded in the query metrics either way.
func Execute(ctx context.Context, op iterator.DbIterator) (_ *QueryResult, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordQuery(time.Since(start), err)
	}()

	if err := op.Open(); err != nil {
		return nil, errors.CombineErrors(err, op.Close())
	}
	defer func() {
		err = errors.CombineErrors(err, op.Close())
	}()

	result := &QueryResult{Schema: op.Schema()}
	err = iterator.ForEach(op, func(t *tuple.Tuple) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Tuples = append(result.Tuples, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}
