package aggregation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Fixtures
// ============================================================================

var (
	cat         = catalog.NewMemCatalog()
	scoreSchema = catalog.NewSchemaBuilder("score").
			AddColumn("deptName", types.StringType).
			AddColumn("score", types.IntType).
			MustBuild()

	deptName = expr.Col("score.deptName", types.StringType)
	score    = expr.Col("score.score", types.IntType)
)

func scores(rows ...[]any) *iterator.TupleSlice {
	tuples := make([]*tuple.Tuple, len(rows))
	for i, r := range rows {
		tuples[i] = tuple.MustOf(scoreSchema, r...)
	}
	return iterator.NewTupleSlice(scoreSchema, tuples)
}

func call(t *testing.T, name string, args ...expr.EvalNode) expr.EvalNode {
	t.Helper()
	e, err := expr.Call(cat, name, args...)
	require.NoError(t, err)
	return e
}

func rows(t *testing.T, op iterator.DbIterator) [][]string {
	t.Helper()
	tuples, err := iterator.Drain(op)
	require.NoError(t, err)
	out := make([][]string, len(tuples))
	for i, tup := range tuples {
		out[i] = tup.Values()
	}
	return out
}

// ============================================================================
// Calculators
// ============================================================================

func TestCalculators(t *testing.T) {
	values := []types.Field{types.NewIntField(4), types.Null, types.NewIntField(1), types.NewIntField(7)}

	tests := []struct {
		op   AggregateOp
		want string
	}{
		{Count, "3"},
		{CountStar, "4"},
		{Sum, "12"},
		{Avg, "4"},
		{Min, "1"},
		{Max, "7"},
	}

	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			c := NewCalculator(tt.op)
			for _, v := range values {
				require.NoError(t, c.Update(v))
			}
			assert.Equal(t, tt.want, c.Final().String())
		})
	}
}

func TestCalculatorsOnEmptyInput(t *testing.T) {
	assert.Equal(t, "0", NewCalculator(Count).Final().String())
	assert.Equal(t, "0", NewCalculator(CountStar).Final().String())
	for _, op := range []AggregateOp{Sum, Avg, Min, Max} {
		assert.True(t, types.IsNull(NewCalculator(op).Final()), op.String())
	}
}

func TestParseAggregateOp(t *testing.T) {
	op, err := ParseAggregateOp("COUNT", 0)
	require.NoError(t, err)
	assert.Equal(t, CountStar, op)

	op, err = ParseAggregateOp("count", 1)
	require.NoError(t, err)
	assert.Equal(t, Count, op)

	_, err = ParseAggregateOp("median", 1)
	assert.True(t, dberror.HasCode(err, dberror.CodeFunctionNotFound))
}

// ============================================================================
// HashGroupBy
// ============================================================================

func TestHashGroupBy(t *testing.T) {
	input := [][]any{
		{"eng", 10},
		{"ops", 5},
		{"eng", 30},
		{"hr", nil},
		{"ops", 7},
		{"eng", nil},
	}

	t.Run("grouped aggregates in first-seen order", func(t *testing.T) {
		targets := []expr.Target{
			expr.NewTarget(deptName, ""),
			expr.NewTarget(call(t, "count"), "n"),
			expr.NewTarget(call(t, "count", score), "scored"),
			expr.NewTarget(call(t, "sum", score), "total"),
			expr.NewTarget(call(t, "max", score), "best"),
		}
		g, err := NewHashGroupBy(scores(input...), []*expr.FieldEval{deptName}, targets, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, [][]string{
			{"eng", "3", "2", "40", "30"},
			{"ops", "2", "2", "12", "7"},
			{"hr", "1", "0", "NULL", "NULL"},
		}, rows(t, g))
	})

	t.Run("expression over aggregates", func(t *testing.T) {
		targets := []expr.Target{
			expr.NewTarget(deptName, ""),
			expr.NewTarget(expr.Plus(call(t, "sum", score), call(t, "count")), "mixed"),
		}
		g, err := NewHashGroupBy(scores(input...), []*expr.FieldEval{deptName}, targets, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"eng", "43"}, {"ops", "14"}, {"hr", "NULL"}}, rows(t, g))
	})

	t.Run("having filters groups", func(t *testing.T) {
		targets := []expr.Target{expr.NewTarget(deptName, "")}
		having := expr.Gt(call(t, "sum", score), expr.Int(20))
		g, err := NewHashGroupBy(scores(input...), []*expr.FieldEval{deptName}, targets, having, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"eng"}}, rows(t, g))
	})

	t.Run("no grouping columns", func(t *testing.T) {
		targets := []expr.Target{
			expr.NewTarget(call(t, "count"), "n"),
			expr.NewTarget(call(t, "min", score), "low"),
		}
		g, err := NewHashGroupBy(scores(input...), nil, targets, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"6", "5"}}, rows(t, g))
	})

	t.Run("no grouping columns on empty input", func(t *testing.T) {
		targets := []expr.Target{
			expr.NewTarget(call(t, "count"), "n"),
			expr.NewTarget(call(t, "sum", score), "total"),
		}
		g, err := NewHashGroupBy(scores(), nil, targets, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"0", "NULL"}}, rows(t, g))
	})

	t.Run("grouped empty input", func(t *testing.T) {
		g, err := NewHashGroupBy(scores(), []*expr.FieldEval{deptName},
			[]expr.Target{expr.NewTarget(deptName, "")}, nil, nil)
		require.NoError(t, err)
		assert.Empty(t, rows(t, g))
	})

	t.Run("null keys form one group", func(t *testing.T) {
		g, err := NewHashGroupBy(scores([]any{nil, 1}, []any{nil, 2}, []any{"x", 3}),
			[]*expr.FieldEval{deptName},
			[]expr.Target{expr.NewTarget(deptName, ""), expr.NewTarget(call(t, "sum", score), "total")}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"NULL", "3"}, {"x", "3"}}, rows(t, g))
	})
}

func TestHashGroupByAverage(t *testing.T) {
	g, err := NewHashGroupBy(scores([]any{"a", 1}, []any{"a", 2}), nil,
		[]expr.Target{expr.NewTarget(call(t, "avg", score), "mean")}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1.5"}}, rows(t, g))
}

func TestHashGroupByRejectsUngroupedColumn(t *testing.T) {
	_, err := NewHashGroupBy(scores(), []*expr.FieldEval{deptName},
		[]expr.Target{expr.NewTarget(score, "")}, nil, nil)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeColumnNotFound))
}

func TestHashGroupByRewind(t *testing.T) {
	child := scores([]any{"a", 1}, []any{"b", 2})
	g, err := NewHashGroupBy(child, []*expr.FieldEval{deptName},
		[]expr.Target{expr.NewTarget(deptName, "")}, nil, nil)
	require.NoError(t, err)
	require.NoError(t, g.Open())
	defer g.Close()

	n, err := iterator.Count(g)
	require.NoError(t, err)
	require.NoError(t, g.Rewind())
	again, err := iterator.Count(g)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, n, again)
}
