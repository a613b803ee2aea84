package planner

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/execution"
	"sqlcore/pkg/execution/aggregation"
	"sqlcore/pkg/execution/join"
	"sqlcore/pkg/execution/sort"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/optimizer"
	"sqlcore/pkg/plan"
	"sqlcore/pkg/storage/memstore"
	"sqlcore/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Fixtures
// ============================================================================

func employeeSchema() *catalog.Schema {
	return catalog.NewSchemaBuilder("").
		AddColumn("name", types.StringType).
		AddColumn("empId", types.IntType).
		AddColumn("deptName", types.StringType).
		MustBuild()
}

func scoreSchema() *catalog.Schema {
	return catalog.NewSchemaBuilder("").
		AddColumn("deptName", types.StringType).
		AddColumn("score", types.IntType).
		MustBuild()
}

// fixture returns a catalog and a store holding the same two tables.
func fixture(t *testing.T, opts ...memstore.Option) (*catalog.MemCatalog, *memstore.Store) {
	t.Helper()

	cat := catalog.NewMemCatalog()
	require.NoError(t, cat.AddTable("employee", employeeSchema()))
	require.NoError(t, cat.AddTable("score", scoreSchema()))

	store := memstore.New(opts...)
	require.NoError(t, store.CreateTable("employee", employeeSchema()))
	require.NoError(t, store.CreateTable("score", scoreSchema()))
	require.NoError(t, store.AppendValues("employee",
		[]any{"ann", 1, "eng"},
		[]any{"bob", 2, "eng"},
	))
	require.NoError(t, store.AppendValues("employee",
		[]any{"cid", 3, "ops"},
		[]any{"dee", 4, nil},
	))
	require.NoError(t, store.AppendValues("score",
		[]any{"eng", 10},
		[]any{"ops", 20},
		[]any{"hr", 30},
	))
	return cat, store
}

func target(name string, t types.Type) expr.Target {
	return expr.NewTarget(expr.Col(name, t), "")
}

func deptEquals() expr.EvalNode {
	return expr.Eq(expr.Col("e.deptName", types.StringType), expr.Col("s.deptName", types.StringType))
}

// select e.name, s.score from <outer> e, <inner> s where <qual>
func joinQuery(qual expr.EvalNode, outer, inner plan.Node) plan.Node {
	var child plan.Node = plan.NewJoin(plan.CrossJoin, outer, inner)
	if qual != nil {
		child = plan.NewSelection(qual, child)
	}
	return plan.NewRoot(plan.NewProjection([]expr.Target{
		target("e.name", types.StringType),
		target("s.score", types.IntType),
	}, child))
}

func scans() (plan.Node, plan.Node) {
	return plan.NewScan("employee", "e"), plan.NewScan("score", "s")
}

func compile(t *testing.T, cat catalog.Catalog, store *memstore.Store, cfg config.Execution, root plan.Node) iterator.DbIterator {
	t.Helper()
	ctx := context.Background()

	optimized, err := optimizer.Optimize(ctx, cat, root)
	require.NoError(t, err)

	op, err := NewPlanner(cfg, store).CreatePhysicalPlan(ctx, optimized)
	require.NoError(t, err, "plan:\n%s", plan.Explain(optimized))
	return op
}

func run(t *testing.T, op iterator.DbIterator) []string {
	t.Helper()
	res, err := Execute(context.Background(), op)
	require.NoError(t, err)

	rows := make([]string, len(res.Tuples))
	for i, tup := range res.Tuples {
		rows[i] = tup.String()
	}
	slices.Sort(rows)
	return rows
}

// find returns the first operator of type T in op's tree, depth first.
func find[T iterator.DbIterator](op iterator.DbIterator) (T, bool) {
	if found, ok := op.(T); ok {
		return found, true
	}
	switch n := op.(type) {
	case interface{ Child() iterator.DbIterator }:
		return find[T](n.Child())
	case interface {
		Outer() iterator.DbIterator
		Inner() iterator.DbIterator
	}:
		if found, ok := find[T](n.Outer()); ok {
			return found, true
		}
		return find[T](n.Inner())
	}
	var zero T
	return zero, false
}

// ============================================================================
// Join strategy selection
// ============================================================================

func TestJoinStrategySelection(t *testing.T) {
	cat, store := fixture(t)
	equiRows := []string{"ann\t10", "bob\t10", "cid\t20"}

	tests := []struct {
		name  string
		cfg   func(*config.Execution)
		qual  expr.EvalNode
		check func(t *testing.T, op iterator.DbIterator)
		rows  []string
		count int
	}{
		{
			name: "auto equi join hashes",
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.HashJoin](op)
				assert.True(t, ok)
			},
			rows: equiRows,
		},
		{
			name: "auto without condition nests loops",
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.NestedLoopJoin](op)
				assert.True(t, ok)
			},
			count: 12,
		},
		{
			name: "auto non-equi join uses blocks",
			qual: expr.Gt(
				expr.Mul(expr.Col("e.empId", types.IntType), expr.Int(10)),
				expr.Col("s.score", types.IntType),
			),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.BlockNestedLoopJoin](op)
				assert.True(t, ok)
			},
			count: 6,
		},
		{
			name: "prefer merge sorts both inputs",
			cfg:  func(c *config.Execution) { c.PreferMergeJoin = true },
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				smj, ok := find[*join.SortMergeJoin](op)
				require.True(t, ok)
				assert.IsType(t, &sort.InMemorySort{}, smj.Outer())
				assert.IsType(t, &sort.InMemorySort{}, smj.Inner())
			},
			rows: equiRows,
		},
		{
			name: "configured nested loop",
			cfg:  func(c *config.Execution) { c.JoinStrategy = config.JoinNestedLoop },
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.NestedLoopJoin](op)
				assert.True(t, ok)
			},
			rows: equiRows,
		},
		{
			name: "configured block nested loop",
			cfg: func(c *config.Execution) {
				c.JoinStrategy = config.JoinBlockNestedLoop
				c.BlockSize = 1
			},
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.BlockNestedLoopJoin](op)
				assert.True(t, ok)
			},
			rows: equiRows,
		},
		{
			name: "configured merge",
			cfg:  func(c *config.Execution) { c.JoinStrategy = config.JoinMerge },
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.SortMergeJoin](op)
				assert.True(t, ok)
			},
			rows: equiRows,
		},
		{
			name: "configured hash falls back without equi keys",
			cfg:  func(c *config.Execution) { c.JoinStrategy = config.JoinHash },
			qual: expr.Lt(expr.Col("e.empId", types.IntType), expr.Int(2)),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.BlockNestedLoopJoin](op)
				assert.True(t, ok)
				_, ok = find[*join.HashJoin](op)
				assert.False(t, ok)
			},
			count: 3,
		},
		{
			name: "configured merge falls back without equi keys",
			cfg:  func(c *config.Execution) { c.JoinStrategy = config.JoinMerge },
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.BlockNestedLoopJoin](op)
				assert.True(t, ok)
			},
			count: 12,
		},
		{
			name: "grace hash join",
			cfg: func(c *config.Execution) {
				c.JoinStrategy = config.JoinHash
				c.HashBuildMaxRows = 1
				c.HashPartitions = 2
				c.WorkDir = t.TempDir()
			},
			qual: deptEquals(),
			check: func(t *testing.T, op iterator.DbIterator) {
				_, ok := find[*join.HashJoin](op)
				assert.True(t, ok)
			},
			rows: equiRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultExecution()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			outer, inner := scans()
			op := compile(t, cat, store, cfg, joinQuery(tt.qual, outer, inner))
			tt.check(t, op)

			rows := run(t, op)
			if tt.rows != nil {
				assert.Equal(t, tt.rows, rows)
			} else {
				assert.Len(t, rows, tt.count)
			}
		})
	}
}

func TestHashJoinBuildSide(t *testing.T) {
	cat, store := fixture(t)

	// score (3 rows) probes employee (4 rows).
	query := func() plan.Node {
		return joinQuery(deptEquals(), plan.NewScan("score", "s"), plan.NewScan("employee", "e"))
	}

	t.Run("inner by default keeps probe order", func(t *testing.T) {
		op := compile(t, cat, store, config.DefaultExecution(), query())
		hj, ok := find[*join.HashJoin](op)
		require.True(t, ok)
		assert.False(t, hj.BuildsOuter())

		res, err := Execute(context.Background(), op)
		require.NoError(t, err)
		got := make([]string, len(res.Tuples))
		for i, tup := range res.Tuples {
			got[i] = tup.String()
		}
		assert.Equal(t, []string{"ann\t10", "bob\t10", "cid\t20"}, got)
	})

	t.Run("smaller outer is built when allowed", func(t *testing.T) {
		cfg := config.DefaultExecution()
		cfg.HashBuildSmaller = true
		op := compile(t, cat, store, cfg, query())
		hj, ok := find[*join.HashJoin](op)
		require.True(t, ok)
		assert.True(t, hj.BuildsOuter())
		assert.Equal(t, []string{"ann\t10", "bob\t10", "cid\t20"}, run(t, op))
	})
}

func TestPresortedInputsMergeWithoutExtraSorts(t *testing.T) {
	cat, store := fixture(t)

	byDept := func(col string, child plan.Node) plan.Node {
		return plan.NewSort([]plan.SortKey{{Column: expr.Col(col, types.StringType), Ascending: true}}, child)
	}
	outer, inner := scans()
	root := joinQuery(deptEquals(), byDept("e.deptName", outer), byDept("s.deptName", inner))

	op := compile(t, cat, store, config.DefaultExecution(), root)
	smj, ok := find[*join.SortMergeJoin](op)
	require.True(t, ok)

	// The logical sorts are the only ones.
	outerSort, ok := smj.Outer().(*sort.InMemorySort)
	require.True(t, ok)
	_, ok = outerSort.Child().(*execution.SeqScan)
	assert.True(t, ok, "no sort interposed above the logical one")

	assert.Equal(t, []string{"ann\t10", "bob\t10", "cid\t20"}, run(t, op))
}

func TestWithJoinStrategyOverridesConfig(t *testing.T) {
	cat, store := fixture(t)
	ctx := context.Background()

	outer, inner := scans()
	optimized, err := optimizer.Optimize(ctx, cat, joinQuery(deptEquals(), outer, inner))
	require.NoError(t, err)

	op, err := NewPlanner(config.DefaultExecution(), store, WithJoinStrategy(config.JoinNestedLoop)).
		CreatePhysicalPlan(ctx, optimized)
	require.NoError(t, err)

	_, ok := find[*join.NestedLoopJoin](op)
	assert.True(t, ok)
}

// ============================================================================
// Sort selection
// ============================================================================

func TestSortSelection(t *testing.T) {
	sortByEmpID := func() plan.Node {
		return plan.NewRoot(plan.NewSort(
			[]plan.SortKey{{Column: expr.Col("empId", types.IntType), Ascending: false}},
			plan.NewScan("employee", ""),
		))
	}

	tests := []struct {
		name     string
		opts     []memstore.Option
		cfg      func(*config.Execution)
		external bool
	}{
		{name: "small known input sorts in memory"},
		{
			name:     "unknown estimate spills",
			opts:     []memstore.Option{memstore.WithUnknownRowCounts()},
			external: true,
		},
		{
			name:     "estimate at threshold spills",
			cfg:      func(c *config.Execution) { c.SortInMemoryThreshold = 4 },
			external: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, store := fixture(t, tt.opts...)
			cfg := config.DefaultExecution()
			cfg.WorkDir = t.TempDir()
			cfg.SortMemoryRows = 3
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}

			op := compile(t, cat, store, cfg, sortByEmpID())
			if tt.external {
				assert.IsType(t, &sort.ExternalSort{}, op)
			} else {
				assert.IsType(t, &sort.InMemorySort{}, op)
			}

			res, err := Execute(context.Background(), op)
			require.NoError(t, err)
			names := make([]string, len(res.Tuples))
			for i, tup := range res.Tuples {
				names[i] = tup.Field(0).String()
			}
			assert.Equal(t, []string{"dee", "cid", "bob", "ann"}, names)
		})
	}
}

// ============================================================================
// Other operators
// ============================================================================

func TestGroupByPlan(t *testing.T) {
	cat, store := fixture(t)

	count, err := expr.Call(cat, catalog.AggCount)
	require.NoError(t, err)

	root := plan.NewRoot(plan.NewGroupBy(
		[]*expr.FieldEval{expr.Col("deptName", types.StringType)},
		[]expr.Target{target("deptName", types.StringType), expr.NewTarget(count, "cnt")},
		plan.NewScan("employee", ""),
	))

	op := compile(t, cat, store, config.DefaultExecution(), root)
	assert.IsType(t, &aggregation.HashGroupBy{}, op)
	assert.Equal(t, []string{"NULL\t1", "eng\t2", "ops\t1"}, run(t, op))
}

func TestFilterAndProjectPlan(t *testing.T) {
	cat, store := fixture(t)

	root := plan.NewRoot(plan.NewProjection(
		[]expr.Target{expr.NewTarget(expr.Plus(expr.Col("empId", types.IntType), expr.Int(100)), "id")},
		plan.NewSelection(expr.Ge(expr.Col("empId", types.IntType), expr.Int(3)), plan.NewScan("employee", "")),
	))

	op := compile(t, cat, store, config.DefaultExecution(), root)
	assert.Equal(t, []string{"103", "104"}, run(t, op))
	assert.Equal(t, "id", op.Schema().Column(0).Name)
}

func TestStorePlan(t *testing.T) {
	cat, store := fixture(t)

	root := plan.NewStore("senior", plan.NewSelection(
		expr.Gt(expr.Col("empId", types.IntType), expr.Int(2)),
		plan.NewScan("employee", ""),
	))

	op := compile(t, cat, store, config.DefaultExecution(), root)
	assert.Empty(t, run(t, op))

	rows, err := store.Rows("senior")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLiteralPlan(t *testing.T) {
	cat, store := fixture(t)

	root := plan.NewRoot(plan.NewLiteral([]expr.Target{
		expr.NewTarget(expr.Plus(expr.Int(1), expr.Int(2)), "three"),
	}))

	op := compile(t, cat, store, config.DefaultExecution(), root)
	assert.Equal(t, []string{"3"}, run(t, op))
}

// ============================================================================
// Errors
// ============================================================================

func TestCreatePhysicalPlanErrors(t *testing.T) {
	cat, store := fixture(t)
	ctx := context.Background()

	t.Run("unannotated plan", func(t *testing.T) {
		_, err := NewPlanner(config.DefaultExecution(), store).
			CreatePhysicalPlan(ctx, plan.NewRoot(plan.NewScan("employee", "")))
		require.Error(t, err)
		assert.True(t, dberror.HasCode(err, dberror.CodeUnsupported), "got %v", err)
	})

	t.Run("empty plan", func(t *testing.T) {
		_, err := NewPlanner(config.DefaultExecution(), store).CreatePhysicalPlan(ctx, nil)
		assert.True(t, dberror.HasCode(err, dberror.CodeUnsupported), "got %v", err)
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := config.DefaultExecution()
		cfg.BlockSize = 0
		optimized, err := optimizer.Optimize(ctx, cat, plan.NewRoot(plan.NewScan("employee", "")))
		require.NoError(t, err)

		_, err = NewPlanner(cfg, store).CreatePhysicalPlan(ctx, optimized)
		assert.True(t, dberror.HasCode(err, dberror.CodeInvalidConfig), "got %v", err)
	})

	t.Run("table missing from storage", func(t *testing.T) {
		require.NoError(t, cat.AddTable("payroll", scoreSchema()))
		optimized, err := optimizer.Optimize(ctx, cat, plan.NewRoot(plan.NewScan("payroll", "")))
		require.NoError(t, err)

		_, err = NewPlanner(config.DefaultExecution(), store).CreatePhysicalPlan(ctx, optimized)
		assert.True(t, dberror.HasCode(err, dberror.CodeTableNotFound), "got %v", err)
	})

	t.Run("cancelled", func(t *testing.T) {
		optimized, err := optimizer.Optimize(ctx, cat, plan.NewRoot(plan.NewScan("employee", "")))
		require.NoError(t, err)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err = NewPlanner(config.DefaultExecution(), store).CreatePhysicalPlan(cancelled, optimized)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExecuteStopsOnCancellation(t *testing.T) {
	cat, store := fixture(t)
	op := compile(t, cat, store, config.DefaultExecution(), plan.NewRoot(plan.NewScan("employee", "")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Execute(ctx, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), store.OpenSources())
}

// ============================================================================
// Estimates
// ============================================================================

func TestJoinEstimate(t *testing.T) {
	assert.Equal(t, int64(12), joinEstimate(3, 4, true))
	assert.Equal(t, int64(4), joinEstimate(3, 4, false))
	assert.Equal(t, unknown, joinEstimate(unknown, 4, false))
	assert.Equal(t, unknown, joinEstimate(3, unknown, true))
	assert.True(t, known(0, 1))
	assert.False(t, known(1, unknown))
}
