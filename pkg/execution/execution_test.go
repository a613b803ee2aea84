package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/storage/memstore"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ============================================================================
// Fixtures
// ============================================================================

func employeeSchema() *catalog.Schema {
	return catalog.NewSchemaBuilder("employee").
		AddColumn("name", types.StringType).
		AddColumn("empId", types.IntType).
		AddColumn("deptName", types.StringType).
		MustBuild()
}

func employeeStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.CreateTable("employee", employeeSchema()))
	require.NoError(t, s.AppendValues("employee",
		[]any{"ann", 1, "sales"},
		[]any{"bob", 2, "eng"},
	))
	require.NoError(t, s.AppendValues("employee",
		[]any{"cid", 3, "eng"},
		[]any{"dee", 100, nil},
	))
	return s
}

func employees(t *testing.T) *iterator.TupleSlice {
	t.Helper()
	schema := employeeSchema()
	return iterator.NewTupleSlice(schema, []*tuple.Tuple{
		tuple.MustOf(schema, "ann", 1, "sales"),
		tuple.MustOf(schema, "bob", 2, "eng"),
		tuple.MustOf(schema, "cid", 3, "eng"),
	})
}

func values(t *testing.T, op iterator.DbIterator) [][]string {
	t.Helper()
	rows, err := iterator.Drain(op)
	require.NoError(t, err)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

// ============================================================================
// SeqScan
// ============================================================================

func TestSeqScan(t *testing.T) {
	in := employeeSchema()
	nameAndID := in.Select(func(c catalog.Column) bool { return c.Name != "deptName" })

	tests := []struct {
		name string
		out  *catalog.Schema
		qual expr.EvalNode
		want [][]string
	}{
		{
			name: "all rows across fragments",
			want: [][]string{
				{"ann", "1", "sales"},
				{"bob", "2", "eng"},
				{"cid", "3", "eng"},
				{"dee", "100", "NULL"},
			},
		},
		{
			name: "qualifier then projection",
			out:  nameAndID,
			qual: expr.Eq(expr.Col("empId", types.IntType), expr.Int(100)),
			want: [][]string{{"dee", "100"}},
		},
		{
			name: "null comparison rejects",
			qual: expr.Eq(expr.Col("deptName", types.StringType), expr.Str("eng")),
			want: [][]string{
				{"bob", "2", "eng"},
				{"cid", "3", "eng"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := employeeStore(t)
			frags, err := store.Fragments("employee")
			require.NoError(t, err)

			scan, err := NewSeqScan(store, frags, in, tt.out, tt.qual)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(t, scan))
			assert.Equal(t, int64(0), store.OpenSources())
		})
	}
}

func TestSeqScanRewindAndClose(t *testing.T) {
	store := employeeStore(t)
	frags, err := store.Fragments("employee")
	require.NoError(t, err)

	scan, err := NewSeqScan(store, frags, employeeSchema(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, scan.Open())

	first, err := scan.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.OpenSources())

	require.NoError(t, scan.Rewind())
	assert.Equal(t, int64(0), store.OpenSources())

	again, err := scan.Next()
	require.NoError(t, err)
	assert.True(t, first.Equals(again))

	require.NoError(t, scan.Close())
	require.NoError(t, scan.Close())
	assert.Equal(t, int64(0), store.OpenSources())
}

func TestSeqScanUnknownOutputColumn(t *testing.T) {
	store := employeeStore(t)
	out := catalog.NewSchemaBuilder("employee").AddColumn("salary", types.IntType).MustBuild()

	_, err := NewSeqScan(store, nil, employeeSchema(), out, nil)
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeColumnNotFound))
}

// ============================================================================
// Filter / Project
// ============================================================================

func TestFilter(t *testing.T) {
	t.Run("keeps matching tuples", func(t *testing.T) {
		f, err := NewFilter(expr.Gt(expr.Col("empId", types.IntType), expr.Int(1)), employees(t))
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"bob", "2", "eng"}, {"cid", "3", "eng"}}, values(t, f))
	})

	t.Run("nil predicate", func(t *testing.T) {
		_, err := NewFilter(nil, employees(t))
		assert.Error(t, err)
	})

	t.Run("nil child", func(t *testing.T) {
		_, err := NewFilter(expr.Bool(true), nil)
		assert.Error(t, err)
	})

	t.Run("next before open", func(t *testing.T) {
		f, err := NewFilter(expr.Bool(true), employees(t))
		require.NoError(t, err)
		_, err = f.Next()
		assert.True(t, dberror.HasCode(err, dberror.CodeIteratorNotOpened))
	})
}

func TestProject(t *testing.T) {
	targets := []expr.Target{
		expr.NewTarget(expr.Col("name", types.StringType), ""),
		expr.NewTarget(expr.Mul(expr.Col("empId", types.IntType), expr.Int(10)), "scaled"),
	}

	p, err := NewProject(targets, nil, employees(t))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Schema().NumColumns())
	assert.Equal(t, [][]string{{"ann", "10"}, {"bob", "20"}, {"cid", "30"}}, values(t, p))

	_, err = NewProject(nil, nil, employees(t))
	assert.Error(t, err)
}

// ============================================================================
// Literal / Store
// ============================================================================

func TestLiteral(t *testing.T) {
	l, err := NewLiteral([]expr.Target{
		expr.NewTarget(expr.Plus(expr.Int(1), expr.Int(2)), "three"),
		expr.NewTarget(expr.Str("x"), "x"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"3", "x"}}, values(t, l))

	require.NoError(t, l.Open())
	require.NoError(t, l.Rewind())
	rows, err := iterator.Collect(l)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	require.NoError(t, l.Close())
}

func TestStore(t *testing.T) {
	store := memstore.New()
	s, err := NewStore("copy", store, employees(t))
	require.NoError(t, err)

	rows, err := iterator.Drain(s)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(3), s.Rows())

	stored, err := store.Rows("copy")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "cid", stored[2][0].String())
}
