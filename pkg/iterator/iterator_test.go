package iterator

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// ============================================================================
// Mocks
// ============================================================================

var idSchema = catalog.NewSchemaBuilder("t").AddColumn("id", types.IntType).MustBuild()

func ids(values ...int) []*tuple.Tuple {
	out := make([]*tuple.Tuple, len(values))
	for i, v := range values {
		out[i] = tuple.MustOf(idSchema, v)
	}
	return out
}

// failingIterator fails to open and counts Close calls.
type failingIterator struct {
	TupleSlice
}

func (f *failingIterator) Open() error { return errors.New("disk on fire") }

// ============================================================================
// BaseIterator
// ============================================================================

func TestBaseIteratorLookahead(t *testing.T) {
	calls := 0
	src := ids(1, 2)
	it := NewBaseIterator(func() (*tuple.Tuple, error) {
		calls++
		if calls > len(src) {
			return nil, nil
		}
		return src[calls-1], nil
	})

	_, err := it.HasNext()
	assert.True(t, dberror.HasCode(err, dberror.CodeIteratorNotOpened))

	it.MarkOpened()
	for i := 0; i < 3; i++ {
		ok, err := it.HasNext()
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.Equal(t, 1, calls, "HasNext must read at most once")

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", first.Field(0).String())

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, "2", second.Field(0).String())

	end, err := it.Next()
	require.NoError(t, err)
	assert.Nil(t, end)

	ok, err := it.HasNext()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls, "end of stream is remembered")
}

// ============================================================================
// Operators
// ============================================================================

func TestUnaryOperatorForwardsSchemaAndTuples(t *testing.T) {
	child := NewTupleSlice(idSchema, ids(1, 2, 3))
	var u *UnaryOperator
	u, err := NewUnaryOperator(child, nil, func() (*tuple.Tuple, error) { return u.FetchNext() })
	require.NoError(t, err)

	assert.Same(t, idSchema, u.Schema())

	got, err := Drain(u)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, child.Closes)

	require.NoError(t, u.Close(), "close is idempotent")
}

func TestUnaryOperatorRewind(t *testing.T) {
	child := NewTupleSlice(idSchema, ids(1, 2))
	var u *UnaryOperator
	u, err := NewUnaryOperator(child, nil, func() (*tuple.Tuple, error) { return u.FetchNext() })
	require.NoError(t, err)
	require.NoError(t, u.Open())
	require.NoError(t, u.Open())
	assert.Equal(t, 1, child.Opens)

	n, err := Count(u)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, u.Rewind())
	n, err = Count(u)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestOpenFailureClosesChildren(t *testing.T) {
	t.Run("unary", func(t *testing.T) {
		child := &failingIterator{TupleSlice: *NewTupleSlice(idSchema, nil)}
		u, err := NewUnaryOperator(child, nil, func() (*tuple.Tuple, error) { return nil, nil })
		require.NoError(t, err)

		err = u.Open()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
		assert.Equal(t, 1, child.Closes)
	})

	t.Run("binary", func(t *testing.T) {
		outer := NewTupleSlice(idSchema, ids(1))
		inner := &failingIterator{TupleSlice: *NewTupleSlice(idSchema, nil)}
		b, err := NewBinaryOperator(outer, inner, idSchema, func() (*tuple.Tuple, error) { return nil, nil })
		require.NoError(t, err)

		require.Error(t, b.Open())
		assert.Equal(t, 1, outer.Closes)
		assert.Equal(t, 1, inner.Closes)
		assert.False(t, outer.IsOpened())
	})
}

func TestNilChildrenRejected(t *testing.T) {
	_, err := NewUnaryOperator(nil, nil, nil)
	assert.Error(t, err)

	_, err = NewBinaryOperator(NewTupleSlice(idSchema, nil), nil, idSchema, nil)
	assert.Error(t, err)
}

// ============================================================================
// Helpers
// ============================================================================

func TestTakeAndCollect(t *testing.T) {
	src := NewTupleSlice(idSchema, ids(1, 2, 3, 4))
	require.NoError(t, src.Open())

	first, err := Take(src, 3)
	require.NoError(t, err)
	assert.Len(t, first, 3)

	rest, err := Collect(src)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "4", rest[0].Field(0).String())

	none, err := Take(src, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSliceIterator(t *testing.T) {
	it := NewSliceIterator([]string{"a", "b"})
	assert.Equal(t, 2, it.Remaining())

	v, err := it.Peek()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	_, _ = it.Next()
	_, _ = it.Next()
	assert.False(t, it.HasNext())
	_, err = it.Next()
	assert.Error(t, err)

	it.Rewind()
	assert.Equal(t, 2, it.Remaining())
}
