package tuple

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

func testSchema(table string) *catalog.Schema {
	return catalog.NewSchemaBuilder(table).
		AddColumn("id", types.IntType).
		AddColumn("name", types.StringType).
		MustBuild()
}

func TestBuilder(t *testing.T) {
	s := testSchema("t")
	tup, err := NewBuilder(s).AddInt(1).AddString("alice").Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "alice"}, tup.Values())

	_, err = NewBuilder(s).AddString("x").AddString("y").Build()
	assert.Error(t, err, "type mismatch must be rejected")

	_, err = NewBuilder(s).AddInt(1).Build()
	assert.Error(t, err)

	tup, err = NewBuilder(s).AddNull().AddString("bob").Build()
	require.NoError(t, err)
	assert.True(t, types.IsNull(tup.Field(0)))
}

func TestCombine(t *testing.T) {
	left, right := testSchema("l"), testSchema("r")
	merged, err := catalog.Merge(left, right)
	require.NoError(t, err)

	out, err := Combine(merged, MustOf(left, 1, "a"), MustOf(right, 2, "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "a", "2", "b"}, out.Values())
	assert.Same(t, merged, out.Schema)

	_, err = Combine(left, MustOf(left, 1, "a"), MustOf(right, 2, "b"))
	assert.Error(t, err)
}

func TestProjectAndClone(t *testing.T) {
	s := testSchema("t")
	tup := MustOf(s, 7, "x")

	names := s.Select(func(c catalog.Column) bool { return c.Name == "name" })
	p := tup.Project(names, []int{1})
	assert.Equal(t, []string{"x"}, p.Values())

	c := tup.Clone()
	require.NoError(t, c.SetField(0, types.NewIntField(8)))
	assert.Equal(t, "7", tup.Field(0).String())
	assert.False(t, c.Equals(tup))
}

func TestEncodeDecode(t *testing.T) {
	s := testSchema("t")
	rows := []*Tuple{MustOf(s, 1, "one"), MustOf(s, nil, ""), MustOf(s, -5, "minus five")}

	var buf bytes.Buffer
	for _, r := range rows {
		require.NoError(t, Encode(&buf, r))
	}

	br := bufio.NewReader(&buf)
	for _, want := range rows {
		got, err := Decode(br, s)
		require.NoError(t, err)
		assert.True(t, want.Equals(got), "want %s got %s", want, got)
	}

	_, err := Decode(br, s)
	assert.ErrorIs(t, err, io.EOF)
}
