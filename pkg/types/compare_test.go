package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/primitives"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Field
		want int
	}{
		{"int less", NewIntField(1), NewIntField(2), -1},
		{"int equal", NewIntField(7), NewIntField(7), 0},
		{"int vs float", NewIntField(2), NewFloatField(1.5), 1},
		{"float vs int equal", NewFloatField(3), NewIntField(3), 0},
		{"strings", NewStringField("abc"), NewStringField("abd"), -1},
		{"bools", NewBoolField(true), NewBoolField(false), 1},
		{"null sorts last", Null, NewIntField(1), 1},
		{"value before null", NewStringField("z"), Null, -1},
		{"null equals null", Null, Null, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareTypeMismatch(t *testing.T) {
	_, err := Compare(NewIntField(1), NewStringField("1"))
	require.Error(t, err)
	assert.True(t, dberror.HasCode(err, dberror.CodeTypeMismatch))
}

func TestEvaluateNullIsFalse(t *testing.T) {
	for _, op := range []primitives.Predicate{
		primitives.Equals, primitives.NotEqual, primitives.LessThan,
		primitives.LessThanOrEqual, primitives.GreaterThan, primitives.GreaterThanOrEqual,
	} {
		ok, err := Evaluate(op, Null, NewIntField(1))
		require.NoError(t, err)
		assert.False(t, ok, op.String())
	}
}

func TestFieldCompareMethods(t *testing.T) {
	ok, err := NewIntField(3).Compare(primitives.GreaterThanOrEqual, NewIntField(3))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewStringField("a").Compare(primitives.NotEqual, NewStringField("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHashAgreesWithEquals(t *testing.T) {
	assert.True(t, NewIntField(4).Equals(NewFloatField(4)))
	assert.Equal(t, NewIntField(4).Hash(), NewFloatField(4).Hash())
	assert.NotEqual(t, NewIntField(4).Hash(), NewIntField(5).Hash())
	assert.Equal(t, NewStringField("k").Hash(), NewStringField("k").Hash())

	a := []Field{NewIntField(1), NewStringField("x")}
	b := []Field{NewFloatField(1), NewStringField("x")}
	assert.Equal(t, HashFields(a), HashFields(b))
	assert.True(t, FieldsEqual(a, b))
	assert.False(t, FieldsEqual(a, []Field{NewIntField(1), NewStringField("y")}))

	assert.Equal(t, NewFloatField(0).Hash(), NewFloatField(math.Copysign(0, -1)).Hash())
	assert.NotEqual(t, HashFields(a), HashFields([]Field{NewStringField("x"), NewIntField(1)}))
	assert.Equal(t, HashFields([]Field{nil}), HashFields([]Field{Null}))
}

func TestPredicateFlip(t *testing.T) {
	assert.Equal(t, primitives.GreaterThan, primitives.LessThan.Flip())
	assert.Equal(t, primitives.LessThanOrEqual, primitives.GreaterThanOrEqual.Flip())
	assert.Equal(t, primitives.Equals, primitives.Equals.Flip())
}
