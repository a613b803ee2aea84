package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dberror "sqlcore/pkg/error"
)

func TestArith(t *testing.T) {
	tests := []struct {
		name string
		op   ArithOp
		a, b Field
		want Field
	}{
		{"int plus", Plus, NewIntField(2), NewIntField(3), NewIntField(5)},
		{"int minus", Minus, NewIntField(2), NewIntField(3), NewIntField(-1)},
		{"int divide truncates", Divide, NewIntField(7), NewIntField(2), NewIntField(3)},
		{"int modulo", Modulo, NewIntField(7), NewIntField(4), NewIntField(3)},
		{"promotes to float", Multiply, NewIntField(2), NewFloatField(1.5), NewFloatField(3)},
		{"float divide", Divide, NewFloatField(1), NewFloatField(4), NewFloatField(0.25)},
		{"null propagates", Plus, Null, NewIntField(1), Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Arith(tt.op, tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArithErrors(t *testing.T) {
	_, err := Arith(Divide, NewIntField(1), NewIntField(0))
	assert.True(t, dberror.HasCode(err, dberror.CodeDivisionByZero))

	_, err = Arith(Plus, NewStringField("a"), NewIntField(1))
	assert.True(t, dberror.HasCode(err, dberror.CodeTypeMismatch))
}

func TestPromote(t *testing.T) {
	assert.Equal(t, IntType, Promote(IntType, IntType))
	assert.Equal(t, FloatType, Promote(IntType, FloatType))
	assert.Equal(t, IntType, Promote(NullType, IntType))
	assert.True(t, IntType.Comparable(FloatType))
	assert.False(t, StringType.Comparable(IntType))
}
