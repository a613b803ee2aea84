package types

import (
	"fmt"
	"math"

	dberror "sqlcore/pkg/error"
)

// ArithOp is an arithmetic operator on numeric fields.
type ArithOp int

const (
	Plus ArithOp = iota
	Minus
	Multiply
	Divide
	Modulo
)

func (op ArithOp) String() string {
	switch op {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Modulo:
		return "%"
	default:
		return "?"
	}
}

// Arith computes a op b. Integers stay integers (division truncates) unless
// either operand is a float. A NULL operand yields NULL.
func Arith(op ArithOp, a, b Field) (Field, error) {
	if IsNull(a) || IsNull(b) {
		return Null, nil
	}
	if !a.Type().IsNumeric() || !b.Type().IsNumeric() {
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTypeMismatch,
			"operator %s is not defined on %s and %s", op, a.Type(), b.Type())
	}

	ai, aInt := a.(*IntField)
	bi, bInt := b.(*IntField)
	if aInt && bInt {
		return intArith(op, ai.Value, bi.Value)
	}
	return floatArith(op, toFloat(a), toFloat(b))
}

func intArith(op ArithOp, a, b int64) (Field, error) {
	switch op {
	case Plus:
		return NewIntField(a + b), nil
	case Minus:
		return NewIntField(a - b), nil
	case Multiply:
		return NewIntField(a * b), nil
	case Divide:
		if b == 0 {
			return nil, divisionByZero()
		}
		return NewIntField(a / b), nil
	case Modulo:
		if b == 0 {
			return nil, divisionByZero()
		}
		return NewIntField(a % b), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %d", op)
	}
}

func floatArith(op ArithOp, a, b float64) (Field, error) {
	switch op {
	case Plus:
		return NewFloatField(a + b), nil
	case Minus:
		return NewFloatField(a - b), nil
	case Multiply:
		return NewFloatField(a * b), nil
	case Divide:
		if b == 0 {
			return nil, divisionByZero()
		}
		return NewFloatField(a / b), nil
	case Modulo:
		if b == 0 {
			return nil, divisionByZero()
		}
		return NewFloatField(math.Mod(a, b)), nil
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %d", op)
	}
}

// Negative reports whether f is a numeric value below zero.
func Negative(f Field) bool {
	switch v := f.(type) {
	case *IntField:
		return v.Value < 0
	case *FloatField:
		return v.Value < 0
	default:
		return false
	}
}

func toFloat(f Field) float64 {
	switch v := f.(type) {
	case *IntField:
		return float64(v.Value)
	case *FloatField:
		return v.Value
	default:
		return math.NaN()
	}
}

// ToFloat converts a numeric field to float64; ok is false otherwise.
func ToFloat(f Field) (float64, bool) {
	if f == nil || !f.Type().IsNumeric() {
		return 0, false
	}
	return toFloat(f), true
}

func divisionByZero() error {
	return dberror.New(dberror.ErrCategoryExecution, dberror.CodeDivisionByZero, "division by zero")
}
