package aggregation

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/types"
)

// Calculator accumulates one aggregate for one group.
type Calculator interface {
	// Update folds one argument value into the aggregate. COUNT(*) is
	// called with nil.
	Update(v types.Field) error

	// Final returns the aggregate over every value seen so far.
	Final() types.Field
}

// NewCalculator returns a fresh calculator for op.
func NewCalculator(op AggregateOp) Calculator {
	switch op {
	case Count, CountStar:
		return &countCalculator{star: op == CountStar}
	case Sum:
		return &sumCalculator{}
	case Avg:
		return &avgCalculator{}
	case Min:
		return &extremeCalculator{keep: func(c int) bool { return c < 0 }}
	default:
		return &extremeCalculator{keep: func(c int) bool { return c > 0 }}
	}
}

type countCalculator struct {
	star  bool
	count int64
}

func (c *countCalculator) Update(v types.Field) error {
	if c.star || !types.IsNull(v) {
		c.count++
	}
	return nil
}

func (c *countCalculator) Final() types.Field { return types.NewIntField(c.count) }

// sumCalculator keeps the running sum; an all-NULL group sums to NULL.
type sumCalculator struct {
	sum types.Field
}

func (s *sumCalculator) Update(v types.Field) error {
	if types.IsNull(v) {
		return nil
	}
	if s.sum == nil {
		s.sum = v
		return nil
	}
	sum, err := types.Arith(types.Plus, s.sum, v)
	if err != nil {
		return err
	}
	s.sum = sum
	return nil
}

func (s *sumCalculator) Final() types.Field {
	if s.sum == nil {
		return types.Null
	}
	return s.sum
}

type avgCalculator struct {
	sum   float64
	count int64
}

func (a *avgCalculator) Update(v types.Field) error {
	if types.IsNull(v) {
		return nil
	}
	f, ok := types.ToFloat(v)
	if !ok {
		return errNotNumeric(v)
	}
	a.sum += f
	a.count++
	return nil
}

func (a *avgCalculator) Final() types.Field {
	if a.count == 0 {
		return types.Null
	}
	return types.NewFloatField(a.sum / float64(a.count))
}

// extremeCalculator implements MIN and MAX; keep reports whether a candidate
// comparing c against the current value replaces it.
type extremeCalculator struct {
	value types.Field
	keep  func(c int) bool
}

func (e *extremeCalculator) Update(v types.Field) error {
	if types.IsNull(v) {
		return nil
	}
	if e.value == nil {
		e.value = v
		return nil
	}
	c, err := types.Compare(v, e.value)
	if err != nil {
		return err
	}
	if e.keep(c) {
		e.value = v
	}
	return nil
}

func (e *extremeCalculator) Final() types.Field {
	if e.value == nil {
		return types.Null
	}
	return e.value
}

func errNotNumeric(v types.Field) error {
	return dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTypeMismatch,
		"cannot average %s values", v.Type())
}
