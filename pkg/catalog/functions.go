package catalog

import (
	"math"
	"strings"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/types"
)

// Aggregate function names understood by the group-by operator.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggMin   = "min"
	AggMax   = "max"
	AggAvg   = "avg"
)

var allTypes = []types.Type{types.IntType, types.FloatType, types.StringType, types.BoolType}

func builtinFunctions() []*FunctionDescriptor {
	fns := []*FunctionDescriptor{
		scalar("abs", []types.Type{types.IntType}, types.IntType, absInt),
		scalar("abs", []types.Type{types.FloatType}, types.FloatType, absFloat),
		scalar("upper", []types.Type{types.StringType}, types.StringType, mapString(strings.ToUpper)),
		scalar("lower", []types.Type{types.StringType}, types.StringType, mapString(strings.ToLower)),
		scalar("length", []types.Type{types.StringType}, types.IntType, length),
		scalar("concat", []types.Type{types.StringType, types.StringType}, types.StringType, concat),

		aggregate(AggCount, nil, types.IntType),
		aggregate(AggSum, []types.Type{types.IntType}, types.IntType),
		aggregate(AggSum, []types.Type{types.FloatType}, types.FloatType),
		aggregate(AggAvg, []types.Type{types.FloatType}, types.FloatType),
	}

	for _, t := range allTypes {
		fns = append(fns,
			aggregate(AggCount, []types.Type{t}, types.IntType),
			aggregate(AggMin, []types.Type{t}, t),
			aggregate(AggMax, []types.Type{t}, t),
		)
	}
	return fns
}

func scalar(name string, params []types.Type, ret types.Type, fn ScalarFunc) *FunctionDescriptor {
	return &FunctionDescriptor{Name: name, ParamTypes: params, ReturnType: ret, Kind: ScalarFunction, Eval: fn}
}

func aggregate(name string, params []types.Type, ret types.Type) *FunctionDescriptor {
	return &FunctionDescriptor{Name: name, ParamTypes: params, ReturnType: ret, Kind: AggregateFunction}
}

func absInt(args []types.Field) (types.Field, error) {
	v, ok := args[0].(*types.IntField)
	if !ok {
		return types.Null, nil
	}
	if v.Value < 0 {
		return types.NewIntField(-v.Value), nil
	}
	return v, nil
}

func absFloat(args []types.Field) (types.Field, error) {
	v, ok := types.ToFloat(args[0])
	if !ok {
		return types.Null, nil
	}
	return types.NewFloatField(math.Abs(v)), nil
}

func mapString(fn func(string) string) ScalarFunc {
	return func(args []types.Field) (types.Field, error) {
		s, ok := args[0].(*types.StringField)
		if !ok {
			return types.Null, nil
		}
		return types.NewStringField(fn(s.Value)), nil
	}
}

func length(args []types.Field) (types.Field, error) {
	s, ok := args[0].(*types.StringField)
	if !ok {
		return types.Null, nil
	}
	return types.NewIntField(int64(len([]rune(s.Value)))), nil
}

func concat(args []types.Field) (types.Field, error) {
	var b strings.Builder
	for _, a := range args {
		if types.IsNull(a) {
			return types.Null, nil
		}
		s, ok := a.(*types.StringField)
		if !ok {
			return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTypeMismatch,
				"concat expects TEXT, got %s", a.Type())
		}
		b.WriteString(s.Value)
	}
	return types.NewStringField(b.String()), nil
}
