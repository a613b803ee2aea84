package expr

import (
	"strings"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// FuncCallEval calls a scalar function resolved through the catalog.
type FuncCallEval struct {
	Func *catalog.FunctionDescriptor
	Args []EvalNode
}

func NewFuncCall(fd *catalog.FunctionDescriptor, args ...EvalNode) *FuncCallEval {
	return &FuncCallEval{Func: fd, Args: args}
}

func (f *FuncCallEval) Kind() Kind             { return KindFuncCall }
func (f *FuncCallEval) ResultType() types.Type { return f.Func.ReturnType }
func (f *FuncCallEval) evalNode()              {}

func (f *FuncCallEval) Clone() EvalNode {
	return &FuncCallEval{Func: f.Func, Args: cloneAll(f.Args)}
}

func (f *FuncCallEval) String() string {
	return f.Func.Name + "(" + joinStrings(f.Args) + ")"
}

func (f *FuncCallEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	if f.Func.Eval == nil {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"function %s has no scalar implementation", f.Func.Signature())
	}
	args := make([]types.Field, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(schema, t)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return f.Func.Eval(args)
}

// AggFuncCallEval is an aggregate call such as sum(score). It has no row
// level value: the group-by operator accumulates it and replaces the call
// with a reference to the accumulated slot before evaluating targets.
// count(*) has no arguments.
type AggFuncCallEval struct {
	Func *catalog.FunctionDescriptor
	Args []EvalNode
}

func NewAggFuncCall(fd *catalog.FunctionDescriptor, args ...EvalNode) *AggFuncCallEval {
	return &AggFuncCallEval{Func: fd, Args: args}
}

func (a *AggFuncCallEval) Kind() Kind             { return KindAggFuncCall }
func (a *AggFuncCallEval) ResultType() types.Type { return a.Func.ReturnType }
func (a *AggFuncCallEval) evalNode()              {}

func (a *AggFuncCallEval) Clone() EvalNode {
	return &AggFuncCallEval{Func: a.Func, Args: cloneAll(a.Args)}
}

func (a *AggFuncCallEval) String() string {
	if len(a.Args) == 0 {
		return a.Func.Name + "(*)"
	}
	return a.Func.Name + "(" + joinStrings(a.Args) + ")"
}

func (a *AggFuncCallEval) Eval(*catalog.Schema, *tuple.Tuple) (types.Field, error) {
	return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
		"aggregate %s evaluated outside of a group-by", a)
}

func cloneAll(nodes []EvalNode) []EvalNode {
	out := make([]EvalNode, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func joinStrings(nodes []EvalNode) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
