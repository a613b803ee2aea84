package expr

import (
	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// FieldEval references a column by name. The slot index is resolved against
// the schema passed to Eval and cached for that schema.
type FieldEval struct {
	Column catalog.Column

	boundTo *catalog.Schema
	index   int
}

func NewField(col catalog.Column) *FieldEval {
	return &FieldEval{Column: col, index: -1}
}

func (f *FieldEval) Kind() Kind             { return KindField }
func (f *FieldEval) ResultType() types.Type { return f.Column.Type }
func (f *FieldEval) String() string         { return f.Column.QualifiedName() }
func (f *FieldEval) evalNode()              {}

// Name returns the qualified name used to resolve the column.
func (f *FieldEval) Name() string {
	return f.Column.QualifiedName()
}

func (f *FieldEval) Clone() EvalNode {
	return NewField(f.Column)
}

func (f *FieldEval) Eval(schema *catalog.Schema, t *tuple.Tuple) (types.Field, error) {
	if t == nil {
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeColumnNotFound,
			"column %s evaluated without an input row", f.Name())
	}
	if f.boundTo != schema || f.index < 0 {
		idx, err := schema.ColumnIndex(f.Name())
		if err != nil {
			return nil, err
		}
		f.boundTo, f.index = schema, idx
	}
	return t.Field(f.index), nil
}

// ConstEval is a literal value.
type ConstEval struct {
	Value types.Field
}

func NewConst(v types.Field) *ConstEval {
	return &ConstEval{Value: v}
}

func (c *ConstEval) Kind() Kind             { return KindConst }
func (c *ConstEval) ResultType() types.Type { return c.Value.Type() }
func (c *ConstEval) Clone() EvalNode        { return NewConst(c.Value) }
func (c *ConstEval) evalNode()              {}

func (c *ConstEval) Eval(*catalog.Schema, *tuple.Tuple) (types.Field, error) {
	return c.Value, nil
}

func (c *ConstEval) String() string {
	if s, ok := c.Value.(*types.StringField); ok {
		return "'" + s.Value + "'"
	}
	return c.Value.String()
}
