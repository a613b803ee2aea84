package tuple

import (
	"fmt"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

// Builder fills a tuple slot by slot:
//
//	t, err := tuple.NewBuilder(schema).AddInt(1).AddString("alice").Build()
type Builder struct {
	schema *catalog.Schema
	fields []types.Field
	err    error
}

func NewBuilder(schema *catalog.Schema) *Builder {
	return &Builder{
		schema: schema,
		fields: make([]types.Field, 0, schema.NumColumns()),
	}
}

func (b *Builder) AddInt(value int64) *Builder {
	return b.AddField(types.NewIntField(value))
}

func (b *Builder) AddString(value string) *Builder {
	return b.AddField(types.NewStringField(value))
}

func (b *Builder) AddFloat(value float64) *Builder {
	return b.AddField(types.NewFloatField(value))
}

func (b *Builder) AddBool(value bool) *Builder {
	return b.AddField(types.NewBoolField(value))
}

func (b *Builder) AddNull() *Builder {
	return b.AddField(types.Null)
}

func (b *Builder) AddField(field types.Field) *Builder {
	if b.err != nil {
		return b
	}
	if len(b.fields) >= b.schema.NumColumns() {
		b.err = fmt.Errorf("too many fields for schema %s", b.schema)
		return b
	}
	b.fields = append(b.fields, field)
	return b
}

func (b *Builder) Build() (*Tuple, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.fields) != b.schema.NumColumns() {
		return nil, fmt.Errorf("expected %d fields, got %d", b.schema.NumColumns(), len(b.fields))
	}

	t := NewTuple(b.schema)
	for i, f := range b.fields {
		if err := t.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *Builder) MustBuild() *Tuple {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}

// Of builds a tuple from Go values: int, int64, float64, string, bool and nil
// (NULL) are accepted.
func Of(schema *catalog.Schema, values ...any) (*Tuple, error) {
	b := NewBuilder(schema)
	for _, v := range values {
		f, err := FieldOf(v)
		if err != nil {
			return nil, err
		}
		b.AddField(f)
	}
	return b.Build()
}

// MustOf is Of for fixtures; it panics on error.
func MustOf(schema *catalog.Schema, values ...any) *Tuple {
	t, err := Of(schema, values...)
	if err != nil {
		panic(err)
	}
	return t
}

// FieldOf converts a Go value to a field.
func FieldOf(v any) (types.Field, error) {
	switch x := v.(type) {
	case nil:
		return types.Null, nil
	case types.Field:
		return x, nil
	case int:
		return types.NewIntField(int64(x)), nil
	case int32:
		return types.NewIntField(int64(x)), nil
	case int64:
		return types.NewIntField(x), nil
	case float64:
		return types.NewFloatField(x), nil
	case string:
		return types.NewStringField(x), nil
	case bool:
		return types.NewBoolField(x), nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}
