package tuple

import (
	"fmt"
	"strings"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

// Tuple represents one row positionally aligned to a schema.
type Tuple struct {
	Schema *catalog.Schema
	fields []types.Field
}

// NewTuple creates a tuple with every slot set to NULL.
func NewTuple(schema *catalog.Schema) *Tuple {
	fields := make([]types.Field, schema.NumColumns())
	for i := range fields {
		fields[i] = types.Null
	}
	return &Tuple{Schema: schema, fields: fields}
}

// FromFields wraps fields without copying. len(fields) must equal the
// schema's column count.
func FromFields(schema *catalog.Schema, fields []types.Field) (*Tuple, error) {
	if len(fields) != schema.NumColumns() {
		return nil, fmt.Errorf("tuple has %d fields, schema %s has %d columns",
			len(fields), schema, schema.NumColumns())
	}
	return &Tuple{Schema: schema, fields: fields}, nil
}

// SetField stores field at slot i. NULL fits any column; otherwise the field
// type must match the column type.
func (t *Tuple) SetField(i int, field types.Field) error {
	if i < 0 || i >= len(t.fields) {
		return fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	if field == nil {
		field = types.Null
	}

	expected := t.Schema.Column(i).Type
	if !types.IsNull(field) && expected != types.NullType && field.Type() != expected {
		return fmt.Errorf("field type mismatch at %s: expected %v, got %v",
			t.Schema.Column(i).QualifiedName(), expected, field.Type())
	}

	t.fields[i] = field
	return nil
}

// GetField returns the value of the ith field
func (t *Tuple) GetField(i int) (types.Field, error) {
	if i < 0 || i >= len(t.fields) {
		return nil, fmt.Errorf("field index %d out of bounds [0, %d)", i, len(t.fields))
	}
	return t.fields[i], nil
}

// Field returns slot i without bounds reporting; callers resolve i against
// the tuple's schema first.
func (t *Tuple) Field(i int) types.Field {
	return t.fields[i]
}

// Fields returns the underlying slots. Callers must not modify them.
func (t *Tuple) Fields() []types.Field {
	return t.fields
}

func (t *Tuple) NumFields() int {
	return len(t.fields)
}

// String renders the fields separated by tabs.
func (t *Tuple) String() string {
	parts := make([]string, len(t.fields))
	for i, field := range t.fields {
		parts[i] = field.String()
	}
	return strings.Join(parts, "\t")
}

// Values renders each field as a string, handy in assertions.
func (t *Tuple) Values() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.String()
	}
	return out
}

// Combine concatenates outer and inner into a tuple of the given schema,
// which must be the merge of both input schemas.
func Combine(schema *catalog.Schema, outer, inner *Tuple) (*Tuple, error) {
	if outer == nil || inner == nil {
		return nil, fmt.Errorf("cannot combine nil tuples")
	}
	if schema.NumColumns() != len(outer.fields)+len(inner.fields) {
		return nil, fmt.Errorf("combined schema has %d columns, inputs have %d and %d",
			schema.NumColumns(), len(outer.fields), len(inner.fields))
	}

	fields := make([]types.Field, 0, schema.NumColumns())
	fields = append(fields, outer.fields...)
	fields = append(fields, inner.fields...)
	return &Tuple{Schema: schema, fields: fields}, nil
}

// Project builds a tuple of schema from the slots at indexes.
func (t *Tuple) Project(schema *catalog.Schema, indexes []int) *Tuple {
	fields := make([]types.Field, len(indexes))
	for i, idx := range indexes {
		fields[i] = t.fields[idx]
	}
	return &Tuple{Schema: schema, fields: fields}
}

// Clone creates a copy of this tuple sharing the (immutable) field values.
func (t *Tuple) Clone() *Tuple {
	fields := make([]types.Field, len(t.fields))
	copy(fields, t.fields)
	return &Tuple{Schema: t.Schema, fields: fields}
}

// Equals compares field values slot by slot.
func (t *Tuple) Equals(other *Tuple) bool {
	if other == nil {
		return false
	}
	return types.FieldsEqual(t.fields, other.fields)
}
