package catalog

import (
	"strings"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/primitives"
)

// Schema is an ordered, immutable list of columns. Qualified names are unique
// within a schema.
type Schema struct {
	columns     []Column
	byQualified map[string]int
}

// NewSchema copies cols into a new schema, assigning ordinal IDs. Duplicate
// qualified names are rejected.
func NewSchema(cols ...Column) (*Schema, error) {
	s := &Schema{
		columns:     make([]Column, len(cols)),
		byQualified: make(map[string]int, len(cols)),
	}

	for i, c := range cols {
		qn := c.QualifiedName()
		if _, dup := s.byQualified[qn]; dup {
			return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeDuplicateColumn,
				"duplicate column %q in schema", qn)
		}
		c.ID = primitives.ColumnID(i)
		s.columns[i] = c
		s.byQualified[qn] = i
	}
	return s, nil
}

// MustSchema is NewSchema for statically known column lists; it panics on
// duplicates.
func MustSchema(cols ...Column) *Schema {
	s, err := NewSchema(cols...)
	if err != nil {
		panic(err)
	}
	return s
}

// Merge concatenates a and b into a new schema and re-validates uniqueness.
func Merge(a, b *Schema) (*Schema, error) {
	cols := make([]Column, 0, a.NumColumns()+b.NumColumns())
	cols = append(cols, a.Columns()...)
	cols = append(cols, b.Columns()...)
	return NewSchema(cols...)
}

func (s *Schema) NumColumns() int {
	if s == nil {
		return 0
	}
	return len(s.columns)
}

// Column returns the column at ordinal i.
func (s *Schema) Column(i int) Column {
	return s.columns[i]
}

// Columns returns a copy of the column list.
func (s *Schema) Columns() []Column {
	if s == nil {
		return nil
	}
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// ColumnIndex resolves a qualified or bare column name to its ordinal. A bare
// name must match exactly one column.
func (s *Schema) ColumnIndex(name string) (int, error) {
	if s == nil {
		return -1, columnNotFound(name)
	}
	if i, ok := s.byQualified[name]; ok {
		return i, nil
	}

	q, bare := SplitQualifiedName(name)
	if q != "" {
		return -1, columnNotFound(name)
	}

	found := -1
	for i, c := range s.columns {
		if c.Name != bare {
			continue
		}
		if found >= 0 {
			return -1, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeAmbiguousColumn,
				"column reference %q is ambiguous", name).
				WithDetail("matches %s and %s", s.columns[found].QualifiedName(), c.QualifiedName())
		}
		found = i
	}
	if found < 0 {
		return -1, columnNotFound(name)
	}
	return found, nil
}

// FindColumn is ColumnIndex returning the column itself.
func (s *Schema) FindColumn(name string) (Column, error) {
	i, err := s.ColumnIndex(name)
	if err != nil {
		return Column{}, err
	}
	return s.columns[i], nil
}

// Contains reports whether name resolves unambiguously in s.
func (s *Schema) Contains(name string) bool {
	_, err := s.ColumnIndex(name)
	return err == nil
}

// Qualify returns a copy of s with every column moved under qualifier.
func (s *Schema) Qualify(qualifier string) *Schema {
	cols := s.Columns()
	for i := range cols {
		cols[i].Qualifier = qualifier
	}
	return MustSchema(cols...)
}

// Select returns the columns of s accepted by keep, in schema order.
func (s *Schema) Select(keep func(Column) bool) *Schema {
	cols := make([]Column, 0, s.NumColumns())
	for _, c := range s.columns {
		if keep(c) {
			cols = append(cols, c)
		}
	}
	return MustSchema(cols...)
}

// Equal reports whether both schemas list the same qualified names and types
// in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s.NumColumns() != other.NumColumns() {
		return false
	}
	if s.NumColumns() == 0 {
		return true
	}
	for i := range s.columns {
		a, b := s.columns[i], other.columns[i]
		if a.QualifiedName() != b.QualifiedName() || a.Type != b.Type {
			return false
		}
	}
	return true
}

func (s *Schema) String() string {
	if s == nil {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{")
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	b.WriteString("}")
	return b.String()
}

func columnNotFound(name string) *dberror.DBError {
	return dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeColumnNotFound,
		"column %q does not exist", name)
}
