package catalog

import (
	"fmt"
	"strings"

	"sqlcore/pkg/primitives"
	"sqlcore/pkg/types"
)

// Column describes one slot of a schema. ID is the ordinal of the column in
// the schema that owns it and addresses tuple slots positionally.
type Column struct {
	Qualifier string
	Name      string
	Type      types.Type
	ID        primitives.ColumnID
}

// NewColumn creates an unattached column; its ID is assigned by NewSchema.
func NewColumn(qualifier, name string, t types.Type) Column {
	return Column{
		Qualifier: qualifier,
		Name:      name,
		Type:      t,
		ID:        primitives.InvalidColumnID,
	}
}

// ParseColumn splits "qualifier.name" (or a bare "name") into a column.
func ParseColumn(qualifiedName string, t types.Type) Column {
	q, n := SplitQualifiedName(qualifiedName)
	return NewColumn(q, n, t)
}

// SplitQualifiedName splits at the last dot. A bare name has an empty qualifier.
func SplitQualifiedName(name string) (qualifier, bare string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// QualifiedName returns "qualifier.name", or just the name when unqualified.
func (c Column) QualifiedName() string {
	if c.Qualifier == "" {
		return c.Name
	}
	return c.Qualifier + "." + c.Name
}

// Matches reports whether name, qualified or bare, refers to this column.
func (c Column) Matches(name string) bool {
	q, n := SplitQualifiedName(name)
	if n != c.Name {
		return false
	}
	return q == "" || q == c.Qualifier
}

func (c Column) String() string {
	return fmt.Sprintf("%s (%s)", c.QualifiedName(), c.Type)
}
