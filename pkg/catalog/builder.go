package catalog

import "sqlcore/pkg/types"

// SchemaBuilder assembles a table schema column by column.
//
//	s, err := catalog.NewSchemaBuilder("employee").
//	    AddColumn("empId", types.IntType).
//	    AddColumn("name", types.StringType).
//	    Build()
type SchemaBuilder struct {
	table   string
	columns []Column
}

func NewSchemaBuilder(table string) *SchemaBuilder {
	return &SchemaBuilder{table: table}
}

func (sb *SchemaBuilder) AddColumn(name string, t types.Type) *SchemaBuilder {
	sb.columns = append(sb.columns, NewColumn(sb.table, name, t))
	return sb
}

func (sb *SchemaBuilder) Build() (*Schema, error) {
	return NewSchema(sb.columns...)
}

// MustBuild is Build for fixtures; it panics on duplicate columns.
func (sb *SchemaBuilder) MustBuild() *Schema {
	return MustSchema(sb.columns...)
}
