package catalog

import (
	"fmt"
	"strings"

	"sqlcore/pkg/types"
)

// Catalog is the read-only view of table schemas and functions the planner
// and optimizer consume. Implementations are synchronized externally.
type Catalog interface {
	// SchemaOf returns the full schema of table, qualified by the table name.
	SchemaOf(table string) (*Schema, error)

	// FunctionSignature resolves a function by name and argument types.
	FunctionSignature(name string, argTypes []types.Type) (*FunctionDescriptor, error)
}

// FunctionKind separates row-at-a-time functions from aggregates.
type FunctionKind int

const (
	ScalarFunction FunctionKind = iota
	AggregateFunction
)

func (k FunctionKind) String() string {
	if k == AggregateFunction {
		return "AGGREGATE"
	}
	return "SCALAR"
}

// ScalarFunc evaluates a scalar function over already evaluated arguments.
type ScalarFunc func(args []types.Field) (types.Field, error)

// FunctionDescriptor is a resolved function signature.
type FunctionDescriptor struct {
	Name       string
	ParamTypes []types.Type
	ReturnType types.Type
	Kind       FunctionKind

	// Eval is set for scalar functions only.
	Eval ScalarFunc
}

// Signature renders the lookup key, e.g. "sum(INT)".
func (fd *FunctionDescriptor) Signature() string {
	return Signature(fd.Name, fd.ParamTypes)
}

func (fd *FunctionDescriptor) String() string {
	return fmt.Sprintf("%s -> %s", fd.Signature(), fd.ReturnType)
}

// Signature renders a function lookup key from a name and argument types.
func Signature(name string, argTypes []types.Type) string {
	parts := make([]string, len(argTypes))
	for i, t := range argTypes {
		parts[i] = t.String()
	}
	return strings.ToLower(name) + "(" + strings.Join(parts, ",") + ")"
}

// TableDesc describes a registered table.
type TableDesc struct {
	Name   string
	Schema *Schema
}
