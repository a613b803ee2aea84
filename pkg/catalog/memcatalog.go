package catalog

import (
	"strings"
	"sync"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/types"
)

// MemCatalog is an in-memory Catalog with the builtin function set
// registered. It backs tests, the CLI demo and embedders without a catalog
// service.
type MemCatalog struct {
	mu        sync.RWMutex
	tables    map[string]*TableDesc
	functions map[string]*FunctionDescriptor
}

func NewMemCatalog() *MemCatalog {
	c := &MemCatalog{
		tables:    make(map[string]*TableDesc),
		functions: make(map[string]*FunctionDescriptor),
	}
	for _, fd := range builtinFunctions() {
		c.functions[fd.Signature()] = fd
	}
	return c
}

// AddTable registers a table. Columns of schema are requalified with the
// table name.
func (c *MemCatalog) AddTable(name string, schema *Schema) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(name)
	if _, exists := c.tables[key]; exists {
		return dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeUnsupported,
			"table %q already exists", name)
	}
	c.tables[key] = &TableDesc{Name: name, Schema: schema.Qualify(name)}
	return nil
}

// RegisterFunction adds or replaces a function under its signature.
func (c *MemCatalog) RegisterFunction(fd *FunctionDescriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.functions[fd.Signature()] = fd
}

func (c *MemCatalog) SchemaOf(table string) (*Schema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	desc, ok := c.tables[strings.ToLower(table)]
	if !ok {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeTableNotFound,
			"table %q does not exist", table)
	}
	return desc.Schema, nil
}

// Tables lists registered table names.
func (c *MemCatalog) Tables() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		names = append(names, t.Name)
	}
	return names
}

// FunctionSignature looks the signature up exactly first, then retries with
// integer arguments widened to float.
func (c *MemCatalog) FunctionSignature(name string, argTypes []types.Type) (*FunctionDescriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if fd, ok := c.functions[Signature(name, argTypes)]; ok {
		return fd, nil
	}

	widened := make([]types.Type, len(argTypes))
	changed := false
	for i, t := range argTypes {
		widened[i] = t
		if t == types.IntType {
			widened[i] = types.FloatType
			changed = true
		}
	}
	if changed {
		if fd, ok := c.functions[Signature(name, widened)]; ok {
			return fd, nil
		}
	}

	return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeFunctionNotFound,
		"function %s does not exist", Signature(name, argTypes))
}
