package execution

import (
	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/tuple"
)

// Literal evaluates a list of constant expressions once and returns them as
// a single row (SELECT 1 + 2).
type Literal struct {
	base    *iterator.BaseIterator
	targets []expr.Target
	schema  *catalog.Schema
	emitted bool
}

func NewLiteral(targets []expr.Target, schema *catalog.Schema) (*Literal, error) {
	if len(targets) == 0 {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "literal needs at least one expression")
	}
	if schema == nil {
		var err error
		if schema, err = expr.TargetSchema(targets); err != nil {
			return nil, err
		}
	}

	l := &Literal{targets: targets, schema: schema}
	l.base = iterator.NewBaseIterator(l.readNext)
	return l, nil
}

func (l *Literal) readNext() (*tuple.Tuple, error) {
	if l.emitted {
		return nil, nil
	}
	l.emitted = true

	empty := tuple.NewTuple(catalog.MustSchema())
	return EvalTargets(l.targets, empty.Schema, empty, l.schema)
}

func (l *Literal) Open() error {
	l.base.MarkOpened()
	return nil
}

func (l *Literal) Rewind() error {
	l.emitted = false
	l.base.ClearCache()
	return nil
}

func (l *Literal) Close() error {
	l.emitted = false
	return l.base.Close()
}

func (l *Literal) Schema() *catalog.Schema     { return l.schema }
func (l *Literal) HasNext() (bool, error)      { return l.base.HasNext() }
func (l *Literal) Next() (*tuple.Tuple, error) { return l.base.Next() }
