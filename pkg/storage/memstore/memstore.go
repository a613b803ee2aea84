// Package memstore is an in-memory storage.Storage. Every Append adds one
// fragment, so tests control how a table is split.
package memstore

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/storage"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

type Option func(*Store)

// WithUnknownRowCounts makes Fragments report storage.UnknownRows, the way
// a storage layer without statistics would.
func WithUnknownRowCounts() Option {
	return func(s *Store) { s.hideCounts = true }
}

type Store struct {
	mu         sync.RWMutex
	tables     map[string]*table
	hideCounts bool
	open       atomic.Int64
}

type table struct {
	name      string
	schema    *catalog.Schema
	fragments [][][]types.Field
}

var _ storage.Storage = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{tables: make(map[string]*table)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTable registers an empty table.
func (s *Store) CreateTable(name string, schema *catalog.Schema) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := s.tables[key]; ok {
		return dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeStorage, "table %q already exists", name)
	}
	s.tables[key] = &table{name: name, schema: schema}
	return nil
}

// Append adds rows to table as a new fragment.
func (s *Store) Append(name string, rows ...[]types.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.lookup(name)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if len(r) != t.schema.NumColumns() {
			return dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeStorage,
				"row has %d fields, table %s has %d columns", len(r), name, t.schema.NumColumns())
		}
	}
	t.fragments = append(t.fragments, rows)
	return nil
}

// AppendValues is Append for Go literals; see tuple.FieldOf for the accepted
// value types.
func (s *Store) AppendValues(name string, rows ...[]any) error {
	converted := make([][]types.Field, len(rows))
	for i, r := range rows {
		fields := make([]types.Field, len(r))
		for j, v := range r {
			f, err := tuple.FieldOf(v)
			if err != nil {
				return err
			}
			fields[j] = f
		}
		converted[i] = fields
	}
	return s.Append(name, converted...)
}

// Rows returns every row of table in fragment order.
func (s *Store) Rows(name string) ([][]types.Field, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	var out [][]types.Field
	for _, frag := range t.fragments {
		out = append(out, frag...)
	}
	return out, nil
}

// OpenSources is the number of row sources opened and not yet closed.
func (s *Store) OpenSources() int64 {
	return s.open.Load()
}

func (s *Store) Fragments(name string) ([]storage.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(name)
	if err != nil {
		return nil, err
	}

	out := make([]storage.Fragment, len(t.fragments))
	for i, rows := range t.fragments {
		count := int64(len(rows))
		if s.hideCounts {
			count = storage.UnknownRows
		}
		out[i] = storage.Fragment{
			ID:     fmt.Sprintf("%s_%d", t.name, i),
			Table:  t.name,
			Path:   "mem://" + t.name,
			Offset: int64(i),
			Length: int64(len(rows)),
			Rows:   count,
		}
	}
	return out, nil
}

func (s *Store) OpenScan(f storage.Fragment) (storage.RowSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.lookup(f.Table)
	if err != nil {
		return nil, err
	}
	if f.Offset < 0 || f.Offset >= int64(len(t.fragments)) {
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeStorage,
			"fragment %s does not exist", f)
	}

	s.open.Add(1)
	return &source{store: s, rows: t.fragments[f.Offset]}, nil
}

func (s *Store) Sink(name string, schema *catalog.Schema) (storage.Sink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.lookup(name); err != nil {
		s.tables[strings.ToLower(name)] = &table{name: name, schema: schema}
	}
	return &sink{store: s, table: name, width: schema.NumColumns()}, nil
}

func (s *Store) lookup(name string) (*table, error) {
	t, ok := s.tables[strings.ToLower(name)]
	if !ok {
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTableNotFound,
			"table %q does not exist in storage", name)
	}
	return t, nil
}

type source struct {
	store  *Store
	rows   [][]types.Field
	pos    int
	closed bool
}

func (r *source) ReadNext() ([]types.Field, error) {
	if r.closed {
		return nil, dberror.New(dberror.ErrCategoryExecution, dberror.CodeStorage, "read from closed row source")
	}
	if r.pos >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *source) Close() error {
	if !r.closed {
		r.closed = true
		r.store.open.Add(-1)
	}
	return nil
}

type sink struct {
	store  *Store
	table  string
	width  int
	rows   [][]types.Field
	closed bool
}

func (w *sink) Write(row []types.Field) error {
	if w.closed {
		return dberror.New(dberror.ErrCategoryExecution, dberror.CodeStorage, "write to closed sink")
	}
	if len(row) != w.width {
		return dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeStorage,
			"row has %d fields, sink expects %d", len(row), w.width)
	}
	w.rows = append(w.rows, append([]types.Field(nil), row...))
	return nil
}

func (w *sink) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if len(w.rows) == 0 {
		return nil
	}
	return w.store.Append(w.table, w.rows...)
}
