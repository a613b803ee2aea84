// Package filestore keeps each table as a directory of row files under a
// data directory. Every file is one fragment; every closed Sink adds a file.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/storage"
	"sqlcore/pkg/storage/rowfile"
	"sqlcore/pkg/types"
)

const fileExt = ".rows"

type Store struct {
	dir   string
	codec config.SpillCodec

	mu  sync.Mutex
	seq int
}

var _ storage.Storage = (*Store)(nil)

// New opens a store rooted at dir, creating it when missing.
func New(dir string, codec config.SpillCodec) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "filestore.New", "storage")
	}
	return &Store{dir: dir, codec: codec}, nil
}

func (s *Store) tableDir(table string) string {
	return filepath.Join(s.dir, strings.ToLower(table))
}

func (s *Store) Fragments(table string) ([]storage.Fragment, error) {
	dir := s.tableDir(table)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeTableNotFound,
			"table %q does not exist in %s", table, s.dir)
	}
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "filestore.Fragments", "storage")
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), fileExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]storage.Fragment, 0, len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return nil, dberror.Wrap(err, dberror.CodeStorage, "filestore.Fragments", "storage")
		}
		out = append(out, storage.Fragment{
			ID:     table + "/" + strings.TrimSuffix(name, fileExt),
			Table:  table,
			Path:   filepath.Join(dir, name),
			Offset: 0,
			Length: info.Size(),
			Rows:   storage.UnknownRows,
		})
	}
	return out, nil
}

func (s *Store) OpenScan(f storage.Fragment) (storage.RowSource, error) {
	if f.Length == 0 {
		return emptySource{}, nil
	}
	return rowfile.Open(f.Path, s.codec, f.Offset, f.Length)
}

func (s *Store) Sink(table string, schema *catalog.Schema) (storage.Sink, error) {
	dir := s.tableDir(table)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "filestore.Sink", "storage")
	}

	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("%06d-%d%s", os.Getpid(), s.seq, fileExt)
	s.mu.Unlock()

	final := filepath.Join(dir, name)
	w, err := rowfile.Create(final+".tmp", s.codec)
	if err != nil {
		return nil, err
	}
	return &sink{w: w, final: final, width: schema.NumColumns(), table: table}, nil
}

type sink struct {
	w      *rowfile.Writer
	final  string
	width  int
	table  string
	closed bool
}

func (k *sink) Write(row []types.Field) error {
	if len(row) != k.width {
		return dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeStorage,
			"row has %d fields, sink expects %d", len(row), k.width)
	}
	return k.w.Write(row)
}

// Close publishes the file under its final name.
func (k *sink) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	if err := k.w.Close(); err != nil {
		_ = os.Remove(k.w.Path())
		return err
	}
	if err := os.Rename(k.w.Path(), k.final); err != nil {
		return dberror.Wrap(err, dberror.CodeStorage, "filestore.Sink.Close", "storage")
	}
	logging.WithTable(k.table).Debug("fragment written", "path", k.final, "rows", k.w.Rows())
	return nil
}

type emptySource struct{}

func (emptySource) ReadNext() ([]types.Field, error) { return nil, io.EOF }
func (emptySource) Close() error                     { return nil }
