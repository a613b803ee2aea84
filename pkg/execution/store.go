package execution

import (
	"github.com/cockroachdb/errors"

	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/storage"
	"sqlcore/pkg/tuple"
)

// Store drains its child into a storage sink (CREATE TABLE ... AS SELECT).
// All rows are written on the first pull; the operator itself returns no
// rows.
type Store struct {
	*iterator.UnaryOperator
	table   string
	store   storage.Storage
	written bool
	rows    int64
}

func NewStore(table string, store storage.Storage, child iterator.DbIterator) (*Store, error) {
	if store == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "store needs a storage")
	}

	s := &Store{table: table, store: store}
	op, err := iterator.NewUnaryOperator(child, nil, s.readNext)
	if err != nil {
		return nil, err
	}
	s.UnaryOperator = op
	return s, nil
}

// Rows returns the number of rows written so far.
func (s *Store) Rows() int64 { return s.rows }

func (s *Store) readNext() (*tuple.Tuple, error) {
	if s.written {
		return nil, nil
	}
	s.written = true

	sink, err := s.store.Sink(s.table, s.Schema())
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "Store.sink", "execution")
	}

	for {
		t, err := s.FetchNext()
		if err != nil {
			return nil, errors.CombineErrors(err, sink.Close())
		}
		if t == nil {
			break
		}
		if err := sink.Write(t.Fields()); err != nil {
			err = dberror.Wrap(err, dberror.CodeStorage, "Store.write", "execution")
			return nil, errors.CombineErrors(err, sink.Close())
		}
		s.rows++
	}

	if err := sink.Close(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "Store.close", "execution")
	}
	logging.WithTable(s.table).Debug("rows stored", "rows", s.rows)
	return nil, nil
}
