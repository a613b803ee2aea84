package execution

import (
	"io"

	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/expr"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/storage"
	"sqlcore/pkg/tuple"
)

// SeqScan reads every fragment of a table in order, filters rows with the
// scan qualifier and projects them to the output schema.
type SeqScan struct {
	base      *iterator.BaseIterator
	store     storage.Storage
	fragments []storage.Fragment

	// in is the full table schema, requalified with the scan alias; rows
	// from storage are laid out this way.
	in      *catalog.Schema
	out     *catalog.Schema
	qual    expr.EvalNode
	project []int

	current storage.RowSource
	next    int
}

// NewSeqScan creates a scan over fragments. Rows are read in the in layout;
// out must be a subset of in's columns.
func NewSeqScan(store storage.Storage, fragments []storage.Fragment, in, out *catalog.Schema, qual expr.EvalNode) (*SeqScan, error) {
	if store == nil {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "scan needs a storage")
	}
	if out == nil {
		out = in
	}

	project := make([]int, out.NumColumns())
	for i, c := range out.Columns() {
		idx, err := in.ColumnIndex(c.QualifiedName())
		if err != nil {
			return nil, dberror.Wrap(err, dberror.CodeColumnNotFound, "NewSeqScan", "execution")
		}
		project[i] = idx
	}

	s := &SeqScan{
		store:     store,
		fragments: fragments,
		in:        in,
		out:       out,
		qual:      qual,
		project:   project,
	}
	s.base = iterator.NewBaseIterator(s.readNext)
	return s, nil
}

func (s *SeqScan) Open() error {
	if s.base.IsOpened() {
		return nil
	}
	s.next = 0
	s.base.MarkOpened()
	return nil
}

func (s *SeqScan) readNext() (*tuple.Tuple, error) {
	for {
		if s.current == nil {
			if s.next >= len(s.fragments) {
				return nil, nil
			}
			frag := s.fragments[s.next]
			s.next++

			src, err := s.store.OpenScan(frag)
			if err != nil {
				return nil, dberror.Wrap(err, dberror.CodeStorage, "SeqScan.open", "execution")
			}
			s.current = src
			logging.WithOperator("SeqScan").Debug("fragment opened", "fragment", frag.ID)
		}

		row, err := s.current.ReadNext()
		if err == io.EOF {
			if err := s.closeSource(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, dberror.Wrap(err, dberror.CodeStorage, "SeqScan.next", "execution")
		}

		t, err := tuple.FromFields(s.in, row)
		if err != nil {
			return nil, dberror.Wrap(err, dberror.CodeStorage, "SeqScan.next", "execution")
		}
		if s.qual != nil {
			ok, err := expr.EvalBool(s.qual, s.in, t)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		metrics.TuplesEmitted.WithLabelValues("SeqScan").Inc()
		return t.Project(s.out, s.project), nil
	}
}

func (s *SeqScan) closeSource() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.current = nil
	if err != nil {
		return dberror.Wrap(err, dberror.CodeStorage, "SeqScan.close", "execution")
	}
	return nil
}

// Rewind restarts the scan from the first fragment.
func (s *SeqScan) Rewind() error {
	if err := s.closeSource(); err != nil {
		return err
	}
	s.next = 0
	s.base.ClearCache()
	return nil
}

func (s *SeqScan) Close() error {
	err := s.closeSource()
	s.next = 0
	_ = s.base.Close()
	return err
}

func (s *SeqScan) Schema() *catalog.Schema     { return s.out }
func (s *SeqScan) HasNext() (bool, error)      { return s.base.HasNext() }
func (s *SeqScan) Next() (*tuple.Tuple, error) { return s.base.Next() }
