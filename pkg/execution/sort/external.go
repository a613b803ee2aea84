package sort

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/btree"

	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/logging"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/storage/rowfile"
	"sqlcore/pkg/tuple"
)

// The degree of the run-head btree.
const headsBtreeDegree = 8

// ExternalSort orders input that may not fit in memory. The child is cut
// into chunks of at most SortMemoryRows tuples; each chunk is sorted and
// written to a run file, and the runs are merged through a btree of run
// heads. At most SortMergeFanIn runs are merged at once: while more remain,
// consecutive groups of them are merged into longer runs first. When the
// whole input fits in one chunk nothing is spilled.
type ExternalSort struct {
	*iterator.UnaryOperator
	cmp       *Comparator
	chunkRows int
	fanIn     int
	dir       string
	codec     config.SpillCodec

	prepared bool

	// memory serves a single-chunk input.
	memory *iterator.SliceIterator[*tuple.Tuple]

	runs    []*run
	heads   *btree.BTree
	spilled int64
	passes  int
}

// run is one sorted spill file and its open cursor.
type run struct {
	index  int
	path   string
	rows   int64
	reader *rowfile.Reader
}

// head is the smallest unread tuple of a run. Heads order by tuple, then by
// run index, which keeps the merge stable.
type head struct {
	t   *tuple.Tuple
	run *run
	cmp *Comparator
}

// Less implements the btree.Item interface.
func (h *head) Less(than btree.Item) bool {
	o := than.(*head)
	if c := h.cmp.Compare(h.t, o.t); c != 0 {
		return c < 0
	}
	return h.run.index < o.run.index
}

func NewExternalSort(keys []Key, child iterator.DbIterator, cfg config.Execution) (*ExternalSort, error) {
	if cfg.SortMemoryRows <= 0 {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
			"sort chunk size must be positive, got %d", cfg.SortMemoryRows)
	}
	if cfg.SortMergeFanIn < 2 {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
			"sort merge fan-in must be at least 2, got %d", cfg.SortMergeFanIn)
	}

	s := &ExternalSort{
		cmp:       NewComparator(keys),
		chunkRows: cfg.SortMemoryRows,
		fanIn:     cfg.SortMergeFanIn,
		dir:       cfg.SpillDir(),
		codec:     cfg.SpillCodec,
	}
	op, err := iterator.NewUnaryOperator(child, nil, s.readNext)
	if err != nil {
		return nil, err
	}
	s.UnaryOperator = op
	return s, nil
}

// Runs returns the number of runs in the final merge.
func (s *ExternalSort) Runs() int { return len(s.runs) }

// MergePasses returns the number of intermediate merge passes.
func (s *ExternalSort) MergePasses() int { return s.passes }

func (s *ExternalSort) prepare() error {
	log := logging.WithOperator("ExternalSort")

	for {
		chunk, err := iterator.Take(s.Child(), s.chunkRows)
		if err != nil {
			return err
		}
		if err := sortTuples(s.cmp, chunk); err != nil {
			return err
		}

		more := false
		if len(chunk) == s.chunkRows {
			if more, err = s.Child().HasNext(); err != nil {
				return err
			}
		}

		if !more && len(s.runs) == 0 {
			s.memory = iterator.NewSliceIterator(chunk)
			s.prepared = true
			return nil
		}
		if len(chunk) > 0 {
			if err := s.spill(chunk); err != nil {
				return err
			}
		}
		if !more {
			break
		}
	}

	log.Debug("runs spilled",
		"runs", len(s.runs),
		"size", humanize.Bytes(uint64(s.spilled)),
		"dir", s.dir)

	if err := s.mergePasses(); err != nil {
		return err
	}
	heads, err := s.openRuns(s.runs)
	s.heads = heads
	if err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (s *ExternalSort) spill(chunk []*tuple.Tuple) error {
	w, err := rowfile.CreateTemp(s.dir, "sort-*.run", s.codec)
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.spill", "ExternalSort")
	}
	r := &run{index: len(s.runs), path: w.Path()}
	s.runs = append(s.runs, r)

	for _, t := range chunk {
		if err := w.WriteTuple(t); err != nil {
			return errors.CombineErrors(dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.spill", "ExternalSort"), w.Close())
		}
	}
	if err := w.Close(); err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.spill", "ExternalSort")
	}
	s.written(r, w)
	return nil
}

func (s *ExternalSort) written(r *run, w *rowfile.Writer) {
	r.rows = w.Rows()
	s.spilled += w.Size()
	metrics.SpillRuns.WithLabelValues("ExternalSort").Inc()
	metrics.SpillBytes.WithLabelValues("ExternalSort").Add(float64(w.Size()))
	logging.WithOperator("ExternalSort").Debug("run written",
		"run", r.index,
		"pass", s.passes,
		"rows", humanize.Comma(r.rows),
		"size", humanize.Bytes(uint64(w.Size())))
}

// mergePasses merges consecutive groups of fanIn runs into single runs until
// no more than fanIn are left. Groups keep run order, so ties still resolve
// in input order.
func (s *ExternalSort) mergePasses() error {
	for len(s.runs) > s.fanIn {
		s.passes++
		var merged []*run
		for start := 0; start < len(s.runs); start += s.fanIn {
			group := s.runs[start:min(start+s.fanIn, len(s.runs))]
			if len(group) == 1 {
				group[0].index = len(merged)
				merged = append(merged, group[0])
				continue
			}
			r, err := s.mergeGroup(group, len(merged))
			if err != nil {
				// Unmerged runs stay tracked so Close removes them.
				s.runs = append(merged, s.runs[start:]...)
				return err
			}
			merged = append(merged, r)
		}
		s.runs = merged
	}
	return nil
}

// mergeGroup merges group into a new run with the given index and deletes
// the group's files.
func (s *ExternalSort) mergeGroup(group []*run, index int) (*run, error) {
	w, err := rowfile.CreateTemp(s.dir, "sort-*.run", s.codec)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.merge", "ExternalSort")
	}
	out := &run{index: index, path: w.Path()}

	heads, err := s.openRuns(group)
	for err == nil {
		item := heads.DeleteMin()
		if item == nil {
			break
		}
		h := item.(*head)
		if err = w.WriteTuple(h.t); err != nil {
			break
		}
		err = s.advance(heads, h.run)
	}
	err = errors.CombineErrors(err, closeReaders(group))
	err = errors.CombineErrors(err, w.Close())
	if err != nil {
		err = errors.CombineErrors(err, removeRun(out))
		return nil, dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.merge", "ExternalSort")
	}
	s.written(out, w)

	for _, r := range group {
		err = errors.CombineErrors(err, removeRun(r))
	}
	if err != nil {
		err = errors.CombineErrors(err, removeRun(out))
		return nil, dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.merge", "ExternalSort")
	}
	return out, nil
}

func removeRun(r *run) error {
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// openRuns opens a cursor on every run and seeds a btree with their heads.
func (s *ExternalSort) openRuns(runs []*run) (*btree.BTree, error) {
	heads := btree.New(headsBtreeDegree)
	for _, r := range runs {
		reader, err := rowfile.Open(r.path, s.codec, 0, 0)
		if err != nil {
			return heads, dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.merge", "ExternalSort")
		}
		r.reader = reader
		if err := s.advance(heads, r); err != nil {
			return heads, err
		}
	}
	return heads, s.cmp.Err()
}

// advance reads the next tuple of r into heads, if any.
func (s *ExternalSort) advance(heads *btree.BTree, r *run) error {
	row, err := r.reader.ReadNext()
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.merge", "ExternalSort")
	}
	t, err := tuple.FromFields(s.Schema(), row)
	if err != nil {
		return err
	}
	heads.ReplaceOrInsert(&head{t: t, run: r, cmp: s.cmp})
	return s.cmp.Err()
}

func (s *ExternalSort) readNext() (*tuple.Tuple, error) {
	if !s.prepared {
		if err := s.prepare(); err != nil {
			return nil, err
		}
	}

	if s.memory != nil {
		if !s.memory.HasNext() {
			return nil, nil
		}
		metrics.TuplesEmitted.WithLabelValues("ExternalSort").Inc()
		return s.memory.Next()
	}

	item := s.heads.DeleteMin()
	if item == nil {
		return nil, nil
	}
	h := item.(*head)
	if err := s.advance(s.heads, h.run); err != nil {
		return nil, err
	}
	metrics.TuplesEmitted.WithLabelValues("ExternalSort").Inc()
	return h.t, nil
}

// Rewind restarts the output from the first sorted tuple. Spilled runs are
// re-read from disk; the child is not consumed again.
func (s *ExternalSort) Rewind() error {
	if s.memory != nil {
		s.memory.Rewind()
	}
	if s.heads != nil {
		if err := closeReaders(s.runs); err != nil {
			return err
		}
		heads, err := s.openRuns(s.runs)
		s.heads = heads
		if err != nil {
			return err
		}
	}
	return s.UnaryOperator.Rewind()
}

func closeReaders(runs []*run) error {
	var err error
	for _, r := range runs {
		if r.reader != nil {
			err = errors.CombineErrors(err, r.reader.Close())
			r.reader = nil
		}
	}
	return err
}

// Close closes the child and deletes every run file.
func (s *ExternalSort) Close() error {
	err := closeReaders(s.runs)
	for _, r := range s.runs {
		err = errors.CombineErrors(err, removeRun(r))
	}
	s.runs = nil
	s.heads = nil
	s.memory = nil
	s.prepared = false
	s.spilled = 0
	s.passes = 0

	err = errors.CombineErrors(err, s.UnaryOperator.Close())
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "ExternalSort.close", "ExternalSort")
	}
	return nil
}
