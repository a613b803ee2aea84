package sort

import (
	"slices"

	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
)

// InMemorySort orders its input by a list of keys. It is blocking: the whole
// child is materialized on the first pull, sorted stably and then streamed.
type InMemorySort struct {
	*iterator.UnaryOperator
	cmp          *Comparator
	sorted       *iterator.SliceIterator[*tuple.Tuple]
	materialized bool
}

func NewInMemorySort(keys []Key, child iterator.DbIterator) (*InMemorySort, error) {
	s := &InMemorySort{cmp: NewComparator(keys)}
	op, err := iterator.NewUnaryOperator(child, nil, s.readNext)
	if err != nil {
		return nil, err
	}
	s.UnaryOperator = op
	return s, nil
}

func (s *InMemorySort) materialize() error {
	tuples, err := iterator.Collect(s.Child())
	if err != nil {
		return err
	}
	if err := sortTuples(s.cmp, tuples); err != nil {
		return err
	}

	s.sorted = iterator.NewSliceIterator(tuples)
	s.materialized = true
	return nil
}

func (s *InMemorySort) readNext() (*tuple.Tuple, error) {
	if !s.materialized {
		if err := s.materialize(); err != nil {
			return nil, err
		}
	}
	if !s.sorted.HasNext() {
		return nil, nil
	}
	t, err := s.sorted.Next()
	if err != nil {
		return nil, err
	}
	metrics.TuplesEmitted.WithLabelValues("InMemorySort").Inc()
	return t, nil
}

// Rewind replays the sorted tuples without re-reading the child.
func (s *InMemorySort) Rewind() error {
	if s.sorted != nil {
		s.sorted.Rewind()
	}
	return s.UnaryOperator.Rewind()
}

func (s *InMemorySort) Close() error {
	s.sorted = nil
	s.materialized = false
	return s.UnaryOperator.Close()
}

func sortTuples(cmp *Comparator, tuples []*tuple.Tuple) error {
	slices.SortStableFunc(tuples, cmp.Compare)
	return cmp.Err()
}
