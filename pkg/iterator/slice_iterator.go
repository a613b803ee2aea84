package iterator

import (
	"github.com/cockroachdb/errors"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/tuple"
)

// SliceIterator iterates over a materialized slice. Sort and aggregation
// operators buffer their output in one and stream it back.
type SliceIterator[T any] struct {
	data         []T
	currentIndex int
}

func NewSliceIterator[T any](data []T) *SliceIterator[T] {
	return &SliceIterator[T]{data: data}
}

// HasNext checks if there are more elements available.
func (it *SliceIterator[T]) HasNext() bool {
	return it.currentIndex < len(it.data)
}

// Next returns the next element and advances the position.
func (it *SliceIterator[T]) Next() (T, error) {
	var zero T
	if it.currentIndex >= len(it.data) {
		return zero, errors.New("no more elements in slice iterator")
	}

	element := it.data[it.currentIndex]
	it.currentIndex++
	return element, nil
}

// Peek returns the next element without advancing the position.
func (it *SliceIterator[T]) Peek() (T, error) {
	var zero T
	if it.currentIndex >= len(it.data) {
		return zero, errors.New("no more elements in slice iterator")
	}
	return it.data[it.currentIndex], nil
}

func (it *SliceIterator[T]) Rewind()        { it.currentIndex = 0 }
func (it *SliceIterator[T]) Len() int       { return len(it.data) }
func (it *SliceIterator[T]) Remaining() int { return len(it.data) - it.currentIndex }
func (it *SliceIterator[T]) Data() []T      { return it.data }

// TupleSlice is a DbIterator over an in-memory list of tuples. It backs the
// Literal operator and serves as the mock child in operator tests.
type TupleSlice struct {
	schema *catalog.Schema
	tuples *SliceIterator[*tuple.Tuple]
	opened bool

	// Opens and Closes count lifecycle calls, for tests.
	Opens, Closes int
}

func NewTupleSlice(schema *catalog.Schema, tuples []*tuple.Tuple) *TupleSlice {
	return &TupleSlice{schema: schema, tuples: NewSliceIterator(tuples)}
}

func (s *TupleSlice) Open() error {
	s.Opens++
	if !s.opened {
		s.opened = true
		s.tuples.Rewind()
	}
	return nil
}

func (s *TupleSlice) HasNext() (bool, error) {
	if !s.opened {
		return false, notOpened()
	}
	return s.tuples.HasNext(), nil
}

func (s *TupleSlice) Next() (*tuple.Tuple, error) {
	if !s.opened {
		return nil, notOpened()
	}
	if !s.tuples.HasNext() {
		return nil, nil
	}
	return s.tuples.Next()
}

func (s *TupleSlice) Rewind() error {
	if !s.opened {
		return notOpened()
	}
	s.tuples.Rewind()
	return nil
}

func (s *TupleSlice) Close() error {
	s.Closes++
	s.opened = false
	return nil
}

func (s *TupleSlice) Schema() *catalog.Schema { return s.schema }
func (s *TupleSlice) IsOpened() bool          { return s.opened }
