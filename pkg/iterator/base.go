package iterator

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
)

// ReadNextFunc produces the next tuple of an operator, or nil at the end of
// the stream.
type ReadNextFunc func() (*tuple.Tuple, error)

// BaseIterator implements the one-tuple lookahead shared by all operators.
// HasNext calls the read function at most once per returned tuple and caches
// the result for the following Next.
type BaseIterator struct {
	nextTuple    *tuple.Tuple
	opened       bool
	done         bool
	readNextFunc ReadNextFunc
}

// NewBaseIterator creates a closed iterator around readNextFunc.
func NewBaseIterator(readNextFunc ReadNextFunc) *BaseIterator {
	return &BaseIterator{readNextFunc: readNextFunc}
}

// HasNext checks if there is a next tuple available without consuming it.
func (it *BaseIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, notOpened()
	}
	if err := it.fill(); err != nil {
		return false, err
	}
	return it.nextTuple != nil, nil
}

// Next returns the cached tuple or reads a new one. At the end of the stream
// it returns (nil, nil).
func (it *BaseIterator) Next() (*tuple.Tuple, error) {
	if !it.opened {
		return nil, notOpened()
	}
	if err := it.fill(); err != nil {
		return nil, err
	}

	result := it.nextTuple
	it.nextTuple = nil
	return result, nil
}

func (it *BaseIterator) fill() error {
	if it.nextTuple != nil || it.done {
		return nil
	}
	t, err := it.readNextFunc()
	if err != nil {
		return err
	}
	if t == nil {
		it.done = true
	}
	it.nextTuple = t
	return nil
}

// Close clears the cache and marks the iterator closed.
func (it *BaseIterator) Close() error {
	it.nextTuple = nil
	it.opened = false
	it.done = false
	return nil
}

// MarkOpened marks the iterator as opened and ready for use.
func (it *BaseIterator) MarkOpened() {
	it.opened = true
	it.nextTuple = nil
	it.done = false
}

// ClearCache drops the lookahead tuple, used when the operator rewinds.
func (it *BaseIterator) ClearCache() {
	it.nextTuple = nil
	it.done = false
}

func (it *BaseIterator) IsOpened() bool { return it.opened }

func notOpened() error {
	return dberror.New(dberror.ErrCategoryExecution, dberror.CodeIteratorNotOpened, "iterator not opened")
}
