package join

import (
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/iterator"
	"sqlcore/pkg/metrics"
	"sqlcore/pkg/tuple"
)

// BlockNestedLoopJoin implements a block nested loop join.
//
// A block of up to blockSize outer tuples is loaded into memory, then the
// inner input is scanned once and every inner tuple is checked against the
// whole block. Matches are collected per outer tuple and released in outer
// order once the inner input is exhausted, so the output order is the same
// as NestedLoopJoin's. Then the next block is loaded and the inner input
// rewound.
//
// Time complexity: O(|R| * |S| / B) inner reads where B is the block size.
type BlockNestedLoopJoin struct {
	*iterator.BinaryOperator
	cond      *Condition
	out       *output
	blockSize int

	block   []*tuple.Tuple
	pending [][]*tuple.Tuple // matches of block[i], in inner order
	matches matchBuffer
	loaded  bool
}

func NewBlockNestedLoopJoin(outer, inner iterator.DbIterator, cond *Condition, blockSize int, opts Options) (*BlockNestedLoopJoin, error) {
	if blockSize <= 0 {
		return nil, dberror.Newf(dberror.ErrCategoryPlanning, dberror.CodeInvalidConfig,
			"block size must be positive, got %d", blockSize)
	}
	out, err := newOutput(cond, opts.Targets)
	if err != nil {
		return nil, err
	}

	j := &BlockNestedLoopJoin{cond: cond, out: out, blockSize: blockSize}
	op, err := iterator.NewBinaryOperator(outer, inner, out.schema, j.readNext)
	if err != nil {
		return nil, err
	}
	j.BinaryOperator = op
	return j, nil
}

func (j *BlockNestedLoopJoin) readNext() (*tuple.Tuple, error) {
	for {
		if t := j.matches.next(); t != nil {
			metrics.TuplesEmitted.WithLabelValues("BlockNestedLoopJoin").Inc()
			return t, nil
		}

		if !j.loaded {
			if err := j.loadNextBlock(); err != nil {
				return nil, err
			}
			if len(j.block) == 0 {
				return nil, nil
			}
		}

		if err := j.processNextInner(); err != nil {
			return nil, err
		}
	}
}

// loadNextBlock reads the next block of outer tuples and rewinds the inner
// input for it.
func (j *BlockNestedLoopJoin) loadNextBlock() error {
	block, err := iterator.Take(j.Outer(), j.blockSize)
	if err != nil {
		return err
	}
	j.block = block
	j.pending = make([][]*tuple.Tuple, len(block))
	j.loaded = true
	if len(block) == 0 {
		return nil
	}
	return j.Inner().Rewind()
}

// processNextInner matches the next inner tuple against the current block.
// When the inner input is exhausted the block's matches move to the match
// buffer and the block is released.
func (j *BlockNestedLoopJoin) processNextInner() error {
	inner, err := j.FetchInner()
	if err != nil {
		return err
	}
	if inner == nil {
		j.flushBlock()
		return nil
	}

	for i, outer := range j.block {
		merged, err := j.out.combine(outer, inner)
		if err != nil {
			return err
		}
		ok, err := j.cond.Matches(merged)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		row, err := j.out.project(merged)
		if err != nil {
			return err
		}
		j.pending[i] = append(j.pending[i], row)
	}
	return nil
}

func (j *BlockNestedLoopJoin) flushBlock() {
	j.matches.startNew()
	for _, rows := range j.pending {
		for _, row := range rows {
			j.matches.add(row)
		}
	}
	j.block = nil
	j.pending = nil
	j.loaded = false
}

func (j *BlockNestedLoopJoin) Rewind() error {
	j.block = nil
	j.pending = nil
	j.loaded = false
	j.matches.reset()
	return j.BinaryOperator.Rewind()
}

func (j *BlockNestedLoopJoin) Close() error {
	j.block = nil
	j.pending = nil
	j.loaded = false
	j.matches.reset()
	return j.BinaryOperator.Close()
}
