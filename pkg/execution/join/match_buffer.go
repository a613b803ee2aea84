package join

import "sqlcore/pkg/tuple"

// matchBuffer holds result rows computed ahead of the Next calls that return
// them: all matches of an outer block in outer order, or the cross
// product of two merge runs.
type matchBuffer struct {
	buffer []*tuple.Tuple
	index  int
}

func (b *matchBuffer) hasNext() bool {
	return b.index < len(b.buffer)
}

// next returns the next buffered row, or nil when the buffer is drained.
func (b *matchBuffer) next() *tuple.Tuple {
	if !b.hasNext() {
		return nil
	}
	t := b.buffer[b.index]
	b.index++
	return t
}

// startNew empties the buffer, keeping its capacity.
func (b *matchBuffer) startNew() {
	b.buffer = b.buffer[:0]
	b.index = 0
}

func (b *matchBuffer) add(t *tuple.Tuple) {
	b.buffer = append(b.buffer, t)
}

func (b *matchBuffer) reset() {
	b.buffer = nil
	b.index = 0
}
