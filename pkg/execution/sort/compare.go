package sort

import (
	"sqlcore/pkg/catalog"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/plan"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// Key orders tuples by one column position.
type Key struct {
	Column    int
	Ascending bool
}

// ResolveKeys maps logical sort keys onto column positions of schema.
func ResolveKeys(schema *catalog.Schema, keys []plan.SortKey) ([]Key, error) {
	if len(keys) == 0 {
		return nil, dberror.New(dberror.ErrCategoryPlanning, dberror.CodeUnsupported, "sort needs at least one key")
	}

	out := make([]Key, len(keys))
	for i, k := range keys {
		idx, err := schema.ColumnIndex(k.Column.Name())
		if err != nil {
			return nil, err
		}
		out[i] = Key{Column: idx, Ascending: k.Ascending}
	}
	return out, nil
}

// Comparator compares tuples key by key. NULL sorts last for ascending keys
// and first for descending ones.
type Comparator struct {
	keys []Key
	err  error
}

func NewComparator(keys []Key) *Comparator {
	return &Comparator{keys: keys}
}

// Compare returns the three-way ordering of a and b. A comparison failure is
// remembered and reported by Err; the pair is then treated as equal.
func (c *Comparator) Compare(a, b *tuple.Tuple) int {
	for _, k := range c.keys {
		r, err := types.Compare(a.Field(k.Column), b.Field(k.Column))
		if err != nil {
			if c.err == nil {
				c.err = err
			}
			return 0
		}
		if r == 0 {
			continue
		}
		if !k.Ascending {
			r = -r
		}
		return r
	}
	return 0
}

// Err returns the first comparison error seen.
func (c *Comparator) Err() error { return c.err }
