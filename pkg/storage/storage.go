package storage

import (
	"fmt"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

// UnknownRows marks a fragment whose row count is not known up front.
const UnknownRows int64 = -1

// Fragment describes one split of a table's storage assigned to a single
// scan. The core treats it as opaque apart from Table and Rows.
type Fragment struct {
	ID     string
	Table  string
	Path   string
	Offset int64
	Length int64

	// Rows is the number of rows in the fragment, or UnknownRows.
	Rows int64
}

func (f Fragment) String() string {
	return fmt.Sprintf("%s[%s %d+%d]", f.ID, f.Path, f.Offset, f.Length)
}

// RowSource reads the rows of one fragment.
type RowSource interface {
	// ReadNext returns the next row, or io.EOF once the fragment is
	// exhausted.
	ReadNext() ([]types.Field, error)

	Close() error
}

// Sink receives materialized rows for a table. Rows become visible to scans
// once Close returns without error.
type Sink interface {
	Write(row []types.Field) error
	Close() error
}

// Storage is implemented by the storage layer. Implementations must be safe
// for concurrent use by independent queries.
type Storage interface {
	// Fragments lists the splits of table in scan order.
	Fragments(table string) ([]Fragment, error)

	// OpenScan opens a reader over fragment.
	OpenScan(fragment Fragment) (RowSource, error)

	// Sink opens a writer appending to table, creating the table with
	// schema when it does not exist.
	Sink(table string, schema *catalog.Schema) (Sink, error)
}

// TotalRows sums the row counts of fragments. It returns UnknownRows when
// any fragment's count is unknown.
func TotalRows(fragments []Fragment) int64 {
	var total int64
	for _, f := range fragments {
		if f.Rows < 0 {
			return UnknownRows
		}
		total += f.Rows
	}
	return total
}
