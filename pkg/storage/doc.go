// Package storage is the contract between the query core and the storage
// layer that owns table data.
//
// The core never reads bytes itself. A table is split into Fragments, each
// read through a RowSource opened by the Storage implementation, and query
// results are written through a Sink. Rows cross the boundary as bare field
// slices in table column order.
//
// # Implementations
//
//   - [sqlcore/pkg/storage/memstore]  – tables held in memory, used by tests
//     and the demo workload.
//   - [sqlcore/pkg/storage/filestore] – one row file per fragment in a data
//     directory, encoded with the tuple row codec.
package storage
