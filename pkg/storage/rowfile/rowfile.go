// Package rowfile reads and writes streams of rows in the tuple row codec,
// optionally compressed. Sort runs, hash join partitions and the file
// store all use it.
package rowfile

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"sqlcore/pkg/config"
	dberror "sqlcore/pkg/error"
	"sqlcore/pkg/tuple"
	"sqlcore/pkg/types"
)

// Writer appends rows to a file.
type Writer struct {
	path string
	file *os.File
	buf  *bufio.Writer

	// compressor sits between buf and file; nil when uncompressed.
	compressor io.WriteCloser

	rows   int64
	size   int64
	closed bool
}

// Create truncates or creates path and returns a writer using codec.
func Create(path string, codec config.SpillCodec) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "rowfile.Create", "storage")
	}

	w := &Writer{path: path, file: f}
	var dst io.Writer = f
	switch codec {
	case config.CodecSnappy:
		w.compressor = snappy.NewBufferedWriter(f)
		dst = w.compressor
	case config.CodecZstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, dberror.Wrap(err, dberror.CodeSpill, "rowfile.Create", "storage")
		}
		w.compressor = enc
		dst = enc
	case config.CodecNone, "":
	default:
		_ = f.Close()
		return nil, dberror.Newf(dberror.ErrCategoryExecution, dberror.CodeSpill, "unknown codec %q", codec)
	}
	w.buf = bufio.NewWriter(dst)
	return w, nil
}

// CreateTemp creates a new uniquely named file in dir, as os.CreateTemp
// does, and returns a writer on it. The caller removes the file.
func CreateTemp(dir, pattern string, codec config.SpillCodec) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "rowfile.CreateTemp", "storage")
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "rowfile.CreateTemp", "storage")
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return nil, dberror.Wrap(err, dberror.CodeSpill, "rowfile.CreateTemp", "storage")
	}

	w, err := Create(path, codec)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return w, nil
}

func (w *Writer) Write(row []types.Field) error {
	if err := tuple.EncodeFields(w.buf, row); err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "rowfile.Write", "storage")
	}
	w.rows++
	return nil
}

func (w *Writer) WriteTuple(t *tuple.Tuple) error {
	return w.Write(t.Fields())
}

// Close flushes all layers and closes the file. Size is valid afterwards.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	err := w.buf.Flush()
	if w.compressor != nil {
		err = errors.CombineErrors(err, w.compressor.Close())
	}
	if info, serr := w.file.Stat(); serr == nil {
		w.size = info.Size()
	}
	err = errors.CombineErrors(err, w.file.Close())
	if err != nil {
		return dberror.Wrap(err, dberror.CodeSpill, "rowfile.Close", "storage")
	}
	return nil
}

func (w *Writer) Path() string { return w.path }
func (w *Writer) Rows() int64  { return w.rows }

// Size is the number of bytes on disk after Close.
func (w *Writer) Size() int64 { return w.size }

// Reader reads rows written by a Writer with the same codec.
type Reader struct {
	file         *os.File
	buf          *bufio.Reader
	decompressor *zstd.Decoder
}

// Open reads the byte range [offset, offset+length) of path. A length of
// zero or less reads to the end of the file.
func Open(path string, codec config.SpillCodec, offset, length int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "rowfile.Open", "storage")
	}
	if length <= 0 {
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, dberror.Wrap(err, dberror.CodeStorage, "rowfile.Open", "storage")
		}
		length = info.Size() - offset
	}

	r := &Reader{file: f}
	var src io.Reader = io.NewSectionReader(f, offset, length)
	switch codec {
	case config.CodecSnappy:
		src = snappy.NewReader(src)
	case config.CodecZstd:
		dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, dberror.Wrap(err, dberror.CodeStorage, "rowfile.Open", "storage")
		}
		r.decompressor = dec
		src = dec
	}
	r.buf = bufio.NewReader(src)
	return r, nil
}

// ReadNext returns the next row or io.EOF.
func (r *Reader) ReadNext() ([]types.Field, error) {
	row, err := tuple.DecodeFields(r.buf)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, dberror.Wrap(err, dberror.CodeStorage, "rowfile.ReadNext", "storage")
	}
	return row, nil
}

func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	if r.decompressor != nil {
		r.decompressor.Close()
		r.decompressor = nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
