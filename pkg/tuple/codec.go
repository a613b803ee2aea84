package tuple

import (
	"encoding/binary"
	"fmt"
	"io"

	"sqlcore/pkg/catalog"
	"sqlcore/pkg/types"
)

// Encode writes t as a uvarint field count followed by each serialized field.
func Encode(w io.Writer, t *Tuple) error {
	return EncodeFields(w, t.fields)
}

// EncodeFields writes a bare row in the Encode format.
func EncodeFields(w io.Writer, fields []types.Field) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(fields)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}

	for _, f := range fields {
		if f == nil {
			f = types.Null
		}
		if err := f.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads one tuple written by Encode and attaches schema. It returns
// io.EOF at a clean end of stream.
func Decode(r types.Reader, schema *catalog.Schema) (*Tuple, error) {
	fields, err := DecodeFields(r)
	if err != nil {
		return nil, err
	}
	if len(fields) != schema.NumColumns() {
		return nil, fmt.Errorf("encoded tuple has %d fields, schema expects %d", len(fields), schema.NumColumns())
	}
	return &Tuple{Schema: schema, fields: fields}, nil
}

// DecodeFields reads one row written by EncodeFields. It returns io.EOF at a
// clean end of stream and io.ErrUnexpectedEOF for a truncated row.
func DecodeFields(r types.Reader) ([]types.Field, error) {
	count, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, err
	}

	fields := make([]types.Field, count)
	for i := range fields {
		f, err := types.Deserialize(r)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
		fields[i] = f
	}
	return fields, nil
}
