package types

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Reader is what Deserialize needs from its source; *bufio.Reader satisfies it.
type Reader interface {
	io.Reader
	io.ByteReader
}

// Deserialize reads one field written by Field.Serialize.
func Deserialize(r Reader) (Field, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch Type(tag) {
	case NullType:
		return Null, nil

	case IntType:
		v, err := binary.ReadVarint(r)
		if err != nil {
			return nil, unexpected(err)
		}
		return NewIntField(v), nil

	case FloatType:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, unexpected(err)
		}
		return NewFloatField(math.Float64frombits(binary.BigEndian.Uint64(buf[:]))), nil

	case StringType:
		n, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, unexpected(err)
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, unexpected(err)
		}
		return NewStringField(string(buf)), nil

	case BoolType:
		b, err := r.ReadByte()
		if err != nil {
			return nil, unexpected(err)
		}
		return NewBoolField(b == 1), nil

	default:
		return nil, fmt.Errorf("unknown field type tag %d", tag)
	}
}

// a truncated value is never a clean end of stream
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
