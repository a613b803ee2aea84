package types

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserialize(t *testing.T) {
	fields := []Field{
		NewIntField(-42),
		NewIntField(1 << 40),
		NewFloatField(3.25),
		NewStringField(""),
		NewStringField("hello, world"),
		NewBoolField(true),
		NewBoolField(false),
		Null,
	}

	var buf bytes.Buffer
	for _, f := range fields {
		require.NoError(t, f.Serialize(&buf))
	}

	r := bufio.NewReader(&buf)
	for _, want := range fields {
		got, err := Deserialize(r)
		require.NoError(t, err)
		assert.Equal(t, want.Type(), got.Type())
		assert.Equal(t, want.String(), got.String())
	}

	_, err := Deserialize(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestDeserializeTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewStringField("truncated").Serialize(&buf))
	data := buf.Bytes()[:buf.Len()-3]

	_, err := Deserialize(bufio.NewReader(bytes.NewReader(data)))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
