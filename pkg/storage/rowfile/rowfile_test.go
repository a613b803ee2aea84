package rowfile

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlcore/pkg/config"
	"sqlcore/pkg/types"
)

func TestRoundTripPerCodec(t *testing.T) {
	rows := [][]types.Field{
		{types.NewIntField(1), types.NewStringField("alice"), types.Null},
		{types.NewIntField(-7), types.NewStringField(""), types.NewFloatField(2.5)},
		{types.NewIntField(3), types.NewStringField("carol"), types.NewBoolField(true)},
	}

	for _, codec := range []config.SpillCodec{config.CodecNone, config.CodecSnappy, config.CodecZstd} {
		t.Run(string(codec), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "run.rows")

			w, err := Create(path, codec)
			require.NoError(t, err)
			for _, r := range rows {
				require.NoError(t, w.Write(r))
			}
			require.NoError(t, w.Close())
			require.NoError(t, w.Close())
			assert.Equal(t, int64(3), w.Rows())
			assert.Positive(t, w.Size())

			r, err := Open(path, codec, 0, 0)
			require.NoError(t, err)
			defer r.Close()

			for _, want := range rows {
				got, err := r.ReadNext()
				require.NoError(t, err)
				assert.True(t, types.FieldsEqual(want, got), "want %v got %v", want, got)
			}
			_, err = r.ReadNext()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestOpenByteRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.rows")

	first, err := Create(path, config.CodecNone)
	require.NoError(t, err)
	require.NoError(t, first.Write([]types.Field{types.NewIntField(1)}))
	require.NoError(t, first.Close())
	split := first.Size()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.Write([]byte{1, byte(types.IntType), 4})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	r, err := Open(path, config.CodecNone, split, 0)
	require.NoError(t, err)
	defer r.Close()

	row, err := r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "2", row[0].String())
}

func TestUnknownCodec(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "x"), "lz4")
	assert.Error(t, err)
}

func TestCreateTemp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spill")

	w, err := CreateTemp(dir, "run-*.rows", config.CodecSnappy)
	require.NoError(t, err)
	require.NoError(t, w.Write([]types.Field{types.NewIntField(1)}))
	require.NoError(t, w.Close())

	assert.Equal(t, dir, filepath.Dir(w.Path()))
	assert.Equal(t, int64(1), w.Rows())

	r, err := Open(w.Path(), config.CodecSnappy, 0, 0)
	require.NoError(t, err)
	defer r.Close()
	row, err := r.ReadNext()
	require.NoError(t, err)
	assert.Equal(t, "1", row[0].String())
}
