package binio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixed-width values
// =============================================================================

func TestWriter_LittleEndianLayout(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UInt4(0x01020304)
	w.UShort2(0x0506)
	w.UByte1(7)
	w.Bool1(true)
	require.NoError(t, w.Err())

	assert.Equal(t, []byte{4, 3, 2, 1, 6, 5, 7, 1}, buf.Bytes())
	assert.Equal(t, int64(8), w.Written())
}

func TestReader_ReadsWhatWriterWrote(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.UInt4(42)
	w.ShortString("hello")
	w.String("world, longer")
	w.Bool1(false)
	require.NoError(t, w.Err())

	r := NewReader(&buf)
	assert.Equal(t, uint32(42), r.UInt4())
	assert.Equal(t, "hello", r.ShortString())
	assert.Equal(t, "world, longer", r.String())
	assert.False(t, r.Bool1())
	require.NoError(t, r.Err())
}

func TestReader_ShortReadIsUnexpectedEOF(t *testing.T) {
	t.Parallel()
	r := NewReader(bytes.NewReader([]byte{1, 2}))
	_ = r.UInt4()
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)

	// Sticky: later reads return zero values and keep the first error.
	assert.Equal(t, uint16(0), r.UShort2())
	require.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
}

func TestWriter_ShortStringTooLong(t *testing.T) {
	t.Parallel()
	w := NewWriter(io.Discard)
	w.ShortString(strings.Repeat("x", 70000))
	require.ErrorIs(t, w.Err(), ErrStringTooLong)
}

// =============================================================================
// Header
// =============================================================================

func TestHeader_RoundTripKeepsOrder(t *testing.T) {
	t.Parallel()
	h := NewHeader()
	h.Set("Type", "asg")
	h.SetInt("APIVersion", 3)
	h.SetBool("Compressed", true)
	h.Set("Type", "asg2") // replace keeps position

	var buf bytes.Buffer
	w := NewWriter(&buf)
	h.Write(w)
	require.NoError(t, w.Err())

	got, err := ReadHeader(NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []string{"Type", "APIVersion", "Compressed"}, got.Keys())

	v, ok := got.Get("Type")
	require.True(t, ok)
	assert.Equal(t, "asg2", v)

	n, err := got.Int("APIVersion")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	b, err := got.Bool("Compressed")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = got.Int("Missing")
	assert.Error(t, err)
}

func TestReadHeader_Garbage(t *testing.T) {
	t.Parallel()
	_, err := ReadHeader(NewReader(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff})))
	assert.Error(t, err)

	_, err = ReadHeader(NewReader(bytes.NewReader(nil)))
	assert.Error(t, err)
}

// =============================================================================
// zstd container
// =============================================================================

func TestZstd_RoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	zw, err := CompressTo(&buf)
	require.NoError(t, err)

	w := NewWriter(zw)
	for i := range uint32(1000) {
		w.UInt4(i)
	}
	require.NoError(t, w.Err())
	require.NoError(t, zw.Close())
	assert.Less(t, buf.Len(), 4000)

	zr, err := DecompressFrom(&buf)
	require.NoError(t, err)
	defer zr.Close()

	r := NewReader(zr)
	for i := range uint32(1000) {
		require.Equal(t, i, r.UInt4())
	}
	require.NoError(t, r.Err())
}
