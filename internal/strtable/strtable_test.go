package strtable

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg/internal/binio"
)

func TestSet_InternsOnce(t *testing.T) {
	t.Parallel()
	tbl := New()

	a := tbl.Set("alpha")
	b := tbl.Set("beta")
	again := tbl.Set("alpha")

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, Key(0), tbl.Set(""))
	assert.Equal(t, 3, tbl.Len())

	s, ok := tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, "beta", s)

	_, ok = tbl.Get(99)
	assert.False(t, ok)
	assert.Equal(t, "", tbl.String(99))
}

func TestLookup_DoesNotInsert(t *testing.T) {
	t.Parallel()
	tbl := New()
	_, ok := tbl.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, tbl.Len())
}

func TestDelete_KeyNotReused(t *testing.T) {
	t.Parallel()
	tbl := New()
	a := tbl.Set("a")
	tbl.Delete(a)
	assert.False(t, tbl.Contains(a))

	b := tbl.Set("b")
	assert.NotEqual(t, a, b)

	tbl.Delete(0)
	assert.True(t, tbl.Contains(0))
}

func TestTypes(t *testing.T) {
	t.Parallel()
	tbl := New()
	a := tbl.Set("a")
	b := tbl.Set("b")
	tbl.SetType(a, TypeToSave)
	tbl.SetType(b, TypeTmp)
	assert.Equal(t, TypeToSave, tbl.Type(a))

	tbl.ResetTypes(TypeToSave, TypeDefault)
	assert.Equal(t, TypeDefault, tbl.Type(a))
	assert.Equal(t, TypeTmp, tbl.Type(b))
	assert.Equal(t, "tmp", TypeTmp.String())
}

// =============================================================================
// Save / Load
// =============================================================================

func saveLoad(t *testing.T, src *Table, mode SaveMode) *Table {
	t.Helper()
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	src.Save(w, mode)
	require.NoError(t, w.Err())

	dst := New()
	require.NoError(t, dst.Load(binio.NewReader(&buf)))
	return dst
}

func TestSaveLoad_PreservesKeys(t *testing.T) {
	t.Parallel()
	src := New()
	keys := map[string]Key{}
	for _, s := range []string{"main", "fmt", "Println", "x"} {
		keys[s] = src.Set(s)
	}

	dst := saveLoad(t, src, SaveAll)
	for s, k := range keys {
		got, ok := dst.Get(k)
		require.True(t, ok, s)
		assert.Equal(t, s, got)
	}
	assert.Equal(t, src.Len(), dst.Len())

	// New strings continue after the highest loaded key.
	next := dst.Set("new")
	assert.Greater(t, next, keys["x"])
}

func TestSaveLoad_Modes(t *testing.T) {
	t.Parallel()
	src := New()
	keep := src.Set("keep")
	tmp := src.Set("tmp")
	plain := src.Set("plain")
	src.SetType(keep, TypeToSave)
	src.SetType(tmp, TypeTmp)

	skip := saveLoad(t, src, SaveSkipTmp)
	assert.True(t, skip.Contains(keep))
	assert.True(t, skip.Contains(plain))
	assert.False(t, skip.Contains(tmp))

	marked := saveLoad(t, src, SaveMarked)
	assert.True(t, marked.Contains(keep))
	assert.False(t, marked.Contains(plain))
	assert.False(t, marked.Contains(tmp))
	assert.Equal(t, []Key{0, keep}, marked.Keys())
}

func TestLoad_BadMagic(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.ShortString("NOPE")
	require.NoError(t, w.Err())

	err := New().Load(binio.NewReader(&buf))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_Truncated(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.ShortString(Magic)
	w.UInt4(5)
	require.NoError(t, w.Err())

	err := New().Load(binio.NewReader(&buf))
	require.Error(t, err)
}

func TestLoad_DuplicateKey(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := binio.NewWriter(&buf)
	w.ShortString(Magic)
	w.UInt4(3)
	w.String("a")
	w.UInt4(3)
	w.String("b")
	w.UInt4(0)
	require.NoError(t, w.Err())

	err := New().Load(binio.NewReader(&buf))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadLimit_RejectsKeysOutOfRange(t *testing.T) {
	t.Parallel()
	section := func(keys ...uint32) *bytes.Buffer {
		var buf bytes.Buffer
		w := binio.NewWriter(&buf)
		w.ShortString(Magic)
		for _, k := range keys {
			w.UInt4(k)
			w.String(fmt.Sprint("s", k))
		}
		w.UInt4(0)
		require.NoError(t, w.Err())
		return &buf
	}

	tests := []struct {
		name  string
		keys  []uint32
		limit Key
	}{
		{"at limit", []uint32{1, 4}, 4},
		{"huge key", []uint32{0xfffffff0}, MaxKeys * 4},
		{"descending", []uint32{3, 2}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tbl := New()
			err := tbl.LoadLimit(binio.NewReader(section(tt.keys...)), tt.limit)
			require.ErrorIs(t, err, ErrCorrupt)
			assert.LessOrEqual(t, int(tbl.Limit()), 4, "no growth past the bad key")
		})
	}

	tbl := New()
	require.NoError(t, tbl.LoadLimit(binio.NewReader(section(1, 3)), 4))
	assert.Equal(t, Key(4), tbl.Limit())
}
