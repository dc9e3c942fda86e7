package asg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg/internal/binio"
	"github.com/jward/asg/internal/strtable"
)

// sameGraph compares two factories node by node through their public view.
func sameGraph(t *testing.T, want, got *Factory) {
	t.Helper()
	ws, gs := want.Stats(), got.Stats()
	assert.Equal(t, ws.Nodes, gs.Nodes)
	assert.Equal(t, ws.ByKind, gs.ByKind)
	assert.Equal(t, ws.ByEdge, gs.ByEdge)
	assert.Equal(t, want.RootID(), got.RootID())

	for n := range want.Nodes() {
		m, err := got.Node(n.ID())
		require.NoError(t, err)
		require.Equal(t, n.Kind(), m.Kind(), "node %d", n.ID())
		for _, a := range AttrsOf(n.Kind()) {
			wv, err := want.GetAttr(n.ID(), a)
			require.NoError(t, err)
			gv, err := got.GetAttr(n.ID(), a)
			require.NoError(t, err)
			assert.Equal(t, wv, gv, "node %d %s", n.ID(), a)
		}
		for _, e := range EdgesOf(n.Kind()) {
			wt, err := want.EdgeTargets(n.ID(), e)
			require.NoError(t, err)
			gt, err := got.EdgeTargets(n.ID(), e)
			require.NoError(t, err)
			assert.Equal(t, wt, gt, "node %d %s", n.ID(), e)
		}
		if p := n.Parent(); p != nil {
			assert.Equal(t, p.ID(), m.Parent().ID())
		}
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, compress := range []bool{true, false} {
		t.Run(map[bool]string{true: "zstd", false: "plain"}[compress], func(t *testing.T) {
			t.Parallel()
			s := newSample(t)
			s.helper.SetPosition(Range{Path: "p/helper.go", Line: 4, Col: 1, EndLine: 6, EndCol: 2})
			s.helper.SetVisibility(VisibilityPrivate)
			require.NoError(t, s.main.AddCall(s.area, CallKindVirtual))

			var buf bytes.Buffer
			require.NoError(t, s.f.Save(&buf, WithCompression(compress), WithHeaderEntry("Tool", "asg-test")))

			h, err := ReadHeader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			tool, ok := h.Get("Tool")
			require.True(t, ok)
			assert.Equal(t, "asg-test", tool)
			v, _ := h.Get("APIVersion")
			assert.Equal(t, APIVersion, v)

			got, err := Load(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			sameGraph(t, s.f, got)
			assert.Equal(t, Hash(s.pkg), Hash(got.Root().Members()[0]))

			// Loaded factories accept new nodes without id clashes.
			fresh := got.NewMethod("later", MethodKindFunction)
			assert.Greater(t, fresh.ID(), s.note.ID())
		})
	}
}

func TestSave_ReservedHeaderKeys(t *testing.T) {
	t.Parallel()
	f := New()
	var buf bytes.Buffer
	require.NoError(t, f.Save(&buf, WithHeaderEntry("APIVersion", "0.1")))

	h, err := ReadHeader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	v, _ := h.Get("APIVersion")
	assert.Equal(t, APIVersion, v)
	_, err = Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
}

func TestSave_DropsFiltered(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	require.NoError(t, s.f.Filter().SetFiltered(s.helper.ID()))
	require.NoError(t, s.f.Filter().SetFilteredThisNodeOnly(s.f.RootID()))

	var buf bytes.Buffer
	require.NoError(t, s.f.Save(&buf))
	got, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, s.f.Len()-7, got.Len())
	assert.True(t, got.Exists(got.RootID()), "root is always written")
	assert.False(t, got.Exists(s.helper.ID()))
	assert.False(t, got.Exists(s.x.ID()))

	main := got.view(s.main.ID()).(*Method)
	assert.Empty(t, main.Calls())
	call := got.view(s.call.ID()).(*Call)
	assert.Nil(t, call.Invokes())

	// Strings used only by dropped nodes are not written.
	_, ok := got.StringTable().Lookup("helper")
	assert.True(t, ok, "still used by the callee identifier")
	_, ok = got.StringTable().Lookup("x")
	assert.False(t, ok)
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	header := func(set func(h *binio.Header)) []byte {
		var buf bytes.Buffer
		h := binio.NewHeader()
		h.Set("Type", "asg")
		h.Set("APIVersion", APIVersion)
		h.SetInt("BinaryVersion", BinaryVersion)
		h.Set("Compression", "none")
		h.Set("Root", "1")
		h.SetInt("MaxID", 1)
		h.SetInt("StringLimit", 2)
		set(h)
		w := binio.NewWriter(&buf)
		h.Write(w)
		require.NoError(t, w.Err())
		return buf.Bytes()
	}
	// withBody appends an uncompressed body to a default header.
	withBody := func(body func(w *binio.Writer)) []byte {
		buf := bytes.NewBuffer(header(func(*binio.Header) {}))
		w := binio.NewWriter(buf)
		body(w)
		require.NoError(t, w.Err())
		return buf.Bytes()
	}
	rootRecord := func(w *binio.Writer, id uint32) {
		w.UInt4(id)
		w.UShort2(uint16(KindPackage))
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrCorruptFile},
		{"wrong type", header(func(h *binio.Header) { h.Set("Type", "lim") }), ErrCorruptFile},
		{"api version", header(func(h *binio.Header) { h.Set("APIVersion", "1.2") }), ErrSchemaVersionMismatch},
		{"binary version", header(func(h *binio.Header) { h.SetInt("BinaryVersion", 1) }), ErrSchemaVersionMismatch},
		{"no root", header(func(h *binio.Header) { h.Set("Root", "") }), ErrCorruptFile},
		{"compression", header(func(h *binio.Header) { h.Set("Compression", "lz4") }), ErrCorruptFile},
		{"no body", header(func(*binio.Header) {}), ErrCorruptFile},
		{"no max id", header(func(h *binio.Header) { h.Set("MaxID", "") }), ErrCorruptFile},
		{"huge max id", header(func(h *binio.Header) { h.SetInt("MaxID", 1<<31) }), ErrCorruptFile},
		{"huge string limit", header(func(h *binio.Header) { h.SetInt("StringLimit", 1<<31) }), ErrCorruptFile},
		{"root above max id", header(func(h *binio.Header) { h.Set("Root", "2") }), ErrCorruptFile},
		{"record id above max id", withBody(func(w *binio.Writer) { rootRecord(w, 0xfffffff0) }), ErrCorruptFile},
		{"string key above limit", withBody(func(w *binio.Writer) {
			w.UInt4(0)
			w.UShort2(0)
			w.ShortString(strtable.Magic)
			w.UInt4(0xfffffff0)
			w.String("x")
			w.UInt4(0)
		}), ErrCorruptFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_Truncated(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	for _, compress := range []bool{true, false} {
		var buf bytes.Buffer
		require.NoError(t, s.f.Save(&buf, WithCompression(compress)))
		data := buf.Bytes()[:buf.Len()-5]

		_, err := Load(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrCorruptFile, "compressed=%v", compress)
	}
}

func TestLoad_PayloadOutOfRange(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	r := s.f.rec(s.main.ID())
	r.payloads[r.slot(EdgeMethodCalls)][0] = 256

	var buf bytes.Buffer
	require.NoError(t, s.f.Save(&buf))
	_, err := Load(&buf)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestSaveFile_LoadFile(t *testing.T) {
	t.Parallel()
	s := newSample(t)
	path := filepath.Join(t.TempDir(), "p.asg")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, s.f.SaveFile(path))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is renamed into place")

	got, err := LoadFile(path, WithReverseEdges())
	require.NoError(t, err)
	assert.True(t, got.HasReverseEdges())
	callers, err := got.ReverseEdges(s.helper.ID(), EdgeMethodCalls)
	require.NoError(t, err)
	assert.Equal(t, []NodeID{s.main.ID()}, callers)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.asg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
