package asg

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/asg/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "asg.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate())
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	s := newSample(t)
	s.main.SetPosition(Range{Path: "p/main.go", Line: 1, Col: 1, EndLine: 3, EndCol: 2})
	require.NoError(t, s.main.AddCall(s.area, CallKindVirtual))
	require.NoError(t, s.f.Filter().SetFiltered(s.shape.ID()))

	id, err := ExportSnapshot(st, s.f, "sample")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := st.SnapshotByName("sample")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, APIVersion, snap.APIVersion)

	got, err := ImportSnapshot(st, id, WithReverseEdges())
	require.NoError(t, err)

	// Filtered nodes are exported too and keep their mark.
	assert.True(t, got.IsFiltered(s.shape.ID()))
	assert.True(t, got.IsFiltered(s.area.ID()))
	assert.Equal(t, s.f.Filter().Count(), got.Filter().Count())

	restore := got.Filter().TurnOffSafely()
	off := s.f.Filter().TurnOffSafely()
	sameGraph(t, s.f, got)
	off()
	restore()

	reverseConsistent(t, got)
	assert.Equal(t, s.main.Position(), got.view(s.main.ID()).(*Method).Position())
}

func TestSnapshot_Metadata(t *testing.T) {
	t.Parallel()
	st := newStore(t)
	s := newSample(t)

	id, err := ExportSnapshot(st, s.f, "meta")
	require.NoError(t, err)
	md, err := st.Metadata(id)
	require.NoError(t, err)
	assert.Equal(t, "18", md["max_id"])
	assert.NotEmpty(t, md["strings"])

	methods, err := st.NodesByKind(id, "Method")
	require.NoError(t, err)
	assert.Len(t, methods, 3)

	callers, err := st.IncomingEdges(id, uint32(s.helper.ID()))
	require.NoError(t, err)
	assert.Len(t, callers, 4)
}

func TestSnapshot_ImportErrors(t *testing.T) {
	t.Parallel()
	st := newStore(t)

	_, err := ImportSnapshot(st, "missing")
	assert.ErrorIs(t, err, ErrInvalidNodeID)

	b := store.NewBatch("old", "0.9", 1)
	b.AddNode(store.Node{ID: 1, Kind: "Package"})
	require.NoError(t, st.CommitBatch(b))
	_, err = ImportSnapshot(st, b.Snapshot.ID)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)

	bad := store.NewBatch("bad", APIVersion, 1)
	bad.AddNode(store.Node{ID: 1, Kind: "Package"})
	bad.AddNode(store.Node{ID: 2, Kind: "Parameter"})
	bad.AddEdge(store.Edge{SourceID: 1, Edge: "Package.Members", TargetID: 2})
	require.NoError(t, st.CommitBatch(bad))
	_, err = ImportSnapshot(st, bad.Snapshot.ID)
	assert.ErrorIs(t, err, ErrCorruptFile, "a parameter is not a package member")

	calls := store.NewBatch("calls", APIVersion, 1)
	calls.AddNode(store.Node{ID: 1, Kind: "Package"})
	calls.AddNode(store.Node{ID: 2, Kind: "Method"})
	calls.AddEdge(store.Edge{SourceID: 1, Edge: "Package.Members", TargetID: 2})
	calls.AddEdge(store.Edge{SourceID: 2, Edge: "Method.Calls", TargetID: 2, Payload: 256})
	require.NoError(t, st.CommitBatch(calls))
	_, err = ImportSnapshot(st, calls.Snapshot.ID)
	assert.ErrorIs(t, err, ErrCorruptFile, "call kind out of range")

	huge := store.NewBatch("huge", APIVersion, 1)
	huge.AddNode(store.Node{ID: 1, Kind: "Package"})
	huge.AddNode(store.Node{ID: 0xfffffff0, Kind: "Method"})
	require.NoError(t, st.CommitBatch(huge))
	_, err = ImportSnapshot(st, huge.Snapshot.ID)
	assert.ErrorIs(t, err, ErrCorruptFile, "node id above the load ceiling")
}
