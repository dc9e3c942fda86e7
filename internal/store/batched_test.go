package store

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_NewHasUUID(t *testing.T) {
	t.Parallel()
	b := NewBatch("x", "1.3", 1)
	_, err := uuid.Parse(b.Snapshot.ID)
	require.NoError(t, err)
	assert.NotEqual(t, b.Snapshot.ID, NewBatch("x", "1.3", 1).Snapshot.ID)
}

func TestBatch_ConcurrentAdds(t *testing.T) {
	t.Parallel()
	b := NewBatch("x", "1.3", 1)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				id := uint32(i*100 + j + 1)
				b.AddNode(Node{ID: id, Kind: "Block"})
				b.AddAttr(Attr{NodeID: id, Name: "Position", Value: ""})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, b.Nodes, 800)
	assert.Len(t, b.Attrs, 800)
}

func TestCommitBatch_DuplicateNodeRollsBack(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	b := NewBatch("dup", "1.3", 1)
	b.AddNode(Node{ID: 1, Kind: "Package"})
	b.AddNode(Node{ID: 1, Kind: "Package"})

	require.Error(t, s.CommitBatch(b))

	snap, err := s.SnapshotByID(b.Snapshot.ID)
	require.NoError(t, err)
	assert.Nil(t, snap, "failed commit must not leave a snapshot row")
}
