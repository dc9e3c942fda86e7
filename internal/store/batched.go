package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Batch buffers the rows of one snapshot in memory so an export can be
// collected first and written by CommitBatch in a single transaction.
//
// Thread safety: the mutex protects the slice appends, so several
// goroutines may fill one batch.
type Batch struct {
	mu sync.Mutex

	Snapshot Snapshot
	Nodes    []Node
	Attrs    []Attr
	Edges    []Edge
	Metadata map[string]string
}

// NewBatch starts a snapshot with a fresh id.
func NewBatch(name, apiVersion string, rootID uint32) *Batch {
	return &Batch{
		Snapshot: Snapshot{
			ID:         uuid.New().String(),
			Name:       name,
			CreatedAt:  time.Now().UTC().Truncate(time.Second),
			APIVersion: apiVersion,
			RootID:     rootID,
		},
		Metadata: make(map[string]string),
	}
}

func (b *Batch) AddNode(n Node) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Nodes = append(b.Nodes, n)
}

func (b *Batch) AddAttr(a Attr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Attrs = append(b.Attrs, a)
}

func (b *Batch) AddEdge(e Edge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Edges = append(b.Edges, e)
}

func (b *Batch) SetMetadata(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Metadata[key] = value
}
