package asg

import (
	"fmt"

	"github.com/jward/asg/internal/store"
)

// ExportSnapshot writes every live node of f, filtered ones included and
// marked as such, into a new snapshot of s and returns its id.
func ExportSnapshot(s *store.Store, f *Factory, name string) (string, error) {
	b := store.NewBatch(name, APIVersion, uint32(f.root))
	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		n := store.Node{
			ID:       uint32(r.id),
			Kind:     r.kind.String(),
			ParentID: uint32(r.parent),
			Filtered: f.filter.state(r.id) == Filtered,
		}
		if r.parent != 0 {
			n.ParentEdge = r.parentEdge.String()
		}
		b.AddNode(n)

		for _, a := range layouts[r.kind].attrs {
			v, err := f.GetAttr(r.id, a)
			if err != nil {
				return "", fmt.Errorf("asg: export %s: %w", name, err)
			}
			b.AddAttr(store.Attr{NodeID: uint32(r.id), Name: a.String(), Value: FormatValue(a, v)})
		}
		for i, e := range layouts[r.kind].edges {
			for j, t := range r.edges[i] {
				edge := store.Edge{SourceID: uint32(r.id), Edge: e.String(), Ordinal: j, TargetID: uint32(t)}
				if e.HasPayload() {
					edge.Payload = r.payloads[i][j]
				}
				b.AddEdge(edge)
			}
		}
	}
	b.SetMetadata("strings", fmt.Sprint(f.strs.Len()))
	b.SetMetadata("max_id", fmt.Sprint(f.MaxID()))

	if err := s.CommitBatch(b); err != nil {
		return "", fmt.Errorf("asg: export %s: %w", name, err)
	}
	f.logger.Debug("exported snapshot")
	return b.Snapshot.ID, nil
}

// ImportSnapshot rebuilds the Factory stored as snapshot id. Node ids are
// preserved.
func ImportSnapshot(s *store.Store, id string, opts ...Option) (*Factory, error) {
	snap, err := s.SnapshotByID(id)
	if err != nil {
		return nil, fmt.Errorf("asg: import %s: %w", id, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("asg: import %s: no such snapshot: %w", id, ErrInvalidNodeID)
	}
	if snap.APIVersion != APIVersion {
		return nil, fmt.Errorf("asg: import %s: api version %q: %w", id, snap.APIVersion, ErrSchemaVersionMismatch)
	}

	nodes, err := s.SnapshotNodes(id)
	if err != nil {
		return nil, fmt.Errorf("asg: import %s: %w", id, err)
	}
	attrs, err := s.SnapshotAttrs(id)
	if err != nil {
		return nil, fmt.Errorf("asg: import %s: %w", id, err)
	}
	edges, err := s.SnapshotEdges(id)
	if err != nil {
		return nil, fmt.Errorf("asg: import %s: %w", id, err)
	}

	f := newFactory(opts...)
	wantReverse := f.reverse != nil
	f.reverse = nil

	for _, n := range nodes {
		kind, ok := ParseNodeKind(n.Kind)
		if !ok || kind.IsAbstract() {
			return nil, fmt.Errorf("asg: import %s: node %d kind %q: %w", id, n.ID, n.Kind, ErrCorruptFile)
		}
		if n.ID > maxLoadID {
			return nil, fmt.Errorf("asg: import %s: node id %d: %w", id, n.ID, ErrCorruptFile)
		}
		if _, err := f.allocAt(NodeID(n.ID), kind); err != nil {
			return nil, fmt.Errorf("asg: import %s: %w: %v", id, ErrCorruptFile, err)
		}
		if n.Filtered {
			f.filter.set(NodeID(n.ID), Filtered)
		}
	}

	for _, a := range attrs {
		r := f.rec(NodeID(a.NodeID))
		if r == nil {
			return nil, fmt.Errorf("asg: import %s: attribute of missing node %d: %w", id, a.NodeID, ErrCorruptFile)
		}
		kind, ok := AttrByName(r.kind, a.Name)
		if !ok {
			return nil, fmt.Errorf("asg: import %s: %s has no attribute %q: %w", id, r.kind, a.Name, ErrCorruptFile)
		}
		v, err := ParseValue(kind, a.Value)
		if err != nil {
			return nil, fmt.Errorf("asg: import %s: node %d: %w: %v", id, a.NodeID, ErrCorruptFile, err)
		}
		if err := f.SetAttr(r.id, kind, v); err != nil {
			return nil, fmt.Errorf("asg: import %s: %w: %v", id, ErrCorruptFile, err)
		}
	}

	for _, e := range edges {
		src, dst := f.rec(NodeID(e.SourceID)), f.rec(NodeID(e.TargetID))
		kind, ok := ParseEdgeKind(e.Edge)
		if src == nil || dst == nil || !ok || !HasEdge(src.kind, kind) || !kind.Accepts(dst.kind) {
			return nil, fmt.Errorf("asg: import %s: edge %s %d -> %d: %w", id, e.Edge, e.SourceID, e.TargetID, ErrCorruptFile)
		}
		if !kind.ValidPayload(e.Payload) {
			return nil, fmt.Errorf("asg: import %s: %s of node %d has payload %d: %w", id, kind, src.id, e.Payload, ErrCorruptFile)
		}
		if kind.IsOwnership() && dst.parent != 0 {
			return nil, fmt.Errorf("asg: import %s: node %d owned twice: %w", id, dst.id, ErrCorruptFile)
		}
		if !kind.IsMany() && len(src.edges[src.slot(kind)]) > 0 {
			return nil, fmt.Errorf("asg: import %s: %s of node %d set twice: %w", id, kind, src.id, ErrCorruptFile)
		}
		f.link(src, kind, dst, e.Payload)
	}

	f.root = NodeID(snap.RootID)
	if r := f.rec(f.root); r == nil || r.kind != KindPackage || r.parent != 0 {
		return nil, fmt.Errorf("asg: import %s: bad root %d: %w", id, snap.RootID, ErrCorruptFile)
	}
	f.rebuildFreeList()
	if wantReverse {
		f.EnableReverseEdges()
	}
	return f, nil
}
