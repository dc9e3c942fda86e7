package asg

import (
	"fmt"
	"slices"
)

type revKey struct {
	target NodeID
	edge   EdgeKind
}

// reverseIndex maps (target, edge kind) to the sources pointing at target,
// in the order the edges were created. A source appears once per forward
// edge instance.
type reverseIndex struct {
	m map[revKey][]NodeID
}

func newReverseIndex() *reverseIndex {
	return &reverseIndex{m: make(map[revKey][]NodeID)}
}

func (ri *reverseIndex) add(target NodeID, e EdgeKind, src NodeID) {
	k := revKey{target, e}
	ri.m[k] = append(ri.m[k], src)
}

func (ri *reverseIndex) remove(target NodeID, e EdgeKind, src NodeID) {
	k := revKey{target, e}
	list := ri.m[k]
	idx := slices.Index(list, src)
	if idx < 0 {
		return
	}
	list = slices.Delete(list, idx, idx+1)
	if len(list) == 0 {
		delete(ri.m, k)
		return
	}
	ri.m[k] = list
}

func (ri *reverseIndex) get(target NodeID, e EdgeKind) []NodeID {
	return ri.m[revKey{target, e}]
}

func (ri *reverseIndex) dropTarget(target NodeID) {
	for e := EdgeNone + 1; e < numEdges; e++ {
		delete(ri.m, revKey{target, e})
	}
}

// HasReverseEdges reports whether the reverse index is maintained.
func (f *Factory) HasReverseEdges() bool { return f.reverse != nil }

// EnableReverseEdges builds the reverse index with one pass over every
// forward edge and keeps it up to date from then on. Calling it again
// rebuilds the index from scratch.
func (f *Factory) EnableReverseEdges() {
	ri := newReverseIndex()
	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		for i, e := range layouts[r.kind].edges {
			for _, t := range r.edges[i] {
				ri.add(t, e, r.id)
			}
		}
	}
	f.reverse = ri
}

// DisableReverseEdges drops the reverse index.
func (f *Factory) DisableReverseEdges() { f.reverse = nil }

// ReverseEdges returns the sources having an edge of kind e into target.
// Sources excluded by the filter are left out.
func (f *Factory) ReverseEdges(target NodeID, e EdgeKind) ([]NodeID, error) {
	if f.reverse == nil {
		return nil, fmt.Errorf("asg: reverse %s of %d: %w", e, target, ErrReverseEdgesNotEnabled)
	}
	if _, err := f.lookup(target); err != nil {
		return nil, err
	}
	var out []NodeID
	for _, s := range f.reverse.get(target, e) {
		if !f.IsFiltered(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// AllReverseEdges returns, per edge kind, every source pointing at target.
func (f *Factory) AllReverseEdges(target NodeID) (map[EdgeKind][]NodeID, error) {
	if f.reverse == nil {
		return nil, fmt.Errorf("asg: reverse edges of %d: %w", target, ErrReverseEdgesNotEnabled)
	}
	r, err := f.lookup(target)
	if err != nil {
		return nil, err
	}
	out := make(map[EdgeKind][]NodeID)
	for _, e := range PossibleReverseEdges(r.kind) {
		srcs, _ := f.ReverseEdges(target, e)
		if len(srcs) > 0 {
			out[e] = srcs
		}
	}
	return out, nil
}
