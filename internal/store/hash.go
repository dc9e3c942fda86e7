package store

import (
	"cmp"
	"fmt"
	"slices"

	"lukechampine.com/blake3"
)

// ComputeDigest computes a deterministic hash over the rows of a snapshot.
// Row order in the batch does not matter; ids, attribute values and edge
// order do.
func ComputeDigest(nodes []Node, attrs []Attr, edges []Edge) string {
	h := blake3.New(32, nil)

	ns := slices.Clone(nodes)
	slices.SortFunc(ns, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	for _, n := range ns {
		fmt.Fprintf(h, "node:%d:%s:%d:%s:%v\n", n.ID, n.Kind, n.ParentID, n.ParentEdge, n.Filtered)
	}

	as := slices.Clone(attrs)
	slices.SortFunc(as, func(a, b Attr) int {
		if c := cmp.Compare(a.NodeID, b.NodeID); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	for _, a := range as {
		fmt.Fprintf(h, "attr:%d:%s:%q\n", a.NodeID, a.Name, a.Value)
	}

	es := slices.Clone(edges)
	slices.SortFunc(es, func(a, b Edge) int {
		if c := cmp.Compare(a.SourceID, b.SourceID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Edge, b.Edge); c != 0 {
			return c
		}
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	for _, e := range es {
		fmt.Fprintf(h, "edge:%d:%s:%d:%d:%d\n", e.SourceID, e.Edge, e.Ordinal, e.TargetID, e.Payload)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}
