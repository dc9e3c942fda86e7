package asg

import (
	"encoding/binary"
	"hash/crc32"
	"slices"
)

// Hash returns the structural hash of n: a CRC32 over the kind tag, the
// hashed attributes and the hashes of owned children in edge order. Names
// and positions do not contribute, so renamed copies of the same code hash
// equally. The value is cached until n or a descendant changes.
//
// Hash ignores the filter.
func Hash(n Node) uint32 {
	if isNil(n) {
		return 0
	}
	return n.Factory().hashOf(n.record())
}

// Hash returns the structural hash of node id.
func (f *Factory) Hash(id NodeID) (uint32, error) {
	r, err := f.lookup(id)
	if err != nil {
		return 0, err
	}
	return f.hashOf(r), nil
}

type hashFrame struct {
	r        *record
	expanded bool
}

func (f *Factory) hashOf(root *record) uint32 {
	if root.hashOK {
		return root.hash
	}
	inProgress := make(map[NodeID]bool)
	stack := []hashFrame{{r: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		r := top.r
		if r.hashOK {
			stack = stack[:len(stack)-1]
			continue
		}
		if !top.expanded {
			top.expanded = true
			inProgress[r.id] = true
			f.eachOwned(r, func(c *record) {
				if !c.hashOK && !inProgress[c.id] {
					stack = append(stack, hashFrame{r: c})
				}
			})
			continue
		}

		r.hash = f.hashRecord(r, inProgress)
		r.hashOK = true
		delete(inProgress, r.id)
		stack = stack[:len(stack)-1]
	}
	return root.hash
}

func (f *Factory) hashRecord(r *record, inProgress map[NodeID]bool) uint32 {
	h := crc32.NewIEEE()
	h.Write([]byte("asg::" + r.kind.String()))

	var buf [4]byte
	for _, a := range layouts[r.kind].attrs {
		if !attrTable[a].hashed {
			continue
		}
		switch attrTable[a].typ {
		case AttrString:
			h.Write([]byte(f.getString(r, a)))
			h.Write([]byte{0})
		default:
			h.Write([]byte{byte(f.word(r, a))})
		}
	}
	f.eachOwned(r, func(c *record) {
		var ch uint32
		if c.hashOK && !inProgress[c.id] {
			ch = c.hash
		}
		binary.LittleEndian.PutUint32(buf[:], ch)
		h.Write(buf[:])
	})
	return h.Sum32()
}

// eachOwned calls fn for every live child of r in edge order.
func (f *Factory) eachOwned(r *record, fn func(*record)) {
	for i, e := range layouts[r.kind].edges {
		if !e.IsOwnership() {
			continue
		}
		for _, t := range r.edges[i] {
			if c := f.rec(t); c != nil {
				fn(c)
			}
		}
	}
}

// invalidateHash drops the cached hash of r and its owners. A node with a
// valid hash never has a child without one, so the walk stops at the first
// owner that is already invalid.
func (f *Factory) invalidateHash(r *record) {
	for p := r; p != nil; p = f.rec(p.parent) {
		if !p.hashOK {
			return
		}
		p.hashOK = false
	}
}

// subtreeSize counts r and everything it owns.
func (f *Factory) subtreeSize(r *record) int {
	return len(f.ownedSubtree(r))
}

// CloneGroups groups the unfiltered nodes deriving from kind by structural
// hash. Groups with a single node and nodes whose subtree has fewer than
// minSize nodes are dropped. Groups are ordered by their smallest id.
func CloneGroups(f *Factory, kind NodeKind, minSize int) [][]NodeID {
	byHash := make(map[uint32][]NodeID)
	var order []uint32
	for n := range f.NodesOfKind(kind) {
		r := n.record()
		if f.subtreeSize(r) < minSize {
			continue
		}
		h := f.hashOf(r)
		if _, ok := byHash[h]; !ok {
			order = append(order, h)
		}
		byHash[h] = append(byHash[h], r.id)
	}

	var groups [][]NodeID
	for _, h := range order {
		if ids := byHash[h]; len(ids) > 1 {
			groups = append(groups, ids)
		}
	}
	slices.SortFunc(groups, func(a, b []NodeID) int { return int(a[0]) - int(b[0]) })
	return groups
}
