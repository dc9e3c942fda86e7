package asg

import "fmt"

// Mapping maps node ids of a source Factory to the ids of their copies.
type Mapping map[NodeID]NodeID

// SwapStringTable moves every string the nodes reference into t and makes t
// the Factory's table. Each old key is translated exactly once, however
// many nodes share it.
func (f *Factory) SwapStringTable(t *StrTable) {
	if t == nil || t == f.strs {
		return
	}
	remap := make(map[Key]Key)
	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		for _, off := range keyOffsets(r.kind) {
			k := Key(r.words[off])
			if _, ok := remap[k]; !ok {
				remap[k] = t.Set(f.strs.String(k))
			}
		}
	}
	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		for _, off := range keyOffsets(r.kind) {
			r.words[off] = uint32(remap[Key(r.words[off])])
		}
	}
	f.strs = t
}

// CopySubtree copies node id of src and everything it owns into dst,
// together with every node reached from the copy through association
// edges, transitively. The copy of id is detached in dst. Ids and string
// keys are translated; the mapping of every copied node is returned.
func CopySubtree(dst, src *Factory, id NodeID) (NodeID, Mapping, error) {
	r, err := src.lookup(id)
	if err != nil {
		return 0, nil, fmt.Errorf("asg: copy: %w", err)
	}
	if id == src.root {
		return 0, nil, fmt.Errorf("asg: copy the root node: %w", ErrInvalidNodeID)
	}

	// The closure is made of whole ownership subtrees: the requested one and
	// the subtree of every association target not already inside it.
	var order []*record
	seen := make(map[NodeID]bool)
	queue := []*record{r}
	for len(queue) > 0 {
		top := queue[0]
		queue = queue[1:]
		if seen[top.id] {
			continue
		}
		for _, n := range src.ownedSubtree(top) {
			if seen[n.id] {
				continue
			}
			seen[n.id] = true
			order = append(order, n)
			for i, e := range layouts[n.kind].edges {
				if e.IsOwnership() {
					continue
				}
				for _, t := range n.edges[i] {
					if tr := src.rec(t); tr != nil && !seen[t] {
						queue = append(queue, tr)
					}
				}
			}
		}
	}

	m, err := copyRecords(dst, src, order, make(Mapping, len(order)))
	if err != nil {
		return 0, nil, err
	}
	return m[id], m, nil
}

// Merge copies every live node of src into dst. The members of src's root
// are appended to dst's root in order, so building one Factory per source
// file and merging them yields a single ASG.
func Merge(dst, src *Factory) (Mapping, error) {
	if dst == src {
		return nil, fmt.Errorf("asg: merge a factory into itself: %w", ErrFactoryMismatch)
	}
	var order []*record
	for id := 1; id < len(src.slots); id++ {
		if r := src.slots[id].rec; r != nil && r.id != src.root {
			order = append(order, r)
		}
	}

	m, err := copyRecords(dst, src, order, Mapping{src.root: dst.root})
	if err != nil {
		return nil, err
	}

	srcRoot := src.rec(src.root)
	dstRoot := dst.rec(dst.root)
	for _, t := range srcRoot.edges[srcRoot.slot(EdgePackageMembers)] {
		dst.link(dstRoot, EdgePackageMembers, dst.rec(m[t]), 0)
	}
	for i, e := range layouts[KindPackage].edges {
		if e.IsOwnership() {
			continue
		}
		for j, t := range srcRoot.edges[i] {
			var payload uint32
			if e.HasPayload() {
				payload = srcRoot.payloads[i][j]
			}
			if to, ok := m[t]; ok {
				dst.link(dstRoot, e, dst.rec(to), payload)
			}
		}
	}
	dst.logger.Debug("merged factory")
	return m, nil
}

// copyRecords copies the records into dst in two passes: allocation, then
// attributes and edges. m may hold premapped ids; edges to nodes neither
// premapped nor copied are dropped.
func copyRecords(dst, src *Factory, order []*record, m Mapping) (Mapping, error) {
	copies := make([]*record, len(order))
	for i, r := range order {
		c := dst.alloc(r.kind)
		copies[i] = c
		m[r.id] = c.id
	}

	keys := make(map[Key]Key)
	for i, r := range order {
		c := copies[i]
		copy(c.words, r.words)
		for _, off := range keyOffsets(r.kind) {
			k := Key(r.words[off])
			nk, ok := keys[k]
			if !ok {
				nk = dst.strs.Set(src.strs.String(k))
				keys[k] = nk
			}
			c.words[off] = uint32(nk)
		}
	}

	for i, r := range order {
		c := copies[i]
		for s, e := range layouts[r.kind].edges {
			for j, t := range r.edges[s] {
				to, ok := m[t]
				if !ok {
					continue
				}
				var payload uint32
				if e.HasPayload() {
					payload = r.payloads[s][j]
				}
				target := dst.rec(to)
				if e.IsOwnership() && target.parent != 0 {
					return nil, fmt.Errorf("asg: copy: node %d owned twice: %w", t, ErrCorruptFile)
				}
				dst.link(c, e, target, payload)
			}
		}
		if src.filter.state(r.id) == Filtered {
			dst.filter.set(c.id, Filtered)
		}
	}
	return m, nil
}
