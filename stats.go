package asg

// Stats summarizes a Factory.
type Stats struct {
	Nodes    int
	Filtered int
	MaxID    NodeID
	Strings  int
	MaxDepth int
	ByKind   map[NodeKind]int
	ByEdge   map[EdgeKind]int
}

// Stats counts live nodes per kind and edge instances per edge kind. The
// filter is ignored except for the Filtered count.
func (f *Factory) Stats() Stats {
	s := Stats{
		MaxID:   f.MaxID(),
		Strings: f.strs.Len(),
		ByKind:  make(map[NodeKind]int),
		ByEdge:  make(map[EdgeKind]int),
	}
	depth := make([]int, len(f.slots))
	for id := 1; id < len(f.slots); id++ {
		r := f.slots[id].rec
		if r == nil {
			continue
		}
		s.Nodes++
		s.ByKind[r.kind]++
		if f.filter.state(r.id) == Filtered {
			s.Filtered++
		}
		for i, e := range layouts[r.kind].edges {
			if n := len(r.edges[i]); n > 0 {
				s.ByEdge[e] += n
			}
		}
		if r.parent == 0 {
			s.MaxDepth = max(s.MaxDepth, f.depths(r, depth))
		}
	}
	return s
}

// depths fills depth for the subtree under r and returns its height.
func (f *Factory) depths(r *record, depth []int) int {
	height := 0
	stack := []*record{r}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		height = max(height, depth[n.id])
		f.eachOwned(n, func(c *record) {
			depth[c.id] = depth[n.id] + 1
			stack = append(stack, c)
		})
	}
	return height
}
