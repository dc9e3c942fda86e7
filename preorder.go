package asg

import (
	"fmt"

	"go.uber.org/zap"
)

// Preorder walks ownership edges depth first, calling every visitor's Visit
// method before a node's children and VisitEnd after them. Association
// edges named with WithCrossEdges are descended too; other association
// edges are only reported through VisitEdge/VisitEdgeEnd.
type Preorder struct {
	safe            bool
	cross           [numEdges]bool
	visitFiltered   bool
	special         bool
	specialUsedOnly bool

	visitors []Visitor
	active   int
	visited  []bool
}

// PreorderOption configures a Preorder.
type PreorderOption func(*Preorder)

// WithSafeMode makes the walk remember visited nodes and skip a node
// reached a second time. Required when cross edges may form cycles.
func WithSafeMode() PreorderOption {
	return func(p *Preorder) { p.safe = true }
}

// WithCrossEdges names association edges the walk descends into.
func WithCrossEdges(edges ...EdgeKind) PreorderOption {
	return func(p *Preorder) {
		for _, e := range edges {
			if e.valid() {
				p.cross[e] = true
			}
		}
	}
}

// WithVisitFiltered makes the walk ignore the filter.
func WithVisitFiltered() PreorderOption {
	return func(p *Preorder) { p.visitFiltered = true }
}

// WithSpecialNodes visits special nodes (comments) after the main walk.
// With usedOnly set, only those referenced by a visited node are visited.
func WithSpecialNodes(usedOnly bool) PreorderOption {
	return func(p *Preorder) {
		p.special = true
		p.specialUsedOnly = usedOnly
	}
}

// NewPreorder creates a traversal.
func NewPreorder(opts ...PreorderOption) *Preorder {
	p := &Preorder{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stop removes v from the running walk. The walk ends once every visitor
// has been stopped. Visitors are compared with ==.
func (p *Preorder) Stop(v Visitor) {
	for i, cur := range p.visitors {
		if cur != nil && cur == v {
			p.visitors[i] = nil
			p.active--
		}
	}
}

type frameOp uint8

const (
	opEnter frameOp = iota
	opLeave
	opEdgeEnd
	opEdgeOnly
)

type frame struct {
	op   frameOp
	id   NodeID
	from NodeID
	edge EdgeKind
}

// Run visits every individual node, that is every live node without an
// owner, in id order. Special nodes are left to WithSpecialNodes.
func (p *Preorder) Run(f *Factory, vs ...Visitor) {
	p.start(f, vs)
	used := p.usedSet(f)
	for id := 1; id < len(f.slots) && p.active > 0; id++ {
		r := f.slots[id].rec
		if r == nil || r.kind.IsSpecial() || !f.individual(r) || !p.include(f, r.id) {
			continue
		}
		p.walk(f, r.id, used)
	}
	p.visitSpecial(f, used)
	p.visitors = nil
}

// RunFrom walks the subtree under root.
func (p *Preorder) RunFrom(f *Factory, root NodeID, vs ...Visitor) error {
	if _, err := f.lookup(root); err != nil {
		return fmt.Errorf("asg: preorder: %w", err)
	}
	p.start(f, vs)
	used := p.usedSet(f)
	if p.include(f, root) {
		p.walk(f, root, used)
	}
	p.visitSpecial(f, used)
	p.visitors = nil
	return nil
}

func (p *Preorder) start(f *Factory, vs []Visitor) {
	p.visitors = append([]Visitor(nil), vs...)
	p.active = len(vs)
	p.visited = make([]bool, len(f.slots))
}

func (p *Preorder) usedSet(f *Factory) map[NodeID]bool {
	if !p.special || !p.specialUsedOnly {
		return nil
	}
	return make(map[NodeID]bool)
}

func (p *Preorder) include(f *Factory, id NodeID) bool {
	return p.visitFiltered || !f.IsFiltered(id)
}

func (p *Preorder) walk(f *Factory, root NodeID, used map[NodeID]bool) {
	stack := []frame{{op: opEnter, id: root}}
	for len(stack) > 0 && p.active > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch fr.op {
		case opLeave:
			n := f.view(fr.id)
			if n == nil {
				continue
			}
			p.each(func(v Visitor) { n.AcceptEnd(v) })
			continue
		case opEdgeEnd:
			p.edgeEnd(f, fr)
			continue
		case opEdgeOnly:
			p.edge(f, fr)
			p.edgeEnd(f, fr)
			continue
		}

		if fr.edge != EdgeNone {
			p.edge(f, fr)
		}
		r := f.rec(fr.id)
		if r == nil {
			continue
		}
		if p.safe {
			if p.visited[r.id] {
				f.logger.Debug("preorder: node reached twice, skipped",
					zap.Uint32("id", uint32(r.id)),
					zap.Uint32("from", uint32(fr.from)),
					zap.Stringer("edge", fr.edge))
				continue
			}
			p.visited[r.id] = true
		}
		n := wrap(f, r)
		p.each(func(v Visitor) { n.Accept(v) })
		stack = append(stack, frame{op: opLeave, id: r.id})
		stack = p.pushChildren(f, r, stack, used)
	}
}

// pushChildren pushes r's outgoing edges so that they pop in schema order.
func (p *Preorder) pushChildren(f *Factory, r *record, stack []frame, used map[NodeID]bool) []frame {
	l := layouts[r.kind]
	for i := len(l.edges) - 1; i >= 0; i-- {
		e := l.edges[i]
		targets := r.edges[i]
		for j := len(targets) - 1; j >= 0; j-- {
			t := targets[j]
			if !p.include(f, t) {
				continue
			}
			if used != nil {
				used[t] = true
			}
			fr := frame{id: t, from: r.id, edge: e}
			if e.IsOwnership() || p.cross[e] {
				end := fr
				end.op = opEdgeEnd
				fr.op = opEnter
				stack = append(stack, end, fr)
				continue
			}
			fr.op = opEdgeOnly
			stack = append(stack, fr)
		}
	}
	return stack
}

func (p *Preorder) edge(f *Factory, fr frame) {
	from, to := f.view(fr.from), f.view(fr.id)
	if from == nil || to == nil {
		return
	}
	p.each(func(v Visitor) { v.VisitEdge(from, fr.edge, to) })
}

func (p *Preorder) edgeEnd(f *Factory, fr frame) {
	from, to := f.view(fr.from), f.view(fr.id)
	if from == nil || to == nil {
		return
	}
	p.each(func(v Visitor) { v.VisitEdgeEnd(from, fr.edge, to) })
}

func (p *Preorder) visitSpecial(f *Factory, used map[NodeID]bool) {
	if !p.special {
		return
	}
	for id := 1; id < len(f.slots) && p.active > 0; id++ {
		r := f.slots[id].rec
		if r == nil || !r.kind.IsSpecial() || !p.include(f, r.id) {
			continue
		}
		if used != nil && !used[r.id] {
			continue
		}
		p.walk(f, r.id, nil)
	}
}

func (p *Preorder) each(fn func(Visitor)) {
	for _, v := range p.visitors {
		if v != nil {
			fn(v)
		}
	}
}
