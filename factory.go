package asg

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/jward/asg/internal/metrics"
)

// RootName is the name of the root Package every Factory starts with.
const RootName = "<root>"

// record is the storage of one node. Attribute values live in words, laid
// out by the kind's layout; edges[i] holds the targets of layout.edges[i].
type record struct {
	id         NodeID
	kind       NodeKind
	parent     NodeID
	parentEdge EdgeKind
	words      []uint32
	edges      [][]NodeID
	payloads   [][]uint32

	hash   uint32
	hashOK bool
}

func newRecord(id NodeID, kind NodeKind) *record {
	l := layouts[kind]
	r := &record{
		id:    id,
		kind:  kind,
		words: make([]uint32, l.words),
		edges: make([][]NodeID, len(l.edges)),
	}
	for i, e := range l.edges {
		if e.HasPayload() {
			if r.payloads == nil {
				r.payloads = make([][]uint32, len(l.edges))
			}
			r.payloads[i] = []uint32{}
		}
	}
	return r
}

func (r *record) slot(e EdgeKind) int {
	return int(layouts[r.kind].edgeSlot[e])
}

type slot struct {
	rec *record
	gen uint32
}

// Factory owns the node arena of one ASG together with its string table,
// filter and optional reverse edge index. It is the only way to create,
// link and delete nodes.
//
// A Factory is not safe for concurrent use. Build independent ASGs in
// parallel with one Factory each and combine them with Merge.
type Factory struct {
	strs    *StrTable
	slots   []slot // index = NodeID; slot 0 is never used
	free    []NodeID
	pending []NodeID
	live    int
	root    NodeID
	reverse *reverseIndex
	filter  *Filter
	logger  *zap.Logger

	wantReverse bool
}

// Option configures a Factory.
type Option func(*Factory)

// WithReverseEdges builds and maintains the reverse edge index from the
// start.
func WithReverseEdges() Option {
	return func(f *Factory) {
		f.wantReverse = true
	}
}

// WithLogger sets the logger used for diagnostics such as duplicate visits
// in safe-mode traversals. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithStringTable makes the Factory use t instead of a fresh table.
func WithStringTable(t *StrTable) Option {
	return func(f *Factory) {
		if t != nil {
			f.strs = t
		}
	}
}

// New creates a Factory holding a single root Package.
func New(opts ...Option) *Factory {
	f := newFactory(opts...)
	root := f.alloc(KindPackage)
	f.root = root.id
	f.setString(root, AttrName, RootName)
	return f
}

func newFactory(opts ...Option) *Factory {
	f := &Factory{
		strs:   NewStrTable(),
		slots:  make([]slot, 1),
		logger: zap.NewNop(),
	}
	f.filter = newFilter(f)
	for _, opt := range opts {
		opt(f)
	}
	if f.wantReverse {
		f.reverse = newReverseIndex()
	}
	return f
}

// Logger returns the Factory's logger.
func (f *Factory) Logger() *zap.Logger { return f.logger }

// StringTable returns the string table.
func (f *Factory) StringTable() *StrTable { return f.strs }

// Filter returns the soft-delete filter.
func (f *Factory) Filter() *Filter { return f.filter }

// Root returns the root Package.
func (f *Factory) Root() *Package {
	return f.view(f.root).(*Package)
}

// RootID returns the id of the root Package.
func (f *Factory) RootID() NodeID { return f.root }

// Len returns the number of live nodes, filtered ones included.
func (f *Factory) Len() int { return f.live }

// MaxID returns the largest id ever handed out.
func (f *Factory) MaxID() NodeID { return NodeID(len(f.slots) - 1) }

func (f *Factory) alloc(kind NodeKind) *record {
	var id NodeID
	if n := len(f.free); n > 0 {
		id = f.free[n-1]
		f.free = f.free[:n-1]
	} else {
		id = NodeID(len(f.slots))
		f.slots = append(f.slots, slot{})
	}
	r := newRecord(id, kind)
	f.slots[id].rec = r
	f.live++
	f.filter.reset(id)
	metrics.NodesCreated.WithLabelValues(kind.String()).Inc()
	return r
}

// allocAt places a node at a fixed id. Used by Load and snapshot import.
func (f *Factory) allocAt(id NodeID, kind NodeKind) (*record, error) {
	if id == 0 {
		return nil, fmt.Errorf("asg: allocate at id 0: %w", ErrInvalidNodeID)
	}
	for NodeID(len(f.slots)) <= id {
		f.slots = append(f.slots, slot{})
	}
	if f.slots[id].rec != nil {
		return nil, fmt.Errorf("asg: node %d allocated twice: %w", id, ErrInvalidNodeID)
	}
	r := newRecord(id, kind)
	f.slots[id].rec = r
	f.live++
	f.filter.reset(id)
	metrics.NodesCreated.WithLabelValues(kind.String()).Inc()
	return r, nil
}

// rebuildFreeList makes every unused id below MaxID reusable.
func (f *Factory) rebuildFreeList() {
	f.free = f.free[:0]
	f.pending = nil
	for id := len(f.slots) - 1; id > 0; id-- {
		if f.slots[id].rec == nil {
			f.free = append(f.free, NodeID(id))
		}
	}
}

func (f *Factory) rec(id NodeID) *record {
	if id == 0 || int(id) >= len(f.slots) {
		return nil
	}
	return f.slots[id].rec
}

func (f *Factory) lookup(id NodeID) (*record, error) {
	r := f.rec(id)
	if r == nil {
		return nil, fmt.Errorf("asg: node %d: %w", id, ErrInvalidNodeID)
	}
	return r, nil
}

// alive reports whether r is still the record stored in its slot.
func (f *Factory) alive(r *record) bool {
	return r != nil && f.rec(r.id) == r
}

// Create allocates a node of a concrete kind with default attributes.
func (f *Factory) Create(kind NodeKind) (Node, error) {
	if kind.IsAbstract() {
		return nil, fmt.Errorf("asg: create %s: %w", kind, ErrInvalidNodeKind)
	}
	return wrap(f, f.alloc(kind)), nil
}

// Node returns the node with the given id.
func (f *Factory) Node(id NodeID) (Node, error) {
	r, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return wrap(f, r), nil
}

// view returns the node for id, or nil.
func (f *Factory) view(id NodeID) Node {
	r := f.rec(id)
	if r == nil {
		return nil
	}
	return wrap(f, r)
}

// Exists reports whether id addresses a live node.
func (f *Factory) Exists(id NodeID) bool { return f.rec(id) != nil }

// Kind returns the kind of node id.
func (f *Factory) Kind(id NodeID) (NodeKind, error) {
	r, err := f.lookup(id)
	if err != nil {
		return KindNone, err
	}
	return r.kind, nil
}

// HandleOf returns a generational handle for id.
func (f *Factory) HandleOf(id NodeID) (Handle, error) {
	if _, err := f.lookup(id); err != nil {
		return Handle{}, err
	}
	return Handle{ID: id, Gen: f.slots[id].gen}, nil
}

// Resolve returns the node a handle was taken for, failing with
// ErrStaleHandle if that node has since been deleted.
func (f *Factory) Resolve(h Handle) (Node, error) {
	if h.ID == 0 || int(h.ID) >= len(f.slots) {
		return nil, fmt.Errorf("asg: handle %d: %w", h.ID, ErrInvalidNodeID)
	}
	s := f.slots[h.ID]
	if s.gen != h.Gen || s.rec == nil {
		return nil, fmt.Errorf("asg: handle %d/%d (slot generation %d): %w", h.ID, h.Gen, s.gen, ErrStaleHandle)
	}
	return wrap(f, s.rec), nil
}

// IsFiltered reports whether the filter is on and excludes id.
func (f *Factory) IsFiltered(id NodeID) bool {
	return f.filter.on && f.filter.state(id) == Filtered
}

// Nodes iterates live, unfiltered nodes in id order.
func (f *Factory) Nodes() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for id := 1; id < len(f.slots); id++ {
			r := f.slots[id].rec
			if r == nil || f.IsFiltered(r.id) {
				continue
			}
			if !yield(wrap(f, r)) {
				return
			}
		}
	}
}

// NodesOfKind iterates live, unfiltered nodes deriving from kind.
func (f *Factory) NodesOfKind(kind NodeKind) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for n := range f.Nodes() {
			if IsBaseKind(n.Kind(), kind) && !yield(n) {
				return
			}
		}
	}
}

// individual reports whether r has no owner. Such nodes are the starting
// points of a rootless traversal.
func (f *Factory) individual(r *record) bool { return r.parent == 0 }

// Delete destroys node id and its ownership subtree. Incoming edges are
// removed from their sources; nodes reached only by association edges
// survive. The root cannot be deleted.
func (f *Factory) Delete(id NodeID) error {
	r, err := f.lookup(id)
	if err != nil {
		return fmt.Errorf("asg: delete: %w", err)
	}
	if id == f.root {
		return fmt.Errorf("asg: delete root node %d: %w", id, ErrInvalidNodeID)
	}
	f.detach(r)
	f.destroy(r)
	return nil
}

// ownedSubtree returns r and everything it owns, in preorder.
func (f *Factory) ownedSubtree(r *record) []*record {
	var out []*record
	stack := []*record{r}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		l := layouts[n.kind]
		for i := len(l.edges) - 1; i >= 0; i-- {
			if !l.edges[i].IsOwnership() {
				continue
			}
			targets := n.edges[i]
			for j := len(targets) - 1; j >= 0; j-- {
				if c := f.rec(targets[j]); c != nil {
					stack = append(stack, c)
				}
			}
		}
	}
	return out
}

// destroy releases an already detached subtree.
func (f *Factory) destroy(r *record) {
	subtree := f.ownedSubtree(r)
	doomed := make(map[NodeID]bool, len(subtree))
	for _, n := range subtree {
		doomed[n.id] = true
	}

	if f.reverse != nil {
		for _, n := range subtree {
			f.dropIncoming(n, doomed)
		}
	} else {
		f.dropIncomingScan(doomed)
	}
	for _, n := range subtree {
		if f.reverse != nil {
			for i, e := range layouts[n.kind].edges {
				for _, t := range n.edges[i] {
					f.reverse.remove(t, e, n.id)
				}
			}
			f.reverse.dropTarget(n.id)
		}
		f.release(n)
	}
	f.logger.Debug("deleted subtree", zap.Uint32("root", uint32(r.id)), zap.Int("nodes", len(subtree)))
}

// dropIncoming removes every edge into n whose source survives the delete,
// using the reverse index.
func (f *Factory) dropIncoming(n *record, doomed map[NodeID]bool) {
	for _, e := range PossibleReverseEdges(n.kind) {
		sources := append([]NodeID(nil), f.reverse.get(n.id, e)...)
		for _, s := range sources {
			if doomed[s] {
				continue
			}
			f.unlinkAll(f.rec(s), e, n.id)
		}
	}
}

// dropIncomingScan is dropIncoming for a whole doomed set without the
// reverse index. It visits every surviving record once.
func (f *Factory) dropIncomingScan(doomed map[NodeID]bool) {
	for id := 1; id < len(f.slots); id++ {
		src := f.slots[id].rec
		if src == nil || doomed[src.id] {
			continue
		}
		for i, e := range layouts[src.kind].edges {
			targets := src.edges[i]
			for idx := len(targets) - 1; idx >= 0; idx-- {
				if doomed[targets[idx]] {
					f.unlink(src, e, idx)
				}
			}
		}
	}
}

func (f *Factory) release(n *record) {
	s := &f.slots[n.id]
	s.rec = nil
	s.gen++
	f.pending = append(f.pending, n.id)
	f.live--
	f.filter.reset(n.id)
	metrics.NodesDeleted.Inc()
}

// Compact makes the ids of deleted nodes available for reuse. Until it is
// called, a deleted id is never handed out again.
func (f *Factory) Compact() {
	f.free = append(f.free, f.pending...)
	f.pending = nil
}
