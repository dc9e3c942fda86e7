package asg

import (
	"fmt"
	"io"

	"github.com/jward/asg/internal/binio"
)

// FilterState is the soft-delete state of one node.
type FilterState uint8

const (
	NotFiltered FilterState = iota
	Filtered
)

func (s FilterState) String() string {
	if s == Filtered {
		return "filtered"
	}
	return "not-filtered"
}

const (
	filterFileType    = "asgfilter"
	filterFileVersion = 1
)

// Filter marks nodes as logically removed without touching the arena.
// Filtered nodes disappear from getters, iteration, traversal and save while
// the filter is on; turning it off or clearing it brings them back.
type Filter struct {
	f      *Factory
	states []FilterState
	on     bool
}

func newFilter(f *Factory) *Filter {
	return &Filter{f: f, on: true}
}

func (flt *Filter) state(id NodeID) FilterState {
	if int(id) >= len(flt.states) {
		return NotFiltered
	}
	return flt.states[id]
}

func (flt *Filter) set(id NodeID, s FilterState) {
	for NodeID(len(flt.states)) <= id {
		flt.states = append(flt.states, NotFiltered)
	}
	flt.states[id] = s
}

// reset clears the state of a slot that was just allocated or released.
func (flt *Filter) reset(id NodeID) {
	if int(id) < len(flt.states) {
		flt.states[id] = NotFiltered
	}
}

// State returns the stored state of id, regardless of whether the filter
// is on.
func (flt *Filter) State(id NodeID) FilterState { return flt.state(id) }

// IsOn reports whether filtered nodes are currently hidden.
func (flt *Filter) IsOn() bool { return flt.on }

// TurnOn hides filtered nodes.
func (flt *Filter) TurnOn() { flt.on = true }

// TurnOff shows filtered nodes again without forgetting their state.
func (flt *Filter) TurnOff() { flt.on = false }

// TurnOffSafely turns the filter off and returns a function restoring the
// previous setting.
func (flt *Filter) TurnOffSafely() (restore func()) {
	was := flt.on
	flt.on = false
	return func() { flt.on = was }
}

// SetFiltered filters id and everything it owns.
func (flt *Filter) SetFiltered(id NodeID) error {
	r, err := flt.f.lookup(id)
	if err != nil {
		return fmt.Errorf("asg: filter: %w", err)
	}
	for _, n := range flt.f.ownedSubtree(r) {
		flt.set(n.id, Filtered)
	}
	return nil
}

// SetNotFiltered unfilters id, its subtree and its owners, so the node is
// reachable from the root again.
func (flt *Filter) SetNotFiltered(id NodeID) error {
	r, err := flt.f.lookup(id)
	if err != nil {
		return fmt.Errorf("asg: unfilter: %w", err)
	}
	for _, n := range flt.f.ownedSubtree(r) {
		flt.set(n.id, NotFiltered)
	}
	for p := flt.f.rec(r.parent); p != nil; p = flt.f.rec(p.parent) {
		flt.set(p.id, NotFiltered)
	}
	return nil
}

// SetFilteredThisNodeOnly filters id alone.
func (flt *Filter) SetFilteredThisNodeOnly(id NodeID) error {
	if _, err := flt.f.lookup(id); err != nil {
		return fmt.Errorf("asg: filter: %w", err)
	}
	flt.set(id, Filtered)
	return nil
}

// SetNotFilteredThisNodeOnly unfilters id alone.
func (flt *Filter) SetNotFilteredThisNodeOnly(id NodeID) error {
	if _, err := flt.f.lookup(id); err != nil {
		return fmt.Errorf("asg: unfilter: %w", err)
	}
	flt.set(id, NotFiltered)
	return nil
}

// Clear unfilters every node.
func (flt *Filter) Clear() {
	flt.states = flt.states[:0]
}

// Count returns the number of live filtered nodes.
func (flt *Filter) Count() int {
	n := 0
	for id, s := range flt.states {
		if s == Filtered && flt.f.rec(NodeID(id)) != nil {
			n++
		}
	}
	return n
}

// Save writes the filter state of every arena slot.
func (flt *Filter) Save(w io.Writer) error {
	bw := binio.NewWriter(w)
	h := binio.NewHeader()
	h.Set(headerType, filterFileType)
	h.SetInt(headerBinaryVersion, filterFileVersion)
	h.Write(bw)

	n := len(flt.f.slots)
	bw.UInt4(uint32(n))
	for id := range n {
		bw.UByte1(uint8(flt.state(NodeID(id))))
	}
	if err := bw.Err(); err != nil {
		return fmt.Errorf("asg: save filter: %w", err)
	}
	return nil
}

// Load replaces the filter state with one written by Save for an ASG of
// the same size.
func (flt *Filter) Load(r io.Reader) error {
	br := binio.NewReader(r)
	h, err := binio.ReadHeader(br)
	if err != nil {
		return fmt.Errorf("asg: load filter: %w: %v", ErrCorruptFile, err)
	}
	if typ, _ := h.Get(headerType); typ != filterFileType {
		return fmt.Errorf("asg: load filter: file type %q: %w", typ, ErrCorruptFile)
	}
	if v, err := h.Int(headerBinaryVersion); err != nil || v != filterFileVersion {
		return fmt.Errorf("asg: load filter: binary version %d: %w", v, ErrSchemaVersionMismatch)
	}

	n := br.UInt4()
	if err := br.Err(); err != nil {
		return fmt.Errorf("asg: load filter: %w: %v", ErrCorruptFile, err)
	}
	if int(n) != len(flt.f.slots) {
		return fmt.Errorf("asg: load filter: %d slots for an ASG of %d: %w", n, len(flt.f.slots), ErrCorruptFile)
	}
	states := make([]FilterState, n)
	for id := range states {
		s := FilterState(br.UByte1())
		if s > Filtered {
			return fmt.Errorf("asg: load filter: node %d state %d: %w", id, s, ErrCorruptFile)
		}
		states[id] = s
	}
	if err := br.Err(); err != nil {
		return fmt.Errorf("asg: load filter: %w: %v", ErrCorruptFile, err)
	}
	flt.states = states
	return nil
}
