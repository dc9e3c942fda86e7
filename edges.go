package asg

import (
	"fmt"
	"slices"

	"github.com/jward/asg/internal/metrics"
)

// link and unlink are the only functions that change forward edges. They
// keep parent pointers, the reverse index and hash caches in step.

func (f *Factory) link(src *record, e EdgeKind, dst *record, payload uint32) {
	i := src.slot(e)
	src.edges[i] = append(src.edges[i], dst.id)
	if e.HasPayload() {
		src.payloads[i] = append(src.payloads[i], payload)
	}
	if e.IsOwnership() {
		dst.parent = src.id
		dst.parentEdge = e
	}
	if f.reverse != nil {
		f.reverse.add(dst.id, e, src.id)
	}
	f.invalidateHash(src)
	metrics.EdgeMutations.WithLabelValues("link").Inc()
}

// unlink removes the idx-th target of edge e from src and returns it.
func (f *Factory) unlink(src *record, e EdgeKind, idx int) NodeID {
	i := src.slot(e)
	t := src.edges[i][idx]
	src.edges[i] = slices.Delete(src.edges[i], idx, idx+1)
	if e.HasPayload() {
		src.payloads[i] = slices.Delete(src.payloads[i], idx, idx+1)
	}
	if e.IsOwnership() {
		if dst := f.rec(t); dst != nil && dst.parent == src.id && dst.parentEdge == e {
			dst.parent = 0
			dst.parentEdge = EdgeNone
		}
	}
	if f.reverse != nil {
		f.reverse.remove(t, e, src.id)
	}
	f.invalidateHash(src)
	metrics.EdgeMutations.WithLabelValues("unlink").Inc()
	return t
}

// unlinkAll removes every occurrence of target from edge e of src.
func (f *Factory) unlinkAll(src *record, e EdgeKind, target NodeID) {
	if src == nil {
		return
	}
	i := src.slot(e)
	if i < 0 {
		return
	}
	for idx := len(src.edges[i]) - 1; idx >= 0; idx-- {
		if src.edges[i][idx] == target {
			f.unlink(src, e, idx)
		}
	}
}

// detach cuts r from its owner, if any.
func (f *Factory) detach(r *record) {
	if r.parent == 0 {
		return
	}
	p := f.rec(r.parent)
	if p == nil {
		r.parent, r.parentEdge = 0, EdgeNone
		return
	}
	if idx := slices.Index(p.edges[p.slot(r.parentEdge)], r.id); idx >= 0 {
		f.unlink(p, r.parentEdge, idx)
		return
	}
	r.parent, r.parentEdge = 0, EdgeNone
}

func (f *Factory) checkEdge(src *record, e EdgeKind) error {
	if !e.valid() || !HasEdge(src.kind, e) {
		return fmt.Errorf("asg: %s on %s node %d: %w", e, src.kind, src.id, ErrInvalidEdgeKind)
	}
	return nil
}

func (f *Factory) checkTarget(src *record, e EdgeKind, dst *record) error {
	if !e.Accepts(dst.kind) {
		return fmt.Errorf("asg: %s cannot point to %s node %d: %w", e, dst.kind, dst.id, ErrInvalidNodeKind)
	}
	if !e.IsOwnership() {
		return nil
	}
	if dst.id == f.root {
		return fmt.Errorf("asg: %s cannot own the root: %w", e, ErrOwnershipCycle)
	}
	if src.id == dst.id {
		return fmt.Errorf("asg: %s from %d to itself: %w", e, src.id, ErrOwnershipCycle)
	}
	// A node that owns nothing cannot be an ancestor of src. Otherwise the
	// walk costs the depth of src.
	if !f.ownsAny(dst) {
		return nil
	}
	for p := f.rec(src.parent); p != nil; p = f.rec(p.parent) {
		if p.id == dst.id {
			return fmt.Errorf("asg: %s from %d to its ancestor %d: %w", e, src.id, dst.id, ErrOwnershipCycle)
		}
	}
	return nil
}

// ownsAny reports whether r holds any ownership edge.
func (f *Factory) ownsAny(r *record) bool {
	for i, e := range layouts[r.kind].edges {
		if e.IsOwnership() && len(r.edges[i]) > 0 {
			return true
		}
	}
	return false
}

// SetEdge sets a single-valued edge. Setting an ownership edge detaches the
// previous value and detaches dst from its previous owner. Setting 0 clears
// an association edge; clearing an ownership edge that holds a value fails
// with ErrCannotClearRequiredEdge, use RemoveEdge instead.
func (f *Factory) SetEdge(src NodeID, e EdgeKind, dst NodeID) error {
	s, err := f.lookup(src)
	if err != nil {
		return fmt.Errorf("asg: set %s: %w", e, err)
	}
	if err := f.checkEdge(s, e); err != nil {
		return err
	}
	if e.IsMany() {
		return fmt.Errorf("asg: set on multi-valued %s: %w", e, ErrInvalidEdgeKind)
	}

	i := s.slot(e)
	var cur NodeID
	if len(s.edges[i]) > 0 {
		cur = s.edges[i][0]
	}

	if dst == 0 {
		if cur == 0 {
			return nil
		}
		if e.IsOwnership() {
			return fmt.Errorf("asg: clear %s on node %d: %w", e, src, ErrCannotClearRequiredEdge)
		}
		f.unlink(s, e, 0)
		return nil
	}

	d, err := f.lookup(dst)
	if err != nil {
		return fmt.Errorf("asg: set %s: %w", e, err)
	}
	if err := f.checkTarget(s, e, d); err != nil {
		return err
	}
	if cur == dst {
		return nil
	}
	if cur != 0 {
		f.unlink(s, e, 0)
	}
	if e.IsOwnership() {
		f.detach(d)
	}
	f.link(s, e, d, 0)
	return nil
}

// AddEdge appends dst to a multi-valued edge.
func (f *Factory) AddEdge(src NodeID, e EdgeKind, dst NodeID) error {
	return f.AddEdgePayload(src, e, dst, 0)
}

// AddEdgePayload appends dst to a multi-valued edge together with a payload
// value. The payload is ignored for edge kinds that carry none; for the
// others it must be one of the edge's enum values (ErrInvalidAttr).
func (f *Factory) AddEdgePayload(src NodeID, e EdgeKind, dst NodeID, payload uint32) error {
	s, err := f.lookup(src)
	if err != nil {
		return fmt.Errorf("asg: add %s: %w", e, err)
	}
	if err := f.checkEdge(s, e); err != nil {
		return err
	}
	if !e.IsMany() {
		return fmt.Errorf("asg: add on single-valued %s: %w", e, ErrInvalidEdgeKind)
	}
	if !e.HasPayload() {
		payload = 0
	} else if !e.ValidPayload(payload) {
		return fmt.Errorf("asg: add %s: payload %d: %w", e, payload, ErrInvalidAttr)
	}
	d, err := f.lookup(dst)
	if err != nil {
		return fmt.Errorf("asg: add %s: %w", e, err)
	}
	if err := f.checkTarget(s, e, d); err != nil {
		return err
	}
	if e.IsOwnership() {
		f.detach(d)
	}
	f.link(s, e, d, payload)
	return nil
}

// RemoveEdge removes the first occurrence of dst from edge e of src. When e
// is an ownership edge the removed subtree is deleted.
func (f *Factory) RemoveEdge(src NodeID, e EdgeKind, dst NodeID) error {
	s, err := f.lookup(src)
	if err != nil {
		return fmt.Errorf("asg: remove %s: %w", e, err)
	}
	if err := f.checkEdge(s, e); err != nil {
		return err
	}
	idx := slices.Index(s.edges[s.slot(e)], dst)
	if dst == 0 || idx < 0 {
		return fmt.Errorf("asg: remove %s %d -> %d: %w", e, src, dst, ErrEdgeNotFound)
	}
	f.unlink(s, e, idx)
	if e.IsOwnership() {
		if d := f.rec(dst); d != nil {
			f.destroy(d)
		}
	}
	return nil
}

// Edges returns the targets of edge e on src in insertion order. Targets
// excluded by the filter are left out.
func (f *Factory) Edges(src NodeID, e EdgeKind) ([]NodeID, error) {
	s, err := f.lookup(src)
	if err != nil {
		return nil, err
	}
	if err := f.checkEdge(s, e); err != nil {
		return nil, err
	}
	return f.targets(s, e), nil
}

// EdgeTargets is Edges with payloads.
func (f *Factory) EdgeTargets(src NodeID, e EdgeKind) ([]EdgeTarget, error) {
	s, err := f.lookup(src)
	if err != nil {
		return nil, err
	}
	if err := f.checkEdge(s, e); err != nil {
		return nil, err
	}
	i := s.slot(e)
	out := make([]EdgeTarget, 0, len(s.edges[i]))
	for j, t := range s.edges[i] {
		if f.IsFiltered(t) {
			continue
		}
		et := EdgeTarget{ID: t}
		if e.HasPayload() {
			et.Payload = s.payloads[i][j]
		}
		out = append(out, et)
	}
	return out, nil
}

func (f *Factory) targets(r *record, e EdgeKind) []NodeID {
	raw := r.edges[r.slot(e)]
	out := make([]NodeID, 0, len(raw))
	for _, t := range raw {
		if !f.IsFiltered(t) {
			out = append(out, t)
		}
	}
	return out
}

func (f *Factory) target(r *record, e EdgeKind) NodeID {
	raw := r.edges[r.slot(e)]
	if len(raw) == 0 || f.IsFiltered(raw[0]) {
		return 0
	}
	return raw[0]
}

// node-typed front doors used by the per-kind accessors.

func (f *Factory) ownerRecord(src *record) (*record, error) {
	if !f.alive(src) {
		return nil, fmt.Errorf("asg: node %d was deleted: %w", src.id, ErrInvalidNodeID)
	}
	return src, nil
}

func (f *Factory) targetRecord(dst Node) (*record, error) {
	if isNil(dst) {
		return nil, fmt.Errorf("asg: nil target: %w", ErrInvalidNodeID)
	}
	if dst.Factory() != f {
		return nil, fmt.Errorf("asg: node %d: %w", dst.ID(), ErrFactoryMismatch)
	}
	r := dst.record()
	if !f.alive(r) {
		return nil, fmt.Errorf("asg: node %d was deleted: %w", r.id, ErrInvalidNodeID)
	}
	return r, nil
}

func (f *Factory) setNode(src *record, e EdgeKind, dst Node) error {
	s, err := f.ownerRecord(src)
	if err != nil {
		return err
	}
	if isNil(dst) {
		return f.SetEdge(s.id, e, 0)
	}
	d, err := f.targetRecord(dst)
	if err != nil {
		return err
	}
	return f.SetEdge(s.id, e, d.id)
}

func (f *Factory) addNode(src *record, e EdgeKind, dst Node, payload uint32) error {
	s, err := f.ownerRecord(src)
	if err != nil {
		return err
	}
	d, err := f.targetRecord(dst)
	if err != nil {
		return err
	}
	return f.AddEdgePayload(s.id, e, d.id, payload)
}

func (f *Factory) removeNode(src *record, e EdgeKind, dst Node) error {
	s, err := f.ownerRecord(src)
	if err != nil {
		return err
	}
	if isNil(dst) {
		return fmt.Errorf("asg: remove %s from node %d: %w", e, s.id, ErrEdgeNotFound)
	}
	d, err := f.targetRecord(dst)
	if err != nil {
		return err
	}
	return f.RemoveEdge(s.id, e, d.id)
}
