package asg

import "github.com/jward/asg/internal/strtable"

// Type aliases re-exported from internal packages so callers can name them.

// Key is a handle into a StrTable.
type Key = strtable.Key

// StrTable is the string interning table owned by a Factory.
type StrTable = strtable.Table

// NewStrTable returns an empty string table.
func NewStrTable() *StrTable { return strtable.New() }

// NodeID addresses a node in its Factory's arena. Zero means "no node".
type NodeID uint32

// Handle pairs a NodeID with the generation of its arena slot, so a handle
// taken before a Delete can be told apart from a node that later reuses
// the id.
type Handle struct {
	ID  NodeID
	Gen uint32
}

// Range is a source position. The Wide fields carry the same span measured
// in a second encoding (UTF-16 columns for sources that need them).
type Range struct {
	Path        string
	Line        uint32
	Col         uint32
	EndLine     uint32
	EndCol      uint32
	WideLine    uint32
	WideCol     uint32
	WideEndLine uint32
	WideEndCol  uint32
}

// EdgeTarget is one instance of an edge, with its payload for edge kinds
// that carry one.
type EdgeTarget struct {
	ID      NodeID
	Payload uint32
}
