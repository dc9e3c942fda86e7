package store

import "time"

// Snapshot is one exported ASG.
type Snapshot struct {
	ID         string
	Name       string
	CreatedAt  time.Time
	APIVersion string
	RootID     uint32
	NodeCount  int
	Digest     string
}

// Node is one arena record. ParentID is 0 for parentless nodes.
type Node struct {
	ID         uint32
	Kind       string
	ParentID   uint32
	ParentEdge string
	Filtered   bool
}

// Attr is one attribute value in its text form.
type Attr struct {
	NodeID uint32
	Name   string
	Value  string
}

// Edge is one forward edge instance. Ordinal keeps the insertion order of
// multi-valued edges.
type Edge struct {
	SourceID uint32
	Edge     string
	Ordinal  int
	TargetID uint32
	Payload  uint32
}
