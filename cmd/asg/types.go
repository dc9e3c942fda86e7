package main

import (
	"time"

	"github.com/jward/asg/internal/frontend"
)

// CLIResult is the top-level envelope for all commands in json and yaml
// format.
type CLIResult struct {
	Command string `json:"command" yaml:"command"`
	Results any    `json:"results,omitempty" yaml:"results,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIBuild reports one front-end run.
type CLIBuild struct {
	Output   string                `json:"output" yaml:"output"`
	Files    int                   `json:"files" yaml:"files"`
	Cached   int                   `json:"cached" yaml:"cached"`
	Filtered int                   `json:"filtered" yaml:"filtered"`
	Nodes    int                   `json:"nodes" yaml:"nodes"`
	Failed   []frontend.FileError  `json:"failed,omitempty" yaml:"failed,omitempty"`
	Resolve  frontend.ResolveStats `json:"resolve" yaml:"resolve"`
}

// CLIHeaderEntry is one key of a file header.
type CLIHeaderEntry struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// CLINode is a node with its attributes and, in dumps, its owned subtree.
type CLINode struct {
	ID       uint32              `json:"id" yaml:"id"`
	Kind     string              `json:"kind" yaml:"kind"`
	Edge     string              `json:"edge,omitempty" yaml:"edge,omitempty"`
	Attrs    map[string]string   `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Links    map[string][]uint32 `json:"links,omitempty" yaml:"links,omitempty"`
	Children []CLINode           `json:"children,omitempty" yaml:"children,omitempty"`
}

// CLIStats mirrors asg.Stats with names instead of kind numbers.
type CLIStats struct {
	Nodes    int            `json:"nodes" yaml:"nodes"`
	Filtered int            `json:"filtered" yaml:"filtered"`
	MaxID    uint32         `json:"max_id" yaml:"max_id"`
	Strings  int            `json:"strings" yaml:"strings"`
	MaxDepth int            `json:"max_depth" yaml:"max_depth"`
	ByKind   map[string]int `json:"by_kind" yaml:"by_kind"`
	ByEdge   map[string]int `json:"by_edge" yaml:"by_edge"`
}

// CLINodeRef names a node without its subtree.
type CLINodeRef struct {
	ID       uint32 `json:"id" yaml:"id"`
	Kind     string `json:"kind" yaml:"kind"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Position string `json:"position,omitempty" yaml:"position,omitempty"`
}

// CLISimilar is one similarity match.
type CLISimilar struct {
	CLINodeRef `yaml:",inline"`
	Score      float64 `json:"score" yaml:"score"`
}

// CLICloneGroup is a set of structurally identical subtrees.
type CLICloneGroup struct {
	Hash  uint32       `json:"hash" yaml:"hash"`
	Size  int          `json:"size" yaml:"size"`
	Nodes []CLINodeRef `json:"nodes" yaml:"nodes"`
}

// CLIFilter reports a filter run.
type CLIFilter struct {
	Packages int    `json:"packages" yaml:"packages"`
	Filtered int    `json:"filtered" yaml:"filtered"`
	Output   string `json:"output,omitempty" yaml:"output,omitempty"`
	State    string `json:"state,omitempty" yaml:"state,omitempty"`
}

// CLISnapshot is a stored snapshot.
type CLISnapshot struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	APIVersion string    `json:"api_version" yaml:"api_version"`
	Nodes      int       `json:"nodes" yaml:"nodes"`
	Digest     string    `json:"digest" yaml:"digest"`
}

// CLIImport reports a snapshot written back to a file.
type CLIImport struct {
	Snapshot string `json:"snapshot" yaml:"snapshot"`
	Output   string `json:"output" yaml:"output"`
	Nodes    int    `json:"nodes" yaml:"nodes"`
}

// CLIScript reports the value of a script's last expression.
type CLIScript struct {
	Script string `json:"script" yaml:"script"`
	Result any    `json:"result" yaml:"result"`
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}
