// Package asg stores abstract semantic graphs: the typed, language-neutral
// program model that analyzers build from source code and walk afterwards.
//
// # Model
//
// Every node lives in the arena of one [Factory] and is addressed by a
// [NodeID]. Nodes are connected by typed edges of two sorts:
//
//  1. Ownership edges form a tree below the root [Package]. A node has at
//     most one owner, and deleting a node deletes everything it owns.
//  2. Association edges (references, calls, base classes, comments) may
//     point anywhere in the same Factory, cycles included. Some carry a
//     payload, for example the [CallKind] of a Method.Calls edge.
//
// All strings are interned in the Factory's [StrTable]. An optional reverse
// index answers "who points at this node" without a scan.
//
// # Usage
//
//	f := asg.New(asg.WithReverseEdges())
//	m := f.NewMethod("run", asg.MethodKindMethod)
//	_ = f.Root().AddMember(m)
//	_ = m.SetBody(f.NewBlock())
//
//	err := f.SaveFile("project.asg")
//	g, err := asg.LoadFile("project.asg")
//
// # Traversal
//
// [Preorder] walks the ownership tree and, on request, chosen association
// edges, calling a [Visitor] on entry and exit of every node. Safe mode
// tolerates cycles.
//
// # Filtering
//
// The [Filter] hides nodes without deleting them. Hidden nodes disappear
// from getters, iteration, traversal and saved files while the filter is on.
//
// # Comparison
//
// [Hash] gives a structural hash that ignores names and positions;
// [CloneGroups] groups subtrees sharing it. [Similarity] scores attribute
// overlap between two nodes of the same kind.
//
// The internal/frontend package builds ASGs from Go, Python, Java and
// JavaScript sources with tree-sitter; cmd/asg exposes everything on the
// command line.
package asg
