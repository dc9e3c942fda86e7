package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/asg"
)

var (
	flagTop      int
	flagMinScore float64
	flagKind     string
	flagMinSize  int
)

var similarCmd = &cobra.Command{
	Use:   "similar <file.asg> <id>",
	Short: "Rank nodes of the same kind by attribute similarity",
	Args:  cobra.ExactArgs(2),
	RunE:  runSimilar,
}

var clonesCmd = &cobra.Command{
	Use:   "clones <file.asg>",
	Short: "Group structurally identical subtrees",
	Long:  "Groups the nodes of --kind whose subtrees share a structural hash. Names and positions are ignored by the hash.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClones,
}

func init() {
	similarCmd.Flags().IntVar(&flagTop, "top", 10, "number of matches to print")
	similarCmd.Flags().Float64Var(&flagMinScore, "min-score", 0, "drop matches scoring below this")
	clonesCmd.Flags().StringVar(&flagKind, "kind", "Method", "node kind to group")
	clonesCmd.Flags().IntVar(&flagMinSize, "min-size", 0, "minimum subtree size (default from config)")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	id, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return outputError(cmd, fmt.Errorf("invalid id %q: %w", args[1], err))
	}
	target, err := f.Node(asg.NodeID(id))
	if err != nil {
		return outputError(cmd, err)
	}

	opts := similarityOptions()
	var matches []CLISimilar
	for n := range f.NodesOfKind(target.Kind()) {
		if n.ID() == target.ID() || n.Kind() != target.Kind() {
			continue
		}
		score := opts.Similarity(target, n)
		if score <= 0 || score < flagMinScore {
			continue
		}
		matches = append(matches, CLISimilar{CLINodeRef: nodeRef(n), Score: score})
	}
	slices.SortStableFunc(matches, func(a, b CLISimilar) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return int(a.ID) - int(b.ID)
	})
	if flagTop > 0 && len(matches) > flagTop {
		matches = matches[:flagTop]
	}
	return outputResult(cmd, CLIResult{Command: "similar", Results: matches})
}

func runClones(cmd *cobra.Command, args []string) error {
	kind, ok := asg.ParseNodeKind(flagKind)
	if !ok {
		return outputError(cmd, fmt.Errorf("unknown kind %q", flagKind))
	}
	minSize := cfg.Similarity.CloneMinSize
	if cmd.Flags().Changed("min-size") {
		minSize = flagMinSize
	}

	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}

	groups := []CLICloneGroup{}
	for _, ids := range asg.CloneGroups(f, kind, minSize) {
		g := CLICloneGroup{Nodes: make([]CLINodeRef, 0, len(ids))}
		for _, id := range ids {
			n, err := f.Node(id)
			if err != nil {
				return outputError(cmd, err)
			}
			g.Nodes = append(g.Nodes, nodeRef(n))
		}
		if g.Hash, err = f.Hash(ids[0]); err != nil {
			return outputError(cmd, err)
		}
		g.Size = subtreeSize(f, ids[0])
		groups = append(groups, g)
	}
	return outputResult(cmd, CLIResult{Command: "clones", Results: groups})
}

// subtreeSize counts id and every node it owns.
func subtreeSize(f *asg.Factory, id asg.NodeID) int {
	size := 0
	stack := []asg.NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		kind, err := f.Kind(cur)
		if err != nil {
			continue
		}
		for _, e := range asg.EdgesOf(kind) {
			if !e.IsOwnership() {
				continue
			}
			targets, _ := f.Edges(cur, e)
			stack = append(stack, targets...)
		}
	}
	return size
}
