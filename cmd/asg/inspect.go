package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/metrics"
)

var (
	flagNodeID  uint32
	flagDepth   int
	flagMetrics bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file.asg>",
	Short: "Print the header of an ASG file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file.asg>",
	Short: "Print the ownership tree of an ASG file",
	Long:  "Prints every node below --id (the root by default) with its attributes and association edges.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var statsCmd = &cobra.Command{
	Use:   "stats <file.asg>",
	Short: "Count nodes and edges of an ASG file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	dumpCmd.Flags().Uint32Var(&flagNodeID, "id", 0, "node to start from (default: root)")
	dumpCmd.Flags().IntVar(&flagDepth, "depth", -1, "maximum ownership depth, -1 for no limit")
	statsCmd.Flags().BoolVar(&flagMetrics, "metrics", false, "append the Prometheus metrics collected while loading")
}

func runInfo(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	defer file.Close()

	h, err := asg.ReadHeader(file)
	if err != nil {
		return outputError(cmd, fmt.Errorf("reading %s: %w", args[0], err))
	}
	entries := make([]CLIHeaderEntry, 0, h.Len())
	for _, k := range h.Keys() {
		v, _ := h.Get(k)
		entries = append(entries, CLIHeaderEntry{Key: k, Value: v})
	}
	return outputResult(cmd, CLIResult{Command: "info", Results: entries})
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	id := asg.NodeID(flagNodeID)
	if id == 0 {
		id = f.RootID()
	}
	n, err := f.Node(id)
	if err != nil {
		return outputError(cmd, err)
	}
	return outputResult(cmd, CLIResult{Command: "dump", Results: dumpNode(f, n, flagDepth)})
}

// dumpNode converts n and, up to depth levels, its owned subtree.
func dumpNode(f *asg.Factory, n asg.Node, depth int) CLINode {
	out := CLINode{
		ID:   uint32(n.ID()),
		Kind: n.Kind().String(),
	}
	if n.Parent() != nil {
		out.Edge = n.ParentEdge().Info().Name
	}
	for _, a := range asg.AttrsOf(n.Kind()) {
		v, err := f.GetAttr(n.ID(), a)
		if err != nil || isZeroValue(v) {
			continue
		}
		if out.Attrs == nil {
			out.Attrs = make(map[string]string)
		}
		out.Attrs[a.Name()] = asg.FormatValue(a, v)
	}
	for _, e := range asg.EdgesOf(n.Kind()) {
		targets, err := f.Edges(n.ID(), e)
		if err != nil || len(targets) == 0 {
			continue
		}
		if !e.IsOwnership() {
			if out.Links == nil {
				out.Links = make(map[string][]uint32)
			}
			for _, t := range targets {
				out.Links[e.Info().Name] = append(out.Links[e.Info().Name], uint32(t))
			}
			continue
		}
		if depth == 0 {
			continue
		}
		for _, t := range targets {
			c, err := f.Node(t)
			if err != nil {
				continue
			}
			out.Children = append(out.Children, dumpNode(f, c, depth-1))
		}
	}
	return out
}

func isZeroValue(v asg.Value) bool {
	switch v.Type {
	case asg.AttrBool:
		return !v.Bool
	case asg.AttrString:
		return v.Str == ""
	case asg.AttrRange:
		return v.Range == asg.Range{}
	}
	return false
}

// nodeRef names n for listings.
func nodeRef(n asg.Node) CLINodeRef {
	ref := CLINodeRef{ID: uint32(n.ID()), Kind: n.Kind().String()}
	if named, ok := n.(asg.Named); ok {
		ref.Name = named.Name()
	}
	if pos, ok := n.(asg.Positioned); ok && pos.Position() != (asg.Range{}) {
		ref.Position = asg.FormatRange(pos.Position())
	}
	return ref
}

func runStats(cmd *cobra.Command, args []string) error {
	if flagMetrics && cfg.Format != "text" {
		return outputError(cmd, fmt.Errorf("--metrics requires --format text"))
	}
	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	s := f.Stats()
	out := CLIStats{
		Nodes:    s.Nodes,
		Filtered: s.Filtered,
		MaxID:    uint32(s.MaxID),
		Strings:  s.Strings,
		MaxDepth: s.MaxDepth,
		ByKind:   make(map[string]int, len(s.ByKind)),
		ByEdge:   make(map[string]int, len(s.ByEdge)),
	}
	for k, n := range s.ByKind {
		out.ByKind[k.String()] = n
	}
	for e, n := range s.ByEdge {
		out.ByEdge[e.String()] = n
	}

	if err := outputResult(cmd, CLIResult{Command: "stats", Results: out}); err != nil {
		return err
	}
	if flagMetrics {
		var buf bytes.Buffer
		if err := metrics.WriteText(&buf); err != nil {
			return outputError(cmd, err)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	return nil
}
