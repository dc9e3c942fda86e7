package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	kindColor  = color.New(color.FgCyan, color.Bold)
	edgeColor  = color.New(color.FgHiBlack)
	scoreColor = color.New(color.FgGreen)
)

// formatBuildText prints a build summary.
func formatBuildText(w io.Writer, b CLIBuild) {
	fmt.Fprintf(w, "Wrote %s: %d nodes from %d files (%d cached, %d filtered)\n",
		b.Output, b.Nodes, b.Files, b.Cached, b.Filtered)
	r := b.Resolve
	fmt.Fprintf(w, "Resolved %d references, %d invocations, %d call edges, %d base classes (%d unresolved)\n",
		r.References, r.Invokes, r.Calls, r.Extends, r.Unresolved)
	for _, f := range b.Failed {
		fmt.Fprintf(w, "  failed: %s: %s\n", f.Path, f.Err)
	}
}

// formatHeaderText prints header entries as aligned columns.
func formatHeaderText(w io.Writer, entries []CLIHeaderEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tVALUE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", e.Key, e.Value)
	}
	tw.Flush()
}

// formatDumpText prints one line per node, indented by ownership depth.
func formatDumpText(w io.Writer, n CLINode, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s#%d %s", indent, n.ID, kindColor.Sprint(n.Kind))
	if n.Edge != "" {
		fmt.Fprintf(w, " %s", edgeColor.Sprintf("(%s)", n.Edge))
	}
	for _, k := range sortedKeys(n.Attrs) {
		fmt.Fprintf(w, " %s=%q", k, n.Attrs[k])
	}
	for _, k := range sortedKeys(n.Links) {
		fmt.Fprintf(w, " %s->%v", k, n.Links[k])
	}
	fmt.Fprintln(w)
	for _, c := range n.Children {
		formatDumpText(w, c, depth+1)
	}
}

// formatStatsText prints totals followed by per-kind and per-edge counts.
func formatStatsText(w io.Writer, s CLIStats) {
	fmt.Fprintln(w, "ASG Statistics")
	fmt.Fprintln(w, "==============")
	fmt.Fprintf(w, "Nodes: %d (%d filtered)\n", s.Nodes, s.Filtered)
	fmt.Fprintf(w, "Max ID: %d\n", s.MaxID)
	fmt.Fprintf(w, "Strings: %d\n", s.Strings)
	fmt.Fprintf(w, "Max depth: %d\n", s.MaxDepth)
	fmt.Fprintln(w)

	if len(s.ByKind) > 0 {
		fmt.Fprintln(w, "Kinds:")
		for _, k := range sortedKeys(s.ByKind) {
			fmt.Fprintf(w, "  %s: %d\n", k, s.ByKind[k])
		}
		fmt.Fprintln(w)
	}
	if len(s.ByEdge) > 0 {
		fmt.Fprintln(w, "Edges:")
		for _, k := range sortedKeys(s.ByEdge) {
			fmt.Fprintf(w, "  %s: %d\n", k, s.ByEdge[k])
		}
	}
}

// formatSimilarText prints matches as aligned columns.
func formatSimilarText(w io.Writer, matches []CLISimilar) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tSCORE\tPOSITION")
	for _, m := range matches {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			m.ID, m.Kind, m.Name, scoreColor.Sprintf("%.3f", m.Score), m.Position)
	}
	tw.Flush()
}

// formatClonesText prints each group followed by its members.
func formatClonesText(w io.Writer, groups []CLICloneGroup) {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Group %d: hash %08x, %d nodes each\n", i+1, g.Hash, g.Size)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, n := range g.Nodes {
			fmt.Fprintf(tw, "  #%d\t%s\t%s\t%s\n", n.ID, kindColor.Sprint(n.Kind), n.Name, n.Position)
		}
		tw.Flush()
	}
}

// formatSnapshotsText prints stored snapshots as aligned columns.
func formatSnapshotsText(w io.Writer, snaps []CLISnapshot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNODES\tCREATED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Nodes, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

// outputResultText dispatches to the text formatter matching the result
// type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIBuild:
		formatBuildText(w, v)
	case []CLIHeaderEntry:
		formatHeaderText(w, v)
	case CLINode:
		formatDumpText(w, v, 0)
	case []CLINode:
		for _, n := range v {
			formatDumpText(w, n, 0)
		}
	case CLIStats:
		formatStatsText(w, v)
	case []CLISimilar:
		formatSimilarText(w, v)
	case []CLICloneGroup:
		formatClonesText(w, v)
	case CLIFilter:
		fmt.Fprintf(w, "Filtered %d of %d packages\n", v.Filtered, v.Packages)
		if v.Output != "" {
			fmt.Fprintf(w, "Wrote %s\n", v.Output)
		}
		if v.State != "" {
			fmt.Fprintf(w, "Wrote filter state %s\n", v.State)
		}
	case CLISnapshot:
		formatSnapshotsText(w, []CLISnapshot{v})
	case []CLISnapshot:
		formatSnapshotsText(w, v)
	case CLIImport:
		fmt.Fprintf(w, "Wrote %s: %d nodes from snapshot %s\n", v.Output, v.Nodes, v.Snapshot)
	case CLIScript:
		if v.Result != nil {
			fmt.Fprintln(w, v.Result)
		}
		if v.Output != "" {
			fmt.Fprintf(w, "Wrote %s\n", v.Output)
		}
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to the command's stdout in the configured
// format.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	switch cfg.Format {
	case "text":
		return outputResultText(w, result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In json and yaml mode the error is written to
// stdout as a CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, err error) error {
	errorHandled = true
	if cfg == nil || cfg.Format == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	_ = outputResult(cmd, CLIResult{Command: cmd.Name(), Error: err.Error()})
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
