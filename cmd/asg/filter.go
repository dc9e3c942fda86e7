package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/pathfilter"
)

var (
	flagFilterOutput string
	flagFilterState  string
)

var filterCmd = &cobra.Command{
	Use:   "filter <file.asg> <rules>",
	Short: "Hide packages whose path matches a filter file",
	Long: `Reads +/- regex lines from rules and filters every package whose name is excluded by them.
Writes the reduced graph with --output and the raw filter state with --state.`,
	Args: cobra.ExactArgs(2),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&flagFilterOutput, "output", "o", "", "write the filtered ASG here")
	filterCmd.Flags().StringVar(&flagFilterState, "state", "", "write the filter state here")
}

func runFilter(cmd *cobra.Command, args []string) error {
	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	pf, err := pathfilter.LoadFile(args[1])
	if err != nil {
		return outputError(cmd, err)
	}

	res := CLIFilter{Output: flagFilterOutput, State: flagFilterState}
	var hide []asg.NodeID
	for n := range f.NodesOfKind(asg.KindPackage) {
		if n.ID() == f.RootID() {
			continue
		}
		res.Packages++
		if pf.Excluded(n.(*asg.Package).Name()) {
			hide = append(hide, n.ID())
		}
	}
	for _, id := range hide {
		if err := f.Filter().SetFiltered(id); err != nil {
			return outputError(cmd, err)
		}
	}
	res.Filtered = len(hide)

	if flagFilterState != "" {
		if err := writeFilterState(f, flagFilterState); err != nil {
			return outputError(cmd, err)
		}
	}
	if flagFilterOutput != "" {
		if err := saveGraph(f, flagFilterOutput); err != nil {
			return outputError(cmd, err)
		}
	}
	return outputResult(cmd, CLIResult{Command: "filter", Results: res})
}

func writeFilterState(f *asg.Factory, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Filter().Save(out); err != nil {
		out.Close()
		return fmt.Errorf("saving filter state: %w", err)
	}
	return out.Close()
}
