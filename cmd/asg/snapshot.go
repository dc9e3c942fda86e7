package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/store"
)

var (
	flagDB           string
	flagSnapshotName string
	flagImportOutput string
	flagList         bool
)

var exportCmd = &cobra.Command{
	Use:   "export <file.asg>",
	Short: "Store an ASG file as a SQLite snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [snapshot]",
	Short: "Write a stored snapshot back to an ASG file",
	Long:  "Looks the snapshot up by id, then by name (newest first). With --list, prints the stored snapshots instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runImport,
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		c.Flags().StringVar(&flagDB, "db", "", "snapshot database (default from config)")
	}
	exportCmd.Flags().StringVar(&flagSnapshotName, "name", "", "snapshot name (default: file name)")
	importCmd.Flags().StringVarP(&flagImportOutput, "output", "o", "snapshot.asg", "output ASG file")
	importCmd.Flags().BoolVar(&flagList, "list", false, "list stored snapshots")
}

// openStore opens and migrates the snapshot database.
func openStore() (*store.Store, error) {
	path := cfg.Store.Path
	if flagDB != "" {
		path = flagDB
	}
	s, err := store.NewStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func snapshotToCLI(s *store.Snapshot) CLISnapshot {
	return CLISnapshot{
		ID:         s.ID,
		Name:       s.Name,
		CreatedAt:  s.CreatedAt,
		APIVersion: s.APIVersion,
		Nodes:      s.NodeCount,
		Digest:     s.Digest,
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	f, err := loadGraph(args[0])
	if err != nil {
		return outputError(cmd, err)
	}
	s, err := openStore()
	if err != nil {
		return outputError(cmd, err)
	}
	defer s.Close()

	name := flagSnapshotName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}
	id, err := asg.ExportSnapshot(s, f, name)
	if err != nil {
		return outputError(cmd, err)
	}
	snap, err := s.SnapshotByID(id)
	if err != nil {
		return outputError(cmd, err)
	}
	return outputResult(cmd, CLIResult{Command: "export", Results: snapshotToCLI(snap)})
}

func runImport(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError(cmd, err)
	}
	defer s.Close()

	if flagList {
		snaps, err := s.Snapshots()
		if err != nil {
			return outputError(cmd, err)
		}
		out := make([]CLISnapshot, 0, len(snaps))
		for _, snap := range snaps {
			out = append(out, snapshotToCLI(snap))
		}
		return outputResult(cmd, CLIResult{Command: "import", Results: out})
	}
	if len(args) == 0 {
		return outputError(cmd, fmt.Errorf("requires a snapshot id or name, or --list"))
	}

	snap, err := s.SnapshotByID(args[0])
	if err == nil && snap == nil {
		snap, err = s.SnapshotByName(args[0])
	}
	if err != nil {
		return outputError(cmd, err)
	}
	if snap == nil {
		return outputError(cmd, fmt.Errorf("no snapshot %q", args[0]))
	}

	f, err := asg.ImportSnapshot(s, snap.ID, asg.WithLogger(logger))
	if err != nil {
		return outputError(cmd, err)
	}
	if err := saveGraph(f, flagImportOutput); err != nil {
		return outputError(cmd, err)
	}
	return outputResult(cmd, CLIResult{
		Command: "import",
		Results: CLIImport{Snapshot: snap.ID, Output: flagImportOutput, Nodes: f.Len()},
	})
}
