package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/runtime"
	"github.com/jward/asg/scripts"
)

var (
	flagScriptsDir   string
	flagScriptOutput string
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.asg> <script>",
	Short: "Run a Risor script against an ASG file",
	Long: `Runs script with the graph host functions bound to the loaded ASG and prints the value of its last expression.
A script path that exists on disk is run from there; other names are looked up in --scripts-dir, then in the built-in scripts.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripts from disk path instead of embedded (default from config)")
	scriptCmd.Flags().StringVarP(&flagScriptOutput, "output", "o", "", "save the graph after the script ran")
}

func runScript(cmd *cobra.Command, args []string) error {
	f, err := loadGraph(args[0], asg.WithReverseEdges())
	if err != nil {
		return outputError(cmd, err)
	}

	rtOpts := []runtime.RuntimeOption{
		runtime.WithLogger(logger),
		runtime.WithSimilarity(similarityOptions()),
	}
	name := args[1]
	scriptsDir := cfg.Scripts.Dir
	if cmd.Flags().Changed("scripts-dir") {
		scriptsDir = flagScriptsDir
	}
	switch {
	case isFile(name):
		scriptsDir = filepath.Dir(name)
		name = filepath.Base(name)
	case scriptsDir == "":
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(scripts.FS))
	}

	rt := runtime.NewRuntime(f, scriptsDir, rtOpts...)
	result, err := rt.EvalScript(cmd.Context(), name, nil)
	if err != nil {
		return outputError(cmd, err)
	}

	if flagScriptOutput != "" {
		if err := saveGraph(f, flagScriptOutput); err != nil {
			return outputError(cmd, err)
		}
	}
	return outputResult(cmd, CLIResult{
		Command: "script",
		Results: CLIScript{Script: args[1], Result: result, Output: flagScriptOutput},
	})
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
