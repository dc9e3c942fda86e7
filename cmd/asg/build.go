package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/asg/internal/cache"
	"github.com/jward/asg/internal/frontend"
	"github.com/jward/asg/internal/pathfilter"
)

var (
	flagOutput       string
	flagWorkers      int
	flagCacheDir     string
	flagPathFilter   string
	flagReverseEdges bool
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Build an ASG file from a source tree",
	Long:  "Parses every supported source file below path with tree-sitter, merges the per-file graphs, resolves names and calls, and saves the result.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&flagOutput, "output", "o", "project.asg", "output ASG file")
	buildCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel parsers (default from config, 0 = GOMAXPROCS)")
	buildCmd.Flags().StringVar(&flagCacheDir, "cache-dir", "", "per-file build cache directory (default from config)")
	buildCmd.Flags().StringVar(&flagPathFilter, "path-filter", "", "file of +/- path regexes whose excluded packages are filtered")
	buildCmd.Flags().BoolVar(&flagReverseEdges, "reverse-edges", false, "build the reverse edge index before saving")
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return outputError(cmd, err)
	}

	opts := []frontend.Option{
		frontend.WithLogger(logger),
		frontend.WithInclude(cfg.Build.Include...),
		frontend.WithExclude(cfg.Build.Exclude...),
	}

	workers := cfg.Build.Workers
	if cmd.Flags().Changed("workers") {
		workers = flagWorkers
	}
	if workers > 0 {
		opts = append(opts, frontend.WithWorkers(workers))
	}

	cacheDir := cfg.Build.CacheDir
	if cmd.Flags().Changed("cache-dir") {
		cacheDir = flagCacheDir
	}
	if cacheDir != "" {
		c, err := cache.Open(cacheDir, logger)
		if err != nil {
			return outputError(cmd, err)
		}
		defer c.Close()
		opts = append(opts, frontend.WithCache(c))
	}

	filterPath := cfg.Build.PathFilter
	if cmd.Flags().Changed("path-filter") {
		filterPath = flagPathFilter
	}
	if filterPath != "" {
		pf, err := pathfilter.LoadFile(filterPath)
		if err != nil {
			return outputError(cmd, err)
		}
		opts = append(opts, frontend.WithPathFilter(pf))
	}

	if cfg.Build.ReverseEdge || flagReverseEdges {
		opts = append(opts, frontend.WithReverseEdges())
	}

	res, err := frontend.New(opts...).BuildDirectory(cmd.Context(), targetDir)
	if err != nil {
		return outputError(cmd, fmt.Errorf("building: %w", err))
	}
	if err := saveGraph(res.Factory, flagOutput); err != nil {
		return outputError(cmd, err)
	}

	logger.Info("build finished",
		zap.String("dir", targetDir),
		zap.Int("files", len(res.Files)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return outputResult(cmd, CLIResult{
		Command: "build",
		Results: CLIBuild{
			Output:   flagOutput,
			Files:    len(res.Files),
			Cached:   res.Cached,
			Filtered: res.Filtered,
			Nodes:    res.Factory.Len(),
			Failed:   res.Failed,
			Resolve:  res.Resolve,
		},
	})
}

// resolveTargetDir returns the absolute path of the directory to build.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}
