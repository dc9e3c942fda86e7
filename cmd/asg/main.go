package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jward/asg"
	"github.com/jward/asg/internal/config"
)

var (
	flagConfig  string
	flagFormat  string
	flagVerbose bool
)

// cfg and logger are set up by the root PersistentPreRunE.
var (
	cfg    *config.Config
	logger = zap.NewNop()
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "asg",
	Short:         "Build, inspect and compare abstract semantic graphs",
	Long:          "asg builds language-neutral semantic graphs from Go, Python, Java and JavaScript sources, stores them in binary files and SQLite snapshots, and runs structural comparisons and Risor scripts over them.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .asg.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "output format: text|json|yaml (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(clonesCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scriptCmd)
}

// setup loads the configuration, lets flags override it and builds the
// logger.
func setup(cmd *cobra.Command) error {
	c, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("format") {
		c.Format = flagFormat
	}
	if cmd.Flags().Changed("verbose") {
		c.Verbose = flagVerbose
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	l, err := newLogger(c.Verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	return nil
}

// newLogger returns a development logger when verbose, otherwise a
// production logger that only reports warnings and errors.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zc.Build()
}

// similarityOptions converts the similarity config section.
func similarityOptions() asg.SimilarityOptions {
	return asg.SimilarityOptions{
		Minimum:       cfg.Similarity.Min,
		MinForStrings: cfg.Similarity.MinForStrings,
	}
}

// loadGraph reads an ASG file with the CLI logger attached.
func loadGraph(path string, opts ...asg.Option) (*asg.Factory, error) {
	opts = append(opts, asg.WithLogger(logger))
	f, err := asg.LoadFile(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return f, nil
}

// saveGraph writes f honoring build.compress.
func saveGraph(f *asg.Factory, path string, opts ...asg.SaveOption) error {
	opts = append([]asg.SaveOption{asg.WithCompression(cfg.Build.Compress)}, opts...)
	if err := f.SaveFile(path, opts...); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
