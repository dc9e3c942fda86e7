// Package config loads asg settings from .asg.yaml, ASG_* environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full asg configuration.
type Config struct {
	Format     string           `mapstructure:"format"`
	Verbose    bool             `mapstructure:"verbose"`
	Build      BuildConfig      `mapstructure:"build"`
	Store      StoreConfig      `mapstructure:"store"`
	Similarity SimilarityConfig `mapstructure:"similarity"`
	Scripts    ScriptsConfig    `mapstructure:"scripts"`
}

// BuildConfig drives the front end.
type BuildConfig struct {
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	Workers     int      `mapstructure:"workers"`
	CacheDir    string   `mapstructure:"cache_dir"`
	PathFilter  string   `mapstructure:"path_filter"`
	Compress    bool     `mapstructure:"compress"`
	ReverseEdge bool     `mapstructure:"reverse_edges"`
}

// StoreConfig locates the snapshot database.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// SimilarityConfig tunes Similarity and clone detection.
type SimilarityConfig struct {
	MinForStrings float64 `mapstructure:"min_for_strings"`
	Min           float64 `mapstructure:"min"`
	CloneMinSize  int     `mapstructure:"clone_min_size"`
}

// ScriptsConfig locates user scripts. An empty Dir uses the embedded set.
type ScriptsConfig struct {
	Dir string `mapstructure:"dir"`
}

var validFormats = []string{"text", "json", "yaml"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "text")
	v.SetDefault("verbose", false)
	v.SetDefault("build.include", []string{"**/*.go", "**/*.py", "**/*.java", "**/*.js"})
	v.SetDefault("build.exclude", []string{"**/node_modules/**", "**/.git/**", "**/vendor/**"})
	v.SetDefault("build.workers", 0)
	v.SetDefault("build.cache_dir", "")
	v.SetDefault("build.path_filter", "")
	v.SetDefault("build.compress", true)
	v.SetDefault("build.reverse_edges", false)
	v.SetDefault("store.path", ".asg.db")
	v.SetDefault("similarity.min_for_strings", 0.1)
	v.SetDefault("similarity.min", 0.0)
	v.SetDefault("similarity.clone_min_size", 5)
	v.SetDefault("scripts.dir", "")
}

// Load reads configuration. When path is empty, .asg.yaml is looked up in
// the working directory and a missing file falls back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".asg")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ASG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	ok := false
	for _, f := range validFormats {
		if c.Format == f {
			ok = true
		}
	}
	if !ok {
		return fmt.Errorf("config: format must be one of %s, got %q", strings.Join(validFormats, ", "), c.Format)
	}
	if c.Build.Workers < 0 {
		return fmt.Errorf("config: build.workers must be >= 0, got %d", c.Build.Workers)
	}
	if c.Similarity.MinForStrings < 0 || c.Similarity.MinForStrings > 1 {
		return fmt.Errorf("config: similarity.min_for_strings must be in [0,1], got %g", c.Similarity.MinForStrings)
	}
	if c.Similarity.Min < 0 || c.Similarity.Min >= 1 {
		return fmt.Errorf("config: similarity.min must be in [0,1), got %g", c.Similarity.Min)
	}
	return nil
}
