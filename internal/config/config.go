// Package config loads and validates run configuration.
//
// Configuration comes from a TOML file (transllm.toml by default)
// overridden by CLI flags; API keys come from the environment, never
// from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the configuration surface consumed by the pipeline.
const (
	DefaultChunkLines     = 150
	DefaultMaxConcurrency = 10
	DefaultLineTolerance  = 0
	DefaultChunkTimeout   = 120 * time.Second
	DefaultMaxAttempts    = 3
	DefaultSourceLang     = "Russian"
	DefaultTargetLang     = "English"
	DefaultFileName       = "transllm.toml"
)

// DefaultExtensions is the extension allow-list applied when the
// config file does not set one.
var DefaultExtensions = []string{
	".py", ".js", ".ts", ".jsx", ".tsx", ".html", ".css", ".scss",
	".java", ".cpp", ".c", ".h", ".cs", ".php", ".rb", ".go",
	".rs", ".swift", ".kt",
}

// DefaultExcludeDirs is the directory skip-list applied by default.
var DefaultExcludeDirs = []string{
	"node_modules", "__pycache__", ".git", "venv", "env",
	"dist", "build", "target", "vendor",
}

// Config is the full run configuration.
type Config struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	SourceLang string `toml:"source_language"`
	TargetLang string `toml:"target_language"`

	// Instructions is free-text forwarded verbatim to the backend.
	Instructions string `toml:"instructions"`

	ChunkLines     int `toml:"chunk_lines"`
	MaxConcurrency int `toml:"max_concurrency"`
	LineTolerance  int `toml:"line_tolerance"`

	// ChunkTimeoutSec is the per-chunk backend deadline in seconds.
	ChunkTimeoutSec int `toml:"chunk_timeout_seconds"`

	Extensions   []string `toml:"extensions"`
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`

	Retry RetryConfig `toml:"retry"`
	Cache CacheConfig `toml:"cache"`
}

// RetryConfig controls dispatcher retry behavior.
type RetryConfig struct {
	MaxAttempts int     `toml:"max_attempts"`
	BaseDelayMs int     `toml:"base_delay_ms"`
	MaxDelayMs  int     `toml:"max_delay_ms"`
	Multiplier  float64 `toml:"multiplier"`
}

// CacheConfig controls translation caching.
type CacheConfig struct {
	Size int `toml:"size"`

	// Path enables persistent caching when set (a SQLite database
	// file, created on first use).
	Path string `toml:"path"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a TOML config file and applies defaults for anything the
// file leaves unset. A missing file is not an error when optional is
// true; the defaults are returned instead.
func Load(path string, optional bool) (*Config, error) {
	cfg := &Config{}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourceLang == "" {
		c.SourceLang = DefaultSourceLang
	}
	if c.TargetLang == "" {
		c.TargetLang = DefaultTargetLang
	}
	if c.ChunkLines == 0 {
		c.ChunkLines = DefaultChunkLines
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.ChunkTimeoutSec == 0 {
		c.ChunkTimeoutSec = int(DefaultChunkTimeout / time.Second)
	}
	if c.Extensions == nil {
		c.Extensions = DefaultExtensions
	}
	if c.ExcludeDirs == nil {
		c.ExcludeDirs = DefaultExcludeDirs
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.BaseDelayMs == 0 {
		c.Retry.BaseDelayMs = 100
	}
	if c.Retry.MaxDelayMs == 0 {
		c.Retry.MaxDelayMs = 5000
	}
	if c.Retry.Multiplier == 0 {
		c.Retry.Multiplier = 2.0
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ChunkLines < 1 {
		return fmt.Errorf("chunk_lines must be >= 1, got %d", c.ChunkLines)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.LineTolerance < 0 {
		return fmt.Errorf("line_tolerance must be >= 0, got %d", c.LineTolerance)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// ChunkTimeout returns the per-chunk deadline as a duration.
func (c *Config) ChunkTimeout() time.Duration {
	return time.Duration(c.ChunkTimeoutSec) * time.Second
}
