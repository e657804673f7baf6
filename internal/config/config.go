// Package config loads the revsync run configuration.
//
// Configuration is optional: every field has a working default targeting
// the smithy-rs → SDK pipeline, and a YAML file can override any section.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up next to the invocation.
const DefaultFileName = "revsync.yaml"

// Config represents the complete revsync configuration.
type Config struct {
	Model ModelConfig `yaml:"model"`
	Build BuildConfig `yaml:"build"`
	Sync  SyncConfig  `yaml:"sync"`
}

// ModelConfig configures model-change detection.
type ModelConfig struct {
	// PathPrefixes are the upstream path prefixes whose changes affect
	// generated output.
	PathPrefixes []string `yaml:"path_prefixes"`
}

// BuildConfig configures generator invocation.
type BuildConfig struct {
	// Command is the generator command and its arguments, run from the
	// generator repository root.
	Command []string `yaml:"command"`

	// OutputDir is the generated-artifact directory relative to the
	// generator repository root.
	OutputDir string `yaml:"output_dir"`

	// TimeoutSeconds bounds a single generator invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// Retries is the number of attempts per revision before the run aborts.
	Retries int `yaml:"retries"`

	// BackoffBaseSeconds is the initial retry backoff.
	BackoffBaseSeconds int `yaml:"backoff_base_seconds"`

	// BackoffMaxSeconds caps the retry backoff.
	BackoffMaxSeconds int `yaml:"backoff_max_seconds"`
}

// SyncConfig configures the sync run itself.
type SyncConfig struct {
	// LedgerDepth caps how many target commits are scanned when
	// reconstructing the ledger. Zero scans the full history.
	LedgerDepth int `yaml:"ledger_depth"`
}

// Timeout returns the build timeout as a duration.
func (b BuildConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// BackoffBase returns the initial retry backoff as a duration.
func (b BuildConfig) BackoffBase() time.Duration {
	return time.Duration(b.BackoffBaseSeconds) * time.Second
}

// BackoffMax returns the retry backoff cap as a duration.
func (b BuildConfig) BackoffMax() time.Duration {
	return time.Duration(b.BackoffMaxSeconds) * time.Second
}

// ParseError describes an unusable configuration input.
type ParseError struct {
	// Path is the offending file, when known.
	Path string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			PathPrefixes: []string{
				"aws/sdk/aws-models",
				"aws/sdk/sdk-default-configuration",
				"aws/rust-runtime",
				"codegen-core",
				"codegen-client",
				"rust-runtime",
			},
		},
		Build: BuildConfig{
			Command:            []string{"./gradlew", "-Paws.fullsdk=true", ":aws:sdk:assemble"},
			OutputDir:          "aws/sdk/build/aws-sdk",
			TimeoutSeconds:     3600,
			Retries:            3,
			BackoffBaseSeconds: 5,
			BackoffMaxSeconds:  300,
		},
		Sync: SyncConfig{
			LedgerDepth: 0,
		},
	}
}

// Load reads the configuration at path, applying defaults for absent
// sections. A missing file yields the defaults; a malformed or invalid
// file yields a ParseError.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Model.PathPrefixes) == 0 {
		return fmt.Errorf("model.path_prefixes must not be empty")
	}
	if len(c.Build.Command) == 0 {
		return fmt.Errorf("build.command must not be empty")
	}
	if c.Build.OutputDir == "" {
		return fmt.Errorf("build.output_dir must not be empty")
	}
	if c.Build.TimeoutSeconds <= 0 {
		return fmt.Errorf("build.timeout_seconds must be positive")
	}
	if c.Build.Retries < 1 {
		return fmt.Errorf("build.retries must be at least 1")
	}
	if c.Build.BackoffBaseSeconds < 0 || c.Build.BackoffMaxSeconds < 0 {
		return fmt.Errorf("backoff durations must not be negative")
	}
	if c.Sync.LedgerDepth < 0 {
		return fmt.Errorf("sync.ledger_depth must not be negative")
	}
	return nil
}
