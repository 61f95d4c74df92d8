// Package config loads the optional .proctor YAML file and applies
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".proctor"

// Default values.
const (
	DefaultResultsFile = "./results.json"
	DefaultTestsDir    = "./tests"
	DefaultTimeout     = 5 * time.Minute
	DefaultMaxOutput   = 1000 // characters kept per stream in a record
	DefaultAddr        = ":3000"
	DefaultCORSOrigin  = "*"
)

// Config holds the parsed .proctor configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	RawResultsFile string     `yaml:"results_file"`
	RawTestsDir    string     `yaml:"tests_dir"`
	RawTimeout     string     `yaml:"timeout"`     // e.g. "5m", "30s"
	RawMaxOutput   int        `yaml:"max_output"`  // characters
	MaxCapture     int        `yaml:"max_capture"` // memory bound in bytes per stream, 0 = unlimited
	HTTP           HTTPConfig `yaml:"http"`
}

// HTTPConfig controls the HTTP API listener.
type HTTPConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

// ResultsFile returns the path of the durable results file.
func (c *Config) ResultsFile() string {
	if c.RawResultsFile != "" {
		return c.RawResultsFile
	}
	return DefaultResultsFile
}

// TestsDir returns the root directory that holds test scripts.
func (c *Config) TestsDir() string {
	if c.RawTestsDir != "" {
		return c.RawTestsDir
	}
	return DefaultTestsDir
}

// Timeout returns the configured per-run timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutput returns the truncation length for stored output or the default.
func (c *Config) MaxOutput() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}
	return DefaultAddr
}

// CORSOrigin returns the allowed CORS origin.
func (c *Config) CORSOrigin() string {
	if c.HTTP.CORSOrigin != "" {
		return c.HTTP.CORSOrigin
	}
	return DefaultCORSOrigin
}

// Load reads the .proctor file from dir. If no file exists, a default
// Config is returned. Environment overrides are applied in both cases.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", FileName, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// applyEnv overrides file values with RESULTS_FILE_PATH, PORT and CORS_ORIGIN.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("RESULTS_FILE_PATH"); v != "" {
		c.RawResultsFile = v
	}
	if v := getenv("PORT"); v != "" {
		c.HTTP.Addr = ":" + v
	}
	if v := getenv("CORS_ORIGIN"); v != "" {
		c.HTTP.CORSOrigin = v
	}
}
