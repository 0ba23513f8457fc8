package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File deletion policies for siblings within one directory.
// Concurrent dispatches every file under the admission limit before waiting;
// sequential awaits each removal before dispatching the next.
const (
	FilePolicyConcurrent = "concurrent"
	FilePolicySequential = "sequential"
)

// DefaultConcurrency bounds in-flight removal operations when the config
// and flags leave it unset.
const DefaultConcurrency = 16

type DeleteOptions struct {
	Concurrency int    `yaml:"concurrency" json:"concurrency"`   // Max simultaneous removal operations
	FilePolicy  string `yaml:"file_policy" json:"file_policy"`   // concurrent | sequential
}

type PrometheusCfg struct {
	Port int `yaml:"port" json:"port"` // 0 disables the metrics server
}

type LoggingCfg struct {
	RotationDays int `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type Config struct {
	Delete         DeleteOptions `yaml:"delete" json:"delete"`
	Prometheus     PrometheusCfg `yaml:"prometheus" json:"prometheus"`
	Logging        LoggingCfg    `yaml:"logging" json:"logging"`
	HistoryPath    string        `yaml:"history_path" json:"history_path"`         // Path to SQLite run history; empty disables
	ProtectedPaths []string      `yaml:"protected_paths" json:"protected_paths"`   // Extra prefixes refused as deletion targets
}

var (
	errNegativeConcurrency = errors.New("delete.concurrency cannot be negative")
	errInvalidFilePolicy   = errors.New("delete.file_policy must be \"concurrent\" or \"sequential\"")
	errInvalidPath         = errors.New("path must be absolute")
)

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	// Defaults cannot fail validation
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.Delete.Concurrency < 0 {
		return errNegativeConcurrency
	}
	if c.Delete.Concurrency == 0 {
		c.Delete.Concurrency = DefaultConcurrency
	}

	switch c.Delete.FilePolicy {
	case "":
		c.Delete.FilePolicy = FilePolicyConcurrent
	case FilePolicyConcurrent, FilePolicySequential:
	default:
		return fmt.Errorf("%w: %q", errInvalidFilePolicy, c.Delete.FilePolicy)
	}

	// Set defaults for logging
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30 // Default: keep logs for 30 days
	}

	// Prometheus.Port defaults to 0 (disabled): fastdel is a one-shot tool,
	// so metrics are opt-in rather than always-on

	if c.HistoryPath != "" {
		cp, err := cleanAbsolute(c.HistoryPath)
		if err != nil {
			return fmt.Errorf("history_path: %w", err)
		}
		c.HistoryPath = cp
	}

	cleaned := make([]string, 0, len(c.ProtectedPaths))
	for _, p := range c.ProtectedPaths {
		cp, err := cleanAbsolute(p)
		if err != nil {
			return fmt.Errorf("protected_paths: %w", err)
		}
		cleaned = append(cleaned, cp)
	}
	c.ProtectedPaths = cleaned

	return nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

// SequentialFiles reports whether files within one directory are removed
// strictly one at a time.
func (c *Config) SequentialFiles() bool {
	return c.Delete.FilePolicy == FilePolicySequential
}

func (c *Config) PrometheusAddress() string {
	return fmt.Sprintf(":%d", c.Prometheus.Port)
}
