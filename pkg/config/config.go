// Package config handles workspace configuration for selfheal.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the workspace configuration (selfheal.yaml).
type Config struct {
	// Flow selection
	Flows       []string `yaml:"flows"`       // Glob patterns for flow files
	IncludeTags []string `yaml:"includeTags"` // Run only flows carrying one of these tags
	ExcludeTags []string `yaml:"excludeTags"` // Skip flows carrying one of these tags

	// Execution settings
	BaseURL     string `yaml:"baseUrl"`     // Default base URL for relative navigation
	Parallelism int    `yaml:"parallelism"` // Max concurrent flows (0 = sequential)
	Retries     int    `yaml:"retries"`     // Per-flow retry budget
	StopOnFail  bool   `yaml:"stopOnFail"`  // Stop the run on first failure

	// Artifact locations
	DataDir       string `yaml:"dataDir"`       // History, metrics and dashboard
	ScreenshotDir string `yaml:"screenshotDir"` // Screenshot step output
	LogFile       string `yaml:"logFile"`       // Execution log
}

// Defaults applied when the config file leaves fields empty.
const (
	DefaultDataDir       = ".selfheal"
	DefaultScreenshotDir = "screenshots"
)

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromDir looks for selfheal.yaml or selfheal.yml in the
// directory, returning a default config when neither exists.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"selfheal.yaml", "selfheal.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = DefaultScreenshotDir
	}
}

// SelectsFlow applies the include/exclude tag filters to a flow's tag
// set.
func (c *Config) SelectsFlow(tags []string) bool {
	has := func(want string) bool {
		for _, t := range tags {
			if t == want {
				return true
			}
		}
		return false
	}

	for _, t := range c.ExcludeTags {
		if has(t) {
			return false
		}
	}
	if len(c.IncludeTags) == 0 {
		return true
	}
	for _, t := range c.IncludeTags {
		if has(t) {
			return true
		}
	}
	return false
}
