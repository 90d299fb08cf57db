// Package config loads the workflow configuration from codeteam.yml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up at the workspace root.
const DefaultFileName = "codeteam.yml"

// Command is a named shell command run during verification.
type Command struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
}

// Verification configures the automated half of the verification pipeline.
type Verification struct {
	Commands       []Command `yaml:"commands"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
}

// Checkers holds the instance count per checker kind. A count above one
// invokes the same capability that many times.
type Checkers struct {
	Architecture   int `yaml:"architecture"`
	TaskCompletion int `yaml:"task_completion"`
	Security       int `yaml:"security"`
	Performance    int `yaml:"performance"`
}

// Config is the full workflow configuration.
type Config struct {
	Version      int          `yaml:"version"`
	Model        string       `yaml:"model"`
	MaxAttempts  int          `yaml:"max_attempts"`
	Verification Verification `yaml:"verification"`
	Checkers     Checkers     `yaml:"checkers"`
}

// Default returns the configuration used when no codeteam.yml exists.
func Default() *Config {
	return &Config{
		Version:     1,
		Model:       "sonnet",
		MaxAttempts: 3,
		Verification: Verification{
			TimeoutSeconds: 600,
		},
		Checkers: Checkers{
			Architecture:   1,
			TaskCompletion: 1,
		},
	}
}

// Load reads and validates the config file at path. A missing file is not
// an error; defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("max_attempts must be at least 1, got %d", cfg.MaxAttempts)
	}
	for _, c := range cfg.Verification.Commands {
		if c.Name == "" || c.Command == "" {
			return nil, fmt.Errorf("verification commands need both a name and a command")
		}
	}
	return cfg, nil
}

// CommandTimeout returns the per-command timeout for verification runs.
func (c *Config) CommandTimeout() time.Duration {
	if c.Verification.TimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Verification.TimeoutSeconds) * time.Second
}

// CheckerCounts returns the configured checker kinds with their instance
// counts, in a fixed order so verification reports are reproducible.
func (c *Config) CheckerCounts() []struct {
	Kind  string
	Count int
} {
	return []struct {
		Kind  string
		Count int
	}{
		{"architecture", c.Checkers.Architecture},
		{"task_completion", c.Checkers.TaskCompletion},
		{"security", c.Checkers.Security},
		{"performance", c.Checkers.Performance},
	}
}
