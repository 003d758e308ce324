// Package config loads the YAML configuration file that every command
// reads at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Watch holds watcher tuning knobs.
type Watch struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Config is the top-level configuration file shape.
type Config struct {
	DataDir string   `yaml:"data_dir"`
	Agents  []string `yaml:"agents"`
	Watch   Watch    `yaml:"watch"`
}

// DefaultAgents is the closed set of agent slugs the core knows how to
// connect to.
var DefaultAgents = []string{"codex", "claude_code", "gemini_cli", "cline", "opencode", "amp", "aider"}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".cass"),
		Agents:  append([]string(nil), DefaultAgents...),
		Watch:   Watch{DebounceMS: 300},
	}
}

// Load reads a YAML config file at path, filling any field left zero with
// the default. A missing file is not an error; Default() is returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if len(cfg.Agents) == 0 {
		cfg.Agents = append([]string(nil), DefaultAgents...)
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 300
	}
	return cfg, nil
}
