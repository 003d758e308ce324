package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultFillsAgents(t *testing.T) {
	cfg := Default()
	if len(cfg.Agents) != len(DefaultAgents) {
		t.Fatalf("Default().Agents = %v, want %v", cfg.Agents, DefaultAgents)
	}
	if cfg.Watch.DebounceMS != 300 {
		t.Fatalf("Default().Watch.DebounceMS = %d, want 300", cfg.Watch.DebounceMS)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if len(cfg.Agents) != len(DefaultAgents) {
		t.Fatalf("Load(missing).Agents = %v, want defaults", cfg.Agents)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.DataDir == "" {
		t.Fatal("Load(\"\").DataDir is empty")
	}
}

func TestLoadOverridesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cass.yaml")
	yaml := "data_dir: /custom/data\nagents: [codex, aider]\nwatch:\n  debounce_ms: 750\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DataDir != "/custom/data" {
		t.Fatalf("DataDir = %q, want /custom/data", cfg.DataDir)
	}
	if len(cfg.Agents) != 2 || cfg.Agents[0] != "codex" || cfg.Agents[1] != "aider" {
		t.Fatalf("Agents = %v, want [codex aider]", cfg.Agents)
	}
	if cfg.Watch.DebounceMS != 750 {
		t.Fatalf("DebounceMS = %d, want 750", cfg.Watch.DebounceMS)
	}
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cass.yaml")
	if err := os.WriteFile(path, []byte("data_dir: /x\n"), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Agents) != len(DefaultAgents) {
		t.Fatalf("Agents = %v, want defaults filled in", cfg.Agents)
	}
	if cfg.Watch.DebounceMS != 300 {
		t.Fatalf("DebounceMS = %d, want default 300", cfg.Watch.DebounceMS)
	}
}
