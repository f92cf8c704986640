package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestInitDeckDirCreatesStructure(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("init deck dir: %v", err)
	}
	for _, sub := range []string{"logs", "state", "templates", "exports", "plugins"} {
		if _, err := os.Stat(filepath.Join(dir, DeckDir, sub)); err != nil {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, DeckDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read default config: %v", err)
	}
	if !strings.Contains(string(data), "provider: canned") {
		t.Fatalf("default config missing backend provider:\n%s", data)
	}
}

func TestInitDeckDirDoesNotOverwriteExistingConfig(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("init deck dir: %v", err)
	}
	custom := "version: 1\nbackend:\n  provider: gemini\n  api_key: abc\n"
	path := filepath.Join(dir, DeckDir, "config.yaml")
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("re-init deck dir: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != custom {
		t.Fatalf("config was overwritten")
	}
}

func TestNewAppliesDefaultsWhenConfigMissing(t *testing.T) {
	cfg, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Project.Backend.Provider != "canned" {
		t.Fatalf("provider = %q, want canned", cfg.Project.Backend.Provider)
	}
	if cfg.BulkDelay() != time.Second {
		t.Fatalf("bulk delay = %v, want 1s", cfg.BulkDelay())
	}
	if cfg.ReorderDebounce() != time.Second {
		t.Fatalf("reorder debounce = %v, want 1s", cfg.ReorderDebounce())
	}
	if cfg.DefaultTemplate() != "project-report" {
		t.Fatalf("default template = %q", cfg.DefaultTemplate())
	}
}

func TestNewParsesConfigAndOverridesFromEnv(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("init deck dir: %v", err)
	}
	custom := `version: 1
backend:
  provider: Gemini
  model: gemini-1.5-pro
generation:
  bulk_delay_ms: 250
  quality_threshold: 0.7
assist:
  enabled: true
  reorder_debounce_ms: 400
templates:
  default: business-plan
`
	if err := os.WriteFile(filepath.Join(dir, DeckDir, "config.yaml"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DRAFTDECK_API_KEY", "env-key")

	cfg, err := New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Project.Backend.Provider != "gemini" {
		t.Fatalf("provider not normalized: %q", cfg.Project.Backend.Provider)
	}
	if cfg.Project.Backend.APIKey != "env-key" {
		t.Fatalf("env override missing: %q", cfg.Project.Backend.APIKey)
	}
	if cfg.BulkDelay() != 250*time.Millisecond {
		t.Fatalf("bulk delay = %v", cfg.BulkDelay())
	}
	if cfg.ReorderDebounce() != 400*time.Millisecond {
		t.Fatalf("reorder debounce = %v", cfg.ReorderDebounce())
	}
	if cfg.DefaultTemplate() != "business-plan" {
		t.Fatalf("default template = %q", cfg.DefaultTemplate())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("init deck dir: %v", err)
	}
	bad := "version: 1\nbackend:\n  provider: smoke-signals\n"
	if err := os.WriteFile(filepath.Join(dir, DeckDir, "config.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected validation error for unknown provider")
	}
}

func TestPluginProviderRequiresPluginName(t *testing.T) {
	dir := t.TempDir()
	if err := InitDeckDir(dir); err != nil {
		t.Fatalf("init deck dir: %v", err)
	}
	bad := "version: 1\nbackend:\n  provider: plugin\n"
	if err := os.WriteFile(filepath.Join(dir, DeckDir, "config.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("expected error when plugin name is missing")
	}
}
