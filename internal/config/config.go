// internal/config/config.go
//
// This package handles configuration and the .draftdeck directory structure.
// Every project that uses DraftDeck gets a .draftdeck/ folder created in its
// root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DeckDir is the name of the directory we create in each project.
	DeckDir = ".draftdeck"

	defaultTemplateID = "project-report"
)

const defaultProjectConfigYAML = `# draftdeck project configuration
version: 1

# Generation backend. Provider is one of gemini, canned, or plugin.
# The API key can also come from the DRAFTDECK_API_KEY environment variable
# (a .env file in the project root is honored).
backend:
  provider: canned
  model: gemini-1.5-flash
  # plugin: my-backend

generation:
  # Delay between sequential bulk-generation tasks, in milliseconds.
  bulk_delay_ms: 1000
  # Successful drafts scoring below this get an improvement suggestion.
  quality_threshold: 0.8

assist:
  enabled: true
  # Quiet window after a reorder before a structure suggestion appears.
  reorder_debounce_ms: 1000

templates:
  default: project-report

project:
  title: ""
  description: ""
  audience: ""
  tone: ""
`

// BackendConfig selects and parameterizes the generation backend.
type BackendConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	Plugin   string `yaml:"plugin,omitempty"`
}

// GenerationConfig tunes the orchestrator.
type GenerationConfig struct {
	BulkDelayMS      int     `yaml:"bulk_delay_ms"`
	QualityThreshold float64 `yaml:"quality_threshold"`
}

// AssistConfig controls the assisted-mode suggestion behavior.
type AssistConfig struct {
	Enabled           bool `yaml:"enabled"`
	ReorderDebounceMS int  `yaml:"reorder_debounce_ms"`
}

// TemplateConfig captures template preferences.
type TemplateConfig struct {
	Default string `yaml:"default"`
}

// ProjectInfo describes the document being assembled; it feeds the
// generation prompt context.
type ProjectInfo struct {
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Audience    string `yaml:"audience,omitempty"`
	Tone        string `yaml:"tone,omitempty"`
}

// ProjectConfig models .draftdeck/config.yaml.
type ProjectConfig struct {
	Version    int              `yaml:"version"`
	Backend    BackendConfig    `yaml:"backend"`
	Generation GenerationConfig `yaml:"generation"`
	Assist     AssistConfig     `yaml:"assist"`
	Templates  TemplateConfig   `yaml:"templates"`
	Project    ProjectInfo      `yaml:"project"`
}

// Config holds the runtime configuration for DraftDeck.
type Config struct {
	// ProjectDir is the directory where the user ran `draftdeck` from.
	ProjectDir string

	// DeckProjectDir is ProjectDir/.draftdeck.
	DeckProjectDir string

	Project ProjectConfig
}

// InitDeckDir creates the .draftdeck directory structure in the given project
// directory. This is called when the dashboard starts up.
//
// Structure created:
// .draftdeck/
// ├── logs/       <- Session logbook
// ├── state/      <- Saved document snapshots
// ├── templates/  <- User yaml document templates
// ├── exports/    <- Assembled markdown exports
// └── plugins/    <- Custom generator backends
func InitDeckDir(projectDir string) error {
	deckDir := filepath.Join(projectDir, DeckDir)
	dirs := []string{
		filepath.Join(deckDir, "logs"),
		filepath.Join(deckDir, "state"),
		filepath.Join(deckDir, "templates"),
		filepath.Join(deckDir, "exports"),
		filepath.Join(deckDir, "plugins"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(deckDir, "config.yaml"))
}

// New creates a Config populated from .draftdeck/config.yaml plus any
// environment overrides. A .env file in the project directory is loaded
// first, matching how the API key usually travels.
func New(projectDir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := &Config{
		ProjectDir:     projectDir,
		DeckProjectDir: filepath.Join(projectDir, DeckDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DeckProjectDir, "logs")
}

// LogbookPath returns the session logbook file.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "draftdeck.log")
}

// StateDir returns the path to the saved-snapshot directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.DeckProjectDir, "state")
}

// TemplatesDir returns the directory holding user yaml templates.
func (c *Config) TemplatesDir() string {
	return filepath.Join(c.DeckProjectDir, "templates")
}

// ExportsDir returns the directory markdown exports are written to.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.DeckProjectDir, "exports")
}

// PluginsDir returns the directory scanned for generator plugins.
func (c *Config) PluginsDir() string {
	return filepath.Join(c.DeckProjectDir, "plugins")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DeckProjectDir, "config.yaml")
}

// BulkDelay returns the configured inter-task bulk generation delay.
func (c *Config) BulkDelay() time.Duration {
	return time.Duration(c.Project.Generation.BulkDelayMS) * time.Millisecond
}

// ReorderDebounce returns the configured assisted-mode debounce window.
func (c *Config) ReorderDebounce() time.Duration {
	return time.Duration(c.Project.Assist.ReorderDebounceMS) * time.Millisecond
}

// DefaultTemplate returns the configured default template identifier.
func (c *Config) DefaultTemplate() string {
	return c.Project.Templates.Default
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("DRAFTDECK_API_KEY"); key != "" {
		c.Project.Backend.APIKey = key
	}
	if provider := os.Getenv("DRAFTDECK_PROVIDER"); provider != "" {
		c.Project.Backend.Provider = normalizeProvider(provider)
	}
	if model := os.Getenv("DRAFTDECK_MODEL"); model != "" {
		c.Project.Backend.Model = model
	}
}

func defaultProjectConfig() ProjectConfig {
	cfg := ProjectConfig{Version: 1}
	cfg.applyDefaults()
	return cfg
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Backend.Provider == "" {
		pc.Backend.Provider = "canned"
	}
	if pc.Generation.BulkDelayMS == 0 {
		pc.Generation.BulkDelayMS = 1000
	}
	if pc.Generation.QualityThreshold == 0 {
		pc.Generation.QualityThreshold = 0.8
	}
	if pc.Assist.ReorderDebounceMS == 0 {
		pc.Assist.ReorderDebounceMS = 1000
	}
	if pc.Templates.Default == "" {
		pc.Templates.Default = defaultTemplateID
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Backend.Provider = normalizeProvider(pc.Backend.Provider)
	pc.Backend.Model = strings.TrimSpace(pc.Backend.Model)
	pc.Backend.Plugin = strings.TrimSpace(pc.Backend.Plugin)
	pc.Templates.Default = strings.TrimSpace(pc.Templates.Default)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Backend.Provider {
	case "gemini", "canned":
	case "plugin":
		if pc.Backend.Plugin == "" {
			return fmt.Errorf("backend.plugin is required when provider is 'plugin'")
		}
	default:
		return fmt.Errorf("backend.provider must be 'gemini', 'canned', or 'plugin'")
	}
	if pc.Generation.BulkDelayMS < 0 {
		return fmt.Errorf("generation.bulk_delay_ms must not be negative")
	}
	if pc.Generation.QualityThreshold < 0 || pc.Generation.QualityThreshold > 1 {
		return fmt.Errorf("generation.quality_threshold must be in [0,1]")
	}
	if pc.Assist.ReorderDebounceMS < 0 {
		return fmt.Errorf("assist.reorder_debounce_ms must not be negative")
	}
	if pc.Templates.Default == "" {
		return fmt.Errorf("templates.default is required")
	}
	return nil
}

func normalizeProvider(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
