// cmd/draftdeck/main.go
//
// This is the entry point for the DraftDeck dashboard.
// When you run `draftdeck` from a project directory, this is what executes.
//
// Flow:
// 1. Initialize the .draftdeck folder next to the project
// 2. Load configuration and pick a generation backend
// 3. Seed the section ledger from the saved session or the default template
// 4. Launch the TUI

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/draftdeck/draftdeck/internal/backend"
	"github.com/draftdeck/draftdeck/internal/config"
	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
	"github.com/draftdeck/draftdeck/internal/logbook"
	"github.com/draftdeck/draftdeck/internal/store"
	"github.com/draftdeck/draftdeck/internal/template"
	"github.com/draftdeck/draftdeck/internal/tui"
	"github.com/draftdeck/draftdeck/plugins"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "draftdeck: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The current working directory is the "project" we're assembling a
	// document for.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	if err := config.InitDeckDir(cwd); err != nil {
		return fmt.Errorf("initialize %s directory: %w", config.DeckDir, err)
	}
	cfg, err := config.New(cwd)
	if err != nil {
		return err
	}

	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		return fmt.Errorf("open logbook: %w", err)
	}
	lb.Info("Session opened · project %q", cfg.Project.Project.Title)

	gen, cleanup, err := buildBackend(cfg, lb)
	if err != nil {
		return err
	}
	defer cleanup()

	catalog, err := template.NewCatalog(cfg.TemplatesDir())
	if err != nil {
		return err
	}
	watcher, err := template.Watch(catalog, template.WithErrorHandler(func(err error) {
		lb.Warn("Template reload failed: %v", err)
	}))
	if err != nil {
		lb.Warn("Template watching unavailable: %v", err)
	} else {
		defer watcher.Close()
	}

	ledger := document.NewLedger()
	if err := seedLedger(cfg, catalog, ledger, lb); err != nil {
		return err
	}

	project := generate.ProjectContext{
		Title:       cfg.Project.Project.Title,
		Description: cfg.Project.Project.Description,
		Audience:    cfg.Project.Project.Audience,
		Tone:        cfg.Project.Project.Tone,
	}
	opts := []generate.OrchestratorOption{
		generate.WithBulkDelay(cfg.BulkDelay()),
		generate.WithQualityThreshold(cfg.Project.Generation.QualityThreshold),
		generate.WithLogbook(lb),
	}
	if cfg.Project.Assist.Enabled {
		opts = append(opts, generate.WithReorderAdvisor(cfg.ReorderDebounce()))
	}
	orch, err := generate.NewOrchestrator(ledger, gen, project, opts...)
	if err != nil {
		return err
	}
	defer orch.Close()

	p := tea.NewProgram(
		tui.NewApp(cfg, ledger, orch, lb),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	lb.Info("Session closed")
	return nil
}

// buildBackend picks the generator named by the config. A gemini provider
// without an API key degrades to the offline canned backend so the dashboard
// still works.
func buildBackend(cfg *config.Config, lb *logbook.Logbook) (generate.Generator, func(), error) {
	noop := func() {}
	switch cfg.Project.Backend.Provider {
	case "gemini":
		if cfg.Project.Backend.APIKey == "" {
			lb.Warn("No API key configured, using the offline backend")
			return backend.NewCanned(), noop, nil
		}
		gemini, err := backend.NewGemini(context.Background(), cfg.Project.Backend.APIKey, cfg.Project.Backend.Model)
		if err != nil {
			return nil, noop, fmt.Errorf("gemini backend: %w", err)
		}
		lb.Info("Backend · gemini (%s)", cfg.Project.Backend.Model)
		return gemini, func() { _ = gemini.Close() }, nil
	case "plugin":
		plugin, err := plugins.LoadByID(cfg.PluginsDir(), cfg.Project.Backend.Plugin)
		if err != nil {
			return nil, noop, err
		}
		lb.Info("Backend · plugin %s v%s", plugin.Manifest().ID, plugin.Manifest().Version)
		return plugin, noop, nil
	default:
		lb.Info("Backend · canned")
		return backend.NewCanned(), noop, nil
	}
}

// seedLedger restores the saved session when one exists, otherwise it lays
// out the default template.
func seedLedger(cfg *config.Config, catalog *template.Catalog, ledger *document.Ledger, lb *logbook.Logbook) error {
	snapshots := store.New(cfg.StateDir())
	snap, err := snapshots.Load("session")
	if err == nil {
		drafts := make([]document.Draft, 0, len(snap.Sections))
		for _, section := range snap.Sections {
			drafts = append(drafts, document.Draft{
				Title:            section.Title,
				ContentType:      section.ContentType,
				Strategy:         section.Strategy,
				Content:          section.Content,
				EstimatedMinutes: section.EstimatedMinutes,
			})
		}
		ledger.Initialize(drafts)
		lb.Info("Session restored · %d section(s)", len(drafts))
		return nil
	}
	if !errors.Is(err, store.ErrSnapshotNotFound) {
		lb.Warn("Saved session unreadable, starting fresh: %v", err)
	}

	tpl, err := catalog.Get(cfg.DefaultTemplate())
	if err != nil {
		return fmt.Errorf("default template: %w", err)
	}
	ledger.Initialize(tpl.Sections)
	lb.Info("Template applied · %s (%d sections)", tpl.Name, len(tpl.Sections))
	return nil
}
