package plugins

import (
	"context"
	"strings"
	"testing"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
)

const echoPluginSource = `package main

import "fmt"

func GenerateSection(req map[string]any) (map[string]any, error) {
	title, _ := req["title"].(string)
	if title == "" {
		return nil, fmt.Errorf("title required")
	}
	project, _ := req["project_title"].(string)
	return map[string]any{
		"content": fmt.Sprintf("Draft of %s for %s.", title, project),
		"quality": 0.9,
	}, nil
}
`

func loadEchoPlugin(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "echo.yaml", "id: echo\nversion: 1.0.0\nsource: echo.go\n")
	writeFile(t, dir, "echo.go", echoPluginSource)
	backend, err := LoadByID(dir, "echo")
	if err != nil {
		t.Fatalf("load plugin: %v", err)
	}
	return backend
}

func TestPluginBackendGeneratesContent(t *testing.T) {
	backend := loadEchoPlugin(t)
	section := document.Section{ID: "sec-1", Title: "Summary", ContentType: document.ContentText}
	result, err := backend.Generate(context.Background(), section, generate.ProjectContext{Title: "Q3 Plan"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(result.Content, "Summary") || !strings.Contains(result.Content, "Q3 Plan") {
		t.Fatalf("content = %q", result.Content)
	}
	if result.Quality != 0.9 {
		t.Fatalf("quality = %v, want 0.9", result.Quality)
	}
	if result.WordCount != document.CountWords(result.Content) {
		t.Fatalf("word count = %d", result.WordCount)
	}
}

func TestPluginBackendPropagatesErrors(t *testing.T) {
	backend := loadEchoPlugin(t)
	_, err := backend.Generate(context.Background(), document.Section{ID: "sec-1"}, generate.ProjectContext{})
	if err == nil || !strings.Contains(err.Error(), "title required") {
		t.Fatalf("err = %v, want title required", err)
	}
}

func TestPluginBackendHonorsCancelledContext(t *testing.T) {
	backend := loadEchoPlugin(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := backend.Generate(ctx, document.Section{Title: "Summary"}, generate.ProjectContext{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestLoadRejectsMissingGenerateFunc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "id: bad\nversion: 1.0.0\nsource: bad.go\n")
	writeFile(t, dir, "bad.go", "package main\n\nfunc Other() {}\n")
	if _, err := LoadByID(dir, "bad"); err == nil {
		t.Fatalf("expected error for missing GenerateSection")
	}
}

func TestLoadRejectsWrongSignature(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "id: bad\nversion: 1.0.0\nsource: bad.go\n")
	writeFile(t, dir, "bad.go", "package main\n\nfunc GenerateSection() {}\n")
	if _, err := LoadByID(dir, "bad"); err == nil {
		t.Fatalf("expected error for wrong signature")
	}
}

func TestPluginDefaultsOutOfRangeQuality(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "loud.yaml", "id: loud\nversion: 1.0.0\nsource: loud.go\n")
	writeFile(t, dir, "loud.go", `package main

func GenerateSection(req map[string]any) (map[string]any, error) {
	return map[string]any{"content": "Words here.", "quality": 7.5}, nil
}
`)
	backend, err := LoadByID(dir, "loud")
	if err != nil {
		t.Fatalf("load plugin: %v", err)
	}
	result, err := backend.Generate(context.Background(), document.Section{Title: "Summary"}, generate.ProjectContext{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Quality != 0.5 {
		t.Fatalf("quality = %v, want clamped 0.5", result.Quality)
	}
}
