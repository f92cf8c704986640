package backend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
)

func TestAssessProseEmptyContent(t *testing.T) {
	if got := AssessProse("   \n  "); got != 0 {
		t.Fatalf("score = %v, want 0", got)
	}
}

func TestAssessProseRewardsSubstantialParagraphs(t *testing.T) {
	long := strings.Repeat("The quarterly outlook remains stable across all operating segments. ", 5) +
		"\n\n" + strings.Repeat("Margins improved on the back of lower input costs and steady demand. ", 5)
	short := "Brief note."
	if AssessProse(long) <= AssessProse(short) {
		t.Fatalf("substantial prose must outscore a one-liner: %v vs %v", AssessProse(long), AssessProse(short))
	}
}

func TestAssessProsePenalizesBulletHeavyDrafts(t *testing.T) {
	bullets := "- point one\n- point two\n- point three\n- point four\nClosing line."
	prose := strings.Repeat("A full sentence that carries the argument forward with detail. ", 8) +
		"\n\n" + strings.Repeat("Another paragraph that develops the point further. ", 8)
	if AssessProse(bullets) >= AssessProse(prose) {
		t.Fatalf("bullet-heavy draft must score lower: %v vs %v", AssessProse(bullets), AssessProse(prose))
	}
}

func TestAssessProseScoreStaysInRange(t *testing.T) {
	for _, content := range []string{"", "TBD", "- a\n- b", "placeholder lorem ipsum tbd"} {
		score := AssessProse(content)
		if score < 0 || score > 1 {
			t.Fatalf("score %v out of range for %q", score, content)
		}
	}
}

func TestCannedGeneratesDeterministicProse(t *testing.T) {
	canned := NewCanned()
	section := document.Section{ID: "s1", Title: "Executive Summary", ContentType: document.ContentText, Strategy: document.StrategyGenerated}
	project := generate.ProjectContext{Title: "Q3 Plan"}

	first, err := canned.Generate(context.Background(), section, project)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := canned.Generate(context.Background(), section, project)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Content != second.Content {
		t.Fatalf("canned output must be deterministic")
	}
	if first.WordCount != document.CountWords(first.Content) {
		t.Fatalf("word count %d does not match content", first.WordCount)
	}
	if first.Quality <= 0 || first.Quality > 1 {
		t.Fatalf("quality %v out of range", first.Quality)
	}
	if !strings.Contains(first.Content, "Q3 Plan") {
		t.Fatalf("project context ignored: %q", first.Content)
	}
}

func TestCannedRejectsInvalidRequests(t *testing.T) {
	canned := NewCanned()
	section := document.Section{ID: "s1", Title: "", ContentType: "hologram", Strategy: document.StrategyManual}
	_, err := canned.Generate(context.Background(), section, generate.ProjectContext{})
	var vErr *generate.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(vErr.Fields) != 3 {
		t.Fatalf("fields = %v, want 3 entries", vErr.Fields)
	}
	for _, want := range []string{"title", "content type", "manual"} {
		if !strings.Contains(vErr.Error(), want) {
			t.Fatalf("message %q missing %q", vErr.Error(), want)
		}
	}
}

func TestCannedHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	section := document.Section{ID: "s1", Title: "Summary", ContentType: document.ContentText}
	if _, err := NewCanned().Generate(ctx, section, generate.ProjectContext{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGeminiPromptMentionsSectionAndProject(t *testing.T) {
	section := document.Section{Title: "Market Analysis", ContentType: document.ContentChart}
	prompt := buildPrompt(section, generate.ProjectContext{Title: "Expansion Plan", Audience: "board"})
	for _, want := range []string{"Market Analysis", "Expansion Plan", "board", "chart"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "  ", DefaultGeminiModel); err == nil {
		t.Fatalf("expected error for blank api key")
	}
}
