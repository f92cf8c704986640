package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftdeck/draftdeck/internal/document"
)

// Result is what a generation backend returns for one section.
type Result struct {
	Content   string
	Quality   float64
	WordCount int
}

// ProjectContext carries document-wide hints the backend can use to keep
// sections consistent with each other.
type ProjectContext struct {
	Title       string
	Description string
	Audience    string
	Tone        string
}

// Generator is the external generation collaborator. Implementations must be
// safe for concurrent calls across different section ids; the orchestrator
// serializes per id, not globally. Transient failures should be returned as
// plain errors; requests the backend refuses outright should be returned as
// *ValidationError so callers can tell the two apart.
type Generator interface {
	Generate(ctx context.Context, section document.Section, project ProjectContext) (Result, error)
}

// ValidationError reports a generation request the backend rejected. The
// message joins the field-level problems.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("generation request rejected: %s", strings.Join(e.Fields, "; "))
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, section document.Section, project ProjectContext) (Result, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, section document.Section, project ProjectContext) (Result, error) {
	return f(ctx, section, project)
}
