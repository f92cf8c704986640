package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
)

// Canned is a deterministic offline generator used when no API key is
// configured. It produces serviceable boilerplate so the dashboard stays
// usable without network access.
type Canned struct{}

// NewCanned creates the offline generator.
func NewCanned() *Canned {
	return &Canned{}
}

// Generate synthesizes deterministic prose for the section.
func (c *Canned) Generate(ctx context.Context, section document.Section, project generate.ProjectContext) (generate.Result, error) {
	if err := ctx.Err(); err != nil {
		return generate.Result{}, err
	}
	if fields := validateRequest(section); len(fields) > 0 {
		return generate.Result{}, &generate.ValidationError{Fields: fields}
	}

	subject := project.Title
	if subject == "" {
		subject = "this document"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "The %s section sets out the relevant background for %s and frames the decisions that follow. ", strings.ToLower(section.Title), subject)
	sb.WriteString("It summarizes the current position, names the assumptions in play, and flags where further detail lives elsewhere in the document.\n\n")
	switch section.ContentType {
	case document.ContentFinancial:
		sb.WriteString("Figures in this section are placeholders drawn from the working model; replace them with the latest export before circulating. The narrative should hold even as the numbers move.")
	case document.ContentChart, document.ContentTable:
		sb.WriteString("The accompanying visual is described rather than embedded here. Confirm the underlying data is current, then tighten this summary to match what the visual actually shows.")
	default:
		sb.WriteString("Treat this draft as scaffolding: the structure and emphasis are right for the template, while the specifics still need an author who knows the material.")
	}
	content := sb.String()
	return generate.Result{
		Content:   content,
		Quality:   AssessProse(content),
		WordCount: document.CountWords(content),
	}, nil
}
