package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
)

// DefaultGeminiModel is used when the config does not name one.
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini implements generate.Generator against Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("backend: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("backend: create genai client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	if g == nil || g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Generate drafts prose for one section. Requests the backend refuses
// outright surface as *generate.ValidationError; transport and response
// shape problems surface as plain errors.
func (g *Gemini) Generate(ctx context.Context, section document.Section, project generate.ProjectContext) (generate.Result, error) {
	if fields := validateRequest(section); len(fields) > 0 {
		return generate.Result{}, &generate.ValidationError{Fields: fields}
	}

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(section, project)))
	if err != nil {
		return generate.Result{}, fmt.Errorf("backend: gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return generate.Result{}, fmt.Errorf("backend: gemini returned an empty response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return generate.Result{}, fmt.Errorf("backend: gemini response held no text parts")
	}

	return generate.Result{
		Content:   content,
		Quality:   AssessProse(content),
		WordCount: document.CountWords(content),
	}, nil
}

func validateRequest(section document.Section) []string {
	var fields []string
	if strings.TrimSpace(section.Title) == "" {
		fields = append(fields, "title is empty")
	}
	if !document.KnownContentType(section.ContentType) {
		fields = append(fields, fmt.Sprintf("content type %q is not supported", section.ContentType))
	}
	if section.Strategy == document.StrategyManual {
		fields = append(fields, "section is marked for manual writing")
	}
	return fields
}

func buildPrompt(section document.Section, project generate.ProjectContext) string {
	var sb strings.Builder
	sb.WriteString("You are drafting one section of a business document.\n\n")
	if project.Title != "" {
		fmt.Fprintf(&sb, "Document: %s\n", project.Title)
	}
	if project.Description != "" {
		fmt.Fprintf(&sb, "About: %s\n", project.Description)
	}
	if project.Audience != "" {
		fmt.Fprintf(&sb, "Audience: %s\n", project.Audience)
	}
	tone := project.Tone
	if tone == "" {
		tone = "professional and concise"
	}
	fmt.Fprintf(&sb, "Tone: %s\n\n", tone)

	fmt.Fprintf(&sb, "Section to write: %q\n", section.Title)
	switch section.ContentType {
	case document.ContentFinancial:
		sb.WriteString("This is a financial section: include concrete figures, assumptions, and a short narrative around them.\n")
	case document.ContentChart:
		sb.WriteString("This section accompanies a chart: describe the trend the chart should show and what it implies.\n")
	case document.ContentTable:
		sb.WriteString("This section accompanies a data table: summarize what the table captures and the key takeaways.\n")
	default:
		sb.WriteString("Write flowing prose, two to four paragraphs.\n")
	}
	sb.WriteString("Return only the section body, no heading and no commentary.")
	return sb.String()
}
