package document

import (
	"strings"
	"time"
)

// ContentType enumerates the kinds of blocks a document section can hold.
type ContentType string

const (
	ContentText      ContentType = "text"
	ContentFinancial ContentType = "financial"
	ContentChart     ContentType = "chart"
	ContentTable     ContentType = "table"
)

// KnownContentType reports whether value is one of the supported kinds.
func KnownContentType(value ContentType) bool {
	switch value {
	case ContentText, ContentFinancial, ContentChart, ContentTable:
		return true
	}
	return false
}

// Strategy describes how a section's content is expected to be produced.
type Strategy string

const (
	StrategyGenerated  Strategy = "ai-generated"
	StrategyDataDriven Strategy = "data-driven"
	StrategyManual     Strategy = "manual"
)

// Section is one entry in the assembled document. The ledger assigns the id
// at creation time; ids are stable and never reused.
type Section struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	ContentType ContentType `json:"content_type"`
	Strategy    Strategy    `json:"strategy"`
	// Content holds the current prose. Empty means "no content yet".
	Content string `json:"content"`
	// Generating is true exactly while a generation task owns this section.
	Generating bool `json:"generating"`
	// Quality is the backend's score in [0,1]; 0 means unscored.
	Quality float64 `json:"quality"`
	// WordCount is recomputed whenever Content changes.
	WordCount int `json:"word_count"`
	// EstimatedMinutes is advisory only.
	EstimatedMinutes int `json:"estimated_minutes,omitempty"`
	// Fallback marks content that was synthesized locally after a failed
	// generation rather than returned by the backend.
	Fallback     bool      `json:"fallback,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	LastModified time.Time `json:"last_modified"`
}

// Draft carries the caller-supplied fields for a new section. The ledger
// fills in the id and timestamps.
type Draft struct {
	Title            string      `yaml:"title" json:"title"`
	ContentType      ContentType `yaml:"content_type" json:"content_type"`
	Strategy         Strategy    `yaml:"strategy" json:"strategy"`
	Content          string      `yaml:"content,omitempty" json:"content,omitempty"`
	EstimatedMinutes int         `yaml:"estimated_minutes,omitempty" json:"estimated_minutes,omitempty"`
}

// Update selectively mutates section fields. Nil pointers leave the field
// untouched.
type Update struct {
	Title            *string
	ContentType      *ContentType
	Strategy         *Strategy
	Content          *string
	Quality          *float64
	EstimatedMinutes *int
	Fallback         *bool
}

// CountWords counts non-empty whitespace-delimited tokens.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
