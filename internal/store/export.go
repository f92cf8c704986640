package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/draftdeck/draftdeck/internal/document"
)

// ExportMeta describes the document being exported; it becomes the yaml
// frontmatter of the markdown file.
type ExportMeta struct {
	Title    string
	Template string
	Audience string
}

type exportEnvelope struct {
	Deck exportMetadata `yaml:"draftdeck"`
}

type exportMetadata struct {
	Title    string `yaml:"title"`
	Template string `yaml:"template,omitempty"`
	Audience string `yaml:"audience,omitempty"`
	Exported string `yaml:"exported"`
	Sections int    `yaml:"sections"`
	Words    int    `yaml:"words"`
}

// Exporter assembles snapshots into markdown documents.
type Exporter struct {
	dir   string
	clock func() time.Time
}

// ExporterOption customizes an Exporter.
type ExporterOption func(*Exporter)

// WithExportClock overrides the timestamp source, mainly for tests.
func WithExportClock(clock func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, opts ...ExporterOption) *Exporter {
	e := &Exporter{dir: dir, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render assembles the snapshot into a single markdown document with yaml
// frontmatter. Sections appear in document order; empty sections are kept as
// headings so the export mirrors the dashboard.
func (e *Exporter) Render(snap document.Snapshot, meta ExportMeta) ([]byte, error) {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = "Untitled Document"
	}

	words := 0
	for _, section := range snap.Sections {
		words += section.WordCount
	}
	envelope := exportEnvelope{Deck: exportMetadata{
		Title:    title,
		Template: meta.Template,
		Audience: meta.Audience,
		Exported: e.clock().UTC().Format(time.RFC3339),
		Sections: len(snap.Sections),
		Words:    words,
	}}
	header, err := yaml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("store: encode export frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(bytes.TrimRight(header, "\n"))
	buf.WriteString("\n---\n\n")
	fmt.Fprintf(&buf, "# %s\n", title)
	for _, section := range snap.Sections {
		fmt.Fprintf(&buf, "\n## %s\n\n", section.Title)
		content := strings.TrimSpace(section.Content)
		if content == "" {
			buf.WriteString("_Not yet written._\n")
			continue
		}
		buf.WriteString(content)
		buf.WriteString("\n")
		if section.Fallback {
			buf.WriteString("\n> Draft fallback content; regenerate before publishing.\n")
		}
	}
	return buf.Bytes(), nil
}

// Export renders the snapshot and writes it to a timestamped file in the
// export directory. The written path is returned.
func (e *Exporter) Export(snap document.Snapshot, meta ExportMeta) (string, error) {
	data, err := e.Render(snap, meta)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("store: create %s: %w", e.dir, err)
	}
	name := fmt.Sprintf("%s-%s.md", slugify(meta.Title), e.clock().UTC().Format("20060102-150405"))
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store: write export %s: %w", path, err)
	}
	return path, nil
}

func slugify(value string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteByte('-')
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "document"
	}
	return slug
}
