package template

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/draftdeck/draftdeck/internal/document"
)

// ErrTemplateNotFound is returned when the requested template id is unknown.
var ErrTemplateNotFound = errors.New("template: not found")

// Template describes one document layout: the ordered sections a new
// document starts from.
type Template struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Sections    []document.Draft `yaml:"sections"`
}

// Validate checks the template is usable.
func (t Template) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template: id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template %s: name is required", t.ID)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("template %s: at least one section is required", t.ID)
	}
	for i, section := range t.Sections {
		if strings.TrimSpace(section.Title) == "" {
			return fmt.Errorf("template %s: sections[%d]: title is required", t.ID, i)
		}
		if section.ContentType != "" && !document.KnownContentType(section.ContentType) {
			return fmt.Errorf("template %s: sections[%d]: unknown content type %q", t.ID, i, section.ContentType)
		}
	}
	return nil
}

// BuiltIn returns the templates bundled with the dashboard.
func BuiltIn() []Template {
	return []Template{
		{
			ID:          "project-report",
			Name:        "Project Report",
			Description: "Status report for an ongoing project.",
			Sections: []document.Draft{
				{Title: "Executive Summary", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 5},
				{Title: "Progress Overview", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 10},
				{Title: "Key Metrics", ContentType: document.ContentTable, Strategy: document.StrategyDataDriven, EstimatedMinutes: 10},
				{Title: "Risks and Mitigations", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 10},
				{Title: "Next Steps", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 5},
			},
		},
		{
			ID:          "business-plan",
			Name:        "Business Plan",
			Description: "Classic plan for a new venture.",
			Sections: []document.Draft{
				{Title: "Executive Summary", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 10},
				{Title: "Market Analysis", ContentType: document.ContentChart, Strategy: document.StrategyGenerated, EstimatedMinutes: 20},
				{Title: "Product and Services", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 15},
				{Title: "Financial Projections", ContentType: document.ContentFinancial, Strategy: document.StrategyDataDriven, EstimatedMinutes: 30},
				{Title: "Funding Request", ContentType: document.ContentText, Strategy: document.StrategyManual, EstimatedMinutes: 15},
			},
		},
		{
			ID:          "product-brief",
			Name:        "Product Brief",
			Description: "One-pager framing a product decision.",
			Sections: []document.Draft{
				{Title: "Problem Statement", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 5},
				{Title: "Proposed Solution", ContentType: document.ContentText, Strategy: document.StrategyGenerated, EstimatedMinutes: 10},
				{Title: "Success Metrics", ContentType: document.ContentTable, Strategy: document.StrategyDataDriven, EstimatedMinutes: 5},
			},
		},
	}
}

// Catalog aggregates the built-in templates with user yaml templates found
// in a directory. Reload is safe to call at any time, including from the
// file watcher.
type Catalog struct {
	dir string

	mu        sync.RWMutex
	templates map[string]Template
	order     []string
}

// NewCatalog creates a catalog over the given user-template directory and
// performs the initial load. A missing directory simply yields the built-ins.
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rescans the template directory. User templates with an id matching
// a built-in override it.
func (c *Catalog) Reload() error {
	loaded, err := loadDir(c.dir)
	if err != nil {
		return err
	}
	templates := make(map[string]Template)
	var order []string
	for _, tpl := range BuiltIn() {
		templates[tpl.ID] = tpl
		order = append(order, tpl.ID)
	}
	for _, tpl := range loaded {
		if _, exists := templates[tpl.ID]; !exists {
			order = append(order, tpl.ID)
		}
		templates[tpl.ID] = tpl
	}

	c.mu.Lock()
	c.templates = templates
	c.order = order
	c.mu.Unlock()
	return nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tpl, ok := c.templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tpl, nil
}

// List returns all templates, built-ins first, user templates in path order.
func (c *Catalog) List() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// loadDir parses every *.yaml/*.yml file in dir as a template. Missing
// directories are treated as "no user templates" to simplify startup.
func loadDir(dir string) ([]Template, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read %s: %w", trimmed, err)
	}
	var templates []Template
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		tpl, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates, nil
}

func loadFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("template: parse %s: %w", path, err)
	}
	tpl.ID = strings.TrimSpace(tpl.ID)
	if err := tpl.Validate(); err != nil {
		return Template{}, fmt.Errorf("template: %s: %w", path, err)
	}
	return tpl, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
