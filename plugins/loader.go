package plugins

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/generate"
)

// generateFuncName is the symbol a plugin source file must export. The
// function takes the request map and returns a response map:
//
//	func GenerateSection(req map[string]any) (map[string]any, error)
//
// Request keys: section_id, title, content_type, strategy, project_title,
// project_description, audience, tone. Response keys: content (required),
// quality (optional, float in [0,1]).
const generateFuncName = "GenerateSection"

// Backend adapts an interpreted plugin function to the generator contract.
type Backend struct {
	manifest Manifest
	fn       reflect.Value
}

// Manifest returns the plugin's metadata.
func (b *Backend) Manifest() Manifest {
	return b.manifest
}

// Load interprets the manifest's source file and binds its generate
// function. Interpretation happens once; Generate calls reuse the bound
// function.
func Load(file ManifestFile) (*Backend, error) {
	path := file.SourcePath()
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: prepare interpreter for %s: %w", path, err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(generateFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s(map[string]any) (map[string]any, error): %w", path, generateFuncName, err)
	}
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func {
		return nil, fmt.Errorf("plugin: %s: %s is not a function", path, generateFuncName)
	}
	if t := fnValue.Type(); t.NumIn() != 1 || t.NumOut() != 2 {
		return nil, fmt.Errorf("plugin: %s: %s must be func(map[string]any) (map[string]any, error)", path, generateFuncName)
	}
	return &Backend{manifest: file.Manifest, fn: fnValue}, nil
}

// LoadByID discovers dir and loads the plugin with the given id.
func LoadByID(dir, id string) (*Backend, error) {
	file, err := Find(dir, id)
	if err != nil {
		return nil, err
	}
	return Load(file)
}

// Generate invokes the interpreted plugin function.
func (b *Backend) Generate(ctx context.Context, section document.Section, project generate.ProjectContext) (generate.Result, error) {
	if err := ctx.Err(); err != nil {
		return generate.Result{}, err
	}
	request := map[string]any{
		"section_id":          section.ID,
		"title":               section.Title,
		"content_type":        string(section.ContentType),
		"strategy":            string(section.Strategy),
		"project_title":       project.Title,
		"project_description": project.Description,
		"audience":            project.Audience,
		"tone":                project.Tone,
	}
	response, err := b.invoke(request)
	if err != nil {
		return generate.Result{}, fmt.Errorf("plugin %s: %w", b.manifest.ID, err)
	}
	content, _ := response["content"].(string)
	if strings.TrimSpace(content) == "" {
		return generate.Result{}, fmt.Errorf("plugin %s: response missing content", b.manifest.ID)
	}
	quality := floatValue(response["quality"])
	if quality <= 0 || quality > 1 {
		quality = 0.5
	}
	return generate.Result{
		Content:   content,
		Quality:   quality,
		WordCount: document.CountWords(content),
	}, nil
}

func (b *Backend) invoke(request map[string]any) (map[string]any, error) {
	results := b.fn.Call([]reflect.Value{reflect.ValueOf(request)})
	if len(results) != 2 {
		return nil, fmt.Errorf("%s must return (map[string]any, error)", generateFuncName)
	}
	if !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok && e != nil {
			return nil, e
		}
		return nil, fmt.Errorf("%s returned non-error second value", generateFuncName)
	}
	response, ok := results[0].Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must return map[string]any", generateFuncName)
	}
	return response, nil
}

func floatValue(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}
