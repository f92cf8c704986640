package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseManifestYAML(t *testing.T) {
	manifest, err := ParseManifestYAML([]byte("id: echo\nname: Echo Backend\nversion: 1.0.0\nsource: echo.go\n"))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.ID != "echo" || manifest.Source != "echo.go" {
		t.Fatalf("manifest = %+v", manifest)
	}
}

func TestParseManifestYAMLRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing id":      "version: 1.0.0\nsource: echo.go\n",
		"missing version": "id: echo\nsource: echo.go\n",
		"missing source":  "id: echo\nversion: 1.0.0\n",
		"non-go source":   "id: echo\nversion: 1.0.0\nsource: echo.py\n",
	}
	for name, payload := range cases {
		if _, err := ParseManifestYAML([]byte(payload)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDiscoverDirSortsAndSkipsMissing(t *testing.T) {
	if files, err := DiscoverDir(filepath.Join(t.TempDir(), "missing")); err != nil || files != nil {
		t.Fatalf("missing dir: files=%v err=%v", files, err)
	}

	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "id: beta\nversion: 1.0.0\nsource: beta.go\n")
	writeFile(t, dir, "a.yaml", "id: alpha\nversion: 1.0.0\nsource: alpha.go\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := DiscoverDir(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].Manifest.ID != "alpha" || files[1].Manifest.ID != "beta" {
		t.Fatalf("order = %s, %s", files[0].Manifest.ID, files[1].Manifest.ID)
	}
}

func TestDiscoverDirRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: echo\nversion: 1.0.0\nsource: a.go\n")
	writeFile(t, dir, "b.yaml", "id: echo\nversion: 1.0.0\nsource: b.go\n")
	if _, err := DiscoverDir(dir); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("err = %v, want duplicate id error", err)
	}
}

func TestSourcePathResolvesRelativeToManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "echo.yaml", "id: echo\nversion: 1.0.0\nsource: echo.go\n")
	files, err := DiscoverDir(dir)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if got, want := files[0].SourcePath(), filepath.Join(filepath.Dir(path), "echo.go"); got != want {
		t.Fatalf("source path = %s, want %s", got, want)
	}
}
