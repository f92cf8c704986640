// Package store persists document snapshots under .draftdeck/state and
// renders markdown exports under .draftdeck/exports.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/draftdeck/draftdeck/internal/document"
)

// ErrSnapshotNotFound indicates the named snapshot does not exist on disk.
var ErrSnapshotNotFound = errors.New("store: snapshot not found")

// snapshotVersion guards the on-disk envelope layout.
const snapshotVersion = 1

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Store reads and writes named document snapshots in a single directory.
type Store struct {
	dir   string
	clock func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New creates a snapshot store rooted at dir. The directory is created on
// first save, not here.
func New(dir string, opts ...Option) *Store {
	s := &Store{dir: dir, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Entry summarizes one saved snapshot.
type Entry struct {
	Name     string    `json:"name"`
	SavedAt  time.Time `json:"saved_at"`
	Sections int       `json:"sections"`
}

type envelope struct {
	Version  int               `json:"version"`
	SavedAt  time.Time         `json:"saved_at"`
	Snapshot document.Snapshot `json:"snapshot"`
}

// Save writes the snapshot under the given name, replacing any previous
// save. In-flight generation state is transient and is not persisted.
func (s *Store) Save(name string, snap document.Snapshot) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("store: create %s: %w", s.dir, err)
	}

	env := envelope{
		Version:  snapshotVersion,
		SavedAt:  s.clock().UTC(),
		Snapshot: stripTransient(snap),
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode snapshot %s: %w", name, err)
	}

	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("store: write snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: write snapshot %s: %w", name, err)
	}
	return nil
}

// Load reads the named snapshot.
func (s *Store) Load(name string) (document.Snapshot, error) {
	if err := validateName(name); err != nil {
		return document.Snapshot{}, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document.Snapshot{}, fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return document.Snapshot{}, fmt.Errorf("store: read snapshot %s: %w", name, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return document.Snapshot{}, fmt.Errorf("store: parse snapshot %s: %w", name, err)
	}
	if env.Version != snapshotVersion {
		return document.Snapshot{}, fmt.Errorf("store: snapshot %s: unsupported version %d", name, env.Version)
	}
	return stripTransient(env.Snapshot), nil
}

// Delete removes the named snapshot. Deleting a missing snapshot returns
// ErrSnapshotNotFound.
func (s *Store) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, name)
		}
		return fmt.Errorf("store: delete snapshot %s: %w", name, err)
	}
	return nil
}

// List returns the saved snapshots, most recent first.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", s.dir, err)
	}
	var entries []Entry
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(file.Name(), ".json")
		data, err := os.ReadFile(s.path(name))
		if err != nil {
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Version != snapshotVersion {
			// Unreadable saves are skipped rather than failing the listing.
			continue
		}
		entries = append(entries, Entry{Name: name, SavedAt: env.SavedAt, Sections: len(env.Snapshot.Sections)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SavedAt.After(entries[j].SavedAt) })
	return entries, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// stripTransient drops state that only makes sense while the process that
// produced it is running. The section slice is copied so the caller's
// snapshot is left untouched.
func stripTransient(snap document.Snapshot) document.Snapshot {
	snap.Pending = nil
	if len(snap.Sections) > 0 {
		sections := make([]document.Section, len(snap.Sections))
		copy(sections, snap.Sections)
		for i := range sections {
			sections[i].Generating = false
		}
		snap.Sections = sections
	}
	return snap
}

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("store: invalid snapshot name %q", name)
	}
	return nil
}
