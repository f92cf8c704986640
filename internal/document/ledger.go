package document

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftdeck/draftdeck/internal/suggest"
)

var (
	// ErrSectionNotFound signals a caller bug: the referenced id is not in
	// the ledger.
	ErrSectionNotFound = errors.New("document: section not found")
	// ErrIndexOutOfRange signals a reorder with an invalid source or
	// destination index. Indices are never silently clamped.
	ErrIndexOutOfRange = errors.New("document: index out of range")
)

// Ledger owns the ordered section list plus the per-section generation state:
// the pending-generation id set, recorded error messages, and the suggestion
// queue. All mutation goes through ledger methods; each method is atomic
// under the ledger mutex, so concurrent generation tasks can never observe a
// half-applied transition.
type Ledger struct {
	mu          sync.Mutex
	sections    []Section
	pending     map[string]struct{}
	errors      map[string]string
	suggestions *suggest.Queue
	clock       func() time.Time
	newID       func() string
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithIDGenerator injects a deterministic id source (primarily for tests).
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// WithSuggestionQueue replaces the default bounded suggestion queue.
func WithSuggestionQueue(queue *suggest.Queue) Option {
	return func(l *Ledger) {
		if queue != nil {
			l.suggestions = queue
		}
	}
}

// NewLedger creates an empty ledger for one document-editing session.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		pending: map[string]struct{}{},
		errors:  map[string]string{},
		clock:   time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.suggestions == nil {
		l.suggestions = suggest.NewQueue()
	}
	return l
}

// Snapshot is a deep copy of the ledger state for rendering or persistence.
type Snapshot struct {
	Sections    []Section            `json:"sections"`
	Pending     []string             `json:"pending,omitempty"`
	Errors      map[string]string    `json:"errors,omitempty"`
	Suggestions []suggest.Suggestion `json:"suggestions,omitempty"`
}

// Initialize replaces the entire section list, typically after a template is
// chosen. All recorded errors and pending generations are cleared. The
// materialized sections are returned in order.
func (l *Ledger) Initialize(drafts []Draft) []Section {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	l.sections = make([]Section, 0, len(drafts))
	for _, draft := range drafts {
		l.sections = append(l.sections, l.materialize(draft, now))
	}
	l.pending = map[string]struct{}{}
	l.errors = map[string]string{}
	return cloneSections(l.sections)
}

// Add appends a new section with a fresh id and returns it.
func (l *Ledger) Add(draft Draft) Section {
	l.mu.Lock()
	defer l.mu.Unlock()
	section := l.materialize(draft, l.clock())
	l.sections = append(l.sections, section)
	delete(l.errors, section.ID)
	return section
}

// Update merges the given changes into the section. A content change
// recomputes the word count; every update refreshes LastModified and clears
// any recorded error for the id. Updating an absent id is a silent no-op per
// the ledger contract; the return value lets callers check existence.
func (l *Ledger) Update(id string, update Update) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	section := &l.sections[idx]
	if update.Title != nil {
		section.Title = *update.Title
	}
	if update.ContentType != nil {
		section.ContentType = *update.ContentType
	}
	if update.Strategy != nil {
		section.Strategy = *update.Strategy
	}
	if update.Content != nil {
		section.Content = *update.Content
		section.WordCount = CountWords(section.Content)
	}
	if update.Quality != nil {
		section.Quality = *update.Quality
	}
	if update.EstimatedMinutes != nil {
		section.EstimatedMinutes = *update.EstimatedMinutes
	}
	if update.Fallback != nil {
		section.Fallback = *update.Fallback
	}
	section.LastModified = l.clock()
	delete(l.errors, id)
	return true
}

// Remove deletes the section, releases any pending generation claim, and
// drops every suggestion bound to the id.
func (l *Ledger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	l.sections = append(l.sections[:idx], l.sections[idx+1:]...)
	delete(l.pending, id)
	delete(l.errors, id)
	l.suggestions.RemoveSection(id)
	return true
}

// Reorder removes the section at src and reinserts it at dst. Both indices
// must be valid for the current length; out-of-range indices are a caller
// error, never clamped. Reordering to the same position is a no-op.
func (l *Ledger) Reorder(src, dst int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	length := len(l.sections)
	if src < 0 || src >= length {
		return fmt.Errorf("%w: source %d (length %d)", ErrIndexOutOfRange, src, length)
	}
	if dst < 0 || dst >= length {
		return fmt.Errorf("%w: destination %d (length %d)", ErrIndexOutOfRange, dst, length)
	}
	if src == dst {
		return nil
	}
	section := l.sections[src]
	rest := append(l.sections[:src], l.sections[src+1:]...)
	l.sections = append(rest[:dst], append([]Section{section}, rest[dst:]...)...)
	return nil
}

// ClearError removes the recorded error for the id, if any.
func (l *Ledger) ClearError(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.errors, id)
}

// Section returns a copy of the section with the given id.
func (l *Ledger) Section(id string) (Section, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return Section{}, false
	}
	return l.sections[idx], true
}

// Len reports the current number of sections.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sections)
}

// Snapshot returns a deep copy of the full ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := Snapshot{
		Sections:    cloneSections(l.sections),
		Suggestions: l.suggestions.Items(),
	}
	if len(l.pending) > 0 {
		// Pending ids are reported in document order so snapshots are stable.
		for _, section := range l.sections {
			if _, ok := l.pending[section.ID]; ok {
				snap.Pending = append(snap.Pending, section.ID)
			}
		}
	}
	if len(l.errors) > 0 {
		snap.Errors = make(map[string]string, len(l.errors))
		for id, message := range l.errors {
			snap.Errors[id] = message
		}
	}
	return snap
}

// BeginGeneration atomically claims the section for a generation task. It
// returns ErrSectionNotFound for unknown ids, false when another task already
// holds the claim, and true after marking the section generating, adding the
// id to the pending set, and clearing any recorded error. The check and the
// insert happen under one lock acquisition, which is what makes the
// at-most-one-in-flight guarantee hold under real parallelism.
func (l *Ledger) BeginGeneration(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
	}
	if _, inFlight := l.pending[id]; inFlight {
		return false, nil
	}
	l.pending[id] = struct{}{}
	l.sections[idx].Generating = true
	l.sections[idx].LastModified = l.clock()
	delete(l.errors, id)
	return true, nil
}

// CompleteGeneration applies a successful generation result and releases the
// claim. The word count is recomputed from the applied content so the ledger
// invariant holds even when the backend miscounts. A false return means the
// section was removed while the task was in flight and the stale result was
// dropped.
func (l *Ledger) CompleteGeneration(id, content string, quality float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	idx := l.indexOf(id)
	if idx < 0 {
		return false
	}
	section := &l.sections[idx]
	section.Content = content
	section.WordCount = CountWords(content)
	section.Quality = quality
	section.Generating = false
	section.Fallback = false
	section.LastModified = l.clock()
	delete(l.errors, id)
	return true
}

// Failure carries the outcome of a failed generation: the human-readable
// error message plus the caller-synthesized fallback content. The ledger
// records both without inventing any placeholder text of its own.
type Failure struct {
	Message string
	Content string
	Quality float64
}

// FailGeneration records a failed generation and releases the claim. The
// error message stays recorded alongside the fallback content, so a section
// that "tried and failed" remains distinguishable from one never generated.
// A false return means the section was removed mid-flight.
func (l *Ledger) FailGeneration(id string, failure Failure) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.pending, id)
	idx := l.indexOf(id)
	if idx < 0 {
		delete(l.errors, id)
		return false
	}
	section := &l.sections[idx]
	section.Generating = false
	if failure.Content != "" {
		section.Content = failure.Content
		section.WordCount = CountWords(failure.Content)
		section.Quality = failure.Quality
		section.Fallback = true
	}
	section.LastModified = l.clock()
	l.errors[id] = failure.Message
	return true
}

// PushSuggestion adds a suggestion to the bounded queue and returns the
// stored entry.
func (l *Ledger) PushSuggestion(s suggest.Suggestion) suggest.Suggestion {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suggestions.Push(s)
}

// DismissSuggestion removes a suggestion by id.
func (l *Ledger) DismissSuggestion(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.suggestions.Remove(id)
}

func (l *Ledger) materialize(draft Draft, now time.Time) Section {
	contentType := draft.ContentType
	if contentType == "" {
		contentType = ContentText
	}
	strategy := draft.Strategy
	if strategy == "" {
		strategy = StrategyGenerated
	}
	return Section{
		ID:               l.newID(),
		Title:            draft.Title,
		ContentType:      contentType,
		Strategy:         strategy,
		Content:          draft.Content,
		WordCount:        CountWords(draft.Content),
		EstimatedMinutes: draft.EstimatedMinutes,
		CreatedAt:        now,
		LastModified:     now,
	}
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.sections {
		if l.sections[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneSections(sections []Section) []Section {
	if len(sections) == 0 {
		return nil
	}
	out := make([]Section, len(sections))
	copy(out, sections)
	return out
}
