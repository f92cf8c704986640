package suggest

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds how many suggestions stay visible at once. The
// newest entry always wins; anything older than the fifth slot is dropped.
const DefaultCapacity = 5

// Kind classifies what a suggestion proposes to change.
type Kind string

const (
	KindSection      Kind = "section"
	KindContent      Kind = "content"
	KindStructure    Kind = "structure"
	KindOptimization Kind = "optimization"
)

// Suggestion is one actionable follow-up item. Suggestions are immutable
// once pushed; a changed suggestion is a new push.
type Suggestion struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	// Confidence expresses how sure the producer is, in [0,1].
	Confidence float64 `json:"confidence"`
	// SectionID optionally binds the suggestion to a document section.
	SectionID   string    `json:"section_id,omitempty"`
	Previewable bool      `json:"previewable,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Queue keeps a bounded, most-recent-first list of suggestions.
//
// Queue is not safe for concurrent use on its own; the document ledger owns
// it and serializes access.
type Queue struct {
	capacity int
	items    []Suggestion
	clock    func() time.Time
	newID    func() string
}

// Option customizes a Queue.
type Option func(*Queue)

// WithCapacity overrides the retention bound. Values <= 0 keep the default.
func WithCapacity(capacity int) Option {
	return func(q *Queue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		if clock != nil {
			q.clock = clock
		}
	}
}

// WithIDGenerator injects a deterministic id source (primarily for tests).
func WithIDGenerator(newID func() string) Option {
	return func(q *Queue) {
		if newID != nil {
			q.newID = newID
		}
	}
}

// NewQueue creates an empty suggestion queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		capacity: DefaultCapacity,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push prepends a suggestion and evicts anything beyond the capacity bound.
// Missing ID and CreatedAt fields are filled in. The stored suggestion is
// returned so callers can reference its id.
func (q *Queue) Push(s Suggestion) Suggestion {
	if s.ID == "" {
		s.ID = q.newID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = q.clock()
	}
	q.items = append([]Suggestion{s}, q.items...)
	if len(q.items) > q.capacity {
		q.items = q.items[:q.capacity]
	}
	return s
}

// Remove deletes the suggestion with the given id. Removing an unknown id is
// a no-op; the return value reports whether anything was deleted.
func (q *Queue) Remove(id string) bool {
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveSection drops every suggestion bound to the given section id and
// returns how many were dropped.
func (q *Queue) RemoveSection(sectionID string) int {
	if sectionID == "" {
		return 0
	}
	kept := q.items[:0]
	removed := 0
	for _, item := range q.items {
		if item.SectionID == sectionID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
	return removed
}

// Items returns a copy of the queue contents, newest first.
func (q *Queue) Items() []Suggestion {
	if len(q.items) == 0 {
		return nil
	}
	out := make([]Suggestion, len(q.items))
	copy(out, q.items)
	return out
}

// Len reports how many suggestions are currently held.
func (q *Queue) Len() int {
	return len(q.items)
}
