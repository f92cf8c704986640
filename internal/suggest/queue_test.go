package suggest

import (
	"fmt"
	"testing"
	"time"
)

func newTestQueue(opts ...Option) *Queue {
	seq := 0
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	defaults := []Option{
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("sugg-%d", seq)
		}),
		WithClock(func() time.Time { return base }),
	}
	return NewQueue(append(defaults, opts...)...)
}

func TestPushKeepsNewestFirstAndBounded(t *testing.T) {
	q := newTestQueue()
	for i := 0; i < 8; i++ {
		q.Push(Suggestion{Kind: KindContent, Title: fmt.Sprintf("item-%d", i)})
	}
	items := q.Items()
	if len(items) != DefaultCapacity {
		t.Fatalf("len(items) = %d, want %d", len(items), DefaultCapacity)
	}
	if items[0].Title != "item-7" {
		t.Fatalf("newest entry = %q, want item-7", items[0].Title)
	}
	if items[len(items)-1].Title != "item-3" {
		t.Fatalf("oldest retained entry = %q, want item-3", items[len(items)-1].Title)
	}
}

func TestPushAssignsIDAndTimestamp(t *testing.T) {
	q := newTestQueue()
	stored := q.Push(Suggestion{Kind: KindStructure, Title: "review order"})
	if stored.ID == "" {
		t.Fatalf("expected generated id")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("expected created timestamp")
	}
}

func TestRemoveByID(t *testing.T) {
	q := newTestQueue()
	first := q.Push(Suggestion{Kind: KindContent, Title: "a"})
	q.Push(Suggestion{Kind: KindContent, Title: "b"})
	if !q.Remove(first.ID) {
		t.Fatalf("expected removal of %s", first.ID)
	}
	if q.Remove(first.ID) {
		t.Fatalf("second removal must be a no-op")
	}
	if q.Len() != 1 {
		t.Fatalf("len = %d, want 1", q.Len())
	}
}

func TestRemoveSectionDropsBoundEntries(t *testing.T) {
	q := newTestQueue()
	q.Push(Suggestion{Kind: KindContent, Title: "bound-1", SectionID: "sec-1"})
	q.Push(Suggestion{Kind: KindContent, Title: "free"})
	q.Push(Suggestion{Kind: KindOptimization, Title: "bound-2", SectionID: "sec-1"})
	if removed := q.RemoveSection("sec-1"); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	items := q.Items()
	if len(items) != 1 || items[0].Title != "free" {
		t.Fatalf("unexpected remaining items: %+v", items)
	}
}

func TestCapacityOverride(t *testing.T) {
	q := newTestQueue(WithCapacity(2))
	for i := 0; i < 4; i++ {
		q.Push(Suggestion{Kind: KindContent, Title: fmt.Sprintf("item-%d", i)})
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}
}
