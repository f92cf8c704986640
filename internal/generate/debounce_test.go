package generate

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/draftdeck/draftdeck/internal/document"
)

func TestDebouncerCoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("callback ran %d times, want 1", got)
	}
}

func TestDebouncerCancelDiscardsPendingCallback(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	var called atomic.Bool
	d.Trigger(func() { called.Store(true) })
	d.Cancel()
	time.Sleep(120 * time.Millisecond)
	if called.Load() {
		t.Fatalf("callback must not run after cancel")
	}
}

func TestDebouncerDefaultDelay(t *testing.T) {
	if d := NewDebouncer(0); d.Delay() != DefaultDebounceDelay {
		t.Fatalf("delay = %v, want %v", d.Delay(), DefaultDebounceDelay)
	}
}

func TestNoteReorderPushesStructureSuggestionAfterQuietWindow(t *testing.T) {
	seq := 0
	ledger := document.NewLedger(document.WithIDGenerator(func() string {
		seq++
		return fmt.Sprintf("sec-%d", seq)
	}))
	ledger.Initialize([]document.Draft{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	orch, err := NewOrchestrator(ledger, newStubBackend(), ProjectContext{}, WithReorderAdvisor(30*time.Millisecond))
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	defer orch.Close()

	// Rapid reorders keep restarting the window; only the final quiet
	// period produces a suggestion.
	for i := 0; i < 3; i++ {
		if err := ledger.Reorder(0, 1); err != nil {
			t.Fatalf("reorder: %v", err)
		}
		orch.NoteReorder()
		time.Sleep(5 * time.Millisecond)
	}
	if got := len(ledger.Snapshot().Suggestions); got != 0 {
		t.Fatalf("suggestion pushed before window elapsed: %d", got)
	}
	time.Sleep(100 * time.Millisecond)
	suggestions := ledger.Snapshot().Suggestions
	if len(suggestions) != 1 {
		t.Fatalf("len(suggestions) = %d, want 1", len(suggestions))
	}
	if suggestions[0].Kind != "structure" {
		t.Fatalf("kind = %s, want structure", suggestions[0].Kind)
	}
}

func TestNoteReorderWithoutAdvisorIsNoOp(t *testing.T) {
	ledger := document.NewLedger()
	orch, err := NewOrchestrator(ledger, newStubBackend(), ProjectContext{})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	orch.NoteReorder()
	orch.Close()
	if got := len(ledger.Snapshot().Suggestions); got != 0 {
		t.Fatalf("unexpected suggestions: %d", got)
	}
}
