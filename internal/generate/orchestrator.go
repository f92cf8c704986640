package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/draftdeck/draftdeck/internal/document"
	"github.com/draftdeck/draftdeck/internal/logbook"
	"github.com/draftdeck/draftdeck/internal/suggest"
)

const (
	// DefaultBulkDelay spaces out sequential bulk generation tasks so the
	// backend's rate limits are respected.
	DefaultBulkDelay = time.Second
	// DefaultQualityThreshold is the score below which a successful
	// generation earns an improvement suggestion.
	DefaultQualityThreshold = 0.8
	// FallbackQuality is assigned to locally synthesized placeholder content.
	FallbackQuality = 0.4
)

// Orchestrator drives section generation against the ledger: it enforces the
// at-most-one-in-flight-per-section guard, applies results and fallbacks, and
// feeds the suggestion queue from generation outcomes.
type Orchestrator struct {
	ledger  *document.Ledger
	backend Generator
	project ProjectContext
	log     *logbook.Logbook

	bulkDelay        time.Duration
	qualityThreshold float64
	sleep            func(ctx context.Context, d time.Duration) error
	advisor          *Debouncer
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithBulkDelay overrides the inter-task delay used by GenerateAll.
func WithBulkDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.bulkDelay = d
		}
	}
}

// WithQualityThreshold overrides the improvement-suggestion threshold.
func WithQualityThreshold(threshold float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold > 0 && threshold <= 1 {
			o.qualityThreshold = threshold
		}
	}
}

// WithLogbook attaches a session logbook.
func WithLogbook(log *logbook.Logbook) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithSleep injects the inter-task wait (primarily for tests).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithReorderAdvisor enables the debounced section-order review suggestion
// for assisted-mode callers. A zero delay keeps the default.
func WithReorderAdvisor(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.advisor = NewDebouncer(delay)
	}
}

// NewOrchestrator wires an orchestrator to the ledger and a backend.
func NewOrchestrator(ledger *document.Ledger, backend Generator, project ProjectContext, opts ...OrchestratorOption) (*Orchestrator, error) {
	if ledger == nil {
		return nil, fmt.Errorf("generate: orchestrator requires a ledger")
	}
	if backend == nil {
		return nil, fmt.Errorf("generate: orchestrator requires a backend")
	}
	o := &Orchestrator{
		ledger:           ledger,
		backend:          backend,
		project:          project,
		bulkDelay:        DefaultBulkDelay,
		qualityThreshold: DefaultQualityThreshold,
		sleep:            sleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// outcome classifies one generation attempt for bulk accounting.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSucceeded
	outcomeFailed
)

// GenerateSection drives one section through a full generation cycle.
//
// Unknown ids return document.ErrSectionNotFound without touching generation
// state. A section that already has a task in flight is left alone; the call
// is an idempotent no-op. Backend failures are not returned: they are
// recorded in the ledger error map and the section receives locally
// synthesized placeholder content so the document stays completable.
func (o *Orchestrator) GenerateSection(ctx context.Context, id string) error {
	_, err := o.generate(ctx, id)
	return err
}

func (o *Orchestrator) generate(ctx context.Context, id string) (outcome, error) {
	started, err := o.ledger.BeginGeneration(id)
	if err != nil {
		o.log.Error("generate %s: %v", id, err)
		return outcomeSkipped, err
	}
	if !started {
		o.log.Info("generate %s: already in flight, skipping", id)
		return outcomeSkipped, nil
	}

	section, ok := o.ledger.Section(id)
	if !ok {
		// Removed between the claim and the read; the claim is released by
		// Remove itself, nothing else to do.
		return outcomeSkipped, nil
	}

	result, genErr := o.backend.Generate(ctx, section, o.project)
	if genErr != nil {
		applied := o.ledger.FailGeneration(id, document.Failure{
			Message: genErr.Error(),
			Content: fallbackContent(section, genErr),
			Quality: FallbackQuality,
		})
		if applied {
			o.log.Warn("generate %s (%s): failed, fallback applied: %v", id, section.Title, genErr)
		} else {
			o.log.Info("generate %s: section removed mid-flight, dropping failure", id)
		}
		return outcomeFailed, nil
	}

	if !o.ledger.CompleteGeneration(id, result.Content, result.Quality) {
		o.log.Info("generate %s: section removed mid-flight, dropping result", id)
		return outcomeSkipped, nil
	}
	o.log.Info("generate %s (%s): %d words, quality %.2f", id, section.Title, document.CountWords(result.Content), result.Quality)

	if result.Quality < o.qualityThreshold {
		o.ledger.PushSuggestion(suggest.Suggestion{
			Kind:        suggest.KindContent,
			Title:       fmt.Sprintf("Quality of %q could be improved", section.Title),
			Description: fmt.Sprintf("The generated draft scored %.2f. Regenerate or edit the section by hand.", result.Quality),
			Confidence:  1 - result.Quality,
			SectionID:   id,
			Previewable: true,
		})
	}
	return outcomeSucceeded, nil
}

// BulkReport summarizes one GenerateAll run.
type BulkReport struct {
	Attempted int
	Succeeded int
	Failed    int
}

// GenerateAll generates every section that has no content yet, sequentially
// and in document order, waiting the configured delay between tasks. The
// qualifying id list is snapshotted once up front, so sections added while
// the run is in progress are left for the next run. Overlapping bulk runs
// are tolerated; the per-section guard keeps them from double-generating.
func (o *Orchestrator) GenerateAll(ctx context.Context) (BulkReport, error) {
	snap := o.ledger.Snapshot()
	pending := make(map[string]struct{}, len(snap.Pending))
	for _, id := range snap.Pending {
		pending[id] = struct{}{}
	}
	var ids []string
	for _, section := range snap.Sections {
		if section.Content != "" || section.Generating {
			continue
		}
		if _, inFlight := pending[section.ID]; inFlight {
			continue
		}
		ids = append(ids, section.ID)
	}
	if len(ids) == 0 {
		o.log.Info("bulk generation: every section already has content")
		return BulkReport{}, nil
	}

	report := BulkReport{Attempted: len(ids)}
	for i, id := range ids {
		if i > 0 && o.bulkDelay > 0 {
			if err := o.sleep(ctx, o.bulkDelay); err != nil {
				o.log.Warn("bulk generation interrupted after %d of %d sections: %v", i, len(ids), err)
				report.Attempted = i
				break
			}
		}
		result, err := o.generate(ctx, id)
		switch {
		case err != nil:
			// The section disappeared after the snapshot; count nothing.
			report.Attempted--
		case result == outcomeSucceeded:
			report.Succeeded++
		case result == outcomeFailed:
			report.Failed++
		default:
			report.Attempted--
		}
	}

	o.ledger.PushSuggestion(bulkSummary(report))
	if report.Failed > 0 {
		o.ledger.PushSuggestion(suggest.Suggestion{
			Kind:        suggest.KindOptimization,
			Title:       "Retry failed generations",
			Description: fmt.Sprintf("%d section(s) fell back to placeholder content. Run bulk generation again to retry them.", report.Failed),
			Confidence:  0.9,
		})
	}
	o.log.Info("bulk generation: %d succeeded, %d failed", report.Succeeded, report.Failed)
	return report, nil
}

// NoteReorder reports a completed reorder to the assisted-mode advisor. When
// no further reorder arrives within the debounce window, a structural
// suggestion proposing a section-order review is pushed. A new reorder
// before the window elapses discards the pending push and restarts the
// timer. Without WithReorderAdvisor this is a no-op.
func (o *Orchestrator) NoteReorder() {
	if o.advisor == nil {
		return
	}
	o.advisor.Trigger(func() {
		o.ledger.PushSuggestion(suggest.Suggestion{
			Kind:        suggest.KindStructure,
			Title:       "Review section order",
			Description: "The document structure changed. Check that the new section order still reads well.",
			Confidence:  0.6,
		})
	})
}

// Close cancels any pending debounced work.
func (o *Orchestrator) Close() {
	if o.advisor != nil {
		o.advisor.Cancel()
	}
}

func bulkSummary(report BulkReport) suggest.Suggestion {
	title := fmt.Sprintf("Generated %d sections", report.Succeeded)
	if report.Failed > 0 {
		title = fmt.Sprintf("Generated %d sections, %d failed", report.Succeeded, report.Failed)
	}
	return suggest.Suggestion{
		Kind:        suggest.KindOptimization,
		Title:       title,
		Description: "Bulk generation finished. Review the drafted sections before saving.",
		Confidence:  1,
	}
}

// fallbackContent synthesizes the placeholder applied when the backend
// fails, so the section is never left empty. The originating error stays
// visible in the text.
func fallbackContent(section document.Section, err error) string {
	return fmt.Sprintf(
		"Automatic generation for %q is currently unavailable (%v). "+
			"This placeholder keeps the document completable; edit it by hand or retry generation once the service recovers.",
		section.Title, err,
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
