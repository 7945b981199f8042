// Package engine implements the workflow state machine and run driver: a
// directed graph of named steps operating on one mutable ProcessingRecord,
// with a true suspend point at human review and conditional branching
// afterwards.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/gateway"
)

// step is one node of the workflow graph. Steps mutate the record in place
// and signal fatality through the record's status, never through panics.
type step struct {
	name string
	run  func(ctx context.Context, rec *core.ProcessingRecord)
}

// Engine drives a ProcessingRecord through the workflow graph. One record
// is processed by exactly one goroutine at a time; distinct records may run
// through the same Engine concurrently.
type Engine struct {
	gw     *gateway.Gateway
	logger *slog.Logger
	events chan core.Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine that reaches capabilities through gw.
func New(gw *gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:     gw,
		logger: slog.Default(),
		events: make(chan core.Event, 256),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the engine's event stream. Events are dropped when the
// buffer is full; the stream is observability, not control flow.
func (e *Engine) Events() <-chan core.Event {
	return e.events
}

func (e *Engine) emit(ev core.Event) {
	select {
	case e.events <- ev:
	default:
	}
}

// preReviewSteps is the deterministic step order up to the review boundary.
func (e *Engine) preReviewSteps() []step {
	return []step{
		{"validate_security", e.validateSecurity},
		{"extract_text", e.extractText},
		{"extract_roles", e.extractRoles},
		{"query_existing", e.queryExisting},
		{"match_roles", e.matchRoles},
		{"generate_diff", e.generateDiff},
	}
}

// Run advances the record from its initial state to the review boundary or
// to a terminal status. Cancellation is cooperative: the context is checked
// before each step, and a cancelled run returns the record at its
// last-completed step with status unchanged.
func (e *Engine) Run(ctx context.Context, rec *core.ProcessingRecord) *core.ProcessingRecord {
	start := time.Now()
	defer func() {
		rec.ProcessingTimeMS += float64(time.Since(start).Milliseconds())
		rec.UpdatedAt = time.Now()
	}()

	for _, s := range e.preReviewSteps() {
		if ctx.Err() != nil {
			e.logger.Warn("run cancelled between steps",
				"workflow_id", rec.WorkflowID, "next_step", s.name)
			return rec
		}
		e.runStep(ctx, rec, s)
		if rec.Status == core.StatusError {
			e.finalize(rec)
			return rec
		}
	}

	switch rec.Status {
	case core.StatusPendingReview:
		// True suspension: control returns to the caller, who owns
		// durably storing the pending record until a decision arrives.
		e.emit(&core.ReviewPaused{
			WorkflowID: rec.WorkflowID,
			Proposed:   len(rec.ProposedChanges),
			Timestamp:  time.Now(),
		})
		rec.TaskInfo = "Awaiting human review."
	case core.StatusReviewNotNeeded:
		e.finalize(rec)
	default:
		e.finalize(rec)
	}
	return rec
}

// Resume continues a record paused at the review boundary, applying the
// supplied decision. Resuming an already-terminal record is a no-op that
// returns the record unchanged. A record left at APPROVED by a cancelled
// resume re-enters at the persistence step; its stored decision stands and
// the supplied one is ignored.
func (e *Engine) Resume(ctx context.Context, rec *core.ProcessingRecord, decision core.ReviewDecision) *core.ProcessingRecord {
	if rec.Terminal() {
		return rec
	}
	switch rec.Status {
	case core.StatusPendingReview, core.StatusApproved:
	default:
		e.logger.Warn("resume refused",
			"workflow_id", rec.WorkflowID, "status", rec.Status,
			"error", core.ErrNotPendingReview)
		return rec
	}

	start := time.Now()
	defer func() {
		rec.ProcessingTimeMS += float64(time.Since(start).Milliseconds())
		rec.UpdatedAt = time.Now()
	}()

	if rec.Status == core.StatusPendingReview {
		e.runStep(ctx, rec, step{"human_review", func(ctx context.Context, rec *core.ProcessingRecord) {
			e.applyDecision(rec, decision)
		}})
	} else {
		e.logger.Info("retrying persistence of an approved record",
			"workflow_id", rec.WorkflowID, "approved", len(rec.ApprovedChanges))
	}

	// The only branch point in the graph: persist only when the review
	// approved something.
	if rec.Status == core.StatusApproved {
		if len(rec.ApprovedChanges) > 0 {
			if ctx.Err() != nil {
				e.logger.Warn("resume cancelled before persistence",
					"workflow_id", rec.WorkflowID)
				return rec
			}
			e.runStep(ctx, rec, step{"apply_changes", e.applyChanges})
		} else {
			rec.Status = core.StatusSaveSkipped
		}
	}

	e.finalize(rec)
	return rec
}

func (e *Engine) runStep(ctx context.Context, rec *core.ProcessingRecord, s step) {
	began := time.Now()
	e.emit(&core.StepStarted{WorkflowID: rec.WorkflowID, Step: s.name, Timestamp: began})
	e.logger.Debug("step started", "workflow_id", rec.WorkflowID, "step", s.name)

	s.run(ctx, rec)
	rec.CompleteStep(s.name)

	e.emit(&core.StepCompleted{
		WorkflowID: rec.WorkflowID,
		Step:       s.name,
		Duration:   time.Since(began),
		Timestamp:  time.Now(),
	})
}

// finalize stamps the closing task info and emits the terminal event. It
// mirrors the last node of the graph and never changes the status except
// for records that fell through every branch without one.
func (e *Engine) finalize(rec *core.ProcessingRecord) {
	switch {
	case rec.Status == core.StatusError:
		rec.TaskInfo = "Workflow finished with errors."
	case rec.Status == core.StatusSaveCompleted:
		rec.TaskInfo = "Workflow finished successfully. Data saved."
	case rec.Status == core.StatusSaveCompletedWithErrors:
		rec.TaskInfo = "Workflow finished. Some data saved, but errors occurred."
	case rec.Status == core.StatusSaveFailed:
		rec.TaskInfo = "Workflow finished. No approved data could be saved."
	case rec.Status == core.StatusRejected,
		rec.Status == core.StatusReviewNotNeeded,
		rec.Status == core.StatusSaveSkipped,
		rec.Status == core.StatusReviewUnknownOutcome:
		rec.TaskInfo = "Workflow finished. No data saved."
	default:
		rec.TaskInfo = "Workflow finished."
	}
	rec.CompleteStep("finalize")

	e.logger.Info("workflow finished",
		"workflow_id", rec.WorkflowID,
		"status", rec.Status,
		"errors", len(rec.ErrorLog))
	e.emit(&core.RecordFinished{
		WorkflowID: rec.WorkflowID,
		Status:     rec.Status,
		Timestamp:  time.Now(),
	})
}
