package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/talentbase/resumeflow/pkg/core"
)

// Driver is the public entry point: it constructs the initial record,
// drives the state machine to completion or to the review-pause boundary,
// and hands the record back to the caller. The caller owns durable storage
// of pending records between Run and Resume.
type Driver struct {
	engine *Engine
}

// NewDriver creates a driver over the given engine.
func NewDriver(e *Engine) *Driver {
	return &Driver{engine: e}
}

// NewRecord builds the initial ProcessingRecord for a document. Workflow
// and document identifiers are assigned here, exactly once, and never
// change afterwards.
func NewRecord(sourcePath, clientID string) *core.ProcessingRecord {
	now := time.Now()
	return &core.ProcessingRecord{
		WorkflowID:       uuid.New().String(),
		DocumentID:       "doc_" + uuid.New().String(),
		SourcePath:       sourcePath,
		ClientID:         clientID,
		DocumentKind:     core.KindUnknown,
		Status:           core.StatusUnprocessed,
		ErrorLog:         []string{},
		ConfidenceScores: make(map[string]float64),
		TaskInfo:         "Workflow initialized.",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Run processes one document to completion or to the review boundary. It
// fails fast, with no steps executed, when the source path is empty. The
// returned record is fully populated; Run never surfaces an error value.
func (d *Driver) Run(ctx context.Context, sourcePath, clientID string) *core.ProcessingRecord {
	rec := NewRecord(sourcePath, clientID)
	if sourcePath == "" {
		rec.AppendError(core.ErrEmptySourcePath.Error())
		rec.Status = core.StatusError
		rec.TaskInfo = "Workflow finished with errors."
		return rec
	}
	return d.engine.Run(ctx, rec)
}

// Resume supplies the human review decision for a paused record and drives
// the remaining persistence branch. Calling Resume on an already-terminal
// record returns it unchanged; a duplicate decision never double-saves.
func (d *Driver) Resume(ctx context.Context, rec *core.ProcessingRecord, decision core.ReviewDecision) *core.ProcessingRecord {
	return d.engine.Resume(ctx, rec, decision)
}
