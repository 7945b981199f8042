package core

import "time"

// Event is the interface for all engine events.
type Event interface {
	eventMarker()
}

// StepStarted is emitted when a workflow step begins.
type StepStarted struct {
	WorkflowID string
	Step       string
	Timestamp  time.Time
}

func (*StepStarted) eventMarker() {}

// StepCompleted is emitted when a workflow step finishes, whether or not it
// degraded to empty results.
type StepCompleted struct {
	WorkflowID string
	Step       string
	Duration   time.Duration
	Timestamp  time.Time
}

func (*StepCompleted) eventMarker() {}

// ReviewPaused is emitted when the engine suspends at the review boundary
// and returns control to the caller.
type ReviewPaused struct {
	WorkflowID string
	Proposed   int
	Timestamp  time.Time
}

func (*ReviewPaused) eventMarker() {}

// RecordFinished is emitted when a record reaches a terminal status.
type RecordFinished struct {
	WorkflowID string
	Status     Status
	Timestamp  time.Time
}

func (*RecordFinished) eventMarker() {}
