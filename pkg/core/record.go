// Package core provides the domain models shared by the resumeflow packages.
package core

import (
	"time"
)

// DocumentKind classifies the input document during text extraction.
// It is never guessed upfront; an undetectable type stays KindUnknown.
type DocumentKind string

const (
	KindPDF         DocumentKind = "PDF"
	KindDOCX        DocumentKind = "DOCX"
	KindDOC         DocumentKind = "DOC"
	KindText        DocumentKind = "TEXT"
	KindUnsupported DocumentKind = "unsupported"
	KindUnknown     DocumentKind = "unknown"
)

// Status is the phase marker of a ProcessingRecord. Transient phases use
// lowercase values, review and terminal outcomes uppercase ones.
type Status string

const (
	StatusUnprocessed Status = "UNPROCESSED"
	StatusClassifying Status = "classifying"
	StatusExtracting  Status = "extracting"
	StatusMatching    Status = "matching"
	StatusDiffing     Status = "diffing"

	StatusPendingReview        Status = "PENDING_REVIEW"
	StatusApproved             Status = "APPROVED"
	StatusRejected             Status = "REJECTED"
	StatusReviewNotNeeded      Status = "REVIEW_NOT_NEEDED"
	StatusReviewUnknownOutcome Status = "REVIEW_ERROR_UNKNOWN_OUTCOME"
	StatusReviewExpired        Status = "REVIEW_EXPIRED"

	StatusSaveCompleted           Status = "SAVE_COMPLETED"
	StatusSaveCompletedWithErrors Status = "SAVE_COMPLETED_WITH_ERRORS"
	StatusSaveFailed              Status = "SAVE_FAILED"
	StatusSaveSkipped             Status = "SAVE_SKIPPED"

	StatusError Status = "ERROR"
)

// Terminal reports whether a record in this status will never advance again.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusReviewNotNeeded, StatusReviewUnknownOutcome,
		StatusReviewExpired, StatusSaveCompleted, StatusSaveCompletedWithErrors,
		StatusSaveFailed, StatusSaveSkipped, StatusError:
		return true
	}
	return false
}

// ProcessingRecord is the single mutable aggregate threaded through every
// workflow step. It is created by the driver, mutated exclusively by engine
// steps, and owned by the caller once it reaches a terminal status.
type ProcessingRecord struct {
	WorkflowID string `json:"workflow_id"`
	DocumentID string `json:"document_id"`
	SourcePath string `json:"source_path"`
	ClientID   string `json:"client_id"`

	DocumentKind DocumentKind `json:"document_kind"`
	RawText      string       `json:"raw_text"`

	ExtractedRoles []Role `json:"extracted_roles"`
	ExistingRoles  []Role `json:"existing_roles"`

	MatchedPairs    []MatchPair  `json:"matched_pairs"`
	NewRoles        []Role       `json:"new_roles"`
	ProposedChanges []ChangeItem `json:"proposed_changes"`
	ApprovedChanges []ChangeItem `json:"approved_changes"`
	RejectedChanges []ChangeItem `json:"rejected_changes"`

	Status           Status             `json:"status"`
	ReviewerNotes    string             `json:"reviewer_notes,omitempty"`
	ErrorLog         []string           `json:"error_log"`
	ConfidenceScores map[string]float64 `json:"confidence_scores"`
	TaskInfo         string             `json:"task_info"`

	CompletedSteps   []string  `json:"completed_steps"`
	ProcessingTimeMS float64   `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AppendError adds one entry to the error log. Entries are never removed;
// a record with a non-empty log may still finish successfully.
func (r *ProcessingRecord) AppendError(msg string) {
	r.ErrorLog = append(r.ErrorLog, msg)
}

// CompleteStep records a finished step name for re-entry bookkeeping.
func (r *ProcessingRecord) CompleteStep(name string) {
	r.CompletedSteps = append(r.CompletedSteps, name)
}

// Terminal reports whether the record has reached a terminal status.
func (r *ProcessingRecord) Terminal() bool {
	return r.Status.Terminal()
}
