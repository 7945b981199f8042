// Package resumeflow provides a durable, resumable workflow engine that
// extracts structured professional-history records from resume documents,
// reconciles them against a stored record set, and routes proposed changes
// through a human approval gate before committing them.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages for a clean API surface.
//
// Basic usage:
//
//	db, _ := gorm.Open(sqlite.Open("resumeflow.db"), &gorm.Config{})
//	store := resumeflow.NewGormStorage(db)
//	store.Migrate(context.Background())
//
//	gw := resumeflow.NewGateway([]resumeflow.Server{
//	    resumeflow.NewSecurityServer("/srv/uploads", 0),
//	    resumeflow.NewDocumentServer(extractor, nil),
//	    resumeflow.NewRecordStoreServer(store),
//	    resumeflow.NewCitationServer(store),
//	})
//	driver := resumeflow.NewDriver(resumeflow.NewEngine(gw))
//
//	rec := driver.Run(ctx, "/srv/uploads/resume.txt", "client-1")
//	if rec.Status == resumeflow.StatusPendingReview {
//	    store.SaveRecord(ctx, rec) // survive until the human decides
//	    // ... later ...
//	    rec = driver.Resume(ctx, rec, decision)
//	}
package resumeflow

import (
	"gorm.io/gorm"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/engine"
	"github.com/talentbase/resumeflow/pkg/gateway"
	"github.com/talentbase/resumeflow/pkg/storage"
	"github.com/talentbase/resumeflow/pkg/tools"
)

// Domain types
type (
	// ProcessingRecord is the mutable aggregate threaded through the workflow.
	ProcessingRecord = core.ProcessingRecord

	// Role is one employment entry.
	Role = core.Role

	// ChangeItem is one proposed creation or update surfaced for review.
	ChangeItem = core.ChangeItem

	// MatchPair couples an extracted role with its matched existing role.
	MatchPair = core.MatchPair

	// RoleDiff is the advisory per-field comparison for a matched pair.
	RoleDiff = core.RoleDiff

	// ReviewDecision is the caller-supplied outcome of human review.
	ReviewDecision = core.ReviewDecision

	// ReviewOutcome is the recognized shape of a review decision.
	ReviewOutcome = core.ReviewOutcome

	// Status is the phase marker of a ProcessingRecord.
	Status = core.Status

	// DocumentKind classifies the input document.
	DocumentKind = core.DocumentKind

	// Citation records provenance for one persisted fact.
	Citation = core.Citation

	// Event is the interface for all engine events.
	Event = core.Event

	// StepStarted is emitted when a workflow step begins.
	StepStarted = core.StepStarted

	// StepCompleted is emitted when a workflow step finishes.
	StepCompleted = core.StepCompleted

	// ReviewPaused is emitted when the engine suspends for review.
	ReviewPaused = core.ReviewPaused

	// RecordFinished is emitted when a record reaches a terminal status.
	RecordFinished = core.RecordFinished

	// Engine drives records through the workflow graph.
	Engine = engine.Engine

	// Driver is the public run/resume entry point.
	Driver = engine.Driver

	// Gateway dispatches tool invocations to capability servers.
	Gateway = gateway.Gateway

	// Result is the tagged outcome of one tool invocation.
	Result = gateway.Result

	// Server is one capability reachable through the gateway.
	Server = gateway.Server

	// GormStorage persists records, roles, and citations using GORM.
	GormStorage = storage.GormStorage

	// RoleExtractor produces structured roles from raw resume text.
	RoleExtractor = tools.RoleExtractor

	// TextExtractor pulls raw text out of one binary document format.
	TextExtractor = tools.TextExtractor
)

// Status constants
const (
	StatusUnprocessed = core.StatusUnprocessed
	StatusClassifying = core.StatusClassifying
	StatusExtracting  = core.StatusExtracting
	StatusMatching    = core.StatusMatching
	StatusDiffing     = core.StatusDiffing

	StatusPendingReview        = core.StatusPendingReview
	StatusApproved             = core.StatusApproved
	StatusRejected             = core.StatusRejected
	StatusReviewNotNeeded      = core.StatusReviewNotNeeded
	StatusReviewUnknownOutcome = core.StatusReviewUnknownOutcome
	StatusReviewExpired        = core.StatusReviewExpired

	StatusSaveCompleted           = core.StatusSaveCompleted
	StatusSaveCompletedWithErrors = core.StatusSaveCompletedWithErrors
	StatusSaveFailed              = core.StatusSaveFailed
	StatusSaveSkipped             = core.StatusSaveSkipped

	StatusError = core.StatusError
)

// Review outcome constants
const (
	OutcomeApproveAll      = core.OutcomeApproveAll
	OutcomeApproveAllNew   = core.OutcomeApproveAllNew
	OutcomeApproveSelected = core.OutcomeApproveSelected
	OutcomeRejectAll       = core.OutcomeRejectAll
)

// Change type constants
const (
	ChangeNewRole     = core.ChangeNewRole
	ChangeMatchedRole = core.ChangeMatchedRole
)

// Error variables
var (
	ErrEmptySourcePath  = core.ErrEmptySourcePath
	ErrServerNotAllowed = core.ErrServerNotAllowed
	ErrPathTraversal    = core.ErrPathTraversal
	ErrPathOutsideBase  = core.ErrPathOutsideBase
	ErrRateLimited      = core.ErrRateLimited
	ErrRecordNotFound   = core.ErrRecordNotFound
)

// NewGateway creates a gateway with the given capability servers.
func NewGateway(servers []Server, opts ...gateway.Option) *Gateway {
	return gateway.New(servers, opts...)
}

// NewEngine creates a workflow engine over the gateway.
func NewEngine(gw *Gateway, opts ...engine.Option) *Engine {
	return engine.New(gw, opts...)
}

// NewDriver creates the run/resume entry point.
func NewDriver(e *Engine) *Driver {
	return engine.NewDriver(e)
}

// NewGormStorage creates a new GORM-backed storage.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return storage.NewGormStorage(db)
}

// NewSecurityServer creates the validation capability.
func NewSecurityServer(baseDir string, rateLimit int) *tools.SecurityServer {
	return tools.NewSecurityServer(baseDir, rateLimit)
}

// NewDocumentServer creates the document-processing capability.
func NewDocumentServer(roles RoleExtractor, extractors map[DocumentKind]TextExtractor) *tools.DocumentServer {
	return tools.NewDocumentServer(roles, extractors)
}

// NewRecordStoreServer exposes a role store as a capability.
func NewRecordStoreServer(store tools.RoleStore) *tools.RecordStoreServer {
	return tools.NewRecordStoreServer(store)
}

// NewCitationServer exposes a citation store as a capability.
func NewCitationServer(store tools.CitationStore) *tools.CitationServer {
	return tools.NewCitationServer(store)
}

// NewHTTPRoleExtractor creates a chat-completions role extractor.
func NewHTTPRoleExtractor(apiKey string, opts ...tools.ExtractorOption) *tools.HTTPRoleExtractor {
	return tools.NewHTTPRoleExtractor(apiKey, opts...)
}
