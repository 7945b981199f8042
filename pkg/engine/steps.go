package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/diff"
	"github.com/talentbase/resumeflow/pkg/match"
	"github.com/talentbase/resumeflow/pkg/security"
)

// logFailure appends a sanitized failure description to the record's
// error log.
func logFailure(rec *core.ProcessingRecord, format string, args ...any) {
	rec.AppendError(security.SanitizeErrorMessage(fmt.Sprintf(format, args...)))
}

// validateSecurity pre-checks the input document's parameters before any
// capability touches it. A rejection here is structural and halts the
// pipeline; nothing downstream may see an unvalidated path.
func (e *Engine) validateSecurity(ctx context.Context, rec *core.ProcessingRecord) {
	rec.Status = core.StatusClassifying
	rec.TaskInfo = "Validating document before processing..."

	res := e.gw.Invoke(ctx, "security_gateway", "validate", map[string]any{
		"target_server": "document_processor",
		"method":        "extract_text",
		"params":        map[string]any{"file_path": rec.SourcePath},
	})
	if !res.OK {
		logFailure(rec, "security validation failed: %s", res.Message)
		rec.Status = core.StatusError
	}
}

// extractText classifies the document and pulls its raw text. Fails
// closed: an unsupported or undetected type never reaches structured
// extraction.
func (e *Engine) extractText(ctx context.Context, rec *core.ProcessingRecord) {
	rec.TaskInfo = "Classifying document and extracting text..."

	res := e.gw.Invoke(ctx, "document_processor", "extract_text", map[string]any{
		"file_path": rec.SourcePath,
	})
	if kind := res.Str("kind"); kind != "" {
		rec.DocumentKind = core.DocumentKind(kind)
	} else if !res.OK {
		rec.DocumentKind = core.KindUnknown
	}
	if !res.OK {
		logFailure(rec, "text extraction failed: %s", res.Message)
		rec.Status = core.StatusError
		return
	}

	rec.RawText = res.Str("text")
}

// extractRoles delegates structured extraction to the document capability,
// supplying the full raw text. Transport and total extraction failures are
// fatal; extractor-reported problems on individual roles are logged and the
// pipeline continues.
func (e *Engine) extractRoles(ctx context.Context, rec *core.ProcessingRecord) {
	rec.Status = core.StatusExtracting
	rec.TaskInfo = "Extracting structured roles..."

	res := e.gw.Invoke(ctx, "document_processor", "extract_roles", map[string]any{
		"text":      rec.RawText,
		"client_id": rec.ClientID,
	})
	if !res.OK {
		logFailure(rec, "role extraction failed: %s", res.Message)
		rec.Status = core.StatusError
		return
	}

	roles, ok := res.Payload["roles"].([]core.Role)
	if !ok {
		logFailure(rec, "role extraction returned an invalid payload shape")
		rec.Status = core.StatusError
		return
	}
	rec.ExtractedRoles = roles

	if confidence, ok := res.Float("confidence"); ok {
		if rec.ConfidenceScores == nil {
			rec.ConfidenceScores = make(map[string]float64)
		}
		rec.ConfidenceScores["llm_extraction_overall"] = confidence
	}
	if errs, ok := res.Payload["errors"].([]string); ok {
		for _, msg := range errs {
			logFailure(rec, "extractor: %s", msg)
		}
	}
	if len(roles) == 0 {
		logFailure(rec, "no roles found in document")
	}
}

// queryExisting fetches the client's stored roles for comparison. A store
// failure is non-fatal: the pipeline continues with no existing roles, so
// every extracted role falls out as new.
func (e *Engine) queryExisting(ctx context.Context, rec *core.ProcessingRecord) {
	rec.Status = core.StatusMatching
	rec.TaskInfo = "Querying existing roles..."

	res := e.gw.Invoke(ctx, "record_store", "query_roles", map[string]any{
		"client_id": rec.ClientID,
	})
	if !res.OK {
		logFailure(rec, "query of existing roles failed, treating all extracted roles as new: %s", res.Message)
		rec.ExistingRoles = nil
		return
	}
	roles, ok := res.Payload["roles"].([]core.Role)
	if !ok {
		logFailure(rec, "record store returned an invalid payload shape, treating all extracted roles as new")
		rec.ExistingRoles = nil
		return
	}
	rec.ExistingRoles = roles
}

// matchRoles partitions extracted roles into matched pairs and new roles
// and attaches the advisory diff to each pair.
func (e *Engine) matchRoles(ctx context.Context, rec *core.ProcessingRecord) {
	rec.TaskInfo = "Matching extracted roles against the record store..."

	pairs, newRoles := match.Partition(rec.ExtractedRoles, rec.ExistingRoles)
	for i := range pairs {
		pairs[i].Suggested = diff.Compare(pairs[i].Extracted, pairs[i].Existing)
	}
	rec.MatchedPairs = pairs
	rec.NewRoles = newRoles

	e.logger.Debug("matching completed",
		"workflow_id", rec.WorkflowID,
		"matched", len(pairs),
		"new", len(newRoles))
}

// generateDiff builds the reviewable change-set. An empty change-set skips
// the review suspend point entirely.
func (e *Engine) generateDiff(ctx context.Context, rec *core.ProcessingRecord) {
	rec.Status = core.StatusDiffing
	rec.TaskInfo = "Generating comparison for human review..."

	rec.ProposedChanges = diff.BuildChanges(rec.MatchedPairs, rec.NewRoles)
	if len(rec.ProposedChanges) == 0 {
		rec.Status = core.StatusReviewNotNeeded
		rec.TaskInfo = "No new or matched roles to review."
		return
	}
	rec.Status = core.StatusPendingReview
}

// applyDecision validates a review decision against the record and
// partitions the proposed changes. A decision that fails validation or has
// an unrecognized shape is logged and treated as "nothing approved".
func (e *Engine) applyDecision(rec *core.ProcessingRecord, decision core.ReviewDecision) {
	rec.TaskInfo = "Applying review decision..."
	rec.ReviewerNotes = decision.Notes
	rec.ApprovedChanges = nil
	rec.RejectedChanges = nil

	if decision.WorkflowID != rec.WorkflowID || decision.DocumentID != rec.DocumentID {
		logFailure(rec, "%v: got workflow %q document %q",
			core.ErrDecisionMismatch, decision.WorkflowID, decision.DocumentID)
		rec.Status = core.StatusReviewUnknownOutcome
		return
	}

	proposed := rec.ProposedChanges
	switch decision.Outcome {
	case core.OutcomeApproveAll:
		rec.ApprovedChanges = append([]core.ChangeItem(nil), proposed...)
		rec.Status = core.StatusApproved

	case core.OutcomeApproveAllNew:
		for _, item := range proposed {
			if item.Type == core.ChangeNewRole {
				rec.ApprovedChanges = append(rec.ApprovedChanges, item)
			} else {
				rec.RejectedChanges = append(rec.RejectedChanges, item)
			}
		}
		rec.Status = core.StatusApproved

	case core.OutcomeApproveSelected:
		seen := make(map[int]bool, len(decision.Selected))
		for _, idx := range decision.Selected {
			if idx < 0 || idx >= len(proposed) || seen[idx] {
				logFailure(rec, "review decision references change item %d outside the proposed set", idx)
				rec.ApprovedChanges = nil
				rec.Status = core.StatusReviewUnknownOutcome
				return
			}
			seen[idx] = true
		}
		for i, item := range proposed {
			if seen[i] {
				rec.ApprovedChanges = append(rec.ApprovedChanges, item)
			} else {
				rec.RejectedChanges = append(rec.RejectedChanges, item)
			}
		}
		rec.Status = core.StatusApproved

	case core.OutcomeRejectAll:
		rec.RejectedChanges = append([]core.ChangeItem(nil), proposed...)
		rec.Status = core.StatusRejected

	default:
		logFailure(rec, "unknown review outcome %q, nothing approved", decision.Outcome)
		rec.Status = core.StatusReviewUnknownOutcome
	}
}

// applyChanges persists approved NEW_ROLE items to the record store and
// records one citation per achievement of each saved role. Matched-role
// updates are surfaced in the diff but not persisted; that extension is
// deliberately left open. Citation failures are logged and never roll back
// a saved role.
func (e *Engine) applyChanges(ctx context.Context, rec *core.ProcessingRecord) {
	rec.TaskInfo = "Saving approved changes and recording citations..."

	attempted, saved := 0, 0
	for _, item := range rec.ApprovedChanges {
		if item.Type != core.ChangeNewRole || item.Role == nil {
			e.logger.Info("skipping approved item: matched-role updates are not persisted",
				"workflow_id", rec.WorkflowID)
			continue
		}
		role := *item.Role
		attempted++

		res := e.gw.Invoke(ctx, "record_store", "create_role", map[string]any{
			"role":      role,
			"client_id": rec.ClientID,
		})
		if !res.OK {
			logFailure(rec, "failed to save role %s - %s: %s", role.Company, role.Title, res.Message)
			continue
		}
		saved++
		storeID := res.Str("store_id")

		for _, achievement := range role.Achievements {
			if strings.TrimSpace(achievement) == "" {
				continue
			}
			cres := e.gw.Invoke(ctx, "citation_tracker", "record_citation", map[string]any{
				"doc_id":   rec.DocumentID,
				"text":     achievement,
				"location": fmt.Sprintf("Resume: %s - %s, Achievement", role.Company, role.Title),
				"store_id": storeID,
				"field":    "achievements",
			})
			if !cres.OK {
				logFailure(rec, "citation failed for %q: %s", truncate(achievement, 30), cres.Message)
			}
		}
	}

	switch {
	case attempted == 0:
		rec.Status = core.StatusSaveSkipped
	case saved == attempted:
		rec.Status = core.StatusSaveCompleted
	case saved > 0:
		rec.Status = core.StatusSaveCompletedWithErrors
	default:
		rec.Status = core.StatusSaveFailed
	}

	e.logger.Info("persistence completed",
		"workflow_id", rec.WorkflowID,
		"attempted", attempted,
		"saved", saved,
		"status", rec.Status)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
