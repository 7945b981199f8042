package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentbase/resumeflow/pkg/core"
	"github.com/talentbase/resumeflow/pkg/gateway"
	"github.com/talentbase/resumeflow/pkg/tools"
)

// scriptedExtractor returns a fixed set of roles.
type scriptedExtractor struct {
	roles []core.Role
	errs  []string
	err   error
}

func (s *scriptedExtractor) ExtractRoles(ctx context.Context, text, clientID string) ([]core.Role, float64, []string, error) {
	return s.roles, 0.9, s.errs, s.err
}

// stubRoleStore is an in-memory role store whose create calls can be made
// to fail selectively.
type stubRoleStore struct {
	existing  []core.Role
	created   []core.Role
	queryErr  error
	failAfter int // fail creates once this many have succeeded; <0 never fails
}

func newStubRoleStore() *stubRoleStore {
	return &stubRoleStore{failAfter: -1}
}

func (s *stubRoleStore) QueryRoles(ctx context.Context, clientID string) ([]core.Role, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.existing, nil
}

func (s *stubRoleStore) CreateRole(ctx context.Context, role core.Role, clientID string) (string, error) {
	if s.failAfter >= 0 && len(s.created) >= s.failAfter {
		return "", errors.New("store unavailable")
	}
	s.created = append(s.created, role)
	return "store-id", nil
}

type stubCitationStore struct {
	saved []core.Citation
	err   error
}

func (s *stubCitationStore) SaveCitation(ctx context.Context, cit core.Citation) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, cit)
	return "cit-id", nil
}

// harness wires a driver over real capability servers with scripted
// extraction and in-memory stores.
type harness struct {
	driver     *Driver
	roles      *stubRoleStore
	citations  *stubCitationStore
	resumePath string
}

func newHarness(t *testing.T, extractor tools.RoleExtractor) *harness {
	t.Helper()

	uploadDir := t.TempDir()
	resumePath := filepath.Join(uploadDir, "resume.txt")
	require.NoError(t, os.WriteFile(resumePath, []byte("Jane Doe\nAcme Corporation - Senior Engineer\n"), 0o600))

	roles := newStubRoleStore()
	citations := &stubCitationStore{}

	gw := gateway.New([]gateway.Server{
		tools.NewSecurityServer(uploadDir, 0),
		tools.NewDocumentServer(extractor, nil),
		tools.NewRecordStoreServer(roles),
		tools.NewCitationServer(citations),
	})

	return &harness{
		driver:     NewDriver(New(gw)),
		roles:      roles,
		citations:  citations,
		resumePath: resumePath,
	}
}

func twoRoles() []core.Role {
	return []core.Role{
		{Company: "Acme", Title: "Senior Engineer", Achievements: []string{"Led the migration"}},
		{Company: "Globex", Title: "Analyst"},
	}
}

func TestRun_PausesForReview(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})

	rec := h.driver.Run(context.Background(), h.resumePath, "c1")

	assert.Equal(t, core.StatusPendingReview, rec.Status)
	assert.False(t, rec.Terminal())
	assert.Equal(t, "Awaiting human review.", rec.TaskInfo)
	assert.Equal(t, core.KindText, rec.DocumentKind)
	require.Len(t, rec.ProposedChanges, 2)
	assert.Equal(t, core.ChangeNewRole, rec.ProposedChanges[0].Type)
	assert.Empty(t, rec.ApprovedChanges)
	assert.Empty(t, h.roles.created, "nothing is persisted before review")

	for _, step := range []string{"validate_security", "extract_text", "extract_roles", "query_existing", "match_roles", "generate_diff"} {
		assert.Contains(t, rec.CompletedSteps, step)
	}
	assert.NotContains(t, rec.CompletedSteps, "finalize", "a paused record is not finalized")
}

func TestRun_NoRolesSkipsReview(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{})

	rec := h.driver.Run(context.Background(), h.resumePath, "c1")

	assert.Equal(t, core.StatusReviewNotNeeded, rec.Status)
	assert.True(t, rec.Terminal())
	assert.Empty(t, rec.ProposedChanges)
	require.NotEmpty(t, rec.ErrorLog)
	assert.Contains(t, rec.ErrorLog[0], "no roles found")
	assert.Contains(t, rec.CompletedSteps, "finalize")
}

func TestRun_PathOutsideUploadDirFailsClosed(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	outside := filepath.Join(t.TempDir(), "elsewhere.txt")
	require.NoError(t, os.WriteFile(outside, []byte("Jane Doe\nAcme Corporation\n"), 0o600))

	rec := h.driver.Run(context.Background(), outside, "c1")

	assert.Equal(t, core.StatusError, rec.Status)
	assert.NotContains(t, rec.CompletedSteps, "extract_text", "a rejected document never reaches extraction")
	require.NotEmpty(t, rec.ErrorLog)
	assert.Contains(t, rec.ErrorLog[0], "security validation failed")
}

func TestRun_UnsupportedDocumentType(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	csvPath := filepath.Join(filepath.Dir(h.resumePath), "resume.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b,c\n1,2,3\n"), 0o600))

	rec := h.driver.Run(context.Background(), csvPath, "c1")

	assert.Equal(t, core.StatusError, rec.Status)
	assert.Equal(t, core.KindUnsupported, rec.DocumentKind)
	assert.NotContains(t, rec.CompletedSteps, "extract_roles")
}

func TestRun_EmptySourcePath(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})

	rec := h.driver.Run(context.Background(), "", "c1")

	assert.Equal(t, core.StatusError, rec.Status)
	assert.Empty(t, rec.CompletedSteps, "no step runs for an empty source path")
	require.NotEmpty(t, rec.ErrorLog)
}

func TestRun_QueryFailureTreatsAllAsNew(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	h.roles.queryErr = errors.New("store offline")

	rec := h.driver.Run(context.Background(), h.resumePath, "c1")

	assert.Equal(t, core.StatusPendingReview, rec.Status, "a store outage downgrades matching, it does not kill the run")
	assert.Len(t, rec.NewRoles, 2)
	assert.Empty(t, rec.MatchedPairs)

	assert.True(t, logContains(rec, "treating all extracted roles as new"))
}

func logContains(rec *core.ProcessingRecord, sub string) bool {
	for _, msg := range rec.ErrorLog {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

func TestRun_MatchedRolesProduceMatchedItems(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: []core.Role{
		{Company: "Acme", Title: "Senior Engineer", Location: "Remote"},
	}})
	h.roles.existing = []core.Role{
		{Company: "Acme", Title: "Senior Engineer", StoreID: "existing-1"},
	}

	rec := h.driver.Run(context.Background(), h.resumePath, "c1")

	assert.Equal(t, core.StatusPendingReview, rec.Status)
	require.Len(t, rec.MatchedPairs, 1)
	assert.Empty(t, rec.NewRoles)
	require.Len(t, rec.ProposedChanges, 1)
	assert.Equal(t, core.ChangeMatchedRole, rec.ProposedChanges[0].Type)
	require.NotNil(t, rec.ProposedChanges[0].Diff)
	assert.Equal(t, "Remote", rec.ProposedChanges[0].Diff.Additions["location"])
}

func TestRun_CancelledContext(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := h.driver.Run(ctx, h.resumePath, "c1")

	assert.Equal(t, core.StatusUnprocessed, rec.Status)
	assert.Empty(t, rec.CompletedSteps)
}

func runToPause(t *testing.T, h *harness) *core.ProcessingRecord {
	t.Helper()
	rec := h.driver.Run(context.Background(), h.resumePath, "c1")
	require.Equal(t, core.StatusPendingReview, rec.Status)
	return rec
}

func decisionFor(rec *core.ProcessingRecord, outcome core.ReviewOutcome) core.ReviewDecision {
	return core.ReviewDecision{
		WorkflowID: rec.WorkflowID,
		DocumentID: rec.DocumentID,
		Outcome:    outcome,
	}
}

func TestResume_ApproveAll(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeApproveAll))

	assert.Equal(t, core.StatusSaveCompleted, rec.Status)
	assert.True(t, rec.Terminal())
	assert.Len(t, h.roles.created, 2)
	assert.Contains(t, rec.CompletedSteps, "human_review")
	assert.Contains(t, rec.CompletedSteps, "apply_changes")
	assert.Contains(t, rec.CompletedSteps, "finalize")

	// One citation per non-blank achievement of each saved role.
	require.Len(t, h.citations.saved, 1)
	assert.Equal(t, rec.DocumentID, h.citations.saved[0].DocumentID)
	assert.Equal(t, "Led the migration", h.citations.saved[0].Text)
	assert.Equal(t, "store-id", h.citations.saved[0].StoreID)
	assert.Equal(t, "achievements", h.citations.saved[0].Field)
}

func TestResume_RejectAll(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeRejectAll))

	assert.Equal(t, core.StatusRejected, rec.Status)
	assert.True(t, rec.Terminal())
	assert.Empty(t, h.roles.created, "a rejection persists nothing")
	assert.Empty(t, h.citations.saved)
	assert.Len(t, rec.RejectedChanges, 2)
	assert.NotContains(t, rec.CompletedSteps, "apply_changes")
}

func TestResume_ApproveSelected(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	decision := decisionFor(rec, core.OutcomeApproveSelected)
	decision.Selected = []int{1}
	rec = h.driver.Resume(context.Background(), rec, decision)

	assert.Equal(t, core.StatusSaveCompleted, rec.Status)
	require.Len(t, h.roles.created, 1)
	assert.Len(t, rec.ApprovedChanges, 1)
	assert.Len(t, rec.RejectedChanges, 1)
}

func TestResume_ApproveSelectedInvalidIndex(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	decision := decisionFor(rec, core.OutcomeApproveSelected)
	decision.Selected = []int{5}
	rec = h.driver.Resume(context.Background(), rec, decision)

	assert.Equal(t, core.StatusReviewUnknownOutcome, rec.Status)
	assert.True(t, rec.Terminal())
	assert.Empty(t, h.roles.created, "an invalid decision approves nothing")
	require.NotEmpty(t, rec.ErrorLog)
}

func TestResume_ApproveSelectedDuplicateIndex(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	decision := decisionFor(rec, core.OutcomeApproveSelected)
	decision.Selected = []int{0, 0}
	rec = h.driver.Resume(context.Background(), rec, decision)

	assert.Equal(t, core.StatusReviewUnknownOutcome, rec.Status)
	assert.Empty(t, h.roles.created)
}

func TestResume_DecisionForDifferentRecord(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	decision := core.ReviewDecision{
		WorkflowID: "someone-else",
		DocumentID: rec.DocumentID,
		Outcome:    core.OutcomeApproveAll,
	}
	rec = h.driver.Resume(context.Background(), rec, decision)

	assert.Equal(t, core.StatusReviewUnknownOutcome, rec.Status)
	assert.Empty(t, h.roles.created)
}

func TestResume_UnknownOutcome(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.ReviewOutcome("SHIP_IT")))

	assert.Equal(t, core.StatusReviewUnknownOutcome, rec.Status)
	assert.Empty(t, h.roles.created)
}

func TestResume_ApproveAllNewSkipsMatchedItems(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: []core.Role{
		{Company: "Acme", Title: "Senior Engineer"},
		{Company: "Globex", Title: "Analyst"},
	}})
	h.roles.existing = []core.Role{
		{Company: "Acme", Title: "Senior Engineer", StoreID: "existing-1"},
	}
	rec := runToPause(t, h)
	require.Len(t, rec.ProposedChanges, 2)

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeApproveAllNew))

	assert.Equal(t, core.StatusSaveCompleted, rec.Status)
	require.Len(t, h.roles.created, 1)
	assert.Equal(t, "Globex", h.roles.created[0].Company)
	assert.Len(t, rec.ApprovedChanges, 1, "only the new-role item is approved")
	require.Len(t, rec.RejectedChanges, 1, "every proposed item is decided")
	assert.Equal(t, core.ChangeMatchedRole, rec.RejectedChanges[0].Type)
}

func TestResume_PartialSaveFailure(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)
	h.roles.failAfter = 1

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeApproveAll))

	assert.Equal(t, core.StatusSaveCompletedWithErrors, rec.Status)
	assert.Len(t, h.roles.created, 1)
	require.NotEmpty(t, rec.ErrorLog)
}

func TestResume_TotalSaveFailure(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)
	h.roles.failAfter = 0

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeApproveAll))

	assert.Equal(t, core.StatusSaveFailed, rec.Status)
	assert.Empty(t, h.roles.created)
}

func TestResume_CitationFailureDoesNotFailSave(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)
	h.citations.err = errors.New("tracker offline")

	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeApproveAll))

	assert.Equal(t, core.StatusSaveCompleted, rec.Status, "citations are best-effort")
	assert.Len(t, h.roles.created, 2)

	assert.True(t, logContains(rec, "citation failed"))
}

func TestResume_RetriesPersistenceAfterCancellation(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)

	// Cancellation strikes between the review decision and persistence.
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	rec = h.driver.Resume(cancelled, rec, decisionFor(rec, core.OutcomeApproveAll))

	assert.Equal(t, core.StatusApproved, rec.Status)
	assert.False(t, rec.Terminal())
	assert.Len(t, rec.ApprovedChanges, 2)
	assert.Empty(t, h.roles.created, "nothing is saved under a cancelled context")

	// A retried resume picks up at persistence; the stored decision stands
	// and the supplied one is ignored.
	rec = h.driver.Resume(context.Background(), rec, decisionFor(rec, core.OutcomeRejectAll))

	assert.Equal(t, core.StatusSaveCompleted, rec.Status)
	assert.True(t, rec.Terminal())
	assert.Len(t, h.roles.created, 2)
	assert.Contains(t, rec.CompletedSteps, "apply_changes")
}

func TestResume_IsIdempotentAfterTerminal(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := runToPause(t, h)
	decision := decisionFor(rec, core.OutcomeApproveAll)

	rec = h.driver.Resume(context.Background(), rec, decision)
	require.Equal(t, core.StatusSaveCompleted, rec.Status)
	createdOnce := len(h.roles.created)

	again := h.driver.Resume(context.Background(), rec, decision)

	assert.Equal(t, core.StatusSaveCompleted, again.Status)
	assert.Equal(t, createdOnce, len(h.roles.created), "a duplicate decision never double-saves")
}

func TestResume_RequiresPendingReview(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	rec := NewRecord(h.resumePath, "c1")

	got := h.driver.Resume(context.Background(), rec, core.ReviewDecision{
		WorkflowID: rec.WorkflowID,
		DocumentID: rec.DocumentID,
		Outcome:    core.OutcomeApproveAll,
	})

	assert.Equal(t, core.StatusUnprocessed, got.Status)
	assert.Empty(t, h.roles.created)
}

func TestNewRecord_Initialization(t *testing.T) {
	rec := NewRecord("/uploads/jane.txt", "c1")

	assert.NotEmpty(t, rec.WorkflowID)
	assert.True(t, len(rec.DocumentID) > 4 && rec.DocumentID[:4] == "doc_")
	assert.Equal(t, core.StatusUnprocessed, rec.Status)
	assert.Equal(t, core.KindUnknown, rec.DocumentKind)
	assert.NotNil(t, rec.ErrorLog)
	assert.NotNil(t, rec.ConfidenceScores)

	other := NewRecord("/uploads/jane.txt", "c1")
	assert.NotEqual(t, rec.WorkflowID, other.WorkflowID)
}

func TestEngine_EmitsEvents(t *testing.T) {
	h := newHarness(t, &scriptedExtractor{roles: twoRoles()})
	engine := h.driver.engine

	rec := h.driver.Run(context.Background(), h.resumePath, "c1")
	require.Equal(t, core.StatusPendingReview, rec.Status)

	var sawPause bool
	for {
		select {
		case ev := <-engine.Events():
			if paused, ok := ev.(*core.ReviewPaused); ok {
				sawPause = true
				assert.Equal(t, rec.WorkflowID, paused.WorkflowID)
				assert.Equal(t, 2, paused.Proposed)
			}
			continue
		default:
		}
		break
	}
	assert.True(t, sawPause)
}
