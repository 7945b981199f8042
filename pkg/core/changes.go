package core

// ChangeType tags a proposed change item.
type ChangeType string

const (
	ChangeNewRole     ChangeType = "NEW_ROLE"
	ChangeMatchedRole ChangeType = "MATCHED_ROLE"
)

// FieldChange records one field moving from an existing value to an
// extracted one.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// RoleDiff is the advisory per-field comparison between an extracted role
// and its matched existing role. Updates hold fields present on both sides
// with differing values; Additions hold fields the existing role lacks.
type RoleDiff struct {
	Updates   map[string]FieldChange `json:"updates"`
	Additions map[string]any         `json:"additions"`
}

// Empty reports whether the diff proposes nothing.
func (d *RoleDiff) Empty() bool {
	return d == nil || (len(d.Updates) == 0 && len(d.Additions) == 0)
}

// MatchPair couples an extracted role with the existing role it matched.
// An extracted role appears in at most one pair, and so does an existing
// role.
type MatchPair struct {
	Extracted Role      `json:"extracted"`
	Existing  Role      `json:"existing"`
	Score     int       `json:"match_score"`
	Suggested *RoleDiff `json:"suggested_updates,omitempty"`
}

// ChangeItem is one proposed creation or update surfaced for human review.
// NEW_ROLE items carry Role; MATCHED_ROLE items carry Extracted, Existing
// and Diff.
type ChangeItem struct {
	Type      ChangeType `json:"type"`
	Role      *Role      `json:"data,omitempty"`
	Extracted *Role      `json:"extracted_data,omitempty"`
	Existing  *Role      `json:"existing_data,omitempty"`
	Diff      *RoleDiff  `json:"diff,omitempty"`
}

// ReviewOutcome is the recognized shape of a human review decision.
type ReviewOutcome string

const (
	OutcomeApproveAll      ReviewOutcome = "APPROVE_ALL"
	OutcomeApproveAllNew   ReviewOutcome = "APPROVE_ALL_NEW"
	OutcomeApproveSelected ReviewOutcome = "APPROVE_SELECTED"
	OutcomeRejectAll       ReviewOutcome = "REJECT_ALL"
)

// ReviewDecision is supplied by the caller to resume a paused record.
// WorkflowID and DocumentID must match the record being resumed. Selected
// indexes reference the record's ProposedChanges and are only consulted for
// OutcomeApproveSelected.
type ReviewDecision struct {
	WorkflowID string        `json:"workflow_id"`
	DocumentID string        `json:"document_id"`
	Outcome    ReviewOutcome `json:"outcome"`
	Selected   []int         `json:"selected,omitempty"`
	Notes      string        `json:"notes,omitempty"`
}
