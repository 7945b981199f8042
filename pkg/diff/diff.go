// Package diff turns match results into a reviewable change-set.
package diff

import (
	"github.com/talentbase/resumeflow/pkg/core"
)

// Compare builds the advisory per-field diff between an extracted role and
// the existing role it matched. Scalar fields present on both sides with
// differing values become updates; fields the existing role lacks become
// additions. List fields from the extracted side are always surfaced as
// additions for the reviewer.
func Compare(extracted, existing core.Role) *core.RoleDiff {
	d := &core.RoleDiff{
		Updates:   make(map[string]core.FieldChange),
		Additions: make(map[string]any),
	}

	compareString(d, "title", extracted.Title, existing.Title)
	compareString(d, "manager_title", extracted.ManagerTitle, existing.ManagerTitle)
	compareString(d, "location", extracted.Location, existing.Location)
	compareString(d, "employment_type", extracted.EmploymentType, existing.EmploymentType)

	compareIntPtr(d, "start_year", extracted.StartYear, existing.StartYear)
	compareIntPtr(d, "end_year", extracted.EndYear, existing.EndYear)
	compareIntPtr(d, "start_month", extracted.StartMonth, existing.StartMonth)
	compareIntPtr(d, "end_month", extracted.EndMonth, existing.EndMonth)
	compareIntPtr(d, "headcount", extracted.Headcount, existing.Headcount)

	compareFloatPtr(d, "budget_responsibility", extracted.Budget, existing.Budget)
	compareFloatPtr(d, "quota", extracted.Quota, existing.Quota)

	addList(d, "achievements", extracted.Achievements)
	addList(d, "responsibilities", extracted.Responsibilities)
	addList(d, "direct_reports", extracted.DirectReports)
	addList(d, "peer_functions", extracted.PeerFunctions)

	return d
}

// BuildChanges emits one NEW_ROLE item per new role and one MATCHED_ROLE
// item per matched pair, preserving input order (new roles first).
func BuildChanges(pairs []core.MatchPair, newRoles []core.Role) []core.ChangeItem {
	changes := make([]core.ChangeItem, 0, len(pairs)+len(newRoles))

	for i := range newRoles {
		role := newRoles[i]
		changes = append(changes, core.ChangeItem{
			Type: core.ChangeNewRole,
			Role: &role,
		})
	}
	for i := range pairs {
		pair := pairs[i]
		d := pair.Suggested
		if d == nil {
			d = Compare(pair.Extracted, pair.Existing)
		}
		changes = append(changes, core.ChangeItem{
			Type:      core.ChangeMatchedRole,
			Extracted: &pair.Extracted,
			Existing:  &pair.Existing,
			Diff:      d,
		})
	}
	return changes
}

func compareString(d *core.RoleDiff, field, extracted, existing string) {
	if extracted == "" || extracted == existing {
		return
	}
	if existing == "" {
		d.Additions[field] = extracted
		return
	}
	d.Updates[field] = core.FieldChange{From: existing, To: extracted}
}

func compareIntPtr(d *core.RoleDiff, field string, extracted, existing *int) {
	if extracted == nil {
		return
	}
	if existing == nil {
		d.Additions[field] = *extracted
		return
	}
	if *extracted != *existing {
		d.Updates[field] = core.FieldChange{From: *existing, To: *extracted}
	}
}

func compareFloatPtr(d *core.RoleDiff, field string, extracted, existing *float64) {
	if extracted == nil {
		return
	}
	if existing == nil {
		d.Additions[field] = *extracted
		return
	}
	if *extracted != *existing {
		d.Updates[field] = core.FieldChange{From: *existing, To: *extracted}
	}
}

func addList(d *core.RoleDiff, field string, values []string) {
	if len(values) > 0 {
		d.Additions[field] = values
	}
}
