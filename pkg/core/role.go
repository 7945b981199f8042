package core

// Role is one employment entry, either extracted from a resume or held in
// the record store. Optional numeric fields use pointers so "not stated"
// survives a round-trip through JSON.
type Role struct {
	Company          string   `json:"company"`
	Title            string   `json:"title"`
	StartYear        *int     `json:"start_year,omitempty"`
	EndYear          *int     `json:"end_year,omitempty"`
	StartMonth       *int     `json:"start_month,omitempty"`
	EndMonth         *int     `json:"end_month,omitempty"`
	ManagerTitle     string   `json:"manager_title,omitempty"`
	DirectReports    []string `json:"direct_reports,omitempty"`
	Budget           *float64 `json:"budget_responsibility,omitempty"`
	Headcount        *int     `json:"headcount,omitempty"`
	Quota            *float64 `json:"quota,omitempty"`
	PeerFunctions    []string `json:"peer_functions,omitempty"`
	Achievements     []string `json:"achievements,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	Location         string   `json:"location,omitempty"`
	EmploymentType   string   `json:"employment_type,omitempty"`
	Confidence       float64  `json:"confidence_score"`
	SourceIndicators []string `json:"source_indicators,omitempty"`
	RoleIndex        int      `json:"role_index"`

	// StoreID is assigned by the record store; empty for extracted roles.
	StoreID string `json:"store_id,omitempty"`
}

// Empty reports whether the role is missing both company and title.
// Such roles are discarded on ingress from structured extraction.
func (r Role) Empty() bool {
	return r.Company == "" && r.Title == ""
}
