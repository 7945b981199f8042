// Package match scores similarity between extracted and stored roles and
// partitions extracted roles into matched pairs and new roles. Everything
// here is a pure function.
package match

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talentbase/resumeflow/pkg/core"
)

// Threshold is the minimum score (0-100) for two roles to be considered
// the same position.
const Threshold = 80

// Weighting of the score components.
const (
	companyWeight = 0.4
	titleWeight   = 0.4
	dateWeight    = 0.2
)

// Ratio returns a normalized similarity between two strings on a 0-100
// scale, case- and whitespace-insensitive.
func Ratio(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round((1 - float64(dist)/float64(longest)) * 100))
}

// Score combines company-name similarity, title similarity, and a
// start-year proximity bonus. The bonus is nonzero only when both roles
// carry a start year and the years differ by at most one.
func Score(extracted, existing core.Role) int {
	company := Ratio(extracted.Company, existing.Company)
	title := Ratio(extracted.Title, existing.Title)

	date := 0
	if extracted.StartYear != nil && existing.StartYear != nil {
		diff := *extracted.StartYear - *existing.StartYear
		if diff < 0 {
			diff = -diff
		}
		if diff <= 1 {
			date = 100 - diff*10
		}
	}

	total := companyWeight*float64(company) + titleWeight*float64(title) + dateWeight*float64(date)
	return int(math.Round(total))
}

// Partition assigns each extracted role to the first not-yet-matched
// existing role scoring at or above Threshold, in iteration order. There is
// no global optimal assignment; an existing role is never matched twice.
// Unmatched extracted roles are returned as new. The two slices partition
// the input: every extracted role lands in exactly one of them.
func Partition(extracted, existing []core.Role) ([]core.MatchPair, []core.Role) {
	pairs := make([]core.MatchPair, 0, len(extracted))
	newRoles := make([]core.Role, 0, len(extracted))
	taken := make(map[int]bool, len(existing))

	for _, role := range extracted {
		matched := false
		for i, candidate := range existing {
			if taken[i] {
				continue
			}
			score := Score(role, candidate)
			if score >= Threshold {
				pairs = append(pairs, core.MatchPair{
					Extracted: role,
					Existing:  candidate,
					Score:     score,
				})
				taken[i] = true
				matched = true
				break
			}
		}
		if !matched {
			newRoles = append(newRoles, role)
		}
	}
	return pairs, newRoles
}
