// Package scoring implements the weighted role keyword matching policy.
package scoring

import (
	"math"
	"sort"

	"github.com/terra-clan/hiresense/internal/models"
	"github.com/terra-clan/hiresense/internal/roles"
)

// Policy constants
const (
	requiredWeight = 0.7
	optionalWeight = 0.3

	recommendThreshold = 40.0
	maxRecommended     = 3
	maxRoleScores      = 6
	maxMissingSkills   = 12
)

// Fragment is the role-scoring part of an analysis
type Fragment struct {
	ATSScore         float64
	RecommendedRoles []string
	RoleScores       []models.RoleScore
	MissingSkills    []string
}

// ScoreRoles scores every role of the catalog against the skill set.
//
// Each role scores 0.7*required_ratio + 0.3*optional_ratio as a percentage
// rounded to two decimals. A role without required keywords gets a required
// ratio of 0, so it can reach at most 30. Missing skills are the union of the
// unmet required keywords of every role, not only the best one.
func ScoreRoles(skills map[string]struct{}, catalog *roles.Catalog, targetRole string) Fragment {
	all := catalog.Roles()

	scores := make([]models.RoleScore, 0, len(all))
	missing := make(map[string]struct{})

	for _, role := range all {
		reqHits := countHits(role.Required, skills)
		optHits := countHits(role.Optional, skills)

		final := requiredWeight*ratio(reqHits, len(role.Required)) +
			optionalWeight*ratio(optHits, len(role.Optional))

		scores = append(scores, models.RoleScore{
			Role:  role.Name,
			Score: round2(final * 100),
		})

		for _, kw := range role.Required {
			if _, ok := skills[kw]; !ok {
				missing[kw] = struct{}{}
			}
		}
	}

	// Ties keep dictionary order
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})

	frag := Fragment{
		RecommendedRoles: recommend(scores),
		RoleScores:       scores[:min(len(scores), maxRoleScores)],
		MissingSkills:    sortedKeys(missing, maxMissingSkills),
	}
	if len(scores) > 0 {
		frag.ATSScore = scores[0].Score
	}

	if targetRole != "" && catalog.Has(targetRole) && !contains(frag.RecommendedRoles, targetRole) {
		frag.RecommendedRoles = append([]string{targetRole}, frag.RecommendedRoles...)
	}

	return frag
}

// SkillSet builds a lookup set from a list of skills
func SkillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		set[s] = struct{}{}
	}
	return set
}

func recommend(scores []models.RoleScore) []string {
	rec := make([]string, 0, maxRecommended)
	for _, s := range scores {
		if len(rec) == maxRecommended {
			break
		}
		if s.Score >= recommendThreshold {
			rec = append(rec, s.Role)
		}
	}
	if len(rec) > 0 {
		return rec
	}

	// Nobody clears the threshold: fall back to the top roles
	for _, s := range scores[:min(len(scores), maxRecommended)] {
		rec = append(rec, s.Role)
	}
	return rec
}

func countHits(keywords []string, skills map[string]struct{}) int {
	hits := 0
	for _, kw := range keywords {
		if _, ok := skills[kw]; ok {
			hits++
		}
	}
	return hits
}

func ratio(hits, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[string]struct{}, limit int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
