package recommend

import (
	"sort"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// Keyword scoring weights.
const (
	majorInLabWeight    = 3
	interestWeight      = 2
	majorInSchoolWeight = 1

	// BasicLimit caps the quick recommendation list.
	BasicLimit = 10
	// FallbackLimit caps the keyword list used when AI output is unusable.
	FallbackLimit = 3

	fallbackDescriptionLen = 400
)

// ScoredLab is a lab with its keyword relevance.
type ScoredLab struct {
	Lab   labs.Lab
	Score int
}

// ScoreLabs ranks labs against a major and interests. The major found in a
// lab's name or description adds 3, each interest found there adds 2, and
// the major found in the school adds 1. Labs scoring 0 are dropped; ties
// keep dataset order.
func ScoreLabs(all []labs.Lab, major string, interests []string) []ScoredLab {
	major = strings.ToLower(strings.TrimSpace(major))
	terms := make([]string, 0, len(interests))
	for _, it := range interests {
		if it = strings.ToLower(strings.TrimSpace(it)); it != "" {
			terms = append(terms, it)
		}
	}

	var scored []ScoredLab
	for _, lab := range all {
		name := strings.ToLower(lab.Name)
		desc := strings.ToLower(lab.Description)
		school := strings.ToLower(lab.School)

		s := 0
		if major != "" && (strings.Contains(name, major) || strings.Contains(desc, major)) {
			s += majorInLabWeight
		}
		for _, it := range terms {
			if strings.Contains(name, it) || strings.Contains(desc, it) {
				s += interestWeight
			}
		}
		if major != "" && strings.Contains(school, major) {
			s += majorInSchoolWeight
		}
		if s > 0 {
			scored = append(scored, ScoredLab{Lab: lab, Score: s})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

// Basic is the response of the quick keyword recommendation endpoint.
type Basic struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalLabs       int              `json:"total_labs"`
	MatchingLabs    int              `json:"matching_labs"`
}

// BasicRecommendations returns the top keyword matches with their scores.
func BasicRecommendations(all []labs.Lab, major string, interests []string) Basic {
	scored := ScoreLabs(all, major, interests)
	out := Basic{
		Recommendations: []Recommendation{},
		TotalLabs:       len(all),
		MatchingLabs:    len(scored),
	}
	for _, s := range scored[:min(len(scored), BasicLimit)] {
		r := FromLab(s.Lab)
		r.Score = score(s.Score)
		out.Recommendations = append(out.Recommendations, r)
	}
	return out
}

// Fallback builds the short keyword list used when the AI backend fails or
// returns nothing usable.
func Fallback(p Profile, all []labs.Lab) []Recommendation {
	scored := ScoreLabs(all, p.Academic.Major, p.Goals.Interests)
	out := make([]Recommendation, 0, FallbackLimit)
	for _, s := range scored[:min(len(scored), FallbackLimit)] {
		r := FromLab(s.Lab)
		if r.Name == "" {
			r.Name = defaultName
		}
		r.Description = truncateRunes(r.Description, fallbackDescriptionLen)
		r.Score = score(s.Score)
		r.fillEmail()
		out = append(out, r)
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
