package search

import (
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// minProfessorTerm is the shortest term that can trigger professor grouping.
const minProfessorTerm = 2

// ProfessorMatch groups the labs led by one professor. The grouping key is
// the exact professor string.
type ProfessorMatch struct {
	Name   string
	School string
	Labs   []labs.Lab
}

// FindProfessors returns the professors whose full name contains term, or
// one of whose name tokens starts with it, in first-seen order.
func FindProfessors(all []labs.Lab, term string) []ProfessorMatch {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []ProfessorMatch
	byName := make(map[string]int)
	for _, l := range all {
		if !l.HasProfessor() || !professorMatches(l.Professor, term) {
			continue
		}
		if i, ok := byName[l.Professor]; ok {
			out[i].Labs = append(out[i].Labs, l)
			continue
		}
		byName[l.Professor] = len(out)
		out = append(out, ProfessorMatch{Name: l.Professor, School: l.School, Labs: []labs.Lab{l}})
	}
	return out
}

func professorMatches(name, term string) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, term) {
		return true
	}
	for _, tok := range strings.Fields(lower) {
		if strings.HasPrefix(tok, term) {
			return true
		}
	}
	return false
}

// preferProfessors decides whether professor grouping takes over the view.
// When some lab name already contains the term, grouping only wins if a
// professor's own name contains it too.
func preferProfessors(all []labs.Lab, matches []ProfessorMatch, term string) bool {
	if len(matches) == 0 {
		return false
	}
	labNameHit := false
	for _, l := range all {
		if strings.Contains(strings.ToLower(l.Name), term) {
			labNameHit = true
			break
		}
	}
	if !labNameHit {
		return true
	}
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m.Name), term) {
			return true
		}
	}
	return false
}

func professorTermEligible(f FilterState) bool {
	return utf8.RuneCountInString(f.Term) >= minProfessorTerm && !f.HasDropdown()
}
