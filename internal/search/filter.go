// Package search derives the visible lab view from the dataset and the
// current filter inputs. Matching is plain case-insensitive substring
// containment; results keep dataset order.
package search

import (
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// FilterState is the user's current search input.
type FilterState struct {
	Term      string
	School    string
	Professor string
}

// Normalize trims the term and case-folds it.
func (f FilterState) Normalize() FilterState {
	return FilterState{
		Term:      strings.ToLower(strings.TrimSpace(f.Term)),
		School:    strings.TrimSpace(f.School),
		Professor: strings.TrimSpace(f.Professor),
	}
}

// HasDropdown reports whether a school or professor filter is selected.
func (f FilterState) HasDropdown() bool {
	return f.School != "" || f.Professor != ""
}

// Filter returns the labs matching every non-empty axis, in dataset order.
// An empty term, school or professor places no constraint on that axis.
func Filter(all []labs.Lab, term, school, professor string) []labs.Lab {
	term = strings.ToLower(strings.TrimSpace(term))
	school = strings.ToLower(strings.TrimSpace(school))
	professor = strings.ToLower(strings.TrimSpace(professor))

	out := make([]labs.Lab, 0, len(all))
	for _, l := range all {
		if matchesTerm(l, term) && matchesField(l.School, school) && matchesField(l.Professor, professor) {
			out = append(out, l)
		}
	}
	return out
}

// MatchesTerm reports whether term is a case-insensitive substring of the
// lab's name, description, professor or school.
func MatchesTerm(l labs.Lab, term string) bool {
	return matchesTerm(l, strings.ToLower(strings.TrimSpace(term)))
}

func matchesTerm(l labs.Lab, term string) bool {
	if term == "" {
		return true
	}
	for _, field := range []string{l.Name, l.Description, l.Professor, l.School} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// matchesField applies the dropdown rule: equal, or containing the value.
// Dropdown selections and typed values share this path.
func matchesField(field, want string) bool {
	if want == "" {
		return true
	}
	f := strings.ToLower(field)
	return f == want || strings.Contains(f, want)
}
