package search

import "github.com/TobiSchelling/ResearchConnect/internal/labs"

// Kind tags which view a search produced.
type Kind int

const (
	// LabResults is the ordinary filtered lab grid.
	LabResults Kind = iota
	// ProfessorResults is the professor listing that replaces the grid.
	ProfessorResults
)

func (k Kind) String() string {
	if k == ProfessorResults {
		return "professors"
	}
	return "labs"
}

// Result is the outcome of evaluating a filter state. Exactly one of Labs
// or Professors is meaningful, according to Kind.
type Result struct {
	Kind       Kind
	Labs       []labs.Lab
	Professors []ProfessorMatch
}

// Paginated reports whether the result is shown through the load-more
// window. Professor listings bypass pagination.
func (r Result) Paginated() bool {
	return r.Kind == LabResults
}

// Evaluate runs the professor heuristic and, when it does not fire, the
// plain filter.
func Evaluate(all []labs.Lab, state FilterState) Result {
	f := state.Normalize()
	if professorTermEligible(f) {
		matches := FindProfessors(all, f.Term)
		if preferProfessors(all, matches, f.Term) {
			return Result{Kind: ProfessorResults, Professors: matches}
		}
	}
	return Result{Kind: LabResults, Labs: Filter(all, f.Term, f.School, f.Professor)}
}
