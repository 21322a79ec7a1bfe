// Package session keeps the per-browser state of the lab directory: the
// active filter, the load-more window, the last search result and the
// slide viewer.
package session

import (
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/paginate"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/render"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/slides"
)

// State is everything one browser session has derived from the dataset.
// The dataset itself is shared and never modified.
type State struct {
	Dataset *labs.Dataset
	Filter  search.FilterState
	Pager   paginate.Pager
	Result  search.Result

	Slides     slides.Viewer[recommend.Recommendation]
	SlideTitle string

	// Profile is the student profile used for email drafting, set by the
	// last detailed analysis.
	Profile *recommend.Profile
}

// New returns a state showing the unfiltered dataset.
func New(ds *labs.Dataset) *State {
	s := &State{Dataset: ds, Pager: paginate.NewPager()}
	s.ApplyFilter(search.FilterState{})
	return s
}

// ApplyFilter recomputes the result for f and rewinds to page 1.
func (s *State) ApplyFilter(f search.FilterState) search.Result {
	s.Filter = f.Normalize()
	s.Result = search.Evaluate(s.Dataset.All(), s.Filter)
	s.Pager.Reset()
	return s.Result
}

// LoadMore grows the visible window by one page. Professor listings are
// not paginated.
func (s *State) LoadMore() bool {
	if !s.Result.Paginated() {
		return false
	}
	return s.Pager.LoadMore(len(s.Result.Labs))
}

// Visible returns the shown part of the lab grid and whether load-more is
// enabled.
func (s *State) Visible() ([]labs.Lab, bool) {
	if !s.Result.Paginated() {
		return nil, false
	}
	return paginate.Window(&s.Pager, s.Result.Labs)
}

// ShowRecommendations loads recs into the slide viewer at the first slide.
func (s *State) ShowRecommendations(title string, recs []recommend.Recommendation) {
	s.SlideTitle = title
	s.Slides.Load(recs)
}

// ShowProfessor loads every lab led by the professor named exactly name
// into the slide viewer. It reports false when there are none.
func (s *State) ShowProfessor(name string) bool {
	var recs []recommend.Recommendation
	for _, l := range s.Dataset.All() {
		if l.HasProfessor() && l.Professor == name {
			recs = append(recs, recommend.FromLab(l))
		}
	}
	if len(recs) == 0 {
		return false
	}
	s.ShowRecommendations("Labs led by "+name, recs)
	return true
}

// DetailIndex finds the dataset record a recommendation refers to by name,
// or render.NoDetail.
func (s *State) DetailIndex(rec recommend.Recommendation) int {
	if l, ok := s.Dataset.FindByName(rec.Name); ok {
		return l.Index
	}
	return render.NoDetail
}
