package render

import (
	"bytes"
	"embed"
	"html/template"
	"log"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/slides"
)

//go:embed templates/*.html
var templateFS embed.FS

// NoDetail marks a recommendation that could not be matched to a dataset
// record.
const NoDetail = -1

var cards = template.Must(template.New("cards").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html"))

// Funcs returns the template helpers shared by cards and pages.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": Markdown,
		"truncate": Truncate,
		"score":    Score,
		"inc":      func(i int) int { return i + 1 },
	}
}

type labCard struct {
	Lab          labs.Lab
	DisplayIndex int
	SummaryLen   int
}

type professorCard struct {
	search.ProfessorMatch
}

type recommendationCard struct {
	Rec         recommend.Recommendation
	Index       int
	DetailIndex int
	SummaryLen  int
}

type resultsView struct {
	Kind        string
	Labs        []labCard
	Professors  []professorCard
	Shown       int
	Total       int
	CanLoadMore bool
}

// Slide is the state of the slide viewer at render time.
type Slide struct {
	Title        string
	Rec          recommend.Recommendation
	Index        int
	Total        int
	HasPrev      bool
	HasNext      bool
	ShowControls bool
	DetailIndex  int
}

func execute(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := cards.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Rendering %s: %v", name, err)
		return ""
	}
	return template.HTML(buf.String())
}

// LabCard renders a compact grid card. displayIndex is written to the card
// so a details request can find the full record again.
func LabCard(lab labs.Lab, displayIndex int) template.HTML {
	return execute("lab-card", labCard{Lab: lab, DisplayIndex: displayIndex, SummaryLen: LabSummaryLen})
}

// LabDetail renders the full, untruncated record for the details modal.
func LabDetail(lab labs.Lab) template.HTML {
	return execute("lab-detail", lab)
}

// ProfessorCard renders one professor grouping.
func ProfessorCard(m search.ProfessorMatch) template.HTML {
	return execute("professor-card", professorCard{m})
}

// RecommendationCard renders a compact recommendation with a summary cut
// to 120 characters. detailIndex is the matching dataset record or NoDetail.
func RecommendationCard(rec recommend.Recommendation, index, detailIndex int) template.HTML {
	return execute("recommendation-card", recommendationCard{
		Rec:         rec,
		Index:       index,
		DetailIndex: detailIndex,
		SummaryLen:  RecommendationSummaryLen,
	})
}

// RecommendationList renders compact cards for a whole list. detail maps a
// recommendation to its dataset index.
func RecommendationList(recs []recommend.Recommendation, detail func(recommend.Recommendation) int) template.HTML {
	items := make([]recommendationCard, len(recs))
	for i, rec := range recs {
		idx := NoDetail
		if detail != nil {
			idx = detail(rec)
		}
		items[i] = recommendationCard{Rec: rec, Index: i, DetailIndex: idx, SummaryLen: RecommendationSummaryLen}
	}
	return execute("recommendation-list", items)
}

// Results renders a search result: the professor listing, or the visible
// window of the lab grid with its load-more control.
func Results(res search.Result, visible []labs.Lab, canLoadMore bool) template.HTML {
	view := resultsView{Kind: res.Kind.String()}
	switch res.Kind {
	case search.ProfessorResults:
		for _, m := range res.Professors {
			view.Professors = append(view.Professors, professorCard{m})
		}
		view.Total = len(res.Professors)
	default:
		for _, l := range visible {
			view.Labs = append(view.Labs, labCard{Lab: l, DisplayIndex: l.Index, SummaryLen: LabSummaryLen})
		}
		view.Shown = len(visible)
		view.Total = len(res.Labs)
		view.CanLoadMore = canLoadMore
	}
	return execute("results", view)
}

// SlideCard renders the current slide of v with full content. An empty
// viewer renders nothing.
func SlideCard(title string, v *slides.Viewer[recommend.Recommendation], detailIndex int) template.HTML {
	rec, ok := v.Current()
	if !ok {
		return ""
	}
	return execute("slide", Slide{
		Title:        title,
		Rec:          rec,
		Index:        v.Index(),
		Total:        v.Len(),
		HasPrev:      v.HasPrev(),
		HasNext:      v.HasNext(),
		ShowControls: v.ShowControls(),
		DetailIndex:  detailIndex,
	})
}
