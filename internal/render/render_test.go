package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/slides"
)

const hostile = `<script>alert("x")</script> & 'quoted' <img src=x onerror=alert(1)>`

func TestEscapeFiveCharacters(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&#34;&#39;", Escape(`&<>"'`))
}

func TestMarkdownEscapesBeforeMarkup(t *testing.T) {
	out := string(Markdown("# " + hostile + "\n**" + hostile + "**"))

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&#34;x&#34;")
	assert.Contains(t, out, "&#39;quoted&#39;")
	assert.True(t, strings.HasPrefix(out, "<h2>"), "structural markup survives: %s", out)
	assert.Contains(t, out, "<strong>")
}

func TestMarkdownStructure(t *testing.T) {
	in := "# Title\nline one\nline two\n\nPara **bold** and *it*\n\n### Small\n#### Four"
	want := "<h2>Title</h2><p>line one<br>line two</p><p>Para <strong>bold</strong> and <em>it</em></p>" +
		"<h4>Small</h4><p>#### Four</p>"
	assert.Equal(t, want, string(Markdown(in)))
}

func TestMarkdownHeadingLevels(t *testing.T) {
	assert.Equal(t, "<h2>a</h2>", string(Markdown("# a")))
	assert.Equal(t, "<h3>b</h3>", string(Markdown("## b")))
	assert.Equal(t, "<h4>c</h4>", string(Markdown("### c")))
}

func TestMarkdownLinks(t *testing.T) {
	out := string(Markdown("See [the lab](https://x.edu/a*b*?q=1&r=2) or [mail](mailto:a@x.edu)."))
	assert.Contains(t, out, `<a href="https://x.edu/a*b*?q=1&amp;r=2" target="_blank" rel="noopener noreferrer">the lab</a>`)
	assert.Contains(t, out, `<a href="mailto:a@x.edu"`)

	out = string(Markdown("[click](javascript:alert(1))"))
	assert.NotContains(t, out, "href")
	assert.Contains(t, out, "click")

	out = string(Markdown(`[x](https://a.com/"onmouseover=alert)`))
	assert.NotContains(t, out, `"onmouseover`)
}

func TestMarkdownEmpty(t *testing.T) {
	assert.Empty(t, string(Markdown("")))
	assert.Empty(t, string(Markdown("  \n\n ")))
}

func TestTruncate(t *testing.T) {
	exact := strings.Repeat("a", LabSummaryLen)
	assert.Equal(t, exact, Truncate(exact, LabSummaryLen))

	long := strings.Repeat("b", LabSummaryLen+1)
	assert.Equal(t, strings.Repeat("b", LabSummaryLen)+"...", Truncate(long, LabSummaryLen))

	unicode := strings.Repeat("é", 130)
	got := Truncate(unicode, RecommendationSummaryLen)
	assert.Equal(t, RecommendationSummaryLen+3, len([]rune(got)))
}

func TestScore(t *testing.T) {
	eight, half := 8.0, 7.5
	assert.Equal(t, "8/10", Score(&eight))
	assert.Equal(t, "7.5/10", Score(&half))
	assert.Empty(t, Score(nil))
}

func TestLabCard(t *testing.T) {
	lab := labs.Lab{
		Name:        "Vision " + hostile,
		Professor:   "A. Smith",
		School:      "Eng",
		Description: strings.Repeat("x", 200),
		Index:       3,
	}
	out := string(LabCard(lab, lab.Index))

	assert.Contains(t, out, `data-lab-index="3"`)
	assert.Contains(t, out, "A. Smith")
	assert.Contains(t, out, strings.Repeat("x", LabSummaryLen)+"...")
	assert.NotContains(t, out, strings.Repeat("x", LabSummaryLen+1))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
}

func TestLabCardMissingFields(t *testing.T) {
	out := string(LabCard(labs.Lab{}, 0))
	assert.Contains(t, out, "lab-card")
	assert.NotContains(t, out, "lab-professor")
}

func TestLabDetailFullDescription(t *testing.T) {
	desc := strings.Repeat("y", 400)
	out := string(LabDetail(labs.Lab{Name: "L", Professor: "P", URL: "javascript:alert(1)", Description: desc}))
	assert.Contains(t, out, desc)
	assert.NotContains(t, out, `href="javascript:`)
	assert.Contains(t, out, `data-action="draft-email"`)
}

func TestRecommendationCardTolerant(t *testing.T) {
	rec := recommend.Normalize(map[string]any{"lab_name": "X", "pi": "Y", "score": float64(8)})
	out := string(RecommendationCard(rec, 0, NoDetail))

	assert.Contains(t, out, "<h3>X</h3>")
	assert.Contains(t, out, "Y")
	assert.Contains(t, out, `<span class="score-badge">8/10</span>`)
	assert.NotContains(t, out, "rec-school")
	assert.NotContains(t, out, "data-lab-index")
}

func TestRecommendationCardBareString(t *testing.T) {
	out := string(RecommendationCard(recommend.Normalize("Try the **NLP Lab**"), 1, 5))
	assert.Contains(t, out, "Recommendation 2")
	assert.Contains(t, out, "<strong>NLP Lab</strong>")
	assert.Contains(t, out, `data-lab-index="5"`)
	assert.NotContains(t, out, "score-badge")
}

func TestRecommendationList(t *testing.T) {
	recs := []recommend.Recommendation{{Name: "A"}, {Name: "B"}}
	out := string(RecommendationList(recs, func(r recommend.Recommendation) int {
		if r.Name == "B" {
			return 7
		}
		return NoDetail
	}))
	assert.Equal(t, 2, strings.Count(out, `class="recommendation-card"`))
	assert.Equal(t, 1, strings.Count(out, "data-lab-index"))

	assert.Contains(t, string(RecommendationList(nil, nil)), "No matching labs")
}

func TestResultsDispatch(t *testing.T) {
	all := []labs.Lab{{Name: "A", Index: 0}, {Name: "B", Index: 1}}

	labsOut := string(Results(search.Result{Kind: search.LabResults, Labs: all}, all[:1], true))
	assert.Contains(t, labsOut, `data-kind="labs"`)
	assert.Contains(t, labsOut, "Showing 1 of 2 labs")
	assert.Contains(t, labsOut, `id="load-more"`)

	done := string(Results(search.Result{Kind: search.LabResults, Labs: all}, all, false))
	assert.NotContains(t, done, "load-more")

	profs := []search.ProfessorMatch{{Name: "Jane Doe", School: "CS", Labs: all}}
	profOut := string(Results(search.Result{Kind: search.ProfessorResults, Professors: profs}, nil, true))
	assert.Contains(t, profOut, `data-kind="professors"`)
	assert.Contains(t, profOut, "Jane Doe")
	assert.Contains(t, profOut, "2 labs")
	assert.NotContains(t, profOut, "load-more")
	assert.NotContains(t, profOut, "lab-card")

	empty := string(Results(search.Result{Kind: search.LabResults}, nil, false))
	assert.Contains(t, empty, "No labs match")
}

func TestSlideCardControls(t *testing.T) {
	var v slides.Viewer[recommend.Recommendation]
	assert.Empty(t, string(SlideCard("AI Recommendations", &v, NoDetail)))

	v.Load([]recommend.Recommendation{{Name: "Only", Description: strings.Repeat("z", 300)}})
	single := string(SlideCard("", &v, NoDetail))
	assert.NotContains(t, single, "slide-controls")
	assert.Contains(t, single, strings.Repeat("z", 300), "slides show the full description")

	v.Load([]recommend.Recommendation{{Name: "One"}, {Name: "Two"}, {Name: "Three"}})
	first := string(SlideCard("AI Recommendations", &v, 2))
	assert.Contains(t, first, `data-action="slide-prev" disabled`)
	assert.Contains(t, first, `data-action="slide-next">`)
	assert.Contains(t, first, "1 of 3")
	assert.Contains(t, first, `data-lab-index="2"`)

	v.Next()
	v.Next()
	last := string(SlideCard("", &v, NoDetail))
	assert.Contains(t, last, `data-action="slide-prev">`)
	assert.Contains(t, last, `data-action="slide-next" disabled`)
	assert.Contains(t, last, "Three")
}
