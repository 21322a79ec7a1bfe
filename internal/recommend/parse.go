package recommend

import (
	"regexp"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/llm"
)

const (
	defaultName  = "Recommended Lab"
	maxHeuristic = 3
)

var (
	sectionStartRe = regexp.MustCompile(`^\s*(?:\d+\. |#{2,3}\s)`)
	sectionTitleRe = regexp.MustCompile(`^\s*(?:\d+\.\s*|#{2,3}\s*)(.+)$`)
	professorRe    = regexp.MustCompile(`(?i)Professor[:\-]\s*([^\n]+)`)
	schoolRe       = regexp.MustCompile(`(?i)School[:\-]\s*([^\n]+)`)
)

// ParseResponse extracts recommendations from free-form model output. It
// tries a JSON object with a "recommendations" array first, then numbered
// or "##" sections. It returns nil when neither yields anything.
func ParseResponse(text string) []Recommendation {
	if recs := parseJSON(text); len(recs) > 0 {
		return recs
	}
	return parseSections(text)
}

func parseJSON(text string) []Recommendation {
	obj := llm.ParseJSONResponse(text)
	if obj == nil {
		return nil
	}
	arr, ok := obj["recommendations"].([]any)
	if !ok || len(arr) == 0 {
		return nil
	}

	var out []Recommendation
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r := normalizeObject(m, false)
		if r.Name == "" {
			r.Name = defaultName
		}
		r.fillEmail()
		out = append(out, r)
	}
	return out
}

// parseSections splits text at lines opening with "N. " or "## "/"### ".
// Text before the first such line is ignored.
func parseSections(text string) []Recommendation {
	var chunks []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			if c := strings.TrimSpace(strings.Join(cur, "\n")); c != "" {
				chunks = append(chunks, c)
			}
		}
		cur = nil
	}
	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if sectionStartRe.MatchString(line) {
			flush()
			inSection = true
		}
		if inSection {
			cur = append(cur, line)
		}
	}
	flush()

	var out []Recommendation
	for _, ch := range chunks {
		first, _, _ := strings.Cut(ch, "\n")
		title := defaultName
		if m := sectionTitleRe.FindStringSubmatch(first); m != nil {
			if t := cleanInline(m[1]); t != "" {
				title = t
			}
		}
		r := Recommendation{
			Name:        title,
			Professor:   findField(professorRe, ch),
			School:      findField(schoolRe, ch),
			URL:         strings.TrimRight(urlRe.FindString(ch), ").,"),
			Description: ch,
		}
		r.fillEmail()
		out = append(out, r)
		if len(out) >= maxHeuristic {
			break
		}
	}
	return out
}

func findField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return cleanInline(m[1])
}

func cleanInline(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_"))
}
