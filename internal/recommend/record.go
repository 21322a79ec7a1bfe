// Package recommend turns student profiles into lab recommendations and
// normalizes the loosely shaped records AI backends return.
package recommend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// Recommendation is the canonical shape every recommendation is converted
// to on receipt. All fields may be empty.
type Recommendation struct {
	Name           string   `json:"name"`
	Professor      string   `json:"professor"`
	ProfessorEmail string   `json:"professor_email"`
	School         string   `json:"school"`
	URL            string   `json:"url"`
	Description    string   `json:"description"`
	Score          *float64 `json:"relevance_score,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Coursework     []string `json:"coursework,omitempty"`
}

// HasScore reports whether the record carries a relevance score.
func (r Recommendation) HasScore() bool { return r.Score != nil }

// Alias lists, highest priority first.
var (
	nameKeys        = []string{"name", "lab_name", "title"}
	professorKeys   = []string{"professor", "pi", "advisor"}
	schoolKeys      = []string{"school", "department"}
	urlKeys         = []string{"url", "link"}
	emailKeys       = []string{"professor_email", "email", "prof_email"}
	scoreKeys       = []string{"relevance_score", "score"}
	descriptionKeys = []string{"description", "text"}
)

// Normalize converts one decoded JSON value into a Recommendation. A bare
// string becomes the description. An object without a description or text
// field gets its own JSON encoding as the description. Nothing here fails.
func Normalize(v any) Recommendation {
	switch rec := v.(type) {
	case nil:
		return Recommendation{}
	case string:
		return Recommendation{Description: rec}
	case map[string]any:
		return normalizeObject(rec, true)
	case Recommendation:
		return rec
	default:
		return Recommendation{Description: scalarString(rec)}
	}
}

// NormalizeAll accepts either a single record or an array of records.
func NormalizeAll(v any) []Recommendation {
	switch list := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]Recommendation, 0, len(list))
		for _, item := range list {
			out = append(out, Normalize(item))
		}
		return out
	default:
		return []Recommendation{Normalize(v)}
	}
}

// FromJSON decodes a record, an array of records, or a string.
func FromJSON(data []byte) ([]Recommendation, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
	}
	return NormalizeAll(v), nil
}

// FromLab wraps a dataset record so it can be shown in the slide viewer.
func FromLab(l labs.Lab) Recommendation {
	return Recommendation{
		Name:           l.Name,
		Professor:      l.Professor,
		ProfessorEmail: l.ProfessorEmail,
		School:         l.School,
		URL:            l.URL,
		Description:    l.Description,
	}
}

func normalizeObject(m map[string]any, describeRecord bool) Recommendation {
	r := Recommendation{
		Name:           firstString(m, nameKeys),
		Professor:      firstString(m, professorKeys),
		School:         firstString(m, schoolKeys),
		URL:            firstString(m, urlKeys),
		ProfessorEmail: firstString(m, emailKeys),
		Description:    firstString(m, descriptionKeys),
		Score:          firstNumber(m, scoreKeys),
		Skills:         stringList(m["skills"]),
		Coursework:     stringList(m["coursework"]),
	}
	if r.Description == "" && describeRecord {
		if data, err := json.Marshal(m); err == nil {
			r.Description = string(data)
		}
	}
	return r
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(scalarString(m[k])); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(m map[string]any, keys []string) *float64 {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return &f
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	case int:
		return strconv.Itoa(s)
	}
	return ""
}

func stringList(v any) []string {
	var raw []any
	switch list := v.(type) {
	case []any:
		raw = list
	case []string:
		for _, s := range list {
			raw = append(raw, s)
		}
	case string:
		raw = []any{list}
	}
	var out []string
	for _, item := range raw {
		if s := strings.TrimSpace(scalarString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func score(n int) *float64 {
	f := float64(n)
	return &f
}
