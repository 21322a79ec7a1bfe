package populate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
)

// DefaultDescription is stored for labs the listing gives no focus for.
const DefaultDescription = "Research laboratory"

var (
	sectionSplitRe = regexp.MustCompile(`###\s*\d+\.\s*|\n\d+\.\s*`)
	bulletRe       = regexp.MustCompile(`^-\s*\*\*([^*]+)\*\*:?\s*(.+)`)
	boldRe         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe       = regexp.MustCompile(`\*([^*]+)\*`)
	properNameRe   = regexp.MustCompile(`[A-Z][a-z]{2,}`)
)

var invalidProfessors = []string{
	"not specified", "faculty member", "unknown", "tbd", "to be determined",
	"research team", "lab team", "multiple faculty", "various faculty",
	"staff", "researchers", "n/a", "none", "contact lab", "see website",
	"not explicitly named", "not provided", "associated with", "center for",
	"department of", "school of", "institute of", "laboratory", "group",
}

var contactWords = []string{"contact", "email", "website", "page"}

type fieldRule struct {
	field    string
	keywords []string
}

// Bullet lines ("- **Professor**: ...") and plain "Field: value" lines are
// classified in this order; the first rule with a matching keyword wins.
var (
	bulletRules = []fieldRule{
		{"name", []string{"lab name", "laboratory"}},
		{"professor", []string{"professor", "faculty", "director", "pi", "investigator"}},
		{"department", []string{"department", "school"}},
		{"description", []string{"research focus", "focus", "research"}},
		{"url", []string{"website", "url"}},
		{"email", []string{"email", "contact"}},
	}
	colonRules = []fieldRule{
		{"name", []string{"lab name", "laboratory", "group"}},
		{"professor", []string{"professor", "faculty", "director", "pi", "investigator", "lead", "head"}},
		{"department", []string{"department", "school"}},
		{"description", []string{"research", "focus"}},
		{"url", []string{"website", "url"}},
		{"email", []string{"email", "contact"}},
	}
)

// Listing is the outcome of parsing one university's listing.
type Listing struct {
	Labs     []labs.Lab
	Rejected []string
}

// ParseListing extracts labs from a numbered listing such as
//
//	### 1. Vision Lab
//	- **Professor**: Dr. Ada Smith
//	- **Research Focus**: ...
//
// Entries without a plausible professor name are reported in Rejected.
func ParseListing(raw, university string) Listing {
	var out Listing
	sections := sectionSplitRe.Split(raw, -1)
	if len(sections) < 2 {
		return out
	}
	for _, section := range sections[1:] {
		if strings.TrimSpace(section) == "" {
			continue
		}
		info := parseSection(section)
		name := info["name"]
		if name == "" {
			continue
		}
		professor := strings.TrimSpace(info["professor"])
		if professor == "" || !ValidProfessor(professor) {
			out.Rejected = append(out.Rejected, name)
			continue
		}
		description := info["description"]
		if _, ok := info["description"]; !ok {
			description = DefaultDescription
		}
		out.Labs = append(out.Labs, labs.Lab{
			Name:           name,
			Professor:      professor,
			ProfessorEmail: info["email"],
			School:         university,
			Department:     info["department"],
			URL:            info["url"],
			Description:    description,
		})
	}
	return out
}

func parseSection(section string) map[string]string {
	info := make(map[string]string)
	lines := strings.Split(section, "\n")
	if first := strings.TrimSpace(lines[0]); first != "" {
		info["name"] = stripMarkdown(first)
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			field := strings.ToLower(strings.TrimSpace(m[1]))
			assign(info, bulletRules, field, stripMarkdown(strings.TrimSpace(m[2])))
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(key))
		field = strings.NewReplacer("-", "", "*", "").Replace(field)
		assign(info, colonRules, field, stripMarkdown(strings.TrimSpace(value)))
	}
	return info
}

func assign(info map[string]string, rules []fieldRule, field, value string) {
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(field, kw) {
				info[r.field] = value
				return
			}
		}
	}
}

func stripMarkdown(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

// ValidProfessor reports whether name looks like a real person rather than
// a placeholder such as "Unknown" or "Research Team".
func ValidProfessor(name string) bool {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	for _, invalid := range invalidProfessors {
		if lower == invalid || strings.HasPrefix(lower, invalid+" ") || strings.HasSuffix(lower, " "+invalid) {
			return false
		}
	}
	if utf8.RuneCountInString(name) <= 3 || !properNameRe.MatchString(name) {
		return false
	}
	for _, w := range contactWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	return true
}
