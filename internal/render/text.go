// Package render turns lab and recommendation records into HTML fragments.
// Rendering never fails: missing fields render as empty.
package render

import (
	"html"
	"html/template"
	"regexp"
	"strconv"
	"strings"
)

// Character budgets for compact card descriptions.
const (
	LabSummaryLen            = 150
	RecommendationSummaryLen = 120

	ellipsis = "..."
)

// Escape replaces & < > " and ' with HTML entities.
func Escape(s string) string {
	return html.EscapeString(s)
}

// Truncate shortens s to n runes and appends "..." when anything was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimRight(string(r[:n]), " ") + ellipsis
}

var (
	headingRe = regexp.MustCompile(`^(#{1,3})\s+(.*)$`)
	linkRe    = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\s]+)\)`)
	boldRe    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	blankRe   = regexp.MustCompile(`\n[ \t]*\n`)
)

// Markdown renders a small markdown subset: "#" to "###" headings, bold,
// italic, links, blank-line paragraphs and single-newline breaks. The input
// is escaped before any markup is added, and links keep only http, https
// and mailto targets.
func Markdown(s string) template.HTML {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
	escaped := Escape(strings.TrimSpace(s))
	if escaped == "" {
		return ""
	}

	var out strings.Builder
	for _, block := range blankRe.Split(escaped, -1) {
		var para []string
		flush := func() {
			if len(para) > 0 {
				out.WriteString("<p>" + strings.Join(para, "<br>") + "</p>")
				para = nil
			}
		}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if m := headingRe.FindStringSubmatch(line); m != nil {
				flush()
				tag := "h" + strconv.Itoa(len(m[1])+1)
				out.WriteString("<" + tag + ">" + inline(m[2]) + "</" + tag + ">")
				continue
			}
			para = append(para, inline(line))
		}
		flush()
	}
	return template.HTML(out.String())
}

// inline applies links, bold and italic to already escaped text. Link
// targets are left out of the emphasis pass.
func inline(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range linkRe.FindAllStringSubmatchIndex(s, -1) {
		b.WriteString(emphasis(s[last:m[0]]))
		text, target := s[m[2]:m[3]], s[m[4]:m[5]]
		if safeLink(target) {
			b.WriteString(`<a href="` + target + `" target="_blank" rel="noopener noreferrer">` + emphasis(text) + `</a>`)
		} else {
			b.WriteString(emphasis(text))
		}
		last = m[1]
	}
	b.WriteString(emphasis(s[last:]))
	return b.String()
}

func emphasis(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	return italicRe.ReplaceAllString(s, "<em>$1</em>")
}

func safeLink(target string) bool {
	t := strings.ToLower(html.UnescapeString(target))
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") || strings.HasPrefix(t, "mailto:")
}

// Score formats a relevance score as "8/10". A nil score renders nothing.
func Score(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + "/10"
}
