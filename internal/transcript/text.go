package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText returns the plain text of every page of the PDF at path.
func ExtractText(path string) (text string, err error) {
	// The PDF reader panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(pageText)
	}
	return b.String(), nil
}

const (
	maxHints   = 20
	maxHintLen = 80
)

var courseToken = regexp.MustCompile(`(?i)([A-Z]{2,4})\s?-?\s?(\d{3,4})|([A-Za-z][\w\s&/-]{2,40})\s?(?:\(?\d+\)?\s*credits?)?`)

// CourseworkHints pulls up to 20 distinct course-like tokens (such as
// "CS 1337" or "Data Structures 3 credits") out of transcript text.
func CourseworkHints(text string) []string {
	if text == "" {
		return nil
	}
	seen := make(map[string]bool)
	var hints []string
	for _, m := range courseToken.FindAllString(text, -1) {
		token := strings.TrimSpace(m)
		if len(token) < 3 {
			continue
		}
		if len(token) > maxHintLen {
			token = token[:maxHintLen]
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		hints = append(hints, token)
		if len(hints) >= maxHints {
			break
		}
	}
	return hints
}
