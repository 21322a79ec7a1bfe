package recommend

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	emailRe   = regexp.MustCompile(`(?i)[\w.-]+@[\w.-]+\.\w+`)
	urlRe     = regexp.MustCompile(`(?i)https?://\S+`)
	honorRe   = regexp.MustCompile(`(?i)^(prof\.?|dr\.?)\s+`)
	nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// schoolDomains maps school name fragments to mail domains, checked in order.
var schoolDomains = []struct {
	fragments []string
	domain    string
}{
	{[]string{"ut dallas"}, "utdallas.edu"},
	{[]string{"mit"}, "mit.edu"},
	{[]string{"stanford"}, "stanford.edu"},
	{[]string{"berkeley"}, "berkeley.edu"},
	{[]string{"harvard"}, "harvard.edu"},
	{[]string{"cmu", "carnegie mellon"}, "cmu.edu"},
}

const fallbackDomain = "college.edu"

// FindEmail returns the first email address in text.
func FindEmail(text string) string {
	return emailRe.FindString(text)
}

// InferEmail guesses first.last@domain for a professor. The domain comes
// from the lab URL when it has a host, else from the school name.
func InferEmail(professor, labURL, school string) string {
	local := emailLocalPart(professor)
	if local == "" {
		return ""
	}
	domain := domainFromURL(labURL)
	if domain == "" {
		domain = domainForSchool(school)
	}
	return local + "@" + domain
}

func emailLocalPart(name string) string {
	name = honorRe.ReplaceAllString(strings.TrimSpace(name), "")
	var parts []string
	for _, p := range nonWordRe.Split(name, -1) {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + parts[len(parts)-1]
}

func domainFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Host)
}

func domainForSchool(school string) string {
	s := strings.ToLower(school)
	for _, sd := range schoolDomains {
		for _, f := range sd.fragments {
			if strings.Contains(s, f) {
				return sd.domain
			}
		}
	}
	return fallbackDomain
}

// fillEmail sets ProfessorEmail from the description, or infers one.
func (r *Recommendation) fillEmail() {
	if r.ProfessorEmail != "" {
		return
	}
	if e := FindEmail(r.Description); e != "" {
		r.ProfessorEmail = e
		return
	}
	r.ProfessorEmail = InferEmail(r.Professor, r.URL, r.School)
}
