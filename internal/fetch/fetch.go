// Package fetch enriches stored labs with text and contact details taken
// from their websites.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
)

const (
	maxBodyBytes      = 4 << 20
	maxDescriptionLen = 1000
	minTextLen        = 100
)

// Result holds the results of an enrichment run.
type Result struct {
	Enriched  int
	Unchanged int
	Failed    int
}

// Page is what could be extracted from a lab website.
type Page struct {
	Text  string
	Email string
}

// Enricher fetches lab websites, politely rate limited.
type Enricher struct {
	db             *database.DB
	client         *http.Client
	limiter        *rate.Limiter
	userAgent      string
	minDescription int
}

// NewEnricher creates a new enricher from the enrich config section.
func NewEnricher(db *database.DB, cfg config.Enrich) *Enricher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "ResearchConnect/1.0"
	}
	return &Enricher{
		db: db,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		limiter:        rate.NewLimiter(limit, 1),
		userAgent:      userAgent,
		minDescription: cfg.MinDescription,
	}
}

// EnrichAll visits every lab that has a website but lacks a contact email or
// a useful description. After an HTTP error the rest of that domain is skipped.
func (e *Enricher) EnrichAll(ctx context.Context) (*Result, error) {
	pending, err := e.db.GetLabsNeedingEnrichment(e.minDescription)
	if err != nil {
		return nil, fmt.Errorf("getting labs needing enrichment: %w", err)
	}
	if len(pending) == 0 {
		log.Println("No labs need enrichment")
		return &Result{}, nil
	}

	result := &Result{}
	failedDomains := make(map[string]struct{})

	for _, lab := range pending {
		domain := ""
		if u, err := url.Parse(lab.URL); err == nil {
			domain = strings.ToLower(u.Host)
		}

		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			e.markAttempted(lab.ID)
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}

		page, err := e.FetchPage(ctx, lab.URL)
		if err != nil {
			result.Failed++
			e.markAttempted(lab.ID)
			if _, ok := err.(*httpError); ok && domain != "" {
				failedDomains[domain] = struct{}{}
				log.Printf("HTTP error for %s, skipping remaining labs on %s", lab.URL, domain)
			} else {
				log.Printf("Could not fetch %s: %v", lab.URL, err)
			}
			continue
		}

		description, email := e.changes(lab, page)
		if description == nil && email == nil {
			result.Unchanged++
			e.markAttempted(lab.ID)
			continue
		}
		if err := e.db.UpdateLabEnrichment(lab.ID, description, email); err != nil {
			return result, fmt.Errorf("updating lab %q: %w", lab.Name, err)
		}
		result.Enriched++
		log.Printf("Enriched: %s", lab.Name)
	}

	log.Printf("Enrichment complete: %d enriched, %d unchanged, %d failed",
		result.Enriched, result.Unchanged, result.Failed)
	return result, nil
}

// changes picks the fields worth writing back. Existing emails and
// descriptions of adequate length are never overwritten.
func (e *Enricher) changes(lab database.Lab, page *Page) (description, email *string) {
	if lab.ProfessorEmail == "" && page.Email != "" {
		email = &page.Email
	}
	if utf8.RuneCountInString(lab.Description) < e.minDescription &&
		utf8.RuneCountInString(page.Text) > utf8.RuneCountInString(lab.Description) {
		text := clip(page.Text, maxDescriptionLen)
		description = &text
	}
	return description, email
}

func (e *Enricher) markAttempted(id int64) {
	if err := e.db.UpdateLabEnrichment(id, nil, nil); err != nil {
		log.Printf("Error marking lab %d attempted: %v", id, err)
	}
}

// FetchPage downloads a lab website and extracts its readable text and the
// first contact address found on it.
func (e *Enricher) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	page := &Page{Email: FindContactEmail(body)}

	parsedURL, _ := url.Parse(pageURL)
	if article, err := readability.FromReader(bytes.NewReader(body), parsedURL); err == nil {
		text := collapseSpace(article.TextContent)
		if len(text) > minTextLen {
			page.Text = text
		}
	}
	return page, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "..."
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
