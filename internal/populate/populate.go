// Package populate asks the configured LLM for research labs at a list of
// universities and stores the plausible ones in the lab directory.
package populate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
)

const searchPrompt = `List research laboratories, research groups and faculty research at %s.

For each lab you MUST include the principal investigator's name. Only list labs where you know the lead professor or director; skip any lab without one.

Number each entry and use these field labels:

### 1. <Lab name>
- **Lab Name**: exact name of the research lab or group
- **Professor**: full name and title of the principal investigator
- **Department**: academic department or school
- **Research Focus**: 2-3 sentences on research areas, current projects and methods
- **Website**: lab website URL if known
- **Email**: contact email if known

Focus on active labs in computer science, engineering, biology, chemistry, physics, materials science, mathematics and other STEM fields.
Professor names must be real people, not titles such as "Faculty Member" or "Research Team".
Target: %d labs.`

// ErrUnavailable is returned when no LLM provider is configured.
var ErrUnavailable = errors.New("no LLM provider configured")

// Result holds the results of a populate run.
type Result struct {
	Universities int
	TotalFound   int
	NewLabs      int
	Duplicates   int
	Rejected     int
	Failed       []string
	Schools      map[string]int
}

// Populator searches universities for labs one at a time.
type Populator struct {
	db           *database.DB
	provider     llm.Provider
	universities []string
	limit        int
	delay        time.Duration
	maxTokens    int
}

// NewPopulator creates a populator from the populate and llm config sections.
func NewPopulator(cfg *config.Config, db *database.DB, provider llm.Provider) *Populator {
	limit := cfg.Populate.LabsPerUniversity
	if limit <= 0 {
		limit = 15
	}
	maxTokens := cfg.LLM.MaxTokens
	if maxTokens < 4000 {
		maxTokens = 4000
	}
	return &Populator{
		db:           db,
		provider:     provider,
		universities: cfg.Populate.Universities,
		limit:        limit,
		delay:        cfg.Populate.Delay,
		maxTokens:    maxTokens,
	}
}

// Populate searches every configured university and stores new labs.
// A failing university is logged and skipped.
func (p *Populator) Populate(ctx context.Context) (*Result, error) {
	return p.PopulateUniversities(ctx, p.universities)
}

// PopulateUniversities is Populate over an explicit list of universities.
func (p *Populator) PopulateUniversities(ctx context.Context, universities []string) (*Result, error) {
	if p.provider == nil {
		return nil, ErrUnavailable
	}
	r := &Result{Schools: make(map[string]int)}

	for i, university := range universities {
		if i > 0 && p.delay > 0 {
			select {
			case <-ctx.Done():
				return r, ctx.Err()
			case <-time.After(p.delay):
			}
		}

		log.Printf("Fetching labs for %s...", university)
		listing, err := p.SearchUniversity(ctx, university)
		if err != nil {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}
			log.Printf("Error fetching labs for %s: %v", university, err)
			r.Failed = append(r.Failed, university)
			continue
		}
		r.Universities++
		r.TotalFound += len(listing.Labs)
		r.Rejected += len(listing.Rejected)
		for _, name := range listing.Rejected {
			log.Printf("  Rejected %s: no usable professor name", name)
		}

		for _, lab := range listing.Labs {
			id, err := p.db.InsertLab(labs.ToRow(lab))
			if err != nil {
				return r, err
			}
			if id > 0 {
				r.NewLabs++
				r.Schools[university]++
			} else {
				r.Duplicates++
			}
		}
		log.Printf("Found %d labs for %s", len(listing.Labs), university)
	}

	log.Printf("Populate complete: %d found, %d new, %d duplicates, %d rejected",
		r.TotalFound, r.NewLabs, r.Duplicates, r.Rejected)
	return r, nil
}

// SearchUniversity asks the provider for one university's labs.
func (p *Populator) SearchUniversity(ctx context.Context, university string) (Listing, error) {
	prompt := fmt.Sprintf(searchPrompt, university, p.limit)
	text, err := p.provider.Generate(ctx, prompt, p.maxTokens)
	if err != nil {
		return Listing{}, fmt.Errorf("searching %s: %w", university, err)
	}
	listing := ParseListing(text, university)
	if len(listing.Labs) > p.limit {
		listing.Labs = listing.Labs[:p.limit]
	}
	return listing, nil
}
