package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/fetch"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
	"github.com/TobiSchelling/ResearchConnect/internal/populate"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full refresh run.
type Result struct {
	Steps   []StepResult
	Dataset *labs.Dataset
}

// Failed reports whether any step returned an error.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Options selects which refresh steps run.
type Options struct {
	SkipPopulate bool
	SkipEnrich   bool
	// ExportPath overrides the dataset file written by the export step.
	ExportPath string
}

// Pipeline orchestrates the 3-step directory refresh.
type Pipeline struct {
	cfg      *config.Config
	db       *database.DB
	provider llm.Provider
}

// New creates a new pipeline. provider may be nil, in which case the
// populate step is skipped.
func New(cfg *config.Config, db *database.DB, provider llm.Provider) *Pipeline {
	return &Pipeline{cfg: cfg, db: db, provider: provider}
}

// Run executes populate, enrich and export in order and reloads the
// directory from the store.
func (p *Pipeline) Run(ctx context.Context, opts Options) *Result {
	r := &Result{}

	// Step 1: Populate
	step := p.runPopulate(ctx, opts.SkipPopulate)
	r.Steps = append(r.Steps, step)
	if ctx.Err() != nil {
		return r
	}

	// Step 2: Enrich
	step = p.runEnrich(ctx, opts.SkipEnrich)
	r.Steps = append(r.Steps, step)
	if ctx.Err() != nil {
		return r
	}

	// Step 3: Export
	ds, step := p.runExport(ctx, opts.ExportPath)
	r.Steps = append(r.Steps, step)
	r.Dataset = ds

	return r
}

// DryRun shows what would be done without executing.
func (p *Pipeline) DryRun() *Result {
	r := &Result{}

	if p.provider == nil {
		r.Steps = append(r.Steps, StepResult{Name: "Populate", Summary: "[dry-run] No LLM provider configured, would skip"})
	} else {
		r.Steps = append(r.Steps, StepResult{
			Name: "Populate",
			Summary: fmt.Sprintf("[dry-run] Would search %d universities with %s",
				len(p.cfg.Populate.Universities), p.provider.Name()),
		})
	}

	pending, _ := p.db.GetLabsNeedingEnrichment(p.cfg.Enrich.MinDescription)
	r.Steps = append(r.Steps, StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("[dry-run] %d labs need enrichment", len(pending)),
	})

	count, _ := p.db.CountLabs()
	r.Steps = append(r.Steps, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("[dry-run] Would export %d labs to %s", count, p.cfg.Dataset.File),
	})

	return r
}

func (p *Pipeline) runPopulate(ctx context.Context, skip bool) StepResult {
	log.Println("Step 1/3: Populating labs...")
	if skip {
		return StepResult{Name: "Populate", Summary: "Skipped"}
	}
	if p.provider == nil {
		return StepResult{Name: "Populate", Summary: "Skipped, no LLM provider configured"}
	}
	result, err := populate.NewPopulator(p.cfg, p.db, p.provider).Populate(ctx)
	if err != nil {
		return StepResult{Name: "Populate", Err: err}
	}
	return StepResult{
		Name: "Populate",
		Summary: fmt.Sprintf("Found %d new labs across %d universities (%d total, %d duplicates, %d rejected)",
			result.NewLabs, result.Universities, result.TotalFound, result.Duplicates, result.Rejected),
	}
}

func (p *Pipeline) runEnrich(ctx context.Context, skip bool) StepResult {
	log.Println("Step 2/3: Enriching lab pages...")
	if skip {
		return StepResult{Name: "Enrich", Summary: "Skipped"}
	}
	result, err := fetch.NewEnricher(p.db, p.cfg.Enrich).EnrichAll(ctx)
	if err != nil {
		return StepResult{Name: "Enrich", Err: err}
	}
	return StepResult{
		Name:    "Enrich",
		Summary: fmt.Sprintf("Enriched %d labs, %d unchanged, %d failed", result.Enriched, result.Unchanged, result.Failed),
	}
}

func (p *Pipeline) runExport(ctx context.Context, path string) (*labs.Dataset, StepResult) {
	log.Println("Step 3/3: Exporting directory...")
	ds, err := labs.Load(ctx, labs.DBSource{DB: p.db})
	if err != nil {
		return nil, StepResult{Name: "Export", Err: err}
	}
	if path == "" {
		path = p.cfg.Dataset.File
	}
	if err := labs.WriteFile(path, ds.All()); err != nil {
		return ds, StepResult{Name: "Export", Err: err}
	}
	return ds, StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d labs to %s", ds.Len(), path),
	}
}
