package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
	"github.com/TobiSchelling/ResearchConnect/internal/outreach"
	"github.com/TobiSchelling/ResearchConnect/internal/paginate"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/render"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
)

// --- labs / schools commands ---

var (
	labsSearch    string
	labsSchool    string
	labsProfessor string
	labsPage      int
)

var labsCmd = &cobra.Command{
	Use:   "labs",
	Short: "Search the lab directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd.Context())
		if err != nil {
			return err
		}

		res := search.Evaluate(ds.All(), search.FilterState{
			Term:      labsSearch,
			School:    labsSchool,
			Professor: labsProfessor,
		})

		if res.Kind == search.ProfessorResults {
			fmt.Printf("%d professor(s) match %q:\n\n", len(res.Professors), labsSearch)
			for _, m := range res.Professors {
				fmt.Printf("  %s (%s)\n", m.Name, m.School)
				for _, l := range m.Labs {
					fmt.Printf("    - [%d] %s\n", l.Index, l.Name)
				}
			}
			return nil
		}

		visible := paginate.VisibleSlice(res.Labs, labsPage, paginate.PageSize)
		if len(visible) == 0 {
			fmt.Println("No labs match your search.")
			return nil
		}
		fmt.Printf("Showing %d of %d labs\n\n", len(visible), len(res.Labs))
		for _, l := range visible {
			fmt.Printf("  [%d] %s\n", l.Index, l.Name)
			if l.HasProfessor() {
				fmt.Printf("        %s, %s\n", l.Professor, l.School)
			}
			if l.Description != "" {
				fmt.Printf("        %s\n", render.Truncate(l.Description, render.LabSummaryLen))
			}
		}
		if paginate.CanLoadMore(res.Labs, labsPage, paginate.PageSize) {
			fmt.Printf("\nMore results: rerun with --page %d\n", labsPage+1)
		}
		return nil
	},
}

func init() {
	labsCmd.Flags().StringVarP(&labsSearch, "search", "s", "", "Search term")
	labsCmd.Flags().StringVar(&labsSchool, "school", "", "School filter")
	labsCmd.Flags().StringVar(&labsProfessor, "professor", "", "Professor filter")
	labsCmd.Flags().IntVar(&labsPage, "page", 1, "Number of pages to show")
}

var schoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "List the schools in the lab directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := openDataset(cmd.Context())
		if err != nil {
			return err
		}
		for _, s := range ds.Schools() {
			fmt.Println(s)
		}
		return nil
	},
}

func openDataset(ctx context.Context) (*labs.Dataset, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return loadDataset(ctx, db)
}

// --- import / export commands ---

var importAppend bool

var importCmd = &cobra.Command{
	Use:   "import [file.json]",
	Short: "Load a JSON lab file into the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := labs.FileSource{Path: args[0]}.Load(cmd.Context())
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if !importAppend {
			rows := make([]database.Lab, len(records))
			for i, l := range records {
				rows[i] = labs.ToRow(l)
			}
			n, err := db.ReplaceLabs(rows)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d labs (%d duplicates dropped)\n", n, len(records)-n)
			return nil
		}

		added := 0
		for _, l := range records {
			id, err := db.InsertLab(labs.ToRow(l))
			if err != nil {
				return err
			}
			if id > 0 {
				added++
			}
		}
		fmt.Printf("Added %d labs (%d already present)\n", added, len(records)-added)
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&importAppend, "append", false, "Keep existing labs and add new ones")
}

var exportCmd = &cobra.Command{
	Use:   "export [file.json]",
	Short: "Write the database directory to a JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Dataset.File
		if len(args) == 1 {
			path = args[0]
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ds, err := labs.Load(cmd.Context(), labs.DBSource{DB: db})
		if err != nil {
			return err
		}
		if err := labs.WriteFile(path, ds.All()); err != nil {
			return err
		}
		fmt.Printf("Exported %d labs to %s\n", ds.Len(), path)
		return nil
	},
}

// --- draft-email / drafts commands ---

var (
	draftProfessor string
	draftLab       string
	draftProfile   string
)

var draftEmailCmd = &cobra.Command{
	Use:   "draft-email",
	Short: "Draft an outreach email to a lab's professor",
	RunE: func(cmd *cobra.Command, args []string) error {
		if draftProfessor == "" || draftLab == "" {
			return fmt.Errorf("--professor and --lab are required")
		}

		var student recommend.Profile
		if draftProfile != "" {
			data, err := os.ReadFile(draftProfile)
			if err != nil {
				return fmt.Errorf("reading profile: %w", err)
			}
			if student, err = recommend.ParseProfile(data); err != nil {
				return err
			}
		}

		provider := llm.CreateProvider(cfg.LLM)
		if provider == nil {
			return fmt.Errorf("drafting needs an LLM provider; check the llm section of your config")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		req := outreach.Request{ProfessorName: draftProfessor, LabName: draftLab, Student: student}
		if ds, err := loadDataset(cmd.Context(), db); err == nil {
			if lab, ok := ds.FindByName(draftLab); ok {
				req.Lab = &lab
			}
		}

		limits := outreach.Limits{
			MaxIterations: cfg.Outreach.MaxIterations,
			MinWords:      cfg.Outreach.MinWords,
			MaxWords:      cfg.Outreach.MaxWords,
		}
		res, err := outreach.NewDrafter(db, provider, limits).Draft(cmd.Context(), req)
		if err != nil {
			return err
		}

		fmt.Println(res.Email)
		fmt.Printf("\n(%d words, %d pass(es)", res.Review.WordCount, res.Iterations)
		if !res.Passed {
			fmt.Printf(", last check: %s", res.Review.Message)
		}
		fmt.Println(")")
		return nil
	},
}

func init() {
	draftEmailCmd.Flags().StringVar(&draftProfessor, "professor", "", "Professor name")
	draftEmailCmd.Flags().StringVar(&draftLab, "lab", "", "Lab name")
	draftEmailCmd.Flags().StringVar(&draftProfile, "profile", "", "Student profile JSON file")
}

var draftsLimit int

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List recently drafted emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		drafts, err := db.GetRecentDrafts(draftsLimit)
		if err != nil {
			return err
		}
		if len(drafts) == 0 {
			fmt.Println("No drafts yet. Create one with: researchconnect draft-email")
			return nil
		}
		for _, d := range drafts {
			status := "needs edits"
			if d.Passed {
				status = "ready"
			}
			created := ""
			if d.CreatedAt != nil {
				created = *d.CreatedAt
			}
			fmt.Printf("  [%d] %s / %s (%s, %s)\n", d.ID, d.Professor, d.LabName, status, created)
			first, _, _ := strings.Cut(d.Body, "\n")
			fmt.Printf("        %s\n", render.Truncate(first, 60))
		}
		return nil
	},
}

func init() {
	draftsCmd.Flags().IntVarP(&draftsLimit, "limit", "n", 10, "Number of drafts to show")
}
