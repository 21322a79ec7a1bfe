package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/fetch"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
	"github.com/TobiSchelling/ResearchConnect/internal/pipeline"
	"github.com/TobiSchelling/ResearchConnect/internal/populate"
	"github.com/TobiSchelling/ResearchConnect/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "researchconnect",
	Short:   "Research lab directory and matchmaking",
	Long:    "ResearchConnect serves a searchable directory of university research labs, recommends labs to students and drafts outreach emails.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		_ = godotenv.Load()

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(labsCmd)
	rootCmd.AddCommand(schoolsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(draftEmailCmd)
	rootCmd.AddCommand(draftsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("researchconnect", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/researchconnect/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the dataset source, API keys, and LLM provider.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("Directory (database):")
		fmt.Printf("  Labs: %d\n", stats.Labs)
		fmt.Printf("  Schools: %d\n", stats.Schools)
		fmt.Printf("  Professors: %d\n", stats.Professors)
		fmt.Printf("  Enriched: %d\n", stats.EnrichedLabs)
		fmt.Println("\nOutreach:")
		fmt.Printf("  Drafts: %d\n", stats.Drafts)
		fmt.Println("\nConfiguration:")
		fmt.Printf("  Dataset source: %s\n", cfg.Dataset.Source)
		if cfg.Dataset.Source == "file" {
			fmt.Printf("  Dataset file: %s\n", cfg.Dataset.File)
		}
		provider := llm.CreateProvider(cfg.LLM)
		if provider == nil {
			fmt.Printf("  LLM provider: %s (not configured)\n", cfg.LLM.Provider)
		} else {
			fmt.Printf("  LLM provider: %s\n", provider.Name())
		}
		return nil
	},
}

// --- serve command ---

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ds, err := loadDataset(ctx, db)
		if err != nil {
			return err
		}

		provider := llm.CreateProvider(cfg.LLM)
		if provider == nil {
			log.Println("No LLM provider configured, AI features are disabled")
		}

		srv, err := server.New(server.Options{Config: cfg, DB: db, Dataset: ds, Provider: provider})
		if err != nil {
			return err
		}

		go reloadOnHangup(ctx, db, srv)

		fmt.Printf("Starting server at http://%s\n", cfg.Addr())
		fmt.Println("Press Ctrl+C to stop, send SIGHUP to reload the lab directory")
		return srv.ListenAndServe(ctx, cfg.Addr())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to listen on")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to run server on")
}

// reloadOnHangup reloads the dataset from its source on every SIGHUP.
func reloadOnHangup(ctx context.Context, db *database.DB, srv *server.Server) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			ds, err := loadDataset(ctx, db)
			if err != nil {
				log.Printf("Reload failed, keeping current directory: %v", err)
				continue
			}
			srv.SetDataset(ds)
			log.Printf("Reloaded %d labs", ds.Len())
		}
	}
}

// --- populate / enrich / refresh commands ---

var populateUniversities []string

var populateCmd = &cobra.Command{
	Use:   "populate",
	Short: "Ask the LLM for labs at the configured universities and store them",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := llm.CreateProvider(cfg.LLM)
		if provider == nil {
			return fmt.Errorf("populate needs an LLM provider; check the llm section of your config")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		universities := cfg.Populate.Universities
		if len(populateUniversities) > 0 {
			universities = populateUniversities
		}
		if len(universities) == 0 {
			return fmt.Errorf("no universities configured; pass --university or set populate.universities")
		}

		fmt.Printf("Searching %d universities with %s...\n", len(universities), provider.Name())
		result, err := populate.NewPopulator(cfg, db, provider).PopulateUniversities(cmd.Context(), universities)
		if err != nil {
			return err
		}

		fmt.Println("\nPopulate complete:")
		fmt.Printf("  Total found: %d\n", result.TotalFound)
		fmt.Printf("  New labs: %d\n", result.NewLabs)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		fmt.Printf("  Rejected (no professor): %d\n", result.Rejected)
		if len(result.Failed) > 0 {
			fmt.Printf("  Failed universities: %d\n", len(result.Failed))
		}

		if len(result.Schools) > 0 {
			fmt.Println("\nNew labs by university:")
			// Sort schools by count descending
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Schools {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

func init() {
	populateCmd.Flags().StringSliceVarP(&populateUniversities, "university", "u", nil, "University to search (repeatable, overrides config)")
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetch lab websites to fill in missing emails and short descriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := fetch.NewEnricher(db, cfg.Enrich).EnrichAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("\nEnrichment complete:")
		fmt.Printf("  Enriched: %d\n", result.Enriched)
		fmt.Printf("  Unchanged: %d\n", result.Unchanged)
		fmt.Printf("  Failed: %d\n", result.Failed)
		return nil
	},
}

var (
	dryRun       bool
	skipPopulate bool
	skipEnrich   bool
	refreshOut   string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the full refresh: populate -> enrich -> export",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe := pipeline.New(cfg, db, llm.CreateProvider(cfg.LLM))

		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(cmd.Context(), pipeline.Options{
				SkipPopulate: skipPopulate,
				SkipEnrich:   skipEnrich,
				ExportPath:   refreshOut,
			})
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/3: %s\n", i+1, step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}

		if result.Failed() {
			return fmt.Errorf("refresh finished with errors")
		}
		if !dryRun {
			fmt.Println("\nRefresh complete! Run 'researchconnect serve' to browse the directory.")
		}
		return nil
	},
}

func init() {
	refreshCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	refreshCmd.Flags().BoolVar(&skipPopulate, "skip-populate", false, "Do not query the LLM for new labs")
	refreshCmd.Flags().BoolVar(&skipEnrich, "skip-enrich", false, "Do not fetch lab websites")
	refreshCmd.Flags().StringVarP(&refreshOut, "output", "o", "", "Export path (defaults to dataset.file)")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}

// loadDataset reads the lab directory from the configured source.
func loadDataset(ctx context.Context, db *database.DB) (*labs.Dataset, error) {
	var src labs.Source
	switch cfg.Dataset.Source {
	case "sqlite":
		src = labs.DBSource{DB: db}
	case "s3":
		s3cfg := cfg.Dataset.S3
		s3src, err := labs.NewS3Source(ctx, labs.S3Options{
			Bucket:    s3cfg.Bucket,
			Key:       s3cfg.Key,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: os.Getenv(s3cfg.AccessKeyEnv),
			SecretKey: os.Getenv(s3cfg.SecretKeyEnv),
		})
		if err != nil {
			return nil, err
		}
		src = s3src
	default:
		src = labs.FileSource{Path: cfg.Dataset.File}
	}
	return labs.Load(ctx, src)
}
