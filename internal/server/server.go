package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
	"github.com/TobiSchelling/ResearchConnect/internal/outreach"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/render"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/session"
	"github.com/TobiSchelling/ResearchConnect/internal/transcript"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

const (
	sessionTTL    = 2 * time.Hour
	pruneInterval = 10 * time.Minute
)

// Options are the collaborators a Server is built from. DB and Provider
// may be nil; the AI features then report themselves unavailable.
type Options struct {
	Config   *config.Config
	DB       *database.DB
	Dataset  *labs.Dataset
	Provider llm.Provider
}

// Server is the HTTP server for the lab directory.
type Server struct {
	cfg         *config.Config
	provider    llm.Provider
	sessions    *session.Store
	uploads     *transcript.Store
	recommender *recommend.Recommender
	drafter     *outreach.Drafter
	pages       map[string]*template.Template
	fragments   *template.Template
	mux         *http.ServeMux
}

// New creates a new Server.
func New(opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	funcMap := render.Funcs()
	funcMap["emailHTML"] = renderMarkdown

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	fragments, err := template.New("fragments").Funcs(funcMap).ParseFS(templateFS, "templates/draft.html")
	if err != nil {
		return nil, fmt.Errorf("parsing fragment templates: %w", err)
	}

	uploads, err := transcript.NewStore(cfg.UploadDir(), cfg.Uploads.ServerMaxMB, cfg.Uploads.ClientMaxMB)
	if err != nil {
		return nil, err
	}

	limits := outreach.Limits{
		MaxIterations: cfg.Outreach.MaxIterations,
		MinWords:      cfg.Outreach.MinWords,
		MaxWords:      cfg.Outreach.MaxWords,
	}

	s := &Server{
		cfg:         cfg,
		provider:    opts.Provider,
		sessions:    session.NewStore(opts.Dataset, sessionTTL),
		uploads:     uploads,
		recommender: &recommend.Recommender{Provider: opts.Provider, MaxTokens: cfg.LLM.MaxTokens},
		drafter:     outreach.NewDrafter(opts.DB, opts.Provider, limits),
		pages:       pages,
		fragments:   fragments,
		mux:         http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetDataset swaps the directory served to API callers and new sessions.
func (s *Server) SetDataset(ds *labs.Dataset) {
	s.sessions.SetDataset(ds)
}

func (s *Server) dataset() *labs.Dataset {
	return s.sessions.Dataset()
}

func (s *Server) routes() {
	// Static files
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages
	s.mux.HandleFunc("/", s.handleIndex)

	// JSON API
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("GET /api/labs", s.handleLabs)
	s.mux.HandleFunc("GET /api/schools", s.handleSchools)
	s.mux.HandleFunc("GET /api/lab/{index}", s.handleLab)
	s.mux.HandleFunc("POST /api/recommendations", s.handleRecommendations)
	s.mux.HandleFunc("POST /api/rag-recommendations", s.handleRAGRecommendations)
	s.mux.HandleFunc("POST /api/draft-email", s.handleDraftEmail)

	// HTML fragments
	s.mux.HandleFunc("GET /ui/labs", s.handleUILabs)
	s.mux.HandleFunc("POST /ui/labs/more", s.handleUILoadMore)
	s.mux.HandleFunc("GET /ui/lab/{index}", s.handleUILab)
	s.mux.HandleFunc("GET /ui/professor", s.handleUIProfessor)
	s.mux.HandleFunc("GET /ui/slides", s.handleUISlides)
	s.mux.HandleFunc("POST /ui/slides/next", s.handleUISlideNext)
	s.mux.HandleFunc("POST /ui/slides/prev", s.handleUISlidePrev)
	s.mux.HandleFunc("POST /ui/recommend", s.handleUIRecommend)
	s.mux.HandleFunc("POST /ui/analyze", s.handleUIAnalyze)
	s.mux.HandleFunc("POST /ui/draft-email", s.handleUIDraftEmail)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	var results template.HTML
	// The page renders empty filter inputs, so the grid starts unfiltered.
	s.withSession(w, r, func(st *session.State) {
		st.ApplyFilter(search.FilterState{})
		results = resultsHTML(st)
	})

	ds := s.dataset()
	s.render(w, "index.html", map[string]any{
		"Schools":     ds.Schools(),
		"Professors":  ds.Professors(),
		"Total":       ds.Len(),
		"Results":     results,
		"AIAvailable": s.recommender.Available(),
		"ClientMaxMB": s.cfg.Uploads.ClientMaxMB,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// ListenAndServe serves until ctx is cancelled, pruning idle sessions in
// the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
				return
			case <-ticker.C:
				if n := s.sessions.Prune(); n > 0 {
					log.Printf("Pruned %d idle sessions", n)
				}
			}
		}
	}()

	log.Printf("Server listening on http://%s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
