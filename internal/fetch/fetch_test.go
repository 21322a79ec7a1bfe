package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
)

const labPage = `<!DOCTYPE html>
<html><head><title>Vision Lab</title><style>p { color: red; }</style></head>
<body>
<nav><a href="/">Home</a> <a href="mailto:ada.smith@utd.edu?subject=Hello">Contact</a></nav>
<article>
<h1>Vision Lab</h1>
<p>The Vision Lab studies how robots perceive the world, building models that combine cameras, depth sensors, and tactile feedback to recognise objects in cluttered scenes.</p>
<p>Current projects include self-supervised learning for manipulation, low-power perception for drones, and benchmarks for evaluating scene understanding in homes and hospitals.</p>
<p>Undergraduate and graduate students join the lab every semester, working closely with postdocs on publishable research, open-source software, and demonstrations.</p>
</article>
</body></html>`

func openDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() config.Enrich {
	return config.Enrich{UserAgent: "test-agent", MinDescription: 80}
}

func TestFindContactEmail(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"mailto", labPage, "ada.smith@utd.edu"},
		{"escaped mailto", `<a href="MAILTO:lab%40example.edu">mail</a>`, "lab@example.edu"},
		{"text fallback", `<p>Write to pi@example.edu today</p>`, "pi@example.edu"},
		{"script ignored", `<script>var a = "x@tracker.com"</script><p>none</p>`, ""},
		{"none", `<p>No contact here</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindContactEmail([]byte(tt.doc)); got != tt.want {
				t.Errorf("FindContactEmail = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchPage(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.UserAgent()
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(labPage))
	}))
	defer srv.Close()

	e := NewEnricher(openDB(t), testConfig())
	page, err := e.FetchPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if agent != "test-agent" {
		t.Errorf("User-Agent = %q", agent)
	}
	if page.Email != "ada.smith@utd.edu" {
		t.Errorf("Email = %q", page.Email)
	}
	if !strings.Contains(page.Text, "robots perceive the world") {
		t.Errorf("Text = %q", page.Text)
	}
}

func TestFetchPageHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewEnricher(openDB(t), testConfig()).FetchPage(context.Background(), srv.URL)
	if _, ok := err.(*httpError); !ok {
		t.Fatalf("err = %v, want *httpError", err)
	}
}

func TestEnrichAll(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(labPage))
	}))
	defer good.Close()

	var badHits atomic.Int32
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits.Add(1)
		http.Error(w, "gone", http.StatusGone)
	}))
	defer bad.Close()

	db := openDB(t)
	seed := []database.Lab{
		{Name: "Vision Lab", School: "UTD", URL: good.URL + "/vision", Description: "Robots."},
		{Name: "Dead Lab", School: "UTD", URL: bad.URL + "/a"},
		{Name: "Deader Lab", School: "UTD", URL: bad.URL + "/b"},
		{Name: "Complete Lab", School: "UTD", URL: good.URL, ProfessorEmail: "x@utd.edu",
			Description: strings.Repeat("long description ", 10)},
		{Name: "Offline Lab", School: "UTD"},
	}
	for _, l := range seed {
		if _, err := db.InsertLab(l); err != nil {
			t.Fatal(err)
		}
	}

	result, err := NewEnricher(db, testConfig()).EnrichAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Enriched != 1 || result.Failed != 2 || result.Unchanged != 0 {
		t.Errorf("result = %+v", result)
	}
	if badHits.Load() != 1 {
		t.Errorf("failing domain hit %d times, want 1", badHits.Load())
	}

	all, err := db.GetAllLabs()
	if err != nil {
		t.Fatal(err)
	}
	vision := all[0]
	if vision.ProfessorEmail != "ada.smith@utd.edu" {
		t.Errorf("email = %q", vision.ProfessorEmail)
	}
	if !strings.Contains(vision.Description, "robots perceive") {
		t.Errorf("description = %q", vision.Description)
	}
	if vision.EnrichedAt == nil {
		t.Error("vision lab not marked enriched")
	}

	pending, err := db.GetLabsNeedingEnrichment(80)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("%d labs still pending after a run", len(pending))
	}
}

func TestChangesKeepsExistingEmail(t *testing.T) {
	e := NewEnricher(nil, testConfig())
	lab := database.Lab{ProfessorEmail: "keep@utd.edu", Description: strings.Repeat("x", 100)}
	desc, email := e.changes(lab, &Page{Text: strings.Repeat("y", 500), Email: "new@utd.edu"})
	if desc != nil || email != nil {
		t.Errorf("changes = %v, %v; want none", desc, email)
	}
}
