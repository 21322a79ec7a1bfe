package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TobiSchelling/ResearchConnect/internal/config"
	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/session"
)

type mockProvider struct {
	prompts []string
}

func (m *mockProvider) Name() string       { return "mock" }
func (m *mockProvider) IsConfigured() bool { return true }
func (m *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if strings.Contains(prompt, "cold email") {
		body := "Subject: Research opportunity in the Vision Lab\n\nDear Professor Smith,\n\n" +
			strings.TrimSpace(strings.Repeat("I am eager to contribute to your research. ", 25)) +
			"\n\nBest regards,\nSam Lee"
		out, _ := json.Marshal(map[string]string{"email": body})
		return string(out), nil
	}
	return `{"recommendations":[{"lab_name":"Vision Lab","pi":"A. Smith","score":8,"description":"Strong match for **vision** work"}]}`, nil
}

func testLabs() []labs.Lab {
	return []labs.Lab{
		{Name: "Vision Lab", Professor: "A. Smith", ProfessorEmail: "smith@eng.edu", School: "Eng", Description: "Computer vision research"},
		{Name: "NLP Lab", Professor: "B. Jones", School: "CS", Description: "Natural language processing"},
		{Name: "Robotics Lab", Professor: "Jane Doe", School: "Eng", Description: "Legged robots"},
		{Name: "Quantum Lab", Professor: "Jane Doe", School: "Physics", Description: "Qubits"},
	}
}

func newTestServer(t *testing.T, records []labs.Lab, withProvider bool, tweaks ...func(*config.Config)) (*Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Uploads.Dir = filepath.Join(t.TempDir(), "uploads")
	for _, tweak := range tweaks {
		tweak(cfg)
	}

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	opts := Options{Config: cfg, DB: db, Dataset: labs.NewDataset(records)}
	if withProvider {
		opts.Provider = &mockProvider{}
	}
	srv, err := New(opts)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv, cfg
}

func serve(srv *Server, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("expected a session cookie")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("transcript", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(file)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

const studentJSON = `{"name":"Sam Lee","academic":{"major":"Computer Science","gpa":3.8,"year":"Junior"},"goals":{"careerGoals":["research"],"interests":["vision"]}}`

func TestIndexRoute(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/", nil), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Research Labs", "Vision Lab", `<option value="Physics">`, "AI analysis is not configured"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response body", want)
		}
	}
	sessionCookie(t, rec)
}

func TestIndexClearsFilter(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/ui/labs?search=vision", nil), nil)
	cookie := sessionCookie(t, rec)
	if !strings.Contains(rec.Body.String(), "Showing 1 of 1 labs") {
		t.Fatalf("filtered grid: %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest("GET", "/", nil), cookie)
	body := rec.Body.String()
	if !strings.Contains(body, `<input type="search" id="search" name="search" placeholder`) {
		t.Fatalf("expected an empty search box, got %s", body)
	}
	if !strings.Contains(body, "Showing 4 of 4 labs") || !strings.Contains(body, "NLP Lab") {
		t.Errorf("expected the unfiltered grid after reload, got %s", body)
	}

	// Load more continues from the cleared filter.
	rec = serve(srv, httptest.NewRequest("POST", "/ui/labs/more", nil), cookie)
	if !strings.Contains(rec.Body.String(), "Showing 4 of 4 labs") {
		t.Errorf("load more after reload: %s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/nope", nil), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"Not found"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestStaticRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil, false)

	rec := serve(srv, httptest.NewRequest("GET", "/static/style.css", nil), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "font-sans") {
		t.Error("expected CSS content")
	}

	rec = serve(srv, httptest.NewRequest("GET", "/static/app.js", nil), nil)
	if !strings.Contains(rec.Body.String(), "SEARCH_DEBOUNCE_MS = 300") {
		t.Error("expected search debounce in script")
	}
}

func TestAPILabs(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Vision Lab", "NLP Lab", "Robotics Lab", "Quantum Lab"}},
		{"?school=eng", []string{"Vision Lab", "Robotics Lab"}},
		{"?search=LANGUAGE", []string{"NLP Lab"}},
		{"?professor=jane&school=physics", []string{"Quantum Lab"}},
		{"?professor_email=smith@", []string{"Vision Lab"}},
		{"?search=nothing-matches", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(srv, httptest.NewRequest("GET", "/api/labs"+tt.query, nil), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var got []labs.Lab
			decode(t, rec, &got)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d labs, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("lab %d = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

func TestAPISchools(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/api/schools", nil), nil)
	var got []string
	decode(t, rec, &got)
	if strings.Join(got, ",") != "CS,Eng,Physics" {
		t.Errorf("schools = %v", got)
	}
}

func TestAPILab(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/api/lab/1", nil), nil)
	var lab labs.Lab
	decode(t, rec, &lab)
	if lab.Name != "NLP Lab" {
		t.Errorf("lab = %+v", lab)
	}

	for _, path := range []string{"/api/lab/99", "/api/lab/-1", "/api/lab/abc"} {
		rec := serve(srv, httptest.NewRequest("GET", path, nil), nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Lab not found") {
			t.Errorf("%s: unexpected body %q", path, rec.Body.String())
		}
	}
}

func TestAPIStatus(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/api/status", nil), nil)
	var got struct {
		Status      string          `json:"status"`
		AIProvider  string          `json:"ai_provider"`
		AIAvailable bool            `json:"ai_available"`
		Limits      map[string]int  `json:"limits"`
		Features    map[string]bool `json:"features"`
	}
	decode(t, rec, &got)
	if got.Status != "running" || got.AIProvider != "none" || got.AIAvailable {
		t.Errorf("status = %+v", got)
	}
	if got.Limits["client_max_mb"] != 10 || got.Limits["server_max_mb"] != 32 {
		t.Errorf("limits = %v", got.Limits)
	}
	if !got.Features["lab_browsing"] || got.Features["rag_analysis"] {
		t.Errorf("features = %v", got.Features)
	}
}

func TestAPIRecommendations(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	body := strings.NewReader(`{"major":"vision","interests":["robots"]}`)
	rec := serve(srv, httptest.NewRequest("POST", "/api/recommendations", body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Recommendations []struct {
			Name  string  `json:"name"`
			Score float64 `json:"relevance_score"`
		} `json:"recommendations"`
		TotalLabs    int `json:"total_labs"`
		MatchingLabs int `json:"matching_labs"`
	}
	decode(t, rec, &got)
	if got.TotalLabs != 4 || got.MatchingLabs != 2 {
		t.Errorf("counts = %d/%d", got.TotalLabs, got.MatchingLabs)
	}
	if len(got.Recommendations) != 2 || got.Recommendations[0].Name != "Vision Lab" || got.Recommendations[0].Score != 3 {
		t.Errorf("recommendations = %+v", got.Recommendations)
	}

	rec = serve(srv, httptest.NewRequest("POST", "/api/recommendations", strings.NewReader("{")), nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad JSON, got %d", rec.Code)
	}
}

func TestRAGRecommendationsErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider bool
		fields   map[string]string
		filename string
		status   int
		message  string
	}{
		{"missing student data", true, nil, "", http.StatusBadRequest, "Missing student data"},
		{"bad student json", true, map[string]string{"student_data": "{"}, "", http.StatusBadRequest, "Invalid JSON in student_data"},
		{"missing fields", true, map[string]string{"student_data": `{"name":"Sam"}`}, "", http.StatusBadRequest, "major"},
		{"not a pdf", true, map[string]string{"student_data": `{}`}, "notes.docx", http.StatusBadRequest, "Only .pdf files are allowed (max 10MB)."},
		{"no provider", false, map[string]string{"student_data": studentJSON}, "", http.StatusServiceUnavailable, "AI provider not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, testLabs(), tt.provider)
			body, ctype := multipartBody(t, tt.fields, tt.filename, []byte("data"))
			req := httptest.NewRequest("POST", "/api/rag-recommendations", body)
			req.Header.Set("Content-Type", ctype)

			rec := serve(srv, req, nil)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			var got map[string]string
			decode(t, rec, &got)
			if !strings.Contains(got["error"], tt.message) {
				t.Errorf("error = %q, want it to contain %q", got["error"], tt.message)
			}
		})
	}
}

func TestRAGRecommendationsTooLarge(t *testing.T) {
	srv, cfg := newTestServer(t, testLabs(), true, func(c *config.Config) { c.Uploads.ServerMaxMB = 1 })
	big := bytes.Repeat([]byte("x"), cfg.Uploads.ServerMaxMB<<20+1)
	body, ctype := multipartBody(t, map[string]string{"student_data": studentJSON}, "t.pdf", big)
	req := httptest.NewRequest("POST", "/api/rag-recommendations", body)
	req.Header.Set("Content-Type", ctype)

	rec := serve(srv, req, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "File too large. Max 10MB allowed.") {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRAGRecommendations(t *testing.T) {
	srv, cfg := newTestServer(t, testLabs(), true)
	body, ctype := multipartBody(t, map[string]string{"student_data": `{"name":"Sam"}`}, "transcript.PDF", []byte("%PDF-1.4 broken"))
	req := httptest.NewRequest("POST", "/api/rag-recommendations", body)
	req.Header.Set("Content-Type", ctype)

	rec := serve(srv, req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Recommendations []struct {
			Name           string  `json:"name"`
			Professor      string  `json:"professor"`
			ProfessorEmail string  `json:"professor_email"`
			Score          float64 `json:"relevance_score"`
		} `json:"recommendations"`
	}
	decode(t, rec, &got)
	if len(got.Recommendations) != 1 {
		t.Fatalf("recommendations = %+v", got.Recommendations)
	}
	r := got.Recommendations[0]
	if r.Name != "Vision Lab" || r.Professor != "A. Smith" || r.Score != 8 || r.ProfessorEmail == "" {
		t.Errorf("recommendation = %+v", r)
	}

	entries, err := os.ReadDir(cfg.Uploads.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected uploads to be removed, found %d files", len(entries))
	}
}

func TestDraftEmail(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), true)

	payload := fmt.Sprintf(`{"professor_name":"A. Smith","lab_name":"Vision Lab","student_data":%s}`, studentJSON)
	rec := serve(srv, httptest.NewRequest("POST", "/api/draft-email", strings.NewReader(payload)), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Success bool   `json:"success"`
		Email   string `json:"email"`
		Passed  bool   `json:"passed"`
	}
	decode(t, rec, &got)
	if !got.Success || !got.Passed || !strings.HasPrefix(got.Email, "Subject:") {
		t.Errorf("response = %+v", got)
	}

	rec = serve(srv, httptest.NewRequest("POST", "/api/draft-email", strings.NewReader(`{"lab_name":"Vision Lab"}`)), nil)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("missing professor: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDraftEmailWithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	payload := `{"professor_name":"A. Smith","lab_name":"Vision Lab","student_data":{}}`
	rec := serve(srv, httptest.NewRequest("POST", "/api/draft-email", strings.NewReader(payload)), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var got map[string]any
	decode(t, rec, &got)
	if got["success"] != false || got["error"] == "" {
		t.Errorf("response = %v", got)
	}
}

func TestUILabsLoadMore(t *testing.T) {
	records := make([]labs.Lab, 25)
	for i := range records {
		records[i] = labs.Lab{Name: fmt.Sprintf("Lab %02d", i), School: "Eng"}
	}
	srv, _ := newTestServer(t, records, false)

	rec := serve(srv, httptest.NewRequest("GET", "/ui/labs?search=lab", nil), nil)
	cookie := sessionCookie(t, rec)
	if !strings.Contains(rec.Body.String(), "Showing 12 of 25 labs") {
		t.Fatalf("first page: %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest("POST", "/ui/labs/more", nil), cookie)
	if !strings.Contains(rec.Body.String(), "Showing 24 of 25 labs") || !strings.Contains(rec.Body.String(), `id="load-more"`) {
		t.Fatalf("second page: %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest("POST", "/ui/labs/more", nil), cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Showing 25 of 25 labs") || strings.Contains(body, `id="load-more"`) {
		t.Fatalf("last page: %s", body)
	}

	// A new filter starts over at the first page.
	rec = serve(srv, httptest.NewRequest("GET", "/ui/labs?school=eng", nil), cookie)
	if !strings.Contains(rec.Body.String(), "Showing 12 of 25 labs") {
		t.Errorf("after refilter: %s", rec.Body.String())
	}
}

func TestUIProfessorSearch(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/ui/labs?search=jane", nil), nil)
	body := rec.Body.String()
	if !strings.Contains(body, `data-kind="professors"`) || !strings.Contains(body, "Jane Doe") {
		t.Errorf("expected professor listing, got %s", body)
	}
	if strings.Contains(body, "load-more") {
		t.Error("professor listing must not offer load more")
	}
}

func TestUIProfessorSlides(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/ui/professor?name=Jane+Doe", nil), nil)
	cookie := sessionCookie(t, rec)
	if !strings.Contains(rec.Body.String(), "1 of 2") || !strings.Contains(rec.Body.String(), "Labs led by Jane Doe") {
		t.Fatalf("first slide: %s", rec.Body.String())
	}

	for i := 0; i < 2; i++ {
		rec = serve(srv, httptest.NewRequest("POST", "/ui/slides/next", nil), cookie)
	}
	if !strings.Contains(rec.Body.String(), "2 of 2") || !strings.Contains(rec.Body.String(), "Quantum Lab") {
		t.Errorf("next past the end: %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest("POST", "/ui/slides/prev", nil), cookie)
	if !strings.Contains(rec.Body.String(), "Robotics Lab") {
		t.Errorf("prev: %s", rec.Body.String())
	}

	rec = serve(srv, httptest.NewRequest("GET", "/ui/professor?name=Nobody", nil), cookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUILabDetail(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	rec := serve(srv, httptest.NewRequest("GET", "/ui/lab/0", nil), nil)
	if !strings.Contains(rec.Body.String(), "smith@eng.edu") {
		t.Errorf("detail: %s", rec.Body.String())
	}
	rec = serve(srv, httptest.NewRequest("GET", "/ui/lab/7", nil), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUIRecommend(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), false)

	form := strings.NewReader("major=vision&interests=robots")
	req := httptest.NewRequest("POST", "/ui/recommend", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(srv, req, nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Vision Lab") || !strings.Contains(body, "3/10") {
		t.Errorf("recommendations: %s", body)
	}
	if !strings.Contains(body, `data-lab-index="0"`) {
		t.Error("expected a details link back to the dataset record")
	}
}

func TestUIAnalyzeThenDraft(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), true)

	req := httptest.NewRequest("POST", "/ui/draft-email", strings.NewReader("professor=A.+Smith&lab=Vision+Lab"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(srv, req, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("draft before analysis: expected 400, got %d", rec.Code)
	}

	fields := map[string]string{"name": "Sam Lee", "major": "Computer Science", "gpa": "3.8", "year": "Junior", "interests": "vision, robots"}
	body, ctype := multipartBody(t, fields, "", nil)
	req = httptest.NewRequest("POST", "/ui/analyze", body)
	req.Header.Set("Content-Type", ctype)
	rec = serve(srv, req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookie(t, rec)
	if !strings.Contains(rec.Body.String(), "<strong>vision</strong>") {
		t.Errorf("analyze: %s", rec.Body.String())
	}

	req = httptest.NewRequest("POST", "/ui/draft-email", strings.NewReader("professor=A.+Smith&lab=Vision+Lab"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = serve(srv, req, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("draft: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Email to A. Smith") || !strings.Contains(rec.Body.String(), "<p>Dear Professor Smith,</p>") {
		t.Errorf("draft: %s", rec.Body.String())
	}
}

func TestUIAnalyzeValidation(t *testing.T) {
	srv, _ := newTestServer(t, testLabs(), true)

	body, ctype := multipartBody(t, map[string]string{"name": "Sam"}, "", nil)
	req := httptest.NewRequest("POST", "/ui/analyze", body)
	req.Header.Set("Content-Type", ctype)
	rec := serve(srv, req, nil)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `class="error"`) {
		t.Errorf("expected validation error fragment, got %d %s", rec.Code, rec.Body.String())
	}
}
