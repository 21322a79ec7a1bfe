package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/outreach"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
	"github.com/TobiSchelling/ResearchConnect/internal/search"
	"github.com/TobiSchelling/ResearchConnect/internal/transcript"
)

const (
	maxJSONBody     = 1 << 20
	multipartMemory = 8 << 20
	unavailableMsg  = "AI provider not available. Configure an LLM provider and API key."
)

// requestError is a failure already phrased for the client.
type requestError struct {
	Status  int
	Message string
}

func (e *requestError) Error() string { return e.Message }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps an error to the status and message shown to clients.
// Unexpected errors are logged and reported generically.
func errorStatus(err error) (int, string) {
	var reqErr *requestError
	var validation *recommend.ValidationError
	var upload *transcript.UploadError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.Status, reqErr.Message
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &upload):
		return upload.Status, upload.Message
	case errors.Is(err, recommend.ErrUnavailable), errors.Is(err, outreach.ErrUnavailable):
		return http.StatusServiceUnavailable, unavailableMsg
	default:
		log.Printf("Request failed: %v", err)
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	provider := "none"
	if s.provider != nil {
		provider = s.provider.Name()
	}
	ai := s.recommender.Available()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "running",
		"ai_provider":  provider,
		"ai_available": ai,
		"labs":         s.dataset().Len(),
		"limits": map[string]int{
			"client_max_mb": s.cfg.Uploads.ClientMaxMB,
			"server_max_mb": s.cfg.Uploads.ServerMaxMB,
		},
		"features": map[string]bool{
			"lab_browsing":          true,
			"basic_recommendations": true,
			"rag_analysis":          ai,
			"transcript_upload":     ai,
			"email_drafting":        s.drafter.Available(),
		},
	})
}

// handleLabs returns the directory, narrowed by the optional school,
// search, professor and professor_email query parameters.
func (s *Server) handleLabs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	school := strings.TrimSpace(q.Get("school"))
	term := strings.TrimSpace(q.Get("search"))
	professor := strings.TrimSpace(q.Get("professor"))
	email := strings.ToLower(strings.TrimSpace(q.Get("professor_email")))

	out := s.dataset().All()
	if school != "" || term != "" || professor != "" || email != "" {
		out = search.Filter(out, term, school, professor)
		if email != "" {
			kept := out[:0]
			for _, l := range out {
				if strings.Contains(strings.ToLower(l.ProfessorEmail), email) {
					kept = append(kept, l)
				}
			}
			out = kept
		}
	}
	if out == nil {
		out = []labs.Lab{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSchools(w http.ResponseWriter, r *http.Request) {
	schools := s.dataset().Schools()
	if schools == nil {
		schools = []string{}
	}
	writeJSON(w, http.StatusOK, schools)
}

func (s *Server) handleLab(w http.ResponseWriter, r *http.Request) {
	lab, ok := s.labAt(r.PathValue("index"))
	if !ok {
		writeError(w, http.StatusNotFound, "Lab not found")
		return
	}
	writeJSON(w, http.StatusOK, lab)
}

func (s *Server) labAt(raw string) (labs.Lab, bool) {
	i, err := strconv.Atoi(raw)
	if err != nil {
		return labs.Lab{}, false
	}
	return s.dataset().At(i)
}

type basicRequest struct {
	Major     string               `json:"major"`
	Interests recommend.StringList `json:"interests"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req basicRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, recommend.BasicRecommendations(s.dataset().All(), req.Major, req.Interests))
}

func (s *Server) handleRAGRecommendations(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}

	raw := r.FormValue("student_data")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing student data")
		return
	}
	profile, err := recommend.ParseProfile([]byte(raw))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in student_data")
		return
	}

	recs, err := s.analyze(r, profile)
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

// parseMultipart caps the request at the server upload limit and parses it.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if s.uploads.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &transcript.UploadError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("File too large. Max %dMB allowed.", s.uploads.LimitMB),
			}
		}
		return &requestError{Status: http.StatusBadRequest, Message: "Invalid form data"}
	}
	return nil
}

// analyze runs the transcript-aware recommendation flow for a parsed
// multipart request. Any uploaded transcript is deleted before returning.
func (s *Server) analyze(r *http.Request, profile recommend.Profile) ([]recommend.Recommendation, error) {
	file, header, err := r.FormFile("transcript")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		return nil, &requestError{Status: http.StatusBadRequest, Message: "Invalid transcript upload"}
	}
	hasTranscript := err == nil && header.Filename != ""
	if file != nil {
		defer file.Close()
	}

	if hasTranscript && !transcript.Allowed(header.Filename) {
		return nil, &transcript.UploadError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Only .pdf files are allowed (max %dMB).", s.uploads.LimitMB),
		}
	}
	if err := profile.Validate(hasTranscript); err != nil {
		return nil, err
	}
	if !s.recommender.Available() {
		return nil, recommend.ErrUnavailable
	}

	req := recommend.Request{Profile: profile}
	if hasTranscript {
		upload, err := s.uploads.Save(header.Filename, file)
		if err != nil {
			return nil, err
		}
		defer upload.Remove()

		text, err := transcript.ExtractText(upload.Path)
		if err != nil {
			log.Printf("Could not read transcript %s: %v", upload.Name, err)
		}
		req.TranscriptText = text
		req.Coursework = transcript.CourseworkHints(text)
	}

	return s.recommender.Recommend(r.Context(), req, s.dataset().All())
}

type draftRequest struct {
	ProfessorName string            `json:"professor_name"`
	LabName       string            `json:"lab_name"`
	StudentData   recommend.Profile `json:"student_data"`
}

type draftResponse struct {
	Success    bool   `json:"success"`
	Email      string `json:"email,omitempty"`
	Error      string `json:"error,omitempty"`
	Passed     bool   `json:"passed,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func (s *Server) handleDraftEmail(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, draftResponse{Error: "Invalid JSON body"})
		return
	}

	res, err := s.draft(r, req.ProfessorName, req.LabName, req.StudentData)
	if err != nil {
		status, msg := errorStatus(err)
		writeJSON(w, status, draftResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{
		Success:    true,
		Email:      res.Email,
		Passed:     res.Passed,
		Iterations: res.Iterations,
	})
}

func (s *Server) draft(r *http.Request, professor, labName string, student recommend.Profile) (*outreach.Result, error) {
	professor = strings.TrimSpace(professor)
	labName = strings.TrimSpace(labName)
	if professor == "" || labName == "" {
		return nil, &requestError{Status: http.StatusBadRequest, Message: "professor_name and lab_name are required"}
	}

	req := outreach.Request{ProfessorName: professor, LabName: labName, Student: student}
	if lab, ok := s.dataset().FindByName(labName); ok {
		req.Lab = &lab
	}
	return s.drafter.Draft(r.Context(), req)
}
