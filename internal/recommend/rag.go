package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
)

const (
	contextLabs       = 50
	transcriptPromptN = 4000
	defaultMaxTokens  = 1200
)

// ErrUnavailable is returned when no AI provider is configured.
var ErrUnavailable = errors.New("AI provider not available")

// Request is one transcript-aware recommendation request.
type Request struct {
	Profile        Profile
	TranscriptText string
	Coursework     []string
}

// Recommender produces AI recommendations, degrading to keyword matches
// when the provider errors or its output cannot be parsed.
type Recommender struct {
	Provider  llm.Provider
	MaxTokens int
}

// Available reports whether a provider is configured.
func (r *Recommender) Available() bool {
	return r != nil && r.Provider != nil
}

// Recommend asks the provider for two or three labs from all.
func (r *Recommender) Recommend(ctx context.Context, req Request, all []labs.Lab) ([]Recommendation, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}

	prompt, err := BuildPrompt(req, all)
	if err != nil {
		return nil, err
	}

	maxTokens := r.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	text, err := r.Provider.Generate(ctx, prompt, maxTokens)
	if err != nil {
		log.Printf("Recommendation request to %s failed, using keyword fallback: %v", r.Provider.Name(), err)
		return Fallback(req.Profile, all), nil
	}

	if recs := ParseResponse(strings.TrimSpace(text)); len(recs) > 0 {
		return recs, nil
	}

	log.Printf("Could not parse %s recommendations, using keyword fallback", r.Provider.Name())
	return Fallback(req.Profile, all), nil
}

// BuildPrompt renders the advisor prompt: the student profile, the head of
// the transcript, coursework hints and a summary of the first labs.
func BuildPrompt(req Request, all []labs.Lab) (string, error) {
	student := struct {
		Profile
		TranscriptText string   `json:"transcript_text,omitempty"`
		Coursework     []string `json:"coursework,omitempty"`
	}{req.Profile, truncateRunes(req.TranscriptText, transcriptPromptN), req.Coursework}

	studentJSON, err := json.Marshal(student)
	if err != nil {
		return "", fmt.Errorf("encoding student profile: %w", err)
	}

	hints := req.Coursework
	if hints == nil {
		hints = []string{}
	}
	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return "", fmt.Errorf("encoding coursework hints: %w", err)
	}

	var labLines strings.Builder
	for _, lab := range all[:min(len(all), contextLabs)] {
		fmt.Fprintf(&labLines, "- name: %s\n  professor: %s\n  professor_email: %s\n  school: %s\n  url: %s\n  description: %s\n",
			lab.Name, lab.Professor, lab.ProfessorEmail, lab.School, lab.URL, lab.Description)
	}

	return fmt.Sprintf(`You are an expert academic advisor. Produce ONLY valid JSON with this shape:

{
  "recommendations": [
    {
      "name": "string",
      "professor": "string",
      "professor_email": "string",
      "school": "string",
      "url": "string",
      "description": "string",
      "relevance_score": 0,
      "skills": ["string"],
      "coursework": ["string"]
    }
  ]
}

Rules:
- Return 2-3 items.
- Always include "professor_email". If missing, infer "firstname.lastname@institution.edu".
- description must concisely include why it matches, skills to highlight, and next steps.
- Use ONLY labs from the provided list (use exact names and professors).
- Use transcript and coursework to tailor the match and list specific classes and skills.
- relevance_score is from 0 to 10.

Student profile (JSON):
%s

Transcript text (if any):
%s

Coursework hints (if any): %s

Available labs (summaries):
%s`, studentJSON, truncateRunes(strings.TrimSpace(req.TranscriptText), transcriptPromptN), hintsJSON, labLines.String()), nil
}
