// Package outreach drafts cold emails from a student to a lab's professor,
// regenerating until the draft passes the length and style checks.
package outreach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TobiSchelling/ResearchConnect/internal/database"
	"github.com/TobiSchelling/ResearchConnect/internal/labs"
	"github.com/TobiSchelling/ResearchConnect/internal/llm"
	"github.com/TobiSchelling/ResearchConnect/internal/recommend"
)

const generatePrompt = `You are an outreach assistant writing a cold email from a student to a professor about joining their research lab.

## RECIPIENT INFO
%s

## STUDENT INFO
%s

Write a personalized email that:
- Has a subject line mentioning research and the lab
- Introduces the student clearly (name, year, major)
- Refers specifically to the lab and its research
- Highlights one or two relevant skills, courses or projects
- Politely asks for a short meeting or a research opportunity
- Ends with a professional closing and the student's name

Rules:
- Between %d and %d words
- No emojis and no hashtags
- No placeholders such as "[Your Name]"; use the information above

Respond with ONLY this JSON:
{
    "email": "the full email including the subject line"
}`

const refinePrompt = `You are refining a cold email from a student to a professor about a research opportunity.

## DRAFT EMAIL
%s

## REVIEW FEEDBACK
%s

## RECIPIENT INFO
%s

Rewrite the email so it fixes the feedback while keeping it personal, formal and approachable.
It must be between %d and %d words, with no emojis, no hashtags and no placeholders.

Output ONLY the final email text.`

const draftMaxTokens = 1024

// ErrUnavailable is returned when no AI provider is configured.
var ErrUnavailable = errors.New("AI provider not available")

// Request identifies the recipient and the student.
type Request struct {
	ProfessorName string
	LabName       string
	Student       recommend.Profile
	// Lab is the dataset record for the lab, when it could be found.
	Lab *labs.Lab
}

// Result is the last draft produced and how it fared.
type Result struct {
	Email      string
	Iterations int
	Passed     bool
	Review     Review
}

// Drafter runs the generate, refine and check loop.
type Drafter struct {
	db       *database.DB
	provider llm.Provider
	limits   Limits
}

// NewDrafter creates a drafter. db may be nil to skip keeping drafts.
func NewDrafter(db *database.DB, provider llm.Provider, limits Limits) *Drafter {
	if limits.MaxIterations <= 0 {
		limits.MaxIterations = DefaultLimits.MaxIterations
	}
	return &Drafter{db: db, provider: provider, limits: limits}
}

// Available reports whether a provider is configured.
func (d *Drafter) Available() bool {
	return d != nil && d.provider != nil
}

// Draft writes an email for req. The first pass generates, later passes
// refine the previous draft with the checker's feedback. The loop stops at
// the first passing draft or after MaxIterations; the last draft is
// returned either way.
func (d *Drafter) Draft(ctx context.Context, req Request) (*Result, error) {
	if !d.Available() {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(req.ProfessorName) == "" {
		return nil, fmt.Errorf("professor name is required")
	}

	recipient := recipientInfo(req)
	student, err := json.MarshalIndent(req.Student, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding student profile: %w", err)
	}

	res := &Result{}
	for i := 1; i <= d.limits.MaxIterations; i++ {
		var prompt string
		if res.Email == "" {
			prompt = fmt.Sprintf(generatePrompt, recipient, student, d.limits.MinWords, d.limits.MaxWords)
		} else {
			prompt = fmt.Sprintf(refinePrompt, res.Email, res.Review.Message, recipient, d.limits.MinWords, d.limits.MaxWords)
		}

		text, err := d.provider.Generate(ctx, prompt, draftMaxTokens)
		if err != nil {
			if res.Email == "" {
				return nil, fmt.Errorf("generating email: %w", err)
			}
			log.Printf("Refining email for %s failed after %d iterations: %v", req.ProfessorName, res.Iterations, err)
			break
		}

		if email := extractEmail(text); email != "" {
			res.Email = email
		}
		res.Iterations = i
		res.Review = Check(res.Email, d.limits)
		res.Passed = res.Review.Passed
		if res.Passed {
			break
		}
		log.Printf("Draft %d for %s rejected: %s", i, req.ProfessorName, res.Review.Message)
	}

	if res.Email == "" {
		return nil, fmt.Errorf("provider returned an empty email")
	}

	d.save(req, res)
	return res, nil
}

func (d *Drafter) save(req Request, res *Result) {
	if d.db == nil {
		return
	}
	_, err := d.db.InsertEmailDraft(database.EmailDraft{
		Professor:   req.ProfessorName,
		LabName:     req.LabName,
		StudentName: req.Student.Name,
		Body:        res.Email,
		Iterations:  res.Iterations,
		Passed:      res.Passed,
	})
	if err != nil {
		log.Printf("Saving email draft: %v", err)
	}
}

func recipientInfo(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Professor: %s\n", req.ProfessorName)
	if req.LabName != "" {
		fmt.Fprintf(&b, "Lab: %s\n", req.LabName)
	}
	if l := req.Lab; l != nil {
		if l.School != "" {
			fmt.Fprintf(&b, "School: %s\n", l.School)
		}
		if l.ProfessorEmail != "" {
			fmt.Fprintf(&b, "Email: %s\n", l.ProfessorEmail)
		}
		if l.URL != "" {
			fmt.Fprintf(&b, "Website: %s\n", l.URL)
		}
		if l.Description != "" {
			fmt.Fprintf(&b, "Research: %s\n", l.Description)
		}
	}
	return strings.TrimSpace(b.String())
}

// extractEmail accepts either {"email": "..."} or plain text.
func extractEmail(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "```") {
		if parsed := llm.ParseJSONResponse(text); parsed != nil {
			if s, ok := parsed["email"].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return text
}
