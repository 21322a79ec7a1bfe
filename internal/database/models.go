package database

// Lab is a stored research lab row.
type Lab struct {
	ID             int64
	Position       int
	Name           string
	Professor      string
	ProfessorEmail string
	School         string
	Department     string
	URL            string
	Description    string
	EnrichedAt     *string
	CreatedAt      *string
}

// EmailDraft is a generated outreach email kept for later review.
type EmailDraft struct {
	ID          int64
	Professor   string
	LabName     string
	StudentName string
	Body        string
	Iterations  int
	Passed      bool
	CreatedAt   *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Labs         int
	Schools      int
	Professors   int
	EnrichedLabs int
	Drafts       int
}
