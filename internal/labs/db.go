package labs

import (
	"context"
	"fmt"

	"github.com/TobiSchelling/ResearchConnect/internal/database"
)

// DBSource reads labs from the SQLite store in directory order.
type DBSource struct {
	DB *database.DB
}

// Load implements Source.
func (s DBSource) Load(_ context.Context) ([]Lab, error) {
	rows, err := s.DB.GetAllLabs()
	if err != nil {
		return nil, fmt.Errorf("loading labs from database: %w", err)
	}
	out := make([]Lab, len(rows))
	for i, r := range rows {
		out[i] = FromRow(r)
	}
	return out, nil
}

// FromRow converts a stored row into a Lab.
func FromRow(r database.Lab) Lab {
	return Lab{
		Name:           r.Name,
		Professor:      r.Professor,
		ProfessorEmail: r.ProfessorEmail,
		School:         r.School,
		Department:     r.Department,
		URL:            r.URL,
		Description:    r.Description,
	}
}

// ToRow converts a Lab into a row for storage.
func ToRow(l Lab) database.Lab {
	return database.Lab{
		Name:           l.Name,
		Professor:      l.Professor,
		ProfessorEmail: l.ProfessorEmail,
		School:         l.School,
		Department:     l.Department,
		URL:            l.URL,
		Description:    l.Description,
	}
}
