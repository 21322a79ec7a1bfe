package database

import (
	"database/sql"
	"fmt"
)

const labColumns = `id, position, name, professor, professor_email, school, department, url, description, enriched_at, created_at`

// InsertLab appends a lab at the end of the directory order.
// Returns the new ID, or 0 when a lab with the same name and school exists.
func (db *DB) InsertLab(l Lab) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO labs (position, name, professor, professor_email, school, department, url, description)
		VALUES ((SELECT COALESCE(MAX(position), -1) + 1 FROM labs), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, school) DO NOTHING`,
		l.Name, l.Professor, l.ProfessorEmail, l.School, l.Department, l.URL, l.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting lab %q: %w", l.Name, err)
	}
	n, err := result.RowsAffected()
	if err != nil || n == 0 {
		return 0, err
	}
	return result.LastInsertId()
}

// ReplaceLabs swaps the whole directory for labs, preserving their order.
// Rows repeating an earlier name and school are dropped.
func (db *DB) ReplaceLabs(labs []Lab) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM labs"); err != nil {
		return 0, fmt.Errorf("clearing labs: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO labs (position, name, professor, professor_email, school, department, url, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, school) DO NOTHING`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for i, l := range labs {
		res, err := stmt.Exec(i, l.Name, l.Professor, l.ProfessorEmail, l.School, l.Department, l.URL, l.Description)
		if err != nil {
			return 0, fmt.Errorf("inserting lab %q: %w", l.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// GetAllLabs returns every lab in directory order.
func (db *DB) GetAllLabs() ([]Lab, error) {
	return db.queryLabs("SELECT " + labColumns + " FROM labs ORDER BY position, id")
}

// GetLab returns a single lab by ID, or nil when it does not exist.
func (db *DB) GetLab(id int64) (*Lab, error) {
	labs, err := db.queryLabs("SELECT "+labColumns+" FROM labs WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(labs) == 0 {
		return nil, nil
	}
	return &labs[0], nil
}

// GetLabsNeedingEnrichment returns labs with a website that were never
// enriched and either lack a contact email or have a description shorter
// than minDescription characters.
func (db *DB) GetLabsNeedingEnrichment(minDescription int) ([]Lab, error) {
	return db.queryLabs(
		"SELECT "+labColumns+` FROM labs
		WHERE url != '' AND enriched_at IS NULL
		AND (professor_email = '' OR length(description) < ?)
		ORDER BY position, id`,
		minDescription,
	)
}

// UpdateLabEnrichment stores fetched details and marks the lab enriched.
// Nil arguments leave the existing value untouched.
func (db *DB) UpdateLabEnrichment(id int64, description, email *string) error {
	_, err := db.conn.Exec(
		`UPDATE labs SET
			description = COALESCE(?, description),
			professor_email = COALESCE(?, professor_email),
			enriched_at = datetime('now')
		WHERE id = ?`,
		description, email, id,
	)
	return err
}

// CountLabs returns the number of stored labs.
func (db *DB) CountLabs() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM labs").Scan(&n)
	return n, err
}

func (db *DB) queryLabs(query string, args ...any) ([]Lab, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLabs(rows)
}

func scanLabs(rows *sql.Rows) ([]Lab, error) {
	var labs []Lab
	for rows.Next() {
		var l Lab
		if err := rows.Scan(&l.ID, &l.Position, &l.Name, &l.Professor, &l.ProfessorEmail,
			&l.School, &l.Department, &l.URL, &l.Description, &l.EnrichedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		labs = append(labs, l)
	}
	return labs, rows.Err()
}
