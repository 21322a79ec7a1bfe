package database

// InsertEmailDraft records a generated outreach email.
func (db *DB) InsertEmailDraft(d EmailDraft) (int64, error) {
	passed := 0
	if d.Passed {
		passed = 1
	}
	result, err := db.conn.Exec(
		`INSERT INTO email_drafts (professor, lab_name, student_name, body, iterations, passed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Professor, d.LabName, d.StudentName, d.Body, d.Iterations, passed,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRecentDrafts returns the newest drafts first.
func (db *DB) GetRecentDrafts(limit int) ([]EmailDraft, error) {
	rows, err := db.conn.Query(
		`SELECT id, professor, lab_name, student_name, body, iterations, passed, created_at
		FROM email_drafts ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []EmailDraft
	for rows.Next() {
		var d EmailDraft
		var passed int
		if err := rows.Scan(&d.ID, &d.Professor, &d.LabName, &d.StudentName, &d.Body, &d.Iterations, &passed, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Passed = passed != 0
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM labs", &s.Labs},
		{"SELECT COUNT(DISTINCT school) FROM labs WHERE school != ''", &s.Schools},
		{"SELECT COUNT(DISTINCT professor) FROM labs WHERE professor != '' AND professor != 'Unknown'", &s.Professors},
		{"SELECT COUNT(*) FROM labs WHERE enriched_at IS NOT NULL", &s.EnrichedLabs},
		{"SELECT COUNT(*) FROM email_drafts", &s.Drafts},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}
