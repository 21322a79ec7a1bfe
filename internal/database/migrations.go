package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "labs table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS labs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    position INTEGER NOT NULL DEFAULT 0,
    name TEXT NOT NULL,
    professor TEXT NOT NULL DEFAULT '',
    professor_email TEXT NOT NULL DEFAULT '',
    school TEXT NOT NULL DEFAULT '',
    department TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    enriched_at TEXT,
    created_at TEXT DEFAULT (datetime('now')),
    UNIQUE (name, school)
);

CREATE INDEX IF NOT EXISTS idx_labs_position ON labs(position);
CREATE INDEX IF NOT EXISTS idx_labs_school ON labs(school);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "email drafts",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS email_drafts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    professor TEXT NOT NULL,
    lab_name TEXT NOT NULL,
    student_name TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL,
    iterations INTEGER NOT NULL DEFAULT 0,
    passed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_email_drafts_professor ON email_drafts(professor);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
