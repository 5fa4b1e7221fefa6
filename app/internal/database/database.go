package database

import (
	"database/sql"
	"fmt"
	"time"

	"uptime/app/internal/models"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// Fixed-width UTC layout so that taken_at sorts chronologically as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Init initializes the database connection and creates schema
func Init(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// A single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	DB = db

	return EnsureSchema()
}

// Close closes the global database handle
func Close() error {
	if DB == nil {
		return nil
	}
	return DB.Close()
}

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS samples (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  status TEXT NOT NULL CHECK (status IN ('online', 'offline', 'unknown')),
  taken_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_taken ON samples(taken_at);

CREATE TABLE IF NOT EXISTS system_logs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  timestamp TEXT NOT NULL,
  level TEXT NOT NULL,
  category TEXT NOT NULL,
  message TEXT NOT NULL,
  details TEXT
);
CREATE INDEX IF NOT EXISTS idx_system_logs_ts ON system_logs(timestamp);
`)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// InsertSamples appends samples to the log in a single transaction
func InsertSamples(samples ...models.StatusSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`INSERT INTO samples (status, taken_at) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if !s.Status.Valid() {
			return fmt.Errorf("insert sample: invalid status %q", s.Status)
		}
		if _, err := stmt.Exec(string(s.Status), formatTime(s.Time)); err != nil {
			return fmt.Errorf("insert sample: %w", err)
		}
	}
	return tx.Commit()
}

// FetchSamples returns the complete sample history in ascending time order
func FetchSamples() ([]models.StatusSample, error) {
	rows, err := DB.Query(`SELECT status, taken_at FROM samples ORDER BY taken_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []models.StatusSample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// LastSample returns the most recent sample, or nil when the log is empty
func LastSample() (*models.StatusSample, error) {
	row := DB.QueryRow(`SELECT status, taken_at FROM samples ORDER BY taken_at DESC, id DESC LIMIT 1`)
	s, err := scanSample(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CountSamples returns the number of stored samples
func CountSamples() (int, error) {
	var n int
	err := DB.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSample(row scanner) (models.StatusSample, error) {
	var status, takenAt string
	if err := row.Scan(&status, &takenAt); err != nil {
		return models.StatusSample{}, err
	}
	kind, err := models.ParseStatusKind(status)
	if err != nil {
		return models.StatusSample{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return models.StatusSample{}, fmt.Errorf("sample time %q: %w", takenAt, err)
	}
	return models.StatusSample{Status: kind, Time: ts}, nil
}
