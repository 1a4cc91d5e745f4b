package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kingrea/careerflow/internal/kanban"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	company TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	deadline TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NULL,
	updated_at TIMESTAMP NULL
);
CREATE INDEX IF NOT EXISTS jobs_position ON jobs(position);
`

// SQLiteStore keeps the collection in a local SQLite database. Collection
// order is kept in the position column.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and migrates) the database at path. Options are
// accepted for parity with NewFileStore; rows carry their own timestamps.
func OpenSQLite(ctx context.Context, path string, _ ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("jobs: ensure db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jobs: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("jobs: configure sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("jobs: migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load returns the collection in stored order.
func (s *SQLiteStore) Load(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company, title, status, deadline, location, url, notes, created_at, updated_at
		FROM jobs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("jobs: query jobs: %w", err)
	}
	defer rows.Close()

	list := []Job{}
	for rows.Next() {
		var (
			job       Job
			id        string
			createdAt sql.NullTime
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&id, &job.Company, &job.Title, &job.Status, &job.Deadline,
			&job.Location, &job.URL, &job.Notes, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("jobs: scan job: %w", err)
		}
		job.ID = kanban.JobID(id)
		if createdAt.Valid {
			job.CreatedAt = createdAt.Time.UTC()
		}
		if updatedAt.Valid {
			job.UpdatedAt = updatedAt.Time.UTC()
		}
		list = append(list, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs: iterate jobs: %w", err)
	}
	return list, nil
}

// Replace rewrites the table inside one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, list []Job) error {
	if err := CheckUnique(list); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("jobs: begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
		return fmt.Errorf("jobs: clear jobs: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO jobs (id, position, company, title, status, deadline, location, url, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("jobs: prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, job := range list {
		if _, err := stmt.ExecContext(ctx,
			string(job.ID), i, job.Company, job.Title, job.Status, job.Deadline,
			job.Location, job.URL, job.Notes, nullTime(job.CreatedAt), nullTime(job.UpdatedAt),
		); err != nil {
			return fmt.Errorf("jobs: insert %s: %w", job.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("jobs: commit: %w", err)
	}
	committed = true
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
