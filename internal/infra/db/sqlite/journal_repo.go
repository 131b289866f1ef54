// Package sqlite keeps the analysis journal in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	domain "github.com/bryanwahyu/docbridge/internal/domain/journal"
)

// created_at is stored as fixed-width UTC text so it sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens (creating if needed) the database at path. ":memory:" is accepted.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_journal (
  id         TEXT PRIMARY KEY,
  blob_url   TEXT NOT NULL,
  kind       TEXT NOT NULL,
  summary    TEXT NOT NULL,
  error      TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_created ON analysis_journal (created_at);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

func (r *JournalRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO analysis_journal (id, blob_url, kind, summary, error, created_at)
VALUES (?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
  blob_url=excluded.blob_url,
  kind=excluded.kind,
  summary=excluded.summary,
  error=excluded.error;
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, string(e.ID), e.SourceURL, e.Kind, e.Summary, e.Error, createdAt.UTC().Format(timeLayout))
	return err
}

// Paginate returns a page of entries, newest first.
func (r *JournalRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	const q = `
SELECT id, blob_url, kind, summary, error, created_at
FROM analysis_journal
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Entry{}
	for rows.Next() {
		var (
			e       domain.Entry
			id      string
			created string
		)
		if err := rows.Scan(&id, &e.SourceURL, &e.Kind, &e.Summary, &e.Error, &created); err != nil {
			return nil, err
		}
		e.ID = domain.EntryID(id)
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at of %s: %w", id, err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
