package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/docbridge/internal/domain/journal"
)

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
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_journal_created ON analysis_journal (created_at DESC);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts or updates a journal entry
func (r *JournalRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO analysis_journal
  (id, blob_url, kind, summary, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  blob_url=EXCLUDED.blob_url,
  kind=EXCLUDED.kind,
  summary=EXCLUDED.summary,
  error=EXCLUDED.error;
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, e.ID, stringOrDash(e.SourceURL), stringOrDash(e.Kind), e.Summary, e.Error, createdAt)
	return err
}

// Paginate returns a page of entries ordered by created_at desc
func (r *JournalRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Entry, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, blob_url, kind, summary, error, created_at
FROM analysis_journal
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2;
`
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Entry{}
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.ID, &e.SourceURL, &e.Kind, &e.Summary, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func stringOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
