package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/docbridge/internal/domain/journal"
)

type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// EnsureSchema creates the journal table when missing.
func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS analysis_journal (
  id         VARCHAR(64)  NOT NULL PRIMARY KEY,
  blob_url   VARCHAR(2048) NOT NULL,
  kind       VARCHAR(16)  NOT NULL,
  summary    MEDIUMTEXT   NOT NULL,
  error      TEXT         NOT NULL,
  created_at DATETIME(6)  NOT NULL,
  KEY idx_journal_created (created_at)
);
`
	_, err := r.db.ExecContext(ctx, q)
	return err
}

// Save inserts a journal entry
func (r *JournalRepository) Save(ctx context.Context, e *domain.Entry) error {
	const q = `
INSERT INTO analysis_journal
  (id, blob_url, kind, summary, error, created_at)
VALUES (?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  blob_url=VALUES(blob_url), kind=VALUES(kind), summary=VALUES(summary), error=VALUES(error);
`
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, e.ID, stringOrDash(e.SourceURL), stringOrDash(e.Kind), e.Summary, e.Error, createdAt.UTC())
	return err
}

// Paginate returns a page of entries ordered by created_at desc
func (r *JournalRepository) Paginate(ctx context.Context, page, pageSize int) ([]*domain.Entry, error) {
	limit, offset := pageBounds(page, pageSize)

	const q = `
SELECT id, blob_url, kind, summary, error, created_at
FROM analysis_journal
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
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
