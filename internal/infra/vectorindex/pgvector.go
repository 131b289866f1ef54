package vectorindex

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// PGVector keeps chunk embeddings in a Postgres table using the pgvector extension.
type PGVector struct {
	db *sql.DB
}

func NewPGVector(db *sql.DB) *PGVector {
	return &PGVector{db: db}
}

// EnsureSchema creates the extension and table when missing.
func (p *PGVector) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS chunk_embeddings (
  id         TEXT PRIMARY KEY,
  blob_url   TEXT NOT NULL,
  chunk_text TEXT NOT NULL,
  embedding  vector NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
	_, err := p.db.ExecContext(ctx, q)
	return err
}

// Upsert inserts or replaces the chunk with the same id
func (p *PGVector) Upsert(ctx context.Context, e domain.IndexEntry) error {
	const q = `
INSERT INTO chunk_embeddings (id, blob_url, chunk_text, embedding, updated_at)
VALUES ($1,$2,$3,$4,now())
ON CONFLICT (id) DO UPDATE SET
  blob_url=EXCLUDED.blob_url,
  chunk_text=EXCLUDED.chunk_text,
  embedding=EXCLUDED.embedding,
  updated_at=EXCLUDED.updated_at;
`
	_, err := p.db.ExecContext(ctx, q, e.ID, e.SourceURL, e.Text, pgvector.NewVector(e.Embedding))
	return err
}
