//go:build integration

package vectorindex

import (
	"context"
	"os"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/infra/db/postgres"
)

// Run with: PGVECTOR_TEST_DSN=postgres://... go test -tags integration ./internal/infra/vectorindex
func TestPGVector_UpsertReplacesSameID(t *testing.T) {
	dsn := os.Getenv("PGVECTOR_TEST_DSN")
	if dsn == "" {
		t.Skip("PGVECTOR_TEST_DSN not set")
	}
	req := require.New(t)
	ctx := context.Background()

	db, err := postgres.Connect(ctx, dsn)
	req.NoError(err)
	t.Cleanup(func() { db.Close() })
	store := NewPGVector(db)
	req.NoError(store.EnsureSchema(ctx))

	const id = "aHR0cHM6Ly9zYS90ZXN0LnBkZnww"
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, `DELETE FROM chunk_embeddings WHERE id = $1`, id) })

	req.NoError(store.Upsert(ctx, domain.IndexEntry{ID: id, SourceURL: "https://sa/test.pdf", Text: "avant", Embedding: []float32{1, 2, 3}}))
	req.NoError(store.Upsert(ctx, domain.IndexEntry{ID: id, SourceURL: "https://sa/test.pdf", Text: "après", Embedding: []float32{4, 5, 6}}))

	var (
		count int
		text  string
		vec   pgvector.Vector
	)
	req.NoError(db.QueryRowContext(ctx, `SELECT count(*) FROM chunk_embeddings WHERE id = $1`, id).Scan(&count))
	req.Equal(1, count)
	req.NoError(db.QueryRowContext(ctx, `SELECT chunk_text, embedding FROM chunk_embeddings WHERE id = $1`, id).Scan(&text, &vec))
	req.Equal("après", text)
	req.Equal([]float32{4, 5, 6}, vec.Slice())
}
