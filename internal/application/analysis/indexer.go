package analysis

import (
	"context"
	"fmt"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// Indexer embeds text chunk by chunk and upserts each chunk into the vector index.
type Indexer struct {
	Embedder domain.Embedder
	Store    domain.VectorIndex
	Window   int
}

// Index returns the ids written, in chunk order. On failure the ids written so far
// are returned together with the error.
func (ix *Indexer) Index(ctx context.Context, sourceURL, text string) ([]string, error) {
	ids := []string{}
	for c := range Chunks(text, ix.Window) {
		vec, err := ix.Embedder.Embed(ctx, c.Text)
		if err != nil {
			return ids, fmt.Errorf("%w: embed chunk %d: %w", domain.ErrIndexingFailed, c.Index, err)
		}
		entry := domain.IndexEntry{
			ID:        EntryID(sourceURL, c.Index),
			SourceURL: sourceURL,
			Text:      c.Text,
			Embedding: vec,
		}
		if err := ix.Store.Upsert(ctx, entry); err != nil {
			return ids, fmt.Errorf("%w: upsert chunk %d: %w", domain.ErrIndexingFailed, c.Index, err)
		}
		ids = append(ids, entry.ID)
	}
	return ids, nil
}
