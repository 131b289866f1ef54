package analysis

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=port.go -destination=../../mocks/mock_analysis.go -package=mocks

// BlobReader resolves a storage URL into raw bytes.
type BlobReader interface {
	Read(ctx context.Context, sourceURL string) ([]byte, error)
}

// LayoutExtractor turns PDF bytes into paragraphs.
type LayoutExtractor interface {
	ExtractLayout(ctx context.Context, pdf []byte) ([]Paragraph, error)
}

// ChatRequest is a single-turn completion request. ImageDataURL is optional.
type ChatRequest struct {
	System       string
	User         string
	ImageDataURL string
	Temperature  float32
}

// ChatModel is the chat-completion endpoint.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Embedder computes an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores embedded chunks. Upsert replaces an entry with the same ID.
type VectorIndex interface {
	Upsert(ctx context.Context, entry IndexEntry) error
}
