package analysis

import "strings"

// Kind of analysed file
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindImage   Kind = "image"
	KindUnknown Kind = "unknown"
)

// Text caps, counted in characters (runes).
const (
	MaxExtractedChars = 20000
	MaxPromptChars    = 2000
)

// UploadedFile points to a blob produced by the upload step.
type UploadedFile struct {
	SourceURL   string `json:"blobUrl" validate:"required"`
	ContentType string `json:"contentType"`
}

// Request is one dispatch call; it is not mutated while being processed.
type Request struct {
	Files       []UploadedFile
	Instruction string
}

// Result is produced for every UploadedFile, in input order.
type Result struct {
	Kind          Kind     `json:"type"`
	ExtractedText string   `json:"text"`
	Summary       string   `json:"summary"`
	IndexIDs      []string `json:"embedding_ids"`
	Error         string   `json:"error,omitempty"`
}

// Extraction is what an analyzer returns for a single file.
type Extraction struct {
	Text    string
	Summary string
}

// Chunk is a window of whitespace tokens.
type Chunk struct {
	Text  string
	Index int
}

// IndexEntry is a single embedded chunk upserted into the vector index.
type IndexEntry struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"blob_url"`
	Text      string    `json:"chunk_text"`
	Embedding []float32 `json:"embedding"`
}

// Span locates a paragraph inside the source document.
type Span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

// Paragraph as returned by the layout extraction service.
type Paragraph struct {
	Content string `json:"content"`
	Spans   []Span `json:"spans"`
}

// Offset is the first span offset, 0 when the paragraph has no span.
func (p Paragraph) Offset() int {
	if len(p.Spans) == 0 {
		return 0
	}
	return p.Spans[0].Offset
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Classify decides how a file is analysed from its content type and URL.
func Classify(f UploadedFile) Kind {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	switch {
	case ct == "application/pdf" || strings.HasSuffix(strings.ToLower(f.SourceURL), ".pdf"):
		return KindPDF
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	default:
		return KindUnknown
	}
}
