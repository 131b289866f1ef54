package layout

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// LocalPDF extracts text in-process. It is used when no layout service is
// configured; paragraphs are blocks separated by blank lines and offsets count
// bytes across pages.
type LocalPDF struct {
	Logger *slog.Logger
}

// ExtractLayout never panics: the pdf package panics on malformed objects,
// which is reported as an error instead.
func (e *LocalPDF) ExtractLayout(ctx context.Context, data []byte) (paragraphs []domain.Paragraph, err error) {
	defer func() {
		if r := recover(); r != nil {
			paragraphs, err = nil, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	offset := 0
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			e.logger().Warn("null page encountered", slog.Int("page_number", i))
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		paragraphs = append(paragraphs, SplitParagraphs(text, offset)...)
		offset += len(text)
	}
	return paragraphs, nil
}

// SplitParagraphs cuts text on blank lines; each paragraph's span offset is
// base plus its byte position in text.
func SplitParagraphs(text string, base int) []domain.Paragraph {
	var out []domain.Paragraph
	pos := 0
	for _, block := range strings.Split(text, "\n\n") {
		if c := strings.TrimSpace(block); c != "" {
			out = append(out, domain.Paragraph{
				Content: c,
				Spans:   []domain.Span{{Offset: base + pos, Length: len(block)}},
			})
		}
		pos += len(block) + 2
	}
	return out
}

func (e *LocalPDF) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
