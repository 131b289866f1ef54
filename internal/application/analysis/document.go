package analysis

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// DocumentAnalyzer extracts PDF text through the layout service and summarizes it.
type DocumentAnalyzer struct {
	Layout domain.LayoutExtractor
	Chat   domain.ChatModel
}

func (a *DocumentAnalyzer) AnalyzePDF(ctx context.Context, pdf []byte, instruction string) (domain.Extraction, error) {
	paragraphs, err := a.Layout.ExtractLayout(ctx, pdf)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}
	text := ReadingOrder(paragraphs)

	summary, err := a.Chat.Complete(ctx, domain.ChatRequest{
		System:      documentSystemPrompt,
		User:        DocumentPrompt(text, instruction),
		Temperature: analysisTemperature,
	})
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %w", domain.ErrSummarizationFailed, err)
	}
	return domain.Extraction{Text: text, Summary: strings.TrimSpace(summary)}, nil
}

// ReadingOrder stable-sorts paragraphs by offset and joins their trimmed content
// with newlines, capped at MaxExtractedChars. The input slice is not modified.
func ReadingOrder(paragraphs []domain.Paragraph) string {
	sorted := make([]domain.Paragraph, len(paragraphs))
	copy(sorted, paragraphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset() < sorted[j].Offset()
	})

	lines := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if c := strings.TrimSpace(p.Content); c != "" {
			lines = append(lines, c)
		}
	}
	return domain.Truncate(strings.Join(lines, "\n"), domain.MaxExtractedChars)
}

// ImageAnalyzer asks a vision model to read an image directly.
type ImageAnalyzer struct {
	Chat domain.ChatModel
}

func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, img []byte, mimeType, instruction string) (domain.Extraction, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img))
	reply, err := a.Chat.Complete(ctx, domain.ChatRequest{
		System:       imageSystemPrompt,
		User:         ImagePrompt(instruction),
		ImageDataURL: dataURL,
		Temperature:  analysisTemperature,
	})
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %w", domain.ErrSummarizationFailed, err)
	}
	text := domain.Truncate(strings.TrimSpace(reply), domain.MaxExtractedChars)
	return domain.Extraction{Text: text, Summary: text}, nil
}
