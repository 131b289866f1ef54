package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/mocks"
)

func para(content string, offset ...int) domain.Paragraph {
	p := domain.Paragraph{Content: content}
	for _, o := range offset {
		p.Spans = append(p.Spans, domain.Span{Offset: o, Length: len(content)})
	}
	return p
}

func TestReadingOrder(t *testing.T) {
	req := require.New(t)
	in := []domain.Paragraph{
		para("third", 30),
		para("  first  ", 10),
		para("no span"),
		para("   ", 5),
		para("second", 20),
		para("also no span"),
	}
	req.Equal("no span\nalso no span\nfirst\nsecond\nthird", ReadingOrder(in))
	req.Equal("third", in[0].Content)
}

func TestReadingOrder_Cap(t *testing.T) {
	out := ReadingOrder([]domain.Paragraph{para(strings.Repeat("à", 50000), 0)})
	require.Equal(t, domain.MaxExtractedChars, utf8.RuneCountInString(out))
}

func TestDocumentPrompt(t *testing.T) {
	req := require.New(t)
	long := strings.Repeat("a", 5000)

	p := DocumentPrompt(long, "")
	req.True(strings.HasPrefix(p, "Texte du PDF:\n"+strings.Repeat("a", 2000)+"\n\n"))
	req.True(strings.HasSuffix(p, defaultDocumentInstruction))

	p = DocumentPrompt("court", " liste les dates ")
	req.Equal("Texte du PDF:\ncourt\n\nConsigne: liste les dates", p)
}

func TestAnalyzePDF(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	layout := mocks.NewMockLayoutExtractor(ctrl)
	chat := mocks.NewMockChatModel(ctrl)
	a := &DocumentAnalyzer{Layout: layout, Chat: chat}

	layout.EXPECT().ExtractLayout(gomock.Any(), []byte("%PDF")).Return([]domain.Paragraph{para("B", 2), para("A", 1)}, nil)
	chat.EXPECT().Complete(gomock.Any(), domain.ChatRequest{
		System:      documentSystemPrompt,
		User:        DocumentPrompt("A\nB", "Résume"),
		Temperature: analysisTemperature,
	}).Return("  Résumé.  ", nil)

	ex, err := a.AnalyzePDF(context.Background(), []byte("%PDF"), "Résume")
	req.NoError(err)
	req.Equal(domain.Extraction{Text: "A\nB", Summary: "Résumé."}, ex)
}

func TestAnalyzePDF_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	layout := mocks.NewMockLayoutExtractor(ctrl)
	chat := mocks.NewMockChatModel(ctrl)
	a := &DocumentAnalyzer{Layout: layout, Chat: chat}

	layout.EXPECT().ExtractLayout(gomock.Any(), gomock.Any()).Return(nil, errors.New("model busy"))
	_, err := a.AnalyzePDF(context.Background(), nil, "")
	require.ErrorIs(t, err, domain.ErrExtractionFailed)

	layout.EXPECT().ExtractLayout(gomock.Any(), gomock.Any()).Return(nil, nil)
	chat.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", domain.ErrQuotaExceeded)
	_, err = a.AnalyzePDF(context.Background(), nil, "")
	require.ErrorIs(t, err, domain.ErrSummarizationFailed)
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestAnalyzeImage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockChatModel(ctrl)
	a := &ImageAnalyzer{Chat: chat}

	chat.EXPECT().Complete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r domain.ChatRequest) (string, error) {
		req.Equal("data:image/png;base64,iVBO", r.ImageDataURL)
		req.Equal(imageSystemPrompt, r.System)
		req.Equal(ImagePrompt(""), r.User)
		return " Texte détecté : STOP ", nil
	})

	ex, err := a.AnalyzeImage(context.Background(), []byte{0x89, 0x50, 0x4e}, "image/png", "")
	req.NoError(err)
	req.Equal("Texte détecté : STOP", ex.Text)
	req.Equal(ex.Text, ex.Summary)
}
