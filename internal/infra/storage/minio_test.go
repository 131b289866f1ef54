package storage

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

func TestSplitBlobURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		container string
		key       string
		wantErr   bool
	}{
		{"simple", "https://sa.blob.core.windows.net/uploads/a.pdf", "uploads", "a.pdf", false},
		{"nested path", "https://sa.blob.core.windows.net/uploads/web/20250101T101010-abcd1234.pdf", "uploads", "web/20250101T101010-abcd1234.pdf", false},
		{"escaped", "http://minio:9000/uploads/web/mon%20fichier.png", "uploads", "web/mon fichier.png", false},
		{"query dropped", "https://sa/uploads/a.pdf?sv=2024&sig=x", "uploads", "a.pdf", false},
		{"no blob path", "https://sa.blob.core.windows.net/uploads", "", "", true},
		{"empty blob path", "https://sa.blob.core.windows.net/uploads/", "", "", true},
		{"not a url", "a.pdf", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			c, k, err := SplitBlobURL(tt.url)
			if tt.wantErr {
				req.ErrorIs(err, domain.ErrMalformedURL)
				return
			}
			req.NoError(err)
			req.Equal(tt.container, c)
			req.Equal(tt.key, k)
		})
	}
}

func TestEscapeKey(t *testing.T) {
	require.Equal(t, "web/mon%20fichier.pdf", EscapeKey("web/mon fichier.pdf"))
}

func TestMapError(t *testing.T) {
	req := require.New(t)
	notFound := minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}
	denied := minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}

	req.ErrorIs(mapError("c", "k", notFound), domain.ErrNotFound)
	req.ErrorIs(mapError("c", "k", denied), domain.ErrAccessDenied)

	other := mapError("c", "k", errors.New("reset by peer"))
	req.False(errors.Is(other, domain.ErrNotFound))
	req.False(errors.Is(other, domain.ErrAccessDenied))
}
