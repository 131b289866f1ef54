package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *SearchIndex {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	s := NewSearchIndex(srv.URL, "search-key", "docs")
	s.Retry = retry.Policy{Attempts: 2, BaseDelay: time.Millisecond}
	return s
}

func TestUpsert_SendsUploadAction(t *testing.T) {
	req := require.New(t)
	var body struct {
		Value []map[string]any `json:"value"`
	}
	s := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/indexes/docs/docs/index", r.URL.Path)
		req.Equal("2024-07-01", r.URL.Query().Get("api-version"))
		req.Equal("search-key", r.Header.Get("api-key"))
		req.NoError(json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"value":[{"key":"aWQ=","status":true,"statusCode":201}]}`))
	})

	err := s.Upsert(context.Background(), domain.IndexEntry{
		ID:        "aWQ=",
		SourceURL: "https://sa/uploads/a.pdf",
		Text:      "bonjour",
		Embedding: []float32{1, 2},
	})
	req.NoError(err)
	req.Len(body.Value, 1)
	doc := body.Value[0]
	req.Equal("upload", doc["@search.action"])
	req.Equal("aWQ=", doc["id"])
	req.Equal("https://sa/uploads/a.pdf", doc["blob_url"])
	req.Equal("bonjour", doc["chunk_text"])
	req.Equal([]any{1.0, 2.0}, doc["embedding"])
}

func TestUpsert_RejectedDocument(t *testing.T) {
	req := require.New(t)
	calls := 0
	s := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write([]byte(`{"value":[{"key":"x","status":false,"statusCode":400,"errorMessage":"bad field"}]}`))
	})

	err := s.Upsert(context.Background(), domain.IndexEntry{ID: "x"})
	req.ErrorContains(err, "bad field")
	req.Equal(1, calls)
}

func TestUpsert_RetriesServerErrors(t *testing.T) {
	req := require.New(t)
	calls := 0
	s := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"value":[{"key":"x","status":true,"statusCode":200}]}`))
	})

	req.NoError(s.Upsert(context.Background(), domain.IndexEntry{ID: "x"}))
	req.Equal(2, calls)
}
