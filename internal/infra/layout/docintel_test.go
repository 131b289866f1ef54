package layout

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

func newTestDI(t *testing.T, h http.Handler) *DocumentIntelligence {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewDocumentIntelligence(srv.URL, "di-key")
	c.PollInterval = time.Millisecond
	c.Retry = retry.Policy{Attempts: 2, BaseDelay: time.Millisecond}
	return c
}

func TestExtractLayout_PollsUntilSucceeded(t *testing.T) {
	req := require.New(t)
	var polls atomic.Int32
	mux := http.NewServeMux()
	var opURL string
	mux.HandleFunc("/documentintelligence/documentModels/prebuilt-layout:analyze", func(w http.ResponseWriter, r *http.Request) {
		req.Equal(http.MethodPost, r.Method)
		req.Equal("di-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		req.Equal("application/octet-stream", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		req.Equal("%PDF-1.7", string(body))
		w.Header().Set("Operation-Location", opURL)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"status":"running"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"succeeded","analyzeResult":{"paragraphs":[
			{"content":"second","spans":[{"offset":10,"length":6}]},
			{"content":"first","spans":[{"offset":0,"length":5}]}]}}`))
	})
	c := newTestDI(t, mux)
	opURL = c.Endpoint + "/operations/1"

	paras, err := c.ExtractLayout(context.Background(), []byte("%PDF-1.7"))
	req.NoError(err)
	req.Len(paras, 2)
	req.Equal("second", paras[0].Content)
	req.Equal(10, paras[0].Offset())
	req.EqualValues(3, polls.Load())
}

func TestExtractLayout_Failed(t *testing.T) {
	req := require.New(t)
	mux := http.NewServeMux()
	var opURL string
	mux.HandleFunc("/documentintelligence/documentModels/prebuilt-layout:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", opURL)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":{"code":"InvalidContent","message":"corrupted"}}`))
	})
	c := newTestDI(t, mux)
	opURL = c.Endpoint + "/operations/1"

	_, err := c.ExtractLayout(context.Background(), []byte("x"))
	req.ErrorContains(err, "InvalidContent")
}

func TestExtractLayout_SubmitRejected(t *testing.T) {
	req := require.New(t)
	var calls atomic.Int32
	c := newTestDI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"401"}}`))
	}))

	_, err := c.ExtractLayout(context.Background(), []byte("x"))
	req.ErrorContains(err, "status 401")
	req.EqualValues(1, calls.Load())
}

func TestExtractLayout_ContextTimeout(t *testing.T) {
	req := require.New(t)
	mux := http.NewServeMux()
	var opURL string
	mux.HandleFunc("/documentintelligence/documentModels/prebuilt-layout:analyze", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Operation-Location", opURL)
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"running"}`))
	})
	c := newTestDI(t, mux)
	c.PollInterval = 20 * time.Millisecond
	opURL = c.Endpoint + "/operations/1"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.ExtractLayout(ctx, []byte("x"))
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestSplitParagraphs(t *testing.T) {
	req := require.New(t)
	paras := SplitParagraphs("Titre\n\nCorps du texte\nsuite\n\n\n\nFin", 100)
	req.Len(paras, 3)
	req.Equal("Titre", paras[0].Content)
	req.Equal(100, paras[0].Offset())
	req.Equal("Corps du texte\nsuite", paras[1].Content)
	req.Equal(107, paras[1].Offset())
	req.Equal("Fin", paras[2].Content)
	req.Greater(paras[2].Offset(), paras[1].Offset())
}
