package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// Metrics stores application counters. It records analysed files and bot
// turns in addition to HTTP traffic.
type Metrics struct {
	RequestsTotal      atomic.Uint64
	RequestsInProgress atomic.Int64
	RequestsSuccess    atomic.Uint64
	RequestsFailed     atomic.Uint64

	FilesPDF     atomic.Uint64
	FilesImage   atomic.Uint64
	FilesUnknown atomic.Uint64
	FilesFailed  atomic.Uint64

	TurnsTotal  atomic.Uint64
	TurnsFailed atomic.Uint64

	StartTime time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// FileAnalyzed counts one dispatched file.
func (m *Metrics) FileAnalyzed(kind domain.Kind, failed bool) {
	switch kind {
	case domain.KindPDF:
		m.FilesPDF.Add(1)
	case domain.KindImage:
		m.FilesImage.Add(1)
	default:
		m.FilesUnknown.Add(1)
	}
	if failed {
		m.FilesFailed.Add(1)
	}
}

// TurnHandled counts one bot turn.
func (m *Metrics) TurnHandled(_ string, failed bool) {
	m.TurnsTotal.Add(1)
	if failed {
		m.TurnsFailed.Add(1)
	}
}

// Snapshot returns current metrics
func (m *Metrics) Snapshot() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return map[string]any{
		"requests_total":       m.RequestsTotal.Load(),
		"requests_in_progress": m.RequestsInProgress.Load(),
		"requests_success":     m.RequestsSuccess.Load(),
		"requests_failed":      m.RequestsFailed.Load(),
		"files_analyzed": map[string]uint64{
			"pdf":     m.FilesPDF.Load(),
			"image":   m.FilesImage.Load(),
			"unknown": m.FilesUnknown.Load(),
		},
		"files_failed":   m.FilesFailed.Load(),
		"turns_total":    m.TurnsTotal.Load(),
		"turns_failed":   m.TurnsFailed.Load(),
		"uptime_seconds": time.Since(m.StartTime).Seconds(),
		"memory": map[string]any{
			"alloc_bytes":       mem.Alloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"sys_bytes":         mem.Sys,
			"num_gc":            mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// Middleware tracks request metrics
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsTotal.Add(1)
		m.RequestsInProgress.Add(1)
		defer m.RequestsInProgress.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			m.RequestsSuccess.Add(1)
		} else {
			m.RequestsFailed.Add(1)
		}
	})
}

// Handler returns metrics as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.Snapshot())
}
