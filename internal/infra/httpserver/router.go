package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/docbridge/internal/application/analysis"
	"github.com/bryanwahyu/docbridge/internal/application/uploads"
	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/domain/channel"
	"github.com/bryanwahyu/docbridge/internal/domain/journal"
	"github.com/bryanwahyu/docbridge/internal/infra/botframework"
	"github.com/bryanwahyu/docbridge/internal/middleware"
)

type Analyzer interface {
	Analyze(ctx context.Context, req domain.Request) ([]domain.Result, error)
}

type Relayer interface {
	Relay(ctx context.Context, message string) (string, error)
}

type Uploader interface {
	Issue(ctx context.Context, userID string, files []uploads.FileSpec) ([]uploads.Upload, error)
}

type TokenIssuer interface {
	GenerateToken(ctx context.Context, userID string) (*botframework.TokenResponse, error)
}

// TurnRunner schedules a bot turn outside the request.
type TurnRunner interface {
	Go(ctx context.Context, a channel.Activity)
}

// Deps are the collaborators behind the routes. Nil optional collaborators
// make their routes answer 503.
type Deps struct {
	Logger  *slog.Logger
	Metrics *middleware.Metrics
	Limiter *middleware.RateLimiter

	Auth  channel.Authenticator
	Turns TurnRunner

	Dispatcher Analyzer
	Documents  analysis.PDFAnalyzer
	Images     analysis.ImageReader
	Relay      Relayer
	Uploads    Uploader
	Tokens     TokenIssuer
	Journal    journal.Repository

	Ready       map[string]middleware.HealthChecker
	APIKeys     []string
	CORSOrigins []string

	ChatTimeout     time.Duration
	AnalysisTimeout time.Duration
}

type Router struct {
	Deps
	log *slog.Logger
}

const (
	maxActivityBytes  = 1 << 20
	maxJSONBytes      = 4 << 20
	maxMultipartBytes = 32 << 20
)

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = middleware.NewMetrics()
	}
	r := &Router{Deps: d, log: d.Logger}
	mux := chi.NewRouter()

	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.RequestLogger(d.Logger))
	mux.Use(chimw.Recoverer)
	mux.Use(d.Metrics.Middleware)
	if d.Limiter != nil {
		mux.Use(d.Limiter.Middleware)
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(d.CORSOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.FunctionKeyHeader},
		MaxAge:         300,
	}))

	mux.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Bot up and running"))
	})
	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/ready", middleware.HealthHandler(d.Ready))
	mux.Get("/metrics", d.Metrics.Handler)

	mux.With(middleware.RequireJSON, middleware.RequireBearer(d.Logger)).
		Post("/api/messages", r.wrap(r.handleMessages))

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.FunctionKeyAuth(d.APIKeys))
		rt.Post("/api/analyze", r.wrap(r.handleAnalyze))
		rt.Post("/api/process", r.wrap(r.handleProcess))
		rt.Post("/api/chat", r.wrap(r.handleChat))
		rt.Post("/api/uploads", r.wrap(r.handleUploads))
		rt.Get("/api/journal", r.wrap(r.handleJournal))
	})

	mux.Get("/api/token", r.wrap(r.handleToken))
	mux.Post("/api/token", r.wrap(r.handleToken))

	return mux
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError is returned by handlers for responses whose exact text matters.
// cause, when set, is the sentinel the response stands for.
type httpError struct {
	status int
	msg    string
	json   bool
	cause  error
}

func (e *httpError) Error() string { return fmt.Sprintf("%d %s", e.status, e.msg) }

func (e *httpError) Unwrap() error { return e.cause }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func jsonError(status int, msg string) error {
	return &httpError{status: status, msg: msg, json: true}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var he *httpError
		switch {
		case errors.As(err, &he):
			if he.json {
				writeJSON(w, he.status, map[string]string{"error": he.msg})
				return
			}
			http.Error(w, he.msg, he.status)
		case errors.Is(err, channel.ErrMissingAuth), errors.Is(err, channel.ErrUnauthorized):
			r.log.Warn("bot authentication rejected",
				slog.String("authorization", middleware.MaskAuth(req.Header.Get("Authorization"))),
				slog.String("error", err.Error()))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		case errors.Is(err, domain.ErrUnsupportedType):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported file type."})
		case errors.Is(err, domain.ErrEmptyMessage):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing 'message' in request."})
		case errors.Is(err, domain.ErrQuotaExceeded):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "ai quota exceeded"})
		case errors.Is(err, domain.ErrNotConfigured):
			r.log.Warn("feature not configured", slog.String("path", req.URL.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "service not configured"})
		case errors.Is(err, context.DeadlineExceeded):
			writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": analysis.StageMessage(err)})
		case isUpstream(err):
			r.log.Error("upstream failure", slog.String("path", req.URL.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": analysis.StageMessage(err)})
		default:
			r.log.Error("unhandled error", slog.String("path", req.URL.Path), slog.String("error", err.Error()))
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}
}

func isUpstream(err error) bool {
	for _, target := range []error{
		domain.ErrMalformedURL, domain.ErrNotFound, domain.ErrAccessDenied,
		domain.ErrExtractionFailed, domain.ErrSummarizationFailed, domain.ErrIndexingFailed,
		domain.ErrBackendUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func notConfigured(what string) error {
	return fmt.Errorf("%s: %w", what, domain.ErrNotConfigured)
}
