package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/docbridge/internal/application"
	"github.com/bryanwahyu/docbridge/internal/application/analysis"
	"github.com/bryanwahyu/docbridge/internal/application/bot"
	"github.com/bryanwahyu/docbridge/internal/application/chat"
	"github.com/bryanwahyu/docbridge/internal/application/uploads"
	"github.com/bryanwahyu/docbridge/internal/config"
	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/domain/journal"
	"github.com/bryanwahyu/docbridge/internal/infra/ai/openai"
	"github.com/bryanwahyu/docbridge/internal/infra/botframework"
	mysqlp "github.com/bryanwahyu/docbridge/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/docbridge/internal/infra/db/postgres"
	sqlitep "github.com/bryanwahyu/docbridge/internal/infra/db/sqlite"
	"github.com/bryanwahyu/docbridge/internal/infra/httpserver"
	"github.com/bryanwahyu/docbridge/internal/infra/layout"
	"github.com/bryanwahyu/docbridge/internal/infra/storage"
	"github.com/bryanwahyu/docbridge/internal/infra/vectorindex"
	"github.com/bryanwahyu/docbridge/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()
	ready := map[string]middleware.HealthChecker{}
	var closers []func() error
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()

	// chat model
	var model interface {
		domain.ChatModel
		domain.Embedder
	} = unconfigured("AZURE_OPENAI_ENDPOINT/AZURE_OPENAI_API_KEY")
	switch {
	case cfg.AzureOpenAI():
		model = openai.NewAzureClient(cfg.OpenAI.Endpoint, cfg.OpenAI.APIKey, cfg.OpenAI.APIVersion,
			cfg.OpenAI.Deployment, cfg.OpenAI.EmbeddingDeployment)
	case cfg.Chat():
		model = openai.NewClient(cfg.OpenAI.PublicAPIKey, cfg.OpenAI.BaseURL,
			cfg.OpenAI.Deployment, cfg.OpenAI.EmbeddingDeployment)
	default:
		logger.Warn("chat model not configured, chat and analysis will answer 503")
	}

	// layout extraction
	var extractor domain.LayoutExtractor = &layout.LocalPDF{Logger: logger}
	if cfg.LayoutService() {
		extractor = layout.NewDocumentIntelligence(cfg.Layout.Endpoint, cfg.Layout.Key)
	} else {
		logger.Warn("document intelligence not configured, using local PDF text extraction")
	}

	// blob storage
	var (
		blobs  domain.BlobReader = unconfigured("STORAGE_ACCOUNT_URL")
		upload httpserver.Uploader
	)
	if cfg.StorageEnabled() {
		store, err := storage.New(ctx,
			cfg.StorageEndpoint(),
			cfg.Storage.Region,
			cfg.Storage.Container,
			cfg.StorageAccessKey(),
			cfg.Storage.AccountKey,
			cfg.Storage.AccountURL,
			cfg.StorageSSL(),
		)
		if err != nil {
			return fmt.Errorf("storage init: %w", err)
		}
		blobs = store
		upload = &uploads.Service{Signer: store, Clock: application.SystemClock{}}
		ready["storage"] = middleware.CheckFunc(store.Check)
	} else {
		logger.Warn("storage not configured, uploads and analysis will answer 503")
	}

	// vector index
	var indexer analysis.TextIndexer
	switch cfg.VectorBackend() {
	case config.VectorSearch:
		indexer = &analysis.Indexer{
			Embedder: model,
			Store:    vectorindex.NewSearchIndex(cfg.Search.Endpoint, cfg.Search.Key, cfg.Search.Index),
			Window:   cfg.Analysis.ChunkWindow,
		}
	case config.VectorPGVector:
		db, err := pgp.Connect(ctx, cfg.Vector.DSN)
		if err != nil {
			return fmt.Errorf("pgvector connect: %w", err)
		}
		closers = append(closers, db.Close)
		pg := vectorindex.NewPGVector(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("pgvector schema: %w", err)
		}
		indexer = &analysis.Indexer{Embedder: model, Store: pg, Window: cfg.Analysis.ChunkWindow}
		ready["pgvector"] = &middleware.DatabaseHealthChecker{DB: db}
	default:
		logger.Warn("vector index not configured, PDF text will not be indexed")
	}

	// journal
	var repo journal.Repository
	if cfg.JournalEnabled() {
		db, r, err := openJournal(ctx, cfg.Journal.Driver, cfg.JournalDSN())
		if err != nil {
			return fmt.Errorf("journal: %w", err)
		}
		closers = append(closers, db.Close)
		repo = r
		ready["journal"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	policy, err := analysis.ParsePolicy(cfg.Analysis.FailurePolicy)
	if err != nil {
		return err
	}
	metrics := middleware.NewMetrics()

	// init services
	documents := &analysis.DocumentAnalyzer{Layout: extractor, Chat: model}
	images := &analysis.ImageAnalyzer{Chat: model}
	dispatcher := &analysis.Dispatcher{
		Blobs:       blobs,
		Documents:   documents,
		Images:      images,
		Indexer:     indexer,
		Journal:     repo,
		Metrics:     metrics,
		Clock:       application.SystemClock{},
		Logger:      logger,
		Policy:      policy,
		Parallelism: cfg.Analysis.Parallelism,
	}
	relay := chat.NewRelay(model)

	// bot
	if cfg.Bot.AppID == "" {
		logger.Warn("MicrosoftAppId not set, inbound activities are not verified")
	}
	turns := &bot.Runner{
		Handler: &bot.Handler{
			Relay:    relay,
			Analyzer: dispatcher,
			Sender:   botframework.NewConnector(cfg.Bot.AppID, cfg.Bot.AppPassword, ""),
			Metrics:  metrics,
			Logger:   logger,
		},
		Timeout: cfg.Server.AnalysisTimeout,
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitBurst, cfg.Server.RateLimitPerSec)
	defer limiter.Close()

	// init router
	handler := httpserver.NewRouter(httpserver.Deps{
		Logger:          logger,
		Metrics:         metrics,
		Limiter:         limiter,
		Auth:            botframework.NewTokenValidator(cfg.Bot.AppID),
		Turns:           turns,
		Dispatcher:      dispatcher,
		Documents:       documents,
		Images:          images,
		Relay:           relay,
		Uploads:         upload,
		Tokens:          botframework.NewDirectLine(cfg.Bot.DirectLineSecret),
		Journal:         repo,
		Ready:           ready,
		APIKeys:         cfg.APIKeyList(),
		CORSOrigins:     cfg.CORSOriginList(),
		ChatTimeout:     cfg.Server.ChatTimeout,
		AnalysisTimeout: cfg.Server.AnalysisTimeout,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.Server.AnalysisTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// run server
	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-stop:
	}
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	if err := turns.Wait(ctx2); err != nil {
		logger.Warn("bot turns still running at shutdown", slog.String("error", err.Error()))
	}
	return nil
}

type journalStore interface {
	journal.Repository
	EnsureSchema(ctx context.Context) error
}

func openJournal(ctx context.Context, driver, dsn string) (*sql.DB, journal.Repository, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, dsn)
	case "postgres":
		db, err = pgp.Connect(ctx, dsn)
	case "sqlite":
		db, err = sqlitep.Open(ctx, dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", driver, err)
	}

	var repo journalStore
	switch driver {
	case "mysql":
		repo = mysqlp.NewJournalRepository(db)
	case "postgres":
		repo = pgp.NewJournalRepository(db)
	default:
		repo = sqlitep.NewJournalRepository(db)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s schema: %w", driver, err)
	}
	return db, repo, nil
}
