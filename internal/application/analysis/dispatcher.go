package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/docbridge/internal/application"
	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/domain/journal"
)

// FailurePolicy decides what happens to a batch when one file fails.
type FailurePolicy string

const (
	// PolicyIsolate turns a failed file into an unknown result and keeps going.
	PolicyIsolate FailurePolicy = "isolate"
	// PolicyFailFast aborts the whole batch on the first failure.
	PolicyFailFast FailurePolicy = "fail_fast"
)

// ParsePolicy maps a configuration value to a FailurePolicy, defaulting to isolate.
func ParsePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyIsolate:
		return PolicyIsolate, nil
	case PolicyFailFast:
		return PolicyFailFast, nil
	default:
		return "", fmt.Errorf("unknown failure policy %q (allowed: isolate, fail_fast)", s)
	}
}

const unsupportedText = "Type non supporté."

type PDFAnalyzer interface {
	AnalyzePDF(ctx context.Context, pdf []byte, instruction string) (domain.Extraction, error)
}

type ImageReader interface {
	AnalyzeImage(ctx context.Context, img []byte, mimeType, instruction string) (domain.Extraction, error)
}

type TextIndexer interface {
	Index(ctx context.Context, sourceURL, text string) ([]string, error)
}

// Recorder receives one call per analysed file.
type Recorder interface {
	FileAnalyzed(kind domain.Kind, failed bool)
}

// Dispatcher routes each uploaded file to the right analyzer and aggregates the results.
// Indexer, Journal and Metrics are optional.
type Dispatcher struct {
	Blobs     domain.BlobReader
	Documents PDFAnalyzer
	Images    ImageReader
	Indexer   TextIndexer
	Journal   journal.Repository
	Metrics   Recorder
	Clock     application.Clock
	Logger    *slog.Logger

	Policy      FailurePolicy
	Parallelism int
}

// Analyze returns exactly one result per input file, in input order. Only the
// fail-fast policy can return an error.
func (d *Dispatcher) Analyze(ctx context.Context, req domain.Request) ([]domain.Result, error) {
	results := make([]domain.Result, len(req.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, d.Parallelism))
	for i, f := range req.Files {
		g.Go(func() error {
			if d.Policy == PolicyFailFast && gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := d.safeAnalyzeFile(gctx, f, req.Instruction)
			if err != nil {
				if d.Policy == PolicyFailFast {
					return fmt.Errorf("file %d (%s): %w", i+1, f.SourceURL, err)
				}
				d.logger().Error("file analysis failed",
					slog.Int("position", i+1),
					slog.String("blob_url", f.SourceURL),
					slog.String("error", err.Error()))
				res = failedResult(err)
			}
			results[i] = res
			d.observe(ctx, f, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// safeAnalyzeFile reports a panic in an analyzer as that file's extraction error.
func (d *Dispatcher) safeAnalyzeFile(ctx context.Context, f domain.UploadedFile, instruction string) (res domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = domain.Result{}, fmt.Errorf("%w: panic: %v", domain.ErrExtractionFailed, r)
		}
	}()
	return d.analyzeFile(ctx, f, instruction)
}

func (d *Dispatcher) analyzeFile(ctx context.Context, f domain.UploadedFile, instruction string) (domain.Result, error) {
	kind := domain.Classify(f)
	if kind == domain.KindUnknown {
		return domain.Result{
			Kind:          domain.KindUnknown,
			ExtractedText: unsupportedText,
			Summary:       unsupportedText,
			IndexIDs:      []string{},
		}, nil
	}

	raw, err := d.Blobs.Read(ctx, f.SourceURL)
	if err != nil {
		return domain.Result{}, err
	}

	var ex domain.Extraction
	switch kind {
	case domain.KindPDF:
		ex, err = d.Documents.AnalyzePDF(ctx, raw, instruction)
	case domain.KindImage:
		ex, err = d.Images.AnalyzeImage(ctx, raw, strings.ToLower(strings.TrimSpace(f.ContentType)), instruction)
	}
	if err != nil {
		return domain.Result{}, err
	}

	res := domain.Result{
		Kind:          kind,
		ExtractedText: ex.Text,
		Summary:       ex.Summary,
		IndexIDs:      []string{},
	}
	if d.Indexer != nil {
		ids, err := d.Indexer.Index(ctx, f.SourceURL, ex.Text)
		if err != nil {
			d.logger().Warn("indexing failed, keeping analysis result",
				slog.String("blob_url", f.SourceURL),
				slog.Int("indexed_chunks", len(ids)),
				slog.String("error", err.Error()))
		}
		res.IndexIDs = append(res.IndexIDs, ids...)
	}
	return res, nil
}

func (d *Dispatcher) observe(ctx context.Context, f domain.UploadedFile, res domain.Result) {
	failed := res.Error != ""
	if d.Metrics != nil {
		d.Metrics.FileAnalyzed(res.Kind, failed)
	}
	if d.Journal == nil {
		return
	}
	e := &journal.Entry{
		ID:        journal.EntryID(uuid.New().String()),
		SourceURL: f.SourceURL,
		Kind:      string(res.Kind),
		Summary:   res.Summary,
		Error:     res.Error,
		CreatedAt: d.now(),
	}
	if err := d.Journal.Save(context.WithoutCancel(ctx), e); err != nil {
		d.logger().Warn("journal save failed", slog.String("blob_url", f.SourceURL), slog.String("error", err.Error()))
	}
}

func failedResult(err error) domain.Result {
	msg := "Exception analyse : " + StageMessage(err)
	return domain.Result{
		Kind:          domain.KindUnknown,
		ExtractedText: msg,
		Summary:       msg,
		IndexIDs:      []string{},
		Error:         err.Error(),
	}
}

// StageMessage names, in French, the stage that produced err.
func StageMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedURL):
		return "URL de fichier invalide"
	case errors.Is(err, domain.ErrNotFound):
		return "fichier introuvable dans le stockage"
	case errors.Is(err, domain.ErrAccessDenied):
		return "accès au fichier refusé"
	case errors.Is(err, domain.ErrExtractionFailed):
		return "échec de l'extraction du document"
	case errors.Is(err, domain.ErrSummarizationFailed):
		return "échec du résumé par le modèle"
	case errors.Is(err, domain.ErrNotConfigured):
		return "service non configuré"
	case errors.Is(err, context.DeadlineExceeded):
		return "délai dépassé"
	default:
		return "erreur inattendue"
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock.Now()
}

func (d *Dispatcher) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}
