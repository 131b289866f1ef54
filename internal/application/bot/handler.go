// Package bot holds the conversational turn logic: chat relay for messages
// and file analysis for upload events.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/domain/channel"
)

const (
	maxReplySummary = 2000

	msgNoReply       = "Aucune réponse du modèle."
	msgNoText        = "Merci d'écrire votre question sous forme de texte."
	msgNoFiles       = "Aucun fichier reçu."
	msgNoResults     = "Aucun résultat."
	msgInternalError = "Erreur interne du bot."
)

//go:generate go run go.uber.org/mock/mockgen -source=handler.go -destination=../../mocks/mock_bot.go -package=mocks

type Relayer interface {
	Relay(ctx context.Context, message string) (string, error)
}

type Analyzer interface {
	Analyze(ctx context.Context, req domain.Request) ([]domain.Result, error)
}

// Recorder counts handled turns.
type Recorder interface {
	TurnHandled(activityType string, failed bool)
}

// Handler answers one activity at a time through Sender.
type Handler struct {
	Relay    Relayer
	Analyzer Analyzer
	Sender   channel.Sender
	Metrics  Recorder
	Logger   *slog.Logger
}

var _ channel.TurnHandler = (*Handler)(nil)

// OnTurn never lets a failure escape silently: any error or panic is logged
// and the user gets a generic apology.
func (h *Handler) OnTurn(ctx context.Context, a channel.Activity) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bot turn panic: %v", r)
		}
		if h.Metrics != nil {
			h.Metrics.TurnHandled(a.Type, err != nil)
		}
		if err != nil {
			h.logger().Error("bot turn failed",
				slog.String("activity_type", a.Type),
				slog.String("conversation", a.Conversation.ID),
				slog.String("error", err.Error()))
			if sendErr := h.Sender.Send(context.WithoutCancel(ctx), a.Reply(msgInternalError)); sendErr != nil {
				h.logger().Error("bot apology failed", slog.String("error", sendErr.Error()))
			}
		}
	}()

	switch a.Type {
	case channel.TypeMessage:
		return h.onMessage(ctx, a)
	case channel.TypeEvent:
		if a.Name == channel.EventFilesUploaded {
			return h.onFilesUploaded(ctx, a)
		}
	}
	h.logger().Debug("activity ignored", slog.String("type", a.Type), slog.String("name", a.Name))
	return nil
}

func (h *Handler) onMessage(ctx context.Context, a channel.Activity) error {
	h.logger().Info("user message", slog.String("conversation", a.Conversation.ID), slog.Int("length", len(a.Text)))

	if strings.TrimSpace(a.Text) == "" {
		return h.Sender.Send(ctx, a.Reply(msgNoText))
	}
	reply, err := h.Relay.Relay(ctx, a.Text)
	switch {
	case err != nil:
		h.logger().Warn("chat relay failed", slog.String("error", err.Error()))
		reply = "Erreur backend : " + err.Error()
	case strings.TrimSpace(reply) == "":
		reply = msgNoReply
	}
	return h.Sender.Send(ctx, a.Reply(reply))
}

// UploadEvent is the value of a files_uploaded event. The web client may also
// send a single file as {url, name}.
type UploadEvent struct {
	Blobs   []domain.UploadedFile `json:"blobs"`
	Message string                `json:"message"`
	URL     string                `json:"url"`
	Name    string                `json:"name"`
}

// Request turns the event into an analysis request, empty when nothing usable was sent.
func (e UploadEvent) Request() domain.Request {
	files := lo.Filter(e.Blobs, func(f domain.UploadedFile, _ int) bool {
		return strings.TrimSpace(f.SourceURL) != ""
	})
	if len(files) == 0 && strings.TrimSpace(e.URL) != "" {
		u := strings.TrimSpace(e.URL)
		files = []domain.UploadedFile{{SourceURL: u, ContentType: contentTypeOf(e.Name, u)}}
	}
	return domain.Request{Files: files, Instruction: strings.TrimSpace(e.Message)}
}

// contentTypeOf guesses a content type from the file name's extension, then
// from the URL path's. Empty when neither is known.
func contentTypeOf(name, rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	for _, ext := range []string{path.Ext(name), path.Ext(rawURL)} {
		if ext == "" {
			continue
		}
		if t := mime.TypeByExtension(strings.ToLower(ext)); t != "" {
			mediaType, _, err := mime.ParseMediaType(t)
			if err == nil {
				return mediaType
			}
		}
	}
	return ""
}

func (h *Handler) onFilesUploaded(ctx context.Context, a channel.Activity) error {
	var ev UploadEvent
	if len(a.Value) > 0 {
		if err := json.Unmarshal(a.Value, &ev); err != nil {
			h.logger().Warn("files_uploaded value is not an object", slog.String("error", err.Error()))
		}
	}
	req := ev.Request()
	if len(req.Files) == 0 {
		return h.Sender.Send(ctx, a.Reply(msgNoFiles))
	}

	if err := h.Sender.Send(ctx, a.Reply(fmt.Sprintf("🔎 Analyse de %d fichier(s) en cours…", len(req.Files)))); err != nil {
		h.logger().Warn("status reply failed", slog.String("error", err.Error()))
	}

	results, err := h.Analyzer.Analyze(ctx, req)
	if err != nil {
		h.logger().Error("analysis failed", slog.Int("files", len(req.Files)), slog.String("error", err.Error()))
		return h.Sender.Send(ctx, a.Reply("❌ Exception analyse : "+err.Error()))
	}
	if len(results) == 0 {
		return h.Sender.Send(ctx, a.Reply(msgNoResults))
	}
	for i, res := range results {
		if err := h.Sender.Send(ctx, a.Reply(ResultReply(i+1, res))); err != nil {
			return err
		}
	}
	return nil
}

// ResultReply formats the per-document message posted after an analysis.
func ResultReply(position int, res domain.Result) string {
	kind := string(res.Kind)
	if kind == "" {
		kind = "doc"
	}
	return fmt.Sprintf("— Document %d (%s):\n%s", position, kind, domain.Truncate(res.Summary, maxReplySummary))
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Runner executes turns in the background so the channel gets its
// acknowledgement immediately.
type Runner struct {
	Handler channel.TurnHandler
	Timeout time.Duration

	wg sync.WaitGroup
}

// Go starts a turn detached from the inbound request's lifetime.
func (r *Runner) Go(ctx context.Context, a channel.Activity) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		tctx := context.WithoutCancel(ctx)
		if r.Timeout > 0 {
			var cancel context.CancelFunc
			tctx, cancel = context.WithTimeout(tctx, r.Timeout)
			defer cancel()
		}
		_ = r.Handler.OnTurn(tctx, a)
	}()
}

// Wait blocks until running turns finish or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
