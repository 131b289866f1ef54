package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bryanwahyu/docbridge/internal/domain/channel"
)

// POST /api/messages
// Content type and bearer presence are checked by middleware before this runs.
func (r *Router) handleMessages(w http.ResponseWriter, req *http.Request) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxActivityBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &httpError{status: http.StatusRequestEntityTooLarge, msg: "Activity too large"}
		}
		return badRequest("Invalid body: %v", err)
	}
	act, err := decodeActivity(raw)
	if err != nil {
		return err
	}

	if r.Auth == nil {
		return notConfigured("bot authenticator")
	}
	if err := r.Auth.Authenticate(req.Context(), req.Header.Get("Authorization"), act); err != nil {
		return err
	}

	if act.Type == channel.TypeInvoke {
		return &httpError{status: http.StatusNotImplemented, msg: "Invoke activities are not supported"}
	}
	if r.Turns == nil {
		return notConfigured("bot turn handler")
	}

	r.log.Info("activity accepted",
		slog.String("type", act.Type),
		slog.String("channel", act.ChannelID),
		slog.String("conversation", act.Conversation.ID))
	r.Turns.Go(req.Context(), act)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Accepted"))
	return nil
}

func invalidActivity(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...), cause: channel.ErrInvalidActivity}
}

// decodeActivity checks the raw body shape before decoding it, so each
// malformed case gets its own 400 message.
func decodeActivity(raw []byte) (channel.Activity, error) {
	var act channel.Activity
	if len(bytes.TrimSpace(raw)) == 0 {
		return act, invalidActivity("Empty body")
	}
	var anyVal any
	if err := json.Unmarshal(raw, &anyVal); err != nil {
		return act, invalidActivity("Invalid JSON: %v", err)
	}
	obj, ok := anyVal.(map[string]any)
	if !ok {
		return act, invalidActivity("Invalid activity: not a JSON object")
	}
	if missing := channel.MissingFields(obj); len(missing) > 0 {
		return act, invalidActivity("Invalid activity: missing fields: %s", strings.Join(missing, ", "))
	}
	if err := json.Unmarshal(raw, &act); err != nil {
		return act, invalidActivity("Invalid activity: %v", err)
	}
	return act, nil
}
