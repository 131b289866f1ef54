package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bryanwahyu/docbridge/internal/application/uploads"
	"github.com/bryanwahyu/docbridge/internal/infra/botframework"
	"github.com/bryanwahyu/docbridge/internal/middleware"
)

// POST /api/uploads
// Body: {"files":[{"filename":"…","contentType":"…"}],"userId":"…"}
func (r *Router) handleUploads(w http.ResponseWriter, req *http.Request) error {
	if r.Uploads == nil {
		return notConfigured("upload storage")
	}
	var body struct {
		Files  []uploads.FileSpec `json:"files"`
		UserID string             `json:"userId"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return badRequest("Invalid JSON body")
	}
	if len(body.Files) == 0 {
		return badRequest("files[] required")
	}
	if err := middleware.ValidateUserID(body.UserID); err != nil {
		return badRequest("%v", err)
	}

	out, err := r.Uploads.Issue(req.Context(), body.UserID, body.Files)
	if err != nil {
		if errors.Is(err, uploads.ErrNoFiles) {
			return badRequest("files[] required")
		}
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploads": out})
	return nil
}

// GET|POST /api/token?userId=
func (r *Router) handleToken(w http.ResponseWriter, req *http.Request) error {
	if r.Tokens == nil {
		return notConfigured("direct line")
	}
	userID := strings.TrimSpace(req.URL.Query().Get("userId"))
	if userID == "" && req.Method == http.MethodPost && req.ContentLength != 0 {
		var body struct {
			UserID string `json:"userId"`
		}
		// a body that is not JSON just means no user id
		_ = json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBytes)).Decode(&body)
		userID = strings.TrimSpace(body.UserID)
	}

	tok, err := r.Tokens.GenerateToken(req.Context(), userID)
	if errors.Is(err, botframework.ErrMissingSecret) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "missing_env", "var": "DIRECT_LINE_SECRET"})
		return nil
	}
	if err != nil {
		return err
	}

	ctype := tok.ContentType
	if ctype == "" {
		ctype = "application/json"
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(tok.Status)
	_, _ = w.Write(tok.Body)
	return nil
}

// GET /api/journal?page=&limit=
func (r *Router) handleJournal(w http.ResponseWriter, req *http.Request) error {
	if r.Journal == nil {
		return notConfigured("analysis journal")
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	entries, err := r.Journal.Paginate(req.Context(), max(page, 1), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "page": max(page, 1)})
	return nil
}
