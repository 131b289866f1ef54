package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/middleware"
)

type analyzeBody struct {
	Blobs   []domain.UploadedFile `json:"blobs" validate:"dive"`
	Message string                `json:"message"`
}

// POST /api/analyze
// Body: {"blobs":[{"blobUrl":"…","contentType":"…"}],"message":"…"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.Dispatcher == nil {
		return notConfigured("analysis dispatcher")
	}
	var body analyzeBody
	if err := decodeJSON(w, req, &body); err != nil {
		return badRequest("Invalid JSON body")
	}
	if err := middleware.ValidateStruct(body); err != nil {
		return badRequest("%v", err)
	}

	ctx, cancel := withTimeout(req.Context(), r.AnalysisTimeout)
	defer cancel()
	results, err := r.Dispatcher.Analyze(ctx, domain.Request{
		Files:       body.Blobs,
		Instruction: middleware.SanitizeString(body.Message),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
	return nil
}

// POST /api/process
// multipart/form-data with "file" and optional "instruction", or JSON {"message"}.
func (r *Router) handleProcess(w http.ResponseWriter, req *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.handleChat(w, req)
	}

	if err := req.ParseMultipartForm(maxMultipartBytes); err != nil {
		return jsonError(http.StatusBadRequest, "Invalid multipart body.")
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return jsonError(http.StatusBadRequest, "Missing 'file' in request.")
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		return jsonError(http.StatusBadRequest, "Invalid multipart body.")
	}

	ctype := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if ctype == "" || ctype == "application/octet-stream" {
		ctype = mimetype.Detect(raw).String()
		if i := strings.IndexByte(ctype, ';'); i >= 0 {
			ctype = ctype[:i]
		}
	}
	instruction := middleware.SanitizeString(req.FormValue("instruction"))

	ctx, cancel := withTimeout(req.Context(), r.AnalysisTimeout)
	defer cancel()

	var ex domain.Extraction
	switch domain.Classify(domain.UploadedFile{SourceURL: header.Filename, ContentType: ctype}) {
	case domain.KindPDF:
		if r.Documents == nil {
			return notConfigured("document analyzer")
		}
		ex, err = r.Documents.AnalyzePDF(ctx, raw, instruction)
	case domain.KindImage:
		if r.Images == nil {
			return notConfigured("image analyzer")
		}
		ex, err = r.Images.AnalyzeImage(ctx, raw, ctype, instruction)
	default:
		return fmt.Errorf("%s (%s): %w", header.Filename, ctype, domain.ErrUnsupportedType)
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": ex.Text, "summary": ex.Summary})
	return nil
}

// POST /api/chat
// Body: {"message":"…"}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	if r.Relay == nil {
		return notConfigured("chat relay")
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, req, &body); err != nil {
		return jsonError(http.StatusBadRequest, "Invalid JSON body.")
	}
	if strings.TrimSpace(body.Message) == "" {
		return domain.ErrEmptyMessage
	}

	ctx, cancel := withTimeout(req.Context(), r.ChatTimeout)
	defer cancel()
	reply, err := r.Relay.Relay(ctx, body.Message)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": reply})
	return nil
}

func decodeJSON(w http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}
