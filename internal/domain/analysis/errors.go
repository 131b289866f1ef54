package analysis

import "errors"

var (
	ErrMalformedURL        = errors.New("malformed blob url")
	ErrNotFound            = errors.New("blob not found")
	ErrAccessDenied        = errors.New("blob access denied")
	ErrExtractionFailed    = errors.New("layout extraction failed")
	ErrSummarizationFailed = errors.New("summarization failed")
	ErrIndexingFailed      = errors.New("indexing failed")
	ErrEmptyMessage        = errors.New("empty message")
	ErrBackendUnavailable  = errors.New("chat backend unavailable")
	ErrNotConfigured       = errors.New("feature not configured")
	ErrUnsupportedType     = errors.New("unsupported file type")
)

// ErrQuotaExceeded indicates the model provider returned a quota/limit error (HTTP 429).
var ErrQuotaExceeded = errors.New("ai quota exceeded")
