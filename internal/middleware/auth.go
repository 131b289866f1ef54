package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// FunctionKeyHeader carries the shared function key; the "code" query
// parameter is accepted as well.
const FunctionKeyHeader = "x-functions-key"

// FunctionKeyAuth rejects requests that do not present one of keys. With no
// keys configured every request passes.
func FunctionKeyAuth(keys []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := strings.TrimSpace(r.Header.Get(FunctionKeyHeader))
			if presented == "" {
				presented = strings.TrimSpace(r.URL.Query().Get("code"))
			}
			if presented == "" {
				http.Error(w, "missing function key", http.StatusUnauthorized)
				return
			}

			// constant-time comparison against every key
			valid := false
			for _, key := range keys {
				if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
					valid = true
				}
			}
			if !valid {
				http.Error(w, "invalid function key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireJSON answers 415 unless the request declares a JSON body.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
			http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBearer answers 401 unless an Authorization: Bearer header is present.
// The token itself is validated later, once the activity is decoded.
func RequireBearer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")) == "" {
				logger.Warn("bot request without bearer token", slog.String("authorization", MaskAuth(auth)))
				http.Error(w, "Missing Bot Framework auth", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaskAuth keeps only the scheme of a credential for logs.
func MaskAuth(h string) string {
	if h == "" {
		return "<none>"
	}
	scheme, _, found := strings.Cut(strings.TrimSpace(h), " ")
	if !found {
		return "***"
	}
	return scheme + " ***"
}
