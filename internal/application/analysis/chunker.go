package analysis

import (
	"encoding/base64"
	"fmt"
	"iter"
	"strconv"
	"strings"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
)

// DefaultWindow is the number of whitespace tokens per chunk.
const DefaultWindow = 500

// Chunks splits text into windows of whitespace-delimited tokens rejoined with single spaces.
// The returned sequence can be ranged over any number of times.
func Chunks(text string, window int) iter.Seq[domain.Chunk] {
	if window <= 0 {
		window = DefaultWindow
	}
	tokens := strings.Fields(text)
	return func(yield func(domain.Chunk) bool) {
		for i := 0; i < len(tokens); i += window {
			end := min(i+window, len(tokens))
			c := domain.Chunk{Text: strings.Join(tokens[i:end], " "), Index: i / window}
			if !yield(c) {
				return
			}
		}
	}
}

// EntryID derives the vector index id of chunk idx of sourceURL.
func EntryID(sourceURL string, idx int) string {
	return base64.URLEncoding.EncodeToString([]byte(sourceURL + "|" + strconv.Itoa(idx)))
}

// DecodeEntryID reverses EntryID.
func DecodeEntryID(id string) (sourceURL string, idx int, err error) {
	raw, err := base64.URLEncoding.DecodeString(id)
	if err != nil {
		return "", 0, fmt.Errorf("decode entry id: %w", err)
	}
	s := string(raw)
	cut := strings.LastIndex(s, "|")
	if cut < 0 {
		return "", 0, fmt.Errorf("decode entry id: missing separator in %q", s)
	}
	idx, err = strconv.Atoi(s[cut+1:])
	if err != nil {
		return "", 0, fmt.Errorf("decode entry id: %w", err)
	}
	return s[:cut], idx, nil
}
