// Package vectorindex stores embedded chunks in a vector search backend.
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

const searchAPIVersion = "2024-07-01"

// SearchIndex upserts documents into an Azure AI Search index over REST.
type SearchIndex struct {
	Endpoint   string
	Key        string
	Index      string
	APIVersion string
	HTTP       *http.Client
	Retry      retry.Policy
}

func NewSearchIndex(endpoint, key, index string) *SearchIndex {
	return &SearchIndex{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Key:        key,
		Index:      index,
		APIVersion: searchAPIVersion,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		Retry:      retry.Default,
	}
}

type searchDocument struct {
	Action string `json:"@search.action"`
	domain.IndexEntry
}

type indexResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

// Upsert uses the "upload" action, which replaces any document with the same key.
func (s *SearchIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	body, err := json.Marshal(map[string]any{
		"value": []searchDocument{{Action: "upload", IndexEntry: entry}},
	})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s", s.Endpoint, url.PathEscape(s.Index), s.apiVersion())

	return retry.Do(ctx, s.Retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("api-key", s.Key)

		resp, err := s.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusMultiStatus:
		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			err := fmt.Errorf("search index: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			if retry.RetryableStatus(resp.StatusCode) {
				return err
			}
			return retry.Permanent(err)
		}

		var out indexResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return retry.Permanent(fmt.Errorf("search index: decode: %w", err))
		}
		for _, v := range out.Value {
			if !v.Status {
				err := fmt.Errorf("search index: document %s rejected (%d): %s", v.Key, v.StatusCode, v.ErrorMessage)
				if retry.RetryableStatus(v.StatusCode) {
					return err
				}
				return retry.Permanent(err)
			}
		}
		return nil
	})
}

func (s *SearchIndex) apiVersion() string {
	if s.APIVersion == "" {
		return searchAPIVersion
	}
	return s.APIVersion
}

func (s *SearchIndex) client() *http.Client {
	if s.HTTP == nil {
		return http.DefaultClient
	}
	return s.HTTP
}
