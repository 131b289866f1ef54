// Package layout extracts paragraphs from PDF documents.
package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

const (
	defaultModel      = "prebuilt-layout"
	defaultAPIVersion = "2024-11-30"
	defaultPoll       = time.Second
)

// DocumentIntelligence calls the Azure AI Document Intelligence layout model over REST.
// Analysis is asynchronous: the submit call returns an Operation-Location that is
// polled until the service reports a terminal status or ctx expires.
type DocumentIntelligence struct {
	Endpoint     string
	Key          string
	Model        string
	APIVersion   string
	PollInterval time.Duration
	HTTP         *http.Client
	Retry        retry.Policy
}

func NewDocumentIntelligence(endpoint, key string) *DocumentIntelligence {
	return &DocumentIntelligence{
		Endpoint:     strings.TrimRight(endpoint, "/"),
		Key:          key,
		Model:        defaultModel,
		APIVersion:   defaultAPIVersion,
		PollInterval: defaultPoll,
		HTTP:         &http.Client{Timeout: 60 * time.Second},
		Retry:        retry.Default,
	}
}

type analyzeOperation struct {
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	AnalyzeResult struct {
		Paragraphs []domain.Paragraph `json:"paragraphs"`
	} `json:"analyzeResult"`
}

func (c *DocumentIntelligence) ExtractLayout(ctx context.Context, pdf []byte) ([]domain.Paragraph, error) {
	var opURL string
	err := retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		var err error
		opURL, err = c.submit(ctx, pdf)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.poll(ctx, opURL)
}

func (c *DocumentIntelligence) submit(ctx context.Context, pdf []byte) (string, error) {
	model := c.Model
	if model == "" {
		model = defaultModel
	}
	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s", c.Endpoint, model, c.apiVersion())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(pdf))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.Key)

	resp, err := c.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return "", statusError("submit", resp)
	}
	op := resp.Header.Get("Operation-Location")
	if op == "" {
		return "", retry.Permanent(errors.New("layout submit: missing Operation-Location header"))
	}
	return op, nil
}

func (c *DocumentIntelligence) poll(ctx context.Context, opURL string) ([]domain.Paragraph, error) {
	for {
		op, wait, err := c.fetch(ctx, opURL)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(op.Status) {
		case "succeeded":
			return op.AnalyzeResult.Paragraphs, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = fmt.Sprintf("%s: %s %s", op.Status, op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("layout analysis %s", msg)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (c *DocumentIntelligence) fetch(ctx context.Context, opURL string) (analyzeOperation, time.Duration, error) {
	var op analyzeOperation
	wait := c.PollInterval
	if wait <= 0 {
		wait = defaultPoll
	}
	err := retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.Key)
		resp, err := c.client().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return statusError("poll", resp)
		}
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
			wait = time.Duration(s) * time.Second
		}
		op = analyzeOperation{}
		if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
			return retry.Permanent(fmt.Errorf("layout poll: decode: %w", err))
		}
		return nil
	})
	return op, wait, err
}

func (c *DocumentIntelligence) apiVersion() string {
	if c.APIVersion == "" {
		return defaultAPIVersion
	}
	return c.APIVersion
}

func (c *DocumentIntelligence) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func statusError(stage string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	err := fmt.Errorf("layout %s: status %d: %s", stage, resp.StatusCode, strings.TrimSpace(string(body)))
	if retry.RetryableStatus(resp.StatusCode) {
		return err
	}
	return retry.Permanent(err)
}
