package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domain "github.com/bryanwahyu/docbridge/internal/domain/analysis"
	"github.com/bryanwahyu/docbridge/internal/infra/retry"
)

const maxTokens = 2048

const defaultAPIVersion = "2024-10-21"

// Client implements domain.ChatModel and domain.Embedder on top of go-openai.
// It is safe for concurrent use.
type Client struct {
	api                 *openai.Client
	Deployment          string
	EmbeddingDeployment string
	Retry               retry.Policy
}

// NewAzureClient targets an Azure OpenAI resource; model names are deployment names.
func NewAzureClient(endpoint, apiKey, apiVersion, deployment, embeddingDeployment string) *Client {
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	cfg.APIVersion = apiVersion
	cfg.AzureModelMapperFunc = func(model string) string { return model }
	return &Client{
		api:                 openai.NewClientWithConfig(cfg),
		Deployment:          deployment,
		EmbeddingDeployment: embeddingDeployment,
		Retry:               retry.Default,
	}
}

// NewClient targets the public OpenAI API, or any compatible base URL.
func NewClient(apiKey, baseURL, model, embeddingModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:                 openai.NewClientWithConfig(cfg),
		Deployment:          model,
		EmbeddingDeployment: embeddingModel,
		Retry:               retry.Default,
	}
}

func (c *Client) Complete(ctx context.Context, req domain.ChatRequest) (string, error) {
	model := c.Deployment
	if model == "" {
		model = "gpt-4o-mini"
	}
	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    buildMessages(req),
		Temperature: req.Temperature,
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(model) {
		chatReq.MaxCompletionTokens = maxTokens
	} else {
		chatReq.MaxTokens = maxTokens
	}

	var reply string
	err := retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return retry.Permanent(errors.New("chat completion returned no choices"))
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	return reply, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.EmbeddingDeployment == "" {
		return nil, fmt.Errorf("embedding deployment: %w", domain.ErrNotConfigured)
	}
	embReq := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.EmbeddingDeployment),
	}

	var vec []float32
	err := retry.Do(ctx, c.Retry, func(ctx context.Context) error {
		resp, err := c.api.CreateEmbeddings(ctx, embReq)
		if err != nil {
			return classify(err)
		}
		if len(resp.Data) == 0 {
			return retry.Permanent(errors.New("embedding response carried no data"))
		}
		vec = resp.Data[0].Embedding
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	return vec, nil
}

func buildMessages(req domain.ChatRequest) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	if req.ImageDataURL == "" {
		return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.User},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
				URL:    req.ImageDataURL,
				Detail: openai.ImageURLDetailAuto,
			}},
		},
	})
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// classify marks client errors as permanent and maps 429 to ErrQuotaExceeded.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", domain.ErrQuotaExceeded, err)
	case status != 0 && !retry.RetryableStatus(status):
		return retry.Permanent(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retry.Permanent(err)
	default:
		return err
	}
}
