package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
)

const apiBase = "https://api.openai.com/v1"

// Client talks to the OpenAI API. Embeddings back the intent classifier,
// chat completions back the fallback generator; both go through the same
// thin JSON-over-HTTP path.
type Client struct {
	apiKey     string
	embedModel string
	chatModel  string
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient builds the client. Empty model names fall back to the defaults
// the platform is tuned against.
func NewClient(apiKey, embedModel, chatModel string, log *zap.Logger) *Client {
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	if chatModel == "" {
		chatModel = "gpt-4o-mini"
	}
	return &Client{
		apiKey:     apiKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// post sends one JSON request and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if c.apiKey == "" {
		return fmt.Errorf("openai: API key not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: API error status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// GetEmbeddings returns one vector per input text, in input order.
func (c *Client) GetEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	var result embeddingsResponse
	err := c.post(ctx, "/embeddings", embeddingsRequest{Input: texts, Model: c.embedModel}, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Data) != len(texts) {
		return nil, fmt.Errorf("openai: got %d embeddings for %d texts", len(result.Data), len(texts))
	}

	vectors := make([][]float64, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	c.log.Debug("Generated embeddings",
		zap.Int("count", len(texts)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	return vectors, nil
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message domain.ChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements ports.ChatBackend.
func (c *Client) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	var result chatResponse
	err := c.post(ctx, "/chat/completions", chatRequest{Model: c.chatModel, Messages: messages}, &result)
	if err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}
