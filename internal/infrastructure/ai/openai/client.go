// Package openai implements the structured-generation port against the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/errors"
)

// Client implements outbound.AIService using chat completions with a
// strict response schema. Calls pass through a shared rate limiter so
// bursts from the import pipeline and the planner stay within the
// provider's request budget.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates a client from config. With no API key configured
// the client reports unconfigured and callers skip the AI tier.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.OpenAIModel
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 20
	}

	if cfg.OpenAIKey == "" {
		logger.Info("OpenAI API key not configured, AI features disabled")
	}

	return &Client{
		apiKey:  cfg.OpenAIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
		logger:  logger,
	}
}

// IsConfigured reports whether an API key is available.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// OpenAI API structures.

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatCompletionResponse struct {
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateStructured sends one completion request constrained by the
// given schema and returns the raw JSON content of the first choice.
func (c *Client) GenerateStructured(ctx context.Context, systemPrompt, userPrompt string, schema outbound.Schema) (json.RawMessage, error) {
	if !c.IsConfigured() {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("no API key configured"))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.NewAIServiceError("generate", err)
	}

	reqBody := chatCompletionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
		ResponseFormat: &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   schema.Name,
				Strict: true,
				Schema: schema.Definition,
			},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewAIServiceError("generate", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("API status %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("unmarshal response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.NewAIServiceError("generate", fmt.Errorf("no choices returned"))
	}

	c.logger.Debug("structured completion succeeded",
		zap.String("schema", schema.Name),
		zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
		zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
	)
	return json.RawMessage(chatResp.Choices[0].Message.Content), nil
}
