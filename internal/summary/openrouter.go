package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/skycast/skycast/internal/provider/resilience"
)

const (
	// DefaultBaseURL is the OpenRouter API base URL.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is a free-tier instruction model.
	DefaultModel = "mistralai/mistral-7b-instruct:free"

	// DefaultMaxTokens bounds the completion length.
	DefaultMaxTokens = 300

	// PlaceholderAPIKey is the sample value shipped in .env templates.
	PlaceholderAPIKey = "your_openrouter_api_key_here"
)

// ErrEmptyCompletion is returned when the response carries no message content.
var ErrEmptyCompletion = errors.New("empty completion")

// KeyConfigured reports whether apiKey is a usable OpenRouter key.
func KeyConfigured(apiKey string) bool {
	key := strings.TrimSpace(apiKey)
	return key != "" && key != PlaceholderAPIKey
}

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	// APIKey is the OpenRouter API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// Model is the model identifier (optional).
	Model string

	// MaxTokens bounds the completion (optional).
	MaxTokens int

	// Referer is sent as HTTP-Referer, usually the frontend URL.
	Referer string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client
}

// OpenRouterClient sends single-turn chat completions to OpenRouter.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	referer    string
	httpClient *resilience.Client
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig("openrouter", resilience.RoleSummary)
		clientCfg.MaxRetries = 0
		httpClient = resilience.NewClient(clientCfg)
	}

	return &OpenRouterClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  maxTokens,
		referer:    cfg.Referer,
		httpClient: httpClient,
	}
}

// Complete sends prompt as a user message and returns the first choice's content.
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}

	var resp chatResponse
	if err := c.httpClient.DoJSON(req, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
