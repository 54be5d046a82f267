package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"heatpump-backend/internal/llm"
	"heatpump-backend/internal/shared/telemetry"
)

const (
	GroqBaseURL   = "https://api.groq.com/openai/v1/chat/completions"
	OpenAIBaseURL = "https://api.openai.com/v1/chat/completions"

	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"

	defaultTimeout = 60 * time.Second
	temperature    = 0.1
	maxTokens      = 2000
	maxErrorBody   = 512
)

// Defaults returns the endpoint and model used for a provider name.
func Defaults(provider string) (baseURL, model string) {
	if strings.EqualFold(strings.TrimSpace(provider), "openai") {
		return OpenAIBaseURL, DefaultOpenAIModel
	}
	return GroqBaseURL, DefaultGroqModel
}

// Config holds the connection settings for an OpenAI-compatible endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// ConfigError reports a missing or invalid setting detected by NewClient.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("openai config: %s %s", e.Field, e.Reason)
}

// Is lets callers match any ConfigError with llm.ErrNotConfigured.
func (e *ConfigError) Is(target error) bool {
	return target == llm.ErrNotConfigured
}

// StatusError is returned for non-2xx responses from the provider.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai status %d", e.Code)
	}
	return fmt.Sprintf("openai status %d: %s", e.Code, e.Message)
}

// Client implements llm.Client using Chat Completions.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient validates cfg and constructs a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigError{Field: "LLM_API_KEY", Reason: "is required"}
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = GroqBaseURL
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, &ConfigError{Field: "LLM_BASE_URL", Reason: "must be an http(s) URL"}
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultGroqModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ExtractFields sends the document text to the model and parses the structured answer.
func (c *Client) ExtractFields(ctx context.Context, text string) (llm.Extraction, error) {
	content, err := c.complete(ctx, BuildPrompt(text))
	if err != nil {
		return llm.Extraction{}, err
	}
	out, err := llm.ParseExtraction(content)
	if err != nil {
		telemetry.Warn("llm.parse_failed", map[string]any{
			"model": c.model,
			"error": err.Error(),
		})
		return llm.Extraction{}, err
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai response read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode, Message: errorMessage(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: openai response parse: %v", llm.ErrInvalidOutput, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response missing choices", llm.ErrInvalidOutput)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: openai response empty content", llm.ErrInvalidOutput)
	}

	fields := map[string]any{
		"model":      c.model,
		"durationMs": time.Since(start).Milliseconds(),
		"chars":      len(content),
	}
	if parsed.Usage != nil {
		fields["promptTokens"] = parsed.Usage.PromptTokens
		fields["completionTokens"] = parsed.Usage.CompletionTokens
		fields["totalTokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

func errorMessage(body []byte) string {
	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

var _ llm.Client = (*Client)(nil)
