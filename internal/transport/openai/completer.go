package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/casebud/internal/domain/model"
	"github.com/kailas-cloud/casebud/internal/metrics"
)

// Completer is a chat-completion provider using the OpenAI-compatible API (e.g. Groq).
type Completer struct {
	client   *openai.Client
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

// Config holds the completion provider settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Provider string
	// Timeout bounds every Complete call. Zero means no extra bound.
	Timeout time.Duration
	// HTTPClient is the shared outbound client. Nil uses go-openai's default.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *Config) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Completer{
		client:   openai.NewClientWithConfig(clientCfg),
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Complete implements domain.Completer. One system and one user message, one choice back.
func (c *Completer) Complete(
	ctx context.Context, systemPrompt, userPrompt string, m model.ID,
) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: m.ID(),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, m.ID()).Observe(duration.Seconds())

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, m.ID(), "error").Inc()
		return "", parseAPIError(err)
	}

	if len(resp.Choices) == 0 {
		metrics.ProviderRequestsTotal.WithLabelValues(c.provider, m.ID(), "error").Inc()
		return "", errors.New("empty chat completion response")
	}

	metrics.ProviderRequestsTotal.WithLabelValues(c.provider, m.ID(), "success").Inc()

	if resp.Usage.TotalTokens > 0 {
		tokens := metrics.ProviderTokensTotal
		tokens.WithLabelValues(c.provider, m.ID(), "prompt").Add(float64(resp.Usage.PromptTokens))
		tokens.WithLabelValues(c.provider, m.ID(), "completion").Add(float64(resp.Usage.CompletionTokens))
		tokens.WithLabelValues(c.provider, m.ID(), "total").Add(float64(resp.Usage.TotalTokens))
	}

	c.logger.Debug("Chat completion finished",
		zap.String("provider", c.provider),
		zap.String("model", m.ID()),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// Classification into domain conditions happens in the generator; the
// message text must survive intact for that.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractMessage(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("chat completion API error %d: %s", reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat completion API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("chat completion request failed: %w", err)
}

// extractMessage pulls "error.message" or "detail" out of a JSON error body.
func extractMessage(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return parsed.Detail
}
