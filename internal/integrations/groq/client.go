package groq

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

	"assistantpro-backend/internal/conversation"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL      = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 250
	DefaultTimeout     = 30 * time.Second

	maxErrorBodyChars = 400
)

var (
	// ErrTimeout is returned when the provider does not answer within the timeout.
	ErrTimeout = errors.New("groq: completion request timed out")
	// ErrEmptyResponse is returned when the provider answers without any content.
	ErrEmptyResponse = errors.New("groq: completion response contained no content")
)

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq: non-success status=%d body=%s", e.StatusCode, e.Body)
}

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	APIKey      string
	APIURL      string
	Model       string
	Temperature *float64 // nil selects DefaultTemperature; 0 is a valid setting
	MaxTokens   int
	Timeout     time.Duration
}

// Completion is the provider's reply plus token accounting when reported.
type Completion struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Client calls the Groq OpenAI-compatible chat completions endpoint.
type Client struct {
	apiKey      string
	url         string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a Groq client. The request timeout is enforced by the
// underlying http.Client; callers may also pass a context with a deadline.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:      opts.APIKey,
		url:         opts.APIURL,
		model:       opts.Model,
		temperature: temperature,
		maxTokens:   opts.MaxTokens,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		logger:      logger.Named("GroqClient"),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Model returns the model name sent with every request.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string                       `json:"model"`
	Messages    []conversation.PromptMessage `json:"messages"`
	Temperature float64                      `json:"temperature"`
	MaxTokens   int                          `json:"max_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends one chat completion request. It never retries.
func (c *Client) Complete(ctx context.Context, messages []conversation.PromptMessage) (*Completion, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal groq request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create groq request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			c.logger.Warn("completion request timed out", zap.Duration("elapsed", time.Since(start)))
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("failed reading groq response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Body:       conversation.Truncate(string(body), maxErrorBodyChars),
		}
		c.logger.Error("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", apiErr.Body),
		)
		return nil, apiErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse groq response: %s", conversation.Truncate(string(body), maxErrorBodyChars))
	}

	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyResponse
	}

	result := &Completion{Content: content, Model: parsed.Model}
	if result.Model == "" {
		result.Model = c.model
	}
	if parsed.Usage != nil {
		result.InputTokens = parsed.Usage.PromptTokens
		result.OutputTokens = parsed.Usage.CompletionTokens
	}

	c.logger.Debug("completion received",
		zap.Int("messages", len(messages)),
		zap.Int("input_tokens", result.InputTokens),
		zap.Int("output_tokens", result.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
