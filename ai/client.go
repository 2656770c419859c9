// Package ai wraps the external reasoning and explanation services
// behind core.AIClient. The default implementation speaks the
// OpenAI-compatible chat-completions protocol, which covers the hosted
// providers the planner is deployed against.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hznxin/tripmind/core"
	"github.com/hznxin/tripmind/resilience"
)

// Client implements core.AIClient over an OpenAI-compatible endpoint.
// Safe for concurrent use; the fan-out callers rely on that.
//
// Every call runs through retry-with-circuit-breaker: transient failures
// (5xx, network, timeout, empty payloads) are retried with backoff and
// count toward opening the breaker; 4xx provider rejections abort
// immediately and, since the provider responded, restore the circuit
// rather than count against it.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	logger     core.Logger
}

// NewClient creates a client from AIConfig. The API key falls back to
// OPENAI_API_KEY when unset.
func NewClient(cfg core.AIConfig, logger core.Logger) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if logger == nil {
		logger = &core.NoOpLogger{}
	} else if cal, ok := logger.(core.ComponentAwareLogger); ok {
		logger = cal.WithComponent("planner/ai")
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:             "llm",
			FailureThreshold: 5,
			RecoveryTimeout:  cfg.Timeout * 3,
			Logger:           logger,
		}),
		// Two attempts keep a transient blip from degrading a whole
		// fan-out batch without blowing the per-candidate deadline.
		retry: &resilience.RetryConfig{
			MaxAttempts:   2,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      time.Second,
			BackoffFactor: 2.0,
			JitterEnabled: true,
		},
		logger: logger,
	}
}

// GenerateResponse sends a chat-completion request through the retry and
// circuit-breaker layers and returns the text content. A failing
// provider converts into fast local errors once the breaker opens, so
// the fan-out degrades without waiting out every timeout.
func (c *Client) GenerateResponse(ctx context.Context, prompt string, options *core.AIOptions) (*core.AIResponse, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured: %w", core.ErrMissingConfiguration)
	}

	var resp *core.AIResponse
	err := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func() error {
		r, reqErr := c.doRequest(ctx, prompt, options)
		if reqErr != nil {
			return reqErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// doRequest performs one chat-completion attempt. Status codes map to
// the error taxonomy: 4xx to ErrRequestRejected (not transient), 5xx and
// transport failures to ErrServiceUnavailable (transient).
func (c *Client) doRequest(ctx context.Context, prompt string, options *core.AIOptions) (*core.AIResponse, error) {
	if options == nil {
		options = &core.AIOptions{}
	}
	model := options.Model
	if model == "" {
		model = c.model
	}
	maxTokens := options.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	messages := []map[string]string{}
	if options.SystemPrompt != "" {
		messages = append(messages, map[string]string{
			"role":    "system",
			"content": options.SystemPrompt,
		})
	}
	messages = append(messages, map[string]string{
		"role":    "user",
		"content": prompt,
	})

	reqBody := map[string]interface{}{
		"model":       model,
		"messages":    messages,
		"temperature": options.Temperature,
		"max_tokens":  maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", core.ErrServiceUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", core.ErrServiceUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		kind := core.ErrServiceUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = core.ErrRequestRejected
		}
		c.logger.Warn("LLM API error", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   truncate(string(body), 200),
		})
		return nil, fmt.Errorf("API error (status %d): %w", resp.StatusCode, kind)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", core.ErrServiceUnavailable)
	}
	if len(parsed.Choices) == 0 {
		return nil, core.ErrEmptyResponse
	}

	return &core.AIResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure Client implements core.AIClient
var _ core.AIClient = (*Client)(nil)
