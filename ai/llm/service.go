// Package llm wraps the reasoning service behind a single Complete
// call. The service is treated as unreliable: callers degrade to safe
// defaults on any error, and nothing here retries.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Service is the reasoning-service interface consumed by the agent.
type Service interface {
	// Complete sends a single-turn prompt and returns the trimmed
	// response text. Any transport failure, timeout, or empty answer is
	// reported as an error; callers fall back to their documented
	// defaults.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Config represents reasoning-service configuration.
type Config struct {
	APIKey      string
	BaseURL     string // default: OpenRouter
	Model       string
	Temperature float32 // default: 0.7
	Timeout     int     // request timeout in seconds (default: 30)
}

const defaultBaseURL = "https://openrouter.ai/api/v1"

type service struct {
	client      *openai.Client
	model       string
	temperature float32
	timeout     int
}

// NewService creates a new reasoning service over any
// OpenAI-compatible completion endpoint.
func NewService(cfg *Config) (Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("reasoning service API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = baseURL
	clientConfig.HTTPClient = newHTTPClient()

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("llm: completion request failed", "error", err)
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("llm: empty response")
		return "", fmt.Errorf("empty response from llm")
	}

	slog.Debug("llm: completion received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(startTime).Milliseconds(),
	)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// newHTTPClient builds the shared HTTP client with connection pooling
// tuned for a single long-running process.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
