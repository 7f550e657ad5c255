package textgen

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

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/joseteiadirector/teia-geo/internal/config"
)

// maxResponseBytes caps how much of a provider response is read.
const maxResponseBytes = 1 << 20

var (
	// ErrMissingCredentials is returned without a network call when no API key is configured.
	ErrMissingCredentials = errors.New("text generator credentials are not configured")
	// ErrEmptyCompletion is returned when the provider answers without any text.
	ErrEmptyCompletion = errors.New("text generator returned an empty completion")
)

// StatusError is a non-2xx answer from the provider.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("text generator error (%d): %s", e.StatusCode, e.Message)
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	apiKey     string
	model      string
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *logrus.Logger
}

// NewClient creates a new text generator client instance
func NewClient(cfg *config.TextGeneratorConfig, logger *logrus.Logger) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures <= 0 {
		failures = 5
	}
	cooldown := 60 * time.Second
	if d, err := time.ParseDuration(cfg.BreakerCooldown); err == nil && d > 0 {
		cooldown = d
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	c := &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "text_generator",
		MaxRequests: 1,
		Interval:    cooldown,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.logger.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from":            from.String(),
				"to":              to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return c
}

// Generate sends one system+user prompt pair and returns the completion text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredentials
	}

	return c.breaker.Execute(func() (string, error) {
		body := chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: req.SystemPrompt},
				{Role: "user", Content: req.UserPrompt},
			},
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}

		var response chatResponse
		if err := c.makeRequest(ctx, http.MethodPost, "/chat/completions", body, &response); err != nil {
			return "", err
		}
		if len(response.Choices) == 0 {
			return "", ErrEmptyCompletion
		}
		text := strings.TrimSpace(response.Choices[0].Message.Content)
		if text == "" {
			return "", ErrEmptyCompletion
		}
		return text, nil
	})
}

// BreakerState reports the current circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// makeRequest is a helper method to make HTTP requests to the provider
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.BaseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "Teia-GEO/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Debug("Error closing response body")
		}
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp errorResponse
		if err := json.Unmarshal(respBody, &errorResp); err == nil && errorResp.Error.Message != "" {
			return &StatusError{StatusCode: resp.StatusCode, Message: errorResp.Error.Message}
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
