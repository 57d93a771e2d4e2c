// Package textgen provides the client for the hosted text-completion API
// that turns session summaries into insight text.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL        = "https://api.anthropic.com"
	defaultModel          = "claude-3-5-haiku-latest"
	defaultMaxTokens      = 300
	defaultTemperature    = 0.7
	defaultMaxRetries     = 3
	defaultBaseDelay      = time.Second
	defaultMinInterval    = time.Second
	defaultRequestTimeout = 30 * time.Second

	apiVersion  = "2023-06-01"
	maxBodySize = 1 << 20 // 1 MB
)

var (
	// ErrUnauthorized indicates a rejected credential. Never retried.
	ErrUnauthorized = errors.New("textgen: unauthorized (check API key)")
	// ErrRateLimited indicates the API rate limit was hit. Retried with backoff.
	ErrRateLimited = errors.New("textgen: rate limited")
	// ErrMalformedResponse indicates a response body that could not be
	// interpreted. Never retried.
	ErrMalformedResponse = errors.New("textgen: malformed response")
)

// FallbackText is returned when every attempt is exhausted. It is safe to
// cache and display, and callers can tell it apart from a genuine completion
// through the ok flag Complete returns.
const FallbackText = "Keep up the great work! Your focus sessions are building a strong foundation."

// systemPrompt fixes the persona across all insight generations.
const systemPrompt = "You are a supportive productivity coach inside a focus-session " +
	"tracking app. You write brief, encouraging, concrete observations about the " +
	"user's work patterns. Stay grounded in the numbers you are given and never " +
	"invent data."

// Config holds the externally configurable client settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	Temperature    float64
	MaxRetries     int
	BaseDelay      time.Duration
	MinInterval    time.Duration
	RequestTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	return c
}

// Client talks to the text-completion endpoint. The rate-limiter state is
// owned by the instance: one constructed client spaces out every request it
// sends, whichever insight triggered it.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	lastRequest time.Time
	requests    int64

	// sleep is swapped out in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a client from config. A zero MinInterval disables request
// spacing; everything else falls back to documented defaults.
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:   cfg,
		http:  &http.Client{},
		sleep: sleepCtx,
	}
}

// Complete sends the prompt and returns the completion text. It never fails
// outward: on unrecoverable errors or retry exhaustion it returns
// (FallbackText, false) so the caller always has something to cache and
// display. The ok flag is true only for a genuine model completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, bool) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// Pure exponential backoff: base x 2^attempt.
			delay := c.cfg.BaseDelay << attempt
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
		}

		if err := c.waitTurn(ctx); err != nil {
			lastErr = err
			break
		}

		text, err := c.doRequest(ctx, prompt)
		if err == nil {
			return text, true
		}
		lastErr = err

		if !retryable(err) {
			break
		}
	}

	log.Printf("textgen: degrading to fallback after failure: %v", lastErr)
	return FallbackText, false
}

// RequestCount reports how many HTTP attempts this client has made.
func (c *Client) RequestCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

// waitTurn enforces the minimum spacing between requests.
func (c *Client) waitTurn(ctx context.Context) error {
	if c.cfg.MinInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	wait := c.cfg.MinInterval - time.Since(c.lastRequest)
	c.mu.Unlock()

	if wait > 0 {
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.lastRequest = time.Now()
	c.requests++
	c.mu.Unlock()

	body, err := json.Marshal(messagesRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		System:      systemPrompt,
		Messages:    []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("textgen: marshaling request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("textgen: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("textgen: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("textgen: reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusRequestTimeout:
		return "", fmt.Errorf("textgen: transient server error: status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%w: status %d: %s", ErrMalformedResponse, resp.StatusCode, truncateBody(respBody))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	text := parsed.text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	return text, nil
}

// retryable classifies an error. Rate limits, timeouts, and transient
// network/server failures are retried; auth failures and malformed responses
// terminate immediately.
func retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrMalformedResponse):
		return false
	case errors.Is(err, ErrRateLimited), errors.Is(err, context.DeadlineExceeded):
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "deadline exceeded", "connection refused", "connection reset", "transient", "temporarily", "eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func truncateBody(b []byte) string {
	const max = 200
	s := string(b)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
