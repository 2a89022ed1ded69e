package service

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

	"estatebot/internal/config"
	"estatebot/internal/observability"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Fallback messages, rendered with an "Error: " prefix
const (
	fallbackMalformedMessage = "Unable to retrieve the response."
	fallbackExhaustedMessage = "Model could not be loaded. Please try again later."
	fallbackUnknownMessage   = "Unknown error"
	modelLoadingMarker       = "is currently loading"
)

var errModelLoading = errors.New("model is loading")

// FallbackStatus classifies the outcome of a fallback call
type FallbackStatus int

// Fallback outcomes
const (
	FallbackSuccess FallbackStatus = iota
	FallbackUpstreamError
	FallbackExhausted
)

// String returns the status name used in API responses and logs
func (s FallbackStatus) String() string {
	switch s {
	case FallbackSuccess:
		return "success"
	case FallbackUpstreamError:
		return "upstream_error"
	case FallbackExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// FallbackResult is the outcome of asking the conversational model
type FallbackResult struct {
	Status   FallbackStatus
	Text     string
	Attempts int
}

// Message renders the result as reply text
func (r FallbackResult) Message() string {
	if r.Status == FallbackSuccess {
		return r.Text
	}
	return "Error: " + r.Text
}

// Fallback produces a conversational reply when the searches find nothing
type Fallback interface {
	Reply(ctx context.Context, prompt string) FallbackResult
}

// FallbackClient calls a hosted text-generation model over HTTP
type FallbackClient struct {
	url         string
	token       string
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      zerolog.Logger
}

// FallbackOption configures a FallbackClient
type FallbackOption func(*FallbackClient)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) FallbackOption {
	return func(c *FallbackClient) {
		c.httpClient = client
	}
}

// WithFallbackLogger sets the logger
func WithFallbackLogger(logger zerolog.Logger) FallbackOption {
	return func(c *FallbackClient) {
		c.logger = observability.Component(logger, "fallback")
	}
}

// NewFallbackClient creates a new fallback client
func NewFallbackClient(cfg config.FallbackConfig, opts ...FallbackOption) *FallbackClient {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	c := &FallbackClient{
		url:         cfg.APIURL,
		token:       cfg.APIToken,
		maxAttempts: maxAttempts,
		retryDelay:  cfg.RetryDelay,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		limiter:     rate.NewLimiter(limit, burst),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type fallbackRequest struct {
	Inputs string `json:"inputs"`
}

type generatedText struct {
	GeneratedText *string `json:"generated_text"`
}

type upstreamError struct {
	Error json.RawMessage `json:"error"`
}

// Reply asks the model for a reply to prompt. While the model reports that it
// is loading the call is retried after the configured delay. It never fails;
// every outcome is described by the result.
func (c *FallbackClient) Reply(ctx context.Context, prompt string) FallbackResult {
	var result FallbackResult
	attempts := 0

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx,
	)

	err := backoff.Retry(func() error {
		attempts++
		var retry bool
		result, retry = c.attempt(ctx, prompt)
		if retry {
			c.logger.Info().Int("attempt", attempts).Dur("delay", c.retryDelay).Msg("model is loading, retrying")
			return errModelLoading
		}
		return nil
	}, policy)

	result.Attempts = attempts
	if err != nil {
		if errors.Is(err, errModelLoading) {
			result.Status = FallbackExhausted
			result.Text = fallbackExhaustedMessage
		} else {
			result.Status = FallbackUpstreamError
			result.Text = err.Error()
		}
	}

	c.logger.Debug().Str("status", result.Status.String()).Int("attempts", attempts).Msg("fallback finished")
	return result
}

// attempt performs one request and reports whether it should be retried
func (c *FallbackClient) attempt(ctx context.Context, prompt string) (FallbackResult, bool) {
	if err := c.limiter.Wait(ctx); err != nil {
		return upstreamFailure(err.Error()), false
	}

	reqBody, err := json.Marshal(fallbackRequest{Inputs: prompt})
	if err != nil {
		return upstreamFailure(fmt.Sprintf("failed to marshal request: %v", err)), false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(reqBody))
	if err != nil {
		return upstreamFailure(fmt.Sprintf("failed to create request: %v", err)), false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return upstreamFailure(fmt.Sprintf("request failed: %v", err)), false
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return upstreamFailure(fmt.Sprintf("failed to read response: %v", err)), false
	}

	c.logger.Debug().Int("status", resp.StatusCode).Str("body", string(body)).Msg("fallback response")

	switch {
	case resp.StatusCode == http.StatusOK:
		var generated []generatedText
		if err := json.Unmarshal(body, &generated); err != nil || len(generated) == 0 || generated[0].GeneratedText == nil {
			return upstreamFailure(fallbackMalformedMessage), false
		}
		return FallbackResult{Status: FallbackSuccess, Text: *generated[0].GeneratedText}, false

	case resp.StatusCode == http.StatusServiceUnavailable && strings.Contains(errorText(body), modelLoadingMarker):
		return FallbackResult{Status: FallbackExhausted, Text: fallbackExhaustedMessage}, true

	default:
		message := errorText(body)
		if message == "" {
			message = fallbackUnknownMessage
		}
		return upstreamFailure(message), false
	}
}

func upstreamFailure(text string) FallbackResult {
	return FallbackResult{Status: FallbackUpstreamError, Text: text}
}

// errorText extracts the "error" field of an upstream error body. Non-string
// values are returned as raw JSON.
func errorText(body []byte) string {
	var payload upstreamError
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Error, &text); err == nil {
		return text
	}
	return string(payload.Error)
}
