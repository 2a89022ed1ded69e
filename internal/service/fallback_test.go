package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"estatebot/internal/config"

	"github.com/stretchr/testify/assert"
)

func newFallbackClient(t *testing.T, handler http.HandlerFunc) (*FallbackClient, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewFallbackClient(config.FallbackConfig{
		APIURL:      server.URL,
		APIToken:    "hf_test_token",
		MaxAttempts: 3,
		RetryDelay:  10 * time.Millisecond,
		Timeout:     5 * time.Second,
	})
	return client, &calls
}

func TestFallbackClient_Success(t *testing.T) {
	client, calls := newFallbackClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer hf_test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello there", body["inputs"])

		_, _ = w.Write([]byte(`[{"generated_text":"Hi! How can I help?"}]`))
	})

	result := client.Reply(context.Background(), "hello there")
	assert.Equal(t, FallbackSuccess, result.Status)
	assert.Equal(t, "Hi! How can I help?", result.Message())
	assert.Equal(t, 1, result.Attempts)
	assert.EqualValues(t, 1, *calls)
}

func TestFallbackClient_Responses(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		outcome  FallbackStatus
	}{
		{
			name:     "malformed success body",
			status:   http.StatusOK,
			body:     `{"generated_text":"not a list"}`,
			expected: "Error: Unable to retrieve the response.",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "empty list",
			status:   http.StatusOK,
			body:     `[]`,
			expected: "Error: Unable to retrieve the response.",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "missing generated_text",
			status:   http.StatusOK,
			body:     `[{"summary_text":"x"}]`,
			expected: "Error: Unable to retrieve the response.",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "upstream error message",
			status:   http.StatusBadRequest,
			body:     `{"error":"Authorization header is correct, but the token seems invalid"}`,
			expected: "Error: Authorization header is correct, but the token seems invalid",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "upstream error without message",
			status:   http.StatusInternalServerError,
			body:     `{}`,
			expected: "Error: Unknown error",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "non json error body",
			status:   http.StatusBadGateway,
			body:     `bad gateway`,
			expected: "Error: Unknown error",
			outcome:  FallbackUpstreamError,
		},
		{
			name:     "503 that is not loading",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":"Service overloaded"}`,
			expected: "Error: Service overloaded",
			outcome:  FallbackUpstreamError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, calls := newFallbackClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			result := client.Reply(context.Background(), "hi")
			assert.Equal(t, tt.outcome, result.Status)
			assert.Equal(t, tt.expected, result.Message())
			assert.EqualValues(t, 1, *calls, "only loading responses are retried")
		})
	}
}

func TestFallbackClient_LoadingExhausted(t *testing.T) {
	client, calls := newFallbackClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model facebook/blenderbot-400M-distill is currently loading","estimated_time":20}`))
	})

	start := time.Now()
	result := client.Reply(context.Background(), "hi")

	assert.Equal(t, FallbackExhausted, result.Status)
	assert.Equal(t, "Error: Model could not be loaded. Please try again later.", result.Message())
	assert.Equal(t, 3, result.Attempts)
	assert.EqualValues(t, 3, *calls)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond, "waits between attempts")
}

func TestFallbackClient_LoadingThenSuccess(t *testing.T) {
	var n int32
	client, calls := newFallbackClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&n, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"generated_text":"ready now"}]`))
	})

	result := client.Reply(context.Background(), "hi")
	assert.Equal(t, FallbackSuccess, result.Status)
	assert.Equal(t, "ready now", result.Text)
	assert.Equal(t, 2, result.Attempts)
	assert.EqualValues(t, 2, *calls)
}

func TestFallbackClient_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"generated_text":"ok"}]`))
	}))
	defer server.Close()

	client := NewFallbackClient(config.FallbackConfig{APIURL: server.URL, MaxAttempts: 1})
	assert.Equal(t, "ok", client.Reply(context.Background(), "hi").Message())
}

func TestFallbackClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewFallbackClient(config.FallbackConfig{APIURL: url, MaxAttempts: 3, RetryDelay: time.Millisecond})
	result := client.Reply(context.Background(), "hi")

	assert.Equal(t, FallbackUpstreamError, result.Status)
	assert.Contains(t, result.Message(), "Error: request failed")
	assert.Equal(t, 1, result.Attempts)
}

func TestFallbackClient_ContextCancelledWhileLoading(t *testing.T) {
	client, _ := newFallbackClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	})
	client.retryDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	result := client.Reply(ctx, "hi")
	assert.Equal(t, FallbackUpstreamError, result.Status)
	assert.Equal(t, "Error: "+context.Canceled.Error(), result.Message())
	assert.Equal(t, 1, result.Attempts)
}

func TestFallbackStatus_String(t *testing.T) {
	assert.Equal(t, "success", FallbackSuccess.String())
	assert.Equal(t, "upstream_error", FallbackUpstreamError.String())
	assert.Equal(t, "exhausted", FallbackExhausted.String())
	assert.Equal(t, "unknown", FallbackStatus(42).String())
}
