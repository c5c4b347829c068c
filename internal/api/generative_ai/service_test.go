package generativeAI

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiktoken-go/tokenizer"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/go-day-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-trip-planner/config"
	"github.com/FACorreiaa/go-day-trip-planner/internal/types"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// stubCompletionServer imitates the chat completions endpoint. Every request
// body is decoded into received and answered by respond.
type stubCompletionServer struct {
	*httptest.Server
	calls    atomic.Int32
	received chatRequest
	authz    string
}

func newStubCompletionServer(t *testing.T, respond func(w http.ResponseWriter)) *stubCompletionServer {
	t.Helper()
	stub := &stubCompletionServer{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		stub.authz = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		if err == nil {
			_ = json.Unmarshal(body, &stub.received)
		}
		respond(w)
	}))
	t.Cleanup(stub.Close)
	return stub
}

func completionJSON(text string) string {
	payload := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   Model,
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": text},
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func newTestClient(t *testing.T, baseURL string) *AIClient {
	t.Helper()
	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	client, err := NewAIClient(config.LLMConfig{BaseURL: baseURL + "/openai/v1/", APIKey: "gsk_test"}, m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestNewAIClient_RequiresAPIKey(t *testing.T) {
	m, err := metrics.New(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	client, err := NewAIClient(config.LLMConfig{BaseURL: "https://api.groq.com/openai/v1/"}, m, slog.Default())
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), config.APIKeyEnv)
}

func TestAIClient_GenerateContent(t *testing.T) {
	itinerary := "- 9:00 Louvre\n- 12:30 Lunch at **Le Procope**\n\n  trailing spaces  "
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionJSON(itinerary))
	})
	client := newTestClient(t, stub.URL)

	text, err := client.GenerateContent(context.Background(), "system prompt", "human prompt")
	require.NoError(t, err)

	t.Run("returns the text unmodified", func(t *testing.T) {
		assert.Equal(t, itinerary, text)
	})

	t.Run("sends the fixed model and zero temperature", func(t *testing.T) {
		assert.Equal(t, "llama-3.3-70b-versatile", stub.received.Model)
		require.NotNil(t, stub.received.Temperature, "temperature must be sent explicitly")
		assert.Equal(t, 0.0, *stub.received.Temperature)
	})

	t.Run("sends system then human message", func(t *testing.T) {
		require.Len(t, stub.received.Messages, 2)
		assert.Equal(t, "system", stub.received.Messages[0].Role)
		assert.Equal(t, "system prompt", stub.received.Messages[0].Content)
		assert.Equal(t, "user", stub.received.Messages[1].Role)
		assert.Equal(t, "human prompt", stub.received.Messages[1].Content)
	})

	t.Run("authenticates with the injected key", func(t *testing.T) {
		assert.Equal(t, "Bearer gsk_test", stub.authz)
	})

	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestAIClient_GenerateContent_ProviderError(t *testing.T) {
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`)
	})
	client := newTestClient(t, stub.URL)

	text, err := client.GenerateContent(context.Background(), "system", "human")
	assert.Empty(t, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCompletionFailed)

	var completionErr *types.CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Equal(t, http.StatusUnauthorized, completionErr.StatusCode)
	assert.NotEmpty(t, completionErr.Reason)
	assert.Equal(t, int32(1), stub.calls.Load(), "failed calls are not retried")
}

func TestAIClient_GenerateContent_ServerErrorIsNotRetried(t *testing.T) {
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":{"message":"Service Unavailable","type":"internal_server_error"}}`)
	})
	client := newTestClient(t, stub.URL)

	_, err := client.GenerateContent(context.Background(), "system", "human")
	var completionErr *types.CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Equal(t, http.StatusServiceUnavailable, completionErr.StatusCode)
	assert.Equal(t, int32(1), stub.calls.Load())
}

func TestAIClient_GenerateContent_NoChoices(t *testing.T) {
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-empty","object":"chat.completion","created":1,"model":"llama-3.3-70b-versatile","choices":[]}`)
	})
	client := newTestClient(t, stub.URL)

	_, err := client.GenerateContent(context.Background(), "system", "human")
	assert.ErrorIs(t, err, types.ErrCompletionFailed)
}

func TestAIClient_GenerateContent_Unreachable(t *testing.T) {
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {})
	baseURL := stub.URL
	stub.Close()

	client := newTestClient(t, baseURL)
	_, err := client.GenerateContent(context.Background(), "system", "human")

	var completionErr *types.CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Zero(t, completionErr.StatusCode)
	assert.Equal(t, "the completion service is unreachable", completionErr.Reason)
}

func TestAIClient_GenerateContent_Cancelled(t *testing.T) {
	release := make(chan struct{})
	stub := newStubCompletionServer(t, func(w http.ResponseWriter) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
	})
	defer close(release)
	client := newTestClient(t, stub.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateContent(ctx, "system", "human")
	assert.ErrorIs(t, err, types.ErrCompletionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTokenCounter(t *testing.T) {
	tc, err := NewTokenCounter()
	require.NoError(t, err)
	assert.Zero(t, tc.Count(""))
	assert.Positive(t, tc.Count("Create an itinerary for my day trip."))

	fallback := &TokenCounter{}
	assert.Equal(t, 2, fallback.Count("12345678"))
}

func TestTokenCounter_UnknownEncoding(t *testing.T) {
	tc, err := newTokenCounter(tokenizer.Encoding("not-an-encoding"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-encoding")
	require.NotNil(t, tc)
	assert.Equal(t, 4, tc.Count("Create an itinerary"))
}
