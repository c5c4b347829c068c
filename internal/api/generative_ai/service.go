package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-trip-planner/config"
	"github.com/FACorreiaa/go-day-trip-planner/internal/types"
)

const (
	// Model is the Groq-hosted model every itinerary is generated with.
	Model = "llama-3.3-70b-versatile"
	// Temperature is fixed at zero for deterministic decoding.
	Temperature = 0.0
)

// AIClient sends chat completions to Groq's OpenAI-compatible endpoint.
// It never retries and keeps no state between calls.
type AIClient struct {
	client  openai.Client
	model   string
	tokens  *TokenCounter
	metrics *metrics.AppMetrics
	logger  *slog.Logger
}

func NewAIClient(cfg config.LLMConfig, m *metrics.AppMetrics, logger *slog.Logger) (*AIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s is not set", config.APIKeyEnv)
	}

	tokens, err := NewTokenCounter()
	if err != nil {
		logger.Warn("Prompt token counts will be estimated from length", slog.Any("error", err))
	}

	return &AIClient{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithMaxRetries(0),
		),
		model:   Model,
		tokens:  tokens,
		metrics: m,
		logger:  logger,
	}, nil
}

// Model returns the identifier sent with every request.
func (ai *AIClient) Model() string {
	return ai.model
}

// GenerateContent sends a system and a human message and returns the text of
// the first choice exactly as received.
func (ai *AIClient) GenerateContent(ctx context.Context, systemPrompt, humanPrompt string) (string, error) {
	promptTokens := ai.tokens.Count(systemPrompt) + ai.tokens.Count(humanPrompt)

	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "GenerateContent", trace.WithAttributes(
		attribute.String("llm.model", ai.model),
		attribute.Int("prompt.length", len(systemPrompt)+len(humanPrompt)),
		attribute.Int("prompt.tokens", promptTokens),
	))
	defer span.End()

	l := ai.logger.With(slog.String("method", "GenerateContent"), slog.String("model", ai.model))
	ai.metrics.LLMPromptTokens.Record(ctx, int64(promptTokens))

	start := time.Now()
	resp, err := ai.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(ai.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(humanPrompt),
		},
		Temperature: openai.Float(Temperature),
	})
	ai.recordDuration(ctx, start, err)
	if err != nil {
		completionErr := toCompletionError(err)
		l.ErrorContext(ctx, "Chat completion failed",
			slog.Int("status", completionErr.StatusCode),
			slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Chat completion failed")
		return "", completionErr
	}

	if len(resp.Choices) == 0 {
		err := &types.CompletionError{Reason: "the model returned no choices"}
		l.ErrorContext(ctx, "Empty chat completion", slog.String("completion_id", resp.ID))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty response")
		return "", err
	}

	text := resp.Choices[0].Message.Content
	span.SetAttributes(
		attribute.Int("response.length", len(text)),
		attribute.String("response.finish_reason", resp.Choices[0].FinishReason),
	)
	span.SetStatus(codes.Ok, "Content generated successfully")
	l.DebugContext(ctx, "Chat completion received",
		slog.String("completion_id", resp.ID),
		slog.Int64("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("latency", time.Since(start)))
	return text, nil
}

func (ai *AIClient) recordDuration(ctx context.Context, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ai.metrics.LLMRequestDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("status", status)))
}

// toCompletionError maps SDK and transport failures onto the domain error.
func toCompletionError(err error) *types.CompletionError {
	var apiErr *openai.Error
	switch {
	case errors.As(err, &apiErr):
		reason := apiErr.Message
		if reason == "" {
			reason = strings.ToLower(http.StatusText(apiErr.StatusCode))
		}
		return &types.CompletionError{Reason: reason, StatusCode: apiErr.StatusCode, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &types.CompletionError{Reason: "the completion service did not answer in time", Err: err}
	case errors.Is(err, context.Canceled):
		return &types.CompletionError{Reason: "the request was cancelled", Err: err}
	default:
		return &types.CompletionError{Reason: "the completion service is unreachable", Err: err}
	}
}
