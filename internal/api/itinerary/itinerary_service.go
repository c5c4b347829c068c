package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-day-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-trip-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// CompletionClient is the remote model the itinerary text comes from.
type CompletionClient interface {
	GenerateContent(ctx context.Context, systemPrompt, humanPrompt string) (string, error)
	Model() string
}

// Service defines the itinerary planning operations.
type Service interface {
	// PlanDayTrip validates raw form input and generates an itinerary.
	// Blank fields yield a *types.MissingInputError and no remote call.
	PlanDayTrip(ctx context.Context, req types.DayTripRequest) (*types.Itinerary, error)
	// GenerateItinerary formats the prompt and calls the model once.
	GenerateItinerary(ctx context.Context, city string, interests []string) (*types.Itinerary, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	client  CompletionClient
	metrics *metrics.AppMetrics
	now     func() time.Time
}

func NewServiceImpl(client CompletionClient, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		client:  client,
		metrics: m,
		now:     time.Now,
	}
}

func (s *ServiceImpl) PlanDayTrip(ctx context.Context, req types.DayTripRequest) (*types.Itinerary, error) {
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "PlanDayTrip")
	defer span.End()

	l := s.logger.With(slog.String("method", "PlanDayTrip"))

	var missing []string
	if strings.TrimSpace(req.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(req.Interests) == "" {
		missing = append(missing, "interests")
	}
	if len(missing) > 0 {
		err := &types.MissingInputError{Fields: missing}
		l.WarnContext(ctx, "Missing day trip input", slog.Any("fields", missing))
		span.SetStatus(codes.Error, "Missing input")
		s.recordOutcome(ctx, s.now(), metrics.OutcomeMissingInput)
		return nil, err
	}

	return s.GenerateItinerary(ctx, req.City, ParseInterests(req.Interests))
}

func (s *ServiceImpl) GenerateItinerary(ctx context.Context, city string, interests []string) (*types.Itinerary, error) {
	start := s.now()
	ctx, span := otel.Tracer("ItineraryService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("app.city.name", city),
		attribute.StringSlice("app.interests", interests),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "GenerateItinerary"), slog.String("city", city))

	if strings.TrimSpace(city) == "" {
		l.WarnContext(ctx, "Missing city")
		span.SetStatus(codes.Error, "Missing city")
		s.recordOutcome(ctx, start, metrics.OutcomeMissingInput)
		return nil, &types.MissingInputError{Fields: []string{"city"}}
	}

	id := uuid.New()
	span.SetAttributes(attribute.String("app.itinerary.id", id.String()))
	l = l.With(slog.String("itinerary_id", id.String()))

	prompt := FormatItineraryPrompt(city, interests)
	l.DebugContext(ctx, "Requesting itinerary", slog.String("system_prompt", prompt.System))

	text, err := s.client.GenerateContent(ctx, prompt.System, prompt.Human)
	if err != nil {
		l.ErrorContext(ctx, "Failed to generate itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Completion failed")
		s.recordOutcome(ctx, start, metrics.OutcomeRemoteError)

		var completionErr *types.CompletionError
		if !errors.As(err, &completionErr) {
			err = &types.CompletionError{Reason: err.Error(), Err: err}
		}
		return nil, fmt.Errorf("failed to generate itinerary for %s: %w", city, err)
	}

	s.recordOutcome(ctx, start, metrics.OutcomeSuccess)
	span.SetStatus(codes.Ok, "Itinerary generated")
	l.InfoContext(ctx, "Itinerary generated", slog.Int("length", len(text)))

	return &types.Itinerary{
		ID:          id,
		City:        city,
		Interests:   interests,
		Text:        text,
		Model:       s.client.Model(),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *ServiceImpl) recordOutcome(ctx context.Context, start time.Time, outcome string) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	s.metrics.ItineraryRequestsTotal.Add(ctx, 1, attrs)
	s.metrics.ItineraryDurationSeconds.Record(ctx, s.now().Sub(start).Seconds(), attrs)
}
