package metrics

import (
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "DayTripPlanner"

// Outcome values for the "outcome" attribute of ItineraryRequestsTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeMissingInput = "missing_input"
	OutcomeRemoteError  = "remote_error"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ItineraryRequestsTotal    metric.Int64Counter
	ItineraryDurationSeconds  metric.Float64Histogram
	LLMRequestDurationSeconds metric.Float64Histogram
	LLMPromptTokens           metric.Int64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the global instruments from the global MeterProvider.
// Only the first call has any effect.
func InitAppMetrics() {
	once.Do(func() {
		m, err := New(otel.GetMeterProvider().Meter(meterName))
		if err != nil {
			log.Fatalf("Metrics: %v", err)
		}
		appMetrics = m
	})
}

// Get returns the global instruments. InitAppMetrics must have been called.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}

// New creates the instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.ItineraryRequestsTotal, err = meter.Int64Counter(
		"itinerary_requests_total",
		metric.WithDescription("Total number of itinerary requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create itinerary_requests_total: %w", err)
	}

	m.ItineraryDurationSeconds, err = meter.Float64Histogram(
		"itinerary_duration_seconds",
		metric.WithDescription("Duration of itinerary requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create itinerary_duration_seconds: %w", err)
	}

	m.LLMRequestDurationSeconds, err = meter.Float64Histogram(
		"llm_request_duration_seconds",
		metric.WithDescription("Duration of chat completion calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_request_duration_seconds: %w", err)
	}

	m.LLMPromptTokens, err = meter.Int64Histogram(
		"llm_prompt_tokens",
		metric.WithDescription("Estimated prompt size of chat completion calls"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm_prompt_tokens: %w", err)
	}

	return m, nil
}
