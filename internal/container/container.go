package container

import (
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/go-day-trip-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-trip-planner/config"
	generativeAI "github.com/FACorreiaa/go-day-trip-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-day-trip-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-day-trip-planner/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	AIClient         *generativeAI.AIClient
	ItineraryService *itinerary.ServiceImpl
	ItineraryHandler *itinerary.HandlerImpl
}

// NewContainer wires the planner from explicit configuration.
func NewContainer(cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	aiClient, err := generativeAI.NewAIClient(cfg.LLM, m, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	itineraryService := itinerary.NewServiceImpl(aiClient, m, logger)
	itineraryHandler := itinerary.NewHandlerImpl(itineraryService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		AIClient:         aiClient,
		ItineraryService: itineraryService,
		ItineraryHandler: itineraryHandler,
	}, nil
}

// RouterConfig returns the router dependencies held by the container.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		ItineraryHandler: c.ItineraryHandler,
		AllowedOrigins:   c.Config.Cors.AllowedOrigins,
	}
}
