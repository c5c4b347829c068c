package types

import (
	"time"

	"github.com/google/uuid"
)

// DayTripRequest is the raw input submitted through the form or the JSON API.
// Interests is the comma-separated string exactly as the user typed it.
type DayTripRequest struct {
	City      string `json:"city"`
	Interests string `json:"interests"`
}

// ItineraryPrompt holds the two chat messages sent to the completion endpoint.
type ItineraryPrompt struct {
	System string `json:"system"`
	Human  string `json:"human"`
}

// Itinerary is a generated day trip plan. Text is the model output, untouched.
// Nothing here is persisted; the ID only correlates logs and traces.
type Itinerary struct {
	ID          uuid.UUID `json:"id"`
	City        string    `json:"city"`
	Interests   []string  `json:"interests"`
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ItineraryResponse struct {
	Success   bool       `json:"success"`
	Itinerary *Itinerary `json:"itinerary"`
}
