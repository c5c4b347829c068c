package itinerary

import (
	"strings"

	"github.com/FACorreiaa/go-day-trip-planner/internal/types"
)

const (
	systemPromptTemplate = "You are a helpful travel assistant. Create a day trip itinerary for {city} based on the user's interests: {interests}. Provide a brief, bulleted itinerary."
	humanPrompt          = "Create an itinerary for my day trip."
)

// FormatItineraryPrompt fills the fixed template. Interests are joined with
// ", " in the order given; an empty slice leaves the placeholder empty.
func FormatItineraryPrompt(city string, interests []string) types.ItineraryPrompt {
	r := strings.NewReplacer(
		"{city}", city,
		"{interests}", strings.Join(interests, ", "),
	)
	return types.ItineraryPrompt{
		System: r.Replace(systemPromptTemplate),
		Human:  humanPrompt,
	}
}

// ParseInterests splits raw on commas and trims each entry. Empty entries and
// duplicates are kept.
func ParseInterests(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
