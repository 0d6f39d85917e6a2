package interfaces

import (
	"context"

	"github.com/ternarybob/wayfarer/internal/models"
)

// ChatService defines the conversational entry point. A request carries the
// full conversation plus the caller's current itinerary; the response is
// either a direct answer, a tool-grounded answer, or an itinerary action.
type ChatService interface {
	HandleMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// ItineraryService generates and analyzes travel itineraries from
// conversation history.
type ItineraryService interface {
	// Generate builds an itinerary from recent conversation turns, adjusting
	// the current itinerary when one is provided.
	Generate(ctx context.Context, conversation []Message, current *models.Itinerary) (*models.ItineraryResult, error)

	// Analyze reviews the current itinerary and returns advisory text.
	Analyze(ctx context.Context, current *models.Itinerary) (string, error)
}
