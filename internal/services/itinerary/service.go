// Package itinerary generates and reviews structured travel plans from
// conversation history using the planning model.
package itinerary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// conversationWindow bounds how many recent turns feed the planning model
const conversationWindow = 15

// minUserTurns is the signal floor: with fewer user messages there is not
// enough trip context to plan from, and the caller gets a friendly prompt
// instead of an error.
const minUserTurns = 2

const msgNeedMoreDetail = "I'd love to plan that for you! Tell me a bit more first: where are you headed, how many days do you have, and is there anything you definitely want to see or do?"

const msgNoItinerary = "There's no itinerary to analyze yet. Ask me to plan a trip first and I'll put one together for you."

const msgItineraryReady = "I've updated your itinerary. Let me know if you'd like to adjust anything!"

// Service implements the ItineraryService interface
type Service struct {
	llm           interfaces.LLMService
	planningModel string
	city          string
	validate      *validator.Validate
	logger        arbor.ILogger
}

// NewService creates an itinerary service
func NewService(llm interfaces.LLMService, planningModel, city string, logger arbor.ILogger) *Service {
	return &Service{
		llm:           llm,
		planningModel: planningModel,
		city:          city,
		validate:      validator.New(),
		logger:        logger,
	}
}

// Generate builds an itinerary from the recent conversation. The current
// itinerary, when present, is passed as short-term memory so entries marked
// fixed survive regeneration.
func (s *Service) Generate(ctx context.Context, conversation []interfaces.Message, current *models.Itinerary) (*models.ItineraryResult, error) {
	recent := recentTurns(conversation, conversationWindow)

	if countUserTurns(recent) < minUserTurns {
		return &models.ItineraryResult{Prompt: msgNeedMoreDetail}, nil
	}

	messages := make([]interfaces.Message, 0, len(recent)+2)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: s.buildPlanningPrompt(current),
	})
	messages = append(messages, recent...)
	messages = append(messages, interfaces.Message{
		Role:    "user",
		Content: "Produce the itinerary JSON now.",
	})

	reply, err := s.llm.Chat(ctx, s.planningModel, messages)
	if err != nil {
		return nil, fmt.Errorf("itinerary generation failed: %w", err)
	}

	itinerary, err := parseItinerary(reply)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Planning model returned unparseable itinerary")
		return nil, fmt.Errorf("failed to parse generated itinerary: %w", err)
	}

	if err := s.validate.Struct(itinerary); err != nil {
		return nil, fmt.Errorf("generated itinerary failed validation: %w", err)
	}

	s.logger.Info().
		Int("days", len(itinerary.Days)).
		Msg("Itinerary generated")

	return &models.ItineraryResult{
		Itinerary: itinerary,
		Prompt:    msgItineraryReady,
	}, nil
}

// Analyze reviews the current itinerary for feasibility
func (s *Service) Analyze(ctx context.Context, current *models.Itinerary) (string, error) {
	if current.Empty() {
		return msgNoItinerary, nil
	}

	itineraryJSON, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode itinerary: %w", err)
	}

	messages := []interfaces.Message{
		{
			Role: "system",
			Content: fmt.Sprintf(`You are a travel planning expert based in %s. Review the user's itinerary for feasibility: pacing, travel time between stops, opening hours, meal breaks and rest. Point out conflicts and suggest concrete improvements. Answer in friendly markdown.`, s.city),
		},
		{
			Role:    "user",
			Content: fmt.Sprintf("Here is my itinerary:\n```json\n%s\n```\nIs this plan realistic?", itineraryJSON),
		},
	}

	analysis, err := s.llm.Chat(ctx, s.planningModel, messages)
	if err != nil {
		return "", fmt.Errorf("itinerary analysis failed: %w", err)
	}
	return analysis, nil
}

// buildPlanningPrompt produces the generation system prompt, embedding the
// current itinerary when one exists.
func (s *Service) buildPlanningPrompt(current *models.Itinerary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You are a travel planning expert based in %s. Build a travel itinerary from the conversation.

Respond with ONLY a JSON object in exactly this shape, no commentary:
{"days": [{"date": "YYYY-MM-DD", "day_number": 1, "locations": [{"address": "place name or address", "time": "HH:MM or empty", "notes": "short tip", "fixed": false, "visit_order": 1}]}]}

Rules:
- Order locations within each day by visit_order starting at 1.
- Keep days realistic: account for travel time, meals and opening hours.
`, s.city)

	if !current.Empty() {
		if currentJSON, err := json.Marshal(current); err == nil {
			fmt.Fprintf(&sb, `
The user already has this itinerary:
%s

Adjust it per the conversation. Entries with "fixed": true MUST be kept exactly as they are: same day, same time, same address.
`, currentJSON)
		}
	}

	return sb.String()
}

// parseItinerary decodes the planning model reply, stripping a fenced code
// block when present.
func parseItinerary(reply string) (*models.Itinerary, error) {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	// Tolerate prose around the object by extracting the outermost braces
	if start := strings.Index(cleaned, "{"); start > 0 {
		if end := strings.LastIndex(cleaned, "}"); end > start {
			cleaned = cleaned[start : end+1]
		}
	}

	var itinerary models.Itinerary
	if err := json.Unmarshal([]byte(cleaned), &itinerary); err != nil {
		return nil, err
	}
	return &itinerary, nil
}

// recentTurns returns the last n user and assistant turns, dropping system
// messages that may have leaked into the transport history.
func recentTurns(conversation []interfaces.Message, n int) []interfaces.Message {
	filtered := make([]interfaces.Message, 0, len(conversation))
	for _, msg := range conversation {
		if msg.Role == "user" || msg.Role == "assistant" {
			filtered = append(filtered, msg)
		}
	}
	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}
	return filtered
}

func countUserTurns(messages []interfaces.Message) int {
	count := 0
	for _, msg := range messages {
		if msg.Role == "user" {
			count++
		}
	}
	return count
}
