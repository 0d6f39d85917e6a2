package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// Router implements the ChatService interface. One intent call classifies
// the user's latest message, then the request is dispatched to the tool
// orchestrator, the itinerary service, or answered directly.
type Router struct {
	llm          interfaces.LLMService
	orchestrator *Orchestrator
	itinerary    interfaces.ItineraryService
	knowledge    interfaces.KnowledgeService
	intentModel  string
	city         string
	logger       arbor.ILogger
}

// NewRouter creates the chat entry point
func NewRouter(llm interfaces.LLMService, orchestrator *Orchestrator, itinerary interfaces.ItineraryService, knowledge interfaces.KnowledgeService, intentModel, city string, logger arbor.ILogger) *Router {
	return &Router{
		llm:          llm,
		orchestrator: orchestrator,
		itinerary:    itinerary,
		knowledge:    knowledge,
		intentModel:  intentModel,
		city:         city,
		logger:       logger,
	}
}

// HandleMessage processes one chat turn
func (r *Router) HandleMessage(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("chat request contains no messages")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" {
		return nil, fmt.Errorf("chat request must end with a user message")
	}

	conversation := toLLMMessages(req.Messages)

	reply, err := r.classify(ctx, conversation)
	if err != nil {
		return nil, fmt.Errorf("intent routing failed: %w", err)
	}

	switch {
	case strings.Contains(reply, SentinelNeedTools):
		return r.handleToolRequest(ctx, conversation)

	case strings.TrimSpace(reply) == SentinelItineraryUpdate:
		return r.handleItineraryUpdate(ctx, conversation, req.Itinerary)

	case strings.TrimSpace(reply) == SentinelItineraryAnalyze:
		return r.handleItineraryAnalysis(ctx, req.Itinerary)

	default:
		// The intent model answered the user directly
		r.logger.Info().Msg("Intent routed to direct answer")
		return &models.ChatResponse{
			Response: reply,
			Action:   models.ChatActionAnswer,
		}, nil
	}
}

// classify runs the single intent attempt. The knowledge tool is only
// advertised when the index can actually answer.
func (r *Router) classify(ctx context.Context, conversation []interfaces.Message) (string, error) {
	knowledgeAvailable := r.knowledge != nil && r.knowledge.Available()

	messages := make([]interfaces.Message, 0, len(conversation)+1)
	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: buildIntentPrompt(r.city, knowledgeAvailable),
	})
	messages = append(messages, conversation...)

	return r.llm.Chat(ctx, r.intentModel, compactContext(messages))
}

func (r *Router) handleToolRequest(ctx context.Context, conversation []interfaces.Message) (*models.ChatResponse, error) {
	r.logger.Info().Str("phase", string(phaseDialog)).Msg("Intent routed to tool orchestration")

	answer, events, err := r.orchestrator.Run(ctx, conversation)
	if err != nil {
		return nil, err
	}
	return &models.ChatResponse{
		Response: answer,
		Action:   models.ChatActionAnswer,
		ToolUse:  events,
	}, nil
}

func (r *Router) handleItineraryUpdate(ctx context.Context, conversation []interfaces.Message, current *models.Itinerary) (*models.ChatResponse, error) {
	r.logger.Info().Msg("Intent routed to itinerary generation")

	result, err := r.itinerary.Generate(ctx, conversation, current)
	if err != nil {
		return nil, err
	}

	// A nil itinerary carries a friendly prompt for more trip details
	if result.Itinerary == nil {
		return &models.ChatResponse{
			Response: result.Prompt,
			Action:   models.ChatActionAnswer,
		}, nil
	}

	return &models.ChatResponse{
		Response:  result.Prompt,
		Action:    models.ChatActionItinerary,
		Itinerary: result.Itinerary,
	}, nil
}

func (r *Router) handleItineraryAnalysis(ctx context.Context, current *models.Itinerary) (*models.ChatResponse, error) {
	r.logger.Info().Msg("Intent routed to itinerary analysis")

	analysis, err := r.itinerary.Analyze(ctx, current)
	if err != nil {
		return nil, err
	}
	return &models.ChatResponse{
		Response: analysis,
		Action:   models.ChatActionAnalysis,
	}, nil
}

// toLLMMessages converts transport messages to the provider-neutral shape
func toLLMMessages(messages []models.ChatMessage) []interfaces.Message {
	converted := make([]interfaces.Message, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, interfaces.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return converted
}
