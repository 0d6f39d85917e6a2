package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// intentLLM replies to the intent model with a fixed string and drives the
// orchestrator script for tool-routed requests.
type intentLLM struct {
	scriptedLLM
	intentReply string
}

func (l *intentLLM) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	if model == "intent-model" {
		l.calls = append(l.calls, model)
		if l.chatErr != nil {
			return "", l.chatErr
		}
		return l.intentReply, nil
	}
	return l.scriptedLLM.Chat(ctx, model, messages)
}

// stubItinerary records which operation ran
type stubItinerary struct {
	generated bool
	analyzed  bool
	result    *models.ItineraryResult
	analysis  string
	err       error
}

func (s *stubItinerary) Generate(ctx context.Context, conversation []interfaces.Message, current *models.Itinerary) (*models.ItineraryResult, error) {
	s.generated = true
	return s.result, s.err
}

func (s *stubItinerary) Analyze(ctx context.Context, current *models.Itinerary) (string, error) {
	s.analyzed = true
	return s.analysis, s.err
}

func newTestRouter(llm interfaces.LLMService, itin *stubItinerary) *Router {
	logger := arbor.NewLogger()
	adapter := newTestOrchestrator(llm, &stubGeo{})
	var itinSvc interfaces.ItineraryService
	if itin != nil {
		itinSvc = itin
	}
	return NewRouter(llm, adapter, itinSvc, nil, "intent-model", "Haikou", logger)
}

func userRequest(content string) *models.ChatRequest {
	return &models.ChatRequest{Messages: []models.ChatMessage{{Role: "user", Content: content}}}
}

func TestRouterHandleMessage_DirectAnswer(t *testing.T) {
	llm := &intentLLM{intentReply: "Haikou is lovely in autumn - mild and breezy."}
	router := newTestRouter(llm, nil)

	resp, err := router.HandleMessage(context.Background(), userRequest("Is autumn a good time to visit?"))

	require.NoError(t, err)
	assert.Equal(t, models.ChatActionAnswer, resp.Action)
	assert.Equal(t, "Haikou is lovely in autumn - mild and breezy.", resp.Response)
	assert.Empty(t, resp.ToolUse)
}

func TestRouterHandleMessage_RoutesToTools(t *testing.T) {
	llm := &intentLLM{
		intentReply: "NEED_TOOLS",
		scriptedLLM: scriptedLLM{
			judgments: []string{
				insufficient(weatherInstruction),
				"SUFFICIENT: true\nREASON: done",
			},
			finalAnswer: "Sunny, 33°C.",
		},
	}
	router := newTestRouter(llm, nil)

	resp, err := router.HandleMessage(context.Background(), userRequest("weather in Sanya?"))

	require.NoError(t, err)
	assert.Equal(t, models.ChatActionAnswer, resp.Action)
	assert.Equal(t, "Sunny, 33°C.", resp.Response)
	assert.NotEmpty(t, resp.ToolUse)
}

func TestRouterHandleMessage_NeedToolsMatchIsSubstring(t *testing.T) {
	// Models sometimes wrap the sentinel in prose; Contains still routes
	llm := &intentLLM{
		intentReply: "I will need tools for this: NEED_TOOLS",
		scriptedLLM: scriptedLLM{
			judgments: []string{
				insufficient(weatherInstruction),
				"SUFFICIENT: true\nREASON: done",
			},
			finalAnswer: "Forecast says sunny.",
		},
	}
	router := newTestRouter(llm, nil)

	resp, err := router.HandleMessage(context.Background(), userRequest("weather?"))

	require.NoError(t, err)
	assert.Equal(t, "Forecast says sunny.", resp.Response)
}

func TestRouterHandleMessage_ItineraryUpdate(t *testing.T) {
	itin := &stubItinerary{result: &models.ItineraryResult{
		Itinerary: &models.Itinerary{Days: []models.ItineraryDay{{Date: "2026-09-01", DayNumber: 1, Locations: []models.ItineraryStop{{Address: "Old Town", VisitOrder: 1}}}}},
		Prompt:    "I've updated your itinerary.",
	}}
	llm := &intentLLM{intentReply: "ITINERARY_UPDATE"}
	router := newTestRouter(llm, itin)

	resp, err := router.HandleMessage(context.Background(), userRequest("plan two days in Haikou"))

	require.NoError(t, err)
	assert.True(t, itin.generated)
	assert.Equal(t, models.ChatActionItinerary, resp.Action)
	require.NotNil(t, resp.Itinerary)
	assert.Len(t, resp.Itinerary.Days, 1)
}

func TestRouterHandleMessage_ItineraryUpdateNeedsMoreDetail(t *testing.T) {
	itin := &stubItinerary{result: &models.ItineraryResult{Prompt: "Tell me more about your trip first."}}
	llm := &intentLLM{intentReply: "ITINERARY_UPDATE"}
	router := newTestRouter(llm, itin)

	resp, err := router.HandleMessage(context.Background(), userRequest("make me an itinerary"))

	require.NoError(t, err)
	assert.Equal(t, models.ChatActionAnswer, resp.Action)
	assert.Nil(t, resp.Itinerary)
	assert.Equal(t, "Tell me more about your trip first.", resp.Response)
}

func TestRouterHandleMessage_ItineraryAnalyze(t *testing.T) {
	itin := &stubItinerary{analysis: "Day two looks rushed; consider dropping one stop."}
	llm := &intentLLM{intentReply: "ITINERARY_ANALYZE"}
	router := newTestRouter(llm, itin)

	resp, err := router.HandleMessage(context.Background(), userRequest("is my plan realistic?"))

	require.NoError(t, err)
	assert.True(t, itin.analyzed)
	assert.Equal(t, models.ChatActionAnalysis, resp.Action)
	assert.Contains(t, resp.Response, "rushed")
}

func TestRouterHandleMessage_SentinelsRequireExactMatch(t *testing.T) {
	// Prose containing an itinerary sentinel is a direct answer, not a route
	itin := &stubItinerary{}
	llm := &intentLLM{intentReply: "You could say ITINERARY_UPDATE to change your plan."}
	router := newTestRouter(llm, itin)

	resp, err := router.HandleMessage(context.Background(), userRequest("how do I edit my plan?"))

	require.NoError(t, err)
	assert.False(t, itin.generated)
	assert.Equal(t, models.ChatActionAnswer, resp.Action)
}

func TestRouterHandleMessage_Validation(t *testing.T) {
	router := newTestRouter(&intentLLM{intentReply: "hi"}, nil)

	_, err := router.HandleMessage(context.Background(), nil)
	assert.Error(t, err)

	_, err = router.HandleMessage(context.Background(), &models.ChatRequest{})
	assert.Error(t, err)

	_, err = router.HandleMessage(context.Background(), &models.ChatRequest{
		Messages: []models.ChatMessage{{Role: "assistant", Content: "hello"}},
	})
	assert.Error(t, err)
}

func TestRouterHandleMessage_IntentFailurePropagates(t *testing.T) {
	llm := &intentLLM{scriptedLLM: scriptedLLM{chatErr: fmt.Errorf("backend down")}}
	router := newTestRouter(llm, nil)

	_, err := router.HandleMessage(context.Background(), userRequest("hello"))
	assert.Error(t, err)
}
