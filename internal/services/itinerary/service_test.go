package itinerary

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// planLLM replies with a fixed string and records the messages it was given
type planLLM struct {
	reply    string
	err      error
	messages []interfaces.Message
}

func (p *planLLM) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	p.messages = messages
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *planLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("not used")
}

func (p *planLLM) HealthCheck(ctx context.Context) error { return nil }

func (p *planLLM) Provider() interfaces.LLMProvider { return interfaces.LLMProviderOpenAI }

func (p *planLLM) Close() error { return nil }

const validPlanJSON = `{"days": [{"date": "2026-09-01", "day_number": 1, "locations": [{"address": "Qilou Old Street", "time": "09:00", "notes": "arcade architecture", "fixed": false, "visit_order": 1}]}]}`

func newTestService(llm interfaces.LLMService) *Service {
	return NewService(llm, "plan-model", "Haikou", arbor.NewLogger())
}

func planningConversation() []interfaces.Message {
	return []interfaces.Message{
		{Role: "user", Content: "I'm visiting Haikou for two days in September."},
		{Role: "assistant", Content: "Sounds great, what are you into?"},
		{Role: "user", Content: "Old architecture and local food, please plan it."},
	}
}

func TestGenerate_TooLittleContextReturnsPrompt(t *testing.T) {
	llm := &planLLM{reply: validPlanJSON}
	svc := newTestService(llm)

	result, err := svc.Generate(context.Background(), []interfaces.Message{
		{Role: "user", Content: "make me an itinerary"},
	}, nil)

	require.NoError(t, err)
	assert.Nil(t, result.Itinerary)
	assert.Equal(t, msgNeedMoreDetail, result.Prompt)
	assert.Nil(t, llm.messages, "planning model should not be called")
}

func TestGenerate_ParsesPlainJSON(t *testing.T) {
	llm := &planLLM{reply: validPlanJSON}
	svc := newTestService(llm)

	result, err := svc.Generate(context.Background(), planningConversation(), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Itinerary)
	assert.Equal(t, msgItineraryReady, result.Prompt)
	require.Len(t, result.Itinerary.Days, 1)
	assert.Equal(t, "Qilou Old Street", result.Itinerary.Days[0].Locations[0].Address)
}

func TestGenerate_ParsesFencedJSON(t *testing.T) {
	llm := &planLLM{reply: "```json\n" + validPlanJSON + "\n```"}
	svc := newTestService(llm)

	result, err := svc.Generate(context.Background(), planningConversation(), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Itinerary)
}

func TestGenerate_ParsesJSONWrappedInProse(t *testing.T) {
	llm := &planLLM{reply: "Here is your plan:\n" + validPlanJSON + "\nEnjoy the trip!"}
	svc := newTestService(llm)

	result, err := svc.Generate(context.Background(), planningConversation(), nil)

	require.NoError(t, err)
	require.NotNil(t, result.Itinerary)
}

func TestGenerate_UnparseableReplyIsError(t *testing.T) {
	llm := &planLLM{reply: "Sorry, I cannot plan that."}
	svc := newTestService(llm)

	_, err := svc.Generate(context.Background(), planningConversation(), nil)
	assert.Error(t, err)
}

func TestGenerate_InvalidPlanFailsValidation(t *testing.T) {
	// day_number missing and no locations
	llm := &planLLM{reply: `{"days": [{"date": "2026-09-01", "locations": []}]}`}
	svc := newTestService(llm)

	_, err := svc.Generate(context.Background(), planningConversation(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestGenerate_CurrentItineraryEmbeddedInPrompt(t *testing.T) {
	llm := &planLLM{reply: validPlanJSON}
	svc := newTestService(llm)

	current := &models.Itinerary{Days: []models.ItineraryDay{{
		Date:      "2026-09-01",
		DayNumber: 1,
		Locations: []models.ItineraryStop{{Address: "Booked Hotel Lunch", Time: "12:30", Fixed: true, VisitOrder: 1}},
	}}}

	_, err := svc.Generate(context.Background(), planningConversation(), current)
	require.NoError(t, err)

	require.NotEmpty(t, llm.messages)
	system := llm.messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "Booked Hotel Lunch")
	assert.Contains(t, system.Content, `"fixed": true MUST be kept`)

	// Conversation is followed by an explicit generation nudge
	last := llm.messages[len(llm.messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Contains(t, last.Content, "itinerary JSON")
}

func TestGenerate_WindowsConversationAndDropsSystemMessages(t *testing.T) {
	llm := &planLLM{reply: validPlanJSON}
	svc := newTestService(llm)

	var conversation []interfaces.Message
	conversation = append(conversation, interfaces.Message{Role: "system", Content: "tool returned:\nsunny"})
	for i := 0; i < 20; i++ {
		conversation = append(conversation, interfaces.Message{Role: "user", Content: fmt.Sprintf("turn %d", i)})
		conversation = append(conversation, interfaces.Message{Role: "assistant", Content: "noted"})
	}

	_, err := svc.Generate(context.Background(), conversation, nil)
	require.NoError(t, err)

	// system prompt + windowed turns + generation nudge
	require.Len(t, llm.messages, conversationWindow+2)
	for _, msg := range llm.messages[1 : len(llm.messages)-1] {
		assert.NotEqual(t, "system", msg.Role)
		assert.False(t, strings.HasPrefix(msg.Content, "tool returned:"))
	}
}

func TestAnalyze_EmptyItineraryReturnsFriendlyMessage(t *testing.T) {
	llm := &planLLM{reply: "should not be called"}
	svc := newTestService(llm)

	out, err := svc.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, msgNoItinerary, out)

	out, err = svc.Analyze(context.Background(), &models.Itinerary{})
	require.NoError(t, err)
	assert.Equal(t, msgNoItinerary, out)
	assert.Nil(t, llm.messages)
}

func TestAnalyze_SendsItineraryJSON(t *testing.T) {
	llm := &planLLM{reply: "Day one looks fine, day two is packed."}
	svc := newTestService(llm)

	current := &models.Itinerary{Days: []models.ItineraryDay{{
		Date:      "2026-09-01",
		DayNumber: 1,
		Locations: []models.ItineraryStop{{Address: "Volcano Park", VisitOrder: 1}},
	}}}

	out, err := svc.Analyze(context.Background(), current)

	require.NoError(t, err)
	assert.Contains(t, out, "packed")
	require.Len(t, llm.messages, 2)
	assert.Contains(t, llm.messages[1].Content, "Volcano Park")
}

func TestAnalyze_LLMFailurePropagates(t *testing.T) {
	llm := &planLLM{err: fmt.Errorf("backend down")}
	svc := newTestService(llm)

	current := &models.Itinerary{Days: []models.ItineraryDay{{
		Date: "2026-09-01", DayNumber: 1,
		Locations: []models.ItineraryStop{{Address: "Volcano Park", VisitOrder: 1}},
	}}}

	_, err := svc.Analyze(context.Background(), current)
	assert.Error(t, err)
}
