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
	"github.com/ternarybob/wayfarer/internal/services/tools"
)

// scriptedLLM answers reasoning calls from a queue and answer calls with a
// fixed response, recording every call it receives.
type scriptedLLM struct {
	judgments   []string
	judgmentIdx int
	finalAnswer string
	calls       []string // models called, in order
	chatErr     error
}

func (s *scriptedLLM) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	s.calls = append(s.calls, model)
	if s.chatErr != nil {
		return "", s.chatErr
	}
	switch model {
	case "reason-model":
		if s.judgmentIdx >= len(s.judgments) {
			return "SUFFICIENT: true\nREASON: out of script", nil
		}
		reply := s.judgments[s.judgmentIdx]
		s.judgmentIdx++
		return reply, nil
	case "answer-model":
		return s.finalAnswer, nil
	default:
		return "", fmt.Errorf("unexpected model %s", model)
	}
}

func (s *scriptedLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("not used")
}

func (s *scriptedLLM) HealthCheck(ctx context.Context) error { return nil }

func (s *scriptedLLM) Provider() interfaces.LLMProvider { return interfaces.LLMProviderOpenAI }

func (s *scriptedLLM) Close() error { return nil }

// stubGeo counts tool executions
type stubGeo struct {
	weatherCalls int
	poiCalls     int
	err          error
}

func (g *stubGeo) Weather(ctx context.Context, city string) (*models.WeatherResponse, error) {
	g.weatherCalls++
	if g.err != nil {
		return nil, g.err
	}
	return &models.WeatherResponse{
		Status: "1",
		Forecasts: []models.Forecast{{City: city, Province: "Hainan", Casts: []models.Cast{
			{Date: "2026-08-28", Week: "5", DayWeather: "Sunny", DayTemp: "33", NightWeather: "Clear", NightTemp: "26", DayWind: "SE", NightWind: "SE"},
		}}},
	}, nil
}

func (g *stubGeo) SearchPOI(ctx context.Context, keywords, city string) (*models.POIResponse, error) {
	g.poiCalls++
	return &models.POIResponse{Status: "1", Count: "1", POIs: []models.POI{{ID: "B1", Name: "Beach"}}}, nil
}

func (g *stubGeo) SearchNearby(ctx context.Context, location, keywords, types string, radius int) (*models.POIResponse, error) {
	return &models.POIResponse{Status: "1"}, nil
}

func (g *stubGeo) Distance(ctx context.Context, origins, destination, distanceType string) (*models.DistanceResponse, error) {
	return &models.DistanceResponse{Status: "1"}, nil
}

const weatherInstruction = `[{"name": "get_weather", "parameters": {"city": "Sanya"}}]`
const poiInstruction = `[{"name": "search_poi", "parameters": {"keywords": "beach"}}]`

func insufficient(instruction string) string {
	return fmt.Sprintf("SUFFICIENT: false\nREASON: need more data\nNEXT_INSTRUCTION: %s", instruction)
}

func newTestOrchestrator(llm interfaces.LLMService, geo *stubGeo) *Orchestrator {
	logger := arbor.NewLogger()
	adapter := tools.NewAdapter(geo, nil, "Haikou", logger)
	return NewOrchestrator(llm, adapter, "reason-model", "answer-model", "Haikou", logger)
}

func conversation() []interfaces.Message {
	return []interfaces.Message{{Role: "user", Content: "What's the weather in Sanya?"}}
}

func TestOrchestratorRun_SingleRound(t *testing.T) {
	llm := &scriptedLLM{
		judgments: []string{
			insufficient(weatherInstruction),
			"SUFFICIENT: true\nREASON: forecast gathered",
		},
		finalAnswer: "It will be sunny in Sanya, around 33°C.",
	}
	geo := &stubGeo{}

	answer, events, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "It will be sunny in Sanya, around 33°C.", answer)
	assert.Equal(t, 1, geo.weatherCalls)

	require.Len(t, events, 2)
	assert.Equal(t, "tool_call", events[0].Type)
	assert.Equal(t, "get_weather", events[0].ToolName)
	assert.Equal(t, "tool_result", events[1].Type)
	assert.Contains(t, events[1].Content, "Sunny")

	// initial judgment, post-round judgment, final answer
	assert.Equal(t, []string{"reason-model", "reason-model", "answer-model"}, llm.calls)
}

func TestOrchestratorRun_MultipleRounds(t *testing.T) {
	llm := &scriptedLLM{
		judgments: []string{
			insufficient(weatherInstruction),
			insufficient(poiInstruction),
			"SUFFICIENT: true\nREASON: enough",
		},
		finalAnswer: "Sunny, and the beach is lovely.",
	}
	geo := &stubGeo{}

	answer, events, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "Sunny, and the beach is lovely.", answer)
	assert.Equal(t, 1, geo.weatherCalls)
	assert.Equal(t, 1, geo.poiCalls)
	assert.Len(t, events, 4)
}

func TestOrchestratorRun_MultiCallInstructionExecutesFirstOnly(t *testing.T) {
	multi := `[{"name": "get_weather", "parameters": {"city": "Sanya"}}, {"name": "search_poi", "parameters": {"keywords": "beach"}}]`
	llm := &scriptedLLM{
		judgments: []string{
			insufficient(multi),
			"SUFFICIENT: true\nREASON: forecast gathered",
		},
		finalAnswer: "Sunny in Sanya.",
	}
	geo := &stubGeo{}

	_, events, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, 1, geo.weatherCalls)
	assert.Equal(t, 0, geo.poiCalls)

	// Only the first call produces trace events
	require.Len(t, events, 2)
	assert.Equal(t, "get_weather", events[0].ToolName)
	assert.Equal(t, "get_weather", events[1].ToolName)
}

func TestOrchestratorRun_NoInitialInstructionIsError(t *testing.T) {
	llm := &scriptedLLM{
		judgments: []string{"SUFFICIENT: false\nREASON: tools needed but none specified"},
	}

	_, _, err := newTestOrchestrator(llm, &stubGeo{}).Run(context.Background(), conversation())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no instruction")
}

func TestOrchestratorRun_DuplicateInstructionTerminatesLoop(t *testing.T) {
	llm := &scriptedLLM{
		judgments: []string{
			insufficient(weatherInstruction),
			insufficient(weatherInstruction), // same instruction again
		},
		finalAnswer: "Based on the forecast, sunny.",
	}
	geo := &stubGeo{}

	answer, _, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	// Termination is graceful, not an error
	require.NoError(t, err)
	assert.Equal(t, "Based on the forecast, sunny.", answer)
	assert.Equal(t, 1, geo.weatherCalls)
}

func TestOrchestratorRun_IterationCapBoundsToolSpend(t *testing.T) {
	// Five distinct instructions, always insufficient
	var judgments []string
	for i := 0; i < 10; i++ {
		judgments = append(judgments, insufficient(fmt.Sprintf(
			`[{"name": "search_poi", "parameters": {"keywords": "spot %d"}}]`, i)))
	}
	llm := &scriptedLLM{judgments: judgments, finalAnswer: "Here is what I found."}
	geo := &stubGeo{}

	answer, _, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "Here is what I found.", answer)
	assert.Equal(t, maxToolIterations, geo.poiCalls)
}

func TestOrchestratorRun_ToolFailureFinalizesWithPartialResults(t *testing.T) {
	llm := &scriptedLLM{
		judgments:   []string{insufficient(weatherInstruction)},
		finalAnswer: "I could not reach the weather service, sorry.",
	}
	geo := &stubGeo{err: fmt.Errorf("upstream down")}

	answer, _, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "I could not reach the weather service, sorry.", answer)

	// No post-round judgment after the failure: initial judge, then answer
	assert.Equal(t, []string{"reason-model", "answer-model"}, llm.calls)
}

func TestOrchestratorRun_UnparseableJudgmentFinalizes(t *testing.T) {
	llm := &scriptedLLM{
		judgments: []string{
			insufficient(weatherInstruction),
			"hmm, I suppose that is probably fine",
		},
		finalAnswer: "Sunny all week.",
	}
	geo := &stubGeo{}

	answer, _, err := newTestOrchestrator(llm, geo).Run(context.Background(), conversation())

	require.NoError(t, err)
	assert.Equal(t, "Sunny all week.", answer)
	assert.Equal(t, 1, geo.weatherCalls)
}

func TestBuildJudgmentContext_Layout(t *testing.T) {
	history := []toolRound{{instruction: weatherInstruction, result: "sunny"}}

	messages := buildJudgmentContext(conversation(), history, "Haikou", false)

	require.Len(t, messages, 4)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, weatherInstruction, messages[1].Content)
	assert.Equal(t, "system", messages[2].Role)
	assert.Equal(t, "tool returned:\nsunny", messages[2].Content)
	assert.Equal(t, "system", messages[3].Role)
	assert.Contains(t, messages[3].Content, "SUFFICIENT:")
}

func TestBuildAnswerContext_Layout(t *testing.T) {
	history := []toolRound{{instruction: weatherInstruction, result: "sunny"}}

	messages := buildAnswerContext(conversation(), history, "Haikou")

	require.Len(t, messages, 3)
	assert.Equal(t, "tool returned:\nsunny", messages[1].Content)
	assert.Equal(t, "system", messages[2].Role)
	assert.Contains(t, messages[2].Content, "travel assistant")
}
