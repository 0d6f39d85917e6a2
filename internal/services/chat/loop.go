package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
	"github.com/ternarybob/wayfarer/internal/services/tools"
)

// Orchestration limits. The iteration cap bounds tool spend per request; the
// detection window catches a model stuck re-issuing the same instruction.
const (
	maxToolIterations   = 5
	loopDetectionWindow = 4
	reasoningTimeout    = 30 * time.Second
)

// phase labels the orchestration state for logging and tool-use traces
type phase string

const (
	phaseDialog     phase = "dialog"
	phaseExecuting  phase = "executing"
	phaseJudging    phase = "judging"
	phaseFinalizing phase = "finalizing"
)

// toolRound is one completed instruction/result pair in the gathering history
type toolRound struct {
	instruction string
	result      string
}

// Orchestrator drives the tool-gathering loop: judge what is missing,
// execute the next instruction, and repeat until the reasoning model is
// satisfied or a limit trips, then synthesize the final answer.
type Orchestrator struct {
	llm            interfaces.LLMService
	adapter        *tools.Adapter
	reasoningModel string
	answerModel    string
	city           string
	logger         arbor.ILogger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(llm interfaces.LLMService, adapter *tools.Adapter, reasoningModel, answerModel, city string, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		llm:            llm,
		adapter:        adapter,
		reasoningModel: reasoningModel,
		answerModel:    answerModel,
		city:           city,
		logger:         logger,
	}
}

// Run gathers tool results for the conversation and returns the synthesized
// answer plus the tool-use trace. The conversation must end with the user
// turn being answered.
func (o *Orchestrator) Run(ctx context.Context, conversation []interfaces.Message) (string, []models.ToolEvent, error) {
	var history []toolRound
	var events []models.ToolEvent

	// The first judgment runs against an empty history and must produce an
	// instruction; routing already decided tools are needed.
	judgment, err := o.judge(ctx, conversation, nil)
	if err != nil {
		return "", nil, fmt.Errorf("initial tool planning failed: %w", err)
	}
	if judgment.Instruction == "" {
		return "", nil, fmt.Errorf("tool routing produced no instruction")
	}

	instruction := judgment.Instruction

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		if o.detectLoop(history, instruction) {
			o.logger.Warn().
				Int("iteration", iteration).
				Msg("Duplicate tool instruction detected; terminating loop")
			break
		}

		result, execErr := o.execute(ctx, instruction, &events)
		if execErr != nil {
			// A failed round aborts gathering; the final answer works with
			// whatever was collected before the failure
			o.logger.Warn().
				Err(execErr).
				Str("phase", string(phaseExecuting)).
				Msg("Tool execution failed; finalizing with partial results")
			history = append(history, toolRound{
				instruction: instruction,
				result:      fmt.Sprintf("tool execution failed: %v", execErr),
			})
			break
		}

		history = append(history, toolRound{instruction: instruction, result: result})

		judgment, err = o.judge(ctx, conversation, history)
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("phase", string(phaseJudging)).
				Msg("Judgment call failed; finalizing with gathered results")
			break
		}

		o.logger.Info().
			Bool("sufficient", judgment.Sufficient).
			Str("reason", judgment.Reason).
			Int("iteration", iteration+1).
			Msg("Tool round judged")

		if judgment.Sufficient {
			break
		}
		if judgment.Instruction == "" {
			o.logger.Warn().Msg("Judgment wanted more tools but issued no instruction; finalizing")
			break
		}
		instruction = judgment.Instruction
	}

	answer, err := o.finalize(ctx, conversation, history)
	if err != nil {
		return "", events, err
	}
	return answer, events, nil
}

// detectLoop reports whether the instruction already ran in the recent window
func (o *Orchestrator) detectLoop(history []toolRound, instruction string) bool {
	window := history
	if len(window) > loopDetectionWindow {
		window = window[len(window)-loopDetectionWindow:]
	}
	for _, round := range window {
		if round.instruction == instruction {
			return true
		}
	}
	return false
}

// execute parses the instruction and runs its first call, appending to the
// tool-use trace. One call per round; any extra calls in the array are
// ignored so the judgment sees each result before the next step.
func (o *Orchestrator) execute(ctx context.Context, instruction string, events *[]models.ToolEvent) (string, error) {
	calls, err := tools.ParseInstruction(instruction)
	if err != nil {
		return "", err
	}

	call := calls[0]
	if len(calls) > 1 {
		o.logger.Warn().
			Int("calls", len(calls)).
			Str("tool", call.Name).
			Msg("Instruction carried multiple tool calls; executing only the first")
	}

	*events = append(*events, models.ToolEvent{
		Type:      "tool_call",
		ToolName:  call.Name,
		Timestamp: time.Now().UTC(),
	})

	result, err := o.adapter.Execute(ctx, call)
	if err != nil {
		return "", err
	}

	*events = append(*events, models.ToolEvent{
		Type:      "tool_result",
		ToolName:  call.Name,
		Content:   result,
		Timestamp: time.Now().UTC(),
	})

	return result, nil
}

// judge asks the reasoning model whether the gathered results suffice.
// The call is bounded so a slow reasoning backend cannot stall the request.
func (o *Orchestrator) judge(ctx context.Context, conversation []interfaces.Message, history []toolRound) (Judgment, error) {
	judgeCtx, cancel := context.WithTimeout(ctx, reasoningTimeout)
	defer cancel()

	messages := buildJudgmentContext(conversation, history, o.city, o.adapter.KnowledgeAvailable())
	reply, err := o.llm.Chat(judgeCtx, o.reasoningModel, compactContext(messages))
	if err != nil {
		return Judgment{}, err
	}
	return ParseJudgment(reply), nil
}

// finalize synthesizes the user-facing answer from the conversation and the
// gathered tool results.
func (o *Orchestrator) finalize(ctx context.Context, conversation []interfaces.Message, history []toolRound) (string, error) {
	o.logger.Info().
		Str("phase", string(phaseFinalizing)).
		Int("tool_rounds", len(history)).
		Msg("Synthesizing final answer")

	messages := buildAnswerContext(conversation, history, o.city)
	answer, err := o.llm.Chat(ctx, o.answerModel, compactContext(messages))
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return answer, nil
}

// buildJudgmentContext lays out the conversation, each gathered round as an
// assistant/system pair, and the reasoning prompt as the trailing system
// message so compaction always preserves it.
func buildJudgmentContext(conversation []interfaces.Message, history []toolRound, city string, knowledgeAvailable bool) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(conversation)+len(history)*2+1)
	messages = append(messages, conversation...)

	for _, round := range history {
		messages = append(messages,
			interfaces.Message{Role: "assistant", Content: round.instruction},
			interfaces.Message{Role: "system", Content: "tool returned:\n" + round.result},
		)
	}

	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: buildReasoningPrompt(city, knowledgeAvailable),
	})
	return messages
}

// buildAnswerContext lays out the conversation, the tool results and the
// answer prompt for final synthesis.
func buildAnswerContext(conversation []interfaces.Message, history []toolRound, city string) []interfaces.Message {
	messages := make([]interfaces.Message, 0, len(conversation)+len(history)+1)
	messages = append(messages, conversation...)

	for _, round := range history {
		messages = append(messages, interfaces.Message{
			Role:    "system",
			Content: "tool returned:\n" + round.result,
		})
	}

	messages = append(messages, interfaces.Message{
		Role:    "system",
		Content: buildAnswerPrompt(city),
	})
	return messages
}
