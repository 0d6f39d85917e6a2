package models

import "time"

// ChatMessage is one turn of the incoming conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the conversational entry payload: the full conversation in
// chronological order plus the caller's current itinerary, if any.
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Itinerary *Itinerary    `json:"itinerary,omitempty"`
}

// ChatAction describes what the response carries beyond the reply text
type ChatAction string

const (
	// ChatActionAnswer is a plain conversational reply
	ChatActionAnswer ChatAction = "answer"

	// ChatActionItinerary means Itinerary holds a newly generated plan
	ChatActionItinerary ChatAction = "generate_itinerary"

	// ChatActionAnalysis means the reply is an itinerary review
	ChatActionAnalysis ChatAction = "analyze_itinerary"
)

// ToolEvent is one entry of the tool-use trace returned with a reply
type ToolEvent struct {
	Type      string    `json:"type"` // "tool_call" or "tool_result"
	ToolName  string    `json:"tool_name"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResponse is the reply to one chat request
type ChatResponse struct {
	Response  string      `json:"response"`
	Action    ChatAction  `json:"action"`
	Itinerary *Itinerary  `json:"itinerary,omitempty"`
	ToolUse   []ToolEvent `json:"tool_use,omitempty"`
}
