package chat

import (
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// Context window budget. Token counts are estimated at four characters per
// token, which is close enough for an overflow guard.
const (
	contextTokenBudget = 8000
	charsPerToken      = 4
	compactionKeepTail = 6
)

// estimateTokens approximates the token footprint of a message list
func estimateTokens(messages []interfaces.Message) int {
	total := 0
	for _, msg := range messages {
		total += len(msg.Content)
	}
	return total / charsPerToken
}

// compactContext trims an over-budget context down to the first message, the
// most recent middle messages and the trailing system prompt. Contexts at or
// under budget, or too short to trim, pass through unchanged.
func compactContext(messages []interfaces.Message) []interfaces.Message {
	if estimateTokens(messages) <= contextTokenBudget || len(messages) <= 3 {
		return messages
	}

	first := messages[0]
	last := messages[len(messages)-1]
	middle := messages[1 : len(messages)-1]

	if len(middle) > compactionKeepTail {
		middle = middle[len(middle)-compactionKeepTail:]
	}

	compacted := make([]interfaces.Message, 0, len(middle)+2)
	compacted = append(compacted, first)
	compacted = append(compacted, middle...)
	compacted = append(compacted, last)
	return compacted
}
