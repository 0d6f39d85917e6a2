package interfaces

import (
	"context"
)

// LLMProvider identifies the backing completion/embedding provider
type LLMProvider string

const (
	// LLMProviderOpenAI indicates an OpenAI-compatible endpoint (default)
	LLMProviderOpenAI LLMProvider = "openai"

	// LLMProviderGemini indicates the Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: "user", "assistant", or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// LLMService defines the interface for language model operations. The engine
// uses different model ids for intent routing, tool judgment, final answers
// and itinerary planning, all served by one provider.
type LLMService interface {
	// Chat generates a completion for the conversation using the given model id.
	// Messages must be in chronological order including any system prompts.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// Embed generates embedding vectors for a batch of texts in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// HealthCheck verifies the provider is reachable and can serve requests.
	HealthCheck(ctx context.Context) error

	// Provider returns the configured provider identity.
	Provider() LLMProvider

	// Close releases client resources.
	Close() error
}
