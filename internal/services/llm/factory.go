// Package llm provides language model provider implementations behind the
// LLMService interface. The default provider is any OpenAI-compatible
// endpoint; Gemini is available as an alternative.
package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on
// configuration. The API key is resolved with environment -> KV store ->
// config precedence.
func NewLLMService(
	cfg *common.Config,
	kvStorage interfaces.KeyValueStorage,
	logger arbor.ILogger,
) (interfaces.LLMService, error) {
	logger.Info().Str("provider", string(cfg.LLM.Provider)).Msg("Initializing LLM service")

	switch cfg.LLM.Provider {
	case interfaces.LLMProviderOpenAI:
		return NewOpenAIService(cfg, kvStorage, logger)

	case interfaces.LLMProviderGemini:
		return NewGeminiService(cfg, kvStorage, logger)

	default:
		return nil, fmt.Errorf("invalid llm provider '%s': must be 'openai' or 'gemini'", cfg.LLM.Provider)
	}
}
