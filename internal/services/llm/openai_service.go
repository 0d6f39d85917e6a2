package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// OpenAIService implements the LLMService interface against any
// OpenAI-compatible completions/embeddings endpoint.
type OpenAIService struct {
	config  *common.LLMConfig
	logger  arbor.ILogger
	client  *openai.Client
	timeout time.Duration
}

// NewOpenAIService creates a new OpenAI-compatible LLM service instance
func NewOpenAIService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*OpenAIService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "llm_api_key", cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("LLM API key is required (set via WAYFARER_LLM_API_KEY, KV store, or llm.api_key in config): %w", err)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.LLM.BaseURL != "" {
		clientConfig.BaseURL = cfg.LLM.BaseURL
	}

	service := &OpenAIService{
		config:  &cfg.LLM,
		logger:  logger,
		client:  openai.NewClientWithConfig(clientConfig),
		timeout: cfg.LLM.Timeout,
	}

	logger.Info().
		Str("base_url", cfg.LLM.BaseURL).
		Str("embed_model", cfg.LLM.EmbedModel).
		Str("reasoning_model", cfg.LLM.ReasoningModel).
		Dur("timeout", cfg.LLM.Timeout).
		Msg("OpenAI-compatible LLM service initialized")

	return service, nil
}

// Chat generates a completion for the conversation using the given model id
func (s *OpenAIService) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty for chat completion")
	}
	if model == "" {
		return "", fmt.Errorf("model id is required for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(timeoutCtx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("model", model).Int("message_count", len(messages)).Msg("Chat completion failed")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}

	reply := resp.Choices[0].Message.Content
	s.logger.Debug().
		Str("model", model).
		Int("message_count", len(messages)).
		Int("response_length", len(reply)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completion completed")

	return reply, nil
}

// Embed generates embedding vectors for a batch of texts in input order
func (s *OpenAIService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty for embedding generation")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := s.client.CreateEmbeddings(timeoutCtx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(s.config.EmbedModel),
		Input:      texts,
		Dimensions: s.config.EmbedDims,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("text_count", len(texts)).Msg("Embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(resp.Data))
	}

	// Provider may return embeddings out of order; place by index
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index out of range: %d", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
	}

	s.logger.Debug().
		Int("text_count", len(texts)).
		Int("embedding_dim", len(vectors[0])).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding generation completed")

	return vectors, nil
}

// HealthCheck exercises the chat and embedding models with lightweight probes
func (s *OpenAIService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("openai client is not initialized")
	}

	healthCheckCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	reply, err := s.Chat(healthCheckCtx, s.config.IntentModel, []interfaces.Message{
		{Role: "user", Content: "ping"},
	})
	if err != nil {
		return fmt.Errorf("chat probe failed: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return fmt.Errorf("chat probe returned empty response")
	}

	vectors, err := s.Embed(healthCheckCtx, []string{"health check probe"})
	if err != nil {
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	s.logger.Debug().Msg("OpenAI LLM service health check passed")
	return nil
}

// Provider returns the configured provider identity
func (s *OpenAIService) Provider() interfaces.LLMProvider {
	return interfaces.LLMProviderOpenAI
}

// Close releases client resources
func (s *OpenAIService) Close() error {
	s.client = nil
	return nil
}
