package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"google.golang.org/genai"
)

// GeminiService implements the LLMService interface using the Google Gemini
// API for embeddings and chat completions.
type GeminiService struct {
	config  *common.LLMConfig
	logger  arbor.ILogger
	client  *genai.Client
	timeout time.Duration
}

// convertMessagesToGemini converts []interfaces.Message to Gemini Content
// format. System messages are extracted separately for SystemInstruction;
// the first one wins.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if len(messages) == 0 {
		return nil, "", fmt.Errorf("messages cannot be empty")
	}

	hasUserMessage := false
	for _, msg := range messages {
		if msg.Role == "user" {
			hasUserMessage = true
			break
		}
	}
	if !hasUserMessage {
		return nil, "", fmt.Errorf("at least one message must have role 'user'")
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == "system" {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		var geminiRole string
		switch msg.Role {
		case "assistant":
			geminiRole = genai.RoleModel
		default:
			geminiRole = genai.RoleUser
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}

// NewGeminiService creates a new Gemini LLM service instance
func NewGeminiService(cfg *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) (*GeminiService, error) {
	ctx := context.Background()
	apiKey, err := common.ResolveAPIKey(ctx, kvStorage, "llm_api_key", cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("Gemini API key is required (set via WAYFARER_LLM_API_KEY, KV store, or llm.api_key in config): %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		config:  &cfg.LLM,
		logger:  logger,
		client:  client,
		timeout: cfg.LLM.Timeout,
	}

	logger.Info().
		Str("embed_model", cfg.LLM.EmbedModel).
		Str("reasoning_model", cfg.LLM.ReasoningModel).
		Int("embed_dims", cfg.LLM.EmbedDims).
		Dur("timeout", cfg.LLM.Timeout).
		Msg("Gemini LLM service initialized")

	return service, nil
}

// Chat generates a completion for the conversation using the given model id
func (s *GeminiService) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	if model == "" {
		return "", fmt.Errorf("model id is required for chat completion")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	geminiContents, systemText, err := convertMessagesToGemini(messages)
	if err != nil {
		return "", fmt.Errorf("failed to convert messages to Gemini format: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.config.Temperature),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := s.client.Models.GenerateContent(timeoutCtx, model, geminiContents, config)
	if err != nil {
		s.logger.Error().Err(err).Str("model", model).Msg("Chat completion failed")
		return "", fmt.Errorf("chat generation failed: %w", err)
	}

	var response strings.Builder
	if resp != nil && len(resp.Candidates) > 0 {
		for _, candidate := range resp.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					response.WriteString(part.Text)
				}
			}
			if response.Len() > 0 {
				break
			}
		}
	}

	if response.Len() == 0 {
		return "", fmt.Errorf("no response generated from chat model")
	}

	return response.String(), nil
}

// Embed generates embedding vectors for a batch of texts in input order
func (s *GeminiService) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty for embedding generation")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.config.EmbedDims)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.config.EmbedModel, contents, embeddingConfig)
	if err != nil {
		s.logger.Error().Err(err).Int("text_count", len(texts)).Msg("Embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil {
		return nil, fmt.Errorf("embedding generation returned no result")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, embedding := range result.Embeddings {
		if len(embedding.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		vectors[i] = embedding.Values
	}

	return vectors, nil
}

// HealthCheck exercises the chat and embedding models with lightweight probes
func (s *GeminiService) HealthCheck(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("genai client is not initialized")
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

	s.logger.Debug().Msg("Gemini LLM service health check passed")
	return nil
}

// Provider returns the configured provider identity
func (s *GeminiService) Provider() interfaces.LLMProvider {
	return interfaces.LLMProviderGemini
}

// Close releases client resources
func (s *GeminiService) Close() error {
	s.logger.Info().Msg("Closing Gemini LLM service")
	s.client = nil
	return nil
}
