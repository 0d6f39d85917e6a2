package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// retrievedContextMarker prefixes retrieval results so the final-response
// model can recognize knowledge base content in the tool history.
const retrievedContextMarker = "**Retrieved knowledge base content:**"

// Administrator guidance returned for each failed precondition, in check order.
const (
	msgQueryUnavailable = "❌ The knowledge base is currently unavailable. No embedding index was detected; please ask an administrator to upload documents and build the index before using this feature."
	msgIndexNotBuilt    = "❌ The knowledge base index has not been generated. Please ask an administrator to upload documents and build the embedding index."
	msgIndexIncomplete  = "❌ The knowledge base index data is incomplete. Please ask an administrator to rebuild the embedding index."
)

// msgNotFound is the legitimate empty-result answer, not a fault
const msgNotFound = "No relevant information was found. Please try rephrasing your question."

// Engine implements the KnowledgeService interface: cosine-similarity
// retrieval over the persisted embedding index.
type Engine struct {
	store    *IndexStore
	provider *ModelProvider
	llm      interfaces.LLMService
	logger   arbor.ILogger

	topK      int
	threshold float64

	// enabled tracks whether an index has been observed this process,
	// either at startup or after a rebuild
	enabled atomic.Bool
}

// NewEngine creates a retrieval engine. The knowledge tool starts enabled
// only when a persisted index already exists.
func NewEngine(store *IndexStore, provider *ModelProvider, llm interfaces.LLMService, topK int, threshold float64, logger arbor.ILogger) *Engine {
	e := &Engine{
		store:     store,
		provider:  provider,
		llm:       llm,
		logger:    logger,
		topK:      topK,
		threshold: threshold,
	}
	e.enabled.Store(store.Exists())
	return e
}

// Available reports whether the knowledge tool can be offered to the model
func (e *Engine) Available() bool {
	return e.enabled.Load() && e.store.Exists()
}

// Enable marks the knowledge tool available after a successful rebuild
func (e *Engine) Enable() {
	e.enabled.Store(true)
}

// Query retrieves the most relevant chunks for the query text. Precondition
// failures return Found=false with administrator guidance; an empty result
// set above the threshold returns Found=false with a "not found" answer.
func (e *Engine) Query(ctx context.Context, query string) (*models.KnowledgeResult, error) {
	if query == "" {
		return nil, fmt.Errorf("query text is required")
	}

	// Preconditions in order, each with distinct guidance
	if !e.Available() {
		return &models.KnowledgeResult{Found: false, Answer: msgQueryUnavailable}, nil
	}

	index, err := e.store.Load()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Knowledge index failed to load")
		return &models.KnowledgeResult{Found: false, Answer: msgIndexNotBuilt}, nil
	}

	if !index.Complete() || !index.Consistent() {
		return &models.KnowledgeResult{Found: false, Answer: msgIndexIncomplete}, nil
	}

	if err := e.provider.EnsureLoaded(ctx); err != nil {
		return nil, fmt.Errorf("embedding model is not ready: %w", err)
	}

	vectors, err := e.llm.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	queryVec := vectors[0]

	// Score every chunk, then stable-sort descending so equal scores keep
	// index order
	scored := make([]models.ScoredChunk, 0, len(index.Vectors))
	for i, vec := range index.Vectors {
		scored = append(scored, models.ScoredChunk{
			Text:       index.Texts[i],
			Meta:       index.Meta[i],
			Similarity: cosineSimilarity(queryVec, vec),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > e.topK {
		scored = scored[:e.topK]
	}

	relevant := make([]models.ScoredChunk, 0, len(scored))
	for _, chunk := range scored {
		if chunk.Similarity >= e.threshold {
			relevant = append(relevant, chunk)
		}
	}

	e.logger.Info().
		Str("query", query).
		Int("candidates", len(index.Vectors)).
		Int("relevant", len(relevant)).
		Msg("Knowledge query completed")

	if len(relevant) == 0 {
		return &models.KnowledgeResult{Found: false, Answer: msgNotFound}, nil
	}

	return &models.KnowledgeResult{
		Found:  true,
		Answer: formatRetrievedContext(relevant),
		Chunks: relevant,
	}, nil
}

// formatRetrievedContext concatenates the top three chunk texts and appends
// a deduplicated source citation footer. The engine returns retrieved
// context, not a generated answer; answer synthesis happens downstream.
func formatRetrievedContext(relevant []models.ScoredChunk) string {
	top := relevant
	if len(top) > 3 {
		top = top[:3]
	}

	texts := make([]string, 0, len(top))
	for _, chunk := range top {
		texts = append(texts, chunk.Text)
	}

	seen := make(map[string]bool)
	sources := make([]string, 0, len(relevant))
	for _, chunk := range relevant {
		if !seen[chunk.Meta.Source] {
			seen[chunk.Meta.Source] = true
			sources = append(sources, chunk.Meta.Source)
		}
	}

	return fmt.Sprintf("%s\n\n%s\n\n📚 **Sources**: %s",
		retrievedContextMarker,
		strings.Join(texts, "\n\n"),
		strings.Join(sources, ", "))
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
