package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// mockLLM is a scriptable LLMService for retrieval tests
type mockLLM struct {
	chatFn  func(ctx context.Context, model string, messages []interfaces.Message) (string, error)
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockLLM) Chat(ctx context.Context, model string, messages []interfaces.Message) (string, error) {
	if m.chatFn == nil {
		return "", fmt.Errorf("chat not scripted")
	}
	return m.chatFn(ctx, model, messages)
}

func (m *mockLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if m.embedFn == nil {
		return nil, fmt.Errorf("embed not scripted")
	}
	return m.embedFn(ctx, texts)
}

func (m *mockLLM) HealthCheck(ctx context.Context) error { return nil }

func (m *mockLLM) Provider() interfaces.LLMProvider { return interfaces.LLMProviderOpenAI }

func (m *mockLLM) Close() error { return nil }

// constantEmbedder returns the same vector for every input text
func constantEmbedder(vec []float32) func(context.Context, []string) ([][]float32, error) {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = vec
		}
		return out, nil
	}
}

func newTestEngine(t *testing.T, llm interfaces.LLMService, indexPath string) (*Engine, *IndexStore) {
	t.Helper()
	logger := arbor.NewLogger()
	store := NewIndexStore(indexPath, logger)
	provider := NewModelProvider(llm, 5*time.Second, logger)
	engine := NewEngine(store, provider, llm, 5, 0.3, logger)
	return engine, store
}

func testIndex() *models.KnowledgeIndex {
	return &models.KnowledgeIndex{
		Hash: "abc123",
		Texts: []string{
			"[guide.md] Beaches: The west beach is best at sunset.",
			"[guide.md] Food: The night market serves seafood until late.",
			"[faq.md] Tickets: Museum entry is free on Mondays.",
		},
		Vectors: [][]float32{
			{1, 0, 0},
			{0.9, 0.1, 0},
			{0, 0, 1},
		},
		Meta: []models.ChunkMeta{
			{Source: "guide.md", Name: "Beaches", Path: "/docs/guide.md"},
			{Source: "guide.md", Name: "Food", Path: "/docs/guide.md"},
			{Source: "faq.md", Name: "Tickets", Path: "/docs/faq.md"},
		},
		BuiltAt: time.Now().UTC(),
	}
}

func TestEngineQuery_UnavailableWithoutIndex(t *testing.T) {
	llm := &mockLLM{}
	engine, _ := newTestEngine(t, llm, filepath.Join(t.TempDir(), "index.json"))

	result, err := engine.Query(context.Background(), "where should I eat?")

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, msgQueryUnavailable, result.Answer)
	assert.False(t, engine.Available())
}

func TestEngineQuery_CorruptIndexReturnsGuidance(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, os.WriteFile(indexPath, []byte("not json"), 0644))

	llm := &mockLLM{}
	engine, _ := newTestEngine(t, llm, indexPath)

	result, err := engine.Query(context.Background(), "anything")

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, msgIndexNotBuilt, result.Answer)
}

func TestEngineQuery_IncompleteIndexReturnsGuidance(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")
	logger := arbor.NewLogger()
	store := NewIndexStore(indexPath, logger)

	incomplete := testIndex()
	incomplete.Vectors = nil
	require.NoError(t, store.Save(incomplete))

	llm := &mockLLM{}
	engine, _ := newTestEngine(t, llm, indexPath)

	result, err := engine.Query(context.Background(), "anything")

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, msgIndexIncomplete, result.Answer)
}

func TestEngineQuery_ReturnsRankedChunksWithSources(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")
	llm := &mockLLM{embedFn: constantEmbedder([]float32{1, 0, 0})}
	engine, store := newTestEngine(t, llm, indexPath)
	require.NoError(t, store.Save(testIndex()))
	engine.Enable()

	result, err := engine.Query(context.Background(), "best beach?")

	require.NoError(t, err)
	require.True(t, result.Found)

	// Orthogonal chunk falls below the 0.3 threshold
	require.Len(t, result.Chunks, 2)
	assert.Equal(t, "Beaches", result.Chunks[0].Meta.Name)
	assert.Equal(t, "Food", result.Chunks[1].Meta.Name)
	assert.Greater(t, result.Chunks[0].Similarity, result.Chunks[1].Similarity)

	assert.Contains(t, result.Answer, retrievedContextMarker)
	assert.Contains(t, result.Answer, "west beach")
	assert.Contains(t, result.Answer, "night market")
	assert.NotContains(t, result.Answer, "Museum entry")

	// Sources deduplicated: both surviving chunks come from guide.md
	assert.Contains(t, result.Answer, "📚 **Sources**: guide.md")
	assert.NotContains(t, result.Answer, "guide.md, guide.md")
}

func TestEngineQuery_NothingAboveThreshold(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index.json")

	// Query vector orthogonal to every indexed chunk
	llm := &mockLLM{embedFn: constantEmbedder([]float32{0, 1, 0})}
	engine, store := newTestEngine(t, llm, indexPath)

	index := testIndex()
	index.Vectors = [][]float32{{1, 0, 0}, {1, 0, 0}, {0, 0, 1}}
	require.NoError(t, store.Save(index))
	engine.Enable()

	result, err := engine.Query(context.Background(), "unrelated topic")

	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, msgNotFound, result.Answer)
	assert.Empty(t, result.Chunks)
}

func TestEngineQuery_EmptyQueryIsError(t *testing.T) {
	llm := &mockLLM{}
	engine, _ := newTestEngine(t, llm, filepath.Join(t.TempDir(), "index.json"))

	_, err := engine.Query(context.Background(), "")
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched length", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
