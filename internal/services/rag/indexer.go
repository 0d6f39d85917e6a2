package rag

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// Indexer implements the IndexService interface: it rebuilds the embedding
// index from the document provider and reports index status.
type Indexer struct {
	provider interfaces.DocumentProvider
	chunker  *Chunker
	store    *IndexStore
	model    *ModelProvider
	engine   *Engine
	llm      interfaces.LLMService
	logger   arbor.ILogger
}

// NewIndexer creates an indexer wired to the shared store and engine
func NewIndexer(provider interfaces.DocumentProvider, chunker *Chunker, store *IndexStore, model *ModelProvider, engine *Engine, llm interfaces.LLMService, logger arbor.ILogger) *Indexer {
	return &Indexer{
		provider: provider,
		chunker:  chunker,
		store:    store,
		model:    model,
		engine:   engine,
		llm:      llm,
		logger:   logger,
	}
}

// Rebuild regenerates the embedding index from the current document set.
// Any failure leaves the previously persisted index untouched.
func (x *Indexer) Rebuild(ctx context.Context) error {
	startTime := time.Now()

	docs, err := x.provider.LoadDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents available to index")
	}

	var chunks []models.Chunk
	for i, doc := range docs {
		chunks = append(chunks, x.chunker.Split(doc, i)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("documents produced no indexable content")
	}

	texts := make([]string, len(chunks))
	meta := make([]models.ChunkMeta, len(chunks))
	for i, chunk := range chunks {
		texts[i] = formatChunkText(chunk)
		meta[i] = models.ChunkMeta{
			Source: chunk.Source,
			Name:   chunk.Name,
			Path:   chunk.Path,
		}
	}

	x.logger.Info().
		Int("documents", len(docs)).
		Int("chunks", len(chunks)).
		Msg("Rebuilding embedding index")

	if err := x.model.EnsureLoaded(ctx); err != nil {
		return fmt.Errorf("embedding model is not ready: %w", err)
	}

	vectors, err := x.llm.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	index := &models.KnowledgeIndex{
		Hash:    contentHash(texts),
		Texts:   texts,
		Vectors: vectors,
		Meta:    meta,
		BuiltAt: time.Now().UTC(),
	}

	// Refuse to persist an inconsistent index; the previous one stays valid
	if !index.Consistent() {
		return fmt.Errorf("index inconsistency: %d texts, %d vectors, %d meta entries",
			len(index.Texts), len(index.Vectors), len(index.Meta))
	}

	if err := x.store.Save(index); err != nil {
		return fmt.Errorf("failed to persist index: %w", err)
	}

	x.engine.Enable()

	x.logger.Info().
		Int("chunks", len(chunks)).
		Str("hash", index.Hash).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding index rebuilt")

	return nil
}

// Status reports the current index and model state
func (x *Indexer) Status(ctx context.Context) (*models.IndexStatus, error) {
	status := &models.IndexStatus{
		IndexExists:    x.store.Exists(),
		ModelReady:     x.model.State() == ModelReady,
		ModelLoading:   x.model.State() == ModelLoading,
		QueryAvailable: x.engine.Available(),
	}

	if status.IndexExists {
		index, err := x.store.Load()
		if err != nil {
			x.logger.Warn().Err(err).Msg("Index status: failed to load index")
			return status, nil
		}
		status.IndexHash = index.Hash
		status.ChunkCount = len(index.Texts)
		status.BuiltAt = index.BuiltAt
	}

	return status, nil
}

// CurrentHash computes the content hash the document set would produce now,
// without embedding. Used by the staleness check to decide whether a rebuild
// is needed.
func (x *Indexer) CurrentHash(ctx context.Context) (string, error) {
	docs, err := x.provider.LoadDocuments(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load documents: %w", err)
	}

	var texts []string
	for i, doc := range docs {
		for _, chunk := range x.chunker.Split(doc, i) {
			texts = append(texts, formatChunkText(chunk))
		}
	}
	return contentHash(texts), nil
}

// formatChunkText produces the embedded representation of a chunk
func formatChunkText(chunk models.Chunk) string {
	return fmt.Sprintf("[%s] %s: %s", chunk.Source, chunk.Name, chunk.Text)
}

// contentHash fingerprints the formatted chunk texts
func contentHash(texts []string) string {
	sum := md5.Sum([]byte(strings.Join(texts, "\n")))
	return hex.EncodeToString(sum[:])
}
