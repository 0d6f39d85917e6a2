package interfaces

import (
	"context"

	"github.com/ternarybob/wayfarer/internal/models"
)

// KnowledgeService defines semantic retrieval over the embedded document index.
type KnowledgeService interface {
	// Query retrieves the most relevant document chunks for the query text.
	// Precondition failures (disabled index, missing or incomplete index
	// data) are reported through the result with administrator guidance in
	// the answer field, not as errors. An empty result set above the
	// similarity threshold is a legitimate "not found" outcome.
	Query(ctx context.Context, query string) (*models.KnowledgeResult, error)

	// Available reports whether the knowledge tool can currently be offered
	// to the language model.
	Available() bool
}

// IndexService manages the persisted embedding index lifecycle.
type IndexService interface {
	// Rebuild regenerates the full index from the document provider. On any
	// failure the previously persisted index is left untouched.
	Rebuild(ctx context.Context) error

	// Status reports the current index and embedding backend state.
	Status(ctx context.Context) (*models.IndexStatus, error)
}

// DocumentProvider supplies extraction-ready document text for indexing.
type DocumentProvider interface {
	// LoadDocuments enumerates the document directory and returns extracted
	// plain text with source metadata. Chunking happens in the indexer.
	LoadDocuments(ctx context.Context) ([]models.SourceDocument, error)
}
