package models

import "time"

// KnowledgeIndex is the persisted embedding index: formatted chunk texts,
// their vectors and source metadata, plus a content hash of the inputs.
// Texts, Vectors and Meta are parallel slices and must be the same length.
type KnowledgeIndex struct {
	Hash    string      `json:"hash"`
	Texts   []string    `json:"texts"`
	Vectors [][]float32 `json:"vectors"`
	Meta    []ChunkMeta `json:"meta"`
	BuiltAt time.Time   `json:"built_at,omitzero"`
}

// ChunkMeta is the per-chunk source metadata stored with the index
type ChunkMeta struct {
	Source string `json:"source"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// Complete reports whether all three index fields are present and non-empty
func (ix *KnowledgeIndex) Complete() bool {
	return ix != nil && len(ix.Texts) > 0 && len(ix.Vectors) > 0 && len(ix.Meta) > 0
}

// Consistent reports whether the parallel slices are the same length
func (ix *KnowledgeIndex) Consistent() bool {
	return ix != nil && len(ix.Texts) == len(ix.Vectors) && len(ix.Texts) == len(ix.Meta)
}

// ScoredChunk is one retrieval hit with its cosine similarity score
type ScoredChunk struct {
	Text       string    `json:"text"`
	Meta       ChunkMeta `json:"meta"`
	Similarity float64   `json:"similarity"`
}

// KnowledgeResult is the outcome of a retrieval query. Found is false for
// both precondition failures (Answer carries administrator guidance) and a
// legitimate empty result set.
type KnowledgeResult struct {
	Found  bool          `json:"found"`
	Answer string        `json:"answer"`
	Chunks []ScoredChunk `json:"chunks,omitempty"`
}

// IndexStatus reports the embedding backend and index state
type IndexStatus struct {
	IndexExists    bool      `json:"index_exists"`
	IndexHash      string    `json:"index_hash,omitempty"`
	ChunkCount     int       `json:"chunk_count"`
	ModelReady     bool      `json:"model_ready"`
	ModelLoading   bool      `json:"model_loading"`
	QueryAvailable bool      `json:"query_available"`
	BuiltAt        time.Time `json:"built_at,omitzero"`
}
