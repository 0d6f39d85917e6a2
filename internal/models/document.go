package models

import "time"

// Document is a registry record for one file in the knowledge directory.
// Description is admin-editable and surfaced in the document listing; the
// file itself stays on disk and is re-read at index time.
type Document struct {
	ID          string    `json:"id" badgerhold:"key"`
	Name        string    `json:"name" badgerhold:"unique"`
	Path        string    `json:"path"`
	Extension   string    `json:"extension"`
	SizeBytes   int64     `json:"size_bytes"`
	Description string    `json:"description"`
	ModifiedAt  time.Time `json:"modified_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SourceDocument is one extracted document (or one record of a structured
// document) ready for chunking and embedding.
type SourceDocument struct {
	// Source is the file stem the text came from
	Source string `json:"source"`

	// Name is a human-readable label ("guide.md", "restaurants.json - record 3")
	Name string `json:"name"`

	// Path is the absolute path of the source file
	Path string `json:"path"`

	// Text is the extracted plain text
	Text string `json:"text"`
}

// Chunk is one slice of a source document, produced by the chunker and
// consumed by the indexer.
type Chunk struct {
	// Source is the document stem the chunk came from
	Source string `json:"source"`

	// Name is a human-readable chunk label ("guide.md - Section 2 - Part 1")
	Name string `json:"name"`

	// Text is the chunk content used for embedding
	Text string `json:"text"`

	// Path is the absolute path of the source file
	Path string `json:"path"`

	// ChunkID uniquely identifies the chunk within the index
	ChunkID string `json:"chunk_id"`

	// Split reports whether the source content was divided
	Split bool `json:"split"`

	// SplitMethod is "semantic" or "character" when Split is true
	SplitMethod string `json:"split_method,omitempty"`
}
