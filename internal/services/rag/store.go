package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/models"
)

// IndexStore persists the embedding index as a single blob and keeps an
// in-memory mirror that is refreshed when the file on disk changes.
type IndexStore struct {
	path   string
	logger arbor.ILogger

	mu       sync.RWMutex
	mirror   *models.KnowledgeIndex
	loadedAt time.Time
}

// NewIndexStore creates a store for the given index file path
func NewIndexStore(path string, logger arbor.ILogger) *IndexStore {
	return &IndexStore{
		path:   path,
		logger: logger,
	}
}

// Exists reports whether a non-empty index file is present on disk
func (s *IndexStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// Load returns the in-memory index, reloading from disk when the file has
// been rewritten since the last load. Returns an error when no index exists
// or the blob cannot be decoded.
func (s *IndexStore) Load() (*models.KnowledgeIndex, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		s.mu.Lock()
		s.mirror = nil
		s.mu.Unlock()
		return nil, fmt.Errorf("index file not found at %s: %w", s.path, err)
	}

	s.mu.RLock()
	if s.mirror != nil && !info.ModTime().After(s.loadedAt) {
		mirror := s.mirror
		s.mu.RUnlock()
		return mirror, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the write lock
	if s.mirror != nil && !info.ModTime().After(s.loadedAt) {
		return s.mirror, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var index models.KnowledgeIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode index file: %w", err)
	}

	s.mirror = &index
	s.loadedAt = info.ModTime()

	s.logger.Info().
		Int("chunks", len(index.Texts)).
		Str("hash", index.Hash).
		Msg("Embedding index loaded")

	return s.mirror, nil
}

// Save atomically persists the index and invalidates the mirror so the next
// Load picks up the new blob.
func (s *IndexStore) Save(index *models.KnowledgeIndex) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	// Write to a temp file first so a failed write never clobbers the
	// previous index
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write index file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace index file: %w", err)
	}

	s.Invalidate()

	s.logger.Info().
		Int("chunks", len(index.Texts)).
		Str("hash", index.Hash).
		Str("path", s.path).
		Msg("Embedding index persisted")

	return nil
}

// Invalidate drops the in-memory mirror
func (s *IndexStore) Invalidate() {
	s.mu.Lock()
	s.mirror = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}
