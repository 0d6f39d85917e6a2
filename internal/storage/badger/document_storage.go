package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or updates a document registry record
func (s *DocumentStorage) Upsert(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}

	now := time.Now()
	doc.UpdatedAt = now

	var existing models.Document
	err := s.db.Store().Get(doc.ID, &existing)
	if err == nil {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// Get retrieves a document record by id
func (s *DocumentStorage) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	err := s.db.Store().Get(id, &doc)
	if err == badgerhold.ErrNotFound {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// GetByName retrieves a document record by file name
func (s *DocumentStorage) GetByName(ctx context.Context, name string) (*models.Document, error) {
	var docs []models.Document
	err := s.db.Store().Find(&docs, badgerhold.Where("Name").Eq(name))
	if err != nil {
		return nil, fmt.Errorf("failed to find document by name: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document not found: %s", name)
	}
	return &docs[0], nil
}

// List returns all document records
func (s *DocumentStorage) List(ctx context.Context) ([]*models.Document, error) {
	var docs []models.Document
	if err := s.db.Store().Find(&docs, nil); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := make([]*models.Document, len(docs))
	for i := range docs {
		result[i] = &docs[i]
	}
	return result, nil
}

// Delete removes a document record
func (s *DocumentStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Document{})
	if err == badgerhold.ErrNotFound {
		return fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// Count returns the number of document records
func (s *DocumentStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Document{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}
