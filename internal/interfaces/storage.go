package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/wayfarer/internal/models"
)

// ErrKeyNotFound is returned when a key does not exist in KV storage
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair is a stored key/value entry with an admin-facing description
type KeyValuePair struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// KeyValueStorage defines the interface for key/value operations (API keys,
// admin-editable settings)
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]KeyValuePair, error)
	GetAll(ctx context.Context) (map[string]string, error)
}

// DocumentStorage defines the interface for document registry records
type DocumentStorage interface {
	Upsert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	GetByName(ctx context.Context, name string) (*models.Document, error)
	List(ctx context.Context) ([]*models.Document, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	KeyValueStorage() KeyValueStorage
	DocumentStorage() DocumentStorage
	Close() error
}
