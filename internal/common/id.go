package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewRequestID generates a unique request ID with the "req_" prefix
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
