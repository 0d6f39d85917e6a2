package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/models"
)

// DocumentLister is the slice of the document service the handler needs
type DocumentLister interface {
	List(ctx context.Context) ([]*models.Document, error)
	SetDescription(ctx context.Context, name, description string) error
}

// DocumentHandler handles source document registry requests
type DocumentHandler struct {
	documents DocumentLister
	logger    arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documents DocumentLister, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger,
	}
}

// ListHandler handles GET /api/documents - lists registered source documents
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	docs, err := h.documents.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(docs),
		"documents": docs,
	})
}

// DescriptionHandler handles PUT /api/documents/{name}/description - sets the
// admin-maintained description of a source document.
func (h *DocumentHandler) DescriptionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	name = strings.TrimSuffix(name, "/description")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Missing document name")
		return
	}

	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.documents.SetDescription(r.Context(), name, req.Description); err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to update document description")
		WriteError(w, http.StatusInternalServerError, "Failed to update document description")
		return
	}

	WriteSuccess(w, "Document description updated")
}
