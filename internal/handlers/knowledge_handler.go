package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// rebuildTimeout bounds a background index rebuild
const rebuildTimeout = 10 * time.Minute

// KnowledgeHandler handles knowledge base administration and queries
type KnowledgeHandler struct {
	indexService     interfaces.IndexService
	knowledgeService interfaces.KnowledgeService
	logger           arbor.ILogger
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(indexService interfaces.IndexService, knowledgeService interfaces.KnowledgeService, logger arbor.ILogger) *KnowledgeHandler {
	return &KnowledgeHandler{
		indexService:     indexService,
		knowledgeService: knowledgeService,
		logger:           logger,
	}
}

// RebuildHandler handles POST /api/knowledge/rebuild - rebuilds the embedding
// index in the background and returns immediately.
func (h *KnowledgeHandler) RebuildHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()

		if err := h.indexService.Rebuild(ctx); err != nil {
			h.logger.Error().Err(err).Msg("Index rebuild failed")
			return
		}
		h.logger.Info().Msg("Index rebuild completed")
	}()

	WriteStarted(w, "Index rebuild started")
}

// StatusHandler handles GET /api/knowledge/status - index and model state
func (h *KnowledgeHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status, err := h.indexService.Status(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read index status")
		WriteError(w, http.StatusInternalServerError, "Failed to read index status")
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// QueryHandler handles POST /api/knowledge/query - direct retrieval queries,
// mostly useful for verifying the index from the settings page.
func (h *KnowledgeHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Query == "" {
		WriteError(w, http.StatusBadRequest, "Query is required")
		return
	}

	result, err := h.knowledgeService.Query(r.Context(), req.Query)
	if err != nil {
		h.logger.Error().Err(err).Msg("Knowledge query failed")
		WriteError(w, http.StatusInternalServerError, "Knowledge query failed")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
