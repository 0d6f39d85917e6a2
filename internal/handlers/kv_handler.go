package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// KVHandler handles key/value storage HTTP requests (API keys and
// admin-editable settings). Listed values are masked; stored keys back
// ResolveAPIKey lookups.
type KVHandler struct {
	kvStorage interfaces.KeyValueStorage
	logger    arbor.ILogger
}

// NewKVHandler creates a new KV handler
func NewKVHandler(kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *KVHandler {
	return &KVHandler{
		kvStorage: kvStorage,
		logger:    logger,
	}
}

// ListHandler handles GET /api/kv - lists all pairs with masked values
func (h *KVHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	pairs, err := h.kvStorage.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list key/value pairs")
		WriteError(w, http.StatusInternalServerError, "Failed to list key/value pairs")
		return
	}

	sanitized := make([]map[string]interface{}, len(pairs))
	for i, pair := range pairs {
		sanitized[i] = map[string]interface{}{
			"key":         pair.Key,
			"value":       maskValue(pair.Value),
			"description": pair.Description,
			"created_at":  pair.CreatedAt,
			"updated_at":  pair.UpdatedAt,
		}
	}

	WriteJSON(w, http.StatusOK, sanitized)
}

// SetHandler handles PUT /api/kv/{key} - creates or updates a pair
func (h *KVHandler) SetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "PUT") {
		return
	}

	key, ok := h.keyFromPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Value       string `json:"value"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Value == "" {
		WriteError(w, http.StatusBadRequest, "Value is required")
		return
	}

	if err := h.kvStorage.Set(r.Context(), key, req.Value, req.Description); err != nil {
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to set key/value pair")
		WriteError(w, http.StatusInternalServerError, "Failed to store key/value pair")
		return
	}

	h.logger.Debug().Str("key", key).Msg("Key/value pair stored")
	WriteSuccess(w, "Key/value pair stored")
}

// DeleteHandler handles DELETE /api/kv/{key}
func (h *KVHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	key, ok := h.keyFromPath(w, r)
	if !ok {
		return
	}

	if err := h.kvStorage.Delete(r.Context(), key); err != nil {
		if errors.Is(err, interfaces.ErrKeyNotFound) {
			WriteError(w, http.StatusNotFound, "Key not found")
			return
		}
		h.logger.Error().Err(err).Str("key", key).Msg("Failed to delete key/value pair")
		WriteError(w, http.StatusInternalServerError, "Failed to delete key/value pair")
		return
	}

	h.logger.Debug().Str("key", key).Msg("Key/value pair deleted")
	WriteSuccess(w, "Key/value pair deleted")
}

// keyFromPath extracts and decodes the key from /api/kv/{key}
func (h *KVHandler) keyFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	encoded := r.URL.Path[len("/api/kv/"):]
	key, err := url.QueryUnescape(encoded)
	if err != nil || key == "" {
		WriteError(w, http.StatusBadRequest, "Invalid or missing key")
		return "", false
	}
	return key, true
}

// maskValue hides stored secrets in list responses. Short values are fully
// masked; longer ones keep the first and last four characters.
func maskValue(value string) string {
	if len(value) < 8 {
		return "••••••••"
	}
	return value[:4] + "..." + value[len(value)-4:]
}
