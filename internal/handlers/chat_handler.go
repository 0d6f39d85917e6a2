// Package handlers exposes the HTTP API surface.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/models"
)

// ChatHandler handles conversational requests
type ChatHandler struct {
	chatService interfaces.ChatService
	llmService  interfaces.LLMService
	logger      arbor.ILogger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService interfaces.ChatService, llmService interfaces.LLMService, logger arbor.ILogger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		llmService:  llmService,
		logger:      logger,
	}
}

// ChatHandler handles POST /api/chat - one conversational turn
func (h *ChatHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse chat request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		WriteError(w, http.StatusBadRequest, "Messages are required")
		return
	}

	requestID := common.NewRequestID()
	startTime := time.Now()

	h.logger.Info().
		Str("request_id", requestID).
		Int("messages", len(req.Messages)).
		Msg("Chat request received")

	resp, err := h.chatService.HandleMessage(r.Context(), &req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("Chat request failed")
		WriteError(w, http.StatusInternalServerError, "Failed to process chat request")
		return
	}

	h.logger.Info().
		Str("request_id", requestID).
		Str("action", string(resp.Action)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat request completed")

	WriteJSON(w, http.StatusOK, resp)
}

// HealthHandler handles GET /api/chat/health - LLM backend reachability
func (h *ChatHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if err := h.llmService.HealthCheck(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("LLM health check failed")
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"provider": string(h.llmService.Provider()),
			"error":    err.Error(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"provider": string(h.llmService.Provider()),
	})
}
