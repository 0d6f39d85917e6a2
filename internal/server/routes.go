package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Chat
	mux.HandleFunc("/api/chat", s.app.ChatHandler.ChatHandler)
	mux.HandleFunc("/api/chat/health", s.app.ChatHandler.HealthHandler)

	// API routes - Knowledge base administration
	mux.HandleFunc("/api/knowledge/rebuild", s.app.KnowledgeHandler.RebuildHandler)
	mux.HandleFunc("/api/knowledge/status", s.app.KnowledgeHandler.StatusHandler)
	mux.HandleFunc("/api/knowledge/query", s.app.KnowledgeHandler.QueryHandler)

	// API routes - Documents
	mux.HandleFunc("/api/documents", s.app.DocumentHandler.ListHandler)
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes)

	// API routes - Key/value settings
	mux.HandleFunc("/api/kv", s.app.KVHandler.ListHandler)
	mux.HandleFunc("/api/kv/", s.handleKVRoutes)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleDocumentRoutes routes /api/documents/{name}/description
func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/description") {
		s.app.DocumentHandler.DescriptionHandler(w, r)
		return
	}
	http.Error(w, "Not found", http.StatusNotFound)
}

// handleKVRoutes routes /api/kv/{key} by method
func (s *Server) handleKVRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "PUT":
		s.app.KVHandler.SetHandler(w, r)
	case "DELETE":
		s.app.KVHandler.DeleteHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
