// Package status aggregates runtime health for the status endpoint.
package status

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// Service collects component health into one snapshot
type Service struct {
	llm       interfaces.LLMService
	index     interfaces.IndexService
	documents interfaces.DocumentStorage
	logger    arbor.ILogger
	startedAt time.Time
}

// NewService creates a status service
func NewService(llm interfaces.LLMService, index interfaces.IndexService, documents interfaces.DocumentStorage, logger arbor.ILogger) *Service {
	return &Service{
		llm:       llm,
		index:     index,
		documents: documents,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Snapshot returns the current runtime status
func (s *Service) Snapshot(ctx context.Context) map[string]interface{} {
	snapshot := map[string]interface{}{
		"version":   common.Version,
		"build":     common.Build,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"provider":  string(s.llm.Provider()),
		"timestamp": time.Now().UTC(),
	}

	llmHealthy := true
	if err := s.llm.HealthCheck(ctx); err != nil {
		llmHealthy = false
		s.logger.Warn().Err(err).Msg("LLM health check failed")
	}
	snapshot["llm_healthy"] = llmHealthy

	if indexStatus, err := s.index.Status(ctx); err == nil {
		snapshot["index"] = indexStatus
	} else {
		s.logger.Warn().Err(err).Msg("Failed to read index status")
	}

	if count, err := s.documents.Count(ctx); err == nil {
		snapshot["document_count"] = count
	}

	return snapshot
}
