// Package scheduler runs the periodic index staleness check: when the
// document set no longer matches the persisted index hash, a rebuild is
// triggered automatically.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/services/rag"
)

// Service wraps a cron schedule around the staleness check
type Service struct {
	indexer *rag.Indexer
	store   *rag.IndexStore
	cron    *cron.Cron
	logger  arbor.ILogger

	mu        sync.Mutex
	isRunning bool
	started   bool
}

// NewService creates a scheduler for the given indexer
func NewService(indexer *rag.Indexer, store *rag.IndexStore, logger arbor.ILogger) *Service {
	return &Service{
		indexer: indexer,
		store:   store,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}
}

// Start registers the staleness check and starts the cron loop
func (s *Service) Start(schedule string) error {
	if s.started {
		return fmt.Errorf("scheduler already running")
	}
	// Cron format includes a seconds field; default is every 30 minutes
	if schedule == "" {
		schedule = "0 */30 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.runStalenessCheck); err != nil {
		return fmt.Errorf("failed to register staleness check: %w", err)
	}

	s.cron.Start()
	s.started = true

	s.logger.Info().
		Str("schedule", schedule).
		Msg("Index staleness scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for an in-flight check to finish
func (s *Service) Stop() {
	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	s.logger.Info().Msg("Index staleness scheduler stopped")
}

// IsRunning reports whether the scheduler is active
func (s *Service) IsRunning() bool {
	return s.started
}

// TriggerNow runs the staleness check immediately in the background
func (s *Service) TriggerNow() {
	go s.runStalenessCheck()
}

// runStalenessCheck compares the persisted index hash with the hash the
// current document set would produce, and rebuilds on mismatch. Overlapping
// runs are skipped rather than queued.
func (s *Service) runStalenessCheck() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in staleness check")
		}
	}()

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		s.logger.Debug().Msg("Staleness check already in progress, skipping cycle")
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	}()

	ctx := context.Background()
	startTime := time.Now()

	currentHash, err := s.indexer.CurrentHash(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Staleness check failed to hash documents")
		return
	}

	var storedHash string
	if s.store.Exists() {
		index, err := s.store.Load()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Staleness check failed to load index")
		} else {
			storedHash = index.Hash
		}
	}

	if currentHash == storedHash {
		s.logger.Debug().
			Str("hash", currentHash).
			Msg("Index is current")
		return
	}

	s.logger.Info().
		Str("stored_hash", storedHash).
		Str("current_hash", currentHash).
		Msg("Document set changed, rebuilding index")

	if err := s.indexer.Rebuild(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled index rebuild failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Scheduled index rebuild completed")
}
