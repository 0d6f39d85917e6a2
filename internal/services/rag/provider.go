package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// ModelState is the embedding backend lifecycle state
type ModelState string

const (
	// ModelUnloaded means no successful warm-up has completed
	ModelUnloaded ModelState = "unloaded"

	// ModelLoading means a warm-up attempt is in flight
	ModelLoading ModelState = "loading"

	// ModelReady means the backend answered a probe and is usable
	ModelReady ModelState = "ready"
)

// ModelProvider manages the embedding backend lifecycle. The backend is
// considered loaded once it has answered a probe embedding; a failed attempt
// returns the provider to unloaded and propagates the error. Concurrent
// callers of EnsureLoaded share one in-flight attempt with a bounded wait.
type ModelProvider struct {
	llm         interfaces.LLMService
	logger      arbor.ILogger
	waitTimeout time.Duration

	mu      sync.Mutex
	state   ModelState
	attempt chan struct{} // closed when the in-flight attempt finishes
	lastErr error

	warmupCancel context.CancelFunc
}

// NewModelProvider creates a provider in the unloaded state
func NewModelProvider(llm interfaces.LLMService, waitTimeout time.Duration, logger arbor.ILogger) *ModelProvider {
	if waitTimeout <= 0 {
		waitTimeout = 30 * time.Second
	}
	return &ModelProvider{
		llm:         llm,
		logger:      logger,
		waitTimeout: waitTimeout,
		state:       ModelUnloaded,
	}
}

// State returns the current lifecycle state
func (p *ModelProvider) State() ModelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// EnsureLoaded guarantees the embedding backend is ready, starting a load
// when necessary. Callers arriving during an in-flight attempt wait for its
// outcome, bounded by the configured timeout.
func (p *ModelProvider) EnsureLoaded(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case ModelReady:
		p.mu.Unlock()
		return nil

	case ModelLoading:
		attempt := p.attempt
		p.mu.Unlock()
		return p.waitForAttempt(ctx, attempt)

	default:
		p.state = ModelLoading
		p.attempt = make(chan struct{})
		attempt := p.attempt
		p.mu.Unlock()

		err := p.load(ctx)

		p.mu.Lock()
		if err != nil {
			p.state = ModelUnloaded
			p.lastErr = err
		} else {
			p.state = ModelReady
			p.lastErr = nil
		}
		close(attempt)
		p.mu.Unlock()

		return err
	}
}

// waitForAttempt blocks until the in-flight attempt finishes, the wait
// timeout elapses, or the caller's context is cancelled.
func (p *ModelProvider) waitForAttempt(ctx context.Context, attempt chan struct{}) error {
	timer := time.NewTimer(p.waitTimeout)
	defer timer.Stop()

	select {
	case <-attempt:
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.state == ModelReady {
			return nil
		}
		return fmt.Errorf("embedding model load failed: %w", p.lastErr)

	case <-timer.C:
		return fmt.Errorf("timed out after %s waiting for embedding model load", p.waitTimeout)

	case <-ctx.Done():
		return fmt.Errorf("cancelled while waiting for embedding model load: %w", ctx.Err())
	}
}

// load probes the embedding backend once
func (p *ModelProvider) load(ctx context.Context) error {
	startTime := time.Now()
	p.logger.Info().Msg("Loading embedding model")

	probeCtx, cancel := context.WithTimeout(ctx, p.waitTimeout)
	defer cancel()

	vectors, err := p.llm.Embed(probeCtx, []string{"warmup probe"})
	if err != nil {
		p.logger.Error().Err(err).Msg("Embedding model load failed")
		return fmt.Errorf("embedding probe failed: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return fmt.Errorf("embedding probe returned empty vector")
	}

	p.logger.Info().
		Int("embedding_dim", len(vectors[0])).
		Dur("duration", time.Since(startTime)).
		Msg("Embedding model ready")

	return nil
}

// WarmupAsync starts a background load and returns immediately. Intended
// for process start when a persisted index already exists; without an index
// the knowledge tool is unavailable and warm-up would be wasted work.
func (p *ModelProvider) WarmupAsync() {
	warmupCtx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.warmupCancel = cancel
	p.mu.Unlock()

	go func() {
		if err := p.EnsureLoaded(warmupCtx); err != nil {
			p.logger.Warn().Err(err).Msg("Background embedding model warm-up failed")
		}
	}()
}

// StopWarmup cancels a pending background warm-up
func (p *ModelProvider) StopWarmup() {
	p.mu.Lock()
	cancel := p.warmupCancel
	p.warmupCancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
