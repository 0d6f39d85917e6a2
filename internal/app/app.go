// Package app wires configuration, storage and services into one runtime.
package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/wayfarer/internal/common"
	"github.com/ternarybob/wayfarer/internal/handlers"
	"github.com/ternarybob/wayfarer/internal/interfaces"
	"github.com/ternarybob/wayfarer/internal/services/chat"
	"github.com/ternarybob/wayfarer/internal/services/documents"
	"github.com/ternarybob/wayfarer/internal/services/geo"
	"github.com/ternarybob/wayfarer/internal/services/itinerary"
	"github.com/ternarybob/wayfarer/internal/services/llm"
	"github.com/ternarybob/wayfarer/internal/services/rag"
	"github.com/ternarybob/wayfarer/internal/services/scheduler"
	"github.com/ternarybob/wayfarer/internal/services/status"
	"github.com/ternarybob/wayfarer/internal/services/tools"
	"github.com/ternarybob/wayfarer/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager

	// Model and map providers
	LLMService interfaces.LLMService
	GeoService interfaces.GeoService

	// Knowledge base
	DocumentService  *documents.Service
	IndexStore       *rag.IndexStore
	ModelProvider    *rag.ModelProvider
	KnowledgeService *rag.Engine
	IndexService     *rag.Indexer

	// Conversation pipeline
	ToolAdapter      *tools.Adapter
	Orchestrator     *chat.Orchestrator
	ItineraryService interfaces.ItineraryService
	ChatService      interfaces.ChatService

	// Supporting services
	StatusService    *status.Service
	SchedulerService *scheduler.Service

	// HTTP handlers
	ChatHandler      *handlers.ChatHandler
	KnowledgeHandler *handlers.KnowledgeHandler
	DocumentHandler  *handlers.DocumentHandler
	KVHandler        *handlers.KVHandler
	StatusHandler    *handlers.StatusHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initProviders(); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	app.initKnowledge()
	app.initConversation()
	app.initHandlers()

	logger.Info().Msg("Application initialized")
	return app, nil
}

func (a *App) initStorage() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.StorageManager = manager

	// Seed defaults so admin-editable settings exist on first run
	kv := manager.KeyValueStorage()
	ctx := context.Background()
	for _, def := range common.GetDefaultKVValues() {
		if _, err := kv.Get(ctx, def.Key); err != nil {
			if setErr := kv.Set(ctx, def.Key, def.Value, def.Description); setErr != nil {
				a.Logger.Warn().Err(setErr).Str("key", def.Key).Msg("Failed to seed default KV value")
			}
		}
	}
	return nil
}

func (a *App) initProviders() error {
	llmService, err := llm.NewLLMService(a.Config, a.StorageManager.KeyValueStorage(), a.Logger)
	if err != nil {
		return err
	}
	a.LLMService = llmService

	geoService, err := geo.NewService(&a.Config.Geo, a.StorageManager, a.Logger)
	if err != nil {
		return err
	}
	a.GeoService = geoService
	return nil
}

func (a *App) initKnowledge() {
	cfg := a.Config

	a.DocumentService = documents.NewService(cfg.Storage.Documents, a.StorageManager.DocumentStorage(), a.Logger)
	a.IndexStore = rag.NewIndexStore(cfg.Storage.IndexPath, a.Logger)
	a.ModelProvider = rag.NewModelProvider(a.LLMService, cfg.Knowledge.WarmupTimeout, a.Logger)

	a.KnowledgeService = rag.NewEngine(
		a.IndexStore,
		a.ModelProvider,
		a.LLMService,
		cfg.Knowledge.TopK,
		cfg.Knowledge.SimilarityThreshold,
		a.Logger,
	)

	chunker := rag.NewChunker(cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap, cfg.Knowledge.SemanticChunking)
	a.IndexService = rag.NewIndexer(
		a.DocumentService,
		chunker,
		a.IndexStore,
		a.ModelProvider,
		a.KnowledgeService,
		a.LLMService,
		a.Logger,
	)

	// Warm the embedding backend only when there is an index to serve
	if a.IndexStore.Exists() {
		a.Logger.Info().Msg("Persisted index found, warming embedding model")
		a.ModelProvider.WarmupAsync()
	}

	a.SchedulerService = scheduler.NewService(a.IndexService, a.IndexStore, a.Logger)
}

func (a *App) initConversation() {
	cfg := a.Config

	a.ToolAdapter = tools.NewAdapter(a.GeoService, a.KnowledgeService, cfg.Assistant.City, a.Logger)
	a.Orchestrator = chat.NewOrchestrator(
		a.LLMService,
		a.ToolAdapter,
		cfg.LLM.ReasoningModel,
		cfg.LLM.AnswerModel,
		cfg.Assistant.City,
		a.Logger,
	)
	a.ItineraryService = itinerary.NewService(a.LLMService, cfg.LLM.PlanningModel, cfg.Assistant.City, a.Logger)
	a.ChatService = chat.NewRouter(
		a.LLMService,
		a.Orchestrator,
		a.ItineraryService,
		a.KnowledgeService,
		cfg.LLM.IntentModel,
		cfg.Assistant.City,
		a.Logger,
	)

	a.StatusService = status.NewService(a.LLMService, a.IndexService, a.StorageManager.DocumentStorage(), a.Logger)
}

func (a *App) initHandlers() {
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.LLMService, a.Logger)
	a.KnowledgeHandler = handlers.NewKnowledgeHandler(a.IndexService, a.KnowledgeService, a.Logger)
	a.DocumentHandler = handlers.NewDocumentHandler(a.DocumentService, a.Logger)
	a.KVHandler = handlers.NewKVHandler(a.StorageManager.KeyValueStorage(), a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.StatusService, a.Logger)
}

// Start launches background work: the index staleness scheduler
func (a *App) Start() error {
	if a.Config.Processing.Enabled {
		if err := a.SchedulerService.Start(a.Config.Processing.Schedule); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	return nil
}

// Shutdown stops background work and releases resources
func (a *App) Shutdown() {
	a.Logger.Info().Msg("Shutting down application")

	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
	}
	if a.ModelProvider != nil {
		a.ModelProvider.StopWarmup()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
	}

	a.Logger.Info().Msg("Application shutdown complete")
}
