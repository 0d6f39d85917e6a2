// Package common provides configuration, logging and shared utilities.
package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/wayfarer/internal/interfaces"
)

// Config is the root application configuration
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	LLM         LLMConfig        `toml:"llm"`
	Geo         GeoConfig        `toml:"geo"`
	Assistant   AssistantConfig  `toml:"assistant"`
	Knowledge   KnowledgeConfig  `toml:"knowledge"`
	Processing  ProcessingConfig `toml:"processing"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig contains storage paths
type StorageConfig struct {
	Badger    BadgerConfig `toml:"badger"`
	Documents string       `toml:"documents"`  // knowledge document directory
	IndexPath string       `toml:"index_path"` // persisted embedding index blob
}

// BadgerConfig contains BadgerDB settings
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string   `toml:"level"`  // debug|info|warn|error
	Format string   `toml:"format"` // text|json
	Output []string `toml:"output"` // stdout, file
}

// LLMConfig contains the language model provider settings. The engine uses
// separate model ids per role, all served by one provider.
type LLMConfig struct {
	Provider       interfaces.LLMProvider `toml:"provider"` // "openai" or "gemini"
	BaseURL        string                 `toml:"base_url"` // OpenAI-compatible endpoint override
	APIKey         string                 `toml:"api_key"`
	IntentModel    string                 `toml:"intent_model"`    // routing and dialog decisions
	ReasoningModel string                 `toml:"reasoning_model"` // sufficiency judgment
	AnswerModel    string                 `toml:"answer_model"`    // final responses
	PlanningModel  string                 `toml:"planning_model"`  // itinerary generation/analysis
	EmbedModel     string                 `toml:"embed_model"`
	EmbedDims      int                    `toml:"embed_dims"`
	Timeout        time.Duration          `toml:"timeout"`
	Temperature    float32                `toml:"temperature"`
}

// GeoConfig contains the map provider (AMap) settings
type GeoConfig struct {
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	RateLimit      time.Duration `toml:"rate_limit"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// AssistantConfig contains travel assistant behavior settings
type AssistantConfig struct {
	City string `toml:"city"` // city the assistant serves
}

// KnowledgeConfig contains retrieval and chunking settings
type KnowledgeConfig struct {
	TopK                int           `toml:"top_k"`
	SimilarityThreshold float64       `toml:"similarity_threshold"`
	ChunkSize           int           `toml:"chunk_size"`
	ChunkOverlap        int           `toml:"chunk_overlap"`
	SemanticChunking    bool          `toml:"semantic_chunking"`
	WarmupTimeout       time.Duration `toml:"warmup_timeout"`
}

// ProcessingConfig contains the scheduled index staleness check
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron format with seconds
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in wayfarer.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Documents: "./data/documents",
			IndexPath: "./data/embeddings/index.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		LLM: LLMConfig{
			Provider:       interfaces.LLMProviderOpenAI,
			BaseURL:        "", // provider default endpoint
			IntentModel:    "gpt-4o-mini",
			ReasoningModel: "gpt-4o",
			AnswerModel:    "gpt-4o-mini",
			PlanningModel:  "gpt-4o",
			EmbedModel:     "text-embedding-3-small",
			EmbedDims:      768,
			Timeout:        5 * time.Minute,
			Temperature:    0.7,
		},
		Geo: GeoConfig{
			APIKey:         "", // user must provide API key in config, env, or KV store
			BaseURL:        "https://restapi.amap.com",
			RateLimit:      1 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Assistant: AssistantConfig{
			City: "Haikou",
		},
		Knowledge: KnowledgeConfig{
			TopK:                5,
			SimilarityThreshold: 0.3,
			ChunkSize:           500,
			ChunkOverlap:        50,
			SemanticChunking:    true,
			WarmupTimeout:       30 * time.Second,
		},
		Processing: ProcessingConfig{
			Enabled:  false,           // disabled by default - user must explicitly opt-in
			Schedule: "0 0 */6 * * *", // every 6 hours
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files, later files
// overriding earlier ones. Priority: CLI flags > environment variables >
// last config file > ... > first config file > defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: WAYFARER_ENV, fallback: GO_ENV)
	if env := os.Getenv("WAYFARER_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("WAYFARER_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("WAYFARER_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("WAYFARER_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if docsDir := os.Getenv("WAYFARER_DOCUMENTS_DIR"); docsDir != "" {
		config.Storage.Documents = docsDir
	}
	if indexPath := os.Getenv("WAYFARER_INDEX_PATH"); indexPath != "" {
		config.Storage.IndexPath = indexPath
	}

	// Logging configuration
	if level := os.Getenv("WAYFARER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("WAYFARER_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM configuration
	if provider := os.Getenv("WAYFARER_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = interfaces.LLMProvider(provider)
	}
	if baseURL := os.Getenv("WAYFARER_LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("WAYFARER_LLM_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
	}

	// Geo configuration
	if apiKey := os.Getenv("WAYFARER_AMAP_API_KEY"); apiKey != "" {
		config.Geo.APIKey = apiKey
	}

	// Assistant configuration
	if city := os.Getenv("WAYFARER_CITY"); city != "" {
		config.Assistant.City = city
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.LLM.Provider != interfaces.LLMProviderOpenAI && c.LLM.Provider != interfaces.LLMProviderGemini {
		return fmt.Errorf("invalid llm provider '%s': must be 'openai' or 'gemini'", c.LLM.Provider)
	}
	if c.Knowledge.TopK <= 0 {
		return fmt.Errorf("knowledge top_k must be greater than 0, got %d", c.Knowledge.TopK)
	}
	if c.Knowledge.ChunkSize <= 0 {
		return fmt.Errorf("knowledge chunk_size must be greater than 0, got %d", c.Knowledge.ChunkSize)
	}
	if c.Knowledge.SimilarityThreshold < 0 || c.Knowledge.SimilarityThreshold > 1 {
		return fmt.Errorf("knowledge similarity_threshold must be within [0,1], got %f", c.Knowledge.SimilarityThreshold)
	}
	return nil
}

// ResolveAPIKey resolves an API key by name with environment variable
// priority. Resolution order: environment variables -> KV store -> config
// fallback -> error. WAYFARER_* environment variables always take precedence.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"amap_api_key": {"WAYFARER_AMAP_API_KEY", "AMAP_API_KEY"},
		"llm_api_key":  {"WAYFARER_LLM_API_KEY", "OPENAI_API_KEY"},
	}

	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
