// Package config loads engine configuration from the environment, with an
// optional YAML tuning file for the retrieval constants.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full engine configuration.
type Config struct {
	Store       StoreConfig
	Embedder    EmbedderConfig
	LLM         LLMConfig
	Search      SearchConfig
	Session     SessionConfig
	OpLog       OpLogConfig
	Backfill    BackfillConfig
	Maintenance MaintenanceConfig
	Snapshot    SnapshotConfig
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Path string
}

// EmbedderConfig selects and configures the embedding provider.
type EmbedderConfig struct {
	Provider   string // "ollama" or "openai"
	BaseURL    string
	Model      string
	APIKey     string
	Dimensions int
	CacheSize  int64 // max cached embeddings; 0 disables the cache
}

// LLMConfig configures the assist LLM (classification, keywords, re-ranking).
// Provider "none" disables LLM assist entirely.
type LLMConfig struct {
	Provider string // "claude", "openai", or "none"
	APIKey   string
	Model    string
	BaseURL  string
	Rerank   bool
}

// SearchConfig holds the fusion constants and retrieval behavior knobs.
type SearchConfig struct {
	VectorWeight        float64  `yaml:"vector_weight"`
	TextWeight          float64  `yaml:"text_weight"`
	MinCombined         float64  `yaml:"min_combined"`
	LexicalScale        float64  `yaml:"lexical_scale"`
	CandidateMultiplier int      `yaml:"candidate_multiplier"`
	RerankMargin        int      `yaml:"rerank_margin"`
	ContextLimit        int      `yaml:"context_limit"`
	SkipIntents         []string `yaml:"skip_intents"`
	// IntentExclusions maps an intent to memory types hidden from its
	// context retrieval. Unlike SkipIntents the search still runs.
	IntentExclusions map[string][]string `yaml:"intent_exclusions"`
}

// SessionConfig tunes progressive disclosure sessions.
type SessionConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	SearchLimit   int           `yaml:"search_limit"`
	TTL           time.Duration `yaml:"-"`
	TTLMinutes    int           `yaml:"ttl_minutes"`
	RedisAddr     string        `yaml:"-"`
	RedisPassword string        `yaml:"-"`
	RedisDB       int           `yaml:"-"`
}

// OpLogConfig tunes operational log retention.
type OpLogConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// BackfillConfig paces the embedding backfill sweep.
type BackfillConfig struct {
	Workers    int     `yaml:"workers"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// MaintenanceConfig holds the cron schedules for background jobs. Empty
// schedule disables that job.
type MaintenanceConfig struct {
	BackfillSchedule string
	PurgeSchedule    string
	SnapshotSchedule string
}

// SnapshotConfig points at the object store receiving database snapshots.
type SnapshotConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load builds the configuration: built-in defaults, then the optional tuning
// file at BARNABEE_TUNING, then environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Store:    loadStoreConfig(),
		Embedder: loadEmbedderConfig(),
		LLM:      loadLLMConfig(),
		Search: SearchConfig{
			VectorWeight:        0.6,
			TextWeight:          0.4,
			MinCombined:         0.5,
			LexicalScale:        25,
			CandidateMultiplier: 2,
			RerankMargin:        2,
			ContextLimit:        5,
			SkipIntents:         []string{"timer", "clock", "alarm"},
			IntentExclusions: map[string][]string{
				"journal_dictation": {"journal"},
				"calendar":          {"meeting", "event"},
			},
		},
		Session: SessionConfig{
			BatchSize:   3,
			SearchLimit: 20,
			TTLMinutes:  10,
		},
		OpLog:    OpLogConfig{RetentionDays: 90},
		Backfill: BackfillConfig{Workers: 4, RatePerSec: 8},
		Maintenance: MaintenanceConfig{
			BackfillSchedule: getEnv("BARNABEE_BACKFILL_SCHEDULE", "0 3 * * *"),
			PurgeSchedule:    getEnv("BARNABEE_PURGE_SCHEDULE", "30 3 * * *"),
			SnapshotSchedule: getEnv("BARNABEE_SNAPSHOT_SCHEDULE", ""),
		},
		Snapshot: loadSnapshotConfig(),
	}

	if path := os.Getenv("BARNABEE_TUNING"); path != "" {
		if err := applyTuningFile(cfg, path); err != nil {
			return nil, fmt.Errorf("tuning file %s: %w", path, err)
		}
	}
	applyTuningEnv(cfg)
	loadSessionEnv(&cfg.Session)
	cfg.Session.TTL = time.Duration(cfg.Session.TTLMinutes) * time.Minute

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Path: getEnv("BARNABEE_MEMORY_DB", "barnabee-memory.db"),
	}
}

func loadEmbedderConfig() EmbedderConfig {
	provider := getEnv("BARNABEE_EMBED_PROVIDER", "ollama")
	baseURL := os.Getenv("BARNABEE_EMBED_URL")
	if baseURL == "" {
		switch provider {
		case "openai":
			baseURL = "https://api.openai.com/v1"
		default:
			baseURL = "http://localhost:11434"
		}
	}
	model := os.Getenv("BARNABEE_EMBED_MODEL")
	if model == "" {
		switch provider {
		case "openai":
			model = "text-embedding-3-small"
		default:
			model = "nomic-embed-text"
		}
	}
	return EmbedderConfig{
		Provider:   provider,
		BaseURL:    baseURL,
		Model:      model,
		APIKey:     os.Getenv("BARNABEE_EMBED_API_KEY"),
		Dimensions: getEnvInt("BARNABEE_EMBED_DIMENSIONS", 768),
		CacheSize:  int64(getEnvInt("BARNABEE_EMBED_CACHE", 4096)),
	}
}

func loadLLMConfig() LLMConfig {
	provider := getEnv("BARNABEE_LLM_PROVIDER", "none")
	model := os.Getenv("BARNABEE_LLM_MODEL")
	if model == "" && provider == "claude" {
		model = "claude-3-5-haiku-20241022"
	}
	return LLMConfig{
		Provider: provider,
		APIKey:   os.Getenv("BARNABEE_LLM_API_KEY"),
		Model:    model,
		BaseURL:  os.Getenv("BARNABEE_LLM_URL"),
		Rerank:   os.Getenv("BARNABEE_LLM_RERANK") != "",
	}
}

func loadSessionEnv(sc *SessionConfig) {
	sc.RedisAddr = os.Getenv("BARNABEE_REDIS_ADDR")
	sc.RedisPassword = os.Getenv("BARNABEE_REDIS_PASSWORD")
	sc.RedisDB = getEnvInt("BARNABEE_REDIS_DB", 0)
}

func loadSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Endpoint:  os.Getenv("BARNABEE_MINIO_ENDPOINT"),
		AccessKey: os.Getenv("BARNABEE_MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("BARNABEE_MINIO_SECRET_KEY"),
		Bucket:    getEnv("BARNABEE_MINIO_BUCKET", "memory-snapshots"),
		UseSSL:    os.Getenv("BARNABEE_MINIO_SSL") != "",
	}
}

// applyTuningEnv lets single env vars override tuning values, mainly for
// experiments without editing the tuning file.
func applyTuningEnv(cfg *Config) {
	cfg.Search.VectorWeight = getEnvFloat("BARNABEE_VECTOR_WEIGHT", cfg.Search.VectorWeight)
	cfg.Search.TextWeight = getEnvFloat("BARNABEE_TEXT_WEIGHT", cfg.Search.TextWeight)
	cfg.Search.MinCombined = getEnvFloat("BARNABEE_MIN_COMBINED", cfg.Search.MinCombined)
	cfg.Search.LexicalScale = getEnvFloat("BARNABEE_LEXICAL_SCALE", cfg.Search.LexicalScale)
	cfg.Session.BatchSize = getEnvInt("BARNABEE_SESSION_BATCH", cfg.Session.BatchSize)
	cfg.Session.SearchLimit = getEnvInt("BARNABEE_SESSION_LIMIT", cfg.Session.SearchLimit)
	cfg.OpLog.RetentionDays = getEnvInt("BARNABEE_LOG_RETENTION_DAYS", cfg.OpLog.RetentionDays)
	cfg.Backfill.Workers = getEnvInt("BARNABEE_BACKFILL_WORKERS", cfg.Backfill.Workers)
	cfg.Backfill.RatePerSec = getEnvFloat("BARNABEE_BACKFILL_RATE", cfg.Backfill.RatePerSec)
}

func (c *Config) validate() error {
	if c.Search.VectorWeight < 0 || c.Search.TextWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.VectorWeight+c.Search.TextWeight == 0 {
		return fmt.Errorf("at least one search weight must be positive")
	}
	if c.Search.MinCombined < 0 || c.Search.MinCombined > 1 {
		return fmt.Errorf("min_combined must be in [0,1], got %v", c.Search.MinCombined)
	}
	if c.Search.LexicalScale <= 0 {
		return fmt.Errorf("lexical_scale must be positive, got %v", c.Search.LexicalScale)
	}
	if c.Search.ContextLimit < 1 {
		return fmt.Errorf("context_limit must be at least 1, got %d", c.Search.ContextLimit)
	}
	if c.Session.BatchSize < 1 {
		return fmt.Errorf("session batch_size must be at least 1, got %d", c.Session.BatchSize)
	}
	if c.Session.SearchLimit < c.Session.BatchSize {
		return fmt.Errorf("session search_limit %d is below batch_size %d", c.Session.SearchLimit, c.Session.BatchSize)
	}
	if c.Embedder.Dimensions < 1 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedder.Dimensions)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
