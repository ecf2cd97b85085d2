package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Weaviate connection
	WeaviateURL string

	// Ollama models
	OllamaBaseURL    string
	OllamaEmbedModel string
	OllamaChatModel  string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Batch scan
	WatchDir       string
	CheckpointFile string

	// Retrieval constants
	KInitial  int
	KTop      int
	KExpand   int
	PackedMin int
	PackedMax int

	// Chunk token band
	ChunkMinTokens int
	ChunkMaxTokens int

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		WeaviateURL: envOr("WEAVIATE_URL", "http://localhost:8080"),

		OllamaBaseURL:    envOr("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel: envOr("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		OllamaChatModel:  envOr("OLLAMA_CHAT_MODEL", "llama3.1"),

		APIKey: os.Getenv("GUIDEKB_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 64),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		WatchDir:       os.Getenv("WATCH_DIR"),
		CheckpointFile: envOr("CHECKPOINT_FILE", "ingest_checkpoint.json"),

		KInitial:  envInt("K_INITIAL", 32),
		KTop:      envInt("K_TOP", 12),
		KExpand:   envInt("K_EXPAND", 8),
		PackedMin: envInt("PACKED_MIN", 6),
		PackedMax: envInt("PACKED_MAX", 12),

		ChunkMinTokens: envInt("CHUNK_MIN_TOKENS", 500),
		ChunkMaxTokens: envInt("CHUNK_MAX_TOKENS", 1200),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 64
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.KInitial <= 0 {
		cfg.KInitial = 32
	}
	if cfg.KTop <= 0 {
		cfg.KTop = 12
	}
	if cfg.KExpand < 0 {
		cfg.KExpand = 8
	}
	if cfg.PackedMin <= 0 {
		cfg.PackedMin = 6
	}
	if cfg.PackedMax < cfg.PackedMin {
		cfg.PackedMax = 12
	}
	if cfg.ChunkMinTokens <= 0 {
		cfg.ChunkMinTokens = 500
	}
	if cfg.ChunkMaxTokens <= cfg.ChunkMinTokens {
		cfg.ChunkMaxTokens = 1200
	}

	return cfg
}

func (c Config) Validate() error {
	if c.WeaviateURL == "" {
		return fmt.Errorf("WEAVIATE_URL is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("GUIDEKB_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
