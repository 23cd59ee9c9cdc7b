package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	// Chunking budgets, in tokens of the embedding tokenizer.
	ChunkTokens       = 900
	OverlapTokens     = 150
	TokenizerEncoding = "cl100k_base"

	// Embedding requests are batched to respect service input limits.
	EmbedBatchSize = 100

	DefaultTopK    = 5
	MaxSourceChars = 500

	GenTemperature float64 = 0.3
	GenMaxTokens   int64   = 700

	// Dimension of text-embedding-3-small; gemini-embedding-001 is
	// requested at the same output dimensionality.
	EmbeddingDim = 1536

	DefaultModel                = "gpt-4o-mini"
	DefaultEmbeddingModel       = "text-embedding-3-small"
	DefaultGeminiModel          = "gemini-2.5-flash-lite-preview-09-2025"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 60 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//vectorDB
	QdrantConnectionTimeout = 30 * time.Second
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantCollection        = "archivista-docs"

	//redis
	RedisAddr      = "127.0.0.1:6379"
	RedisAnswerDB  = 0
	AnswerCacheTTL = 24 * time.Hour

	DefaultPersona = "You are the royal chronicler of a historical archive. You speak in " +
		"first person, in a courtly and didactic tone, and explain the decisions recorded " +
		"in the archive with historical rigor and clear language. End every answer with a " +
		"section titled 'Sources' listing the relevant documents."
)

// Settings holds everything supplied from the environment. The ingestion
// path refuses to start without a credential for the selected provider;
// the serve path starts degraded instead.
type Settings struct {
	OpenAIAPIKey string
	GeminiAPIKey string

	Model          string // generation model
	EmbeddingModel string
	LLMProvider    string // "openai" | "gemini"
	IndexBackend   string // "flat" | "qdrant"

	DataDir    string
	StorageDir string
	IndexName  string

	ListenAddr string
	RedisAddr  string
	QdrantHost string
	QdrantPort int
	Persona    string
}

func Load() *Settings {
	s := &Settings{
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		Model:          envOr("OPENAI_MODEL", DefaultModel),
		EmbeddingModel: envOr("OPENAI_EMBEDDING_MODEL", DefaultEmbeddingModel),
		LLMProvider:    envOr("LLM_PROVIDER", "openai"),
		IndexBackend:   envOr("INDEX_BACKEND", "flat"),
		DataDir:        envOr("DATA_DIR", "data"),
		StorageDir:     envOr("STORAGE_DIR", "storage"),
		IndexName:      envOr("INDEX_NAME", "archivista"),
		ListenAddr:     envOr("LISTEN_ADDR", ServerListenAddr),
		RedisAddr:      envOr("REDIS_ADDR", RedisAddr),
		QdrantHost:     os.Getenv("QDRANT_HOST"),
		QdrantPort:     envOrInt("QDRANT_PORT", QdrantGrpcPort),
		Persona:        envOr("PERSONA", DefaultPersona),
	}
	if s.LLMProvider == "gemini" {
		if s.Model == DefaultModel {
			s.Model = DefaultGeminiModel
		}
		if s.EmbeddingModel == DefaultEmbeddingModel {
			s.EmbeddingModel = DefaultGeminiEmbeddingModel
		}
	}
	return s
}

// ValidateIngest is the fatal-startup check of the ingestion path.
func (s *Settings) ValidateIngest() error {
	switch s.LLMProvider {
	case "openai":
		if s.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is not set")
		}
	case "gemini":
		if s.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is not set")
		}
	default:
		return errors.New("unknown LLM_PROVIDER: " + s.LLMProvider)
	}
	return nil
}

// IndexPath is the on-disk location of the vector index artifact.
func (s *Settings) IndexPath() string {
	return s.StorageDir + string(os.PathSeparator) + s.IndexName + ".index"
}

// DocsPath is the on-disk location of the chunk metadata artifact.
func (s *Settings) DocsPath() string {
	return s.StorageDir + string(os.PathSeparator) + "docs.json"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
