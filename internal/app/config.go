package app

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/db"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/envutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

type Config struct {
	Env            string
	Port           string
	MetricsAddr    string
	AllowedOrigins []string
	ExposeChatDiag bool

	DB db.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VectorProvider    string
	PineconeAPIKey    string
	PineconeIndexName string
	PineconeIndexHost string
	PineconeNamespace string
	PineconeBaseURL   string

	EmbeddingProvider    string
	EmbeddingDimensions  int
	HuggingFaceAPIKey    string
	HuggingFaceModel     string
	HuggingFaceBaseURL   string
	OpenAIAPIKey         string
	OpenAIEmbedModel     string
	OpenAIBaseURL        string
	EmbeddingBatchSize   int
	EmbeddingMaxAttempts int

	CompletionAPIKey     string
	CompletionBaseURL    string
	CompletionModelsFile string
	CompletionTimeout    time.Duration

	RAGTopK             int
	RAGScoreThreshold   float64
	RAGRawContextChars  int
	RAGRetrievalTimeout time.Duration

	IndexWorkerConcurrency int
	IndexQueueSize         int
	IndexSweepInterval     time.Duration
	IndexLockTTL           time.Duration
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Env:            envutil.String("APP_ENV", "development"),
		Port:           envutil.String("PORT", "8080"),
		MetricsAddr:    envutil.String("METRICS_ADDR", ""),
		AllowedOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		ExposeChatDiag: envutil.Bool("CHAT_EXPOSE_DIAGNOSTICS", false),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverSQLite),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "video_chat"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "file::memory:?cache=shared"),
		},

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		VectorProvider:    strings.ToLower(envutil.String("VECTOR_PROVIDER", VectorProviderMemory)),
		PineconeAPIKey:    envutil.String("PINECONE_API_KEY", ""),
		PineconeIndexName: envutil.String("PINECONE_INDEX_NAME", "youtube-transcripts"),
		PineconeIndexHost: envutil.String("PINECONE_INDEX_HOST", ""),
		PineconeNamespace: envutil.String("PINECONE_NAMESPACE", ""),
		PineconeBaseURL:   envutil.String("PINECONE_BASE_URL", ""),

		EmbeddingProvider:    strings.ToLower(envutil.String("EMBEDDING_PROVIDER", EmbeddingProviderHuggingFace)),
		EmbeddingDimensions:  envutil.Int("EMBEDDING_DIMENSIONS", rag.DefaultEmbeddingDimensions),
		HuggingFaceAPIKey:    envutil.First("", "HUGGINGFACE_API_KEY", "HF_TOKEN"),
		HuggingFaceModel:     envutil.String("HUGGINGFACE_EMBED_MODEL", "sentence-transformers/all-MiniLM-L6-v2"),
		HuggingFaceBaseURL:   envutil.String("HUGGINGFACE_BASE_URL", ""),
		OpenAIAPIKey:         envutil.String("OPENAI_API_KEY", ""),
		OpenAIEmbedModel:     envutil.String("OPENAI_EMBED_MODEL", "text-embedding-3-small"),
		OpenAIBaseURL:        envutil.String("OPENAI_BASE_URL", ""),
		EmbeddingBatchSize:   envutil.Int("EMBEDDING_BATCH_SIZE", 10),
		EmbeddingMaxAttempts: envutil.Int("EMBEDDING_MAX_ATTEMPTS", 3),

		CompletionAPIKey:     envutil.First("", "COMPLETION_API_KEY", "GROQ_API_KEY"),
		CompletionBaseURL:    envutil.String("COMPLETION_BASE_URL", "https://api.groq.com/openai/v1"),
		CompletionModelsFile: envutil.String("COMPLETION_MODELS_FILE", ""),
		CompletionTimeout:    envutil.Duration("COMPLETION_TIMEOUT", 60*time.Second),

		RAGTopK:             envutil.Int("RAG_TOP_K", 3),
		RAGScoreThreshold:   envutil.Float("RAG_SCORE_THRESHOLD", 0.35),
		RAGRawContextChars:  envutil.Int("RAG_RAW_CONTEXT_CHARS", 15000),
		RAGRetrievalTimeout: envutil.Duration("RAG_RETRIEVAL_TIMEOUT", 20*time.Second),

		IndexWorkerConcurrency: envutil.Int("INDEX_WORKER_CONCURRENCY", 2),
		IndexQueueSize:         envutil.Int("INDEX_QUEUE_SIZE", 256),
		IndexSweepInterval:     envutil.Duration("INDEX_SWEEP_INTERVAL", 0),
		IndexLockTTL:           envutil.Duration("INDEX_LOCK_TTL", 10*time.Minute),
	}
	if log != nil {
		log.Info("Configuration loaded",
			"env", cfg.Env,
			"db_driver", cfg.DB.Driver,
			"vector_provider", cfg.VectorProvider,
			"embedding_provider", cfg.EmbeddingProvider,
			"embedding_dimensions", cfg.EmbeddingDimensions,
			"redis_lock", cfg.RedisAddr != "",
		)
	}
	return cfg
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
