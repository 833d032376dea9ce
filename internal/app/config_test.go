package app

import (
	"reflect"
	"testing"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/db"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "DB_DRIVER", "VECTOR_PROVIDER", "EMBEDDING_PROVIDER", "RAG_TOP_K",
		"RAG_SCORE_THRESHOLD", "INDEX_LOCK_TTL", "CORS_ALLOWED_ORIGINS", "COMPLETION_API_KEY", "GROQ_API_KEY",
	} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(nil)
	if cfg.Port != "8080" {
		t.Fatalf("Port: want=8080 got=%q", cfg.Port)
	}
	if cfg.DB.Driver != db.DriverSQLite {
		t.Fatalf("DB.Driver: want=%q got=%q", db.DriverSQLite, cfg.DB.Driver)
	}
	if cfg.VectorProvider != VectorProviderMemory {
		t.Fatalf("VectorProvider: want=%q got=%q", VectorProviderMemory, cfg.VectorProvider)
	}
	if cfg.RAGTopK != 3 || cfg.RAGScoreThreshold != 0.35 {
		t.Fatalf("RAG defaults: got top_k=%d threshold=%v", cfg.RAGTopK, cfg.RAGScoreThreshold)
	}
	if cfg.IndexLockTTL != 10*time.Minute {
		t.Fatalf("IndexLockTTL: want=10m got=%v", cfg.IndexLockTTL)
	}
	if cfg.AllowedOrigins != nil {
		t.Fatalf("AllowedOrigins: expected nil, got=%v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("VECTOR_PROVIDER", "PINECONE")
	t.Setenv("GROQ_API_KEY", "gsk_x")
	t.Setenv("COMPLETION_API_KEY", "")
	t.Setenv("RAG_RETRIEVAL_TIMEOUT", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := LoadConfig(nil)
	if cfg.VectorProvider != "pinecone" {
		t.Fatalf("VectorProvider: want=pinecone got=%q", cfg.VectorProvider)
	}
	if cfg.CompletionAPIKey != "gsk_x" {
		t.Fatalf("CompletionAPIKey: want fallback to GROQ_API_KEY, got=%q", cfg.CompletionAPIKey)
	}
	if cfg.RAGRetrievalTimeout != 5*time.Second {
		t.Fatalf("RAGRetrievalTimeout: want=5s got=%v", cfg.RAGRetrievalTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.AllowedOrigins, want) {
		t.Fatalf("AllowedOrigins: want=%v got=%v", want, cfg.AllowedOrigins)
	}
}
