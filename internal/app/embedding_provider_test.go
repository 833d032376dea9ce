package app

import (
	"context"
	"errors"
	"testing"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/huggingface"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/openai"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/embeddings"
)

type stubProvider struct{ model string }

func (p stubProvider) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	return make([][]float32, len(inputs)), nil
}
func (p stubProvider) Model() string { return p.model }

func TestResolveEmbeddingProviderHuggingFace(t *testing.T) {
	orig := newHuggingFaceClient
	t.Cleanup(func() { newHuggingFaceClient = orig })
	var got huggingface.Config
	newHuggingFaceClient = func(_ *logger.Logger, cfg huggingface.Config) (embeddings.Provider, error) {
		got = cfg
		return stubProvider{model: cfg.Model}, nil
	}

	p, err := resolveEmbeddingProvider(logger.NewNop(), Config{
		EmbeddingProvider: "huggingface",
		HuggingFaceAPIKey: "hf_x",
		HuggingFaceModel:  "sentence-transformers/all-MiniLM-L6-v2",
	})
	if err != nil {
		t.Fatalf("resolveEmbeddingProvider: %v", err)
	}
	if p.Model() != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Fatalf("model: got=%q", p.Model())
	}
	if got.APIKey != "hf_x" {
		t.Fatalf("huggingface.APIKey: want=%q got=%q", "hf_x", got.APIKey)
	}
}

func TestResolveEmbeddingProviderOpenAIPassesDimensions(t *testing.T) {
	orig := newOpenAIClient
	t.Cleanup(func() { newOpenAIClient = orig })
	var got openai.Config
	newOpenAIClient = func(_ *logger.Logger, cfg openai.Config) (embeddings.Provider, error) {
		got = cfg
		return stubProvider{model: cfg.Model}, nil
	}

	if _, err := resolveEmbeddingProvider(logger.NewNop(), Config{
		EmbeddingProvider:   "openai",
		OpenAIAPIKey:        "sk-x",
		OpenAIEmbedModel:    "text-embedding-3-small",
		EmbeddingDimensions: 384,
	}); err != nil {
		t.Fatalf("resolveEmbeddingProvider: %v", err)
	}
	if got.Dimensions != 384 {
		t.Fatalf("openai.Dimensions: want=384 got=%d", got.Dimensions)
	}
}

func TestResolveEmbeddingProviderMissingKey(t *testing.T) {
	_, err := resolveEmbeddingProvider(logger.NewNop(), Config{EmbeddingProvider: "huggingface"})
	var bootErr *ProviderBootstrapError
	if !errors.As(err, &bootErr) || bootErr.Code != ProviderBootstrapErrorMissingAPIKey {
		t.Fatalf("error: expected missing_api_key, got=%v", err)
	}
	if bootErr.Kind != "embedding" {
		t.Fatalf("kind: want=embedding got=%q", bootErr.Kind)
	}
}

func TestResolveEmbeddingProviderHash(t *testing.T) {
	p, err := resolveEmbeddingProvider(logger.NewNop(), Config{EmbeddingProvider: "hash", EmbeddingDimensions: 16})
	if err != nil {
		t.Fatalf("resolveEmbeddingProvider: %v", err)
	}
	vecs, err := p.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 || len(vecs[0]) != 16 {
		t.Fatalf("Embed: expected one 16-dim vector, got=%v", vecs)
	}
}

func TestResolveEmbeddingProviderInvalid(t *testing.T) {
	_, err := resolveEmbeddingProvider(logger.NewNop(), Config{EmbeddingProvider: "cohere"})
	if got := bootstrapErrorCode(err); got != ProviderBootstrapErrorInvalidProvider {
		t.Fatalf("code: want=%s got=%s", ProviderBootstrapErrorInvalidProvider, got)
	}
}
