package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/huggingface"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/openai"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/embeddings"
)

const (
	EmbeddingProviderHuggingFace = "huggingface"
	EmbeddingProviderOpenAI      = "openai"
	// EmbeddingProviderHash is deterministic and offline. Development only.
	EmbeddingProviderHash = "hash"
)

var (
	newHuggingFaceClient = func(log *logger.Logger, cfg huggingface.Config) (embeddings.Provider, error) {
		return huggingface.New(log, cfg)
	}
	newOpenAIClient = func(log *logger.Logger, cfg openai.Config) (embeddings.Provider, error) {
		return openai.New(log, cfg)
	}
)

func resolveEmbeddingProvider(log *logger.Logger, cfg Config) (embeddings.Provider, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.EmbeddingProvider))
	if provider == "" {
		provider = EmbeddingProviderHuggingFace
	}
	dims := cfg.EmbeddingDimensions
	if dims <= 0 {
		dims = rag.DefaultEmbeddingDimensions
	}
	metrics := observability.Current()

	fail := func(err error) (embeddings.Provider, error) {
		classified := classifyBootstrapError("embedding", provider, err)
		code := bootstrapErrorCode(classified)
		metrics.ObserveProviderBootstrap("embedding", provider, "error", string(code))
		log.Error("Embedding provider bootstrap failed", "provider", provider, "error_code", code, "error", classified)
		return nil, classified
	}
	missingKey := func(name string) (embeddings.Provider, error) {
		return fail(&ProviderBootstrapError{
			Kind:     "embedding",
			Code:     ProviderBootstrapErrorMissingAPIKey,
			Provider: provider,
			Cause:    errors.New(name + " not set"),
		})
	}

	var (
		p   embeddings.Provider
		err error
	)
	switch provider {
	case EmbeddingProviderHuggingFace:
		if strings.TrimSpace(cfg.HuggingFaceAPIKey) == "" {
			return missingKey("HUGGINGFACE_API_KEY")
		}
		p, err = newHuggingFaceClient(log, huggingface.Config{
			APIKey:  cfg.HuggingFaceAPIKey,
			Model:   cfg.HuggingFaceModel,
			BaseURL: cfg.HuggingFaceBaseURL,
		})
	case EmbeddingProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return missingKey("OPENAI_API_KEY")
		}
		p, err = newOpenAIClient(log, openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIEmbedModel,
			Dimensions: dims,
		})
	case EmbeddingProviderHash:
		log.Warn("Selecting hash embedding provider; retrieval quality is not meaningful", "dimensions", dims)
		p = embeddings.NewHashProvider(dims)
	default:
		return fail(&ProviderBootstrapError{
			Kind:     "embedding",
			Code:     ProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported embedding provider %q", provider),
		})
	}
	if err != nil {
		return fail(err)
	}
	log.Info("Selecting embedding provider", "provider", provider, "model", p.Model(), "dimensions", dims)
	metrics.ObserveProviderBootstrap("embedding", provider, "success", "none")
	return p, nil
}
