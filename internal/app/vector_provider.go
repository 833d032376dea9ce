package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/pinecone"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/vectorindex"
)

const (
	VectorProviderMemory   = "memory"
	VectorProviderPinecone = "pinecone"
)

var (
	newPineconeClient  = pinecone.New
	newPineconeBackend = func(ctx context.Context, log *logger.Logger, pc pinecone.Client, cfg vectorindex.PineconeConfig) (vectorindex.Backend, error) {
		return vectorindex.NewPineconeBackend(ctx, log, pc, cfg)
	}
)

type ProviderBootstrapErrorCode string

const (
	ProviderBootstrapErrorInvalidProvider ProviderBootstrapErrorCode = "invalid_provider"
	ProviderBootstrapErrorMissingAPIKey   ProviderBootstrapErrorCode = "missing_api_key"
	ProviderBootstrapErrorConnectFailed   ProviderBootstrapErrorCode = "connect_failed"
	ProviderBootstrapErrorInitFailed      ProviderBootstrapErrorCode = "provider_init_failed"
)

// ProviderBootstrapError reports why a vector or embedding provider could
// not be selected at startup.
type ProviderBootstrapError struct {
	Kind     string
	Code     ProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *ProviderBootstrapError) Error() string {
	if e == nil {
		return "provider bootstrap failed"
	}
	return fmt.Sprintf("%s provider bootstrap failed (code=%s provider=%q): %v", e.Kind, e.Code, e.Provider, e.Cause)
}

func (e *ProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorBackend selects the vector database named by VECTOR_PROVIDER
// and wraps it with metrics.
func resolveVectorBackend(ctx context.Context, log *logger.Logger, cfg Config) (vectorindex.Backend, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	if provider == "" {
		provider = VectorProviderMemory
	}
	metrics := observability.Current()

	fail := func(err error) (vectorindex.Backend, error) {
		classified := classifyBootstrapError("vector", provider, err)
		code := bootstrapErrorCode(classified)
		metrics.ObserveProviderBootstrap("vector", provider, "error", string(code))
		log.Error(
			"Vector provider bootstrap failed",
			"provider", provider,
			"error_code", code,
			"error", classified,
		)
		return nil, classified
	}

	var backend vectorindex.Backend
	switch provider {
	case VectorProviderMemory:
		log.Warn("Selecting in-memory vector index; vectors are lost on restart", "provider", provider)
		backend = vectorindex.NewMemoryBackend()

	case VectorProviderPinecone:
		log.Info(
			"Selecting vector provider",
			"provider", provider,
			"index_name", cfg.PineconeIndexName,
			"index_host", cfg.PineconeIndexHost,
			"namespace", cfg.PineconeNamespace,
		)
		if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
			return fail(&ProviderBootstrapError{
				Kind:     "vector",
				Code:     ProviderBootstrapErrorMissingAPIKey,
				Provider: provider,
				Cause:    errors.New("PINECONE_API_KEY not set"),
			})
		}
		pc, err := newPineconeClient(log, pinecone.Config{
			APIKey:  strings.TrimSpace(cfg.PineconeAPIKey),
			BaseURL: strings.TrimSpace(cfg.PineconeBaseURL),
			Timeout: 30 * time.Second,
		})
		if err != nil {
			return fail(err)
		}
		b, err := newPineconeBackend(ctx, log, pc, vectorindex.PineconeConfig{
			IndexName: strings.TrimSpace(cfg.PineconeIndexName),
			IndexHost: strings.TrimSpace(cfg.PineconeIndexHost),
			Namespace: strings.TrimSpace(cfg.PineconeNamespace),
		})
		if err != nil {
			return fail(err)
		}
		backend = b

	default:
		return fail(&ProviderBootstrapError{
			Kind:     "vector",
			Code:     ProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		})
	}

	metrics.ObserveProviderBootstrap("vector", provider, "success", "none")
	return vectorindex.Instrument(backend, metrics), nil
}

func classifyBootstrapError(kind, provider string, err error) error {
	var already *ProviderBootstrapError
	if errors.As(err, &already) {
		return err
	}
	code := ProviderBootstrapErrorInitFailed
	var urlErr *neturl.Error
	var netErr net.Error
	switch {
	case errors.Is(err, pinecone.ErrMissingAPIKey):
		code = ProviderBootstrapErrorMissingAPIKey
	case errors.As(err, &urlErr), errors.As(err, &netErr):
		code = ProviderBootstrapErrorConnectFailed
	case strings.Contains(strings.ToLower(err.Error()), "connection refused"):
		code = ProviderBootstrapErrorConnectFailed
	case strings.Contains(strings.ToLower(err.Error()), "api key"),
		strings.Contains(strings.ToLower(err.Error()), "api_key"):
		code = ProviderBootstrapErrorMissingAPIKey
	}
	return &ProviderBootstrapError{Kind: kind, Code: code, Provider: provider, Cause: err}
}

func bootstrapErrorCode(err error) ProviderBootstrapErrorCode {
	var bootErr *ProviderBootstrapError
	if errors.As(err, &bootErr) && bootErr != nil && bootErr.Code != "" {
		return bootErr.Code
	}
	return ProviderBootstrapErrorInitFailed
}
