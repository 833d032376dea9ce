// Package embeddings turns chunk texts and queries into vectors through a
// pluggable provider, batching and retrying around it.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

// Provider is the external embedding service. It must return one vector
// per input, in input order.
type Provider interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
	Model() string
}

type Config struct {
	Provider       string
	Dimensions     int
	BatchSize      int
	BatchDelay     time.Duration
	MaxAttempts    int
	BatchBaseDelay time.Duration
	QueryBaseDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Dimensions:     rag.DefaultEmbeddingDimensions,
		BatchSize:      10,
		BatchDelay:     100 * time.Millisecond,
		MaxAttempts:    3,
		BatchBaseDelay: time.Second,
		QueryBaseDelay: 500 * time.Millisecond,
	}
}

type Embedder struct {
	log      *logger.Logger
	provider Provider
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Embedder)

// WithSleep replaces the backoff/inter-batch sleeper.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Embedder) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

func New(log *logger.Logger, provider Provider, cfg Config, opts ...Option) (*Embedder, error) {
	if provider == nil {
		return nil, fmt.Errorf("embedding provider required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BatchBaseDelay <= 0 {
		cfg.BatchBaseDelay = def.BatchBaseDelay
	}
	if cfg.QueryBaseDelay <= 0 {
		cfg.QueryBaseDelay = def.QueryBaseDelay
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	e := &Embedder{
		log:      log.With("service", "Embedder", "provider", cfg.Provider, "model", provider.Model()),
		provider: provider,
		cfg:      cfg,
		sleep:    httpx.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Embedder) Model() string   { return e.provider.Model() }
func (e *Embedder) Dimensions() int { return e.cfg.Dimensions }

// EmbedBatch embeds texts in sub-batches and returns vectors aligned with
// texts by position.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) (out []rag.Embedding, err error) {
	ctx, span := observability.StartSpan(ctx, "rag.embed",
		attribute.String("embed.op", "batch"),
		attribute.Int("embed.count", len(texts)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if len(texts) == 0 {
		return []rag.Embedding{}, nil
	}

	start := time.Now()
	batches := (len(texts) + e.cfg.BatchSize - 1) / e.cfg.BatchSize
	e.log.Info("Embedding batch started", "texts", len(texts), "batches", batches)

	out = make([]rag.Embedding, 0, len(texts))
	for i := 0; i < len(texts); i += e.cfg.BatchSize {
		end := i + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		e.log.Debug("Embedding sub-batch", "batch", i/e.cfg.BatchSize+1, "of", batches)

		vecs, err := e.withRetry(ctx, "batch", e.cfg.BatchBaseDelay, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)

		if end < len(texts) && e.cfg.BatchDelay > 0 {
			if err := e.sleep(ctx, e.cfg.BatchDelay); err != nil {
				return nil, &rag.EmbeddingError{Op: "batch", Err: err}
			}
		}
	}

	e.log.Info("Embedding batch finished",
		"texts", len(texts),
		"dimensions", len(out[0]),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// EmbedChunks embeds chunk texts and pairs each vector with its chunk.
func (e *Embedder) EmbedChunks(ctx context.Context, chunks []rag.Chunk) ([]rag.EmbeddedChunk, error) {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return rag.Pair(chunks, vecs)
}

// EmbedOne embeds a single query. Blank queries fail before any provider call.
func (e *Embedder) EmbedOne(ctx context.Context, query string) (out rag.Embedding, err error) {
	if strings.TrimSpace(query) == "" {
		return nil, rag.ErrEmptyQuery
	}
	ctx, span := observability.StartSpan(ctx, "rag.embed", attribute.String("embed.op", "query"))
	defer func() { observability.EndSpan(span, err) }()

	vecs, err := e.withRetry(ctx, "query", e.cfg.QueryBaseDelay, []string{query})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *Embedder) withRetry(ctx context.Context, op string, base time.Duration, texts []string) ([]rag.Embedding, error) {
	metrics := observability.Current()
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &rag.EmbeddingError{Op: op, Attempts: attempt, Err: err}
		}

		start := time.Now()
		vecs, err := e.call(ctx, texts)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.ObserveEmbedding(e.cfg.Provider, status, time.Since(start))
		if err == nil {
			return vecs, nil
		}
		if rag.IsDimensionMismatch(err) {
			return nil, err
		}
		lastErr = err
		if !retryable(ctx, err) || attempt == e.cfg.MaxAttempts-1 {
			return nil, &rag.EmbeddingError{Op: op, Attempts: attempt + 1, Err: err}
		}

		delay := httpx.Backoff(base, attempt)
		if ra := httpx.RetryAfter(err); ra > delay {
			delay = ra
		}
		metrics.IncEmbeddingRetry(op)
		e.log.Warn("Embedding attempt failed; retrying",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", e.cfg.MaxAttempts,
			"sleep", delay.String(),
			"error", err,
		)
		if err := e.sleep(ctx, delay); err != nil {
			return nil, &rag.EmbeddingError{Op: op, Attempts: attempt + 1, Err: err}
		}
	}
	return nil, &rag.EmbeddingError{Op: op, Attempts: e.cfg.MaxAttempts, Err: lastErr}
}

// call invokes the provider once and validates count and dimensions.
func (e *Embedder) call(ctx context.Context, texts []string) ([]rag.Embedding, error) {
	raw, err := e.provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, &rag.DimensionMismatchError{What: "vectors per input", Expected: len(texts), Got: len(raw)}
	}
	out := make([]rag.Embedding, len(raw))
	for i, v := range raw {
		if e.cfg.Dimensions > 0 && len(v) != e.cfg.Dimensions {
			return nil, &rag.DimensionMismatchError{What: "embedding dimensions", Expected: e.cfg.Dimensions, Got: len(v)}
		}
		out[i] = rag.Embedding(v)
	}
	return out, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}
	if code := httpx.StatusCode(err); code != 0 {
		return httpx.IsRetryableHTTPStatus(code)
	}
	return true
}
