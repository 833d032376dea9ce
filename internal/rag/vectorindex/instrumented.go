package vectorindex

import (
	"context"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
)

type instrumentedBackend struct {
	inner   Backend
	metrics *observability.Metrics
}

// Instrument wraps backend so every call is counted and timed.
func Instrument(inner Backend, metrics *observability.Metrics) Backend {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedBackend{inner: inner, metrics: metrics}
}

func (b *instrumentedBackend) Name() string { return b.inner.Name() }

func (b *instrumentedBackend) Upsert(ctx context.Context, records []Record) error {
	start := time.Now()
	err := b.inner.Upsert(ctx, records)
	b.observe("upsert", err, time.Since(start))
	return err
}

func (b *instrumentedBackend) Query(ctx context.Context, vector []float32, videoID string, topK int) ([]Match, error) {
	start := time.Now()
	out, err := b.inner.Query(ctx, vector, videoID, topK)
	b.observe("query", err, time.Since(start))
	return out, err
}

func (b *instrumentedBackend) DeleteByVideo(ctx context.Context, videoID string) error {
	start := time.Now()
	err := b.inner.DeleteByVideo(ctx, videoID)
	b.observe("delete", err, time.Since(start))
	return err
}

func (b *instrumentedBackend) observe(op string, err error, dur time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	b.metrics.ObserveVectorStoreOperation(b.inner.Name(), op, status, dur)
}
