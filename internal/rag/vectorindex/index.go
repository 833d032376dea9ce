// Package vectorindex stores chunk vectors keyed by video and answers
// video-filtered similarity queries.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/httpx"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const (
	DefaultScoreThreshold = 0.35
	DefaultTopK           = 3
	MaxMetadataTextChars  = 8000
)

type Config struct {
	Dimensions   int
	BatchSize    int
	BatchDelay   time.Duration
	MaxTextChars int
}

func DefaultConfig() Config {
	return Config{
		Dimensions:   rag.DefaultEmbeddingDimensions,
		BatchSize:    100,
		BatchDelay:   100 * time.Millisecond,
		MaxTextChars: MaxMetadataTextChars,
	}
}

type UpsertResult struct {
	UpsertedCount int
	VideoID       string
}

type Index struct {
	log     *logger.Logger
	backend Backend
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
}

type Option func(*Index)

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(x *Index) {
		if fn != nil {
			x.sleep = fn
		}
	}
}

func New(log *logger.Logger, backend Backend, cfg Config, opts ...Option) (*Index, error) {
	if backend == nil {
		return nil, fmt.Errorf("vector backend required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = def.MaxTextChars
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	x := &Index{
		log:     log.With("service", "VectorIndex", "backend", backend.Name()),
		backend: backend,
		cfg:     cfg,
		sleep:   httpx.Sleep,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

func (x *Index) Backend() string { return x.backend.Name() }

// UpsertChunks pairs chunks with embeddings and writes them. A length
// mismatch fails before anything is written.
func (x *Index) UpsertChunks(ctx context.Context, chunks []rag.Chunk, embeddings []rag.Embedding) (UpsertResult, error) {
	pairs, err := rag.Pair(chunks, embeddings)
	if err != nil {
		return UpsertResult{}, err
	}
	return x.Upsert(ctx, pairs)
}

// Upsert writes pairs in batches. Vector ids are derived from video id and
// chunk index, so repeating a run overwrites instead of duplicating.
func (x *Index) Upsert(ctx context.Context, pairs []rag.EmbeddedChunk) (res UpsertResult, err error) {
	if len(pairs) == 0 {
		return UpsertResult{}, nil
	}
	videoID := pairs[0].Chunk.Metadata.VideoID
	ctx, span := observability.StartSpan(ctx, "rag.upsert",
		observability.AttrVideoID.String(videoID),
		attribute.Int("vectors", len(pairs)),
	)
	defer func() { observability.EndSpan(span, err) }()

	records := make([]Record, len(pairs))
	for i, p := range pairs {
		if p.Chunk.Metadata.VideoID != videoID {
			return UpsertResult{}, &rag.VectorStoreError{Op: "upsert", VideoID: videoID,
				Err: fmt.Errorf("chunk %d belongs to video %q", i, p.Chunk.Metadata.VideoID)}
		}
		if err := x.checkDims("upsert vector", p.Embedding); err != nil {
			return UpsertResult{}, err
		}
		records[i] = x.record(p)
	}

	start := time.Now()
	batches := (len(records) + x.cfg.BatchSize - 1) / x.cfg.BatchSize
	x.log.Info("Upserting vectors", "video_id", videoID, "vectors", len(records), "batches", batches)

	for i := 0; i < len(records); i += x.cfg.BatchSize {
		end := i + x.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := x.backend.Upsert(ctx, records[i:end]); err != nil {
			return res, &rag.VectorStoreError{Op: "upsert", VideoID: videoID, Err: err}
		}
		res.UpsertedCount += end - i
		x.log.Debug("Upserted batch", "video_id", videoID, "batch", i/x.cfg.BatchSize+1, "of", batches)

		if end < len(records) && x.cfg.BatchDelay > 0 {
			if err := x.sleep(ctx, x.cfg.BatchDelay); err != nil {
				return res, &rag.VectorStoreError{Op: "upsert", VideoID: videoID, Err: err}
			}
		}
	}
	res.VideoID = videoID

	x.log.Info("Upsert finished",
		"video_id", videoID,
		"upserted", res.UpsertedCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (x *Index) record(p rag.EmbeddedChunk) Record {
	md := p.Chunk.Metadata
	createdAt := ""
	if !md.CreatedAt.IsZero() {
		createdAt = md.CreatedAt.UTC().Format(time.RFC3339)
	}
	return Record{
		ID:     p.Chunk.VectorID(),
		Values: p.Embedding,
		Metadata: Metadata{
			VideoID:        md.VideoID,
			VideoTitle:     md.VideoTitle,
			ChannelTitle:   md.ChannelTitle,
			ChunkIndex:     md.ChunkIndex,
			Timestamp:      md.Timestamp,
			IsContextChunk: md.IsContextChunk,
			Text:           truncateRunes(p.Chunk.Text, x.cfg.MaxTextChars),
			CreatedAt:      createdAt,
		},
	}
}

// Search returns at most topK results for videoID scoring at or above
// threshold, best first. Zero results is a valid answer.
func (x *Index) Search(ctx context.Context, query rag.Embedding, videoID string, topK int, threshold float64) ([]rag.RetrievalResult, error) {
	if err := x.checkDims("query vector", query); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	start := time.Now()
	matches, err := x.backend.Query(ctx, query, videoID, topK)
	if err != nil {
		return nil, &rag.VectorStoreError{Op: "query", VideoID: videoID, Err: err}
	}

	out := make([]rag.RetrievalResult, 0, len(matches))
	for _, m := range matches {
		if m.Metadata.VideoID != videoID || m.Score < threshold {
			continue
		}
		out = append(out, rag.RetrievalResult{
			ChunkIndex:     m.Metadata.ChunkIndex,
			Timestamp:      m.Metadata.Timestamp,
			Text:           m.Metadata.Text,
			Score:          m.Score,
			IsContextChunk: m.Metadata.IsContextChunk,
			VideoTitle:     m.Metadata.VideoTitle,
			ChannelTitle:   m.Metadata.ChannelTitle,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}

	if len(out) == 0 {
		x.log.Warn("No results above score threshold",
			"video_id", videoID,
			"candidates", len(matches),
			"threshold", threshold,
		)
	} else {
		x.log.Info("Search finished",
			"video_id", videoID,
			"candidates", len(matches),
			"results", len(out),
			"top_score", out[0].Score,
			"threshold", threshold,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return out, nil
}

// Exists runs a topK=1 filtered query with a constant probe vector.
func (x *Index) Exists(ctx context.Context, videoID string) (bool, error) {
	dims := x.cfg.Dimensions
	if dims <= 0 {
		dims = rag.DefaultEmbeddingDimensions
	}
	probe := make([]float32, dims)
	v := float32(1 / math.Sqrt(float64(dims)))
	for i := range probe {
		probe[i] = v
	}
	matches, err := x.backend.Query(ctx, probe, videoID, 1)
	if err != nil {
		return false, &rag.VectorStoreError{Op: "exists", VideoID: videoID, Err: err}
	}
	return len(matches) > 0, nil
}

func (x *Index) DeleteAll(ctx context.Context, videoID string) error {
	if err := x.backend.DeleteByVideo(ctx, videoID); err != nil {
		return &rag.VectorStoreError{Op: "delete", VideoID: videoID, Err: err}
	}
	x.log.Info("Deleted vectors for video", "video_id", videoID)
	return nil
}

func (x *Index) checkDims(what string, v rag.Embedding) error {
	if x.cfg.Dimensions > 0 && len(v) != x.cfg.Dimensions {
		return &rag.DimensionMismatchError{What: what, Expected: x.cfg.Dimensions, Got: len(v)}
	}
	return nil
}

func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
