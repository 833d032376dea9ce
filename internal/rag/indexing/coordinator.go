// Package indexing runs Chunker, Embedder and Vector Index for one video and
// records the per-video indexed flag. Failures are absorbed and reported in
// the Result; they never block transcript availability.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/redislock"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/vectorindex"
)

var ErrInProgress = errors.New("indexing already in progress")

type Chunker interface {
	Chunk(video rag.VideoMetadata, segments []rag.Segment) ([]rag.Chunk, error)
}

type Embedder interface {
	EmbedChunks(ctx context.Context, chunks []rag.Chunk) ([]rag.EmbeddedChunk, error)
	Model() string
}

type VectorWriter interface {
	Upsert(ctx context.Context, pairs []rag.EmbeddedChunk) (vectorindex.UpsertResult, error)
	DeleteAll(ctx context.Context, videoID string) error
	Exists(ctx context.Context, videoID string) (bool, error)
}

// FlagStore persists the per-video indexed flag together with the content
// fingerprint it was set for.
type FlagStore interface {
	// IsIndexed is true only when the flag was set for contentHash.
	IsIndexed(ctx context.Context, videoID, contentHash string) (bool, error)
	// MarkIndexed returns rag.ErrStaleContent when the stored content no
	// longer matches contentHash.
	MarkIndexed(ctx context.Context, videoID string, chunkCount int, embeddingModel, runID, contentHash string) error
	ClearIndexed(ctx context.Context, videoID string) error
	RecordIndexFailure(ctx context.Context, videoID, runID, message string) error
}

type Result struct {
	Indexed    bool
	InProgress bool
	// AlreadyIndexed is set when the flag short-circuited the run.
	AlreadyIndexed bool
	ChunkCount     int
	RunID          string
	Err            error
}

type Coordinator struct {
	log      *logger.Logger
	chunker  Chunker
	embedder Embedder
	vectors  VectorWriter
	flags    FlagStore
	locker   redislock.Locker
	group    singleflight.Group
	videos   videoLocks
}

type Option func(*Coordinator)

// WithLocker guards runs across processes. Defaults to an always-granting lock.
func WithLocker(l redislock.Locker) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.locker = l
		}
	}
}

func New(log *logger.Logger, chunker Chunker, embedder Embedder, vectors VectorWriter, flags FlagStore, opts ...Option) (*Coordinator, error) {
	if chunker == nil || embedder == nil || vectors == nil || flags == nil {
		return nil, fmt.Errorf("indexing coordinator: chunker, embedder, vectors and flags are required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	c := &Coordinator{
		log:      log.With("service", "IndexingCoordinator"),
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		flags:    flags,
		locker:   redislock.Nop{},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// EnsureIndexed is idempotent: a video indexed with the same content returns
// immediately. Concurrent in-process callers with identical content share a
// single run; runs for different content of one video are serialized.
func (c *Coordinator) EnsureIndexed(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment) Result {
	fp := rag.ContentHash(video, segments)
	indexed, err := c.flags.IsIndexed(ctx, video.VideoID, fp)
	if err != nil {
		c.log.Warn("Indexed flag read failed", "video_id", video.VideoID, "error", err)
		return Result{Err: fmt.Errorf("read indexed flag: %w", err)}
	}
	if indexed {
		if c.vectorsPresent(ctx, video.VideoID) {
			return Result{Indexed: true, AlreadyIndexed: true}
		}
		// The flag outlived its vectors, e.g. the index was wiped.
		c.log.Warn("Indexed flag set but no vectors stored, reindexing", "video_id", video.VideoID)
		observability.Current().ObserveIndexing("missing_vectors", 0)
		if err := c.flags.ClearIndexed(ctx, video.VideoID); err != nil {
			return Result{Err: fmt.Errorf("clear indexed flag: %w", err)}
		}
	}
	return c.run(ctx, video, segments, fp)
}

// vectorsPresent trusts the flag when the store cannot answer.
func (c *Coordinator) vectorsPresent(ctx context.Context, videoID string) bool {
	ok, err := c.vectors.Exists(ctx, videoID)
	if err != nil {
		c.log.Warn("Vector existence check failed", "video_id", videoID, "error", err)
		return true
	}
	return ok
}

// Reindex clears the flag and runs a full indexing pass.
func (c *Coordinator) Reindex(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment) Result {
	if err := c.flags.ClearIndexed(ctx, video.VideoID); err != nil {
		c.log.Warn("Clear indexed flag failed", "video_id", video.VideoID, "error", err)
		return Result{Err: fmt.Errorf("clear indexed flag: %w", err)}
	}
	return c.run(ctx, video, segments, rag.ContentHash(video, segments))
}

// Remove deletes every vector of the video and clears its flag.
func (c *Coordinator) Remove(ctx context.Context, videoID string) error {
	if err := c.vectors.DeleteAll(ctx, videoID); err != nil {
		return err
	}
	if err := c.flags.ClearIndexed(ctx, videoID); err != nil {
		return fmt.Errorf("clear indexed flag: %w", err)
	}
	c.log.Info("Removed vectors", "video_id", videoID)
	return nil
}

func (c *Coordinator) run(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment, fp string) Result {
	v, _, shared := c.group.Do(video.VideoID+"@"+fp, func() (interface{}, error) {
		return c.locked(ctx, video, segments, fp), nil
	})
	res := v.(Result)
	if shared {
		c.log.Debug("Joined in-flight indexing run", "video_id", video.VideoID, "run_id", res.RunID)
	}
	return res
}

func (c *Coordinator) locked(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment, fp string) Result {
	release, err := c.videos.lock(ctx, video.VideoID)
	if err != nil {
		return Result{Err: fmt.Errorf("wait for indexing run: %w", err)}
	}
	defer release()

	unlock, ok, err := c.locker.TryLock(ctx, "index:"+video.VideoID)
	if err != nil {
		// Lock backend trouble degrades to the unguarded run.
		c.log.Warn("Indexing lock unavailable", "video_id", video.VideoID, "error", err)
		unlock = func() {}
	} else if !ok {
		c.log.Info("Indexing already in progress elsewhere", "video_id", video.VideoID)
		observability.Current().ObserveIndexing("in_progress", 0)
		return Result{InProgress: true, Err: ErrInProgress}
	}
	defer unlock()

	// Another holder may have indexed this content between the first check
	// and the lock.
	if indexed, err := c.flags.IsIndexed(ctx, video.VideoID, fp); err == nil && indexed {
		return Result{Indexed: true, AlreadyIndexed: true}
	}
	return c.index(ctx, video, segments, fp)
}

func (c *Coordinator) index(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment, fp string) (res Result) {
	runID := uuid.NewString()
	log := c.log.With("video_id", video.VideoID, "run_id", runID)
	metrics := observability.Current()
	start := time.Now()

	ctx, span := observability.StartSpan(ctx, "rag.index",
		observability.AttrVideoID.String(video.VideoID),
		attribute.String("index.run_id", runID),
		attribute.Int("index.segments", len(segments)),
	)
	defer func() { observability.EndSpan(span, res.Err) }()

	log.Info("Indexing started", "segments", len(segments))

	fail := func(stage string, err error) Result {
		log.Error("Indexing failed", "stage", stage, "error", err)
		metrics.ObserveIndexing("failure", time.Since(start))
		if rerr := c.flags.RecordIndexFailure(ctx, video.VideoID, runID, stage+": "+err.Error()); rerr != nil {
			log.Warn("Record index failure failed", "error", rerr)
		}
		return Result{RunID: runID, Err: fmt.Errorf("%s: %w", stage, err)}
	}

	_, chunkSpan := observability.StartSpan(ctx, "rag.chunk")
	chunks, err := c.chunker.Chunk(video, segments)
	observability.EndSpan(chunkSpan, err)
	if err != nil {
		return fail("chunk", err)
	}

	pairs, err := c.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return fail("embed", err)
	}

	// Vectors from a previous, larger run would otherwise stay searchable.
	if err := c.vectors.DeleteAll(ctx, video.VideoID); err != nil {
		return fail("delete", err)
	}

	up, err := c.vectors.Upsert(ctx, pairs)
	if err != nil {
		return fail("upsert", err)
	}

	if err := c.flags.MarkIndexed(ctx, video.VideoID, up.UpsertedCount, c.embedder.Model(), runID, fp); err != nil {
		if !errors.Is(err, rag.ErrStaleContent) {
			return fail("mark", err)
		}
		// The transcript changed under this run. Leave the flag down so the
		// next ensure or sweep indexes the stored content.
		log.Warn("Indexed content superseded", "content_hash", fp)
		metrics.ObserveIndexing("stale", time.Since(start))
		if cerr := c.flags.ClearIndexed(ctx, video.VideoID); cerr != nil {
			log.Warn("Clear indexed flag failed", "error", cerr)
		}
		return Result{RunID: runID, Err: fmt.Errorf("mark: %w", err)}
	}

	dur := time.Since(start)
	metrics.ObserveIndexing("success", dur)
	metrics.AddIndexedChunks(c.embedder.Model(), up.UpsertedCount)
	log.Info("Indexing succeeded",
		"chunks", up.UpsertedCount,
		"model", c.embedder.Model(),
		"duration_ms", dur.Milliseconds(),
	)
	return Result{Indexed: true, ChunkCount: up.UpsertedCount, RunID: runID}
}
