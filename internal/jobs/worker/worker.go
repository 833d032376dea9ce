package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

// Handler indexes one video. Errors are logged and counted, never retried
// by the queue itself; the sweeper picks the video up again later.
type Handler func(ctx context.Context, videoID string) error

// Lister returns videos that still need indexing.
type Lister func(ctx context.Context, limit int) ([]string, error)

type Config struct {
	Concurrency   int
	QueueSize     int
	SweepInterval time.Duration
	SweepBatch    int
}

func DefaultConfig() Config {
	return Config{Concurrency: 2, QueueSize: 256, SweepBatch: 50}
}

type job struct {
	videoID  string
	source   string
	enqueued time.Time
}

type Worker struct {
	log    *logger.Logger
	cfg    Config
	lister Lister

	queue chan job

	mu      sync.Mutex
	pending map[string]struct{}
	started bool
	wg      sync.WaitGroup
}

func NewWorker(baseLog *logger.Logger, cfg Config, lister Lister) *Worker {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	def := DefaultConfig()
	if cfg.Concurrency < 1 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.SweepBatch < 1 {
		cfg.SweepBatch = def.SweepBatch
	}
	return &Worker{
		log:     baseLog.With("component", "IndexWorker"),
		cfg:     cfg,
		lister:  lister,
		queue:   make(chan job, cfg.QueueSize),
		pending: map[string]struct{}{},
	}
}

// Enqueue schedules background indexing. It reports false when the video
// is already pending or the queue is full; it never blocks.
func (w *Worker) Enqueue(videoID, source string) bool {
	if videoID == "" {
		return false
	}
	w.mu.Lock()
	if _, dup := w.pending[videoID]; dup {
		w.mu.Unlock()
		return false
	}
	select {
	case w.queue <- job{videoID: videoID, source: source, enqueued: time.Now()}:
		w.pending[videoID] = struct{}{}
	default:
		w.mu.Unlock()
		w.log.Warn("Index queue full; dropping job", "video_id", videoID, "source", source)
		observability.Current().ObserveJob(source, "dropped", 0)
		return false
	}
	depth := len(w.queue)
	w.mu.Unlock()
	observability.Current().SetQueueDepth(depth)
	return true
}

// Pending reports how many videos are queued or running.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Start launches the worker pool and, when configured, the sweeper. The
// loops stop when ctx is cancelled; Wait blocks until they have.
func (w *Worker) Start(ctx context.Context, h Handler) error {
	if h == nil {
		return fmt.Errorf("index worker: handler required")
	}
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("index worker already started")
	}
	w.started = true
	w.mu.Unlock()

	w.log.Info("Starting index worker pool",
		"concurrency", w.cfg.Concurrency,
		"queue_size", w.cfg.QueueSize,
		"sweep_interval", w.cfg.SweepInterval.String(),
	)
	for i := 0; i < w.cfg.Concurrency; i++ {
		workerID := i + 1
		w.wg.Add(1)
		go w.runLoop(ctx, workerID, h)
	}
	if w.cfg.SweepInterval > 0 && w.lister != nil {
		w.wg.Add(1)
		go w.sweepLoop(ctx)
	}
	return nil
}

func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) runLoop(ctx context.Context, workerID int, h Handler) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			w.log.Info("Worker loop stopped", "worker_id", workerID)
			return
		case j := <-w.queue:
			observability.Current().SetQueueDepth(len(w.queue))
			w.process(ctx, workerID, h, j)
		}
	}
}

func (w *Worker) process(ctx context.Context, workerID int, h Handler, j job) {
	start := time.Now()
	defer func() {
		w.mu.Lock()
		delete(w.pending, j.videoID)
		w.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Index job panic",
				"worker_id", workerID,
				"video_id", j.videoID,
				"source", j.source,
				"panic", r,
			)
			observability.Current().ObserveJob(j.source, "panic", time.Since(start))
		}
	}()

	if err := h(ctx, j.videoID); err != nil {
		w.log.Warn("Index job failed",
			"worker_id", workerID,
			"video_id", j.videoID,
			"source", j.source,
			"error", err,
		)
		observability.Current().ObserveJob(j.source, "failure", time.Since(start))
		return
	}
	observability.Current().ObserveJob(j.source, "success", time.Since(start))
	w.log.Debug("Index job done",
		"worker_id", workerID,
		"video_id", j.videoID,
		"waited_ms", start.Sub(j.enqueued).Milliseconds(),
		"ran_ms", time.Since(start).Milliseconds(),
	)
}

func (w *Worker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep enqueues one batch of unindexed videos and returns how many were
// accepted.
func (w *Worker) Sweep(ctx context.Context) int {
	if w.lister == nil {
		return 0
	}
	ids, err := w.lister(ctx, w.cfg.SweepBatch)
	if err != nil {
		w.log.Warn("ListUnindexed failed", "error", err)
		return 0
	}
	n := 0
	for _, id := range ids {
		if w.Enqueue(id, "sweep") {
			n++
		}
	}
	if n > 0 {
		w.log.Info("Sweeper enqueued unindexed videos", "count", n)
	}
	return n
}
