package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/envutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	retrievals *CounterVec

	indexing         *CounterVec
	indexingDuration *HistogramVec
	indexedChunks    *CounterVec

	embeddingRetries  *CounterVec
	embeddingRequests *CounterVec
	embeddingLatency  *HistogramVec

	vectorStoreOps     *CounterVec
	vectorStoreLatency *HistogramVec

	providerBootstrap *CounterVec

	completions       *CounterVec
	completionLatency *HistogramVec
	llmTokens         *CounterVec

	queueDepth  *Gauge
	jobs        *CounterVec
	jobDuration *HistogramVec

	dbStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	reg *registry
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	return envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
}

// Init installs the process-wide registry when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("Observability metrics enabled")
		}
	})
	return instance
}

func New() *Metrics {
	r := &registry{}
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	return &Metrics{
		reg: r,

		apiRequests: r.counterVec("vc_api_requests_total", "Total API requests by method/route/status.", "method", "route", "status"),
		apiLatency:  r.histogramVec("vc_api_request_duration_seconds", "API request latency in seconds by method/route/status.", latency, "method", "route", "status"),
		apiInflight: r.gauge("vc_api_inflight_requests", "In-flight API requests."),

		retrievals: r.counterVec("vc_retrieval_total", "Context builds by mode (rag/raw) and fallback reason.", "mode", "reason"),

		indexing:         r.counterVec("vc_indexing_total", "Indexing attempts by outcome.", "status"),
		indexingDuration: r.histogramVec("vc_indexing_duration_seconds", "Indexing run duration in seconds by outcome.", []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300}, "status"),
		indexedChunks:    r.counterVec("vc_indexed_chunks_total", "Chunks written to the vector index.", "provider"),

		embeddingRetries:  r.counterVec("vc_embedding_retries_total", "Embedding retries by operation (batch/query).", "op"),
		embeddingRequests: r.counterVec("vc_embedding_requests_total", "Embedding provider calls by provider/status.", "provider", "status"),
		embeddingLatency:  r.histogramVec("vc_embedding_request_duration_seconds", "Embedding provider latency in seconds.", latency, "provider", "status"),

		vectorStoreOps:     r.counterVec("vc_vector_store_ops_total", "Vector store operations by provider/op/status.", "provider", "op", "status"),
		vectorStoreLatency: r.histogramVec("vc_vector_store_op_duration_seconds", "Vector store latency in seconds.", latency, "provider", "op"),

		providerBootstrap: r.counterVec("vc_provider_bootstrap_total", "Provider bootstrap outcomes by kind/provider/status/code.", "kind", "provider", "status", "code"),

		completions:       r.counterVec("vc_completion_total", "Chat completion attempts by model/status.", "model", "status"),
		completionLatency: r.histogramVec("vc_completion_duration_seconds", "Chat completion latency in seconds by model/status.", []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}, "model", "status"),
		llmTokens:         r.counterVec("vc_llm_tokens_total", "LLM tokens by model/direction.", "model", "direction"),

		queueDepth:  r.gauge("vc_index_queue_depth", "Indexing jobs waiting in the queue."),
		jobs:        r.counterVec("vc_index_jobs_total", "Background indexing jobs by source/status.", "source", "status"),
		jobDuration: r.histogramVec("vc_index_job_duration_seconds", "Background indexing job duration.", []float64{1, 5, 10, 30, 60, 120, 300, 600}, "status"),

		dbStats:   r.gaugeVec("vc_db_stats", "Database connection pool stats.", "metric"),
		redisUp:   r.gauge("vc_redis_up", "Redis connectivity (1=up, 0=down)."),
		redisPing: r.gauge("vc_redis_ping_seconds", "Redis ping latency in seconds."),
	}
}

// Serve exposes /metrics on addr until ctx is cancelled. A bind failure is
// returned so the caller's errgroup stops the process.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || strings.TrimSpace(addr) == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{Addr: strings.TrimSpace(addr), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	return m.reg.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveRetrieval records whether a context build used retrieval ("rag")
// or fell back to the raw transcript ("raw"), and why.
func (m *Metrics) ObserveRetrieval(mode, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.retrievals.Inc(mode, reason)
}

func (m *Metrics) RetrievalCount(mode, reason string) float64 {
	if m == nil {
		return 0
	}
	return m.retrievals.Value(mode, reason)
}

func (m *Metrics) ObserveIndexing(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.indexing.Inc(status)
	if dur > 0 {
		m.indexingDuration.Observe(dur.Seconds(), status)
	}
}

func (m *Metrics) IndexingCount(status string) float64 {
	if m == nil {
		return 0
	}
	return m.indexing.Value(status)
}

func (m *Metrics) AddIndexedChunks(provider string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.indexedChunks.Add(float64(n), provider)
}

func (m *Metrics) IncEmbeddingRetry(op string) {
	if m == nil {
		return
	}
	m.embeddingRetries.Inc(op)
}

func (m *Metrics) ObserveEmbedding(provider, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.embeddingRequests.Inc(provider, status)
	m.embeddingLatency.Observe(dur.Seconds(), provider, status)
}

func (m *Metrics) ObserveVectorStoreOperation(provider, op, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorStoreOps.Inc(provider, op, status)
	m.vectorStoreLatency.Observe(dur.Seconds(), provider, op)
}

func (m *Metrics) ObserveCompletion(model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.completions.Inc(model, status)
	if dur > 0 {
		m.completionLatency.Observe(dur.Seconds(), model, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

// ObserveProviderBootstrap records startup selection of the vector or
// embedding provider. kind is "vector" or "embedding".
func (m *Metrics) ObserveProviderBootstrap(kind, provider, status, code string) {
	if m == nil {
		return
	}
	m.providerBootstrap.Inc(kind, provider, status, code)
}

func (m *Metrics) ProviderBootstrapCount(kind, provider, status, code string) float64 {
	if m == nil {
		return 0
	}
	return m.providerBootstrap.Value(kind, provider, status, code)
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) ObserveJob(source, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.jobs.Inc(source, status)
	if dur > 0 {
		m.jobDuration.Observe(dur.Seconds(), status)
	}
}

// every runs fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// StartDBCollector samples the connection pool behind db.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	every(ctx, scrapeInterval(), func() {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("DB pool stats unavailable", "error", err)
			}
			return
		}
		st := sqlDB.Stats()
		for metric, v := range map[string]float64{
			"open_connections":      float64(st.OpenConnections),
			"in_use":                float64(st.InUse),
			"idle":                  float64(st.Idle),
			"wait_count":            float64(st.WaitCount),
			"wait_duration_seconds": st.WaitDuration.Seconds(),
		} {
			m.dbStats.Set(v, metric)
		}
	})
}

// StartRedisCollector tracks whether the indexing lock backend answers.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	every(ctx, scrapeInterval(), func() {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("Redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}
