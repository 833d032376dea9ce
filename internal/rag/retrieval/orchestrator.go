// Package retrieval assembles the grounding context for one question:
// retrieved chunks when the video is indexed and retrieval succeeds, the
// truncated raw transcript otherwise.
package retrieval

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const (
	ReasonNotIndexed     = "not_indexed"
	ReasonBelowThreshold = "no_results_above_threshold"
	ReasonEmbeddingError = "embedding_error"
	ReasonSearchError    = "search_error"
	ReasonTimeout        = "timeout"

	TruncationMarker = "\n...(transcript continues)"
)

type QueryEmbedder interface {
	EmbedOne(ctx context.Context, query string) (rag.Embedding, error)
}

type Searcher interface {
	Search(ctx context.Context, query rag.Embedding, videoID string, topK int, threshold float64) ([]rag.RetrievalResult, error)
}

type Config struct {
	TopK            int
	ScoreThreshold  float64
	RawContextChars int
	Timeout         time.Duration
}

func DefaultConfig() Config {
	return Config{
		TopK:            3,
		ScoreThreshold:  0.35,
		RawContextChars: 15000,
		Timeout:         20 * time.Second,
	}
}

type Request struct {
	VideoID string
	Query   string
	// TranscriptText is the "[timestamp] text" rendering of the transcript.
	TranscriptText string
	IsIndexed      bool
}

type Result struct {
	Context       string
	UsedRetrieval bool
	// Reason is empty when retrieval was used.
	Reason  string
	Results []rag.RetrievalResult
}

type Orchestrator struct {
	log      *logger.Logger
	embedder QueryEmbedder
	searcher Searcher
	cfg      Config
}

func New(log *logger.Logger, embedder QueryEmbedder, searcher Searcher, cfg Config) *Orchestrator {
	if log == nil {
		log = logger.NewNop()
	}
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.RawContextChars <= 0 {
		cfg.RawContextChars = def.RawContextChars
	}
	return &Orchestrator{
		log:      log.With("service", "RetrievalOrchestrator"),
		embedder: embedder,
		searcher: searcher,
		cfg:      cfg,
	}
}

// BuildContext never fails: every retrieval problem becomes a raw
// transcript fallback with a reason.
func (o *Orchestrator) BuildContext(ctx context.Context, req Request) Result {
	ctx, span := observability.StartSpan(ctx, "rag.build_context",
		observability.AttrVideoID.String(req.VideoID),
		attribute.Bool("video.indexed", req.IsIndexed),
	)
	defer span.End()

	res := o.build(ctx, req)

	mode := "raw"
	if res.UsedRetrieval {
		mode = "rag"
	}
	span.SetAttributes(
		attribute.Bool("rag.used_retrieval", res.UsedRetrieval),
		attribute.String("rag.fallback_reason", res.Reason),
		attribute.Int("rag.context_chars", utf8.RuneCountInString(res.Context)),
	)
	observability.Current().ObserveRetrieval(mode, res.Reason)
	return res
}

func (o *Orchestrator) build(ctx context.Context, req Request) Result {
	if !req.IsIndexed || o.embedder == nil || o.searcher == nil {
		o.log.Info("Using raw transcript context",
			"video_id", req.VideoID,
			"used_retrieval", false,
			"fallback_reason", ReasonNotIndexed,
		)
		return o.fallback(req, ReasonNotIndexed)
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	vec, err := o.embedder.EmbedOne(ctx, req.Query)
	if err != nil {
		return o.fallbackAfterMiss(ctx, req, ReasonEmbeddingError, err)
	}
	results, err := o.searcher.Search(ctx, vec, req.VideoID, o.cfg.TopK, o.cfg.ScoreThreshold)
	if err != nil {
		return o.fallbackAfterMiss(ctx, req, ReasonSearchError, err)
	}
	if len(results) == 0 {
		return o.fallbackAfterMiss(ctx, req, ReasonBelowThreshold, nil)
	}

	o.log.Info("Using retrieved context",
		"video_id", req.VideoID,
		"used_retrieval", true,
		"results", len(results),
		"top_score", results[0].Score,
	)
	ordered := SortChronologically(results)
	return Result{
		Context:       AssembleContext(ordered),
		UsedRetrieval: true,
		Results:       ordered,
	}
}

// fallbackAfterMiss is the indexed-but-retrieval-failed path; it is logged
// apart from the not-indexed path.
func (o *Orchestrator) fallbackAfterMiss(ctx context.Context, req Request, reason string, err error) Result {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		reason = ReasonTimeout
		err = errors.Join(rag.ErrRetrievalTimeout, err)
	}
	kv := []any{
		"video_id", req.VideoID,
		"used_retrieval", false,
		"fallback_reason", reason,
	}
	if err != nil {
		kv = append(kv, "error", err)
	}
	o.log.Warn("Retrieval fallback after indexed miss", kv...)
	return o.fallback(req, reason)
}

func (o *Orchestrator) fallback(req Request, reason string) Result {
	return Result{
		Context: RawContext(req.TranscriptText, o.cfg.RawContextChars),
		Reason:  reason,
	}
}

// RawContext truncates the transcript to max runes and marks the cut.
func RawContext(transcript string, max int) string {
	if max <= 0 || utf8.RuneCountInString(transcript) <= max {
		return transcript
	}
	r := []rune(transcript)
	return string(r[:max]) + TruncationMarker
}

// SortChronologically orders results by timestamp, keeping score order for
// ties. The input is not modified.
func SortChronologically(results []rag.RetrievalResult) []rag.RetrievalResult {
	out := append([]rag.RetrievalResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		return rag.TimestampSeconds(out[i].Timestamp) < rag.TimestampSeconds(out[j].Timestamp)
	})
	return out
}

// AssembleContext renders results as "[timestamp] text" blocks separated
// by blank lines, in the given order.
func AssembleContext(results []rag.RetrievalResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, "["+r.Timestamp+"] "+strings.TrimSpace(r.Text))
	}
	return strings.Join(parts, "\n\n")
}
