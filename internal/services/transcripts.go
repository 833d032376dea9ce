package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/repos/transcripts"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/apierr"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/ctxutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag/indexing"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

const msgTranscriptNotFound = "Transcript not found. Please load the video first."

// Indexer is the indexing coordinator as seen by the services.
type Indexer interface {
	EnsureIndexed(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment) indexing.Result
	Reindex(ctx context.Context, video rag.VideoMetadata, segments []rag.Segment) indexing.Result
	Remove(ctx context.Context, videoID string) error
}

// IndexQueue schedules background indexing.
type IndexQueue interface {
	Enqueue(videoID, source string) bool
}

type IngestRequest struct {
	VideoID      string        `json:"videoId"`
	Title        string        `json:"title"`
	ChannelTitle string        `json:"channelTitle"`
	Description  string        `json:"description"`
	Thumbnail    string        `json:"thumbnail"`
	Duration     string        `json:"duration"`
	Language     string        `json:"language"`
	Source       string        `json:"source"`
	Segments     []rag.Segment `json:"segments"`
}

type IngestResult struct {
	Transcript *videos.Transcript
	Indexing   indexing.Result
}

type TranscriptService interface {
	// Ingest stores the transcript and indexes it synchronously. Indexing
	// failure does not fail the ingest.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
	// Get returns the stored transcript, recording the access and queueing
	// background indexing when the video is not yet indexed.
	Get(ctx context.Context, videoID string) (*videos.Transcript, error)
	Reindex(ctx context.Context, videoID string) (indexing.Result, error)
	RemoveVectors(ctx context.Context, videoID string) error
	// IndexVideo is the background queue handler.
	IndexVideo(ctx context.Context, videoID string) error
}

type transcriptService struct {
	log     *logger.Logger
	repo    transcripts.TranscriptRepo
	indexer Indexer
	queue   IndexQueue
}

func NewTranscriptService(log *logger.Logger, repo transcripts.TranscriptRepo, indexer Indexer, queue IndexQueue) TranscriptService {
	if log == nil {
		log = logger.NewNop()
	}
	return &transcriptService{
		log:     log.With("service", "TranscriptService"),
		repo:    repo,
		indexer: indexer,
		queue:   queue,
	}
}

func ValidateVideoID(videoID string) error {
	if !videoIDPattern.MatchString(videoID) {
		return apierr.BadRequest("invalid_video_id", fmt.Sprintf("Invalid video id %q", videoID))
	}
	return nil
}

// NormalizeSegments trims text, drops empty lines, orders by offset and
// derives HH:MM:SS timestamps from the offsets.
func NormalizeSegments(in []rag.Segment) []rag.Segment {
	out := make([]rag.Segment, 0, len(in))
	for _, seg := range in {
		seg.Text = strings.Join(strings.Fields(seg.Text), " ")
		if seg.Text == "" {
			continue
		}
		if seg.StartOffsetMs < 0 {
			seg.StartOffsetMs = 0
		}
		if seg.DurationMs < 0 {
			seg.DurationMs = 0
		}
		seg.Timestamp = rag.FormatTimestamp(seg.StartOffsetMs)
		out = append(out, seg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartOffsetMs < out[j].StartOffsetMs })
	return out
}

func (s *transcriptService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	req.VideoID = strings.TrimSpace(req.VideoID)
	if err := ValidateVideoID(req.VideoID); err != nil {
		return nil, err
	}
	ctx = ctxutil.WithVideoID(ctx, req.VideoID)
	segments := NormalizeSegments(req.Segments)
	if len(segments) == 0 {
		return nil, apierr.BadRequest("invalid_request", "Transcript has no segments")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = req.VideoID
	}

	tr := &videos.Transcript{
		VideoID:        req.VideoID,
		Title:          title,
		ChannelTitle:   strings.TrimSpace(req.ChannelTitle),
		Description:    strings.TrimSpace(req.Description),
		Thumbnail:      strings.TrimSpace(req.Thumbnail),
		Duration:       strings.TrimSpace(req.Duration),
		Language:       strings.TrimSpace(req.Language),
		Source:         strings.TrimSpace(req.Source),
		FullTranscript: rag.PlainText(segments),
	}
	if err := tr.SetSegments(segments); err != nil {
		return nil, err
	}
	saved, err := s.repo.Upsert(ctx, nil, tr)
	if err != nil {
		s.log.Error("Transcript upsert failed", "video_id", req.VideoID, "error", err)
		return nil, fmt.Errorf("save transcript: %w", err)
	}
	s.log.With(ctxutil.Fields(ctx)...).Info("Transcript saved", "segments", len(segments))

	// First ingestion indexes inline; the run is not cut short if the
	// client goes away.
	res := s.indexer.EnsureIndexed(ctxutil.Detach(ctx), saved.Video(), segments)
	if res.Err != nil {
		s.log.Warn("Indexing deferred to raw transcript mode", "video_id", saved.VideoID, "error", res.Err)
	}
	if refreshed, err := s.repo.GetByVideoID(ctx, nil, saved.VideoID); err == nil && refreshed != nil {
		saved = refreshed
	}
	return &IngestResult{Transcript: saved, Indexing: res}, nil
}

func (s *transcriptService) load(ctx context.Context, videoID string) (*videos.Transcript, error) {
	videoID = strings.TrimSpace(videoID)
	if err := ValidateVideoID(videoID); err != nil {
		return nil, err
	}
	tr, err := s.repo.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	if tr == nil {
		return nil, apierr.NotFound("transcript_not_found", msgTranscriptNotFound)
	}
	return tr, nil
}

func (s *transcriptService) Get(ctx context.Context, videoID string) (*videos.Transcript, error) {
	tr, err := s.load(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RecordAccess(ctx, nil, tr.VideoID); err != nil {
		s.log.Warn("Record access failed", "video_id", tr.VideoID, "error", err)
	}
	if !tr.IndexCurrent() && s.queue != nil {
		s.queue.Enqueue(tr.VideoID, "cache_hit")
	}
	return tr, nil
}

func (s *transcriptService) Reindex(ctx context.Context, videoID string) (indexing.Result, error) {
	tr, err := s.load(ctx, videoID)
	if err != nil {
		return indexing.Result{}, err
	}
	segments, err := tr.DecodeSegments()
	if err != nil {
		return indexing.Result{}, err
	}
	res := s.indexer.Reindex(ctxutil.Detach(ctx), tr.Video(), segments)
	if res.InProgress {
		return res, apierr.Conflict("indexing_in_progress", "Indexing already in progress for this video", res.Err)
	}
	return res, nil
}

func (s *transcriptService) RemoveVectors(ctx context.Context, videoID string) error {
	tr, err := s.load(ctx, videoID)
	if err != nil {
		return err
	}
	if err := s.indexer.Remove(ctx, tr.VideoID); err != nil {
		s.log.Error("Remove vectors failed", "video_id", tr.VideoID, "error", err)
		return apierr.Upstream("vector_store_error", "Failed to remove vectors", err)
	}
	return nil
}

func (s *transcriptService) IndexVideo(ctx context.Context, videoID string) error {
	tr, err := s.repo.GetByVideoID(ctx, nil, videoID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if tr == nil {
		s.log.Warn("Index job for unknown video", "video_id", videoID)
		return nil
	}
	segments, err := tr.DecodeSegments()
	if err != nil {
		return err
	}
	res := s.indexer.EnsureIndexed(ctx, tr.Video(), segments)
	if res.InProgress {
		return nil
	}
	return res.Err
}
