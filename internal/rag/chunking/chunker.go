package chunking

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const (
	noDescription    = "No description available"
	defaultTimestamp = "00:00:00"
)

var timestampPattern = regexp.MustCompile(`\[(\d{1,2}:\d{2}:\d{2})\]`)

type Chunker struct {
	log        *logger.Logger
	buckets    []Bucket
	separators []string
	now        func() time.Time
}

type Option func(*Chunker)

func WithBuckets(b []Bucket) Option { return func(c *Chunker) { c.buckets = b } }

func WithClock(now func() time.Time) Option { return func(c *Chunker) { c.now = now } }

func New(log *logger.Logger, opts ...Option) *Chunker {
	if log == nil {
		log = logger.NewNop()
	}
	c := &Chunker{
		log:        log.With("service", "Chunker"),
		buckets:    DefaultBuckets,
		separators: DefaultSeparators,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ContextHeader is the title/channel/description block that leads chunk 0.
func ContextHeader(title, channel, description string) string {
	if strings.TrimSpace(description) == "" {
		description = noDescription
	}
	return strings.Join([]string{
		"VIDEO TITLE: " + title,
		"CHANNEL: " + channel,
		"DESCRIPTION: " + description,
		"---",
	}, "\n")
}

// FullText is the header, a blank line, then the timestamped transcript.
func FullText(video rag.VideoMetadata, segments []rag.Segment) string {
	return ContextHeader(video.Title, video.ChannelTitle, video.Description) + "\n\n" + rag.TranscriptWithTimestamps(segments)
}

// Chunk splits the video's header and transcript into overlapping, ordered chunks.
func (c *Chunker) Chunk(video rag.VideoMetadata, segments []rag.Segment) ([]rag.Chunk, error) {
	if err := validate(video, segments); err != nil {
		return nil, &rag.ChunkingError{VideoID: video.VideoID, Err: err}
	}

	header := ContextHeader(video.Title, video.ChannelTitle, video.Description)
	fullText := FullText(video, segments)
	params := ParamsFor(c.buckets, length(fullText))

	pieces := NewSplitter(params, c.separators).Split(fullText)
	if len(pieces) == 0 {
		return nil, &rag.ChunkingError{VideoID: video.VideoID, Err: fmt.Errorf("splitter produced no chunks")}
	}

	createdAt := c.now()
	chunks := make([]rag.Chunk, len(pieces))
	for i, text := range pieces {
		// Only a chunk carrying the whole header counts; a header longer than
		// the chunk size leaves no context chunk.
		isContext := i == 0 && strings.Contains(text, header)
		chunks[i] = rag.Chunk{
			Text: text,
			Metadata: rag.ChunkMetadata{
				VideoID:        video.VideoID,
				VideoTitle:     video.Title,
				ChannelTitle:   video.ChannelTitle,
				ChunkIndex:     i,
				Timestamp:      ExtractTimestamp(text),
				IsContextChunk: isContext,
				ChunkSize:      length(text),
				TotalChunks:    len(pieces),
				CreatedAt:      createdAt,
			},
		}
	}

	c.logStats(video.VideoID, length(fullText), params, chunks)
	return chunks, nil
}

// ExtractTimestamp returns the first [H:MM:SS] marker in text, or 00:00:00.
func ExtractTimestamp(text string) string {
	m := timestampPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return defaultTimestamp
	}
	return m[1]
}

func validate(video rag.VideoMetadata, segments []rag.Segment) error {
	if strings.TrimSpace(video.VideoID) == "" {
		return fmt.Errorf("video id required")
	}
	if len(segments) == 0 {
		return fmt.Errorf("no transcript segments")
	}
	var prev int64 = -1
	for i, seg := range segments {
		if seg.StartOffsetMs < 0 {
			return fmt.Errorf("segment %d has negative offset %d", i, seg.StartOffsetMs)
		}
		if seg.StartOffsetMs < prev {
			return fmt.Errorf("segment %d out of order: offset %d before %d", i, seg.StartOffsetMs, prev)
		}
		prev = seg.StartOffsetMs
	}
	return nil
}

func (c *Chunker) logStats(videoID string, textLen int, p Params, chunks []rag.Chunk) {
	minSize, maxSize, sum := chunks[0].Metadata.ChunkSize, 0, 0
	hasContext := false
	for _, ch := range chunks {
		n := ch.Metadata.ChunkSize
		sum += n
		if n < minSize {
			minSize = n
		}
		if n > maxSize {
			maxSize = n
		}
		hasContext = hasContext || ch.Metadata.IsContextChunk
	}
	c.log.Info("Chunking complete",
		"video_id", videoID,
		"full_text_chars", textLen,
		"chunk_size", p.ChunkSize,
		"chunk_overlap", p.ChunkOverlap,
		"chunks", len(chunks),
		"avg_size", sum/len(chunks),
		"min_size", minSize,
		"max_size", maxSize,
		"context_chunk", hasContext,
	)
}
