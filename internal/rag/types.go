// Package rag holds the shared types of the transcript retrieval pipeline:
// segments and video metadata going in, chunks and embeddings flowing
// through, and retrieval results coming out.
package rag

import (
	"fmt"
	"strings"
	"time"
)

// DefaultEmbeddingDimensions matches sentence-transformers/all-MiniLM-L6-v2.
const DefaultEmbeddingDimensions = 384

// Segment is one timestamped line of a transcript.
type Segment struct {
	Text          string `json:"text"`
	StartOffsetMs int64  `json:"offset"`
	DurationMs    int64  `json:"duration"`
	Timestamp     string `json:"timestamp"`
}

type VideoMetadata struct {
	VideoID      string `json:"videoId"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description"`
}

type ChunkMetadata struct {
	VideoID        string    `json:"videoId"`
	VideoTitle     string    `json:"videoTitle"`
	ChannelTitle   string    `json:"channelTitle"`
	ChunkIndex     int       `json:"chunkIndex"`
	Timestamp      string    `json:"timestamp"`
	IsContextChunk bool      `json:"isContextChunk"`
	ChunkSize      int       `json:"chunkSize"`
	TotalChunks    int       `json:"totalChunks"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// VectorID is the deterministic vector identity of a chunk.
func (c Chunk) VectorID() string {
	return VectorID(c.Metadata.VideoID, c.Metadata.ChunkIndex)
}

func VectorID(videoID string, chunkIndex int) string {
	return fmt.Sprintf("%s-chunk-%d", videoID, chunkIndex)
}

// VectorIDPrefix is shared by every vector of one video.
func VectorIDPrefix(videoID string) string {
	return videoID + "-chunk-"
}

type Embedding []float32

// EmbeddedChunk pairs a chunk with its vector so the two can never drift
// out of positional alignment.
type EmbeddedChunk struct {
	Chunk     Chunk
	Embedding Embedding
}

// Pair zips chunks and embeddings; lengths must match.
func Pair(chunks []Chunk, embeddings []Embedding) ([]EmbeddedChunk, error) {
	if len(chunks) != len(embeddings) {
		return nil, &DimensionMismatchError{What: "embeddings per chunk", Expected: len(chunks), Got: len(embeddings)}
	}
	out := make([]EmbeddedChunk, len(chunks))
	for i := range chunks {
		out[i] = EmbeddedChunk{Chunk: chunks[i], Embedding: embeddings[i]}
	}
	return out, nil
}

type RetrievalResult struct {
	ChunkIndex     int     `json:"chunkIndex"`
	Timestamp      string  `json:"timestamp"`
	Text           string  `json:"text"`
	Score          float64 `json:"score"`
	IsContextChunk bool    `json:"isContextChunk"`
	VideoTitle     string  `json:"videoTitle"`
	ChannelTitle   string  `json:"channelTitle"`
}

// FormatTimestamp renders a millisecond offset as HH:MM:SS (floor seconds).
func FormatTimestamp(offsetMs int64) string {
	if offsetMs < 0 {
		offsetMs = 0
	}
	total := offsetMs / 1000
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// TimestampSeconds parses H:MM:SS / HH:MM:SS. Unparseable input sorts last.
func TimestampSeconds(ts string) int64 {
	parts := strings.Split(strings.TrimSpace(ts), ":")
	if len(parts) != 3 {
		return 1<<62 - 1
	}
	var total int64
	for _, p := range parts {
		var n int64
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil || n < 0 {
			return 1<<62 - 1
		}
		total = total*60 + n
	}
	return total
}

// TranscriptWithTimestamps renders segments as "[timestamp] text" lines.
func TranscriptWithTimestamps(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		ts := seg.Timestamp
		if ts == "" {
			ts = FormatTimestamp(seg.StartOffsetMs)
		}
		b.WriteString("[")
		b.WriteString(ts)
		b.WriteString("] ")
		b.WriteString(seg.Text)
	}
	return b.String()
}

// PlainText joins segment texts with single spaces.
func PlainText(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = seg.Text
	}
	return strings.Join(parts, " ")
}
