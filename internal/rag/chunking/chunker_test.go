package chunking

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

func talkSegments(n int) []rag.Segment {
	segs := make([]rag.Segment, n)
	for i := range segs {
		off := int64(i) * 5000
		segs[i] = rag.Segment{
			Text:          fmt.Sprintf("This is sentence number %03d of the talk about go.", i),
			StartOffsetMs: off,
			DurationMs:    5000,
			Timestamp:     rag.FormatTimestamp(off),
		}
	}
	return segs
}

func talkVideo() rag.VideoMetadata {
	return rag.VideoMetadata{VideoID: "vid12345678", Title: "Go Talk", ChannelTitle: "Gopher"}
}

func TestChunkOrderInvariant(t *testing.T) {
	for _, n := range []int{1, 10, 48, 400} {
		chunks, err := New(nil).Chunk(talkVideo(), talkSegments(n))
		if err != nil {
			t.Fatalf("Chunk(%d): %v", n, err)
		}
		for i, ch := range chunks {
			if ch.Metadata.ChunkIndex != i {
				t.Fatalf("Chunk(%d): expected chunkIndex %d, got=%d", n, i, ch.Metadata.ChunkIndex)
			}
			if ch.Metadata.TotalChunks != len(chunks) {
				t.Fatalf("Chunk(%d): expected totalChunks %d, got=%d", n, len(chunks), ch.Metadata.TotalChunks)
			}
			if ch.Metadata.VideoID != "vid12345678" {
				t.Fatalf("Chunk(%d): unexpected video id %q", n, ch.Metadata.VideoID)
			}
		}
	}
}

func TestChunkShortVideoScenario(t *testing.T) {
	segs := talkSegments(48)
	full := FullText(talkVideo(), segs)
	if l := len(full); l < 2900 || l > 3100 {
		t.Fatalf("fixture: expected ~3000 chars, got=%d", l)
	}
	if p := ParamsFor(DefaultBuckets, len(full)); p.ChunkSize != 600 || p.ChunkOverlap != 100 {
		t.Fatalf("ParamsFor: expected 600/100, got=%+v", p)
	}

	chunks, err := New(nil).Chunk(talkVideo(), segs)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) < 5 || len(chunks) > 7 {
		t.Fatalf("Chunk: expected 5-7 chunks, got=%d", len(chunks))
	}
	for _, ch := range chunks {
		if ch.Metadata.ChunkSize > 600 {
			t.Fatalf("Chunk: chunk %d exceeds size: %d", ch.Metadata.ChunkIndex, ch.Metadata.ChunkSize)
		}
	}
}

func TestChunkContextChunkIsFirstOnly(t *testing.T) {
	chunks, err := New(nil).Chunk(talkVideo(), talkSegments(48))
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if !chunks[0].Metadata.IsContextChunk {
		t.Fatalf("Chunk: expected chunk 0 to be the context chunk")
	}
	if !strings.Contains(chunks[0].Text, "DESCRIPTION: No description available") {
		t.Fatalf("Chunk: expected description placeholder in header, got=%q", chunks[0].Text)
	}
	for _, ch := range chunks[1:] {
		if ch.Metadata.IsContextChunk {
			t.Fatalf("Chunk: chunk %d unexpectedly marked as context", ch.Metadata.ChunkIndex)
		}
	}
}

func TestChunkSplitHeaderIsNotContext(t *testing.T) {
	video := talkVideo()
	video.Description = strings.TrimSpace(strings.Repeat("lorem ", 500))
	chunks, err := New(nil).Chunk(video, talkSegments(48))
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if !strings.HasPrefix(chunks[0].Text, "VIDEO TITLE: Go Talk") {
		t.Fatalf("Chunk: expected chunk 0 to open with the title, got=%q", chunks[0].Text[:40])
	}
	for _, ch := range chunks {
		if ch.Metadata.IsContextChunk {
			t.Fatalf("Chunk: chunk %d marked as context without the whole header", ch.Metadata.ChunkIndex)
		}
	}
}

func TestChunkTimestamps(t *testing.T) {
	chunks, err := New(nil).Chunk(talkVideo(), talkSegments(48))
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	// header-only lead-in has no marker
	if chunks[0].Metadata.Timestamp != "00:00:00" {
		t.Fatalf("Chunk: expected default timestamp for header chunk, got=%s", chunks[0].Metadata.Timestamp)
	}
	prev := int64(-1)
	for _, ch := range chunks[1:] {
		if !strings.HasPrefix(ch.Text, "["+ch.Metadata.Timestamp+"]") {
			t.Fatalf("Chunk: chunk %d timestamp %s does not lead text %q", ch.Metadata.ChunkIndex, ch.Metadata.Timestamp, ch.Text[:20])
		}
		secs := rag.TimestampSeconds(ch.Metadata.Timestamp)
		if secs < prev {
			t.Fatalf("Chunk: timestamps not chronological at chunk %d", ch.Metadata.ChunkIndex)
		}
		prev = secs
	}
}

func TestChunkCoversWholeText(t *testing.T) {
	video := talkVideo()
	video.Description = "A talk about chunking."
	segs := talkSegments(120)
	full := FullText(video, segs)

	chunks, err := New(nil).Chunk(video, segs)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	for _, ch := range chunks {
		if !strings.Contains(full, ch.Text) {
			t.Fatalf("Chunk: chunk %d is not a slice of the full text", ch.Metadata.ChunkIndex)
		}
	}
	for _, line := range strings.Split(full, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		found := false
		for _, ch := range chunks {
			if strings.Contains(ch.Text, line) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("Chunk: line %q lost during chunking", line)
		}
	}
}

func TestChunkCreatedAtUsesClock(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	chunks, err := New(nil, WithClock(func() time.Time { return at })).Chunk(talkVideo(), talkSegments(3))
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	for _, ch := range chunks {
		if !ch.Metadata.CreatedAt.Equal(at) {
			t.Fatalf("Chunk: expected createdAt %v, got=%v", at, ch.Metadata.CreatedAt)
		}
	}
}

func TestChunkRejectsMalformedInput(t *testing.T) {
	outOfOrder := talkSegments(3)
	outOfOrder[2].StartOffsetMs = 1

	cases := []struct {
		name  string
		video rag.VideoMetadata
		segs  []rag.Segment
	}{
		{"missing video id", rag.VideoMetadata{Title: "x"}, talkSegments(2)},
		{"no segments", talkVideo(), nil},
		{"out of order", talkVideo(), outOfOrder},
	}
	for _, tc := range cases {
		_, err := New(nil).Chunk(tc.video, tc.segs)
		if !rag.IsChunkingError(err) {
			t.Fatalf("%s: expected ChunkingError, got=%v", tc.name, err)
		}
	}
}

func TestParamsForBuckets(t *testing.T) {
	cases := []struct {
		length int
		want   Params
	}{
		{0, Params{600, 100}},
		{4999, Params{600, 100}},
		{5000, Params{1000, 150}},
		{19999, Params{1000, 150}},
		{20000, Params{1300, 150}},
		{50000, Params{1500, 200}},
		{100000, Params{1700, 200}},
		{900000, Params{1700, 200}},
	}
	for _, tc := range cases {
		if got := ParamsFor(DefaultBuckets, tc.length); got != tc.want {
			t.Fatalf("ParamsFor(%d): expected %+v, got=%+v", tc.length, tc.want, got)
		}
	}
}

func TestExtractTimestamp(t *testing.T) {
	if got := ExtractTimestamp("foo [1:02:03] bar [00:00:09]"); got != "1:02:03" {
		t.Fatalf("ExtractTimestamp: expected 1:02:03, got=%s", got)
	}
	if got := ExtractTimestamp("no marker"); got != "00:00:00" {
		t.Fatalf("ExtractTimestamp: expected default, got=%s", got)
	}
}
