package testutil

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

// SeedTranscript inserts a transcript with the given segments. The index
// flag is left false.
func SeedTranscript(tb testing.TB, ctx context.Context, tx *gorm.DB, videoID, title string, segments []rag.Segment) *videos.Transcript {
	tb.Helper()
	tr := &videos.Transcript{
		VideoID:        videoID,
		Title:          title,
		ChannelTitle:   "Channel",
		Language:       "en",
		FullTranscript: rag.PlainText(segments),
	}
	if err := tr.SetSegments(segments); err != nil {
		tb.Fatalf("seed transcript segments: %v", err)
	}
	if err := tx.WithContext(ctx).Create(tr).Error; err != nil {
		tb.Fatalf("seed transcript: %v", err)
	}
	return tr
}

// MarkIndexed flips the index flag directly for the stored content.
func MarkIndexed(tb testing.TB, ctx context.Context, tx *gorm.DB, videoID string, chunks int) {
	tb.Helper()
	err := tx.WithContext(ctx).Model(&videos.Transcript{}).
		Where("video_id = ?", videoID).
		Updates(map[string]interface{}{
			"is_pinecone_indexed":  true,
			"is_chunked":           true,
			"chunk_count":          chunks,
			"indexed_content_hash": gorm.Expr("content_hash"),
		}).Error
	if err != nil {
		tb.Fatalf("mark indexed: %v", err)
	}
}
