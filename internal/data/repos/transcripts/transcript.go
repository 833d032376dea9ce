package transcripts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

// IndexInfo is recorded alongside the indexed flag after a successful run.
type IndexInfo struct {
	ChunkCount     int
	EmbeddingModel string
	RunID          string
	// ContentHash is the fingerprint the run indexed. When set, the mark only
	// lands if the stored content still has that fingerprint.
	ContentHash string
}

type TranscriptRepo interface {
	// GetByVideoID returns nil, nil when no transcript exists.
	GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (*videos.Transcript, error)
	// Upsert inserts or replaces the transcript content and resets the
	// indexing state so the new content gets indexed.
	Upsert(ctx context.Context, tx *gorm.DB, t *videos.Transcript) (*videos.Transcript, error)
	IsIndexed(ctx context.Context, tx *gorm.DB, videoID string) (bool, error)
	// IsIndexedWith reports whether the flag is set for exactly the content
	// fingerprinted by contentHash.
	IsIndexedWith(ctx context.Context, tx *gorm.DB, videoID, contentHash string) (bool, error)
	// MarkIndexed returns rag.ErrStaleContent when info.ContentHash no longer
	// matches the stored content.
	MarkIndexed(ctx context.Context, tx *gorm.DB, videoID string, info IndexInfo) error
	ClearIndexed(ctx context.Context, tx *gorm.DB, videoID string) error
	RecordIndexFailure(ctx context.Context, tx *gorm.DB, videoID, runID, message string) error
	RecordAccess(ctx context.Context, tx *gorm.DB, videoID string) error
	ListUnindexed(ctx context.Context, tx *gorm.DB, limit int) ([]string, error)
	Ping(ctx context.Context) error
}

type transcriptRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewTranscriptRepo(db *gorm.DB, baseLog *logger.Logger) TranscriptRepo {
	if baseLog == nil {
		baseLog = logger.NewNop()
	}
	return &transcriptRepo{
		db:  db,
		log: baseLog.With("repo", "TranscriptRepo"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *transcriptRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *transcriptRepo) GetByVideoID(ctx context.Context, tx *gorm.DB, videoID string) (*videos.Transcript, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, fmt.Errorf("missing video id")
	}
	var out videos.Transcript
	err := r.tx(tx).WithContext(ctx).
		Where("video_id = ?", videoID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *transcriptRepo) Upsert(ctx context.Context, tx *gorm.DB, t *videos.Transcript) (*videos.Transcript, error) {
	if t == nil || strings.TrimSpace(t.VideoID) == "" {
		return nil, fmt.Errorf("missing video id")
	}
	t.IsChunked = false
	t.IsPineconeIndexed = false
	t.ChunkCount = 0
	t.IndexedAt = nil
	t.IndexingRunID = ""
	t.IndexedHash = ""

	err := r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title",
				"channel_title",
				"description",
				"thumbnail",
				"duration",
				"language",
				"source",
				"full_transcript",
				"segments",
				"content_hash",
				"indexed_content_hash",
				"is_chunked",
				"is_pinecone_indexed",
				"chunk_count",
				"indexed_at",
				"indexing_run_id",
				"updated_at",
			}),
		}).
		Create(t).Error
	if err != nil {
		return nil, err
	}
	// On conflict the returned ID is not the stored one; reload.
	return r.GetByVideoID(ctx, tx, t.VideoID)
}

func (r *transcriptRepo) IsIndexed(ctx context.Context, tx *gorm.DB, videoID string) (bool, error) {
	var rows []bool
	err := r.tx(tx).WithContext(ctx).
		Model(&videos.Transcript{}).
		Where("video_id = ?", videoID).
		Limit(1).
		Pluck("is_pinecone_indexed", &rows).Error
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && rows[0], nil
}

func (r *transcriptRepo) IsIndexedWith(ctx context.Context, tx *gorm.DB, videoID, contentHash string) (bool, error) {
	if contentHash == "" {
		return false, nil
	}
	var n int64
	err := r.tx(tx).WithContext(ctx).
		Model(&videos.Transcript{}).
		Where("video_id = ? AND is_pinecone_indexed = ? AND indexed_content_hash = ?", videoID, true, contentHash).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *transcriptRepo) MarkIndexed(ctx context.Context, tx *gorm.DB, videoID string, info IndexInfo) error {
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("missing video id")
	}
	now := r.now()
	q := r.tx(tx).WithContext(ctx).
		Model(&videos.Transcript{}).
		Where("video_id = ?", videoID)
	if info.ContentHash != "" {
		q = q.Where("(content_hash = ? OR content_hash = '')", info.ContentHash)
	}
	res := q.Updates(map[string]interface{}{
		"is_chunked":           true,
		"is_pinecone_indexed":  true,
		"chunk_count":          info.ChunkCount,
		"embedding_model":      info.EmbeddingModel,
		"indexing_run_id":      info.RunID,
		"indexed_content_hash": info.ContentHash,
		"indexed_at":           &now,
		"last_index_error":     "",
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	tr, err := r.GetByVideoID(ctx, tx, videoID)
	if err != nil {
		return err
	}
	if tr == nil {
		return fmt.Errorf("transcript %s: %w", videoID, gorm.ErrRecordNotFound)
	}
	return fmt.Errorf("transcript %s: %w", videoID, rag.ErrStaleContent)
}

func (r *transcriptRepo) ClearIndexed(ctx context.Context, tx *gorm.DB, videoID string) error {
	return r.update(ctx, tx, videoID, map[string]interface{}{
		"is_chunked":           false,
		"is_pinecone_indexed":  false,
		"chunk_count":          0,
		"indexed_content_hash": "",
		"indexed_at":           nil,
	})
}

func (r *transcriptRepo) RecordIndexFailure(ctx context.Context, tx *gorm.DB, videoID, runID, message string) error {
	message = truncateRunes(message, maxIndexErrorRunes)
	return r.update(ctx, tx, videoID, map[string]interface{}{
		"indexing_run_id":  runID,
		"last_index_error": message,
	})
}

func (r *transcriptRepo) RecordAccess(ctx context.Context, tx *gorm.DB, videoID string) error {
	now := r.now()
	return r.update(ctx, tx, videoID, map[string]interface{}{
		"access_count":     gorm.Expr("access_count + 1"),
		"last_accessed_at": &now,
	})
}

func (r *transcriptRepo) ListUnindexed(ctx context.Context, tx *gorm.DB, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	var ids []string
	err := r.tx(tx).WithContext(ctx).
		Model(&videos.Transcript{}).
		Where("is_pinecone_indexed = ?", false).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("video_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *transcriptRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *transcriptRepo) update(ctx context.Context, tx *gorm.DB, videoID string, updates map[string]interface{}) error {
	if strings.TrimSpace(videoID) == "" {
		return fmt.Errorf("missing video id")
	}
	res := r.tx(tx).WithContext(ctx).
		Model(&videos.Transcript{}).
		Where("video_id = ?", videoID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transcript %s: %w", videoID, gorm.ErrRecordNotFound)
	}
	return nil
}

const maxIndexErrorRunes = 2000

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
