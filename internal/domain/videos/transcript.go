package videos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const (
	DefaultChannelTitle = "Unknown"
	DefaultLanguage     = "en"
)

type Transcript struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VideoID string    `gorm:"column:video_id;type:varchar(32);not null;uniqueIndex" json:"videoId"`

	Title        string `gorm:"column:title;type:text;not null" json:"title"`
	ChannelTitle string `gorm:"column:channel_title;type:text;not null;default:'Unknown'" json:"channelTitle"`
	Description  string `gorm:"column:description;type:text" json:"description"`
	Thumbnail    string `gorm:"column:thumbnail;type:text" json:"thumbnail,omitempty"`
	Duration     string `gorm:"column:duration;type:text" json:"duration,omitempty"`
	Language     string `gorm:"column:language;type:varchar(16);not null;default:'en'" json:"language"`
	Source       string `gorm:"column:source;type:varchar(64)" json:"source,omitempty"`

	// Plain text of all segments joined by spaces.
	FullTranscript string         `gorm:"column:full_transcript;type:text;not null" json:"fullTranscript"`
	Segments       datatypes.JSON `gorm:"column:segments" json:"segments"`
	// ContentHash is rag.ContentHash of the stored content; IndexedHash is
	// the hash the current vectors were built from.
	ContentHash string `gorm:"column:content_hash;type:varchar(32)" json:"-"`
	IndexedHash string `gorm:"column:indexed_content_hash;type:varchar(32)" json:"-"`

	IsChunked         bool       `gorm:"column:is_chunked;not null;default:false" json:"isChunked"`
	IsPineconeIndexed bool       `gorm:"column:is_pinecone_indexed;not null;default:false;index" json:"isPineconeIndexed"`
	ChunkCount        int        `gorm:"column:chunk_count;not null;default:0" json:"chunkCount"`
	EmbeddingModel    string     `gorm:"column:embedding_model;type:text" json:"embeddingModel,omitempty"`
	IndexedAt         *time.Time `gorm:"column:indexed_at" json:"indexedAt,omitempty"`
	IndexingRunID     string     `gorm:"column:indexing_run_id;type:varchar(64)" json:"indexingRunId,omitempty"`
	LastIndexError    string     `gorm:"column:last_index_error;type:text" json:"lastIndexError,omitempty"`

	AccessCount    int64      `gorm:"column:access_count;not null;default:0" json:"accessCount"`
	LastAccessedAt *time.Time `gorm:"column:last_accessed_at" json:"lastAccessedAt,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Transcript) TableName() string { return "transcript" }

func (t *Transcript) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.ChannelTitle == "" {
		t.ChannelTitle = DefaultChannelTitle
	}
	if t.Language == "" {
		t.Language = DefaultLanguage
	}
	hash, err := t.Fingerprint()
	if err != nil {
		return err
	}
	t.ContentHash = hash
	return nil
}

// Fingerprint hashes the content the indexer would chunk.
func (t *Transcript) Fingerprint() (string, error) {
	segments, err := t.DecodeSegments()
	if err != nil {
		return "", err
	}
	return rag.ContentHash(t.Video(), segments), nil
}

// IndexCurrent reports whether the vectors match the stored content.
func (t *Transcript) IndexCurrent() bool {
	return t.IsPineconeIndexed && t.IndexedHash != "" && t.IndexedHash == t.ContentHash
}

func (t *Transcript) SetSegments(segments []rag.Segment) error {
	raw, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	t.Segments = datatypes.JSON(raw)
	return nil
}

func (t *Transcript) DecodeSegments() ([]rag.Segment, error) {
	if len(t.Segments) == 0 {
		return nil, nil
	}
	var out []rag.Segment
	if err := json.Unmarshal(t.Segments, &out); err != nil {
		return nil, fmt.Errorf("decode segments for %s: %w", t.VideoID, err)
	}
	return out, nil
}

func (t *Transcript) Video() rag.VideoMetadata {
	return rag.VideoMetadata{
		VideoID:      t.VideoID,
		Title:        t.Title,
		ChannelTitle: t.ChannelTitle,
		Description:  t.Description,
	}
}
