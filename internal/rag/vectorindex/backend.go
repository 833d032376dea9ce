package vectorindex

import (
	"context"
)

// Metadata is stored alongside each vector. Text is truncated before write.
type Metadata struct {
	VideoID        string `json:"videoId"`
	VideoTitle     string `json:"videoTitle"`
	ChannelTitle   string `json:"channelTitle"`
	ChunkIndex     int    `json:"chunkIndex"`
	Timestamp      string `json:"timestamp"`
	IsContextChunk bool   `json:"isContextChunk"`
	Text           string `json:"text"`
	CreatedAt      string `json:"createdAt"`
}

type Record struct {
	ID       string
	Values   []float32
	Metadata Metadata
}

type Match struct {
	ID       string
	Score    float64
	Metadata Metadata
}

// Backend is a vector database restricted to what the pipeline needs.
// Query must apply videoID as a hard filter.
type Backend interface {
	Name() string
	Upsert(ctx context.Context, records []Record) error
	Query(ctx context.Context, vector []float32, videoID string, topK int) ([]Match, error)
	DeleteByVideo(ctx context.Context, videoID string) error
}
