package vectorindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/pinecone"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const (
	pineconeListLimit   = 100
	pineconeDeleteBatch = 1000
)

type PineconeConfig struct {
	IndexName string
	IndexHost string
	Namespace string
}

type PineconeBackend struct {
	log       *logger.Logger
	pc        pinecone.Client
	host      string
	namespace string
}

// NewPineconeBackend resolves the index host through describe_index when
// it is not configured.
func NewPineconeBackend(ctx context.Context, log *logger.Logger, pc pinecone.Client, cfg PineconeConfig) (*PineconeBackend, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	host := strings.TrimSpace(cfg.IndexHost)
	if host == "" {
		name := strings.TrimSpace(cfg.IndexName)
		if name == "" {
			return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
		}
		desc, err := pc.DescribeIndex(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = desc.Host
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index",
			"index_name", name,
			"index_host", host,
			"dimension", desc.Dimension,
		)
	}
	return &PineconeBackend{
		log:       log.With("service", "PineconeBackend"),
		pc:        pc,
		host:      host,
		namespace: strings.TrimSpace(cfg.Namespace),
	}, nil
}

func (b *PineconeBackend) Name() string { return "pinecone" }

func (b *PineconeBackend) Upsert(ctx context.Context, records []Record) error {
	vectors := make([]pinecone.Vector, len(records))
	for i, r := range records {
		vectors[i] = pinecone.Vector{ID: r.ID, Values: r.Values, Metadata: metadataToMap(r.Metadata)}
	}
	_, err := b.pc.UpsertVectors(ctx, b.host, pinecone.UpsertRequest{Vectors: vectors, Namespace: b.namespace})
	return err
}

func (b *PineconeBackend) Query(ctx context.Context, vector []float32, videoID string, topK int) ([]Match, error) {
	resp, err := b.pc.Query(ctx, b.host, pinecone.QueryRequest{
		Namespace:       b.namespace,
		Vector:          vector,
		TopK:            topK,
		Filter:          map[string]any{"videoId": map[string]any{"$eq": videoID}},
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, Match{ID: m.ID, Score: m.Score, Metadata: metadataFromMap(m.Metadata)})
	}
	return out, nil
}

// DeleteByVideo lists ids by the video's id prefix and deletes them in
// batches. Serverless indexes reject delete-by-filter.
func (b *PineconeBackend) DeleteByVideo(ctx context.Context, videoID string) error {
	prefix := rag.VectorIDPrefix(videoID)
	var pending []string
	token := ""
	for {
		page, err := b.pc.ListVectorIDs(ctx, b.host, pinecone.ListRequest{
			Prefix:          prefix,
			Namespace:       b.namespace,
			Limit:           pineconeListLimit,
			PaginationToken: token,
		})
		if err != nil {
			return err
		}
		pending = append(pending, page.IDs()...)
		for len(pending) >= pineconeDeleteBatch {
			if err := b.deleteIDs(ctx, pending[:pineconeDeleteBatch]); err != nil {
				return err
			}
			pending = pending[pineconeDeleteBatch:]
		}
		token = page.NextToken()
		if token == "" {
			break
		}
	}
	if len(pending) > 0 {
		return b.deleteIDs(ctx, pending)
	}
	return nil
}

func (b *PineconeBackend) deleteIDs(ctx context.Context, ids []string) error {
	b.log.Debug("Deleting vectors", "count", len(ids))
	return b.pc.DeleteVectors(ctx, b.host, pinecone.DeleteRequest{IDs: ids, Namespace: b.namespace})
}

func metadataToMap(md Metadata) map[string]any {
	return map[string]any{
		"videoId":        md.VideoID,
		"videoTitle":     md.VideoTitle,
		"channelTitle":   md.ChannelTitle,
		"chunkIndex":     md.ChunkIndex,
		"timestamp":      md.Timestamp,
		"isContextChunk": md.IsContextChunk,
		"text":           md.Text,
		"createdAt":      md.CreatedAt,
	}
}

func metadataFromMap(m map[string]any) Metadata {
	md := Metadata{
		VideoID:      stringField(m, "videoId"),
		VideoTitle:   stringField(m, "videoTitle"),
		ChannelTitle: stringField(m, "channelTitle"),
		Timestamp:    stringField(m, "timestamp"),
		Text:         stringField(m, "text"),
		CreatedAt:    stringField(m, "createdAt"),
	}
	switch v := m["chunkIndex"].(type) {
	case float64:
		md.ChunkIndex = int(v)
	case int:
		md.ChunkIndex = v
	}
	if v, ok := m["isContextChunk"].(bool); ok {
		md.IsContextChunk = v
	}
	return md
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
