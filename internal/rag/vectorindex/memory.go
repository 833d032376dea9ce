package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryBackend is an exact brute-force cosine index held in process.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string]Record{}}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Upsert(ctx context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.Values = append([]float32(nil), r.Values...)
		m.records[r.ID] = r
	}
	return nil
}

func (m *MemoryBackend) Query(ctx context.Context, vector []float32, videoID string, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Match, 0)
	for _, r := range m.records {
		if r.Metadata.VideoID != videoID {
			continue
		}
		out = append(out, Match{ID: r.ID, Score: cosineSimilarity(vector, r.Values), Metadata: r.Metadata})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (m *MemoryBackend) DeleteByVideo(ctx context.Context, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.records {
		if r.Metadata.VideoID == videoID {
			delete(m.records, id)
		}
	}
	return nil
}

// Len reports the number of stored vectors.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
