package vectorindex

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/observability"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

const testDims = 4

type countingBackend struct {
	*MemoryBackend
	upserts  int
	queries  int
	queryErr error
}

func newCountingBackend() *countingBackend {
	return &countingBackend{MemoryBackend: NewMemoryBackend()}
}

func (b *countingBackend) Upsert(ctx context.Context, records []Record) error {
	b.upserts++
	return b.MemoryBackend.Upsert(ctx, records)
}

func (b *countingBackend) Query(ctx context.Context, vector []float32, videoID string, topK int) ([]Match, error) {
	b.queries++
	if b.queryErr != nil {
		return nil, b.queryErr
	}
	return b.MemoryBackend.Query(ctx, vector, videoID, topK)
}

func newTestIndex(t *testing.T, b Backend) *Index {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Dimensions = testDims
	x, err := New(logger.NewNop(), b, cfg, WithSleep(func(context.Context, time.Duration) error { return nil }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return x
}

func unit(i int) rag.Embedding {
	v := make(rag.Embedding, testDims)
	v[i%testDims] = 1
	return v
}

// scored returns a unit vector whose cosine with unit(0) is s.
func scored(s float64) rag.Embedding {
	return rag.Embedding{float32(s), float32(math.Sqrt(1 - s*s)), 0, 0}
}

func testChunks(videoID string, n int) []rag.Chunk {
	out := make([]rag.Chunk, n)
	for i := range out {
		out[i] = rag.Chunk{
			Text: "chunk text",
			Metadata: rag.ChunkMetadata{
				VideoID:     videoID,
				VideoTitle:  "Title",
				ChunkIndex:  i,
				Timestamp:   rag.FormatTimestamp(int64(i) * 60000),
				TotalChunks: n,
			},
		}
	}
	return out
}

func testEmbeddings(n int) []rag.Embedding {
	out := make([]rag.Embedding, n)
	for i := range out {
		out[i] = unit(i)
	}
	return out
}

func TestUpsertDimensionMismatchWritesNothing(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)

	_, err := x.UpsertChunks(context.Background(), testChunks("vid", 5), testEmbeddings(4))
	var dm *rag.DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("UpsertChunks: expected DimensionMismatchError, got=%v", err)
	}
	if dm.Expected != 5 || dm.Got != 4 {
		t.Fatalf("UpsertChunks: expected 5/4, got=%d/%d", dm.Expected, dm.Got)
	}
	if b.upserts != 0 || b.Len() != 0 {
		t.Fatalf("UpsertChunks: expected zero writes, got upserts=%d stored=%d", b.upserts, b.Len())
	}
}

func TestUpsertRejectsWrongVectorDimensions(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	embs := testEmbeddings(3)
	embs[2] = rag.Embedding{1, 0}

	if _, err := x.UpsertChunks(context.Background(), testChunks("vid", 3), embs); !rag.IsDimensionMismatch(err) {
		t.Fatalf("UpsertChunks: expected DimensionMismatchError, got=%v", err)
	}
	if b.upserts != 0 {
		t.Fatalf("UpsertChunks: expected zero writes, got=%d", b.upserts)
	}
}

func TestUpsertIsIdempotent(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	chunks, embs := testChunks("vid", 6), testEmbeddings(6)

	res, err := x.UpsertChunks(context.Background(), chunks, embs)
	if err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}
	if res.UpsertedCount != 6 || res.VideoID != "vid" {
		t.Fatalf("UpsertChunks: unexpected result %+v", res)
	}
	if _, err := x.UpsertChunks(context.Background(), chunks, embs); err != nil {
		t.Fatalf("UpsertChunks (again): %v", err)
	}
	if b.Len() != 6 {
		t.Fatalf("UpsertChunks: expected 6 stored vectors after re-upsert, got=%d", b.Len())
	}
}

func TestUpsertBatchesAndTruncatesText(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	chunks := testChunks("vid", 250)
	chunks[0].Text = strings.Repeat("é", MaxMetadataTextChars+50)

	if _, err := x.UpsertChunks(context.Background(), chunks, testEmbeddings(250)); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}
	if b.upserts != 3 {
		t.Fatalf("UpsertChunks: expected 3 batches, got=%d", b.upserts)
	}
	rec := b.records[rag.VectorID("vid", 0)]
	if n := len([]rune(rec.Metadata.Text)); n != MaxMetadataTextChars {
		t.Fatalf("UpsertChunks: expected text truncated to %d runes, got=%d", MaxMetadataTextChars, n)
	}
}

func TestSearchBelowThresholdIsEmpty(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	if _, err := x.UpsertChunks(context.Background(), testChunks("vid", 1), []rag.Embedding{unit(0)}); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}

	res, err := x.Search(context.Background(), scored(0.2), "vid", 3, 0.35)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 0 {
		t.Fatalf("Search: expected no results for 0.2 < 0.35, got=%v", res)
	}
}

func TestSearchThresholdMonotonic(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	chunks := testChunks("vid", 4)
	embs := []rag.Embedding{scored(0.9), scored(0.6), scored(0.4), scored(0.1)}
	if _, err := x.UpsertChunks(context.Background(), chunks, embs); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}

	prev := math.MaxInt
	for _, th := range []float64{0, 0.2, 0.35, 0.5, 0.7, 0.95} {
		res, err := x.Search(context.Background(), unit(0), "vid", 4, th)
		if err != nil {
			t.Fatalf("Search(%v): %v", th, err)
		}
		if len(res) > prev {
			t.Fatalf("Search: raising threshold to %v increased results %d -> %d", th, prev, len(res))
		}
		for i := 1; i < len(res); i++ {
			if res[i].Score > res[i-1].Score {
				t.Fatalf("Search: results not in descending score order")
			}
		}
		prev = len(res)
	}
}

func TestSearchFiltersByVideo(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	if _, err := x.UpsertChunks(context.Background(), testChunks("a", 2), testEmbeddings(2)); err != nil {
		t.Fatalf("UpsertChunks(a): %v", err)
	}
	if _, err := x.UpsertChunks(context.Background(), testChunks("b", 2), testEmbeddings(2)); err != nil {
		t.Fatalf("UpsertChunks(b): %v", err)
	}

	res, err := x.Search(context.Background(), unit(0), "b", 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("Search: expected 2 results for video b, got=%d", len(res))
	}
	if res[0].Score != 1 || res[0].ChunkIndex != 0 || res[0].VideoTitle != "Title" {
		t.Fatalf("Search: unexpected top result %+v", res[0])
	}
}

func TestSearchWrapsBackendErrors(t *testing.T) {
	b := newCountingBackend()
	b.queryErr = errors.New("connection refused")
	x := newTestIndex(t, b)

	_, err := x.Search(context.Background(), unit(0), "vid", 3, 0.35)
	if !rag.IsVectorStoreError(err) {
		t.Fatalf("Search: expected VectorStoreError, got=%v", err)
	}
	if _, err := x.Search(context.Background(), rag.Embedding{1}, "vid", 3, 0.35); !rag.IsDimensionMismatch(err) {
		t.Fatalf("Search: expected DimensionMismatchError for short query, got=%v", err)
	}
}

func TestExistsAndDeleteAll(t *testing.T) {
	b := newCountingBackend()
	x := newTestIndex(t, b)
	ctx := context.Background()

	if ok, err := x.Exists(ctx, "vid"); err != nil || ok {
		t.Fatalf("Exists: expected false before upsert, got=%v err=%v", ok, err)
	}
	if _, err := x.UpsertChunks(ctx, testChunks("vid", 3), testEmbeddings(3)); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}
	if _, err := x.UpsertChunks(ctx, testChunks("other", 1), testEmbeddings(1)); err != nil {
		t.Fatalf("UpsertChunks: %v", err)
	}
	if ok, err := x.Exists(ctx, "vid"); err != nil || !ok {
		t.Fatalf("Exists: expected true after upsert, got=%v err=%v", ok, err)
	}
	if err := x.DeleteAll(ctx, "vid"); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if ok, _ := x.Exists(ctx, "vid"); ok {
		t.Fatalf("Exists: expected false after DeleteAll")
	}
	if b.Len() != 1 {
		t.Fatalf("DeleteAll: expected other video untouched, stored=%d", b.Len())
	}
}

func TestInstrumentCountsOperations(t *testing.T) {
	m := observability.New()
	x := newTestIndex(t, Instrument(NewMemoryBackend(), m))
	if _, err := x.Search(context.Background(), unit(0), "vid", 3, 0.35); err != nil {
		t.Fatalf("Search: %v", err)
	}
	var buf strings.Builder
	_ = m.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), `vc_vector_store_ops_total{provider="memory",op="query",status="success"} 1`) {
		t.Fatalf("Instrument: expected query counted, got:\n%s", buf.String())
	}
}
