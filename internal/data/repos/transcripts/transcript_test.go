package transcripts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/data/repos/testutil"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/domain/videos"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

func seed(t *testing.T, repo TranscriptRepo, videoID, title string) *videos.Transcript {
	t.Helper()
	tr := &videos.Transcript{VideoID: videoID, Title: title, FullTranscript: "hello world"}
	if err := tr.SetSegments([]rag.Segment{{Text: "hello world", Timestamp: "00:00:00"}}); err != nil {
		t.Fatalf("SetSegments: %v", err)
	}
	out, err := repo.Upsert(context.Background(), nil, tr)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	return out
}

func TestTranscriptRepoUpsertAndGet(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	got, err := repo.GetByVideoID(ctx, nil, "missing0001")
	if err != nil || got != nil {
		t.Fatalf("GetByVideoID: expected nil for missing, got=%v err=%v", got, err)
	}

	first := seed(t, repo, "vid12345678", "First")
	if first.ChannelTitle != videos.DefaultChannelTitle || first.Language != videos.DefaultLanguage {
		t.Fatalf("Upsert: expected defaults, got channel=%q lang=%q", first.ChannelTitle, first.Language)
	}

	second := seed(t, repo, "vid12345678", "Second")
	if second.ID != first.ID {
		t.Fatalf("Upsert: expected same row, got ids %s and %s", first.ID, second.ID)
	}
	if second.Title != "Second" {
		t.Fatalf("Upsert: expected updated title, got=%q", second.Title)
	}
}

func TestTranscriptRepoIndexFlag(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()
	seed(t, repo, "vid12345678", "Talk")

	ok, err := repo.IsIndexed(ctx, nil, "vid12345678")
	if err != nil || ok {
		t.Fatalf("IsIndexed: expected false, got=%v err=%v", ok, err)
	}
	if err := repo.MarkIndexed(ctx, nil, "vid12345678", IndexInfo{ChunkCount: 7, EmbeddingModel: "m", RunID: "run-1"}); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	ok, _ = repo.IsIndexed(ctx, nil, "vid12345678")
	if !ok {
		t.Fatalf("IsIndexed: expected true after MarkIndexed")
	}
	tr, _ := repo.GetByVideoID(ctx, nil, "vid12345678")
	if tr.ChunkCount != 7 || tr.IndexingRunID != "run-1" || tr.IndexedAt == nil || !tr.IsChunked {
		t.Fatalf("MarkIndexed: unexpected row %+v", tr)
	}

	// Re-ingesting resets the flag.
	seed(t, repo, "vid12345678", "Talk v2")
	ok, _ = repo.IsIndexed(ctx, nil, "vid12345678")
	if ok {
		t.Fatalf("Upsert: expected flag reset on new content")
	}

	if err := repo.MarkIndexed(ctx, nil, "vid12345678", IndexInfo{ChunkCount: 3}); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	if err := repo.ClearIndexed(ctx, nil, "vid12345678"); err != nil {
		t.Fatalf("ClearIndexed: %v", err)
	}
	ok, _ = repo.IsIndexed(ctx, nil, "vid12345678")
	if ok {
		t.Fatalf("ClearIndexed: expected false")
	}

	ok, err = repo.IsIndexed(ctx, nil, "missing0001")
	if err != nil || ok {
		t.Fatalf("IsIndexed: expected false for missing video, got=%v err=%v", ok, err)
	}
}

func TestTranscriptRepoFailureAndAccess(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()
	seed(t, repo, "vid12345678", "Talk")

	if err := repo.RecordIndexFailure(ctx, nil, "vid12345678", "run-9", "boom"); err != nil {
		t.Fatalf("RecordIndexFailure: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := repo.RecordAccess(ctx, nil, "vid12345678"); err != nil {
			t.Fatalf("RecordAccess: %v", err)
		}
	}
	tr, _ := repo.GetByVideoID(ctx, nil, "vid12345678")
	if tr.LastIndexError != "boom" || tr.IndexingRunID != "run-9" {
		t.Fatalf("RecordIndexFailure: unexpected row %+v", tr)
	}
	if tr.AccessCount != 2 || tr.LastAccessedAt == nil {
		t.Fatalf("RecordAccess: expected count 2, got=%d", tr.AccessCount)
	}
	if err := repo.RecordAccess(ctx, nil, "missing0001"); err == nil {
		t.Fatalf("RecordAccess: expected error for missing video")
	}
}

func TestTranscriptRepoListUnindexed(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()
	seed(t, repo, "vidAAAAAAAA", "A")
	seed(t, repo, "vidBBBBBBBB", "B")
	if err := repo.MarkIndexed(ctx, nil, "vidAAAAAAAA", IndexInfo{ChunkCount: 1}); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	ids, err := repo.ListUnindexed(ctx, nil, 10)
	if err != nil {
		t.Fatalf("ListUnindexed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "vidBBBBBBBB" {
		t.Fatalf("ListUnindexed: expected [vidBBBBBBBB], got=%v", ids)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestFlagStoreDelegates(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	flags := NewFlagStore(repo)
	ctx := context.Background()
	stored := seed(t, repo, "vid12345678", "Talk")

	if err := flags.MarkIndexed(ctx, "vid12345678", 4, "hash-bow", "run-2", stored.ContentHash); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	ok, err := flags.IsIndexed(ctx, "vid12345678", stored.ContentHash)
	if err != nil || !ok {
		t.Fatalf("IsIndexed: expected true, got=%v err=%v", ok, err)
	}
	if ok, _ := flags.IsIndexed(ctx, "vid12345678", "other-content"); ok {
		t.Fatalf("IsIndexed: expected false for a different fingerprint")
	}
	tr, _ := repo.GetByVideoID(ctx, nil, "vid12345678")
	if tr.EmbeddingModel != "hash-bow" || tr.ChunkCount != 4 {
		t.Fatalf("MarkIndexed: unexpected row %+v", tr)
	}
}

func TestTranscriptRepoWithinTx(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewTranscriptRepo(db, testutil.Logger(t))
	tx := testutil.Tx(t, db)

	segs := []rag.Segment{{Text: "intro", StartOffsetMs: 0}, {Text: "body", StartOffsetMs: 5000}}
	testutil.SeedTranscript(t, ctx, tx, "vidTXTXTXTX", "In tx", segs)
	testutil.SeedTranscript(t, ctx, tx, "vidDONEDONE", "Done", segs)
	testutil.MarkIndexed(t, ctx, tx, "vidDONEDONE", 2)

	ids, err := repo.ListUnindexed(ctx, tx, 10)
	if err != nil {
		t.Fatalf("ListUnindexed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "vidTXTXTXTX" {
		t.Fatalf("ListUnindexed: expected [vidTXTXTXTX], got=%v", ids)
	}
	ok, err := repo.IsIndexed(ctx, tx, "vidDONEDONE")
	if err != nil || !ok {
		t.Fatalf("IsIndexed: expected true, got=%v err=%v", ok, err)
	}
	got, err := repo.GetByVideoID(ctx, tx, "vidTXTXTXTX")
	if err != nil || got == nil {
		t.Fatalf("GetByVideoID: expected row, got=%v err=%v", got, err)
	}
	if got.FullTranscript != "intro body" {
		t.Fatalf("FullTranscript: expected %q, got=%q", "intro body", got.FullTranscript)
	}
}

func TestTranscriptRepoMarkIndexedRejectsStaleContent(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()
	first := seed(t, repo, "vid12345678", "Talk")
	if first.ContentHash == "" {
		t.Fatalf("Upsert: expected content hash to be stored")
	}
	if err := repo.MarkIndexed(ctx, nil, "vid12345678", IndexInfo{ChunkCount: 2, ContentHash: first.ContentHash}); err != nil {
		t.Fatalf("MarkIndexed: %v", err)
	}
	tr, _ := repo.GetByVideoID(ctx, nil, "vid12345678")
	if !tr.IndexCurrent() {
		t.Fatalf("MarkIndexed: expected current index, got=%+v", tr)
	}

	// New content lands while a run for the old content is still going.
	second := seed(t, repo, "vid12345678", "Talk v2")
	if second.ContentHash == first.ContentHash || second.IndexedHash != "" || second.IsPineconeIndexed {
		t.Fatalf("Upsert: expected new hash and reset index state, got=%+v", second)
	}
	err := repo.MarkIndexed(ctx, nil, "vid12345678", IndexInfo{ChunkCount: 2, ContentHash: first.ContentHash})
	if !errors.Is(err, rag.ErrStaleContent) {
		t.Fatalf("MarkIndexed: expected stale content error, got=%v", err)
	}
	ok, err := repo.IsIndexedWith(ctx, nil, "vid12345678", first.ContentHash)
	if err != nil || ok {
		t.Fatalf("IsIndexedWith: expected stale mark ignored, got=%v err=%v", ok, err)
	}
	if ok, _ := repo.IsIndexed(ctx, nil, "vid12345678"); ok {
		t.Fatalf("IsIndexed: expected flag to stay down")
	}

	err = repo.MarkIndexed(ctx, nil, "missing0001", IndexInfo{ContentHash: first.ContentHash})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("MarkIndexed: expected not found for missing video, got=%v", err)
	}
}

func TestTranscriptRepoFailureMessageKeepsRunes(t *testing.T) {
	repo := NewTranscriptRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()
	seed(t, repo, "vid12345678", "Talk")

	message := strings.Repeat("é", 1999) + "日本語"
	if err := repo.RecordIndexFailure(ctx, nil, "vid12345678", "run-1", message); err != nil {
		t.Fatalf("RecordIndexFailure: %v", err)
	}
	tr, _ := repo.GetByVideoID(ctx, nil, "vid12345678")
	if !utf8.ValidString(tr.LastIndexError) {
		t.Fatalf("RecordIndexFailure: stored message is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(tr.LastIndexError); n != maxIndexErrorRunes {
		t.Fatalf("RecordIndexFailure: expected %d runes, got=%d", maxIndexErrorRunes, n)
	}
	if !strings.HasSuffix(tr.LastIndexError, "é日") {
		t.Fatalf("RecordIndexFailure: expected cut after a whole rune, got suffix %q", tr.LastIndexError[len(tr.LastIndexError)-8:])
	}
	if got := truncateRunes("short", maxIndexErrorRunes); got != "short" {
		t.Fatalf("truncateRunes: expected untouched, got=%q", got)
	}
}
