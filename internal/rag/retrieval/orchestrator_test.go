package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/platform/logger"
	"github.com/Mohd-Murtaza/YouTube-Video-AI-Chatbot/internal/rag"
)

type fakeEmbedder struct {
	calls int
	err   error
	block bool
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, query string) (rag.Embedding, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, &rag.EmbeddingError{Op: "query", Err: ctx.Err()}
	}
	if f.err != nil {
		return nil, f.err
	}
	return rag.Embedding{1, 0, 0}, nil
}

type fakeSearcher struct {
	calls        int
	gotTopK      int
	gotThreshold float64
	results      []rag.RetrievalResult
	err          error
}

func (f *fakeSearcher) Search(ctx context.Context, q rag.Embedding, videoID string, topK int, threshold float64) ([]rag.RetrievalResult, error) {
	f.calls++
	f.gotTopK = topK
	f.gotThreshold = threshold
	if f.err != nil {
		return nil, f.err
	}
	var out []rag.RetrievalResult
	for _, r := range f.results {
		if r.Score >= threshold {
			out = append(out, r)
		}
	}
	return out, nil
}

const transcript = "[00:00:00] intro\n[00:00:05] the middle part\n[00:00:10] the end"

func newTestOrchestrator(e QueryEmbedder, s Searcher) *Orchestrator {
	return New(logger.NewNop(), e, s, DefaultConfig())
}

func TestBuildContextNotIndexedSkipsRetrieval(t *testing.T) {
	e, s := &fakeEmbedder{}, &fakeSearcher{}
	res := newTestOrchestrator(e, s).BuildContext(context.Background(), Request{
		VideoID: "vid", Query: "what happens?", TranscriptText: transcript, IsIndexed: false,
	})
	if e.calls != 0 || s.calls != 0 {
		t.Fatalf("BuildContext: expected zero embedder/index calls, got=%d/%d", e.calls, s.calls)
	}
	if res.UsedRetrieval || res.Reason != ReasonNotIndexed || res.Context != transcript {
		t.Fatalf("BuildContext: unexpected result %+v", res)
	}
}

func TestBuildContextOrdersResultsChronologically(t *testing.T) {
	s := &fakeSearcher{results: []rag.RetrievalResult{
		{ChunkIndex: 7, Timestamp: "00:12:30", Text: "late", Score: 0.9},
		{ChunkIndex: 1, Timestamp: "00:00:40", Text: "early", Score: 0.8},
		{ChunkIndex: 4, Timestamp: "00:05:00", Text: "middle", Score: 0.5},
	}}
	res := newTestOrchestrator(&fakeEmbedder{}, s).BuildContext(context.Background(), Request{
		VideoID: "vid", Query: "sequence?", TranscriptText: transcript, IsIndexed: true,
	})
	if !res.UsedRetrieval || res.Reason != "" {
		t.Fatalf("BuildContext: expected retrieval, got=%+v", res)
	}
	want := "[00:00:40] early\n\n[00:05:00] middle\n\n[00:12:30] late"
	if res.Context != want {
		t.Fatalf("BuildContext: expected %q, got=%q", want, res.Context)
	}
	if s.gotTopK != 3 || s.gotThreshold != 0.35 {
		t.Fatalf("BuildContext: expected topK=3 threshold=0.35, got=%d/%v", s.gotTopK, s.gotThreshold)
	}
	if strings.Contains(res.Context, "intro") {
		t.Fatalf("BuildContext: raw transcript mixed into retrieved context")
	}
}

func TestBuildContextFallsBackBelowThreshold(t *testing.T) {
	s := &fakeSearcher{results: []rag.RetrievalResult{{Timestamp: "00:00:05", Text: "weak", Score: 0.2}}}
	res := newTestOrchestrator(&fakeEmbedder{}, s).BuildContext(context.Background(), Request{
		VideoID: "vid", Query: "q", TranscriptText: transcript, IsIndexed: true,
	})
	if res.UsedRetrieval || res.Reason != ReasonBelowThreshold || res.Context != transcript {
		t.Fatalf("BuildContext: expected raw fallback after miss, got=%+v", res)
	}
}

func TestBuildContextFallsBackOnErrors(t *testing.T) {
	cases := []struct {
		name   string
		e      *fakeEmbedder
		s      *fakeSearcher
		reason string
	}{
		{"embedding", &fakeEmbedder{err: &rag.EmbeddingError{Op: "query", Err: errors.New("503")}}, &fakeSearcher{}, ReasonEmbeddingError},
		{"search", &fakeEmbedder{}, &fakeSearcher{err: &rag.VectorStoreError{Op: "query", Err: errors.New("down")}}, ReasonSearchError},
	}
	for _, tc := range cases {
		res := newTestOrchestrator(tc.e, tc.s).BuildContext(context.Background(), Request{
			VideoID: "vid", Query: "q", TranscriptText: transcript, IsIndexed: true,
		})
		if res.UsedRetrieval || res.Reason != tc.reason || res.Context != transcript {
			t.Fatalf("%s: expected fallback %q, got=%+v", tc.name, tc.reason, res)
		}
	}
}

func TestBuildContextTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	e := &fakeEmbedder{block: true}
	s := &fakeSearcher{}
	res := New(logger.NewNop(), e, s, cfg).BuildContext(context.Background(), Request{
		VideoID: "vid", Query: "q", TranscriptText: transcript, IsIndexed: true,
	})
	if res.UsedRetrieval || res.Reason != ReasonTimeout {
		t.Fatalf("BuildContext: expected timeout fallback, got=%+v", res)
	}
	if s.calls != 0 {
		t.Fatalf("BuildContext: search must not run after embed timeout")
	}
}

func TestRawContextTruncates(t *testing.T) {
	long := strings.Repeat("ab", 10)
	if got := RawContext(long, 5); got != "ababa"+TruncationMarker {
		t.Fatalf("RawContext: got=%q", got)
	}
	if got := RawContext("short", 15000); got != "short" {
		t.Fatalf("RawContext: expected untouched text, got=%q", got)
	}
}

func TestSortChronologicallyUnparseableLast(t *testing.T) {
	in := []rag.RetrievalResult{{Timestamp: "bogus"}, {Timestamp: "01:00:00"}, {Timestamp: "00:59:59"}}
	out := SortChronologically(in)
	if out[0].Timestamp != "00:59:59" || out[2].Timestamp != "bogus" {
		t.Fatalf("SortChronologically: got=%v", out)
	}
	if in[0].Timestamp != "bogus" {
		t.Fatalf("SortChronologically: input mutated")
	}
}
