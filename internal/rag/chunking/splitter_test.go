package chunking

import (
	"strings"
	"testing"
)

func TestSplitterRespectsChunkSize(t *testing.T) {
	text := strings.Repeat("alpha beta gamma, delta epsilon. ", 80)
	s := NewSplitter(Params{ChunkSize: 120, ChunkOverlap: 20}, nil)
	pieces := s.Split(text)
	if len(pieces) < 2 {
		t.Fatalf("Split: expected multiple pieces, got=%d", len(pieces))
	}
	for i, p := range pieces {
		if n := len(p); n > 120 {
			t.Fatalf("Split: piece %d has %d chars", i, n)
		}
	}
}

func TestSplitterCarriesOverlap(t *testing.T) {
	lines := []string{"aaaa aaaa", "bbbb bbbb", "cccc cccc", "dddd dddd", "eeee eeee"}
	text := strings.Join(lines, "\n")
	pieces := NewSplitter(Params{ChunkSize: 30, ChunkOverlap: 12}, nil).Split(text)
	if len(pieces) < 2 {
		t.Fatalf("Split: expected multiple pieces, got=%v", pieces)
	}
	for i := 1; i < len(pieces); i++ {
		prevLines := strings.Split(pieces[i-1], "\n")
		last := prevLines[len(prevLines)-1]
		if !strings.HasPrefix(pieces[i], last) {
			t.Fatalf("Split: piece %d does not start with overlap %q: %q", i, last, pieces[i])
		}
	}
}

func TestSplitterFallsBackToCharacters(t *testing.T) {
	text := strings.Repeat("x", 25)
	pieces := NewSplitter(Params{ChunkSize: 10, ChunkOverlap: 0}, nil).Split(text)
	if len(pieces) != 3 {
		t.Fatalf("Split: expected 3 pieces, got=%d (%v)", len(pieces), pieces)
	}
	if strings.Join(pieces, "") != text {
		t.Fatalf("Split: pieces do not reassemble input")
	}
}

func TestSplitterEmptyInput(t *testing.T) {
	if got := NewSplitter(Params{ChunkSize: 10}, nil).Split("   "); len(got) != 0 {
		t.Fatalf("Split: expected no pieces, got=%v", got)
	}
}
