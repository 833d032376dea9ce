package embeddings

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashProviderDeterministicAndNormalized(t *testing.T) {
	p := NewHashProvider(64)
	a, _ := p.Embed(context.Background(), []string{"Goroutines and channels"})
	b, _ := p.Embed(context.Background(), []string{"goroutines AND channels!"})
	if len(a[0]) != 64 {
		t.Fatalf("Embed: expected 64 dims, got=%d", len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("Embed: expected case/punctuation-insensitive output")
		}
	}
	var norm float64
	for _, v := range a[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("Embed: expected unit norm, got=%v", norm)
	}
}

func TestHashProviderSimilarity(t *testing.T) {
	p := NewHashProvider(384)
	vecs, _ := p.Embed(context.Background(), []string{
		"the speaker explains goroutines and channels",
		"how do goroutines and channels work",
		"a recipe for banana bread with walnuts",
	})
	if cosine(vecs[0], vecs[1]) <= cosine(vecs[0], vecs[2]) {
		t.Fatalf("Embed: expected related texts to be closer")
	}
}
