package chunking

// Params controls one splitting run. Sizes are measured in characters (runes).
type Params struct {
	ChunkSize    int
	ChunkOverlap int
}

// Bucket applies to full texts shorter than Below; Below == 0 means no upper bound.
type Bucket struct {
	Below  int
	Params Params
}

// DefaultBuckets: short videos get small chunks for precision, long videos
// get larger ones so the chunk count stays bounded.
var DefaultBuckets = []Bucket{
	{Below: 5000, Params: Params{ChunkSize: 600, ChunkOverlap: 100}},
	{Below: 20000, Params: Params{ChunkSize: 1000, ChunkOverlap: 150}},
	{Below: 50000, Params: Params{ChunkSize: 1300, ChunkOverlap: 150}},
	{Below: 100000, Params: Params{ChunkSize: 1500, ChunkOverlap: 200}},
	{Below: 0, Params: Params{ChunkSize: 1700, ChunkOverlap: 200}},
}

// ParamsFor picks the first bucket whose bound exceeds totalLength.
func ParamsFor(buckets []Bucket, totalLength int) Params {
	if len(buckets) == 0 {
		buckets = DefaultBuckets
	}
	for _, b := range buckets {
		if b.Below <= 0 || totalLength < b.Below {
			return b.Params
		}
	}
	return buckets[len(buckets)-1].Params
}

// DefaultSeparators in priority order: paragraphs, lines, sentences,
// clauses, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " ", ""}
