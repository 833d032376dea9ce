package chunking

import (
	"strings"
	"unicode/utf8"
)

// Splitter is a recursive character splitter. Separators are kept at the
// start of the piece that follows them, and adjacent pieces are merged back
// up to ChunkSize with up to ChunkOverlap characters carried over.
type Splitter struct {
	Params     Params
	Separators []string
}

func NewSplitter(p Params, separators []string) *Splitter {
	if len(separators) == 0 {
		separators = DefaultSeparators
	}
	if p.ChunkOverlap >= p.ChunkSize {
		p.ChunkOverlap = p.ChunkSize / 2
	}
	if p.ChunkOverlap < 0 {
		p.ChunkOverlap = 0
	}
	return &Splitter{Params: p, Separators: separators}
}

func (s *Splitter) Split(text string) []string {
	if s.Params.ChunkSize <= 0 {
		t := strings.TrimSpace(text)
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	var final []string

	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var good []string
	for _, piece := range splitKeepingSeparator(text, separator) {
		if length(piece) < s.Params.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

func (s *Splitter) merge(pieces []string) []string {
	size, overlap := s.Params.ChunkSize, s.Params.ChunkOverlap

	var docs []string
	var current []string
	total := 0
	for _, p := range pieces {
		n := length(p)
		if total+n > size && len(current) > 0 {
			if doc := join(current); doc != "" {
				docs = append(docs, doc)
			}
			for total > overlap || (total+n > size && total > 0) {
				total -= length(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := join(current); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = separator + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func length(s string) int { return utf8.RuneCountInString(s) }
