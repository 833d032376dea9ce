package rag

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash fingerprints everything chunking reads: the metadata that
// feeds the context header and each segment's text and offset. Vectors
// built from one hash are stale for any other.
func ContentHash(video VideoMetadata, segments []Segment) string {
	d := xxhash.New()
	for _, s := range []string{video.VideoID, video.Title, video.ChannelTitle, video.Description} {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	for _, seg := range segments {
		_, _ = d.WriteString(strconv.FormatInt(seg.StartOffsetMs, 10))
		_, _ = d.Write([]byte{0x1f})
		_, _ = d.WriteString(seg.Text)
		_, _ = d.Write([]byte{0})
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
