package sam

import (
	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/sam"
)

// RefChunk holds the BAM index chunks of an interval of a reference.
type RefChunk struct {
	Ref        *sam.Reference
	Start, End int
	Chunks     []bgzf.Chunk
}

// NewRefChunk returns a new RefChunk instance.
func NewRefChunk(ref *sam.Reference, start, end int, chunks []bgzf.Chunk) *RefChunk {
	return &RefChunk{ref, start, end, chunks}
}

// Empty returns true if no index chunk overlaps the interval.
func (c *RefChunk) Empty() bool {
	return len(c.Chunks) == 0
}
