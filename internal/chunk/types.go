// Package chunk splits file contents into line-addressable chunks for
// embedding. Splitting strategies are coarse boundary heuristics per
// language (top-level declaration keywords, blank lines, newlines), not
// syntax-aware parsing.
package chunk

import (
	"fmt"
)

// IDSeparator joins the path and line-range parts of a chunk id. "::" is
// not valid inside a repository-relative path, so ids parse unambiguously.
const IDSeparator = "::"

// Chunk is one indexing unit: a contiguous slice of a file's text with
// 1-based inclusive line bounds.
type Chunk struct {
	// FilePath is the originating file, relative to the repository root.
	FilePath string

	// StartLine is the 1-based line of the chunk's first byte.
	StartLine int

	// EndLine is StartLine plus the number of newlines in Text.
	EndLine int

	// Text is the chunk content.
	Text string
}

// ID returns the stable vector identifier for this chunk.
func (c Chunk) ID() string {
	return ChunkID(c.FilePath, c.StartLine, c.EndLine)
}

// ChunkID derives the deterministic vector id for a chunk boundary.
// Identical boundaries on re-run produce the identical id, which makes a
// re-upsert an overwrite rather than a duplicate insert.
func ChunkID(filePath string, startLine, endLine int) string {
	return fmt.Sprintf("%s%s%d-%d", filePath, IDSeparator, startLine, endLine)
}
