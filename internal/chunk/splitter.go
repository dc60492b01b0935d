package chunk

import (
	"sort"
	"strings"

	cterrors "github.com/codeturtle/codeturtle/internal/errors"
)

// Default chunk geometry, in characters.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// Options configures the splitter geometry.
type Options struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters carried between
	// consecutive chunks to preserve cross-boundary context.
	ChunkOverlap int
}

// Splitter turns file contents into ordered, line-addressable chunks.
// Safe for concurrent use; it holds no per-file state.
type Splitter struct {
	opts Options
}

// NewSplitter creates a splitter. Zero option values take the defaults;
// an overlap that is not smaller than the chunk size is a configuration
// error (it would make the merge loop stall).
func NewSplitter(opts Options) (*Splitter, error) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkSize < 0 {
		return nil, cterrors.New(cterrors.ErrCodeChunkGeometry, "chunk size must be positive", nil)
	}
	if opts.ChunkOverlap < 0 {
		return nil, cterrors.New(cterrors.ErrCodeChunkGeometry, "chunk overlap must not be negative", nil)
	}
	if opts.ChunkOverlap >= opts.ChunkSize {
		return nil, cterrors.New(cterrors.ErrCodeChunkGeometry, "chunk overlap must be smaller than chunk size", nil)
	}
	return &Splitter{opts: opts}, nil
}

// Split chunks content for filePath using the strategy for language.
// Empty or whitespace-only content yields no chunks; that is not an error.
// Calling Split twice on identical content yields byte-identical chunks.
func (s *Splitter) Split(filePath, language, content string) []Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	strategy := StrategyFor(language)
	pieces := splitRecursive(content, 0, strategy.Separators, s.opts.ChunkSize)
	spans := s.mergePieces(pieces)

	lineIndex := newlineOffsets(content)

	chunks := make([]Chunk, 0, len(spans))
	for _, sp := range spans {
		text := content[sp.start:sp.end]
		if strings.TrimSpace(text) == "" {
			continue
		}

		startLine := lineAt(lineIndex, sp.start)
		chunks = append(chunks, Chunk{
			FilePath:  filePath,
			StartLine: startLine,
			EndLine:   startLine + strings.Count(text, "\n"),
			Text:      text,
		})
	}

	return chunks
}

// span is a half-open [start, end) byte range into the original content.
type span struct {
	start int
	end   int
}

// splitRecursive partitions content[offset:] into contiguous spans no
// longer than maxSize, cutting at the coarsest separator that appears.
// The empty separator is the terminal level: fixed-size windows.
func splitRecursive(text string, offset int, separators []string, maxSize int) []span {
	if len(text) <= maxSize {
		return []span{{start: offset, end: offset + len(text)}}
	}

	sep, rest := pickSeparator(text, separators)
	if sep == "" {
		// Hard windows; no finer boundary exists.
		var out []span
		for i := 0; i < len(text); i += maxSize {
			end := i + maxSize
			if end > len(text) {
				end = len(text)
			}
			out = append(out, span{start: offset + i, end: offset + end})
		}
		return out
	}

	var out []span
	for _, piece := range splitKeepingSeparator(text, sep) {
		pieceText := text[piece.start:piece.end]
		if len(pieceText) <= maxSize {
			out = append(out, span{start: offset + piece.start, end: offset + piece.end})
			continue
		}
		out = append(out, splitRecursive(pieceText, offset+piece.start, rest, maxSize)...)
	}
	return out
}

// pickSeparator returns the first separator present in text plus the
// hierarchy below it. The empty separator always matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeepingSeparator partitions text at each occurrence of sep, keeping
// the separator attached to the piece that follows it. Boundary heuristics
// like "\nfunc " start with a newline, so cutting before the separator
// keeps declarations at chunk starts.
func splitKeepingSeparator(text, sep string) []span {
	var pieces []span
	start := 0
	search := 0
	for {
		idx := strings.Index(text[search:], sep)
		if idx < 0 {
			break
		}
		cut := search + idx
		if cut > start {
			pieces = append(pieces, span{start: start, end: cut})
		}
		start = cut
		search = cut + len(sep)
	}
	if start < len(text) {
		pieces = append(pieces, span{start: start, end: len(text)})
	}
	return pieces
}

// mergePieces greedily joins contiguous pieces into chunks up to ChunkSize,
// then backs up over at most ChunkOverlap trailing characters so the next
// chunk re-opens with shared context. Progress is guaranteed because the
// overlap is strictly smaller than the chunk size.
func (s *Splitter) mergePieces(pieces []span) []span {
	if len(pieces) == 0 {
		return nil
	}

	var out []span
	i := 0
	for i < len(pieces) {
		start := pieces[i].start
		j := i
		for j+1 < len(pieces) && pieces[j+1].end-start <= s.opts.ChunkSize {
			j++
		}
		out = append(out, span{start: start, end: pieces[j].end})

		if j+1 >= len(pieces) {
			break
		}

		// Walk back over tail pieces that fit in the overlap budget.
		next := j + 1
		for next-1 > i && pieces[j].end-pieces[next-1].start <= s.opts.ChunkOverlap {
			next--
		}
		i = next
	}
	return out
}

// newlineOffsets returns the byte offsets of every newline in content.
func newlineOffsets(content string) []int {
	var offsets []int
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// lineAt converts a byte offset to a 1-based line number using the
// precomputed newline index.
func lineAt(newlines []int, offset int) int {
	return sort.SearchInts(newlines, offset) + 1
}
