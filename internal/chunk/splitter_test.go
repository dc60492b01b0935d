package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cterrors "github.com/codeturtle/codeturtle/internal/errors"
)

func newTestSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(Options{ChunkSize: size, ChunkOverlap: overlap})
	require.NoError(t, err)
	return s
}

func TestNewSplitter_RejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"explicit valid", Options{ChunkSize: 512, ChunkOverlap: 64}, false},
		{"overlap equals size", Options{ChunkSize: 100, ChunkOverlap: 100}, true},
		{"overlap exceeds size", Options{ChunkSize: 100, ChunkOverlap: 200}, true},
		{"negative overlap", Options{ChunkSize: 100, ChunkOverlap: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSplitter(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, cterrors.ErrCodeChunkGeometry, cterrors.GetCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplit_EmptyContentYieldsNoChunks(t *testing.T) {
	s := newTestSplitter(t, 512, 64)

	assert.Empty(t, s.Split("a.py", "python", ""))
	assert.Empty(t, s.Split("a.py", "python", "   \n\n  "))
}

func TestSplit_SmallFileIsOneChunk(t *testing.T) {
	s := newTestSplitter(t, 512, 64)
	content := "def hello():\n    return 1\n"

	chunks := s.Split("a.py", "python", content)
	require.Len(t, chunks, 1)

	assert.Equal(t, "a.py", chunks[0].FilePath)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine) // two newlines after line 1
	assert.Equal(t, content, chunks[0].Text)
}

func TestSplit_EndLineIsStartPlusNewlineCount(t *testing.T) {
	s := newTestSplitter(t, 512, 64)

	chunks := s.Split("x.go", "go", "package x\n\nfunc A() {}\n")
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, c.StartLine+strings.Count(c.Text, "\n"), c.EndLine)
}

func TestSplit_LargeFileRespectsChunkSize(t *testing.T) {
	s := newTestSplitter(t, 128, 16)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "def fn_%02d():\n    return %d\n\n", i, i)
	}

	chunks := s.Split("big.py", "python", b.String())
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 128, "chunk exceeds size budget")
	}
}

func TestSplit_ChunksAreOrderedAndAscending(t *testing.T) {
	s := newTestSplitter(t, 96, 16)

	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "line number %02d with some padding text\n", i)
	}

	chunks := s.Split("f.go", "go", b.String())
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.GreaterOrEqual(t, chunks[i].StartLine, chunks[i-1].StartLine)
	}
}

func TestSplit_LineCoverageHasNoGaps(t *testing.T) {
	const totalLines = 50
	s := newTestSplitter(t, 100, 20)

	var b strings.Builder
	for i := 1; i <= totalLines; i++ {
		fmt.Fprintf(&b, "x%02d = %d  # padding padding\n", i, i)
	}

	chunks := s.Split("cov.py", "python", b.String())
	require.NotEmpty(t, chunks)

	// Every line from 1..N is inside at least one chunk's range.
	covered := make(map[int]bool)
	for _, c := range chunks {
		for l := c.StartLine; l <= c.EndLine; l++ {
			covered[l] = true
		}
	}
	for l := 1; l <= totalLines; l++ {
		assert.True(t, covered[l], "line %d not covered", l)
	}

	assert.Equal(t, 1, chunks[0].StartLine)
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	s := newTestSplitter(t, 100, 40)

	var b strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "statement_%02d()\n", i)
	}

	chunks := s.Split("o.py", "python", b.String())
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		// No gap larger than the overlap tolerance between chunks.
		assert.LessOrEqual(t, chunks[i].StartLine, chunks[i-1].EndLine+1,
			"gap between chunk %d and %d", i-1, i)
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := newTestSplitter(t, 128, 32)

	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "func F%02d() int { return %d }\n\n", i, i)
	}
	content := b.String()

	first := s.Split("d.go", "go", content)
	second := s.Split("d.go", "go", content)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
		assert.Equal(t, first[i].ID(), second[i].ID())
	}
}

func TestSplit_GoStrategyCutsAtFuncBoundaries(t *testing.T) {
	s := newTestSplitter(t, 80, 8)

	content := "package p\n\nfunc First() {\n\t// body body body body\n}\n\nfunc Second() {\n\t// body body body body\n}\n"
	chunks := s.Split("p.go", "go", content)
	require.Greater(t, len(chunks), 1)

	// A later chunk should open at a declaration boundary.
	var opensAtFunc bool
	for _, c := range chunks[1:] {
		if strings.HasPrefix(strings.TrimLeft(c.Text, "\n"), "func ") {
			opensAtFunc = true
		}
	}
	assert.True(t, opensAtFunc, "expected a chunk opening at a func declaration")
}

func TestSplit_UnknownLanguageFallsBackToGeneric(t *testing.T) {
	s := newTestSplitter(t, 64, 8)

	var b strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "paragraph %d text here\n\n", i)
	}

	chunks := s.Split("notes.txt", "unknown", b.String())
	assert.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 64)
	}
}

func TestSplit_SingleLongLineIsWindowed(t *testing.T) {
	s := newTestSplitter(t, 64, 8)

	content := strings.Repeat("a", 300) // no separators at all
	chunks := s.Split("blob.js", "javascript", content)

	require.NotEmpty(t, chunks)
	total := 0
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), 64)
		total += len(c.Text)
	}
	assert.GreaterOrEqual(t, total, 300)
}

func TestChunkID_Format(t *testing.T) {
	assert.Equal(t, "src/a.py::1-10", ChunkID("src/a.py", 1, 10))
	assert.Equal(t, "x.go::42-42", ChunkID("x.go", 42, 42))

	c := Chunk{FilePath: "src/a.py", StartLine: 3, EndLine: 7}
	assert.Equal(t, "src/a.py::3-7", c.ID())
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, "python", StrategyFor("python").Name)
	assert.Equal(t, "go", StrategyFor("go").Name)
	assert.Equal(t, "typescript", StrategyFor("typescript").Name)
	assert.Equal(t, "generic", StrategyFor("cobol").Name)
}
