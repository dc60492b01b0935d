package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	syncpkg "github.com/codeturtle/codeturtle/internal/sync"
	"github.com/codeturtle/codeturtle/internal/vecstore"
)

func TestRendererReportSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)

	r.Report(&syncpkg.Report{
		FilesUpserted: 3,
		ChunksIndexed: 12,
		RecordsPurged: 5,
		IndexSize:     12,
		Duration:      1500 * time.Millisecond,
	})

	out := buf.String()
	assert.Contains(t, out, "Sync complete")
	assert.Contains(t, out, "3 files indexed")
	assert.Contains(t, out, "12 chunks")
	assert.Contains(t, out, "index size: 12")
	assert.NotContains(t, out, "skipped")
}

func TestRendererReportPartialFailure(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)

	r.Report(&syncpkg.Report{
		FilesUpserted: 1,
		FilesFailed:   2,
		BatchesFailed: 1,
		ChunksFailed:  4,
	})

	out := buf.String()
	assert.Contains(t, out, "completed with errors")
	assert.Contains(t, out, "2 files skipped")
	assert.Contains(t, out, "1 batches failed")
}

func TestRendererStats(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)

	r.Stats(vecstore.Stats{
		Records:    7,
		Files:      2,
		Dimensions: 256,
		Model:      "static-hash-v1",
		ChunksPerFile: map[string]int{
			"b.py": 4,
			"a.py": 3,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "records: 7")
	assert.Contains(t, out, "model: static-hash-v1")
	// Per-file listing is sorted.
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("a.py")), bytes.Index(buf.Bytes(), []byte("b.py")))
}

func TestRendererNoColorForBuffer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.Errorf("boom %d", 7)
	// A plain buffer is not a terminal, so no escape codes.
	assert.Equal(t, "ERROR: boom 7\n", buf.String())
}
