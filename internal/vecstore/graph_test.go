package vecstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorGraphUpsertReplace(t *testing.T) {
	g := newVectorGraph(2)

	require.NoError(t, g.upsert([]string{"x"}, [][]float32{{1, 0}}))
	require.NoError(t, g.upsert([]string{"x"}, [][]float32{{0, 1}}))

	assert.Equal(t, 1, g.count())
	// The replaced node stays in the graph as an orphan.
	assert.Equal(t, 1, g.orphans())
}

func TestVectorGraphLazyRemove(t *testing.T) {
	g := newVectorGraph(2)

	require.NoError(t, g.upsert([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}))
	removed := g.remove([]string{"a", "missing"})

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, g.count())
	assert.Equal(t, 1, g.orphans())
}

func TestVectorGraphLengthMismatch(t *testing.T) {
	g := newVectorGraph(2)
	err := g.upsert([]string{"a", "b"}, [][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestVectorGraphDimensionCheck(t *testing.T) {
	g := newVectorGraph(4)
	err := g.upsert([]string{"a"}, [][]float32{{1, 0}})

	var mismatch ErrDimensionMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 4, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Got)
}

func TestVectorGraphSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.hnsw")

	g := newVectorGraph(2)
	require.NoError(t, g.upsert([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, g.save(path))

	loaded := newVectorGraph(2)
	require.NoError(t, loaded.load(path))

	assert.Equal(t, 2, loaded.count())
	assert.Equal(t, 1, loaded.remove([]string{"a"}))
}

func TestVectorGraphLoadMissingFile(t *testing.T) {
	g := newVectorGraph(2)
	err := g.load(filepath.Join(t.TempDir(), "absent.hnsw"))

	require.NoError(t, err)
	assert.Zero(t, g.count())
}
