package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticEmbedderDeterministic(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "func main() { fmt.Println() }")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "func main() { fmt.Println() }")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestStaticEmbedderDimensions(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Len(t, vec, StaticDimensions)
	assert.Equal(t, StaticDimensions, e.Dimensions())
}

func TestStaticEmbedderNormalized(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "def compute_total(items): return sum(items)")
	require.NoError(t, err)

	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 0.001)
}

func TestStaticEmbedderEmptyText(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "   \n\t ")
	require.NoError(t, err)

	assert.Len(t, vec, StaticDimensions)
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestStaticEmbedderDifferentTexts(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	v1, err := e.Embed(ctx, "parse the configuration file")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "open a network connection")
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
}

func TestStaticEmbedderBatch(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	texts := []string{"first chunk", "second chunk", "third chunk"}
	vectors, err := e.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))

	// Batch output must match single-text output per input.
	for i, text := range texts {
		single, err := e.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i])
	}
}

func TestStaticEmbedderAvailable(t *testing.T) {
	e := NewStaticEmbedder()
	assert.True(t, e.Available(context.Background()))
	assert.NoError(t, e.Close())
}
