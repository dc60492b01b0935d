package embed

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEmbedder wraps the static embedder and counts EmbedBatch inputs.
type countingEmbedder struct {
	*StaticEmbedder
	embedded []string
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.embedded = append(c.embedded, text)
	return c.StaticEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.embedded = append(c.embedded, texts...)
	return c.StaticEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedderHit(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	e, err := NewCachedEmbedder(inner, 100)
	require.NoError(t, err)
	ctx := context.Background()

	v1, err := e.Embed(ctx, "some chunk text")
	require.NoError(t, err)
	v2, err := e.Embed(ctx, "some chunk text")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, inner.embedded, 1)

	hits, misses := e.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedEmbedderBatchPartialHit(t *testing.T) {
	inner := &countingEmbedder{StaticEmbedder: NewStaticEmbedder()}
	e, err := NewCachedEmbedder(inner, 100)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Embed(ctx, "cached text")
	require.NoError(t, err)
	inner.embedded = nil

	vectors, err := e.EmbedBatch(ctx, []string{"fresh one", "cached text", "fresh two"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// Only the misses reach the inner embedder.
	assert.Equal(t, []string{"fresh one", "fresh two"}, inner.embedded)

	// Order is preserved regardless of hit pattern.
	want, err := NewStaticEmbedder().Embed(ctx, "cached text")
	require.NoError(t, err)
	assert.Equal(t, want, vectors[1])
}

func TestCachedEmbedderDelegates(t *testing.T) {
	e, err := NewCachedEmbedder(NewStaticEmbedder(), 10)
	require.NoError(t, err)

	assert.Equal(t, StaticDimensions, e.Dimensions())
	assert.Equal(t, "static-hash-v1", e.ModelName())
	assert.True(t, e.Available(context.Background()))
	assert.NoError(t, e.Close())
}

func TestCachedEmbedderConcurrentStats(t *testing.T) {
	e, err := NewCachedEmbedder(NewStaticEmbedder(), 100)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = e.Embed(ctx, "shared text")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				_, err := e.Embed(ctx, "shared text")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	hits, misses := e.Stats()
	assert.Equal(t, int64(8*50), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCachedEmbedderDefaultSize(t *testing.T) {
	e, err := NewCachedEmbedder(NewStaticEmbedder(), 0)
	require.NoError(t, err)
	require.NotNil(t, e)
}
