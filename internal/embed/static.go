package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// StaticEmbedder produces deterministic embeddings from token and
// character-trigram hashes. It needs no network or model files, so it
// serves offline runs and tests. Identical text always yields an
// identical vector, which keeps upserts idempotent.
type StaticEmbedder struct {
	dims int
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a static embedder with StaticDimensions.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{dims: StaticDimensions}
}

// static feature weights: tokens dominate, trigrams add sub-word overlap.
const (
	staticTokenWeight   = 0.7
	staticTrigramWeight = 0.3
)

var staticStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "with": {},
}

// Embed generates a deterministic embedding for a single text.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.embedOne(text), nil
}

// EmbedBatch generates deterministic embeddings for multiple texts.
func (e *StaticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *StaticEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dims)
	if strings.TrimSpace(text) == "" {
		return vec
	}

	lower := strings.ToLower(text)
	for _, token := range tokenize(lower) {
		if _, stop := staticStopWords[token]; stop {
			continue
		}
		vec[hashBucket(token, e.dims)] += staticTokenWeight

		for i := 0; i+3 <= len(token); i++ {
			vec[hashBucket(token[i:i+3], e.dims)] += staticTrigramWeight
		}
	}

	return normalizeVector(vec)
}

// tokenize splits text on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hashBucket(s string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(dims))
}

// Dimensions returns the embedding dimension.
func (e *StaticEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the static model identifier.
func (e *StaticEmbedder) ModelName() string {
	return "static-hash-v1"
}

// Available always reports true.
func (e *StaticEmbedder) Available(_ context.Context) bool {
	return true
}

// Close is a no-op.
func (e *StaticEmbedder) Close() error {
	return nil
}
