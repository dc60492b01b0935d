// Package vecstore persists chunk embeddings in a local vector index.
// The Store port mirrors what the sync engine needs from any vector
// database: idempotent upserts keyed by chunk id and bulk deletion by
// source file path. The Local implementation pairs an HNSW graph with a
// SQLite record table that backs the file-path filter.
package vecstore

import (
	"context"
	"fmt"
)

// Meta is the metadata stored alongside each vector.
type Meta struct {
	FilePath  string
	StartLine int
	EndLine   int
}

// Record is one embedded chunk ready for the index.
type Record struct {
	ID     string
	Vector []float32
	Meta   Meta
}

// Stats summarizes index contents.
type Stats struct {
	// Records is the number of live records.
	Records int

	// Files is the number of distinct source files.
	Files int

	// ChunksPerFile maps file path to live record count.
	ChunksPerFile map[string]int

	// Dimensions is the embedding dimension the index was created with.
	Dimensions int

	// Model is the embedding model the index was created with.
	Model string

	// Orphans is the number of lazily deleted graph nodes awaiting compaction.
	Orphans int
}

// Store is the vector index port used by the sync engine.
type Store interface {
	// Upsert inserts or replaces records by id.
	Upsert(ctx context.Context, records []Record) error

	// DeleteByFiles removes every record whose file path is in paths,
	// regardless of id. Returns the number of records removed.
	DeleteByFiles(ctx context.Context, paths []string) (int, error)

	// Count returns the number of live records.
	Count() int

	// Stats returns index statistics.
	Stats(ctx context.Context) (Stats, error)

	// Close flushes and releases the index.
	Close() error
}

// ErrDimensionMismatch reports a vector whose width does not match the index.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
