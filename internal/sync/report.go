// Package sync reconciles a resolved changeset against the vector index:
// purge vectors for deleted and changed files, then chunk, embed and
// upsert the current contents of changed files.
package sync

import (
	"fmt"
	"time"
)

// Stage identifies where a run currently is.
type Stage int

const (
	StageIdle Stage = iota
	StageDeleting
	StageChunking
	StageEmbedding
	StageUpserting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDeleting:
		return "deleting"
	case StageChunking:
		return "chunking"
	case StageEmbedding:
		return "embedding"
	case StageUpserting:
		return "upserting"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Report summarizes one reconciliation run.
type Report struct {
	// FilesUpserted is the number of files whose chunks were re-indexed.
	FilesUpserted int

	// FilesFailed is the number of upsert files skipped because they
	// could not be read.
	FilesFailed int

	// FilesPurged is the number of paths sent through the delete filter.
	FilesPurged int

	// RecordsPurged is the number of index records the delete filter removed.
	RecordsPurged int

	// DeleteErrors counts failed delete calls. Deletes never block the
	// upsert phase.
	DeleteErrors int

	// ChunksIndexed is the number of chunks embedded and stored.
	ChunksIndexed int

	// ChunksFailed is the number of chunks in failed batches.
	ChunksFailed int

	// BatchesFailed is the number of embed or upsert batches that failed
	// after retries.
	BatchesFailed int

	// FailedChunks lists the ids of chunks in failed batches, for re-runs.
	FailedChunks []string

	// IndexSize is the live record count after the run.
	IndexSize int

	// Duration is the wall-clock run time.
	Duration time.Duration
}

// Success reports whether the run completed without partial failure.
func (r *Report) Success() bool {
	return r.FilesFailed == 0 && r.BatchesFailed == 0 && r.DeleteErrors == 0
}
