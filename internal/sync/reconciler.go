package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codeturtle/codeturtle/internal/changeset"
	"github.com/codeturtle/codeturtle/internal/chunk"
	"github.com/codeturtle/codeturtle/internal/classify"
	"github.com/codeturtle/codeturtle/internal/embed"
	cterrors "github.com/codeturtle/codeturtle/internal/errors"
	"github.com/codeturtle/codeturtle/internal/vecstore"
)

// MaxFileSize is the largest upsert file the reconciler will read.
const MaxFileSize = 5 * 1024 * 1024

// Options configures a Reconciler.
type Options struct {
	// Root is the directory upsert paths are resolved against.
	Root string

	// BatchSize is the number of chunks embedded and upserted per batch.
	BatchSize int

	// Workers bounds concurrent file reads and splits. Zero means NumCPU.
	Workers int
}

// Reconciler drives one changeset through the index: delete, chunk,
// embed, upsert. Collaborators are injected so runs are testable with
// fakes and so watch mode can reuse one instance across cycles.
type Reconciler struct {
	opts     Options
	splitter *chunk.Splitter
	embedder embed.Embedder
	store    vecstore.Store
	logger   *slog.Logger

	stage Stage
}

// NewReconciler creates a reconciler over the given collaborators.
func NewReconciler(opts Options, splitter *chunk.Splitter, embedder embed.Embedder, store vecstore.Store, logger *slog.Logger) *Reconciler {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = embed.DefaultBatchSize
	}
	if opts.BatchSize > embed.MaxBatchSize {
		opts.BatchSize = embed.MaxBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		opts:     opts,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   logger,
		stage:    StageIdle,
	}
}

// Stage returns the current run stage.
func (r *Reconciler) Stage() Stage {
	return r.stage
}

// Run reconciles one changeset. Deletes always run first so that changed
// files shed their stale chunk ids before the fresh ones land. Per-file
// and per-batch failures are recorded in the report and the run continues;
// only context cancellation aborts it.
func (r *Reconciler) Run(ctx context.Context, cs *changeset.ChangeSet) (*Report, error) {
	start := time.Now()
	report := &Report{}

	r.logger.Info("sync run starting",
		slog.Int("upserts", len(cs.Upserts)),
		slog.Int("deletes", len(cs.Deletes)))

	if err := r.purge(ctx, cs, report); err != nil {
		return report, err
	}

	chunks, err := r.chunkFiles(ctx, cs.Upserts, report)
	if err != nil {
		return report, err
	}

	if err := r.indexChunks(ctx, chunks, report); err != nil {
		return report, err
	}

	r.stage = StageDone
	report.IndexSize = r.store.Count()
	report.Duration = time.Since(start)

	r.logger.Info("sync run finished",
		slog.Int("files_upserted", report.FilesUpserted),
		slog.Int("files_failed", report.FilesFailed),
		slog.Int("chunks_indexed", report.ChunksIndexed),
		slog.Int("chunks_failed", report.ChunksFailed),
		slog.Int("records_purged", report.RecordsPurged),
		slog.Int("index_size", report.IndexSize),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// purge deletes vectors for every path in the changeset. Upsert paths are
// purged too: a changed file may now produce fewer or shifted chunks, and
// only the file filter catches the ids that no longer occur.
func (r *Reconciler) purge(ctx context.Context, cs *changeset.ChangeSet, report *Report) error {
	r.stage = StageDeleting

	targets := make([]string, 0, len(cs.Deletes)+len(cs.Upserts))
	targets = append(targets, cs.Deletes...)
	targets = append(targets, cs.Upserts...)
	if len(targets) == 0 {
		return nil
	}

	removed, err := r.store.DeleteByFiles(ctx, targets)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.DeleteErrors++
		r.logger.Warn("delete pass failed, continuing with upserts",
			slog.Int("paths", len(targets)),
			slog.String("error", err.Error()))
		return nil
	}

	report.FilesPurged = len(targets)
	report.RecordsPurged = removed
	return nil
}

// chunkFiles reads and splits upsert files with a bounded worker pool.
// Results keep changeset order so batches are deterministic regardless of
// worker scheduling. Unreadable files are logged and counted, never fatal.
func (r *Reconciler) chunkFiles(ctx context.Context, paths []string, report *Report) ([]chunk.Chunk, error) {
	r.stage = StageChunking
	if len(paths) == 0 {
		return nil, nil
	}

	results := make([][]chunk.Chunk, len(paths))
	failures := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := r.chunkOne(path)
			if err != nil {
				failures[i] = true
				r.logger.Warn("skipping unreadable file",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []chunk.Chunk
	for i := range results {
		if failures[i] {
			report.FilesFailed++
			continue
		}
		report.FilesUpserted++
		all = append(all, results[i]...)
	}
	return all, nil
}

// chunkOne reads one file and splits it.
func (r *Reconciler) chunkOne(path string) ([]chunk.Chunk, error) {
	full := filepath.Join(r.opts.Root, filepath.FromSlash(path))

	info, err := os.Stat(full)
	if err != nil {
		return nil, cterrors.FileError(fmt.Sprintf("stat %s", path), err)
	}
	if info.Size() > MaxFileSize {
		return nil, cterrors.New(cterrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s is %d bytes, limit %d", path, info.Size(), MaxFileSize), nil)
	}

	content, err := os.ReadFile(full)
	if err != nil {
		return nil, cterrors.FileError(fmt.Sprintf("read %s", path), err)
	}

	return r.splitter.Split(path, classify.Language(path), string(content)), nil
}

// indexChunks embeds and upserts chunks in batches. A failed batch is
// recorded and the run moves to the next batch; one flaky batch must not
// discard the rest of the changeset.
func (r *Reconciler) indexChunks(ctx context.Context, chunks []chunk.Chunk, report *Report) error {
	if len(chunks) == 0 {
		return nil
	}

	for offset := 0; offset < len(chunks); offset += r.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := offset + r.opts.BatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[offset:end]

		if err := r.indexBatch(ctx, batch); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.BatchesFailed++
			report.ChunksFailed += len(batch)
			for _, c := range batch {
				report.FailedChunks = append(report.FailedChunks, c.ID())
			}
			r.logger.Error("batch failed",
				slog.Int("offset", offset),
				slog.Int("size", len(batch)),
				slog.String("error", err.Error()))
			continue
		}
		report.ChunksIndexed += len(batch)
	}

	return nil
}

func (r *Reconciler) indexBatch(ctx context.Context, batch []chunk.Chunk) error {
	r.stage = StageEmbedding

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}

	r.stage = StageUpserting

	records := make([]vecstore.Record, len(batch))
	for i, c := range batch {
		records[i] = vecstore.Record{
			ID:     c.ID(),
			Vector: vectors[i],
			Meta: vecstore.Meta{
				FilePath:  c.FilePath,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
			},
		}
	}

	return r.store.Upsert(ctx, records)
}
