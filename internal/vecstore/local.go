package vecstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gofrs/flock"

	cterrors "github.com/codeturtle/codeturtle/internal/errors"
)

// Index file names inside the collection directory.
const (
	graphFileName = "vectors.hnsw"
	metaFileName  = "records.db"
	lockFileName  = ".lock"
)

// LocalConfig configures a local index.
type LocalConfig struct {
	// Path is the index root directory, e.g. ".codeturtle".
	Path string

	// Name is the collection name. Each collection is a subdirectory.
	Name string

	// CreateIfMissing creates the collection when absent. When false an
	// absent collection is a fatal error rather than a silent no-op.
	CreateIfMissing bool

	// Dimensions is the embedding dimension.
	Dimensions int

	// Model is the embedding model name, pinned on first open.
	Model string
}

// Local implements Store on disk: an HNSW graph for vectors and a SQLite
// table for the file-path filter. A flock file serializes writers so two
// sync runs cannot interleave on one collection.
type Local struct {
	mu     sync.Mutex
	graph  *vectorGraph
	meta   *metaDB
	lock   *flock.Flock
	dir    string
	logger *slog.Logger
	closed bool
}

var _ Store = (*Local)(nil)

// OpenLocal opens or creates the collection cfg.Name under cfg.Path.
// Dimension and model are pinned in the state table on first open;
// reopening with different values fails before any mutation.
func OpenLocal(ctx context.Context, cfg LocalConfig, logger *slog.Logger) (*Local, error) {
	if cfg.Name == "" {
		return nil, cterrors.New(cterrors.ErrCodeIndexNameMissing, "index name is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Join(cfg.Path, cfg.Name)
	if _, err := os.Stat(dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, cterrors.StoreError(fmt.Sprintf("stat index directory %s", dir), err)
		}
		if !cfg.CreateIfMissing {
			return nil, cterrors.New(cterrors.ErrCodeIndexNotFound,
				fmt.Sprintf("index %q does not exist at %s", cfg.Name, cfg.Path), nil)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, cterrors.StoreError(fmt.Sprintf("create index directory %s", dir), err)
		}
		logger.Info("created index collection", slog.String("name", cfg.Name), slog.String("dir", dir))
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, cterrors.StoreError("acquire index lock", err)
	}
	if !locked {
		return nil, cterrors.New(cterrors.ErrCodeStoreLocked,
			fmt.Sprintf("index %q is locked by another process", cfg.Name), nil)
	}

	meta, err := openMetaDB(filepath.Join(dir, metaFileName))
	if err != nil {
		_ = lock.Unlock()
		return nil, cterrors.New(cterrors.ErrCodeStoreCorrupt, "open index metadata", err)
	}

	if err := checkPinnedState(ctx, meta, cfg); err != nil {
		_ = meta.close()
		_ = lock.Unlock()
		return nil, err
	}

	graph := newVectorGraph(cfg.Dimensions)
	graphPath := filepath.Join(dir, graphFileName)
	if _, err := os.Stat(graphPath); err == nil {
		if err := graph.load(graphPath); err != nil {
			_ = meta.close()
			_ = lock.Unlock()
			return nil, cterrors.New(cterrors.ErrCodeStoreCorrupt, "load vector graph", err)
		}
	}

	return &Local{graph: graph, meta: meta, lock: lock, dir: dir, logger: logger}, nil
}

// checkPinnedState pins dimensions and model on first open and rejects
// reopening with different values. A zero dimension or empty model in cfg
// accepts whatever is pinned, for read-only consumers.
func checkPinnedState(ctx context.Context, meta *metaDB, cfg LocalConfig) error {
	storedDims, err := meta.getState(ctx, stateKeyDimensions)
	if err != nil {
		return cterrors.StoreError("read pinned dimensions", err)
	}
	switch {
	case storedDims == "" && cfg.Dimensions > 0:
		if err := meta.setState(ctx, stateKeyDimensions, strconv.Itoa(cfg.Dimensions)); err != nil {
			return cterrors.StoreError("pin dimensions", err)
		}
	case storedDims != "" && cfg.Dimensions > 0 && storedDims != strconv.Itoa(cfg.Dimensions):
		return cterrors.New(cterrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("index was created with dimensions %s, configured %d", storedDims, cfg.Dimensions), nil)
	}

	storedModel, err := meta.getState(ctx, stateKeyModel)
	if err != nil {
		return cterrors.StoreError("read pinned model", err)
	}
	switch {
	case storedModel == "" && cfg.Model != "":
		if err := meta.setState(ctx, stateKeyModel, cfg.Model); err != nil {
			return cterrors.StoreError("pin model", err)
		}
	case storedModel != "" && cfg.Model != "" && storedModel != cfg.Model:
		return cterrors.New(cterrors.ErrCodeModelMismatch,
			fmt.Sprintf("index was created with model %q, configured %q", storedModel, cfg.Model), nil)
	}

	return nil
}

// Upsert inserts or replaces records by id.
func (l *Local) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return cterrors.New(cterrors.ErrCodeUpsertFailed, "store is closed", nil)
	}

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
		vectors[i] = rec.Vector
	}

	if err := l.graph.upsert(ids, vectors); err != nil {
		return cterrors.New(cterrors.ErrCodeUpsertFailed,
			fmt.Sprintf("upsert %d vectors", len(records)), err)
	}
	if err := l.meta.upsertRecords(ctx, records); err != nil {
		return cterrors.New(cterrors.ErrCodeUpsertFailed,
			fmt.Sprintf("record metadata for %d vectors", len(records)), err)
	}

	return nil
}

// DeleteByFiles removes every record stored for the given file paths. Ids
// are resolved from the record table, so stale chunks of an earlier longer
// version of a file are removed even though their ids no longer occur.
func (l *Local) DeleteByFiles(ctx context.Context, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, cterrors.New(cterrors.ErrCodeDeleteFailed, "store is closed", nil)
	}

	ids, err := l.meta.idsForFiles(ctx, paths)
	if err != nil {
		return 0, cterrors.New(cterrors.ErrCodeDeleteFailed, "resolve record ids", err)
	}
	l.graph.remove(ids)

	removed, err := l.meta.deleteByFiles(ctx, paths)
	if err != nil {
		return 0, cterrors.New(cterrors.ErrCodeDeleteFailed,
			fmt.Sprintf("delete records for %d files", len(paths)), err)
	}

	return removed, nil
}

// Count returns the number of live records.
func (l *Local) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0
	}
	return l.graph.count()
}

// Stats returns index statistics.
func (l *Local) Stats(ctx context.Context) (Stats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Stats{}, cterrors.StoreError("store is closed", nil)
	}

	counts, err := l.meta.fileCounts(ctx)
	if err != nil {
		return Stats{}, cterrors.StoreError("collect file counts", err)
	}
	records, err := l.meta.countRecords(ctx)
	if err != nil {
		return Stats{}, cterrors.StoreError("count records", err)
	}
	dims, err := l.meta.getState(ctx, stateKeyDimensions)
	if err != nil {
		return Stats{}, cterrors.StoreError("read pinned dimensions", err)
	}
	model, err := l.meta.getState(ctx, stateKeyModel)
	if err != nil {
		return Stats{}, cterrors.StoreError("read pinned model", err)
	}

	dimsN, _ := strconv.Atoi(dims)
	return Stats{
		Records:       records,
		Files:         len(counts),
		ChunksPerFile: counts,
		Dimensions:    dimsN,
		Model:         model,
		Orphans:       l.graph.orphans(),
	}, nil
}

// Close saves the graph, closes the record table and releases the lock.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	var firstErr error
	if err := l.graph.save(filepath.Join(l.dir, graphFileName)); err != nil {
		firstErr = err
		l.logger.Error("failed to save vector graph", slog.String("error", err.Error()))
	}
	if err := l.meta.close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := l.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
