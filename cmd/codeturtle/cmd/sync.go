package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeturtle/codeturtle/internal/changeset"
	"github.com/codeturtle/codeturtle/internal/chunk"
	"github.com/codeturtle/codeturtle/internal/config"
	"github.com/codeturtle/codeturtle/internal/embed"
	cterrors "github.com/codeturtle/codeturtle/internal/errors"
	syncpkg "github.com/codeturtle/codeturtle/internal/sync"
	"github.com/codeturtle/codeturtle/internal/ui"
	"github.com/codeturtle/codeturtle/internal/vecstore"
	"github.com/codeturtle/codeturtle/internal/watcher"
)

// newSyncCmd creates the sync command.
func newSyncCmd(flags *rootFlags) *cobra.Command {
	var (
		watch      bool
		offline    bool
		scanPath   string
		upsertList string
		deleteList string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the vector index with the source tree",
		Long: `Sync resolves a changeset and reconciles the index against it.

With no file lists configured, the whole scan path is re-indexed. When an
upsert or delete list is configured the run is targeted: only the listed
paths are touched and nothing is inferred from the tree. With --watch the
engine stays running and feeds debounced file events through the same
reconciliation.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if scanPath != "" {
				cfg.ScanPath = scanPath
			}
			if upsertList != "" {
				cfg.UpsertFileList = upsertList
			}
			if deleteList != "" {
				cfg.DeleteFileList = deleteList
			}
			if offline {
				cfg.Embeddings.Provider = config.ProviderStatic
			}

			renderer := ui.NewRenderer(cmd.OutOrStdout(), flags.noColor)
			if watch {
				return runWatch(cmd.Context(), cfg, renderer)
			}
			return runSync(cmd.Context(), cfg, renderer)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and sync on file changes")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use deterministic static embeddings (no model server)")
	cmd.Flags().StringVar(&scanPath, "scan-path", "", "Root directory for full scans (overrides config)")
	cmd.Flags().StringVar(&upsertList, "upsert-list", "", "Newline-delimited list of paths to upsert")
	cmd.Flags().StringVar(&deleteList, "delete-list", "", "Newline-delimited list of paths to purge")

	return cmd
}

// buildEmbedder constructs the configured embedder wrapped in the LRU
// cache.
func buildEmbedder(ctx context.Context, cfg *config.Config) (embed.Embedder, error) {
	var (
		inner embed.Embedder
		err   error
	)
	switch cfg.Embeddings.Provider {
	case config.ProviderStatic:
		inner = embed.NewStaticEmbedder()
	default:
		inner, err = embed.NewOllamaEmbedder(ctx, embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
		})
		if err != nil {
			return nil, err
		}
	}
	return embed.NewCachedEmbedder(inner, embed.DefaultCacheSize)
}

// openCollaborators wires embedder, store, splitter and reconciler from
// config. Everything here fails before the index is mutated.
func openCollaborators(ctx context.Context, cfg *config.Config) (*syncpkg.Reconciler, embed.Embedder, vecstore.Store, error) {
	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	store, err := vecstore.OpenLocal(ctx, vecstore.LocalConfig{
		Path:            cfg.Index.Path,
		Name:            cfg.Index.Name,
		CreateIfMissing: cfg.Index.CreateIfMissing,
		Dimensions:      embedder.Dimensions(),
		Model:           embedder.ModelName(),
	}, slog.Default())
	if err != nil {
		_ = embedder.Close()
		return nil, nil, nil, err
	}

	splitter, err := chunk.NewSplitter(chunk.Options{
		ChunkSize:    cfg.Chunking.ChunkSize,
		ChunkOverlap: cfg.Chunking.ChunkOverlap,
	})
	if err != nil {
		_ = store.Close()
		_ = embedder.Close()
		return nil, nil, nil, err
	}

	reconciler := syncpkg.NewReconciler(syncpkg.Options{
		Root:      cfg.ScanPath,
		BatchSize: cfg.Embeddings.BatchSize,
	}, splitter, embedder, store, slog.Default())

	return reconciler, embedder, store, nil
}

// runSync performs one reconciliation run. Partial failure returns an
// error so the process exits non-zero and CI notices.
func runSync(ctx context.Context, cfg *config.Config, renderer *ui.Renderer) error {
	cs, err := changeset.Resolve(ctx, changeset.Options{
		ScanPath:       cfg.ScanPath,
		UpsertListPath: cfg.UpsertFileList,
		DeleteListPath: cfg.DeleteFileList,
	})
	if err != nil {
		renderer.Errorf("%v", err)
		return err
	}
	if cs.ScanErrors > 0 {
		renderer.Warnf("%d entries skipped during scan", cs.ScanErrors)
	}

	reconciler, embedder, store, err := openCollaborators(ctx, cfg)
	if err != nil {
		renderer.Errorf("%v", err)
		return err
	}
	defer func() {
		_ = store.Close()
		_ = embedder.Close()
	}()

	renderer.Stagef(syncpkg.StageIdle, "%d upserts, %d deletes resolved", len(cs.Upserts), len(cs.Deletes))

	report, err := reconciler.Run(ctx, cs)
	if err != nil {
		renderer.Errorf("%v", err)
		return err
	}

	renderer.Report(report)
	if !report.Success() {
		return cterrors.New(cterrors.ErrCodeInternal,
			fmt.Sprintf("sync completed with %d failed files and %d failed batches",
				report.FilesFailed, report.BatchesFailed), nil)
	}
	return nil
}

// runWatch performs an initial full sync and then reconciles debounced
// change batches until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, renderer *ui.Renderer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler, embedder, store, err := openCollaborators(ctx, cfg)
	if err != nil {
		renderer.Errorf("%v", err)
		return err
	}
	defer func() {
		_ = store.Close()
		_ = embedder.Close()
	}()

	// Initial full scan so the index reflects the tree before we start
	// trusting incremental events.
	initial, err := changeset.Resolve(ctx, changeset.Options{ScanPath: cfg.ScanPath})
	if err != nil {
		return err
	}
	report, err := reconciler.Run(ctx, initial)
	if err != nil {
		return err
	}
	renderer.Report(report)

	debounce, err := time.ParseDuration(cfg.Watch.Debounce)
	if err != nil {
		debounce = watcher.DefaultDebounce
	}

	w, err := watcher.New(debounce, slog.Default())
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	go func() {
		if err := w.Start(ctx, cfg.ScanPath); err != nil && ctx.Err() == nil {
			slog.Error("watcher stopped", slog.String("error", err.Error()))
		}
	}()

	renderer.Stagef(syncpkg.StageIdle, "watching %s", cfg.ScanPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case events, ok := <-w.Batches():
			if !ok {
				return nil
			}
			cs := watcher.ToChangeSet(events)
			report, err := reconciler.Run(ctx, cs)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				renderer.Errorf("%v", err)
				continue
			}
			renderer.Report(report)
		}
	}
}
