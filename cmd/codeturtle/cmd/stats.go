package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/codeturtle/codeturtle/internal/ui"
	"github.com/codeturtle/codeturtle/internal/vecstore"
)

// newStatsCmd creates the stats command.
func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Stats prints record counts, per-file chunk counts and the pinned embedding model of the configured index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			// Stats never creates a collection; an absent index is an error.
			// Dimensions and model are left unset so the open accepts
			// whatever sync pinned, which may be the provider's resolved
			// model name rather than the configured alias.
			store, err := vecstore.OpenLocal(cmd.Context(), vecstore.LocalConfig{
				Path:            cfg.Index.Path,
				Name:            cfg.Index.Name,
				CreateIfMissing: false,
			}, slog.Default())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			ui.NewRenderer(cmd.OutOrStdout(), flags.noColor).Stats(stats)
			return nil
		},
	}
}
