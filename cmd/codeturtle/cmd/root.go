// Package cmd provides the CLI commands for codeturtle.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codeturtle/codeturtle/internal/config"
	"github.com/codeturtle/codeturtle/internal/logging"
	"github.com/codeturtle/codeturtle/pkg/version"
)

type rootFlags struct {
	configFile string
	debug      bool
	noColor    bool
}

// NewRootCmd creates the root command for the codeturtle CLI.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}
	var loggingCleanup func()

	cmd := &cobra.Command{
		Use:   "codeturtle",
		Short: "Keep a vector search index in sync with a source tree",
		Long: `Codeturtle incrementally synchronizes a vector search index with a
source repository: it resolves which files changed, splits them into
line-addressable chunks, embeds the chunks in batches and reconciles the
index so deleted and modified files never leave stale vectors behind.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logCfg := logging.DefaultConfig()
			// Commands that run without a config file still log with
			// defaults; a load failure here surfaces again from the
			// command's own RunE.
			if cfg, err := loadConfig(flags); err == nil {
				if cfg.Log.Level != "" {
					logCfg.Level = cfg.Log.Level
				}
				if cfg.Log.File != "" {
					logCfg.FilePath = cfg.Log.File
				}
			}
			if flags.debug {
				logCfg.Level = "debug"
			}
			cleanup, err := logging.SetupDefault(logCfg)
			if err != nil {
				// Logging must never block the sync itself.
				cleanup = func() {}
			}
			loggingCleanup = cleanup
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if loggingCleanup != nil {
				loggingCleanup()
			}
		},
	}

	cmd.SetVersionTemplate("codeturtle version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", config.ConfigFileName, "Path to config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newSyncCmd(flags))
	cmd.AddCommand(newStatsCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads the config file named by the flags. A missing file
// falls back to defaults plus environment overrides.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	return config.Load(flags.configFile)
}
