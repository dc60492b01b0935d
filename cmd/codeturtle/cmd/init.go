package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeturtle/codeturtle/configs"
	"github.com/codeturtle/codeturtle/internal/config"
)

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .codeturtle.yaml configuration template",
		Long: `Init writes a commented .codeturtle.yaml template to the current
directory. Edit the index name before the first sync.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(config.ConfigFileName); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.ConfigFileName)
			}

			if err := os.WriteFile(config.ConfigFileName, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", config.ConfigFileName, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", config.ConfigFileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}
