package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/plugin/script"
)

func newPluginsCommand() *cobra.Command {
	var pluginDir string

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List discoverable plugin scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if pluginDir != "" {
				cfg.PluginDir = pluginDir
			}

			scripts, loadErr := script.Discover(cfg.PluginDir)
			if len(scripts) == 0 && loadErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no plugins in %s\n", cfg.PluginDir)
				return nil
			}

			for _, p := range scripts {
				deps := "-"
				if len(p.Dependencies) > 0 {
					deps = strings.Join(p.Dependencies, ", ")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s depends: %s\n", p.ID, deps)
			}
			if loadErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "load errors:\n%v\n", loadErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&pluginDir, "plugins", "p", "", "plugin directory (overrides HEARTH_PLUGIN_DIR)")
	return cmd
}
