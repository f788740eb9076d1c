// Hearth - plugin orchestration host.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newHearthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hearth",
		Short:        "hearth - plugin orchestration host",
		Example:      "hearth run",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newRunCommand(),
		newPluginsCommand(),
	)

	return cmd
}

func main() {
	if err := newHearthCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
