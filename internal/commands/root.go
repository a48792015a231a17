package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/fidash/internal/buildinfo"
	"github.com/cleared-dev/fidash/internal/config"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "fidash",
		Short:   "Personal finance dashboard and assistant over the Fi data backend",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "config file")

	rootCmd.AddCommand(
		newInitCommand(),
		newDashboardCommand(opts),
		newSessionCommand(opts),
		newChatCommand(opts),
		newPrefsCommand(opts),
		newProfileCommand(opts),
		newServeCommand(opts),
	)

	return rootCmd
}
