package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "clem",
		Short: "Monthly farm-system simulation",
		Long: `clem runs monthly simulations of farm resources, herds and the
activities that compete for them.

Examples:
  clem validate --scenario farm.yaml
  clem run --scenario farm.yaml
  clem run --scenario farm.yaml --format csv --output results/
  clem run --scenario farm.yaml --db runs.db --format json`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default ./clem.yaml)")

	rootCmd.AddCommand(NewRunCommand(&configPath))
	rootCmd.AddCommand(NewValidateCommand(&configPath))

	return rootCmd
}
