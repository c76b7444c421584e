package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vsinha/clem/pkg/infrastructure/config"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/scenario"
)

// NewValidateCommand creates the validate subcommand
func NewValidateCommand(configPath *string) *cobra.Command {
	var scenarioFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario without running it",
		Long: `Check a scenario's activity tree, companion models, relationships
and sequences, then compose it to catch missing resources and bad parameters.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), *configPath, scenarioFile)
		},
	}

	cmd.Flags().StringVarP(&scenarioFile, "scenario", "s", "", "Path to scenario YAML file")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

func runValidate(w io.Writer, configPath, scenarioFile string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	opts, err := runOptions(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return err
	}

	sc, err := scenario.Load(scenarioFile)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	result, err := scenario.Validate(sc)
	if err != nil {
		return err
	}
	if !result.Valid() {
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
		return fmt.Errorf("scenario %s has %d problem(s)", sc.Name, len(result.Errors))
	}

	// composition catches problems only visible once resources exist
	if _, err := scenario.Build(sc, opts); err != nil {
		return err
	}

	fmt.Fprintf(w, "Scenario %s is valid: %d activities, %d timers\n",
		sc.Name, len(sc.Activities), len(sc.Timers))
	return nil
}
