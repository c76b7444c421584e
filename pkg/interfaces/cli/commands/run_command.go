package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vsinha/clem/pkg/infrastructure/config"
	"github.com/vsinha/clem/pkg/infrastructure/logging"
	"github.com/vsinha/clem/pkg/infrastructure/metrics"
	"github.com/vsinha/clem/pkg/infrastructure/persistence"
	"github.com/vsinha/clem/pkg/infrastructure/repositories/scenario"
	"github.com/vsinha/clem/pkg/interfaces/cli/output"
)

// RunConfig holds configuration for the run command
type RunConfig struct {
	ConfigPath   string
	ScenarioFile string
	Format       string
	OutputDir    string
	Database     string
	MetricsFile  string
	Verbose      bool
}

// RunCommand loads a scenario, runs it and reports the result
type RunCommand struct {
	config RunConfig
	out    io.Writer

	// Registry receives metrics when enabled; nil uses a private registry
	Registry *prometheus.Registry
}

// NewRunCommand creates the run subcommand
func NewRunCommand(configPath *string) *cobra.Command {
	var rc RunConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario",
		Long: `Run a scenario file from its start date to its end date.

Settings come from the config file and CLEM_* environment variables;
dates and arbitration in the scenario file take precedence.

Formats:
  text  - summary tables on stdout
  json  - the full report on stdout, or run.json in --output
  csv   - outcomes.csv, shortfalls.csv, coverage.csv and balances.csv in --output

--metrics-file writes the run's prometheus metrics in text format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc.ConfigPath = *configPath
			return NewRun(rc, cmd.OutOrStdout()).Execute(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&rc.ScenarioFile, "scenario", "s", "", "Path to scenario YAML file")
	cmd.Flags().StringVarP(&rc.Format, "format", "f", "text", "Output format: text, json, csv")
	cmd.Flags().StringVarP(&rc.OutputDir, "output", "o", "", "Output directory for results")
	cmd.Flags().StringVar(&rc.Database, "db", "", "SQLite file for outcomes (overrides storage.path)")
	cmd.Flags().StringVar(&rc.MetricsFile, "metrics-file", "", "Write metrics to this file (overrides metrics.file)")
	cmd.Flags().BoolVarP(&rc.Verbose, "verbose", "v", false, "Print every outcome")
	_ = cmd.MarkFlagRequired("scenario")

	return cmd
}

// NewRun creates a RunCommand writing its report to out
func NewRun(config RunConfig, out io.Writer) *RunCommand {
	return &RunCommand{config: config, out: out}
}

// Execute runs the command
func (c *RunCommand) Execute(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(c.config.ConfigPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	sc, err := scenario.Load(c.config.ScenarioFile)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	opts, err := runOptions(cfg, logger)
	if err != nil {
		return err
	}

	dbPath := cfg.Storage.Path
	if c.config.Database != "" {
		dbPath = c.config.Database
	}
	var store *persistence.Store
	if dbPath != "" {
		store, err = persistence.Open(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Outcomes = store
		opts.Transactions = store
	}

	metricsFile := cfg.Metrics.File
	if c.config.MetricsFile != "" {
		metricsFile = c.config.MetricsFile
	}
	var collector *metrics.Collector
	registry := c.Registry
	if cfg.Metrics.Enabled || metricsFile != "" {
		if registry == nil {
			registry = prometheus.NewRegistry()
		}
		collector, err = metrics.NewCollector(cfg.Metrics.Namespace, registry)
		if err != nil {
			return err
		}
		opts.Recorder = collector
	}

	sim, err := scenario.Build(sc, opts)
	if err != nil {
		return err
	}

	logger.Info("starting simulation",
		"scenario", sim.Name,
		"start", sim.Clock.StartDate().Format("2006-01-02"),
		"end", sim.Clock.EndDate().Format("2006-01-02"),
		"activities", len(sim.Runner.Activities()))

	started := time.Now()
	result, runErr := sim.Run(ctx)
	elapsed := time.Since(started)

	if result != nil && store != nil {
		if err := store.SaveRun(ctx, result); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}
	if result != nil && collector != nil {
		collector.ObserveRun(result)
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
		logger.Debug("metrics written", "path", metricsFile)
	}
	if runErr != nil {
		return fmt.Errorf("simulation stopped: %w", runErr)
	}

	return output.Generate(c.out, result, output.Config{
		Format:    c.config.Format,
		OutputDir: c.config.OutputDir,
		Verbose:   c.config.Verbose,
		Elapsed:   elapsed,
		Scenario:  sim.Name,
	})
}

func runOptions(cfg *config.Config, logger *slog.Logger) (scenario.Options, error) {
	opts := scenario.Options{
		Arbitration: cfg.Simulation.Arbitration,
		Logger:      logger,
	}
	if cfg.Simulation.Start != "" {
		start, err := time.Parse("2006-01-02", cfg.Simulation.Start)
		if err != nil {
			return opts, fmt.Errorf("simulation.start: %w", err)
		}
		opts.Start = start
	}
	if cfg.Simulation.End != "" {
		end, err := time.Parse("2006-01-02", cfg.Simulation.End)
		if err != nil {
			return opts, fmt.Errorf("simulation.end: %w", err)
		}
		opts.End = end
	}
	return opts, nil
}
