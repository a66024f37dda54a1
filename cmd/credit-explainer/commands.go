package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/credit-explainer/internal/adapters/cli"
	"github.com/mikey/credit-explainer/internal/config"
	"github.com/mikey/credit-explainer/internal/di"
	"github.com/mikey/credit-explainer/internal/logging"
	"github.com/mikey/credit-explainer/internal/ports"
)

var historyLimit int

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Compute attributions, render plots and export the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *cli.Runner) error {
			_, err := r.Explain(ctx)
			return err
		})
	},
}

var checkModelCmd = &cobra.Command{
	Use:   "check-model",
	Short: "Load the model and verify it predicts class probabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *cli.Runner) error {
			return r.CheckModel(ctx)
		})
	},
}

var checkDataCmd = &cobra.Command{
	Use:   "check-data",
	Short: "Load the feature data and print its shape and columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *cli.Runner) error {
			return r.CheckData(ctx)
		})
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the data check, the model check and the explanation in order",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *cli.Runner) error {
			return r.RunAll(ctx)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded explanation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *cli.Runner) error {
			return r.History(ctx, historyLimit)
		})
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := map[string]string{
		"model":      "model.path",
		"data":       "data.path",
		"report":     "report.path",
		"plots-dir":  "plots.dir",
		"log-level":  "logging.level",
		"log-format": "logging.format",
	}
	for flag, key := range overrides {
		if flags.Changed(flag) {
			value, _ := flags.GetString(flag)
			cfg.Set(key, value)
		}
	}
	if flags.Changed("classes") {
		cfg.Set("explain.class_names", config.ParseClassNames([]string{classNames}))
	}
	if verbose {
		cfg.Set("logging.level", "debug")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRunner builds the container and runs fn with the injected runner
func withRunner(cmd *cobra.Command, fn func(ctx context.Context, r *cli.Runner) error) error {
	bootstrap, err := logging.InitConsoleLogger(verbose, logFormat == "json")
	if err != nil {
		return err
	}
	defer bootstrap.Sync()

	cfg, err := loadConfig(cmd)
	if err != nil {
		bootstrap.Error("Failed to load configuration", zap.Error(err))
		return err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		bootstrap.Debug("Loaded configuration from file", zap.String("file", used))
	}

	container, err := di.BuildContainer(cfg, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Invoke(func(logger *zap.Logger, runner *cli.Runner, history ports.HistoryRepository) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := history.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close run history", zap.Error(err))
				}
			}
		}()

		if err := fn(ctx, runner); err != nil {
			if hint := errors.FlattenHints(err); hint != "" {
				logger.Info("Hint", zap.String("hint", hint))
			}
			return err
		}
		return nil
	})
}
