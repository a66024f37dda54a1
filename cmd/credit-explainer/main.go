package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Configuration flags
	configFile string
	modelPath  string
	dataPath   string
	classNames string
	reportPath string
	plotsDir   string

	// Logging flags
	logLevel  string
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "credit-explainer",
	Short: "Explain credit score model predictions with feature attributions",
	Long: `credit-explainer computes per-feature attributions for a trained credit
score classifier, summarizes global feature importance, renders summary and
waterfall plots and exports a JSON explanation report.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (CREDIT_EXPLAINER_* prefix)
3. Config file (--config, or config.yaml in /etc/credit-explainer, ~/.credit-explainer, ./configs, .)
4. Default values

Examples:
  credit-explainer run                        # Check data and model, then explain
  credit-explainer explain --classes Poor,Standard,Good
  credit-explainer check-model --model models/credit_model.yaml
  credit-explainer history --limit 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Path to config file")
	flags.StringVar(&modelPath, "model", "", "Path to the trained model (overrides model.path)")
	flags.StringVar(&dataPath, "data", "", "Path to the processed feature CSV (overrides data.path)")
	flags.StringVar(&classNames, "classes", "", "Comma separated class names in model output order")
	flags.StringVar(&reportPath, "report", "", "Path of the exported JSON report (overrides report.path)")
	flags.StringVar(&plotsDir, "plots-dir", "", "Directory for rendered plots (overrides plots.dir)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console, json")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(checkModelCmd)
	rootCmd.AddCommand(checkDataCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
