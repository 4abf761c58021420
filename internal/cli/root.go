// Package cli implements the command surface of the analytics pipeline:
// analyze, metrics, export-traces, and evaluate. Each mode is a thin
// driver that wires a fresh pipeline, runs it over the given data file,
// and prints or exports the corresponding artifact.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Multi-agent business analytics pipeline",
	Long: `Runs a multi-agent analysis pipeline over business metric CSV files:
anomaly detection (IQR + Z-score), pattern analysis, prioritized
recommendations, critique, and an executive summary.

Commands:
  analyze       - Run the pipeline and print the report
  metrics       - Run the pipeline and export the metrics snapshot
  export-traces - Run the pipeline and export the observability traces
  evaluate      - Run the pipeline and score it against built-in cases

Example:
  analytics analyze data/sample_business_metrics.csv
  analytics evaluate data/sample_business_metrics.csv`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(exportTracesCmd)
	rootCmd.AddCommand(evaluateCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
