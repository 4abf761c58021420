package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <data.csv>",
	Short: "Run the pipeline and export the metrics snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		if _, runErr := a.coord.Run(cmd.Context(), args[0]); runErr != nil {
			return fmt.Errorf("analysis failed in phase %s: %s", runErr.Details["phase"], runErr.Message)
		}

		if expErr := a.collector.ExportMetrics(a.cfg.Output.MetricsPath); expErr != nil {
			return expErr
		}

		snap := a.collector.MetricsSummary()
		fmt.Printf("Metrics written to %s\n", a.cfg.Output.MetricsPath)
		fmt.Printf("  agent calls:     %d\n", snap.TotalAgentCalls)
		fmt.Printf("  tool calls:      %d\n", snap.TotalToolCalls)
		fmt.Printf("  errors:          %d\n", snap.ErrorCount)
		fmt.Printf("  anomalies found: %d\n", snap.AnomaliesFound)
		fmt.Printf("  avg latency:     %.1f ms\n", snap.AvgLatencyMS)
		fmt.Printf("  success rate:    %.2f\n", snap.SuccessRate)
		return nil
	},
}
