package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Codedkv/capstone-agents-mvp/internal/evaluation"
)

var evaluationReportPath string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <data.csv>",
	Short: "Run the pipeline and score it against the built-in cases",
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

		evaluator := evaluation.New(a.collector, a.log)
		scores := evaluator.RunFull(cmd.Context(), a.loader, nil)
		if expErr := evaluator.ExportJSON(evaluationReportPath); expErr != nil {
			return expErr
		}

		report := evaluator.GenerateReport()
		fmt.Printf("Evaluation report written to %s\n", evaluationReportPath)
		fmt.Printf("  effectiveness: %.1f\n", scores["effectiveness_score"])
		fmt.Printf("  efficiency:    %.1f\n", scores["efficiency_score"])
		fmt.Printf("  robustness:    %.1f\n", scores["robustness_score"])
		fmt.Printf("  overall:       %.1f\n", report.OverallQuality)
		return nil
	},
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluationReportPath, "report", "output/evaluation_report.json", "evaluation report output path")
}
