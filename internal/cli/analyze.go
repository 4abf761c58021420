package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <data.csv>",
	Short: "Run the full analysis pipeline and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		report, runErr := a.coord.Run(cmd.Context(), args[0])
		if runErr != nil {
			return fmt.Errorf("analysis failed in phase %s: %s", runErr.Details["phase"], runErr.Message)
		}

		fmt.Println(report.Title)
		fmt.Println()
		fmt.Println("Issues:")
		for _, issue := range report.Issues {
			fmt.Printf("  [%s] %s\n", issue.Severity, issue.Description)
		}
		fmt.Println()
		fmt.Println("Recommendations:")
		for _, rec := range report.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		if a.cfg.Output.ReportPath != "" {
			fmt.Printf("\nHTML report written to %s\n", a.cfg.Output.ReportPath)
		}
		return nil
	},
}
