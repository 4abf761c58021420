package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportTracesCmd = &cobra.Command{
	Use:   "export-traces <data.csv>",
	Short: "Run the pipeline and export the observability traces",
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

		if expErr := a.collector.ExportTraces(a.cfg.Output.TracesPath); expErr != nil {
			return expErr
		}

		trace, ok := a.collector.GetTrace(a.coord.TraceID())
		fmt.Printf("Traces written to %s\n", a.cfg.Output.TracesPath)
		if ok {
			fmt.Printf("  trace %s: %d spans\n", trace.TraceID, len(trace.Spans))
		}
		return nil
	},
}
