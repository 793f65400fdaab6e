// File: cmd/validate_logs.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remedyhq/remedy-cli/internal/audit"
)

// newValidateLogsCmd creates the `validate-logs` command, which checks the
// experiment log against the record schema without running the pipeline.
func newValidateLogsCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate-logs",
		Short: "Check the experiment audit log for schema violations",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("audit.log_path")
			if flagPath, _ := cmd.Flags().GetString("log-file"); flagPath != "" {
				path = flagPath
			}

			report, err := audit.ValidateFile(path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d\n", report.TotalEntries)
			for action, count := range report.ByAction {
				fmt.Fprintf(out, "  %-12s %d\n", action, count)
			}
			for status, count := range report.ByStatus {
				fmt.Fprintf(out, "  %-12s %d\n", status, count)
			}

			if !report.Valid() {
				for _, p := range report.Problems {
					fmt.Fprintf(out, "PROBLEM: %s\n", p)
				}
				return fmt.Errorf("audit log has %d schema problem(s)", len(report.Problems))
			}

			fmt.Fprintln(out, "Audit log is valid.")
			return nil
		},
	}

	validateCmd.Flags().String("log-file", "", "path to the audit log (defaults to audit.log_path)")
	return validateCmd
}
