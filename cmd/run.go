// File: cmd/run.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/internal/agent"
	"github.com/remedyhq/remedy-cli/internal/audit"
	"github.com/remedyhq/remedy-cli/internal/config"
	"github.com/remedyhq/remedy-cli/internal/llmclient"
	"github.com/remedyhq/remedy-cli/internal/observability"
	"github.com/remedyhq/remedy-cli/internal/orchestrator"
	"github.com/remedyhq/remedy-cli/internal/sandbox"
	"github.com/remedyhq/remedy-cli/internal/toolrunner"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Audit, repair, and verify every Python file under the target directory",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			targetDir := viper.GetString("target-dir")
			if targetDir == "" {
				return fmt.Errorf("--target-dir is required")
			}
			if info, err := os.Stat(targetDir); err != nil || !info.IsDir() {
				return fmt.Errorf("target directory %q does not exist or is not a directory", targetDir)
			}

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			// The flag wins over both the config file and the default.
			if model, _ := cmd.Flags().GetString("model"); model != "" {
				cfg.LLM.Model = model
			}

			store, err := sandbox.NewStore(targetDir, logger)
			if err != nil {
				return err
			}

			auditLog, err := audit.NewLogger(cfg.Audit.LogPath, logger)
			if err != nil {
				return err
			}

			llm, err := llmclient.NewClient(cfg.LLM, logger)
			if err != nil {
				return err
			}

			runner := toolrunner.NewRunner(cfg.Tools, logger)
			model := cfg.LLM.Model

			orch := orchestrator.New(
				store,
				agent.NewAuditor(llm, store, runner, auditLog, model, logger),
				agent.NewFixer(llm, store, auditLog, model, logger),
				agent.NewTester(llm, store, runner, auditLog, model, logger),
				auditLog,
				model,
				cfg.Pipeline.MaxIterations,
				logger,
			)

			logger.Info("Starting remediation run",
				zap.String("target_dir", store.Root()),
				zap.String("model", model),
				zap.String("run_id", auditLog.RunID()),
			)

			result, err := orch.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), orchestrator.Summary(result))

			if !result.Stats.Success() {
				return fmt.Errorf("%d file(s) could not be repaired", result.Stats.FilesFailed)
			}
			return nil
		},
	}

	runCmd.Flags().String("target-dir", "", "directory with the Python files to repair (required)")
	runCmd.Flags().String("model", "", "override the configured LLM model identifier")
	_ = runCmd.MarkFlagRequired("target-dir")

	return runCmd
}
