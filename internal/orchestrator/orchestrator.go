// internal/orchestrator/orchestrator.go

// Package orchestrator drives the self-healing loop: audit once per file,
// then alternate repair and verification until the tests pass or the
// iteration budget runs out.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/audit"
	"github.com/remedyhq/remedy-cli/internal/llmutil"
	"github.com/remedyhq/remedy-cli/internal/sandbox"
)

// Truncation limits applied to test output before it is fed back into the
// next repair prompt.
const (
	maxStdoutFeedback = 2000
	maxStderrFeedback = 1000
)

// RunResult is the final outcome of one invocation.
type RunResult struct {
	Stats schemas.RunStatistics
	Files []schemas.FileResult
}

// Orchestrator owns the per-file pipeline and the run-level bookkeeping.
type Orchestrator struct {
	store         *sandbox.Store
	auditor       AuditorAgent
	fixer         FixerAgent
	tester        TesterAgent
	auditLog      *audit.Logger
	model         string
	maxIterations int
	logger        *zap.Logger
}

// New assembles an orchestrator from its collaborators.
func New(store *sandbox.Store, auditor AuditorAgent, fixer FixerAgent, tester TesterAgent, auditLog *audit.Logger, model string, maxIterations int, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:         store,
		auditor:       auditor,
		fixer:         fixer,
		tester:        tester,
		auditLog:      auditLog,
		model:         model,
		maxIterations: maxIterations,
		logger:        logger.Named("orchestrator"),
	}
}

// Run processes every source file under the sandbox root. Files are handled
// independently: one file exhausting its iterations does not stop the next.
// Run returns an error only when no work is possible at all or the context
// is cancelled mid-run.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	files, err := o.store.ListSourceFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Python files found in %s", o.store.Root())
	}

	o.logger.Info("Run starting", zap.Int("files", len(files)), zap.String("target_dir", o.store.Root()))
	o.logRunEvent("run_started", map[string]any{"target_dir": o.store.Root(), "file_count": len(files)})

	result := &RunResult{}
	for _, file := range files {
		fileResult, err := o.processFile(ctx, file)
		if err != nil {
			// Cancellation aborts the whole run; anything else fails just
			// this file.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.Error("File processing aborted", zap.String("file", file), zap.Error(err))
			fileResult = &schemas.FileResult{FilePath: file, Outcome: schemas.OutcomeExhausted}
		}

		result.Files = append(result.Files, *fileResult)
		result.Stats.FilesProcessed++
		result.Stats.TotalIterations += fileResult.Iterations
		if fileResult.Outcome == schemas.OutcomeSuccess {
			result.Stats.FilesFixed++
		} else {
			result.Stats.FilesFailed++
		}
	}

	o.logRunEvent("run_finished", map[string]any{
		"files_processed":  result.Stats.FilesProcessed,
		"files_fixed":      result.Stats.FilesFixed,
		"files_failed":     result.Stats.FilesFailed,
		"total_iterations": result.Stats.TotalIterations,
	})
	o.logger.Info("Run finished",
		zap.Int("processed", result.Stats.FilesProcessed),
		zap.Int("fixed", result.Stats.FilesFixed),
		zap.Int("failed", result.Stats.FilesFailed),
		zap.Int("iterations", result.Stats.TotalIterations),
	)
	return result, nil
}

// processFile runs the audit stage once, then up to maxIterations passes of
// repair and verification. Every pass through the loop consumes one
// iteration slot, whichever stage of it failed.
func (o *Orchestrator) processFile(ctx context.Context, filePath string) (*schemas.FileResult, error) {
	fileName := filepath.Base(filePath)
	o.logger.Info("Processing file", zap.String("file", fileName))

	report, err := o.auditor.Run(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("audit stage failed for %s: %w", fileName, err)
	}
	if !report.ParseSucceeded {
		o.logger.Warn("Audit report unusable, repairing blind", zap.String("file", fileName))
	} else {
		o.logger.Info("Audit finished", zap.String("file", fileName), zap.Int("issues", report.IssueCount()))
	}

	fileResult := &schemas.FileResult{
		FilePath: filePath,
		Outcome:  schemas.OutcomeExhausted,
		Report:   report,
	}

	testErrors := ""
	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		fileResult.Iterations = iteration
		o.logger.Info("Repair iteration",
			zap.String("file", fileName),
			zap.Int("iteration", iteration),
			zap.Int("max_iterations", o.maxIterations),
		)

		attempt, err := o.fixer.Run(ctx, filePath, report, testErrors)
		if err != nil {
			return nil, fmt.Errorf("repair stage failed for %s: %w", fileName, err)
		}
		if !attempt.Succeeded {
			o.logger.Warn("Fix attempt rejected", zap.String("file", fileName), zap.String("reason", attempt.Err))
			continue
		}

		outcome, err := o.tester.Run(ctx, filePath)
		if err != nil {
			return nil, fmt.Errorf("verification stage failed for %s: %w", fileName, err)
		}
		fileResult.LastTest = outcome

		if outcome.Succeeded {
			o.logger.Info("All tests passing",
				zap.String("file", fileName),
				zap.Int("passed", outcome.Passed),
				zap.Int("iterations", iteration),
			)
			fileResult.Outcome = schemas.OutcomeSuccess
			return fileResult, nil
		}

		o.logger.Warn("Tests still failing",
			zap.String("file", fileName),
			zap.Int("failed", outcome.Failed),
			zap.Int("errors", outcome.Errors),
		)
		testErrors = formatTestErrors(outcome)
	}

	o.logger.Warn("Iteration budget exhausted",
		zap.String("file", fileName),
		zap.Int("iterations", o.maxIterations),
	)
	return fileResult, nil
}

// formatTestErrors condenses a failed test run into the feedback block for
// the next repair prompt, bounding both streams.
func formatTestErrors(outcome *schemas.TestOutcome) string {
	var parts []string
	if outcome.Stdout != "" {
		parts = append(parts, "Test STDOUT:", llmutil.Truncate(outcome.Stdout, maxStdoutFeedback))
	}
	if outcome.Stderr != "" {
		parts = append(parts, "\nTest STDERR:", llmutil.Truncate(outcome.Stderr, maxStderrFeedback))
	}
	if outcome.Err != "" {
		parts = append(parts, "\nTest runner error:", outcome.Err)
	}
	return strings.Join(parts, "\n")
}

// logRunEvent appends a run lifecycle record to the experiment log.
func (o *Orchestrator) logRunEvent(event string, details map[string]any) {
	details["event"] = event
	if err := o.auditLog.Log("Orchestrator", o.model, audit.ActionDebug, details, audit.StatusSuccess); err != nil {
		o.logger.Warn("Failed to append run event", zap.Error(err))
	}
}

// Summary renders a human-readable recap of the run for the terminal.
func Summary(result *RunResult) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("  Remediation summary\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "  Files processed:  %d\n", result.Stats.FilesProcessed)
	fmt.Fprintf(&b, "  Files fixed:      %d\n", result.Stats.FilesFixed)
	fmt.Fprintf(&b, "  Files failed:     %d\n", result.Stats.FilesFailed)
	fmt.Fprintf(&b, "  Total iterations: %d\n", result.Stats.TotalIterations)
	for _, f := range result.Files {
		marker := "FIXED"
		if f.Outcome != schemas.OutcomeSuccess {
			marker = "FAILED"
		}
		fmt.Fprintf(&b, "    [%s] %s (%d iterations)\n", marker, filepath.Base(f.FilePath), f.Iterations)
	}
	if result.Stats.Success() {
		b.WriteString("  All files repaired.\n")
	} else {
		b.WriteString("  Some files still need manual attention.\n")
	}
	b.WriteString(strings.Repeat("=", 60) + "\n")
	return b.String()
}
