// internal/agent/auditor.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/audit"
	"github.com/remedyhq/remedy-cli/internal/llmutil"
	"github.com/remedyhq/remedy-cli/internal/sandbox"
	"github.com/remedyhq/remedy-cli/internal/toolrunner"
)

// Auditor analyzes one file at a time and produces the DefectReport that
// drives every subsequent repair iteration for that file.
type Auditor struct {
	base
	llm    schemas.LLMClient
	store  *sandbox.Store
	runner *toolrunner.Runner
}

// NewAuditor wires the Auditor's dependencies.
func NewAuditor(llm schemas.LLMClient, store *sandbox.Store, runner *toolrunner.Runner, auditLog *audit.Logger, model string, logger *zap.Logger) *Auditor {
	return &Auditor{
		base: base{
			name:     "Auditor_Agent",
			model:    model,
			auditLog: auditLog,
			logger:   logger.Named("auditor"),
		},
		llm:    llm,
		store:  store,
		runner: runner,
	}
}

// Run reads filePath, gathers the static signal (syntax check and a pylint
// pass), and asks the model for a structured remediation plan. A reply that
// is not valid JSON still yields a usable report: empty findings, with
// ParseSucceeded false and the raw reply retained.
func (a *Auditor) Run(ctx context.Context, filePath string) (*schemas.DefectReport, error) {
	code, err := a.store.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("auditor cannot read %q: %w", filePath, err)
	}

	syntaxValid, syntaxError := toolrunner.CheckSyntax(code)
	if !syntaxValid {
		a.logger.Warn("Syntax error detected before audit", zap.String("file", filePath), zap.String("error", syntaxError))
	}
	lint := a.runner.RunPylint(ctx, filePath)

	prompt := buildAuditPrompt(filePath, code, syntaxValid, syntaxError, &lint)

	reply, err := a.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: auditorSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		a.logAction(audit.ActionAnalysis, map[string]any{
			"file_analyzed":   filePath,
			"input_prompt":    prompt,
			"output_response": err.Error(),
		}, audit.StatusError)
		return nil, fmt.Errorf("auditor generation failed: %w", err)
	}

	report := a.parseReply(reply, filePath)

	status := audit.StatusSuccess
	if !report.ParseSucceeded {
		status = audit.StatusFailure
	}
	a.logAction(audit.ActionAnalysis, map[string]any{
		"file_analyzed":   filePath,
		"input_prompt":    prompt,
		"output_response": reply,
		"syntax_valid":    syntaxValid,
		"pylint_score":    lint.Score,
		"issues_found":    report.IssueCount(),
	}, status)

	a.logger.Info("Audit complete",
		zap.String("file", filePath),
		zap.Int("issues", report.IssueCount()),
		zap.Bool("parsed", report.ParseSucceeded),
	)
	return report, nil
}

// parseReply decodes the model's JSON report, falling back to an empty
// report when decoding fails.
func (a *Auditor) parseReply(reply, filePath string) *schemas.DefectReport {
	report, err := llmutil.ParseJSONResponse[schemas.DefectReport](reply)
	if err != nil {
		a.logger.Warn("Audit reply was not valid JSON", zap.Error(err))
		return &schemas.DefectReport{
			FilePath:       filePath,
			ParseSucceeded: false,
			RawReply:       reply,
		}
	}
	report.FilePath = filePath
	report.ParseSucceeded = true
	report.RawReply = reply
	return report
}
