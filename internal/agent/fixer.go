// internal/agent/fixer.go
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

// Fixer rewrites a file according to the Auditor's report. The sandbox
// accepts its output only after the proposed code passes a syntax check, so
// a malformed reply can never clobber the file under repair.
type Fixer struct {
	base
	llm   schemas.LLMClient
	store *sandbox.Store
}

// NewFixer wires the Fixer's dependencies.
func NewFixer(llm schemas.LLMClient, store *sandbox.Store, auditLog *audit.Logger, model string, logger *zap.Logger) *Fixer {
	return &Fixer{
		base: base{
			name:     "Fixer_Agent",
			model:    model,
			auditLog: auditLog,
			logger:   logger.Named("fixer"),
		},
		llm:   llm,
		store: store,
	}
}

// Run asks the model for a corrected version of filePath. On the first
// iteration testErrors is empty; later iterations pass the formatted
// failures of the previous test run so the model can react to them.
//
// The returned attempt has Succeeded true only when the proposed code was
// syntactically valid and written back to the sandbox.
func (f *Fixer) Run(ctx context.Context, filePath string, report *schemas.DefectReport, testErrors string) (*schemas.FixAttempt, error) {
	originalCode, err := f.store.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("fixer cannot read %q: %w", filePath, err)
	}

	prompt := buildFixPrompt(filePath, originalCode, report, testErrors)

	reply, err := f.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: fixerSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		f.logAction(audit.ActionFix, map[string]any{
			"file_fixed":      filePath,
			"input_prompt":    prompt,
			"output_response": err.Error(),
		}, audit.StatusError)
		return nil, fmt.Errorf("fixer generation failed: %w", err)
	}

	fixedCode := llmutil.ExtractPythonCode(reply)
	attempt := &schemas.FixAttempt{
		OriginalCode: originalCode,
		ProposedCode: fixedCode,
	}

	syntaxValid, syntaxError := toolrunner.CheckSyntax(fixedCode)
	attempt.SyntaxValid = syntaxValid
	if !syntaxValid {
		attempt.SyntaxError = syntaxError
		attempt.Err = fmt.Sprintf("proposed code has syntax errors: %s", syntaxError)
		f.logAction(audit.ActionFix, map[string]any{
			"file_fixed":      filePath,
			"input_prompt":    prompt,
			"output_response": reply,
			"syntax_error":    syntaxError,
		}, audit.StatusFailure)
		f.logger.Warn("Rejected fix with invalid syntax", zap.String("file", filePath), zap.String("error", syntaxError))
		return attempt, nil
	}

	if err := f.store.WriteFile(filePath, fixedCode); err != nil {
		attempt.Err = err.Error()
		f.logAction(audit.ActionFix, map[string]any{
			"file_fixed":      filePath,
			"input_prompt":    prompt,
			"output_response": reply,
			"write_error":     err.Error(),
		}, audit.StatusError)
		return attempt, nil
	}

	attempt.Succeeded = true
	f.logAction(audit.ActionFix, map[string]any{
		"file_fixed":      filePath,
		"input_prompt":    prompt,
		"output_response": reply,
		"original_lines":  countLines(originalCode),
		"fixed_lines":     countLines(fixedCode),
	}, audit.StatusSuccess)

	f.logger.Info("Fix applied", zap.String("file", filePath))
	return attempt, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
