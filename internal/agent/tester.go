// internal/agent/tester.go
package agent

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
	"github.com/remedyhq/remedy-cli/internal/toolrunner"
)

// Tester is The Judge: it generates a pytest file for the repaired module,
// writes it next to the module, and executes it.
type Tester struct {
	base
	llm    schemas.LLMClient
	store  *sandbox.Store
	runner *toolrunner.Runner
}

// NewTester wires the Tester's dependencies.
func NewTester(llm schemas.LLMClient, store *sandbox.Store, runner *toolrunner.Runner, auditLog *audit.Logger, model string, logger *zap.Logger) *Tester {
	return &Tester{
		base: base{
			name:     "Tester_Agent",
			model:    model,
			auditLog: auditLog,
			logger:   logger.Named("tester"),
		},
		llm:    llm,
		store:  store,
		runner: runner,
	}
}

// Run generates tests for filePath, stores them as test_<module>.py under
// the sandbox root, and runs them. The outcome carries the pytest counters
// and the raw output that the Fixer consumes on the next iteration.
func (t *Tester) Run(ctx context.Context, filePath string) (*schemas.TestOutcome, error) {
	code, err := t.store.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("tester cannot read %q: %w", filePath, err)
	}

	prompt := buildTestPrompt(filePath, code)

	reply, err := t.llm.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: testerSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		t.logAction(audit.ActionGeneration, map[string]any{
			"file_tested":     filePath,
			"input_prompt":    prompt,
			"output_response": err.Error(),
		}, audit.StatusError)
		return nil, fmt.Errorf("tester generation failed: %w", err)
	}

	testCode := llmutil.ExtractPythonCode(reply)
	moduleName := strings.TrimSuffix(filepath.Base(filePath), ".py")
	testFile := filepath.Join(t.store.Root(), fmt.Sprintf("test_%s.py", moduleName))

	if err := t.store.WriteFile(testFile, testCode); err != nil {
		t.logAction(audit.ActionGeneration, map[string]any{
			"file_tested":     filePath,
			"input_prompt":    prompt,
			"output_response": reply,
			"write_error":     err.Error(),
		}, audit.StatusError)
		return nil, fmt.Errorf("tester cannot write %q: %w", testFile, err)
	}

	outcome := t.runner.RunPytest(ctx, testFile, t.store.Root())

	status := audit.StatusSuccess
	if !outcome.Succeeded {
		status = audit.StatusFailure
	}
	t.logAction(audit.ActionGeneration, map[string]any{
		"file_tested":     filePath,
		"input_prompt":    prompt,
		"output_response": reply,
		"test_file":       testFile,
		"tests_passed":    outcome.Passed,
		"tests_failed":    outcome.Failed,
	}, status)

	t.logger.Info("Test run complete",
		zap.String("file", filePath),
		zap.Int("passed", outcome.Passed),
		zap.Int("failed", outcome.Failed),
		zap.Int("errors", outcome.Errors),
	)
	return &outcome, nil
}
