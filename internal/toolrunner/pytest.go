// internal/toolrunner/pytest.go
package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/api/schemas"
)

// RunPytest executes a single test file from inside rootDir and summarizes
// the verbose output. Pass/fail/error totals come from counting pytest's
// per-test result markers, and Succeeded requires zero failures and zero
// errors. Tool-level problems (pytest missing, timeout) are reported through
// the outcome's Err field.
func (r *Runner) RunPytest(ctx context.Context, testFile, rootDir string) schemas.TestOutcome {
	outcome := schemas.TestOutcome{TestFile: testFile}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.PytestTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pytest", testFile, "-v", "--tb=short")
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), fmt.Sprintf("PYTHONPATH=%s%c%s", rootDir, os.PathListSeparator, os.Getenv("PYTHONPATH")))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	outcome.Stdout = stdout.String()
	outcome.Stderr = stderr.String()

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		r.logger.Warn("pytest timed out", zap.String("test_file", testFile), zap.Duration("timeout", r.cfg.PytestTimeout))
		outcome.Err = "pytest timed out"
		return outcome
	case err != nil && errors.Is(err, exec.ErrNotFound):
		outcome.Err = "pytest is not installed"
		return outcome
	}
	// A non-zero exit with output is just a failing test run; keep counting.

	outcome.Passed = strings.Count(outcome.Stdout, " PASSED")
	outcome.Failed = strings.Count(outcome.Stdout, " FAILED")
	outcome.Errors = strings.Count(outcome.Stdout, " ERROR")
	outcome.Succeeded = outcome.Failed == 0 && outcome.Errors == 0

	r.logger.Debug("pytest run complete",
		zap.String("test_file", testFile),
		zap.Int("passed", outcome.Passed),
		zap.Int("failed", outcome.Failed),
		zap.Int("errors", outcome.Errors),
	)
	return outcome
}
