// internal/orchestrator/interfaces.go
package orchestrator

import (
	"context"

	"github.com/remedyhq/remedy-cli/api/schemas"
)

// AuditorAgent produces the remediation plan for one file.
type AuditorAgent interface {
	Run(ctx context.Context, filePath string) (*schemas.DefectReport, error)
}

// FixerAgent proposes and applies one repair attempt.
type FixerAgent interface {
	Run(ctx context.Context, filePath string, report *schemas.DefectReport, testErrors string) (*schemas.FixAttempt, error)
}

// TesterAgent generates and executes tests for one file.
type TesterAgent interface {
	Run(ctx context.Context, filePath string) (*schemas.TestOutcome, error)
}
