// internal/agent/agent.go

// Package agent implements the three LLM-backed roles of the remediation
// pipeline: The Auditor analyzes a file, The Fixer rewrites it, and The
// Judge generates and runs tests against the result. Every agent action,
// successful or not, is appended to the experiment audit log.
package agent

import (
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/internal/audit"
)

// base carries the identity and audit plumbing shared by all agents.
type base struct {
	name     string
	model    string
	auditLog *audit.Logger
	logger   *zap.Logger
}

// logAction appends an audit record, demoting audit write failures to a log
// warning so bookkeeping can never abort the pipeline.
func (b *base) logAction(action audit.ActionType, details map[string]any, status audit.Status) {
	if err := b.auditLog.Log(b.name, b.model, action, details, status); err != nil {
		b.logger.Warn("Failed to append audit record", zap.Error(err))
	}
}
