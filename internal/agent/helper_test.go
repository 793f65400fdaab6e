// internal/agent/helper_test.go
package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/audit"
	"github.com/remedyhq/remedy-cli/internal/config"
	"github.com/remedyhq/remedy-cli/internal/sandbox"
	"github.com/remedyhq/remedy-cli/internal/toolrunner"
)

const testModel = "google/gemini-2.0-flash-001"

// MockLLMClient is a mock implementation of the LLMClient interface.
type MockLLMClient struct {
	mock.Mock
}

func (m *MockLLMClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// testEnv bundles the real collaborators every agent needs: a sandbox over
// a temp dir, an audit log inside it, and a tool runner.
type testEnv struct {
	store    *sandbox.Store
	auditLog *audit.Logger
	runner   *toolrunner.Runner
	logPath  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	store, err := sandbox.NewStore(root, zap.NewNop())
	require.NoError(t, err)

	logPath := filepath.Join(t.TempDir(), "experiment_data.json")
	auditLog, err := audit.NewLogger(logPath, zap.NewNop())
	require.NoError(t, err)

	runner := toolrunner.NewRunner(config.ToolsConfig{
		PylintTimeout: 5 * time.Second,
		PytestTimeout: 5 * time.Second,
	}, zap.NewNop())

	return &testEnv{store: store, auditLog: auditLog, runner: runner, logPath: logPath}
}

// readAuditRecords decodes the experiment log written during a test.
func (e *testEnv) readAuditRecords(t *testing.T) []audit.Record {
	t.Helper()
	report, err := audit.ValidateFile(e.logPath)
	require.NoError(t, err)
	require.True(t, report.Valid(), "audit log should satisfy the schema: %v", report.Problems)

	data, err := os.ReadFile(e.logPath)
	require.NoError(t, err)
	var records []audit.Record
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

// installFakeTool puts an executable script named tool on PATH.
func installFakeTool(t *testing.T, tool, script string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, tool), []byte("#!/bin/sh\n"+script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}
