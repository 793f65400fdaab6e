// internal/agent/tester_test.go
package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/audit"
)

const fixedCode = "def divide(a, b):\n    if b == 0:\n        raise ValueError\n    return a / b\n"

func TestTesterGeneratesWritesAndRuns(t *testing.T) {
	installFakeTool(t, "pytest", `
echo "test_calc.py::test_divide PASSED"
echo "test_calc.py::test_divide_by_zero PASSED"
exit 0
`)

	env := newTestEnv(t)
	require.NoError(t, env.store.WriteFile("calc.py", fixedCode))
	target := filepath.Join(env.store.Root(), "calc.py")

	testCode := "from calc import *\n\ndef test_divide():\n    assert divide(10, 2) == 5\n"
	llm := &MockLLMClient{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return("```python\n"+testCode+"```", nil).Once()

	tester := NewTester(llm, env.store, env.runner, env.auditLog, testModel, zap.NewNop())
	outcome, err := tester.Run(context.Background(), target)
	require.NoError(t, err)

	assert.True(t, outcome.Succeeded)
	assert.Equal(t, 2, outcome.Passed)

	// The generated test file lands next to the module.
	written, err := env.store.ReadFile(filepath.Join(env.store.Root(), "test_calc.py"))
	require.NoError(t, err)
	assert.Contains(t, written, "def test_divide()")

	records := env.readAuditRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, "Tester_Agent", records[0].AgentName)
	assert.Equal(t, audit.ActionGeneration, records[0].Action)
	assert.Equal(t, audit.StatusSuccess, records[0].Status)
}

func TestTesterReportsFailures(t *testing.T) {
	installFakeTool(t, "pytest", `
echo "test_calc.py::test_divide PASSED"
echo "test_calc.py::test_divide_by_zero FAILED"
echo "short test summary info"
exit 1
`)

	env := newTestEnv(t)
	require.NoError(t, env.store.WriteFile("calc.py", fixedCode))
	target := filepath.Join(env.store.Root(), "calc.py")

	llm := &MockLLMClient{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return("```python\nfrom calc import *\n```", nil).Once()

	tester := NewTester(llm, env.store, env.runner, env.auditLog, testModel, zap.NewNop())
	outcome, err := tester.Run(context.Background(), target)
	require.NoError(t, err)

	assert.False(t, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Passed)
	assert.Equal(t, 1, outcome.Failed)
	assert.Contains(t, outcome.Stdout, "FAILED")

	records := env.readAuditRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, audit.StatusFailure, records[0].Status)
}

func TestTesterPromptNamesTheModule(t *testing.T) {
	installFakeTool(t, "pytest", "exit 0\n")

	env := newTestEnv(t)
	require.NoError(t, env.store.WriteFile("string_utils.py", "def shout(s):\n    return s.upper()\n"))
	target := filepath.Join(env.store.Root(), "string_utils.py")

	var prompt string
	llm := &MockLLMClient{}
	llm.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.Get(1).(schemas.GenerationRequest).UserPrompt
	}).Return("```python\nfrom string_utils import *\n```", nil).Once()

	tester := NewTester(llm, env.store, env.runner, env.auditLog, testModel, zap.NewNop())
	_, err := tester.Run(context.Background(), target)
	require.NoError(t, err)

	assert.Contains(t, prompt, "from string_utils import *")
	assert.Contains(t, prompt, "MODULE: string_utils")
}

func TestTesterLLMFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.WriteFile("calc.py", fixedCode))
	target := filepath.Join(env.store.Root(), "calc.py")

	llm := &MockLLMClient{}
	llm.On("Generate", mock.Anything, mock.Anything).
		Return("", errors.New("ERROR: API rate limit exceeded")).Once()

	tester := NewTester(llm, env.store, env.runner, env.auditLog, testModel, zap.NewNop())
	_, err := tester.Run(context.Background(), target)
	require.Error(t, err)

	records := env.readAuditRecords(t)
	require.Len(t, records, 1)
	assert.Equal(t, audit.StatusError, records[0].Status)
}
