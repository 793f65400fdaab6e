// internal/agent/prompts.go
package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/remedyhq/remedy-cli/api/schemas"
	"github.com/remedyhq/remedy-cli/internal/toolrunner"
)

const auditorSystemPrompt = `You are The Auditor, the analysis agent of an automated code remediation system.

MISSION: Analyze Python code and produce a detailed remediation plan.

REQUIRED ANALYSIS:
1. SYNTAX ERRORS: identify parse failures (missing colons, unbalanced parentheses, bad indentation)
2. LOGIC BUGS: detect behavioral defects (division by zero, off-by-one, wrong operators)
3. CODE SMELLS: flag bad practice (non-descriptive names, missing docstrings, disordered imports)
4. QUALITY: judge PEP8 conformance and readability

OUTPUT FORMAT (strict JSON):
{
    "file_path": "path/to/file.py",
    "syntax_errors": [
        {"line": N, "description": "...", "fix_suggestion": "..."}
    ],
    "logic_bugs": [
        {"line": N, "function": "name", "description": "...", "expected_behavior": "...", "fix_suggestion": "..."}
    ],
    "code_smells": [
        {"line": N, "type": "naming|docstring|import|other", "description": "...", "fix_suggestion": "..."}
    ],
    "overall_score": 0-10,
    "priority_fixes": ["fix1", "fix2", ...]
}

RULES:
- Be precise and concise
- Rank blocking errors (syntax) first, then logic bugs
- For logic bugs, infer the code's intent from function names
- Emit valid JSON only`

const fixerSystemPrompt = `You are The Fixer, the repair agent of an automated code remediation system.

MISSION: Correct Python code according to The Auditor's plan.

CORRECTIONS TO APPLY:
1. SYNTAX: fix every syntax error (missing colons, parentheses, indentation)
2. LOGIC: repair logic bugs while honoring the code's intent
3. STYLE: improve variable names, add docstrings
4. FORMAT: follow PEP8 (sorted imports, spacing, indentation)

MANDATORY OUTPUT FORMAT:
Return ONLY the corrected Python code, wrapped in markdown fences:

` + "```python" + `
# the complete corrected code here
` + "```" + `

STRICT RULES:
- Return ONLY the code block, no explanation before or after
- The code MUST be syntactically correct and runnable
- Preserve the intended business logic
- Add Google-style docstrings to functions and classes
- Use descriptive English variable names
- Handle edge cases (division by zero, empty lists, etc.)
- Do NOT add explanatory text, ONLY the code`

const testerSystemPrompt = `You are The Judge, the verification agent of an automated code remediation system.

MISSION: Generate unit tests that validate the FUNCTIONAL CORRECTNESS of the code.

TEST STRATEGY:
1. UNDERSTAND INTENT: infer expected behavior from function and class names
2. FUNCTIONAL TESTS: verify the code does what it is supposed to do
3. EDGE CASES: cover boundary inputs (empty lists, zeros, negative values)
4. PRECISE ASSERTIONS: assert exact return values

OUTPUT FORMAT:
` + "```python" + `
import pytest

# tests here
` + "```" + `

REASONING EXAMPLES:
- "calculate_average(numbers)" expects a mean -> assert calculate_average([10, 20]) == 15
- "is_even(n)" checks parity -> assert is_even(4) == True, assert is_even(3) == False
- "find_max(list)" finds the maximum -> assert find_max([1, 5, 3]) == 5

RULES:
- Generate tests that FAIL while the bug is present
- Give every function at least 2-3 tests
- Include edge case tests
- Use pytest
- The test file must be self-contained and runnable`

// buildAuditPrompt assembles the Auditor's user prompt from the file, its
// syntax state, and an optional initial pylint pass.
func buildAuditPrompt(filePath, code string, syntaxValid bool, syntaxError string, lint *toolrunner.PylintReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this Python file and produce a remediation plan:\n\n")
	fmt.Fprintf(&b, "FILE: %s\n\n", filePath)
	fmt.Fprintf(&b, "SYNTAX VALID: %t\n", syntaxValid)
	if syntaxError != "" {
		fmt.Fprintf(&b, "SYNTAX ERROR: %s\n", syntaxError)
	}
	if lint != nil && lint.Err == "" {
		fmt.Fprintf(&b, "PYLINT SCORE: %.2f/10 (%d issues)\n", lint.Score, lint.IssuesCount)
		for i, msg := range lint.Messages {
			if i >= 15 {
				fmt.Fprintf(&b, "  ... and %d more\n", len(lint.Messages)-15)
				break
			}
			fmt.Fprintf(&b, "  - line %d [%s]: %s\n", msg.Line, msg.Symbol, msg.Message)
		}
	}
	fmt.Fprintf(&b, "\nCODE:\n```python\n%s\n```\n\n", code)
	b.WriteString("Produce the JSON report with suggested corrections.\n")
	return b.String()
}

// buildFixPrompt assembles the Fixer's user prompt from the original code,
// the audit report, and, on later iterations, the previous test failures.
func buildFixPrompt(filePath, originalCode string, report *schemas.DefectReport, testErrors string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File to fix: %s\n\n", filePath)
	fmt.Fprintf(&b, "Original code:\n```python\n%s\n```\n\n", originalCode)
	b.WriteString("Audit report:\n")

	if len(report.SyntaxIssues) > 0 {
		b.WriteString("\nSyntax errors:\n")
		for _, issue := range report.SyntaxIssues {
			fmt.Fprintf(&b, "  - Line %d: %s\n", issue.Line, issue.Description)
			fmt.Fprintf(&b, "    Suggestion: %s\n", issue.FixHint)
		}
	}
	if len(report.LogicBugs) > 0 {
		b.WriteString("\nLogic bugs:\n")
		for _, bug := range report.LogicBugs {
			fmt.Fprintf(&b, "  - Line %d (%s): %s\n", bug.Line, bug.Function, bug.Description)
			fmt.Fprintf(&b, "    Expected behavior: %s\n", bug.ExpectedBehavior)
			fmt.Fprintf(&b, "    Suggestion: %s\n", bug.FixHint)
		}
	}
	if len(report.CodeSmells) > 0 {
		b.WriteString("\nCode smells:\n")
		for _, smell := range report.CodeSmells {
			fmt.Fprintf(&b, "  - Line %d (%s): %s\n", smell.Line, smell.Category, smell.Description)
			fmt.Fprintf(&b, "    Suggestion: %s\n", smell.FixHint)
		}
	}

	if testErrors != "" {
		fmt.Fprintf(&b, "\nTest failures from the previous attempt:\n%s\n\nFix the code so these tests pass.\n", testErrors)
	}

	b.WriteString("\nProduce the complete, working corrected code.\n")
	return b.String()
}

// buildTestPrompt assembles The Judge's user prompt for one module.
func buildTestPrompt(filePath, code string) string {
	moduleName := strings.TrimSuffix(filepath.Base(filePath), ".py")

	var b strings.Builder
	b.WriteString("Generate pytest unit tests for this Python file:\n\n")
	fmt.Fprintf(&b, "FILE: %s\nMODULE: %s\n\n", filePath, moduleName)
	fmt.Fprintf(&b, "CODE UNDER TEST:\n```python\n%s\n```\n\n", code)
	b.WriteString("INSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. Import the module with: from %s import *\n", moduleName)
	b.WriteString("2. Test each function with precise assertions\n")
	b.WriteString("3. Include edge case tests\n")
	b.WriteString("4. Tests must assert the EXPECTED behavior (not the buggy behavior)\n\n")
	b.WriteString("Generate the complete test file.\n")
	return b.String()
}
