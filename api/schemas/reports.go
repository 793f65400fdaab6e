package schemas

// SyntaxIssue is a single parse-level problem identified by the Auditor.
type SyntaxIssue struct {
	Line        int    `json:"line"`
	Description string `json:"description"`
	FixHint     string `json:"fix_suggestion"`
}

// LogicBug describes behavior that diverges from the code's apparent intent.
type LogicBug struct {
	Line             int    `json:"line"`
	Function         string `json:"function"`
	Description      string `json:"description"`
	ExpectedBehavior string `json:"expected_behavior"`
	FixHint          string `json:"fix_suggestion"`
}

// CodeSmell flags a style or maintainability problem.
type CodeSmell struct {
	Line        int    `json:"line"`
	Category    string `json:"type"`
	Description string `json:"description"`
	FixHint     string `json:"fix_suggestion"`
}

// DefectReport is the structured output of the Auditor for one file. It is
// created once per file and consumed, unmodified, by every Fixer iteration.
//
// RawReply is always retained, even when the model's JSON could not be
// decoded, so the audit trail never loses the original response.
type DefectReport struct {
	FilePath      string        `json:"file_path"`
	SyntaxIssues  []SyntaxIssue `json:"syntax_errors"`
	LogicBugs     []LogicBug    `json:"logic_bugs"`
	CodeSmells    []CodeSmell   `json:"code_smells"`
	OverallScore  float64       `json:"overall_score"`
	PriorityFixes []string      `json:"priority_fixes"`

	ParseSucceeded bool   `json:"-"`
	RawReply       string `json:"-"`
}

// IssueCount returns the total number of findings across all categories.
func (r *DefectReport) IssueCount() int {
	return len(r.SyntaxIssues) + len(r.LogicBugs) + len(r.CodeSmells)
}

// FixAttempt is the result of one Fixer iteration. It is superseded by the
// next attempt; only the audit log retains it beyond the current iteration.
type FixAttempt struct {
	OriginalCode string
	ProposedCode string
	SyntaxValid  bool
	SyntaxError  string
	Succeeded    bool
	Err          string
}

// TestOutcome summarizes one pytest execution. Succeeded is true iff no
// test failed and no test errored.
type TestOutcome struct {
	TestFile  string
	Passed    int
	Failed    int
	Errors    int
	Stdout    string
	Stderr    string
	Succeeded bool
	Err       string
}

// FileOutcome is the terminal state of the self-healing loop for one file.
type FileOutcome string

const (
	OutcomeSuccess   FileOutcome = "DONE_SUCCESS"
	OutcomeExhausted FileOutcome = "DONE_EXHAUSTED"
)

// FileResult records how a single file fared, for the run summary.
type FileResult struct {
	FilePath   string
	Outcome    FileOutcome
	Iterations int
	Report     *DefectReport
	LastTest   *TestOutcome
}

// RunStatistics aggregates outcomes across all files of one invocation.
type RunStatistics struct {
	FilesProcessed  int
	FilesFixed      int
	FilesFailed     int
	TotalIterations int
}

// Success reports whether the run as a whole succeeded: no failed files.
func (s RunStatistics) Success() bool { return s.FilesFailed == 0 }
