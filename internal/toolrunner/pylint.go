// internal/toolrunner/pylint.go
package toolrunner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/remedyhq/remedy-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// scoreRegex pulls the numeric score out of pylint's summary line,
// e.g. "Your code has been rated at 7.50/10".
var scoreRegex = regexp.MustCompile(`rated at ([\d.]+)/10`)

// pylintDisabled suppresses the missing-docstring checks; docstrings are
// not a repair target.
const pylintDisabled = "C0114,C0115,C0116"

// PylintMessage is a single diagnostic from pylint's JSON output.
type PylintMessage struct {
	Type      string `json:"type"`
	Module    string `json:"module"`
	Obj       string `json:"obj"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	Path      string `json:"path"`
	Symbol    string `json:"symbol"`
	Message   string `json:"message"`
	MessageID string `json:"message-id"`
}

// PylintReport is the outcome of a single pylint run. A tool-level problem
// (missing binary, timeout) lands in Err rather than failing the call, so
// the pipeline can continue with whatever static signal it has.
type PylintReport struct {
	FilePath    string          `json:"file"`
	Score       float64         `json:"score"`
	Messages    []PylintMessage `json:"messages"`
	IssuesCount int             `json:"issues_count"`
	Err         string          `json:"error,omitempty"`
}

// Runner launches the external Python tooling with bounded lifetimes.
type Runner struct {
	cfg    config.ToolsConfig
	logger *zap.Logger
}

// NewRunner returns a Runner using the configured subprocess timeouts.
func NewRunner(cfg config.ToolsConfig, logger *zap.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		logger: logger.Named("toolrunner"),
	}
}

// RunPylint lints filePath and returns its messages and score. The score is
// scraped from the summary line on stderr; when pylint emits none (or the
// run fails structurally) the score stays at zero.
func (r *Runner) RunPylint(ctx context.Context, filePath string) PylintReport {
	report := PylintReport{FilePath: filePath}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.PylintTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pylint", filePath,
		"--output-format=json",
		"--disable="+pylintDisabled,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		r.logger.Warn("pylint timed out", zap.String("file", filePath), zap.Duration("timeout", r.cfg.PylintTimeout))
		report.Err = "pylint timed out"
		return report
	case err != nil && errors.Is(err, exec.ErrNotFound):
		report.Err = "pylint is not installed"
		return report
	}
	// pylint exits non-zero whenever it found issues; that is a normal run.

	if out := bytes.TrimSpace(stdout.Bytes()); len(out) > 0 {
		if jsonErr := json.Unmarshal(out, &report.Messages); jsonErr != nil {
			r.logger.Warn("pylint produced unparseable output", zap.Error(jsonErr))
		}
	}
	report.IssuesCount = len(report.Messages)

	if m := scoreRegex.FindStringSubmatch(stderr.String()); len(m) > 1 {
		if score, parseErr := strconv.ParseFloat(m[1], 64); parseErr == nil {
			report.Score = score
		}
	}

	r.logger.Debug("pylint run complete",
		zap.String("file", filePath),
		zap.Float64("score", report.Score),
		zap.Int("issues", report.IssuesCount),
	)
	return report
}
