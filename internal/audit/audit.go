// internal/audit/audit.go
package audit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ActionType classifies what an agent was doing when it logged a record.
type ActionType string

const (
	ActionAnalysis   ActionType = "ANALYSIS"
	ActionFix        ActionType = "FIX"
	ActionGeneration ActionType = "GENERATION"
	ActionDebug      ActionType = "DEBUG"
)

// Status is the outcome of the logged action.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
	StatusError   Status = "ERROR"
)

// Record is one entry in the experiment log. Details must always carry
// "input_prompt" and "output_response" keys; downstream analysis tooling
// rejects records without them.
type Record struct {
	AgentName string         `json:"agent_name"`
	ModelUsed string         `json:"model_used"`
	Action    ActionType     `json:"action"`
	Details   map[string]any `json:"details"`
	Status    Status         `json:"status"`
	Timestamp string         `json:"timestamp"`
}

// Logger appends records to a single JSON-array file. The whole file stays
// a valid JSON document after every append, so it can be read mid-run.
// Safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	path   string
	runID  string
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger creates the log's parent directory and returns a logger that
// appends to path. The file itself is created lazily on the first record.
func NewLogger(path string, logger *zap.Logger) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	return &Logger{
		path:   path,
		runID:  uuid.NewString(),
		logger: logger.Named("audit"),
		now:    time.Now,
	}, nil
}

// RunID identifies this invocation across its records.
func (l *Logger) RunID() string {
	return l.runID
}

// Log appends one record. Missing input_prompt/output_response keys are
// filled with empty strings so every stored record satisfies the schema.
func (l *Logger) Log(agentName, modelUsed string, action ActionType, details map[string]any, status Status) error {
	if details == nil {
		details = map[string]any{}
	}
	if _, ok := details["input_prompt"]; !ok {
		details["input_prompt"] = ""
	}
	if _, ok := details["output_response"]; !ok {
		details["output_response"] = ""
	}
	details["run_id"] = l.runID

	rec := Record{
		AgentName: agentName,
		ModelUsed: modelUsed,
		Action:    action,
		Details:   details,
		Status:    status,
		Timestamp: l.now().UTC().Format(time.RFC3339),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.readAll()
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}

	l.logger.Debug("Audit record appended",
		zap.String("agent", agentName),
		zap.String("action", string(action)),
		zap.String("status", string(status)),
	)
	return nil
}

// readAll loads the current array, tolerating a missing file.
func (l *Logger) readAll() ([]Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("audit log at %q is corrupt: %w", l.path, err)
	}
	return records, nil
}
