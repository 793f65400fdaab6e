// internal/audit/validate.go
package audit

import (
	"fmt"
	"os"
	"time"
)

var validActions = map[ActionType]bool{
	ActionAnalysis:   true,
	ActionFix:        true,
	ActionGeneration: true,
	ActionDebug:      true,
}

var validStatuses = map[Status]bool{
	StatusSuccess: true,
	StatusFailure: true,
	StatusError:   true,
}

// ValidationReport summarizes a structural check of an experiment log.
type ValidationReport struct {
	TotalEntries int
	ByAction     map[ActionType]int
	ByStatus     map[Status]int
	Problems     []string
}

// Valid reports whether no structural problems were found.
func (r *ValidationReport) Valid() bool {
	return len(r.Problems) == 0
}

// ValidateFile checks every record of the log at path against the schema:
// known action and status values, a parseable timestamp, and the mandatory
// input_prompt and output_response detail keys. Structural problems are
// collected per record rather than aborting at the first one.
func ValidateFile(path string) (*ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read audit log: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("audit log is not a JSON array of records: %w", err)
	}

	report := &ValidationReport{
		TotalEntries: len(records),
		ByAction:     map[ActionType]int{},
		ByStatus:     map[Status]int{},
	}

	for i, rec := range records {
		report.ByAction[rec.Action]++
		report.ByStatus[rec.Status]++

		if rec.AgentName == "" {
			report.addProblem(i, "missing agent_name")
		}
		if rec.ModelUsed == "" {
			report.addProblem(i, "missing model_used")
		}
		if !validActions[rec.Action] {
			report.addProblem(i, fmt.Sprintf("invalid action %q", rec.Action))
		}
		if !validStatuses[rec.Status] {
			report.addProblem(i, fmt.Sprintf("invalid status %q", rec.Status))
		}
		if _, err := time.Parse(time.RFC3339, rec.Timestamp); err != nil {
			report.addProblem(i, fmt.Sprintf("unparseable timestamp %q", rec.Timestamp))
		}
		if rec.Details == nil {
			report.addProblem(i, "missing details")
			continue
		}
		if _, ok := rec.Details["input_prompt"]; !ok {
			report.addProblem(i, "details missing input_prompt")
		}
		if _, ok := rec.Details["output_response"]; !ok {
			report.addProblem(i, "details missing output_response")
		}
	}

	return report, nil
}

func (r *ValidationReport) addProblem(index int, msg string) {
	r.Problems = append(r.Problems, fmt.Sprintf("entry %d: %s", index, msg))
}
