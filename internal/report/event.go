package report

import "isafw/internal/analysis"

// Status of one target after it was processed.
type Status string

const (
	StatusClean    Status = "CLEAN"
	StatusProblems Status = "PROBLEMS"
	StatusFailed   Status = "FAILED"
)

// Summary is the per-target record handed to sinks.
type Summary struct {
	Target   string             `json:"target"`
	Kind     analysis.Kind      `json:"kind"`
	Status   Status             `json:"status"`
	Facts    int                `json:"facts"`
	Problems int                `json:"problems"`
	Skipped  int                `json:"skipped,omitempty"`
	Files    Files              `json:"files"`
	Findings []analysis.Problem `json:"findings,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// NewSummary condenses a written report pair.
func NewSummary(t analysis.Target, pair analysis.ReportPair, files Files) Summary {
	s := Summary{
		Target:   t.ID(),
		Kind:     t.Kind,
		Status:   StatusClean,
		Facts:    len(pair.Full),
		Problems: len(pair.Problems),
		Skipped:  len(pair.Skipped),
		Files:    files,
		Findings: pair.Problems,
	}
	if s.Problems > 0 {
		s.Status = StatusProblems
	}
	return s
}

// FailedSummary records a target that could not be analyzed.
func FailedSummary(t analysis.Target, err error) Summary {
	return Summary{
		Target: t.ID(),
		Kind:   t.Kind,
		Status: StatusFailed,
		Error:  err.Error(),
	}
}

// Event is a lifecycle record for NDJSON streaming output:
// run.started, target.started, target.result, run.finished.
type Event struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	*Summary
	Targets  int `json:"targets,omitempty"`
	ExitCode int `json:"exit_code,omitempty"`
}

func eventFromSummary(s Summary) Event {
	return Event{Type: "target.result", Target: s.Target, Summary: &s}
}
