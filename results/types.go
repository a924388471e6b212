// Package results defines the structured record of a compilation run and
// the stores that persist such records.
package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/plankit-xyz/go-plankit/problem"
)

const SchemaVersion = "1.0.0"

// Run records one compilation run: which problem went through which
// pipeline, how long it took, and the per-pass before/after shape.
type Run struct {
	Version     string      `json:"version"`
	ID          string      `json:"id"`
	Problem     string      `json:"problem"`
	Pipeline    string      `json:"pipeline"`
	Timestamp   time.Time   `json:"timestamp"`
	Status      string      `json:"status"` // success, error
	Error       string      `json:"error,omitempty"`
	ComputeTime float64     `json:"computeTime"` // seconds
	Passes      []PassStats `json:"passes,omitempty"`
}

// PassStats is the before/after shape of the problem around one pass.
type PassStats struct {
	Name          string   `json:"name"`
	FluentsBefore int      `json:"fluentsBefore"`
	FluentsAfter  int      `json:"fluentsAfter"`
	ActionsBefore int      `json:"actionsBefore"`
	ActionsAfter  int      `json:"actionsAfter"`
	ResultingKind []string `json:"resultingKind,omitempty"`
}

// NewRun creates a run record with a fresh id and the current timestamp.
func NewRun(problemName, pipeline string) *Run {
	return &Run{
		Version:   SchemaVersion,
		ID:        uuid.New().String(),
		Problem:   problemName,
		Pipeline:  pipeline,
		Timestamp: time.Now().UTC(),
		Status:    "success",
	}
}

// RecordPass appends the before/after shape of one pass.
func (r *Run) RecordPass(name string, before, after *problem.Problem) {
	stats := PassStats{
		Name:          name,
		FluentsBefore: len(before.Fluents()),
		FluentsAfter:  len(after.Fluents()),
		ActionsBefore: len(before.Actions()),
		ActionsAfter:  len(after.Actions()),
	}
	for _, f := range after.Kind().Features() {
		stats.ResultingKind = append(stats.ResultingKind, string(f))
	}
	r.Passes = append(r.Passes, stats)
}

// Fail marks the run as failed.
func (r *Run) Fail(err error) {
	r.Status = "error"
	r.Error = err.Error()
}
