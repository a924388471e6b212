package results

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

func TestRecordPass(t *testing.T) {
	before := problem.New("before")
	if err := before.AddFluent(model.NewFluent("a", model.BoolType())); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}
	after := before.Clone()
	if err := after.AddFluent(model.NewFluent("b", model.BoolType())); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}

	run := NewRun("before", "negative_conditions_remover")
	run.RecordPass("negative_conditions_remover", before, after)

	if len(run.Passes) != 1 {
		t.Fatalf("Expected 1 pass record, got %d", len(run.Passes))
	}
	stats := run.Passes[0]
	if stats.FluentsBefore != 1 || stats.FluentsAfter != 2 {
		t.Errorf("Expected fluent counts 1 -> 2, got %d -> %d", stats.FluentsBefore, stats.FluentsAfter)
	}
	if len(stats.ResultingKind) == 0 {
		t.Errorf("Expected the resulting kind to be recorded")
	}
}

func TestToJSON(t *testing.T) {
	run := NewRun("lamp", "grounder")
	str, err := ToJSON(run)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if !strings.Contains(str, run.ID) {
		t.Errorf("Expected the rendered run to carry its id %s:\n%s", run.ID, str)
	}
}

func TestRunFileRoundTrip(t *testing.T) {
	run := NewRun("disk", "grounder+negative_conditions_remover")
	run.ComputeTime = 1.25

	path := filepath.Join(t.TempDir(), "run.json")
	if err := WriteJSON(run, path); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	got, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.ID != run.ID || got.Pipeline != run.Pipeline || got.ComputeTime != run.ComputeTime {
		t.Errorf("Run changed across the file round trip: %+v", got)
	}
	if !got.Timestamp.Equal(run.Timestamp) {
		t.Errorf("Timestamp changed: %s vs %s", got.Timestamp, run.Timestamp)
	}
}
