package compiler

import (
	"errors"
	"testing"

	"github.com/plankit-xyz/go-plankit/problem"
	"github.com/plankit-xyz/go-plankit/validation"
)

// switchProblem has two boolean switches and ground toggle actions.
func switchProblem(t *testing.T) *problem.Problem {
	t.Helper()
	p := newBoolProblem(t, "s1", "s2")
	s := p.Store()
	for _, spec := range []struct {
		name   string
		target string
		value  bool
	}{
		{"on1", "s1", true},
		{"off1", "s1", false},
		{"on2", "s2", true},
	} {
		a := problem.NewInstantaneousAction(spec.name)
		eff, err := problem.NewEffect(s, fexp(p, spec.target), s.Bool(spec.value), s.Bool(true), problem.Assign)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		a.AddEffect(eff)
		if err := p.AddAction(a); err != nil {
			t.Fatalf("AddAction failed: %v", err)
		}
	}
	return p
}

func TestTrajectory_AlwaysBecomesPrecondition(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	// s1 may never go out while s2 is on... expressed as always(s1 or not s2).
	if err := p.AddConstraint(s.Always(s.Or(fexp(p, "s1"), s.Not(fexp(p, "s2"))))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	if err := p.SetInitialValue(fexp(p, "s1"), s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}

	res, err := NewTrajectoryConstraintsCompiler().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	if len(out.Constraints()) != 0 {
		t.Errorf("Expected all constraints compiled away, got %d", len(out.Constraints()))
	}
	// off1 threatens the invariant, so it gains a derived precondition.
	off1 := out.Action("off1").(*problem.InstantaneousAction)
	if len(off1.Preconditions) == 0 {
		t.Errorf("Expected off1 to gain the regressed invariant as a precondition")
	}
	// on1 makes the invariant true unconditionally; its regression
	// simplifies to true and adds nothing.
	on1 := out.Action("on1").(*problem.InstantaneousAction)
	if len(on1.Preconditions) != 0 {
		t.Errorf("Expected on1 unchanged, got preconditions %v", on1.Preconditions)
	}
}

func TestTrajectory_AlwaysViolatedInitially(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	if err := p.AddConstraint(s.Always(fexp(p, "s1"))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	// s1 defaults to false, so the invariant fails in the initial state.
	_, err := NewTrajectoryConstraintsCompiler().Compile(p)
	if !errors.Is(err, problem.ErrDefinition) {
		t.Errorf("Expected ErrDefinition, got %v", err)
	}
}

func TestTrajectory_SometimeMonitor(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	if err := p.AddConstraint(s.Sometime(fexp(p, "s1"))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}

	res, err := NewTrajectoryConstraintsCompiler().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	monitor := out.Fluent("monitor__0__")
	if monitor == nil {
		t.Fatalf("Expected a monitor fluent")
	}
	mexp := s.FluentExp(monitor)
	// Not yet satisfied initially.
	if v, ok := out.InitialValue(mexp); !ok || v != s.Bool(false) {
		t.Errorf("Expected the monitor seeded false, got %s", s.String(v))
	}
	// Satisfaction is a landmark: the monitor joins the goals.
	foundGoal := false
	for _, g := range out.Goals() {
		if g == mexp {
			foundGoal = true
		}
	}
	if !foundGoal {
		t.Errorf("Expected the monitor among the goals, got %v", out.Goals())
	}
	// on1 achieves s1 and must set the monitor.
	on1 := out.Action("on1").(*problem.InstantaneousAction)
	foundUpdate := false
	for _, e := range on1.Effects {
		if e.Fluent == mexp && e.Value == s.Bool(true) {
			foundUpdate = true
		}
	}
	if !foundUpdate {
		t.Errorf("Expected on1 to set the monitor, got %v", on1.Effects)
	}
}

func TestTrajectory_SometimeBeforeViolatedInitially(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	if err := p.SetInitialValue(fexp(p, "s1"), s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}
	// s1 already holds initially, so nothing can precede it.
	if err := p.AddConstraint(s.SometimeBefore(fexp(p, "s1"), fexp(p, "s2"))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	_, err := NewTrajectoryConstraintsCompiler().Compile(p)
	if !errors.Is(err, problem.ErrDefinition) {
		t.Errorf("Expected ErrDefinition, got %v", err)
	}
}

// A compiled sometime constraint stays faithful: a plan achieving the
// condition validates against the compiled problem, and one that does not
// misses the monitor goal.
func TestTrajectory_CompiledSemantics(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	if err := p.AddConstraint(s.Sometime(fexp(p, "s1"))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	p.AddGoal(fexp(p, "s2"))

	res, err := NewTrajectoryConstraintsCompiler().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	good := &problem.Plan{Steps: []problem.ActionInstance{
		{ActionName: "on1"}, {ActionName: "on2"},
	}}
	vres, err := validation.NewValidator(res.Problem).Validate(good)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !vres.Valid {
		t.Errorf("Expected the satisfying plan to validate, got %v", vres.Errors)
	}

	bad := &problem.Plan{Steps: []problem.ActionInstance{{ActionName: "on2"}}}
	vres, err = validation.NewValidator(res.Problem).Validate(bad)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if vres.Valid {
		t.Errorf("Expected the plan without s1 to miss the monitor goal")
	}

	// Back-translation is the identity for this pass.
	back, err := res.MapBackPlan(good)
	if err != nil {
		t.Fatalf("MapBackPlan failed: %v", err)
	}
	if len(back.Steps) != 2 || back.Steps[0].ActionName != "on1" {
		t.Errorf("Expected an identity back map, got %v", back.Steps)
	}
}

func TestTrajectory_RejectsDurative(t *testing.T) {
	p := newBoolProblem(t, "x")
	s := p.Store()
	d := problem.NewDurativeAction("wait")
	if err := p.AddAction(d); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}
	if err := p.AddConstraint(s.Sometime(fexp(p, "x"))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	if _, err := NewTrajectoryConstraintsCompiler().Compile(p); err == nil {
		t.Errorf("Expected an error for a problem with durative actions")
	}
}

func TestTrajectory_ImplicationInvariant(t *testing.T) {
	p := switchProblem(t)
	s := p.Store()
	// s2 on implies s1 on, at every state of the trace.
	if err := p.AddConstraint(s.Always(s.Implies(fexp(p, "s2"), fexp(p, "s1")))); err != nil {
		t.Fatalf("AddConstraint failed: %v", err)
	}
	if err := p.SetInitialValue(fexp(p, "s1"), s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}

	pass := NewTrajectoryConstraintsCompiler()
	if !pass.Supports(p.Kind()) {
		t.Fatalf("Expected kind %s supported", p.Kind())
	}
	res, err := pass.Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	if len(out.Constraints()) != 0 {
		t.Errorf("Expected all constraints compiled away, got %d", len(out.Constraints()))
	}
	off1 := out.Action("off1").(*problem.InstantaneousAction)
	if len(off1.Preconditions) == 0 {
		t.Fatalf("Expected off1 to gain a derived precondition")
	}
	// The derived precondition forbids clearing s1 exactly while s2 is on.
	for _, tt := range []struct {
		s2   bool
		want bool
	}{
		{true, false},
		{false, true},
	} {
		st := validation.State{fexp(p, "s2"): s.Bool(tt.s2)}
		got, err := validation.NewEvaluator(out, st).Eval(off1.Precondition(s))
		if err != nil {
			t.Fatalf("Eval failed: %v", err)
		}
		if got != s.Bool(tt.want) {
			t.Errorf("Expected %v with s2=%v, got %s", tt.want, tt.s2, s.String(got))
		}
	}
}

func TestTrajectory_RejectsQuantifiedConditions(t *testing.T) {
	pass := NewTrajectoryConstraintsCompiler()
	for _, f := range []problem.Feature{
		problem.FeatureExistentialConditions,
		problem.FeatureUniversalConditions,
	} {
		k := problem.New("q").Kind().Set(problem.FeatureTrajectoryConstraints).Set(f)
		if pass.Supports(k) {
			t.Errorf("Expected kind with %s unsupported", f)
		}
	}
}
