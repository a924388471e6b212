package compiler

import (
	"errors"
	"testing"

	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

func TestNegativeConditionsRemover(t *testing.T) {
	p := newBoolProblem(t, "lit")
	s := p.Store()
	lit := fexp(p, "lit")

	toggle := problem.NewInstantaneousAction("toggle_on")
	toggle.AddPrecondition(s.Not(lit))
	eff, err := problem.NewEffect(s, lit, s.Bool(true), s.Bool(true), problem.Assign)
	if err != nil {
		t.Fatalf("NewEffect failed: %v", err)
	}
	toggle.AddEffect(eff)
	if err := p.AddAction(toggle); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}
	if err := p.SetInitialValue(lit, s.Bool(false)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}
	p.AddGoal(lit)

	res, err := NewNegativeConditionsRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	shadow := out.Fluent("lit__not__")
	if shadow == nil {
		t.Fatalf("Expected the shadow fluent to be registered")
	}
	shexp := s.FluentExp(shadow)

	pre := out.Action("toggle_on").(*problem.InstantaneousAction).Precondition(s)
	if pre != shexp {
		t.Errorf("Expected precondition %s, got %s", s.String(shexp), s.String(pre))
	}

	// Every write of lit gains the complementary shadow write.
	effects := out.Action("toggle_on").(*problem.InstantaneousAction).Effects
	if len(effects) != 2 {
		t.Fatalf("Expected 2 effects, got %d", len(effects))
	}
	if effects[1].Fluent != shexp || effects[1].Value != s.Bool(false) {
		t.Errorf("Expected shadow effect lit__not__ := false, got %s := %s",
			s.String(effects[1].Fluent), s.String(effects[1].Value))
	}

	// The explicit initial value is mirrored.
	if v, ok := out.InitialValue(shexp); !ok || v != s.Bool(true) {
		t.Errorf("Expected lit__not__ initially true, got %s", s.String(v))
	}

	if k := out.Kind(); k.Has(problem.FeatureNegativeConditions) {
		t.Errorf("Compiled problem still reports negative conditions: %s", k)
	}
}

func TestNegativeConditionsRemover_RequiresNNF(t *testing.T) {
	p := newBoolProblem(t, "a", "b")
	s := p.Store()

	act := problem.NewInstantaneousAction("act")
	act.AddPrecondition(s.Not(s.And(fexp(p, "a"), fexp(p, "b"))))
	if err := p.AddAction(act); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}

	_, err := NewNegativeConditionsRemover().Compile(p)
	if !errors.Is(err, problem.ErrDefinition) {
		t.Errorf("Expected ErrDefinition for a non-NNF condition, got %v", err)
	}
}

func TestNegativeConditionsRemover_ShadowSimulation(t *testing.T) {
	p := newBoolProblem(t, "lit")
	s := p.Store()
	lit := fexp(p, "lit")

	on := problem.NewInstantaneousAction("on")
	effOn, err := problem.NewEffect(s, lit, s.Bool(true), s.Bool(true), problem.Assign)
	if err != nil {
		t.Fatalf("NewEffect failed: %v", err)
	}
	on.AddEffect(effOn)
	off := problem.NewInstantaneousAction("off")
	off.AddPrecondition(lit)
	effOff, err := problem.NewEffect(s, lit, s.Bool(false), s.Bool(true), problem.Assign)
	if err != nil {
		t.Fatalf("NewEffect failed: %v", err)
	}
	off.AddEffect(effOff)
	for _, a := range []problem.Action{on, off} {
		if err := p.AddAction(a); err != nil {
			t.Fatalf("AddAction failed: %v", err)
		}
	}
	// The goal needs the lamp off again, expressed negatively.
	p.AddGoal(s.Not(lit))

	res, err := NewNegativeConditionsRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	// With no explicit init, the shadow defaults to the complement of the
	// boolean type default.
	shexp := s.FluentExp(out.Fluent("lit__not__"))
	if v, ok := out.InitialValue(shexp); !ok || v != s.Bool(true) {
		t.Errorf("Expected the shadow default true, got %s", s.String(v))
	}
	if out.Goals()[0] != shexp {
		t.Errorf("Expected the goal %s, got %s", s.String(shexp), s.String(out.Goals()[0]))
	}

	// off clears lit and must set the shadow back.
	effects := out.Action("off").(*problem.InstantaneousAction).Effects
	if len(effects) != 2 || effects[1].Value != s.Bool(true) {
		t.Errorf("Expected off to set the shadow true, got %v", effects)
	}
}

func TestNegativeConditionsRemover_NumericKept(t *testing.T) {
	p := problem.New("numeric")
	s := p.Store()
	n := model.NewFluent("n", model.IntType())
	if err := p.AddFluent(n); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}
	act := problem.NewInstantaneousAction("check")
	// NNF pushes negation into the comparison, so nothing here is negated.
	act.AddPrecondition(s.LT(s.Int(0), s.FluentExp(n)))
	if err := p.AddAction(act); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}

	res, err := NewNegativeConditionsRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if got := len(res.Problem.Fluents()); got != 1 {
		t.Errorf("Expected no shadow fluents, got %d fluents", got)
	}
	pre := res.Problem.Action("check").(*problem.InstantaneousAction).Precondition(s)
	if pre != s.LT(s.Int(0), s.FluentExp(n)) {
		t.Errorf("Expected the comparison untouched, got %s", s.String(pre))
	}
}
