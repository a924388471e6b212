package compiler

import (
	"testing"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

func TestBoundedTypesRemover(t *testing.T) {
	p := problem.New("tank")
	s := p.Store()
	level := model.NewFluent("level", model.BoundedIntType(0, 2))
	if err := p.AddFluent(level); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}

	fill := problem.NewInstantaneousAction("fill")
	eff, err := problem.NewEffect(s, s.FluentExp(level), s.Int(1), s.Bool(true), problem.Increase)
	if err != nil {
		t.Fatalf("NewEffect failed: %v", err)
	}
	fill.AddEffect(eff)
	if err := p.AddAction(fill); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}
	p.AddGoal(s.Equals(s.FluentExp(level), s.Int(2)))

	res, err := NewBoundedTypesRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	got := out.Fluent("level")
	if got.Type.IsBounded() || got.Type.Kind != model.IntKind {
		t.Errorf("Expected an unbounded int fluent, got %s", got.Type)
	}
	if k := out.Kind(); k.Has(problem.FeatureBoundedTypes) {
		t.Errorf("Compiled problem still reports bounded types: %s", k)
	}

	// The bounds survive as an action precondition and a goal conjunct.
	lexp := out.Store().FluentExp(got)
	inv := s.And(s.LE(s.Int(0), lexp), s.LE(lexp, s.Int(2)))
	pre := out.Action("fill").(*problem.InstantaneousAction).Precondition(s)
	if pre != inv {
		t.Errorf("Expected precondition %s, got %s", s.String(inv), s.String(pre))
	}
	foundGoal := false
	for _, g := range out.Goals() {
		if g == inv {
			foundGoal = true
		}
	}
	if !foundGoal {
		t.Errorf("Expected the invariant among the goals, got %v", out.Goals())
	}

	// The implicit initial value is pinned so the initial state is intact.
	if v, ok := out.InitialValue(lexp); !ok || v != s.Int(0) {
		t.Errorf("Expected initial value 0, got %s", s.String(v))
	}
}

func TestBoundedTypesRemover_NoOp(t *testing.T) {
	p := problem.New("plain")
	if err := p.AddFluent(model.NewFluent("n", model.IntType())); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}
	res, err := NewBoundedTypesRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if res.Problem.Fluent("n").Type != model.IntType() {
		t.Errorf("Expected the unbounded fluent to pass through")
	}
}

func TestBoundedTypesRemover_ParameterizedInvariant(t *testing.T) {
	p := problem.New("fleet")
	s := p.Store()
	robot := model.UserType("robot")
	if err := p.AddUserType(robot); err != nil {
		t.Fatalf("AddUserType failed: %v", err)
	}
	for _, name := range []string{"r1", "r2"} {
		if err := p.AddObject(model.NewObject(name, robot)); err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
	}
	charge := model.NewFluent("charge", model.BoundedIntType(0, 5), model.NewParameter("who", robot))
	if err := p.AddFluent(charge); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}
	wait := problem.NewInstantaneousAction("wait")
	if err := p.AddAction(wait); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}

	res, err := NewBoundedTypesRemover().Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	// One bound pair per ground instantiation, conjoined.
	pre := res.Problem.Action("wait").(*problem.InstantaneousAction).Precondition(s)
	conjuncts := s.Conjuncts(pre)
	if len(conjuncts) != 4 {
		t.Errorf("Expected 4 bound conjuncts, got %d: %s", len(conjuncts), s.String(pre))
	}
	for _, c := range conjuncts {
		if s.Node(c).Kind() != exprs.KindLE {
			t.Errorf("Expected a <= conjunct, got %s", s.String(c))
		}
	}
}
