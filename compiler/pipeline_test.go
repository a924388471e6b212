package compiler

import (
	"testing"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
	"github.com/plankit-xyz/go-plankit/validation"
)

func TestNewByName(t *testing.T) {
	c, err := NewByName("grounder")
	if err != nil {
		t.Fatalf("NewByName failed: %v", err)
	}
	if c.Name() != "grounder" {
		t.Errorf("Expected grounder, got %s", c.Name())
	}
	if _, err := NewByName("nonesuch"); err == nil {
		t.Errorf("Expected an error for an unknown pass")
	}
}

func TestAllPasses_NamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range AllPasses() {
		if seen[c.Name()] {
			t.Errorf("Duplicate pass name %s", c.Name())
		}
		seen[c.Name()] = true
	}
}

func TestPipeline_NameAndKind(t *testing.T) {
	pl := NewPipeline(NewGrounder(), NewDisjunctiveConditionsRemover())
	if pl.Name() != "grounder+disjunctive_conditions_remover" {
		t.Errorf("Unexpected pipeline name %s", pl.Name())
	}
	k := problem.NewKind(
		problem.FeatureActionBased,
		problem.FeatureActionParameters,
		problem.FeatureDisjunctiveConditions,
	)
	out := pl.ResultingKind(k)
	if out.Has(problem.FeatureActionParameters) || out.Has(problem.FeatureDisjunctiveConditions) {
		t.Errorf("Expected both features cleared, got %s", out)
	}
	if !out.Has(problem.FeatureNegativeConditions) {
		t.Errorf("Expected the introduced NEGATIVE_CONDITIONS flag, got %s", out)
	}
}

func TestPipelineFor(t *testing.T) {
	from := problem.NewKind(
		problem.FeatureActionBased,
		problem.FeatureFlatTyping,
		problem.FeatureActionParameters,
		problem.FeatureDisjunctiveConditions,
	)
	target := problem.NewKind(
		problem.FeatureActionBased,
		problem.FeatureFlatTyping,
		problem.FeatureNegativeConditions,
	)
	pl, err := PipelineFor(from, target)
	if err != nil {
		t.Fatalf("PipelineFor failed: %v", err)
	}
	names := make([]string, len(pl.Passes()))
	for i, c := range pl.Passes() {
		names[i] = c.Name()
	}
	if len(names) != 2 || names[0] != "grounder" || names[1] != "disjunctive_conditions_remover" {
		t.Errorf("Unexpected pass chain %v", names)
	}

	// A target below every pass's reach is unreachable.
	if _, err := PipelineFor(from, problem.NewKind(problem.FeatureActionBased)); err == nil {
		t.Errorf("Expected an error for an unreachable target")
	}
}

// Full chain: ground a parameterized problem, split its disjunctive
// action, validate a plan for the compiled problem, and map it back to a
// plan that validates against the original.
func TestPipeline_RoundTrip(t *testing.T) {
	p := problem.New("delivery")
	s := p.Store()
	loc := model.UserType("location")
	if err := p.AddUserType(loc); err != nil {
		t.Fatalf("AddUserType failed: %v", err)
	}
	for _, name := range []string{"depot", "office"} {
		if err := p.AddObject(model.NewObject(name, loc)); err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
	}
	at := model.NewFluent("at", model.BoolType(), model.NewParameter("where", loc))
	carrying := model.NewFluent("carrying", model.BoolType())
	delivered := model.NewFluent("delivered", model.BoolType())
	for _, f := range []*model.Fluent{at, carrying, delivered} {
		if err := p.AddFluent(f); err != nil {
			t.Fatalf("AddFluent failed: %v", err)
		}
	}

	from := model.NewParameter("from", loc)
	to := model.NewParameter("to", loc)
	move := problem.NewInstantaneousAction("move", from, to)
	move.AddPrecondition(s.FluentExp(at, s.ParamExp(from)))
	for _, e := range []struct {
		where exprs.ID
		value bool
	}{
		{s.ParamExp(from), false},
		{s.ParamExp(to), true},
	} {
		eff, err := problem.NewEffect(s, s.FluentExp(at, e.where), s.Bool(e.value), s.Bool(true), problem.Assign)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		move.AddEffect(eff)
	}
	drop := problem.NewInstantaneousAction("drop")
	// Dropping counts anywhere the recipient can pick it up.
	drop.AddPrecondition(s.And(
		s.FluentExp(carrying),
		s.Or(
			s.FluentExp(at, s.ObjectExp(p.Object("office"))),
			s.FluentExp(at, s.ObjectExp(p.Object("depot"))),
		),
	))
	for _, e := range []struct {
		f     *model.Fluent
		value bool
	}{
		{carrying, false},
		{delivered, true},
	} {
		eff, err := problem.NewEffect(s, s.FluentExp(e.f), s.Bool(e.value), s.Bool(true), problem.Assign)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		drop.AddEffect(eff)
	}
	for _, a := range []problem.Action{move, drop} {
		if err := p.AddAction(a); err != nil {
			t.Fatalf("AddAction failed: %v", err)
		}
	}
	if err := p.SetInitialValue(s.FluentExp(at, s.ObjectExp(p.Object("depot"))), s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}
	if err := p.SetInitialValue(s.FluentExp(carrying), s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}
	p.AddGoal(s.FluentExp(delivered))
	p.AddGoal(s.FluentExp(at, s.ObjectExp(p.Object("office"))))

	pl := NewPipeline(NewGrounder(), NewDisjunctiveConditionsRemover())
	if !pl.Supports(p.Kind()) {
		t.Fatalf("Pipeline does not support kind %s", p.Kind())
	}
	res, err := pl.Compile(p)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	out := res.Problem

	k := out.Kind()
	if k.Has(problem.FeatureActionParameters) || k.Has(problem.FeatureDisjunctiveConditions) {
		t.Fatalf("Compiled kind still has eliminated features: %s", k)
	}

	// Search the compiled action space for a two-step plan that reaches
	// the goals, then map it back.
	var compiled *problem.Plan
search:
	for _, a1 := range out.Actions() {
		for _, a2 := range out.Actions() {
			cand := &problem.Plan{Steps: []problem.ActionInstance{
				{ActionName: a1.Core().Name}, {ActionName: a2.Core().Name},
			}}
			// Hard simulation errors (a self-move assigns the same fluent
			// twice) just disqualify the candidate.
			vres, err := validation.NewValidator(out).Validate(cand)
			if err == nil && vres.Valid {
				compiled = cand
				break search
			}
		}
	}
	if compiled == nil {
		t.Fatalf("No valid two-step plan exists for the compiled problem")
	}

	back, err := res.MapBackPlan(compiled)
	if err != nil {
		t.Fatalf("MapBackPlan failed: %v", err)
	}
	vres, err := validation.NewValidator(p).Validate(back)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !vres.Valid {
		t.Errorf("Mapped-back plan %s is invalid: %v", back.String(s), vres.Errors)
	}
	if len(back.Steps) != 2 || back.Steps[0].ActionName != "move" || back.Steps[1].ActionName != "drop" {
		t.Errorf("Unexpected mapped-back plan %s", back.String(s))
	}
}
