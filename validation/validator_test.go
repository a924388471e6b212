package validation

import (
	"errors"
	"testing"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// moveProblem is one robot moving between locations: at(r, l) with a move
// action that requires the source and flips both fluents.
func moveProblem(t *testing.T) *problem.Problem {
	t.Helper()
	p := problem.New("move")
	s := p.Store()

	robot := model.UserType("robot")
	loc := model.UserType("location")
	for _, ut := range []*model.Type{robot, loc} {
		if err := p.AddUserType(ut); err != nil {
			t.Fatalf("AddUserType failed: %v", err)
		}
	}
	for _, o := range []*model.Object{
		model.NewObject("r1", robot),
		model.NewObject("l1", loc),
		model.NewObject("l2", loc),
	} {
		if err := p.AddObject(o); err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
	}

	at := model.NewFluent("at", model.BoolType(),
		model.NewParameter("who", robot), model.NewParameter("where", loc))
	if err := p.AddFluent(at); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}

	r := model.NewParameter("r", robot)
	from := model.NewParameter("from", loc)
	to := model.NewParameter("to", loc)
	move := problem.NewInstantaneousAction("move", r, from, to)
	move.AddPrecondition(s.FluentExp(at, s.ParamExp(r), s.ParamExp(from)))
	for _, e := range []struct {
		where exprs.ID
		value exprs.ID
	}{
		{s.ParamExp(from), s.Bool(false)},
		{s.ParamExp(to), s.Bool(true)},
	} {
		eff, err := problem.NewEffect(s, s.FluentExp(at, s.ParamExp(r), e.where), e.value, s.Bool(true), problem.Assign)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		move.AddEffect(eff)
	}
	if err := p.AddAction(move); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}

	atR1L1 := s.FluentExp(at, s.ObjectExp(p.Object("r1")), s.ObjectExp(p.Object("l1")))
	if err := p.SetInitialValue(atR1L1, s.Bool(true)); err != nil {
		t.Fatalf("SetInitialValue failed: %v", err)
	}
	p.AddGoal(s.FluentExp(at, s.ObjectExp(p.Object("r1")), s.ObjectExp(p.Object("l2"))))
	return p
}

func moveStep(p *problem.Problem, who, from, to string) problem.ActionInstance {
	s := p.Store()
	return problem.ActionInstance{
		ActionName: "move",
		Params: []exprs.ID{
			s.ObjectExp(p.Object(who)),
			s.ObjectExp(p.Object(from)),
			s.ObjectExp(p.Object(to)),
		},
	}
}

func TestValidate_ValidPlan(t *testing.T) {
	p := moveProblem(t)
	plan := &problem.Plan{Steps: []problem.ActionInstance{moveStep(p, "r1", "l1", "l2")}}

	res, err := NewValidator(p).Validate(plan)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !res.Valid {
		t.Errorf("Expected a valid plan, got issues: %v", res.Errors)
	}
	if res.Steps != 1 {
		t.Errorf("Expected 1 step, got %d", res.Steps)
	}
}

func TestValidate_PreconditionFailure(t *testing.T) {
	p := moveProblem(t)
	plan := &problem.Plan{Steps: []problem.ActionInstance{moveStep(p, "r1", "l2", "l1")}}

	res, err := NewValidator(p).Validate(plan)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.Valid {
		t.Fatalf("Expected an invalid plan")
	}
	found := false
	for _, issue := range res.Errors {
		if issue.Category == "precondition" && issue.Step == 0 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a precondition issue at step 0, got %v", res.Errors)
	}
}

func TestValidate_GoalFailure(t *testing.T) {
	p := moveProblem(t)
	res, err := NewValidator(p).Validate(&problem.Plan{})
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if res.Valid {
		t.Fatalf("Expected the empty plan to miss the goal")
	}
	if len(res.Errors) != 1 || res.Errors[0].Category != "goal" {
		t.Errorf("Expected one goal issue, got %v", res.Errors)
	}
}

func TestValidate_UnknownAction(t *testing.T) {
	p := moveProblem(t)
	plan := &problem.Plan{Steps: []problem.ActionInstance{{ActionName: "teleport"}}}
	if _, err := NewValidator(p).Validate(plan); err == nil {
		t.Errorf("Expected an error for an unknown action")
	}
}

func TestValidate_ConflictingEffects(t *testing.T) {
	p := problem.New("conflict")
	s := p.Store()
	x := model.NewFluent("x", model.BoolType())
	if err := p.AddFluent(x); err != nil {
		t.Fatalf("AddFluent failed: %v", err)
	}
	a := problem.NewInstantaneousAction("flip")
	for _, v := range []exprs.ID{s.Bool(true), s.Bool(false)} {
		eff, err := problem.NewEffect(s, s.FluentExp(x), v, s.Bool(true), problem.Assign)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		a.AddEffect(eff)
	}
	if err := p.AddAction(a); err != nil {
		t.Fatalf("AddAction failed: %v", err)
	}

	plan := &problem.Plan{Steps: []problem.ActionInstance{{ActionName: "flip"}}}
	_, err := NewValidator(p).Validate(plan)
	if !errors.Is(err, problem.ErrConflictingEffects) {
		t.Errorf("Expected ErrConflictingEffects, got %v", err)
	}
}

func TestValidate_Constraints(t *testing.T) {
	newCounterProblem := func(t *testing.T) *problem.Problem {
		t.Helper()
		p := problem.New("counter")
		s := p.Store()
		n := model.NewFluent("n", model.IntType())
		if err := p.AddFluent(n); err != nil {
			t.Fatalf("AddFluent failed: %v", err)
		}
		inc := problem.NewInstantaneousAction("inc")
		eff, err := problem.NewEffect(s, s.FluentExp(n), s.Int(1), s.Bool(true), problem.Increase)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		inc.AddEffect(eff)
		if err := p.AddAction(inc); err != nil {
			t.Fatalf("AddAction failed: %v", err)
		}
		return p
	}
	steps := func(k int) *problem.Plan {
		plan := &problem.Plan{}
		for i := 0; i < k; i++ {
			plan.Steps = append(plan.Steps, problem.ActionInstance{ActionName: "inc"})
		}
		return plan
	}

	t.Run("always violated", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))
		if err := p.AddConstraint(s.Always(s.LE(nexp, s.Int(1)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		res, err := NewValidator(p).Validate(steps(2))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if res.Valid || len(res.Errors) == 0 || res.Errors[0].Category != "constraint" {
			t.Errorf("Expected a constraint violation, got %v", res.Errors)
		}
	})

	t.Run("sometime satisfied", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))
		if err := p.AddConstraint(s.Sometime(s.Equals(nexp, s.Int(2)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		res, err := NewValidator(p).Validate(steps(3))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if !res.Valid {
			t.Errorf("Expected a valid plan, got %v", res.Errors)
		}
	})

	t.Run("sometime unsatisfied", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))
		if err := p.AddConstraint(s.Sometime(s.Equals(nexp, s.Int(5)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		res, err := NewValidator(p).Validate(steps(2))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if res.Valid {
			t.Errorf("Expected a sometime violation")
		}
	})

	t.Run("sometime-before violated", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))
		// n reaches 1 before it ever reaches 2, so requiring 2-before-1 fails.
		if err := p.AddConstraint(s.SometimeBefore(s.Equals(nexp, s.Int(1)), s.Equals(nexp, s.Int(2)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		res, err := NewValidator(p).Validate(steps(2))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if res.Valid {
			t.Errorf("Expected a sometime-before violation")
		}
	})

	t.Run("sometime-after satisfied", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))
		if err := p.AddConstraint(s.SometimeAfter(s.Equals(nexp, s.Int(1)), s.Equals(nexp, s.Int(2)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		res, err := NewValidator(p).Validate(steps(2))
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if !res.Valid {
			t.Errorf("Expected a valid plan, got %v", res.Errors)
		}
	})

	t.Run("at-most-once violated", func(t *testing.T) {
		p := newCounterProblem(t)
		s := p.Store()
		nexp := s.FluentExp(p.Fluent("n"))

		dec := problem.NewInstantaneousAction("dec")
		eff, err := problem.NewEffect(s, nexp, s.Int(1), s.Bool(true), problem.Decrease)
		if err != nil {
			t.Fatalf("NewEffect failed: %v", err)
		}
		dec.AddEffect(eff)
		if err := p.AddAction(dec); err != nil {
			t.Fatalf("AddAction failed: %v", err)
		}
		// n is 1 in two separate intervals: after the first inc, and again
		// after inc-dec-inc.
		if err := p.AddConstraint(s.AtMostOnce(s.Equals(nexp, s.Int(1)))); err != nil {
			t.Fatalf("AddConstraint failed: %v", err)
		}
		plan := &problem.Plan{Steps: []problem.ActionInstance{
			{ActionName: "inc"}, {ActionName: "inc"}, {ActionName: "dec"},
		}}
		res, err := NewValidator(p).Validate(plan)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if res.Valid {
			t.Errorf("Expected an at-most-once violation")
		}
	})
}

func TestEvaluator_NumericAndFallback(t *testing.T) {
	p := problem.New("eval")
	s := p.Store()
	n := model.NewFluent("n", model.IntType())
	if err := p.AddFluentWithDefault(n, s.Int(7)); err != nil {
		t.Fatalf("AddFluentWithDefault failed: %v", err)
	}

	ev := NewEvaluator(p, nil)
	got, err := ev.Eval(s.Plus(s.FluentExp(n), s.Int(3)))
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got != s.Int(10) {
		t.Errorf("Expected 10, got %s", s.String(got))
	}

	st := State{s.FluentExp(n): s.Int(1)}
	got, err = NewEvaluator(p, st).Eval(s.FluentExp(n))
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if got != s.Int(1) {
		t.Errorf("Expected the state to win over the default, got %s", s.String(got))
	}
}

func TestEvaluator_RejectsNonGround(t *testing.T) {
	p := problem.New("eval")
	s := p.Store()
	x := model.NewVariable("x", model.UserType("robot"))
	if _, err := NewEvaluator(p, nil).Eval(s.VarExp(x)); !errors.Is(err, exprs.ErrUnsupportedConstruct) {
		t.Errorf("Expected ErrUnsupportedConstruct, got %v", err)
	}
}
