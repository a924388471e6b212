package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
	"github.com/plankit-xyz/go-plankit/validation"
)

// TrajectoryConstraintsCompiler compiles always, sometime, at-most-once,
// sometime-before, and sometime-after constraints away on a ground
// problem. Each non-always constraint gets one monitoring boolean fluent
// seeded from the initial state; for every action whose effects touch a
// fluent of the constraint, the regression of the constraint's formula
// through the action yields a derived precondition and/or a conditional
// monitor update. Actions whose derived precondition is constant false
// are dropped, and the goal gains the monitors of the landmark
// constraints (sometime, sometime-after).
//
// An always or sometime-before constraint already violated by the
// initial state is a definition error.
type TrajectoryConstraintsCompiler struct{}

// NewTrajectoryConstraintsCompiler creates the pass.
func NewTrajectoryConstraintsCompiler() *TrajectoryConstraintsCompiler {
	return &TrajectoryConstraintsCompiler{}
}

func (t *TrajectoryConstraintsCompiler) Name() string { return "trajectory_constraints_compiler" }

func (t *TrajectoryConstraintsCompiler) SupportedKind() problem.Kind {
	return allFeatures().
		Unset(problem.FeatureActionParameters).
		Unset(problem.FeatureBoolActionParameters).
		Unset(problem.FeatureBoundedIntActionParameters).
		Unset(problem.FeatureContinuousTime).
		Unset(problem.FeatureForallEffects).
		// Regression keeps quantifier bodies opaque, so quantified
		// conditions cannot be monitored soundly.
		Unset(problem.FeatureExistentialConditions).
		Unset(problem.FeatureUniversalConditions)
}

func (t *TrajectoryConstraintsCompiler) Supports(k problem.Kind) bool {
	return k.IsSubset(t.SupportedKind())
}

func (t *TrajectoryConstraintsCompiler) ResultingKind(k problem.Kind) problem.Kind {
	out := k.Clone().
		Unset(problem.FeatureTrajectoryConstraints).
		Unset(problem.FeatureStateInvariants)
	if k.Has(problem.FeatureTrajectoryConstraints) {
		// Regression results and monitor updates are not pre-simplified.
		out.Set(problem.FeatureNegativeConditions)
		out.Set(problem.FeatureDisjunctiveConditions)
		out.Set(problem.FeatureConditionalEffects)
	}
	return out
}

// monitored is one classified constraint: its formulas, its monitoring
// fluent expression (NoID for always), and the names of the fluents it
// mentions, for relevance indexing.
type monitored struct {
	kind    exprs.Kind
	phi     exprs.ID
	psi     exprs.ID
	monitor exprs.ID
	fluents map[string]bool
}

func (t *TrajectoryConstraintsCompiler) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(t, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	records, err := t.classify(out)
	if err != nil {
		return nil, err
	}

	var kept []problem.Action
	for _, a := range out.Actions() {
		act, ok := a.(*problem.InstantaneousAction)
		if !ok {
			return nil, fmt.Errorf("cannot monitor action variant %T: %w", a, exprs.ErrUnsupportedConstruct)
		}
		targets := make(map[string]bool)
		for _, e := range act.Effects {
			targets[s.Node(e.Fluent).Fluent().Name] = true
		}
		keep := true
		for _, rec := range records {
			keep, err = t.monitorAction(s, act, rec, targets)
			if err != nil {
				return nil, fmt.Errorf("action %s: %w", act.Name, err)
			}
			if !keep {
				break
			}
		}
		if keep {
			kept = append(kept, act)
		}
	}
	out.ReplaceActions(kept)

	for _, rec := range records {
		if rec.kind == exprs.KindSometime || rec.kind == exprs.KindSometimeAfter {
			out.AddGoal(rec.monitor)
		}
	}
	out.ClearConstraints()

	return &Result{Problem: out, MapBack: IdentityBackMap, Name: t.Name()}, nil
}

// classify checks each constraint against the initial state and allocates
// its monitoring fluent, seeded with the constraint's initial status.
func (t *TrajectoryConstraintsCompiler) classify(out *problem.Problem) ([]monitored, error) {
	s := out.Store()
	ev := validation.NewEvaluator(out, validation.State{})

	var records []monitored
	for _, c := range out.Constraints() {
		n := s.Node(c)
		rec := monitored{kind: n.Kind(), phi: n.Args()[0], psi: exprs.NoID, monitor: exprs.NoID}
		if len(n.Args()) > 1 {
			rec.psi = n.Args()[1]
		}
		fluents, err := constraintFluents(s, n.Args())
		if err != nil {
			return nil, err
		}
		rec.fluents = fluents

		phiHolds, err := ev.EvalBool(rec.phi)
		if err != nil {
			return nil, err
		}
		var seed bool
		switch rec.kind {
		case exprs.KindAlways:
			if !phiHolds {
				return nil, fmt.Errorf("always constraint %s is violated in the initial state: %w",
					s.String(rec.phi), problem.ErrDefinition)
			}
			records = append(records, rec)
			continue
		case exprs.KindSometime, exprs.KindAtMostOnce:
			seed = phiHolds
		case exprs.KindSometimeBefore:
			if phiHolds {
				return nil, fmt.Errorf("sometime-before constraint on %s is violated in the initial state: %w",
					s.String(rec.phi), problem.ErrDefinition)
			}
			seed, err = ev.EvalBool(rec.psi)
			if err != nil {
				return nil, err
			}
		case exprs.KindSometimeAfter:
			psiHolds, err := ev.EvalBool(rec.psi)
			if err != nil {
				return nil, err
			}
			seed = !phiHolds || psiHolds
		default:
			return nil, fmt.Errorf("constraint %s: %w", s.String(c), exprs.ErrUnsupportedConstruct)
		}

		f := model.NewFluent(out.FreshName("monitor"), model.BoolType())
		if err := out.AddCompiledFluent(f, s.Bool(seed)); err != nil {
			return nil, err
		}
		rec.monitor = s.FluentExp(f)
		records = append(records, rec)
	}
	return records, nil
}

// monitorAction regresses one constraint through one action and installs
// the derived precondition and monitor updates. It returns false when the
// derived precondition is constant false, meaning the action can never
// execute without violating the constraint.
func (t *TrajectoryConstraintsCompiler) monitorAction(s *exprs.Store, act *problem.InstantaneousAction, rec monitored, targets map[string]bool) (bool, error) {
	touched := false
	for name := range rec.fluents {
		if targets[name] {
			touched = true
			break
		}
	}
	if !touched {
		// Regression is the identity here; nothing to add.
		return true, nil
	}

	rphi, err := Regress(s, rec.phi, act)
	if err != nil {
		return false, err
	}
	rpsi := exprs.NoID
	if rec.psi != exprs.NoID {
		rpsi, err = Regress(s, rec.psi, act)
		if err != nil {
			return false, err
		}
	}

	switch rec.kind {
	case exprs.KindAlways:
		if rphi == rec.phi {
			return true, nil
		}
		return addDerivedPrecondition(s, act, rphi)

	case exprs.KindAtMostOnce:
		if rphi == rec.phi {
			return true, nil
		}
		ok, err := addDerivedPrecondition(s, act, s.Or(s.Not(rphi), s.Not(rec.monitor), rec.phi))
		if !ok || err != nil {
			return ok, err
		}
		return true, addMonitorUpdate(s, act, rec.monitor, true, rphi)

	case exprs.KindSometimeBefore:
		if rphi != rec.phi {
			ok, err := addDerivedPrecondition(s, act, s.Or(s.Not(rphi), rec.monitor))
			if !ok || err != nil {
				return ok, err
			}
		}
		if rpsi != rec.psi {
			return true, addMonitorUpdate(s, act, rec.monitor, true, rpsi)
		}
		return true, nil

	case exprs.KindSometime:
		if rphi == rec.phi {
			return true, nil
		}
		return true, addMonitorUpdate(s, act, rec.monitor, true, rphi)

	case exprs.KindSometimeAfter:
		if rphi == rec.phi && rpsi == rec.psi {
			return true, nil
		}
		if err := addMonitorUpdate(s, act, rec.monitor, false, s.And(rphi, s.Not(rpsi))); err != nil {
			return false, err
		}
		return true, addMonitorUpdate(s, act, rec.monitor, true, rpsi)
	}
	return true, nil
}

// addDerivedPrecondition simplifies and installs a derived precondition;
// it returns false when the condition is constant false.
func addDerivedPrecondition(s *exprs.Store, act *problem.InstantaneousAction, cond exprs.ID) (bool, error) {
	simplified, err := exprs.Simplify(s, cond)
	if err != nil {
		return false, err
	}
	if s.Node(simplified).IsBoolConstant(false) {
		return false, nil
	}
	if !s.Node(simplified).IsBoolConstant(true) {
		act.AddPrecondition(simplified)
	}
	return true, nil
}

// addMonitorUpdate installs the conditional effect monitor := value when
// cond, unless the simplified guard is constant false.
func addMonitorUpdate(s *exprs.Store, act *problem.InstantaneousAction, monitor exprs.ID, value bool, cond exprs.ID) error {
	guard, err := exprs.Simplify(s, cond)
	if err != nil {
		return err
	}
	if s.Node(guard).IsBoolConstant(false) {
		return nil
	}
	eff, err := problem.NewEffect(s, monitor, s.Bool(value), guard, problem.Assign)
	if err != nil {
		return err
	}
	act.AddEffect(eff)
	return nil
}

// constraintFluents collects the names of every fluent mentioned by the
// constraint's formulas.
func constraintFluents(s *exprs.Store, args []exprs.ID) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, arg := range args {
		fexps, err := exprs.FluentExps(s, arg)
		if err != nil {
			return nil, err
		}
		for _, fexp := range fexps {
			out[s.Node(fexp).Fluent().Name] = true
		}
	}
	return out, nil
}
