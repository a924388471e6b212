package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// DisjunctiveConditionsRemover turns every condition into a conjunction of
// literals. Preconditions are put in disjunctive normal form and actions
// with more than one disjunct are split into sibling actions, one per
// disjunct, all mapping back to the source action. Disjunctive effect
// guards split the effect the same way. A disjunctive goal is replaced by
// a fresh goal fluent plus one synthetic achiever action per disjunct;
// achiever steps vanish from mapped-back plans.
type DisjunctiveConditionsRemover struct{}

// NewDisjunctiveConditionsRemover creates the pass.
func NewDisjunctiveConditionsRemover() *DisjunctiveConditionsRemover {
	return &DisjunctiveConditionsRemover{}
}

func (r *DisjunctiveConditionsRemover) Name() string { return "disjunctive_conditions_remover" }

func (r *DisjunctiveConditionsRemover) SupportedKind() problem.Kind {
	return allFeatures().
		Unset(problem.FeatureTrajectoryConstraints).
		Unset(problem.FeatureStateInvariants)
}

func (r *DisjunctiveConditionsRemover) Supports(k problem.Kind) bool {
	return k.IsSubset(r.SupportedKind())
}

func (r *DisjunctiveConditionsRemover) ResultingKind(k problem.Kind) problem.Kind {
	out := k.Clone().Unset(problem.FeatureDisjunctiveConditions)
	if k.Has(problem.FeatureDisjunctiveConditions) {
		// Normal forms negate literals, and goal splitting may add a
		// synthetic achiever action.
		out.Set(problem.FeatureNegativeConditions)
	}
	return out
}

func (r *DisjunctiveConditionsRemover) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(r, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	table := make(map[string]origin)
	var actions []problem.Action

	for _, a := range out.Actions() {
		split, err := splitAction(s, a)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.Core().Name, err)
		}
		if len(split) == 1 {
			split[0].Core().Name = a.Core().Name
			actions = append(actions, split[0])
			continue
		}
		for i, inst := range split {
			name := fmt.Sprintf("%s__%d__", a.Core().Name, i)
			inst.Core().Name = name
			actions = append(actions, inst)
			table[name] = origin{name: a.Core().Name}
		}
	}

	out.ReplaceActions(nil)
	for _, a := range actions {
		if err := out.AddCompiledAction(a); err != nil {
			return nil, err
		}
	}

	if err := splitGoal(out, table); err != nil {
		return nil, err
	}

	return &Result{Problem: out, MapBack: tableBackMap(table), Name: r.Name()}, nil
}

// splitAction returns the action's DNF siblings. Names are left for the
// caller to assign. Siblings whose precondition is constant false are
// dropped; a constant-true precondition becomes empty.
func splitAction(s *exprs.Store, a problem.Action) ([]problem.Action, error) {
	switch act := a.(type) {
	case *problem.InstantaneousAction:
		choices, err := exprs.DNF(s, act.Precondition(s))
		if err != nil {
			return nil, err
		}
		effects, err := splitGuards(s, act.Effects)
		if err != nil {
			return nil, err
		}
		var siblings []problem.Action
		for _, d := range s.Disjuncts(choices) {
			if s.Node(d).IsBoolConstant(false) {
				continue
			}
			inst := problem.NewInstantaneousAction("", act.Params...)
			if !s.Node(d).IsBoolConstant(true) {
				inst.Preconditions = s.Conjuncts(d)
			}
			for _, e := range effects {
				inst.AddEffect(e.Clone())
			}
			siblings = append(siblings, inst)
		}
		return siblings, nil

	case *problem.DurativeAction:
		slots := make([][]exprs.ID, len(act.Conditions))
		for i, tc := range act.Conditions {
			dnf, err := exprs.DNF(s, tc.Cond)
			if err != nil {
				return nil, err
			}
			slots[i] = s.Disjuncts(dnf)
		}
		var effects []problem.TimedEffect
		for _, te := range act.Effects {
			split, err := splitGuards(s, []*problem.Effect{te.Effect})
			if err != nil {
				return nil, err
			}
			for _, e := range split {
				effects = append(effects, problem.TimedEffect{Timepoint: te.Timepoint, Effect: e})
			}
		}
		var siblings []problem.Action
	combos:
		for _, combo := range bindings(slots) {
			inst := problem.NewDurativeAction("", act.Params...)
			inst.Duration = act.Duration
			for i, cond := range combo {
				if s.Node(cond).IsBoolConstant(false) {
					continue combos
				}
				if !s.Node(cond).IsBoolConstant(true) {
					inst.AddCondition(act.Conditions[i].Interval, cond)
				}
			}
			for _, te := range effects {
				inst.AddEffect(te.Timepoint, te.Effect.Clone())
			}
			siblings = append(siblings, inst)
		}
		return siblings, nil

	default:
		return nil, fmt.Errorf("cannot split action variant %T: %w", a, exprs.ErrUnsupportedConstruct)
	}
}

// splitGuards rewrites every effect guard to DNF and splits effects with
// more than one guard disjunct into one effect per disjunct.
func splitGuards(s *exprs.Store, effects []*problem.Effect) ([]*problem.Effect, error) {
	out := make([]*problem.Effect, 0, len(effects))
	for _, e := range effects {
		if !e.IsConditional(s) {
			out = append(out, e)
			continue
		}
		dnf, err := exprs.DNF(s, e.Condition)
		if err != nil {
			return nil, err
		}
		for _, d := range s.Disjuncts(dnf) {
			if s.Node(d).IsBoolConstant(false) {
				continue
			}
			split := e.Clone()
			split.Condition = d
			out = append(out, split)
		}
	}
	return out, nil
}

// splitGoal replaces a disjunctive goal with a fresh goal fluent achieved
// by one synthetic parameterless action per goal disjunct.
func splitGoal(out *problem.Problem, table map[string]origin) error {
	s := out.Store()
	dnf, err := exprs.DNF(s, s.And(out.Goals()...))
	if err != nil {
		return err
	}
	disjuncts := s.Disjuncts(dnf)
	if len(disjuncts) <= 1 {
		out.ReplaceGoals(s.Conjuncts(dnf))
		return nil
	}

	goal := model.NewFluent(out.FreshName("goal"), model.BoolType())
	if err := out.AddCompiledFluent(goal, s.Bool(false)); err != nil {
		return err
	}
	gexp := s.FluentExp(goal)
	for _, d := range disjuncts {
		name := out.FreshName("achieve_goal")
		achiever := problem.NewInstantaneousAction(name)
		if !s.Node(d).IsBoolConstant(true) {
			achiever.Preconditions = s.Conjuncts(d)
		}
		eff, err := problem.NewEffect(s, gexp, s.Bool(true), s.Bool(true), problem.Assign)
		if err != nil {
			return err
		}
		achiever.AddEffect(eff)
		if err := out.AddCompiledAction(achiever); err != nil {
			return err
		}
		table[name] = origin{drop: true}
	}
	out.ReplaceGoals([]exprs.ID{gexp})
	return nil
}
