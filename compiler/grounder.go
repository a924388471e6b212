package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// Grounder replaces every parameterized action with one action per
// concrete parameter binding, enumerating the Cartesian product of the
// parameter domains (booleans, declared objects, bounded integers) in a
// fixed deterministic order. Instances whose simplified precondition is
// constant false are dropped. Parameterless actions pass through unchanged.
type Grounder struct{}

// NewGrounder creates the grounding pass.
func NewGrounder() *Grounder { return &Grounder{} }

func (g *Grounder) Name() string { return "grounder" }

func (g *Grounder) SupportedKind() problem.Kind {
	return allFeatures()
}

func (g *Grounder) Supports(k problem.Kind) bool {
	return k.IsSubset(g.SupportedKind())
}

func (g *Grounder) ResultingKind(k problem.Kind) problem.Kind {
	return k.Clone().
		Unset(problem.FeatureActionParameters).
		Unset(problem.FeatureBoolActionParameters).
		Unset(problem.FeatureBoundedIntActionParameters)
}

func (g *Grounder) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(g, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	table := make(map[string]origin)
	var ground []problem.Action
	costs := make(map[string]map[string]exprs.ID) // metric index -> action name -> cost

	for _, a := range out.Actions() {
		core := a.Core()
		if len(core.Params) == 0 {
			ground = append(ground, a)
			continue
		}
		domains := make([][]exprs.ID, len(core.Params))
		for i, param := range core.Params {
			d, err := out.Domain(param.Type)
			if err != nil {
				return nil, fmt.Errorf("cannot ground %s: %w", core.Name, err)
			}
			domains[i] = d
		}
		for i, binding := range bindings(domains) {
			sub := make(exprs.Substitution, len(core.Params))
			for j, param := range core.Params {
				sub[s.ParamExp(param)] = binding[j]
			}
			name := fmt.Sprintf("%s__%d__", core.Name, i)
			inst, keep, err := groundInstance(s, a, name, sub)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
			ground = append(ground, inst)
			table[name] = origin{name: core.Name, binding: binding}

			for mi, m := range out.Metrics() {
				if m.Kind != problem.MinimizeActionCosts {
					continue
				}
				cost, ok := m.Costs[core.Name]
				if !ok {
					cost = m.DefaultCost
				}
				if cost == exprs.NoID {
					continue
				}
				groundCost, err := exprs.Substitute(s, cost, sub)
				if err != nil {
					return nil, err
				}
				key := fmt.Sprintf("%d", mi)
				if costs[key] == nil {
					costs[key] = make(map[string]exprs.ID)
				}
				costs[key][name] = groundCost
			}
		}
	}

	// Rebuild the action list through the collision check so a problem
	// carrying reserved names is rejected, not silently shadowed.
	out.ReplaceActions(nil)
	for _, a := range ground {
		if err := out.AddCompiledAction(a); err != nil {
			return nil, err
		}
	}

	for mi, m := range out.Metrics() {
		key := fmt.Sprintf("%d", mi)
		if groundCosts, ok := costs[key]; ok {
			m.Costs = groundCosts
		}
	}

	return &Result{Problem: out, MapBack: tableBackMap(table), Name: g.Name()}, nil
}

// groundInstance substitutes one parameter binding into an action. The
// second return value is false when the instance's simplified precondition
// is constant false.
func groundInstance(s *exprs.Store, a problem.Action, name string, sub exprs.Substitution) (problem.Action, bool, error) {
	switch act := a.(type) {
	case *problem.InstantaneousAction:
		inst := problem.NewInstantaneousAction(name)
		pre, err := exprs.Substitute(s, act.Precondition(s), sub)
		if err != nil {
			return nil, false, err
		}
		pre, err = exprs.Simplify(s, pre)
		if err != nil {
			return nil, false, err
		}
		if s.Node(pre).IsBoolConstant(false) {
			return nil, false, nil
		}
		if !s.Node(pre).IsBoolConstant(true) {
			inst.AddPrecondition(pre)
		}
		for _, e := range act.Effects {
			ge, err := substituteEffect(s, e, sub)
			if err != nil {
				return nil, false, err
			}
			inst.AddEffect(ge)
		}
		return inst, true, nil

	case *problem.DurativeAction:
		inst := problem.NewDurativeAction(name)
		inst.Duration = act.Duration
		if act.Duration.Lower != exprs.NoID {
			lo, err := exprs.Substitute(s, act.Duration.Lower, sub)
			if err != nil {
				return nil, false, err
			}
			hi, err := exprs.Substitute(s, act.Duration.Upper, sub)
			if err != nil {
				return nil, false, err
			}
			inst.Duration = problem.Duration{Lower: lo, Upper: hi}
		}
		for _, tc := range act.Conditions {
			cond, err := exprs.Substitute(s, tc.Cond, sub)
			if err != nil {
				return nil, false, err
			}
			cond, err = exprs.Simplify(s, cond)
			if err != nil {
				return nil, false, err
			}
			if s.Node(cond).IsBoolConstant(false) {
				return nil, false, nil
			}
			if !s.Node(cond).IsBoolConstant(true) {
				inst.AddCondition(tc.Interval, cond)
			}
		}
		for _, te := range act.Effects {
			ge, err := substituteEffect(s, te.Effect, sub)
			if err != nil {
				return nil, false, err
			}
			inst.AddEffect(te.Timepoint, ge)
		}
		return inst, true, nil

	default:
		return nil, false, fmt.Errorf("cannot ground action variant %T: %w", a, exprs.ErrUnsupportedConstruct)
	}
}

// substituteEffect applies a parameter binding to an effect. Forall-bound
// variables are untouched; they are not parameters.
func substituteEffect(s *exprs.Store, e *problem.Effect, sub exprs.Substitution) (*problem.Effect, error) {
	fexp, err := exprs.Substitute(s, e.Fluent, sub)
	if err != nil {
		return nil, err
	}
	value, err := exprs.Substitute(s, e.Value, sub)
	if err != nil {
		return nil, err
	}
	cond, err := exprs.Substitute(s, e.Condition, sub)
	if err != nil {
		return nil, err
	}
	out := &problem.Effect{Fluent: fexp, Value: value, Condition: cond, Kind: e.Kind}
	out.Forall = append([]*model.Variable(nil), e.Forall...)
	return out, nil
}

// bindings returns the Cartesian product of the domains, last domain
// varying fastest.
func bindings(domains [][]exprs.ID) [][]exprs.ID {
	combos := [][]exprs.ID{nil}
	for _, domain := range domains {
		next := make([][]exprs.ID, 0, len(combos)*len(domain))
		for _, combo := range combos {
			for _, v := range domain {
				picked := make([]exprs.ID, len(combo), len(combo)+1)
				copy(picked, combo)
				next = append(next, append(picked, v))
			}
		}
		combos = next
	}
	return combos
}
