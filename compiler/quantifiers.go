package compiler

import (
	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/problem"
)

// QuantifierEliminator expands every exists into a disjunction and every
// forall into a conjunction over the Cartesian product of the bound
// variables' finite domains, uniformly in every condition, effect guard,
// goal, and constraint of the problem.
type QuantifierEliminator struct{}

// NewQuantifierEliminator creates the quantifier-expansion pass.
func NewQuantifierEliminator() *QuantifierEliminator { return &QuantifierEliminator{} }

func (q *QuantifierEliminator) Name() string { return "quantifier_eliminator" }

func (q *QuantifierEliminator) SupportedKind() problem.Kind {
	return allFeatures()
}

func (q *QuantifierEliminator) Supports(k problem.Kind) bool {
	return k.IsSubset(q.SupportedKind())
}

func (q *QuantifierEliminator) ResultingKind(k problem.Kind) problem.Kind {
	out := k.Clone().
		Unset(problem.FeatureExistentialConditions).
		Unset(problem.FeatureUniversalConditions)
	if k.Has(problem.FeatureExistentialConditions) {
		out.Set(problem.FeatureDisjunctiveConditions)
	}
	return out
}

func (q *QuantifierEliminator) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(q, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()
	expand := func(id exprs.ID) (exprs.ID, error) {
		return exprs.NewQuantifierExpander(s, out.Domain).Walk(id)
	}
	if err := rewriteConditions(out, expand); err != nil {
		return nil, err
	}
	return &Result{Problem: out, MapBack: IdentityBackMap, Name: q.Name()}, nil
}

// rewriteConditions applies fn to every boolean condition of the problem:
// action preconditions and guards, goals, and trajectory constraint
// arguments. Actions keep their names, so passes built on it map plans
// back with the identity.
func rewriteConditions(p *problem.Problem, fn func(exprs.ID) (exprs.ID, error)) error {
	s := p.Store()
	for _, a := range p.Actions() {
		switch act := a.(type) {
		case *problem.InstantaneousAction:
			for i, c := range act.Preconditions {
				rewritten, err := fn(c)
				if err != nil {
					return err
				}
				act.Preconditions[i] = rewritten
			}
			if err := rewriteEffectGuards(act.Effects, fn); err != nil {
				return err
			}
		case *problem.DurativeAction:
			for i, tc := range act.Conditions {
				rewritten, err := fn(tc.Cond)
				if err != nil {
					return err
				}
				act.Conditions[i].Cond = rewritten
			}
			effects := make([]*problem.Effect, 0, len(act.Effects))
			for _, te := range act.Effects {
				effects = append(effects, te.Effect)
			}
			if err := rewriteEffectGuards(effects, fn); err != nil {
				return err
			}
		}
	}
	goals := p.Goals()
	for i, g := range goals {
		rewritten, err := fn(g)
		if err != nil {
			return err
		}
		goals[i] = rewritten
	}
	constraints := p.Constraints()
	for i, c := range constraints {
		n := s.Node(c)
		args := make([]exprs.ID, len(n.Args()))
		changed := false
		for j, arg := range n.Args() {
			rewritten, err := fn(arg)
			if err != nil {
				return err
			}
			args[j] = rewritten
			if rewritten != arg {
				changed = true
			}
		}
		if !changed {
			continue
		}
		switch n.Kind() {
		case exprs.KindAlways:
			constraints[i] = s.Always(args[0])
		case exprs.KindSometime:
			constraints[i] = s.Sometime(args[0])
		case exprs.KindAtMostOnce:
			constraints[i] = s.AtMostOnce(args[0])
		case exprs.KindSometimeBefore:
			constraints[i] = s.SometimeBefore(args[0], args[1])
		case exprs.KindSometimeAfter:
			constraints[i] = s.SometimeAfter(args[0], args[1])
		}
	}
	return nil
}

func rewriteEffectGuards(effects []*problem.Effect, fn func(exprs.ID) (exprs.ID, error)) error {
	for _, e := range effects {
		rewritten, err := fn(e.Condition)
		if err != nil {
			return err
		}
		e.Condition = rewritten
	}
	return nil
}
