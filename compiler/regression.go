package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// Regression computes, for a condition and a ground action, the strongest
// syntactic approximation of whether the condition holds immediately after
// the action executes, as a condition over the pre-action state.
//
// For a boolean fluent literal ℓ with effect-guard disjunction γ(ℓ, a):
//
//	R(ℓ, a) = γ(ℓ, a) ∨ (ℓ ∧ ¬γ(¬ℓ, a))
//
// that is, the action guarantees ℓ, or ℓ already held and the action does
// not guarantee its negation. R distributes structurally over the boolean
// connectives and is the identity on constants. Numeric fluents the action
// writes make regression of a comparison undecidable here and are rejected.

// gamma returns the disjunction of the simplified guard conditions of the
// action's effects that set the boolean fluent expression fexp to val.
// Effects assigning a non-constant boolean expression contribute their
// guard conjoined with the (possibly negated) assigned expression.
func gamma(s *exprs.Store, a *problem.InstantaneousAction, fexp exprs.ID, val bool) (exprs.ID, error) {
	var guards []exprs.ID
	for _, e := range a.Effects {
		if e.Fluent != fexp || e.Kind != problem.Assign {
			continue
		}
		assigned := e.Value
		if !val {
			assigned = s.Not(assigned)
		}
		guard, err := exprs.Simplify(s, s.And(e.Condition, assigned))
		if err != nil {
			return exprs.NoID, err
		}
		guards = append(guards, guard)
	}
	return s.Or(guards...), nil
}

// effectTargets returns the set of ground fluent expressions the action's
// effects write.
func effectTargets(a *problem.InstantaneousAction) map[exprs.ID]bool {
	targets := make(map[exprs.ID]bool, len(a.Effects))
	for _, e := range a.Effects {
		targets[e.Fluent] = true
	}
	return targets
}

// Regress rewrites cond into its regression through the ground action a.
// When the action's effects do not touch any fluent of cond, the result is
// the identical node id (the fixed point callers test for).
func Regress(s *exprs.Store, cond exprs.ID, a *problem.InstantaneousAction) (exprs.ID, error) {
	targets := effectTargets(a)

	w := exprs.NewWalker[exprs.ID](s)
	w.HandleAll([]exprs.Kind{
		exprs.KindConstant, exprs.KindObject,
		exprs.KindNot, exprs.KindAnd, exprs.KindOr,
		exprs.KindImplies, exprs.KindIff,
		exprs.KindLE, exprs.KindLT, exprs.KindEquals,
		exprs.KindPlus, exprs.KindMinus, exprs.KindTimes, exprs.KindDiv,
	}, exprs.Rebuild)

	w.Handle(exprs.KindFluent, func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
		fexp, err := exprs.Rebuild(w, n, args)
		if err != nil {
			return exprs.NoID, err
		}
		if n.Fluent().Type.Kind != model.BoolKind {
			if targets[fexp] {
				return exprs.NoID, fmt.Errorf("regression through numeric effect on %s: %w",
					s.String(fexp), exprs.ErrUnsupportedConstruct)
			}
			return fexp, nil
		}
		gTrue, err := gamma(s, a, fexp, true)
		if err != nil {
			return exprs.NoID, err
		}
		gFalse, err := gamma(s, a, fexp, false)
		if err != nil {
			return exprs.NoID, err
		}
		return s.Or(gTrue, s.And(fexp, s.Not(gFalse))), nil
	})

	return w.Walk(cond)
}
