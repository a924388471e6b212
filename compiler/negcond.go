package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// NegativeConditionsRemover eliminates negated boolean fluents from all
// conditions. For every fluent negated anywhere it lazily creates one
// shadow fluent with the same signature, rewrites not f(args) into
// shadow(args), makes every effect writing f also write the complementary
// value to shadow, and mirrors the complement in the initial values.
//
// Conditions must already be in negation normal form: a negation over
// anything but a fluent application is a definition error. Conditional
// effects on a negated fluent are rejected; the conditional-effects
// removal pass must run first (pass-ordering contract).
type NegativeConditionsRemover struct{}

// NewNegativeConditionsRemover creates the pass.
func NewNegativeConditionsRemover() *NegativeConditionsRemover {
	return &NegativeConditionsRemover{}
}

func (r *NegativeConditionsRemover) Name() string { return "negative_conditions_remover" }

func (r *NegativeConditionsRemover) SupportedKind() problem.Kind {
	return allFeatures().
		Unset(problem.FeatureTrajectoryConstraints).
		Unset(problem.FeatureStateInvariants)
}

func (r *NegativeConditionsRemover) Supports(k problem.Kind) bool {
	return k.IsSubset(r.SupportedKind())
}

func (r *NegativeConditionsRemover) ResultingKind(k problem.Kind) problem.Kind {
	return k.Clone().Unset(problem.FeatureNegativeConditions)
}

func (r *NegativeConditionsRemover) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(r, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	shadows := make(map[string]*model.Fluent)
	var shadowOrder []string
	shadowOf := func(f *model.Fluent) *model.Fluent {
		if sh, ok := shadows[f.Name]; ok {
			return sh
		}
		sh := model.NewFluent(fmt.Sprintf("%s__not__", f.Name), model.BoolType(), f.Params...)
		shadows[f.Name] = sh
		shadowOrder = append(shadowOrder, f.Name)
		return sh
	}

	rewrite := func(id exprs.ID) (exprs.ID, error) {
		w := exprs.NewRewriter(s)
		w.Handle(exprs.KindNot, func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
			child := s.Node(args[0])
			if child.Kind() != exprs.KindFluent || child.Fluent().Type.Kind != model.BoolKind {
				return exprs.NoID, fmt.Errorf("negation over non-atomic condition %s; conditions must be in NNF: %w",
					s.String(args[0]), problem.ErrDefinition)
			}
			return s.FluentExp(shadowOf(child.Fluent()), child.Args()...), nil
		})
		return w.Walk(id)
	}
	if err := rewriteConditions(out, rewrite); err != nil {
		return nil, err
	}

	// Complement every write of a shadowed fluent, in a second pass so
	// that fluents negated only in goals are covered too.
	for _, a := range out.Actions() {
		switch act := a.(type) {
		case *problem.InstantaneousAction:
			complemented, err := complementEffects(s, act.Effects, shadows)
			if err != nil {
				return nil, fmt.Errorf("action %s: %w", act.Name, err)
			}
			act.Effects = complemented
		case *problem.DurativeAction:
			var timed []problem.TimedEffect
			for _, te := range act.Effects {
				complemented, err := complementEffects(s, []*problem.Effect{te.Effect}, shadows)
				if err != nil {
					return nil, fmt.Errorf("action %s: %w", act.Name, err)
				}
				for _, e := range complemented {
					timed = append(timed, problem.TimedEffect{Timepoint: te.Timepoint, Effect: e})
				}
			}
			act.Effects = timed
		}
	}

	// Register shadow fluents with the complemented default, then mirror
	// the explicit initial values.
	for _, name := range shadowOrder {
		sh := shadows[name]
		def := s.Bool(true) // boolean type default is false, so shadow defaults true
		if explicit, ok := out.FluentDefault(name); ok {
			def = s.Not(explicit)
		}
		if err := out.AddCompiledFluent(sh, def); err != nil {
			return nil, err
		}
	}
	type mirror struct{ fexp, value exprs.ID }
	var mirrors []mirror
	out.ExplicitInitialValues(func(fexp, value exprs.ID) {
		n := s.Node(fexp)
		sh, ok := shadows[n.Fluent().Name]
		if !ok {
			return
		}
		mirrors = append(mirrors, mirror{s.FluentExp(sh, n.Args()...), s.Not(value)})
	})
	for _, m := range mirrors {
		if err := out.SetInitialValue(m.fexp, m.value); err != nil {
			return nil, err
		}
	}

	return &Result{Problem: out, MapBack: IdentityBackMap, Name: r.Name()}, nil
}

// complementEffects appends, after every effect assigning a shadowed
// fluent, the effect assigning the complementary value to its shadow.
func complementEffects(s *exprs.Store, effects []*problem.Effect, shadows map[string]*model.Fluent) ([]*problem.Effect, error) {
	out := make([]*problem.Effect, 0, len(effects))
	for _, e := range effects {
		out = append(out, e)
		n := s.Node(e.Fluent)
		sh, ok := shadows[n.Fluent().Name]
		if !ok {
			continue
		}
		if e.Kind != problem.Assign {
			return nil, fmt.Errorf("numeric effect on negated fluent %s: %w", n.Fluent().Name, problem.ErrDefinition)
		}
		if e.IsConditional(s) {
			return nil, fmt.Errorf("conditional effect on negated fluent %s; run conditional-effects removal first: %w",
				n.Fluent().Name, problem.ErrDefinition)
		}
		out = append(out, &problem.Effect{
			Fluent:    s.FluentExp(sh, n.Args()...),
			Value:     s.Not(e.Value),
			Condition: e.Condition,
			Kind:      problem.Assign,
			Forall:    append([]*model.Variable(nil), e.Forall...),
		})
	}
	return out, nil
}
