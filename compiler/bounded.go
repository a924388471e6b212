package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// BoundedTypesRemover retypes every bounded-integer fluent to the
// unbounded integer type and materializes the bounds as invariants:
// lower <= f(...) <= upper for every ground instantiation, conjoined into
// every action condition and into the goal. Implicit initial values that
// depended on the bounds are pinned down as per-fluent defaults before
// the retype, so the initial state is unchanged.
type BoundedTypesRemover struct{}

// NewBoundedTypesRemover creates the pass.
func NewBoundedTypesRemover() *BoundedTypesRemover { return &BoundedTypesRemover{} }

func (r *BoundedTypesRemover) Name() string { return "bounded_types_remover" }

func (r *BoundedTypesRemover) SupportedKind() problem.Kind {
	return allFeatures()
}

func (r *BoundedTypesRemover) Supports(k problem.Kind) bool {
	return k.IsSubset(r.SupportedKind())
}

func (r *BoundedTypesRemover) ResultingKind(k problem.Kind) problem.Kind {
	return k.Clone().Unset(problem.FeatureBoundedTypes)
}

func (r *BoundedTypesRemover) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(r, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	retyped := make(map[string]*model.Fluent)
	var bounded []*model.Fluent // source fluents, declaration order
	fluents := make([]*model.Fluent, len(out.Fluents()))
	for i, f := range out.Fluents() {
		if f.Type.Kind == model.IntKind && (f.Type.Lower != nil || f.Type.Upper != nil) {
			nf := model.NewFluent(f.Name, model.IntType(), f.Params...)
			retyped[f.Name] = nf
			bounded = append(bounded, f)
			fluents[i] = nf
			continue
		}
		fluents[i] = f
	}
	if len(bounded) == 0 {
		return &Result{Problem: out, MapBack: IdentityBackMap, Name: r.Name()}, nil
	}

	// Pin the bound-dependent type default down before it changes.
	for _, f := range bounded {
		if _, ok := out.FluentDefault(f.Name); ok {
			continue
		}
		def := int64(0)
		if f.Type.Lower != nil && *f.Type.Lower > 0 {
			def = *f.Type.Lower
		}
		if f.Type.Upper != nil && *f.Type.Upper < def {
			def = *f.Type.Upper
		}
		if err := out.SetFluentDefault(f.Name, s.Int(def)); err != nil {
			return nil, err
		}
	}

	retarget := func(id exprs.ID) (exprs.ID, error) {
		w := exprs.NewRewriter(s)
		w.Handle(exprs.KindFluent, func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
			nf, ok := retyped[n.Fluent().Name]
			if !ok {
				return exprs.Rebuild(w, n, args)
			}
			return s.FluentExp(nf, args...), nil
		})
		return w.Walk(id)
	}
	if err := rewriteConditions(out, retarget); err != nil {
		return nil, err
	}
	if err := retargetEffects(out, retarget); err != nil {
		return nil, err
	}
	for _, m := range out.Metrics() {
		if m.Expr == exprs.NoID {
			continue
		}
		rewritten, err := retarget(m.Expr)
		if err != nil {
			return nil, err
		}
		m.Expr = rewritten
	}

	type assignment struct{ fexp, value exprs.ID }
	var assignments []assignment
	out.ExplicitInitialValues(func(fexp, value exprs.ID) {
		assignments = append(assignments, assignment{fexp, value})
	})
	out.ClearInitialValues()
	out.ReplaceFluents(fluents)
	for _, a := range assignments {
		fexp, err := retarget(a.fexp)
		if err != nil {
			return nil, err
		}
		if err := out.SetInitialValue(fexp, a.value); err != nil {
			return nil, err
		}
	}

	invariant, err := boundInvariant(out, bounded, retyped)
	if err != nil {
		return nil, err
	}
	if !s.Node(invariant).IsBoolConstant(true) {
		for _, a := range out.Actions() {
			switch act := a.(type) {
			case *problem.InstantaneousAction:
				act.AddPrecondition(invariant)
			case *problem.DurativeAction:
				act.AddCondition(problem.OverAll(), invariant)
			}
		}
		out.AddGoal(invariant)
	}

	return &Result{Problem: out, MapBack: IdentityBackMap, Name: r.Name()}, nil
}

// boundInvariant conjoins lower <= f(...) <= upper over every ground
// instantiation of every bounded fluent, whichever bounds exist.
func boundInvariant(out *problem.Problem, bounded []*model.Fluent, retyped map[string]*model.Fluent) (exprs.ID, error) {
	s := out.Store()
	var conjuncts []exprs.ID
	for _, f := range bounded {
		nf := retyped[f.Name]
		domains := make([][]exprs.ID, len(f.Params))
		for i, param := range f.Params {
			d, err := out.Domain(param.Type)
			if err != nil {
				return exprs.NoID, fmt.Errorf("cannot enumerate instances of bounded fluent %s: %w", f.Name, err)
			}
			domains[i] = d
		}
		for _, binding := range bindings(domains) {
			fexp := s.FluentExp(nf, binding...)
			if f.Type.Lower != nil {
				conjuncts = append(conjuncts, s.LE(s.Int(*f.Type.Lower), fexp))
			}
			if f.Type.Upper != nil {
				conjuncts = append(conjuncts, s.LE(fexp, s.Int(*f.Type.Upper)))
			}
		}
	}
	return s.And(conjuncts...), nil
}

// retargetEffects applies fn to effect targets and values; guards are
// covered by rewriteConditions.
func retargetEffects(p *problem.Problem, fn func(exprs.ID) (exprs.ID, error)) error {
	apply := func(e *problem.Effect) error {
		fexp, err := fn(e.Fluent)
		if err != nil {
			return err
		}
		value, err := fn(e.Value)
		if err != nil {
			return err
		}
		e.Fluent, e.Value = fexp, value
		return nil
	}
	for _, a := range p.Actions() {
		switch act := a.(type) {
		case *problem.InstantaneousAction:
			for _, e := range act.Effects {
				if err := apply(e); err != nil {
					return err
				}
			}
		case *problem.DurativeAction:
			for _, te := range act.Effects {
				if err := apply(te.Effect); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
