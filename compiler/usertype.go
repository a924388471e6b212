package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// UserTypeFluentsRemover eliminates fluents whose value type is a user
// type. Each such fluent gains one extra parameter of that type and is
// retyped boolean: f(args) = obj becomes f(args, obj). Equalities between
// two object fluents expand into a disjunction over the shared domain, and
// an assignment f(args) := v becomes one boolean assignment per domain
// object with value v = o.
type UserTypeFluentsRemover struct{}

// NewUserTypeFluentsRemover creates the pass.
func NewUserTypeFluentsRemover() *UserTypeFluentsRemover { return &UserTypeFluentsRemover{} }

func (r *UserTypeFluentsRemover) Name() string { return "usertype_fluents_remover" }

func (r *UserTypeFluentsRemover) SupportedKind() problem.Kind {
	return allFeatures()
}

func (r *UserTypeFluentsRemover) Supports(k problem.Kind) bool {
	return k.IsSubset(r.SupportedKind())
}

func (r *UserTypeFluentsRemover) ResultingKind(k problem.Kind) problem.Kind {
	out := k.Clone().Unset(problem.FeatureObjectFluents)
	if k.Has(problem.FeatureObjectFluents) {
		out.Set(problem.FeatureEqualities)
		out.Set(problem.FeatureDisjunctiveConditions)
	}
	return out
}

func (r *UserTypeFluentsRemover) Compile(p *problem.Problem) (*Result, error) {
	if err := checkSupported(r, p); err != nil {
		return nil, err
	}
	out := p.Clone()
	s := out.Store()

	retyped := make(map[string]*model.Fluent)
	var sources []*model.Fluent
	fluents := make([]*model.Fluent, len(out.Fluents()))
	for i, f := range out.Fluents() {
		if f.Type.Kind != model.UserKind {
			fluents[i] = f
			continue
		}
		params := append(append([]*model.Parameter(nil), f.Params...), model.NewParameter(valueParamName(f), f.Type))
		nf := model.NewFluent(f.Name, model.BoolType(), params...)
		retyped[f.Name] = nf
		sources = append(sources, f)
		fluents[i] = nf
	}
	if len(retyped) == 0 {
		return &Result{Problem: out, MapBack: IdentityBackMap, Name: r.Name()}, nil
	}

	rewrite := func(id exprs.ID) (exprs.ID, error) {
		rewritten, err := rewriteObjectFluents(s, out, retyped, id)
		if err != nil {
			return exprs.NoID, err
		}
		return rewritten, checkNoObjectFluents(s, rewritten)
	}
	if err := rewriteConditions(out, rewrite); err != nil {
		return nil, err
	}
	if err := rewriteObjectEffects(out, retyped, rewrite); err != nil {
		return nil, err
	}
	for _, m := range out.Metrics() {
		if m.Expr == exprs.NoID {
			continue
		}
		rewritten, err := rewrite(m.Expr)
		if err != nil {
			return nil, err
		}
		m.Expr = rewritten
	}

	if err := rebuildInitialValues(out, sources, retyped); err != nil {
		return nil, err
	}
	out.ReplaceFluents(fluents)

	return &Result{Problem: out, MapBack: IdentityBackMap, Name: r.Name()}, nil
}

// valueParamName picks a parameter name for the appended value slot that
// does not collide with the fluent's own parameters.
func valueParamName(f *model.Fluent) string {
	taken := make(map[string]bool, len(f.Params))
	for _, p := range f.Params {
		taken[p.Name] = true
	}
	name := "value"
	for n := 0; taken[name]; n++ {
		name = fmt.Sprintf("value__%d__", n)
	}
	return name
}

// rewriteObjectFluents rewrites equalities over object fluents. Other
// occurrences are left for checkNoObjectFluents to reject.
func rewriteObjectFluents(s *exprs.Store, out *problem.Problem, retyped map[string]*model.Fluent, id exprs.ID) (exprs.ID, error) {
	w := exprs.NewRewriter(s)
	w.Handle(exprs.KindEquals, func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
		a, b := s.Node(args[0]), s.Node(args[1])
		af, aOk := objectFluent(a, retyped)
		bf, bOk := objectFluent(b, retyped)
		switch {
		case aOk && bOk:
			domain, err := out.Domain(a.Fluent().Type)
			if err != nil {
				return exprs.NoID, fmt.Errorf("cannot expand %s = %s: %w", s.String(args[0]), s.String(args[1]), err)
			}
			disjuncts := make([]exprs.ID, len(domain))
			for i, o := range domain {
				disjuncts[i] = s.And(
					s.FluentExp(af, append(append([]exprs.ID(nil), a.Args()...), o)...),
					s.FluentExp(bf, append(append([]exprs.ID(nil), b.Args()...), o)...),
				)
			}
			return s.Or(disjuncts...), nil
		case aOk:
			return s.FluentExp(af, append(append([]exprs.ID(nil), a.Args()...), args[1])...), nil
		case bOk:
			return s.FluentExp(bf, append(append([]exprs.ID(nil), b.Args()...), args[0])...), nil
		default:
			return exprs.Rebuild(w, n, args)
		}
	})
	return w.Walk(id)
}

func objectFluent(n *exprs.Node, retyped map[string]*model.Fluent) (*model.Fluent, bool) {
	if n.Kind() != exprs.KindFluent {
		return nil, false
	}
	nf, ok := retyped[n.Fluent().Name]
	if !ok || n.Fluent().Type.Kind != model.UserKind {
		return nil, false
	}
	return nf, ok
}

// checkNoObjectFluents rejects object-fluent applications that survive the
// equality rewrite, such as one nested in another fluent's arguments.
func checkNoObjectFluents(s *exprs.Store, id exprs.ID) error {
	fexps, err := exprs.FluentExps(s, id)
	if err != nil {
		return err
	}
	for _, fexp := range fexps {
		if s.Node(fexp).Fluent().Type.Kind == model.UserKind {
			return fmt.Errorf("object fluent %s used outside an equality: %w",
				s.String(fexp), exprs.ErrUnsupportedConstruct)
		}
	}
	return nil
}

// rewriteObjectEffects turns each assignment to an object fluent into one
// boolean assignment per domain object, value true iff the assigned
// expression equals that object.
func rewriteObjectEffects(out *problem.Problem, retyped map[string]*model.Fluent, rewrite func(exprs.ID) (exprs.ID, error)) error {
	s := out.Store()
	split := func(e *problem.Effect) ([]*problem.Effect, error) {
		n := s.Node(e.Fluent)
		nf, ok := objectFluent(n, retyped)
		if !ok {
			return []*problem.Effect{e}, nil
		}
		if e.Kind != problem.Assign {
			return nil, fmt.Errorf("numeric effect on object fluent %s: %w", n.Fluent().Name, problem.ErrDefinition)
		}
		value, err := rewrite(e.Value)
		if err != nil {
			return nil, err
		}
		domain, err := out.Domain(n.Fluent().Type)
		if err != nil {
			return nil, fmt.Errorf("cannot expand effect on %s: %w", n.Fluent().Name, err)
		}
		effects := make([]*problem.Effect, len(domain))
		for i, o := range domain {
			effects[i] = &problem.Effect{
				Fluent:    s.FluentExp(nf, append(append([]exprs.ID(nil), n.Args()...), o)...),
				Value:     s.Equals(value, o),
				Condition: e.Condition,
				Kind:      problem.Assign,
				Forall:    append([]*model.Variable(nil), e.Forall...),
			}
		}
		return effects, nil
	}

	for _, a := range out.Actions() {
		switch act := a.(type) {
		case *problem.InstantaneousAction:
			var effects []*problem.Effect
			for _, e := range act.Effects {
				expanded, err := split(e)
				if err != nil {
					return fmt.Errorf("action %s: %w", act.Name, err)
				}
				effects = append(effects, expanded...)
			}
			act.Effects = effects
		case *problem.DurativeAction:
			var timed []problem.TimedEffect
			for _, te := range act.Effects {
				expanded, err := split(te.Effect)
				if err != nil {
					return fmt.Errorf("action %s: %w", act.Name, err)
				}
				for _, e := range expanded {
					timed = append(timed, problem.TimedEffect{Timepoint: te.Timepoint, Effect: e})
				}
			}
			act.Effects = timed
		}
	}
	return nil
}

// rebuildInitialValues resolves, per ground instantiation of each object
// fluent, the object it starts at, and records the boolean fact; ground
// instantiations with no resolvable value stay unassigned and default to
// false everywhere.
func rebuildInitialValues(out *problem.Problem, sources []*model.Fluent, retyped map[string]*model.Fluent) error {
	s := out.Store()

	type assignment struct{ fexp, value exprs.ID }
	var assignments []assignment
	out.ExplicitInitialValues(func(fexp, value exprs.ID) {
		if _, ok := retyped[s.Node(fexp).Fluent().Name]; ok {
			return
		}
		assignments = append(assignments, assignment{fexp, value})
	})

	for _, f := range sources {
		nf := retyped[f.Name]
		domains := make([][]exprs.ID, len(f.Params))
		for i, param := range f.Params {
			d, err := out.Domain(param.Type)
			if err != nil {
				return fmt.Errorf("cannot enumerate instances of object fluent %s: %w", f.Name, err)
			}
			domains[i] = d
		}
		for _, binding := range bindings(domains) {
			fexp := s.FluentExp(f, binding...)
			obj, ok := out.InitialValue(fexp)
			if !ok {
				continue
			}
			key := s.FluentExp(nf, append(append([]exprs.ID(nil), binding...), obj)...)
			assignments = append(assignments, assignment{key, s.Bool(true)})
		}
	}

	out.ClearInitialValues()
	for _, f := range sources {
		// The object-valued default has been folded into the explicit
		// assignments above; the boolean replacement defaults to false.
		if err := out.SetFluentDefault(f.Name, s.Bool(false)); err != nil {
			return err
		}
	}
	for _, a := range assignments {
		if err := out.SetInitialValue(a.fexp, a.value); err != nil {
			return err
		}
	}
	return nil
}
