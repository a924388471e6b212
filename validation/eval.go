// Package validation evaluates ground expressions against problem states
// and validates plans by sequential simulation: precondition checks,
// conflicting-effect detection, goal checks, and trajectory-constraint
// monitoring over the state trace.
package validation

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// State maps ground fluent expression ids to constant value ids. Fluents
// absent from the map resolve through the problem's initial-value fallback
// chain.
type State map[exprs.ID]exprs.ID

// Copy returns an independent copy of the state.
func (st State) Copy() State {
	out := make(State, len(st))
	for k, v := range st {
		out[k] = v
	}
	return out
}

// Evaluator evaluates ground expressions over one problem state.
type Evaluator struct {
	prob  *problem.Problem
	state State
}

// NewEvaluator creates an evaluator over state; a nil state evaluates the
// initial state.
func NewEvaluator(p *problem.Problem, state State) *Evaluator {
	if state == nil {
		state = State{}
	}
	return &Evaluator{prob: p, state: state}
}

// Eval reduces a ground expression to a constant expression id. Unbound
// parameters, variables, and quantifiers are rejected: the input must be
// ground.
func (ev *Evaluator) Eval(root exprs.ID) (exprs.ID, error) {
	s := ev.prob.Store()
	w := exprs.NewSimplifier(s)

	w.Handle(exprs.KindFluent, func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
		fexp, err := exprs.Rebuild(w, n, args)
		if err != nil {
			return exprs.NoID, err
		}
		if v, ok := ev.state[fexp]; ok {
			return v, nil
		}
		if v, ok := ev.prob.InitialValue(fexp); ok {
			return v, nil
		}
		return exprs.NoID, fmt.Errorf("no value for fluent expression %s", s.String(fexp))
	})

	notGround := func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
		return exprs.NoID, fmt.Errorf("expression is not ground at %s: %w", s.String(n.ID()), exprs.ErrUnsupportedConstruct)
	}
	w.Handle(exprs.KindParam, notGround)
	w.Handle(exprs.KindVariable, notGround)
	w.Handle(exprs.KindExists, notGround)
	w.Handle(exprs.KindForall, notGround)

	foldBool := func(op func(a, b bool) bool) exprs.Handler[exprs.ID] {
		return func(w *exprs.Walker[exprs.ID], n *exprs.Node, args []exprs.ID) (exprs.ID, error) {
			a, err := s.ConstantBool(args[0])
			if err != nil {
				return exprs.NoID, err
			}
			b, err := s.ConstantBool(args[1])
			if err != nil {
				return exprs.NoID, err
			}
			return s.Bool(op(a, b)), nil
		}
	}
	w.Handle(exprs.KindImplies, foldBool(func(a, b bool) bool { return !a || b }))
	w.Handle(exprs.KindIff, foldBool(func(a, b bool) bool { return a == b }))

	return w.Walk(root)
}

// EvalBool evaluates a ground boolean expression.
func (ev *Evaluator) EvalBool(root exprs.ID) (bool, error) {
	v, err := ev.Eval(root)
	if err != nil {
		return false, err
	}
	return ev.prob.Store().ConstantBool(v)
}

// Apply executes the effects of one instantiated action on the state,
// returning the successor state. Simultaneous effects are checked for
// conflicts: two assignments of different constants to the same fluent, or
// an increase/decrease colliding with an assignment in the same instant.
func (ev *Evaluator) Apply(effects []*problem.Effect) (State, error) {
	s := ev.prob.Store()
	next := ev.state.Copy()
	assigned := make(map[exprs.ID]exprs.ID)
	adjusted := make(map[exprs.ID]bool)

	var apply func(e *problem.Effect) error
	apply = func(e *problem.Effect) error {
		if len(e.Forall) > 0 {
			return ev.applyForall(e, apply)
		}
		cond, err := ev.EvalBool(e.Condition)
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}
		target, err := ev.groundTarget(e.Fluent)
		if err != nil {
			return err
		}
		value, err := ev.Eval(e.Value)
		if err != nil {
			return err
		}
		switch e.Kind {
		case problem.Assign:
			if prev, ok := assigned[target]; ok && prev != value {
				return fmt.Errorf("fluent %s assigned both %s and %s: %w",
					s.String(target), s.String(prev), s.String(value), problem.ErrConflictingEffects)
			}
			if adjusted[target] {
				return fmt.Errorf("fluent %s assigned and adjusted in the same instant: %w",
					s.String(target), problem.ErrConflictingEffects)
			}
			assigned[target] = value
			next[target] = value
		case problem.Increase, problem.Decrease:
			if _, ok := assigned[target]; ok {
				return fmt.Errorf("fluent %s assigned and adjusted in the same instant: %w",
					s.String(target), problem.ErrConflictingEffects)
			}
			adjusted[target] = true
			current, ok := next[target]
			if !ok {
				current, ok = ev.prob.InitialValue(target)
				if !ok {
					return fmt.Errorf("no value for fluent expression %s", s.String(target))
				}
			}
			updated, err := ev.adjust(current, value, e.Kind)
			if err != nil {
				return err
			}
			next[target] = updated
		}
		return nil
	}

	for _, e := range effects {
		if err := apply(e); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// applyForall expands a forall effect over its variables' domains and
// applies each instance.
func (ev *Evaluator) applyForall(e *problem.Effect, apply func(*problem.Effect) error) error {
	s := ev.prob.Store()
	domains := make([][]exprs.ID, len(e.Forall))
	for i, v := range e.Forall {
		values, err := ev.prob.Domain(v.Type)
		if err != nil {
			return err
		}
		domains[i] = values
	}
	bindings := [][]exprs.ID{nil}
	for _, domain := range domains {
		next := make([][]exprs.ID, 0, len(bindings)*len(domain))
		for _, b := range bindings {
			for _, v := range domain {
				nb := make([]exprs.ID, len(b), len(b)+1)
				copy(nb, b)
				next = append(next, append(nb, v))
			}
		}
		bindings = next
	}
	for _, binding := range bindings {
		sub := make(exprs.Substitution, len(e.Forall))
		for i, v := range e.Forall {
			sub[s.VarExp(v)] = binding[i]
		}
		fexp, err := exprs.Substitute(s, e.Fluent, sub)
		if err != nil {
			return err
		}
		value, err := exprs.Substitute(s, e.Value, sub)
		if err != nil {
			return err
		}
		cond, err := exprs.Substitute(s, e.Condition, sub)
		if err != nil {
			return err
		}
		inst := &problem.Effect{Fluent: fexp, Value: value, Condition: cond, Kind: e.Kind}
		if err := apply(inst); err != nil {
			return err
		}
	}
	return nil
}

// groundTarget evaluates the arguments of a target fluent expression so the
// state key is fully constant.
func (ev *Evaluator) groundTarget(fexp exprs.ID) (exprs.ID, error) {
	s := ev.prob.Store()
	n := s.Node(fexp)
	args := make([]exprs.ID, len(n.Args()))
	for i, a := range n.Args() {
		v, err := ev.Eval(a)
		if err != nil {
			return exprs.NoID, err
		}
		args[i] = v
	}
	return s.FluentExp(n.Fluent(), args...), nil
}

func (ev *Evaluator) adjust(current, delta exprs.ID, kind problem.EffectKind) (exprs.ID, error) {
	s := ev.prob.Store()
	cn, dn := s.Node(current), s.Node(delta)
	if !cn.IsConstant() || !dn.IsConstant() {
		return exprs.NoID, fmt.Errorf("numeric adjustment on non-constant values %s, %s", s.String(current), s.String(delta))
	}
	c, d := cn.Constant(), dn.Constant()
	if c.Type.Kind == model.IntKind && d.Type.Kind == model.IntKind {
		if kind == problem.Increase {
			return s.Int(c.Int + d.Int), nil
		}
		return s.Int(c.Int - d.Int), nil
	}
	cv, dv := numValue(c), numValue(d)
	if kind == problem.Increase {
		return s.Real(cv + dv), nil
	}
	return s.Real(cv - dv), nil
}

func numValue(c exprs.Constant) float64 {
	if c.Type.Kind == model.IntKind {
		return float64(c.Int)
	}
	return c.Real
}
