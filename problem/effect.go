package problem

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
)

// EffectKind discriminates how an effect writes its target fluent.
type EffectKind int

const (
	Assign EffectKind = iota
	Increase
	Decrease
)

func (k EffectKind) String() string {
	switch k {
	case Assign:
		return "assign"
	case Increase:
		return "increase"
	case Decrease:
		return "decrease"
	default:
		return fmt.Sprintf("effect-kind(%d)", int(k))
	}
}

// Effect writes Value into the Fluent expression when Condition holds,
// optionally universally quantified over the Forall variables.
//
// Invariants, checked by NewEffect: the target's own arguments contain no
// fluent references, and the free variables of target, value, and condition
// are exactly the forall-bound set.
type Effect struct {
	Fluent    exprs.ID
	Value     exprs.ID
	Condition exprs.ID
	Kind      EffectKind
	Forall    []*model.Variable
}

// NewEffect builds an effect and checks its invariants against s.
func NewEffect(s *exprs.Store, fluent, value, condition exprs.ID, kind EffectKind, forall ...*model.Variable) (*Effect, error) {
	target := s.Node(fluent)
	if target.Kind() != exprs.KindFluent {
		return nil, fmt.Errorf("effect target %s is not a fluent expression: %w", s.String(fluent), ErrDefinition)
	}
	for _, arg := range target.Args() {
		nested, err := exprs.FluentExps(s, arg)
		if err != nil {
			return nil, err
		}
		if len(nested) > 0 {
			return nil, fmt.Errorf("effect target %s has fluent-valued arguments: %w", s.String(fluent), ErrDefinition)
		}
	}

	free, err := effectFreeVars(s, fluent, value, condition)
	if err != nil {
		return nil, err
	}
	bound := make(map[string]bool, len(forall))
	for _, v := range forall {
		bound[v.Name] = true
	}
	for _, v := range free {
		if !bound[v.Name] {
			return nil, fmt.Errorf("variable %s is free in effect on %s: %w", v.Name, s.String(fluent), ErrUnboundVariable)
		}
	}
	if len(free) != len(bound) {
		freeNames := make(map[string]bool, len(free))
		for _, v := range free {
			freeNames[v.Name] = true
		}
		for _, v := range forall {
			if !freeNames[v.Name] {
				return nil, fmt.Errorf("forall variable %s is unused in effect on %s: %w", v.Name, s.String(fluent), ErrUnboundVariable)
			}
		}
	}

	return &Effect{Fluent: fluent, Value: value, Condition: condition, Kind: kind, Forall: forall}, nil
}

func effectFreeVars(s *exprs.Store, ids ...exprs.ID) ([]*model.Variable, error) {
	seen := make(map[string]bool)
	var out []*model.Variable
	for _, id := range ids {
		vars, err := exprs.FreeVars(s, id)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// IsConditional reports whether the effect's guard is not the constant true.
func (e *Effect) IsConditional(s *exprs.Store) bool {
	return !s.Node(e.Condition).IsBoolConstant(true)
}

// Clone returns a deep copy; expression ids are shared since nodes are
// immutable and interned.
func (e *Effect) Clone() *Effect {
	out := *e
	out.Forall = append([]*model.Variable(nil), e.Forall...)
	return &out
}

func (e *Effect) String(s *exprs.Store) string {
	op := ":="
	switch e.Kind {
	case Increase:
		op = "+="
	case Decrease:
		op = "-="
	}
	str := fmt.Sprintf("%s %s %s", s.String(e.Fluent), op, s.String(e.Value))
	if e.IsConditional(s) {
		str = fmt.Sprintf("if %s then %s", s.String(e.Condition), str)
	}
	if len(e.Forall) > 0 {
		vars := make([]string, len(e.Forall))
		for i, v := range e.Forall {
			vars[i] = v.String()
		}
		str = fmt.Sprintf("forall (%v) %s", vars, str)
	}
	return str
}
