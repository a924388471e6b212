package exprs

import (
	"github.com/plankit-xyz/go-plankit/model"
)

// Builder functions. Every builder funnels through Store.intern and applies
// local peephole reduction first: singleton and/or collapse, empty and =
// true, empty or = false, double negation, constant negation, trivial
// equality. Reductions are local only; structural simplification beyond one
// node lives in the simplifier walker.

// Bool returns the boolean constant b.
func (s *Store) Bool(b bool) ID {
	return s.intern(Node{kind: KindConstant, constant: Constant{Type: model.BoolType(), Bool: b}})
}

// Int returns the integer constant v.
func (s *Store) Int(v int64) ID {
	return s.intern(Node{kind: KindConstant, constant: Constant{Type: model.IntType(), Int: v}})
}

// Real returns the real constant v.
func (s *Store) Real(v float64) ID {
	return s.intern(Node{kind: KindConstant, constant: Constant{Type: model.RealType(), Real: v}})
}

// ObjectExp returns the expression denoting object o.
func (s *Store) ObjectExp(o *model.Object) ID {
	return s.intern(Node{kind: KindObject, object: o})
}

// ParamExp returns the expression denoting action parameter p.
func (s *Store) ParamExp(p *model.Parameter) ID {
	return s.intern(Node{kind: KindParam, param: p})
}

// VarExp returns the expression denoting bound variable v.
func (s *Store) VarExp(v *model.Variable) ID {
	return s.intern(Node{kind: KindVariable, variable: v})
}

// FluentExp returns the application of fluent f to args.
func (s *Store) FluentExp(f *model.Fluent, args ...ID) ID {
	return s.intern(Node{kind: KindFluent, fluent: f, args: args})
}

// And returns the conjunction of args. Nested conjunctions are flattened,
// true conjuncts and duplicates dropped; an empty conjunction is true and a
// false conjunct makes the whole conjunction false.
func (s *Store) And(args ...ID) ID {
	flat := make([]ID, 0, len(args))
	seen := make(map[ID]bool, len(args))
	for _, a := range args {
		n := s.Node(a)
		if n.kind == KindAnd {
			for _, c := range n.args {
				if cn := s.Node(c); cn.IsBoolConstant(false) {
					return s.Bool(false)
				} else if !cn.IsBoolConstant(true) && !seen[c] {
					seen[c] = true
					flat = append(flat, c)
				}
			}
			continue
		}
		if n.IsBoolConstant(false) {
			return s.Bool(false)
		}
		if n.IsBoolConstant(true) || seen[a] {
			continue
		}
		seen[a] = true
		flat = append(flat, a)
	}
	switch len(flat) {
	case 0:
		return s.Bool(true)
	case 1:
		return flat[0]
	}
	return s.intern(Node{kind: KindAnd, args: flat})
}

// Or returns the disjunction of args, with reductions dual to And.
func (s *Store) Or(args ...ID) ID {
	flat := make([]ID, 0, len(args))
	seen := make(map[ID]bool, len(args))
	for _, a := range args {
		n := s.Node(a)
		if n.kind == KindOr {
			for _, c := range n.args {
				if cn := s.Node(c); cn.IsBoolConstant(true) {
					return s.Bool(true)
				} else if !cn.IsBoolConstant(false) && !seen[c] {
					seen[c] = true
					flat = append(flat, c)
				}
			}
			continue
		}
		if n.IsBoolConstant(true) {
			return s.Bool(true)
		}
		if n.IsBoolConstant(false) || seen[a] {
			continue
		}
		seen[a] = true
		flat = append(flat, a)
	}
	switch len(flat) {
	case 0:
		return s.Bool(false)
	case 1:
		return flat[0]
	}
	return s.intern(Node{kind: KindOr, args: flat})
}

// Not returns the negation of a. Double negation and constant negation are
// collapsed.
func (s *Store) Not(a ID) ID {
	n := s.Node(a)
	if n.kind == KindNot {
		return n.args[0]
	}
	if n.kind == KindConstant && n.constant.Type.Kind == model.BoolKind {
		return s.Bool(!n.constant.Bool)
	}
	return s.intern(Node{kind: KindNot, args: []ID{a}})
}

// Implies returns a -> b.
func (s *Store) Implies(a, b ID) ID {
	return s.intern(Node{kind: KindImplies, args: []ID{a, b}})
}

// Iff returns a <-> b.
func (s *Store) Iff(a, b ID) ID {
	return s.intern(Node{kind: KindIff, args: []ID{a, b}})
}

// Exists returns the existential quantification of body over vars. With no
// variables the body is returned unchanged.
func (s *Store) Exists(body ID, vars ...*model.Variable) ID {
	if len(vars) == 0 {
		return body
	}
	return s.intern(Node{kind: KindExists, args: []ID{body}, vars: vars})
}

// Forall returns the universal quantification of body over vars.
func (s *Store) Forall(body ID, vars ...*model.Variable) ID {
	if len(vars) == 0 {
		return body
	}
	return s.intern(Node{kind: KindForall, args: []ID{body}, vars: vars})
}

// Plus returns the sum of args. An empty sum is 0 and a singleton collapses.
func (s *Store) Plus(args ...ID) ID {
	switch len(args) {
	case 0:
		return s.Int(0)
	case 1:
		return args[0]
	}
	return s.intern(Node{kind: KindPlus, args: args})
}

// Minus returns a - b.
func (s *Store) Minus(a, b ID) ID {
	return s.intern(Node{kind: KindMinus, args: []ID{a, b}})
}

// Times returns the product of args.
func (s *Store) Times(args ...ID) ID {
	switch len(args) {
	case 0:
		return s.Int(1)
	case 1:
		return args[0]
	}
	return s.intern(Node{kind: KindTimes, args: args})
}

// Div returns a / b.
func (s *Store) Div(a, b ID) ID {
	return s.intern(Node{kind: KindDiv, args: []ID{a, b}})
}

// LE returns a <= b.
func (s *Store) LE(a, b ID) ID {
	return s.intern(Node{kind: KindLE, args: []ID{a, b}})
}

// LT returns a < b.
func (s *Store) LT(a, b ID) ID {
	return s.intern(Node{kind: KindLT, args: []ID{a, b}})
}

// Equals returns a == b; identical operands collapse to true.
func (s *Store) Equals(a, b ID) ID {
	if a == b {
		return s.Bool(true)
	}
	return s.intern(Node{kind: KindEquals, args: []ID{a, b}})
}

// Always returns the state invariant constraint over cond.
func (s *Store) Always(cond ID) ID {
	return s.intern(Node{kind: KindAlways, args: []ID{cond}})
}

// Sometime returns the landmark constraint over cond.
func (s *Store) Sometime(cond ID) ID {
	return s.intern(Node{kind: KindSometime, args: []ID{cond}})
}

// AtMostOnce returns the at-most-once constraint over cond.
func (s *Store) AtMostOnce(cond ID) ID {
	return s.intern(Node{kind: KindAtMostOnce, args: []ID{cond}})
}

// SometimeBefore returns the constraint that cond must be preceded by pre.
func (s *Store) SometimeBefore(cond, pre ID) ID {
	return s.intern(Node{kind: KindSometimeBefore, args: []ID{cond, pre}})
}

// SometimeAfter returns the constraint that cond must be followed by post.
func (s *Store) SometimeAfter(cond, post ID) ID {
	return s.intern(Node{kind: KindSometimeAfter, args: []ID{cond, post}})
}
