package exprs

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/model"
)

// Quantifier expansion over finite domains.

// DomainFunc enumerates the constant expressions of a type in a fixed,
// deterministic order: both booleans, the listed objects of a user type, or
// the values of a bounded integer type.
type DomainFunc func(t *model.Type) ([]ID, error)

// NewQuantifierExpander returns a rewriter that replaces every exists with
// the disjunction, and every forall with the conjunction, of the body
// instantiated over the Cartesian product of the bound variables' domains.
// Inner quantifiers are expanded first (post-order), and each binding is
// substituted through a fresh substitution walker so results from one
// binding are never reused under another.
func NewQuantifierExpander(s *Store, dom DomainFunc) *Walker[ID] {
	w := NewRewriter(s)

	expand := func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		domains := make([][]ID, len(n.vars))
		for i, v := range n.vars {
			values, err := dom(v.Type)
			if err != nil {
				return NoID, fmt.Errorf("cannot enumerate domain of %s: %w", v, err)
			}
			domains[i] = values
		}
		body := args[0]
		var instances []ID
		for _, binding := range product(domains) {
			sub := make(Substitution, len(n.vars))
			for i, v := range n.vars {
				sub[s.VarExp(v)] = binding[i]
			}
			inst, err := Substitute(s, body, sub)
			if err != nil {
				return NoID, err
			}
			instances = append(instances, inst)
		}
		if n.kind == KindExists {
			return s.Or(instances...), nil
		}
		return s.And(instances...), nil
	}
	w.Handle(KindExists, expand)
	w.Handle(KindForall, expand)
	return w
}

// product returns the Cartesian product of the domains, in lexicographic
// order with the last domain varying fastest.
func product(domains [][]ID) [][]ID {
	combos := [][]ID{nil}
	for _, domain := range domains {
		next := make([][]ID, 0, len(combos)*len(domain))
		for _, combo := range combos {
			for _, v := range domain {
				picked := make([]ID, len(combo), len(combo)+1)
				copy(picked, combo)
				next = append(next, append(picked, v))
			}
		}
		combos = next
	}
	return combos
}
