package exprs

// Substitution maps leaf expression ids (parameter or variable expressions)
// to replacement ids. Hash-consing makes the leaf id a complete identity for
// the symbol, so the map needs no payload comparison.
type Substitution map[ID]ID

// NewSubstituter returns a rewriter that replaces every occurrence of the
// substitution's keys. Occurrences shadowed by a quantifier that rebinds the
// same variable are left alone: the binder node re-walks its body with a
// narrowed substitution through a sibling walker, so memoized results from
// the outer context are never reused under the binder.
func NewSubstituter(s *Store, sub Substitution) *Walker[ID] {
	w := NewRewriter(s)
	leaf := func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if r, ok := sub[n.id]; ok {
			return r, nil
		}
		return n.id, nil
	}
	w.Handle(KindParam, leaf)
	w.Handle(KindVariable, leaf)

	binder := func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		shadows := false
		for _, v := range n.vars {
			if _, ok := sub[s.VarExp(v)]; ok {
				shadows = true
				break
			}
		}
		body := args[0]
		if shadows {
			narrowed := make(Substitution, len(sub))
			for k, r := range sub {
				narrowed[k] = r
			}
			for _, v := range n.vars {
				delete(narrowed, s.VarExp(v))
			}
			rewalked, err := Substitute(s, n.args[0], narrowed)
			if err != nil {
				return NoID, err
			}
			body = rewalked
		}
		if n.kind == KindExists {
			return s.Exists(body, n.vars...), nil
		}
		return s.Forall(body, n.vars...), nil
	}
	w.Handle(KindExists, binder)
	w.Handle(KindForall, binder)
	return w
}

// Substitute applies sub to the expression rooted at root.
func Substitute(s *Store, root ID, sub Substitution) (ID, error) {
	if len(sub) == 0 {
		return root, nil
	}
	return NewSubstituter(s, sub).Walk(root)
}
