package exprs

// Disjunctive normal form over expressions already in NNF: and distributes
// over or through the Cartesian product of the or-arguments. The walker's
// result type is the list of disjuncts, each a conjunction (or literal), so
// distribution composes bottom-up in one post-order pass.

// NewDNFWalker returns the distribution walker. The result for a node is
// the ordered list of its disjuncts.
func NewDNFWalker(s *Store) *Walker[[]ID] {
	w := NewWalker[[]ID](s)

	literal := func(w *Walker[[]ID], n *Node, args [][]ID) ([]ID, error) {
		return []ID{n.id}, nil
	}
	w.HandleAll([]Kind{
		KindConstant, KindObject, KindParam, KindVariable, KindFluent,
		KindNot, KindPlus, KindMinus, KindTimes, KindDiv,
		KindLE, KindLT, KindEquals,
		// Quantifiers are opaque literals here: NNF has already pushed
		// negation through them, and distribution never crosses a binder.
		KindExists, KindForall,
	}, literal)

	w.Handle(KindOr, func(w *Walker[[]ID], n *Node, args [][]ID) ([]ID, error) {
		var out []ID
		for _, disjuncts := range args {
			out = append(out, disjuncts...)
		}
		return out, nil
	})

	w.Handle(KindAnd, func(w *Walker[[]ID], n *Node, args [][]ID) ([]ID, error) {
		// Cartesian product: one conjunction per choice of a disjunct
		// from each child.
		combos := [][]ID{nil}
		for _, disjuncts := range args {
			next := make([][]ID, 0, len(combos)*len(disjuncts))
			for _, combo := range combos {
				for _, d := range disjuncts {
					picked := make([]ID, len(combo), len(combo)+1)
					copy(picked, combo)
					next = append(next, append(picked, d))
				}
			}
			combos = next
		}
		out := make([]ID, len(combos))
		for i, combo := range combos {
			out[i] = s.And(combo...)
		}
		return out, nil
	})

	return w
}

// DNF rewrites an NNF expression into an or of ands of literals.
func DNF(s *Store, root ID) (ID, error) {
	nnf, err := NNF(s, root)
	if err != nil {
		return NoID, err
	}
	disjuncts, err := NewDNFWalker(s).Walk(nnf)
	if err != nil {
		return NoID, err
	}
	return s.Or(disjuncts...), nil
}

// Disjuncts splits a top-level or into its arguments; any other node is a
// single disjunct.
func (s *Store) Disjuncts(id ID) []ID {
	n := s.Node(id)
	if n.kind == KindOr {
		return n.args
	}
	return []ID{id}
}

// Conjuncts splits a top-level and into its arguments; any other node is a
// single conjunct.
func (s *Store) Conjuncts(id ID) []ID {
	n := s.Node(id)
	if n.kind == KindAnd {
		return n.args
	}
	return []ID{id}
}
