package exprs

import (
	"github.com/plankit-xyz/go-plankit/model"
)

// Negation normal form: implies/iff are eliminated and negation pushed to
// the leaves via De Morgan. Comparisons absorb their negation (¬(a<=b)
// becomes b<a); equalities and boolean fluents keep a Not on the atom.
//
// The transform is polarity-contextual, so it runs as a pair of sibling
// walkers, one per polarity, that call into each other. Each walker memoizes
// only results of its own polarity.

type nnfPair struct {
	pos *Walker[ID]
	neg *Walker[ID]
}

// NNF rewrites root into negation normal form.
func NNF(s *Store, root ID) (ID, error) {
	return newNNFPair(s).pos.Walk(root)
}

func newNNFPair(s *Store) *nnfPair {
	nn := &nnfPair{}

	nn.pos = NewRewriter(s)
	nn.pos.Handle(KindNot, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return nn.neg.Walk(n.args[0])
	})
	nn.pos.Handle(KindImplies, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		na, err := nn.neg.Walk(n.args[0])
		if err != nil {
			return NoID, err
		}
		return s.Or(na, args[1]), nil
	})
	nn.pos.Handle(KindIff, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		na, err := nn.neg.Walk(n.args[0])
		if err != nil {
			return NoID, err
		}
		nb, err := nn.neg.Walk(n.args[1])
		if err != nil {
			return NoID, err
		}
		return s.And(s.Or(na, args[1]), s.Or(args[0], nb)), nil
	})

	// The negative-polarity walker computes the NNF of the negation of the
	// node it visits. Term-level kinds are identities so that comparison
	// handlers can use their already-rebuilt children.
	nn.neg = NewWalker[ID](s)
	termKinds := []Kind{KindObject, KindParam, KindVariable, KindPlus, KindMinus, KindTimes, KindDiv}
	nn.neg.HandleAll(termKinds, Rebuild)

	nn.neg.Handle(KindConstant, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if n.constant.Type.Kind == model.BoolKind {
			return s.Bool(!n.constant.Bool), nil
		}
		return n.id, nil
	})
	nn.neg.Handle(KindFluent, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		rebuilt, err := Rebuild(w, n, args)
		if err != nil {
			return NoID, err
		}
		if n.fluent.Type.Kind == model.BoolKind {
			return s.Not(rebuilt), nil
		}
		return rebuilt, nil
	})
	nn.neg.Handle(KindNot, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return nn.pos.Walk(n.args[0])
	})
	nn.neg.Handle(KindAnd, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.Or(args...), nil
	})
	nn.neg.Handle(KindOr, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.And(args...), nil
	})
	nn.neg.Handle(KindImplies, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		pa, err := nn.pos.Walk(n.args[0])
		if err != nil {
			return NoID, err
		}
		return s.And(pa, args[1]), nil
	})
	nn.neg.Handle(KindIff, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		pa, err := nn.pos.Walk(n.args[0])
		if err != nil {
			return NoID, err
		}
		pb, err := nn.pos.Walk(n.args[1])
		if err != nil {
			return NoID, err
		}
		return s.Or(s.And(pa, args[1]), s.And(args[0], pb)), nil
	})
	nn.neg.Handle(KindExists, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.Forall(args[0], n.vars...), nil
	})
	nn.neg.Handle(KindForall, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.Exists(args[0], n.vars...), nil
	})
	nn.neg.Handle(KindLE, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.LT(args[1], args[0]), nil
	})
	nn.neg.Handle(KindLT, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		return s.LE(args[1], args[0]), nil
	})
	nn.neg.Handle(KindEquals, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		// The negation stays on the equality itself, so the operands are
		// walked at positive polarity.
		pa, err := nn.pos.Walk(n.args[0])
		if err != nil {
			return NoID, err
		}
		pb, err := nn.pos.Walk(n.args[1])
		if err != nil {
			return NoID, err
		}
		return s.Not(s.Equals(pa, pb)), nil
	})

	return nn
}
