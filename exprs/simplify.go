package exprs

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/model"
)

// NewSimplifier returns a rewriter that folds constant arithmetic and
// comparisons on top of the builders' boolean peephole reductions. Division
// by a constant zero is left unfolded; that failure belongs to evaluation,
// not rewriting.
func NewSimplifier(s *Store) *Walker[ID] {
	w := NewRewriter(s)

	w.Handle(KindPlus, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if ints, ok := s.intConstants(args); ok {
			var sum int64
			for _, v := range ints {
				sum += v
			}
			return s.Int(sum), nil
		}
		if reals, ok := s.numConstants(args); ok {
			var sum float64
			for _, v := range reals {
				sum += v
			}
			return s.Real(sum), nil
		}
		return Rebuild(w, n, args)
	})

	w.Handle(KindTimes, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if ints, ok := s.intConstants(args); ok {
			var prod int64 = 1
			for _, v := range ints {
				prod *= v
			}
			return s.Int(prod), nil
		}
		if reals, ok := s.numConstants(args); ok {
			prod := 1.0
			for _, v := range reals {
				prod *= v
			}
			return s.Real(prod), nil
		}
		return Rebuild(w, n, args)
	})

	w.Handle(KindMinus, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if ints, ok := s.intConstants(args); ok {
			return s.Int(ints[0] - ints[1]), nil
		}
		if reals, ok := s.numConstants(args); ok {
			return s.Real(reals[0] - reals[1]), nil
		}
		return Rebuild(w, n, args)
	})

	w.Handle(KindDiv, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if ints, ok := s.intConstants(args); ok && ints[1] != 0 && ints[0]%ints[1] == 0 {
			return s.Int(ints[0] / ints[1]), nil
		}
		if reals, ok := s.numConstants(args); ok && reals[1] != 0 {
			return s.Real(reals[0] / reals[1]), nil
		}
		return Rebuild(w, n, args)
	})

	cmp := func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		reals, ok := s.numConstants(args)
		if !ok {
			return Rebuild(w, n, args)
		}
		switch n.kind {
		case KindLE:
			return s.Bool(reals[0] <= reals[1]), nil
		case KindLT:
			return s.Bool(reals[0] < reals[1]), nil
		default:
			return s.Bool(reals[0] == reals[1]), nil
		}
	}
	w.Handle(KindLE, cmp)
	w.Handle(KindLT, cmp)

	w.Handle(KindEquals, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		a, b := s.Node(args[0]), s.Node(args[1])
		if a.kind == KindObject && b.kind == KindObject {
			return s.Bool(a.object.Name == b.object.Name), nil
		}
		if a.IsConstant() && b.IsConstant() {
			return cmp(w, n, args)
		}
		return Rebuild(w, n, args)
	})

	return w
}

// Simplify rewrites root with the constant-folding simplifier.
func Simplify(s *Store, root ID) (ID, error) {
	return NewSimplifier(s).Walk(root)
}

// intConstants extracts integer constant values when every arg is one.
func (s *Store) intConstants(args []ID) ([]int64, bool) {
	out := make([]int64, len(args))
	for i, a := range args {
		n := s.Node(a)
		if n.kind != KindConstant || n.constant.Type.Kind != model.IntKind {
			return nil, false
		}
		out[i] = n.constant.Int
	}
	return out, true
}

// numConstants extracts numeric constant values (int or real) when every
// arg is one.
func (s *Store) numConstants(args []ID) ([]float64, bool) {
	out := make([]float64, len(args))
	for i, a := range args {
		n := s.Node(a)
		if n.kind != KindConstant {
			return nil, false
		}
		switch n.constant.Type.Kind {
		case model.IntKind:
			out[i] = float64(n.constant.Int)
		case model.RealKind:
			out[i] = n.constant.Real
		default:
			return nil, false
		}
	}
	return out, true
}

// ConstantBool reports the value of a boolean constant expression, or an
// error if the expression is not one.
func (s *Store) ConstantBool(id ID) (bool, error) {
	n := s.Node(id)
	if n.kind != KindConstant || n.constant.Type.Kind != model.BoolKind {
		return false, fmt.Errorf("expression %s is not a boolean constant", s.String(id))
	}
	return n.constant.Bool, nil
}
