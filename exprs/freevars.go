package exprs

import (
	"sort"

	"github.com/plankit-xyz/go-plankit/model"
)

// Free-variable collection. The walker's result type is the sorted list of
// variables occurring free in the sub-expression, so results merge
// deterministically bottom-up.

// NewFreeVarsWalker returns the collection walker.
func NewFreeVarsWalker(s *Store) *Walker[[]*model.Variable] {
	w := NewWalker[[]*model.Variable](s)

	union := func(w *Walker[[]*model.Variable], n *Node, args [][]*model.Variable) ([]*model.Variable, error) {
		return mergeVars(args...), nil
	}
	w.HandleAll(AllKinds(), union)

	w.Handle(KindVariable, func(w *Walker[[]*model.Variable], n *Node, args [][]*model.Variable) ([]*model.Variable, error) {
		return []*model.Variable{n.variable}, nil
	})

	binder := func(w *Walker[[]*model.Variable], n *Node, args [][]*model.Variable) ([]*model.Variable, error) {
		bound := make(map[string]bool, len(n.vars))
		for _, v := range n.vars {
			bound[v.Name] = true
		}
		var free []*model.Variable
		for _, v := range args[0] {
			if !bound[v.Name] {
				free = append(free, v)
			}
		}
		return free, nil
	}
	w.Handle(KindExists, binder)
	w.Handle(KindForall, binder)

	return w
}

// FreeVars returns the variables occurring free in root, sorted by name.
func FreeVars(s *Store, root ID) ([]*model.Variable, error) {
	return NewFreeVarsWalker(s).Walk(root)
}

func mergeVars(lists ...[]*model.Variable) []*model.Variable {
	seen := make(map[string]bool)
	var out []*model.Variable
	for _, list := range lists {
		for _, v := range list {
			if !seen[v.Name] {
				seen[v.Name] = true
				out = append(out, v)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
