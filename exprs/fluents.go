package exprs

// FluentExps returns the ids of all fluent application sub-expressions of
// root, in first-occurrence order. The trajectory compiler uses this to
// index constraints by the fluents an action's effects touch.
func FluentExps(s *Store, root ID) ([]ID, error) {
	w := NewWalker[[]ID](s)
	w.HandleAll(AllKinds(), func(w *Walker[[]ID], n *Node, args [][]ID) ([]ID, error) {
		seen := make(map[ID]bool)
		var out []ID
		for _, list := range args {
			for _, id := range list {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}
		}
		if n.kind == KindFluent {
			if !seen[n.id] {
				out = append(out, n.id)
			}
		}
		return out, nil
	})
	return w.Walk(root)
}
