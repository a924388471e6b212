package exprs

import (
	"errors"
	"fmt"
)

// ErrUnsupportedConstruct is wrapped by walkers that reach an operator no
// handler was registered for. It is a programming error of the walker's
// author, surfaced immediately rather than recovered.
var ErrUnsupportedConstruct = errors.New("unsupported construct")

// Handler computes a walker's result for one node from the results already
// computed for its children (post-order). Handlers may consult the node's
// original child ids through n.Args() and may spawn sibling walkers to
// re-evaluate sub-expressions under a different context.
type Handler[T any] func(w *Walker[T], n *Node, args []T) (T, error)

// Walker is an iterative, memoized, post-order traversal over the node DAG.
// Each operator kind dispatches to a registered handler; reaching a kind
// without one fails with ErrUnsupportedConstruct.
//
// Memoization keys on node identity, which is only sound while the result
// does not depend on outside context. A walker whose result does (for
// example substitution under different bindings) must use one instance per
// context: Fork produces a sibling sharing the handler table with a fresh
// memo table.
type Walker[T any] struct {
	store    *Store
	handlers []Handler[T]
	memo     map[ID]T
}

// NewWalker creates a walker over s with no handlers registered.
func NewWalker[T any](s *Store) *Walker[T] {
	return &Walker[T]{
		store:    s,
		handlers: make([]Handler[T], numKinds),
		memo:     make(map[ID]T),
	}
}

// Store returns the store the walker traverses.
func (w *Walker[T]) Store() *Store { return w.store }

// Handle registers h for kind, replacing any previous handler.
func (w *Walker[T]) Handle(k Kind, h Handler[T]) {
	w.handlers[k] = h
}

// HandleAll registers h for every kind in ks.
func (w *Walker[T]) HandleAll(ks []Kind, h Handler[T]) {
	for _, k := range ks {
		w.handlers[k] = h
	}
}

// Fork returns a sibling walker with the same handler table but an empty
// memo table. Results computed by the sibling are never reused by w and
// vice versa, which is what context-dependent handlers need.
func (w *Walker[T]) Fork() *Walker[T] {
	sib := &Walker[T]{
		store:    w.store,
		handlers: make([]Handler[T], numKinds),
		memo:     make(map[ID]T),
	}
	copy(sib.handlers, w.handlers)
	return sib
}

// Walk computes the walker's result for the expression rooted at root,
// processing children before parents with an explicit stack. There is no
// recursion and therefore no depth limit.
func (w *Walker[T]) Walk(root ID) (T, error) {
	var zero T
	type frame struct {
		id       ID
		expanded bool
	}
	stack := []frame{{id: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if _, done := w.memo[top.id]; done {
			stack = stack[:len(stack)-1]
			continue
		}
		n := w.store.Node(top.id)
		if !top.expanded {
			top.expanded = true
			for i := len(n.args) - 1; i >= 0; i-- {
				if _, done := w.memo[n.args[i]]; !done {
					stack = append(stack, frame{id: n.args[i]})
				}
			}
			continue
		}
		args := make([]T, len(n.args))
		for i, a := range n.args {
			args[i] = w.memo[a]
		}
		h := w.handlers[n.kind]
		if h == nil {
			return zero, fmt.Errorf("walker has no handler for %s: %w", n.kind, ErrUnsupportedConstruct)
		}
		v, err := h(w, n, args)
		if err != nil {
			return zero, err
		}
		w.memo[top.id] = v
		stack = stack[:len(stack)-1]
	}
	return w.memo[root], nil
}

// NewRewriter returns the identity rebuild walker: every kind is handled by
// Rebuild, so walking any expression returns the identical node id. Every
// rewriting pass derives from it by overriding only the kinds it changes.
func NewRewriter(s *Store) *Walker[ID] {
	w := NewWalker[ID](s)
	w.HandleAll(AllKinds(), Rebuild)
	return w
}

// Rebuild reconstructs n over the rewritten child ids. When no child
// changed, the result is the input node itself, so callers can detect "no
// change" by comparing ids.
func Rebuild(w *Walker[ID], n *Node, args []ID) (ID, error) {
	same := true
	for i, a := range args {
		if a != n.args[i] {
			same = false
			break
		}
	}
	if same {
		return n.id, nil
	}
	s := w.store
	switch n.kind {
	case KindFluent:
		return s.FluentExp(n.fluent, args...), nil
	case KindNot:
		return s.Not(args[0]), nil
	case KindAnd:
		return s.And(args...), nil
	case KindOr:
		return s.Or(args...), nil
	case KindImplies:
		return s.Implies(args[0], args[1]), nil
	case KindIff:
		return s.Iff(args[0], args[1]), nil
	case KindExists:
		return s.Exists(args[0], n.vars...), nil
	case KindForall:
		return s.Forall(args[0], n.vars...), nil
	case KindPlus:
		return s.Plus(args...), nil
	case KindMinus:
		return s.Minus(args[0], args[1]), nil
	case KindTimes:
		return s.Times(args...), nil
	case KindDiv:
		return s.Div(args[0], args[1]), nil
	case KindLE:
		return s.LE(args[0], args[1]), nil
	case KindLT:
		return s.LT(args[0], args[1]), nil
	case KindEquals:
		return s.Equals(args[0], args[1]), nil
	case KindAlways:
		return s.Always(args[0]), nil
	case KindSometime:
		return s.Sometime(args[0]), nil
	case KindAtMostOnce:
		return s.AtMostOnce(args[0]), nil
	case KindSometimeBefore:
		return s.SometimeBefore(args[0], args[1]), nil
	case KindSometimeAfter:
		return s.SometimeAfter(args[0], args[1]), nil
	default:
		// Leaves have no children, so an unchanged leaf was already
		// returned above.
		return n.id, nil
	}
}
