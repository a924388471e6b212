package exprs

import (
	"errors"
	"testing"

	"github.com/plankit-xyz/go-plankit/model"
)

func TestRewriter_IdentityNoOp(t *testing.T) {
	s := NewStore()
	p := s.FluentExp(model.NewFluent("p", model.BoolType()))
	q := s.FluentExp(model.NewFluent("q", model.BoolType()))
	level := s.FluentExp(model.NewFluent("level", model.IntType()))
	root := s.And(s.Or(p, s.Not(q)), s.LE(level, s.Int(3)))

	got, err := NewRewriter(s).Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if got != root {
		t.Errorf("Expected the identical id %d, got %d", root, got)
	}
}

func TestRewriter_Override(t *testing.T) {
	s := NewStore()
	p := model.NewFluent("p", model.BoolType())
	q := model.NewFluent("q", model.BoolType())
	r := model.NewFluent("r", model.BoolType())
	root := s.And(s.FluentExp(p), s.Not(s.FluentExp(q)))

	w := NewRewriter(s)
	w.Handle(KindFluent, func(w *Walker[ID], n *Node, args []ID) (ID, error) {
		if n.Fluent().Name == "q" {
			return s.FluentExp(r), nil
		}
		return n.ID(), nil
	})
	got, err := w.Walk(root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	want := s.And(s.FluentExp(p), s.Not(s.FluentExp(r)))
	if got != want {
		t.Errorf("Expected %s, got %s", s.String(want), s.String(got))
	}
}

func TestWalker_MissingHandler(t *testing.T) {
	s := NewStore()
	p := s.FluentExp(model.NewFluent("p", model.BoolType()))

	w := NewWalker[int](s)
	if _, err := w.Walk(p); !errors.Is(err, ErrUnsupportedConstruct) {
		t.Errorf("Expected ErrUnsupportedConstruct, got %v", err)
	}
}

func TestWalker_MemoAndFork(t *testing.T) {
	s := NewStore()
	p := s.FluentExp(model.NewFluent("p", model.BoolType()))
	root := s.And(s.Or(p, s.FluentExp(model.NewFluent("q", model.BoolType()))), p)

	calls := 0
	w := NewWalker[int](s)
	w.HandleAll(AllKinds(), func(w *Walker[int], n *Node, args []int) (int, error) {
		calls++
		return 0, nil
	})
	if _, err := w.Walk(root); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	// p is shared between the conjunction and the disjunction; the memo
	// must evaluate it once.
	if calls != 4 {
		t.Errorf("Expected 4 handler calls, got %d", calls)
	}

	if _, err := w.Walk(root); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected memoized re-walk to add no calls, got %d", calls)
	}

	if _, err := w.Fork().Walk(root); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if calls != 8 {
		t.Errorf("Expected forked walker to re-evaluate all 4 nodes, got %d", calls)
	}
}
