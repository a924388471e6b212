package exprs

import (
	"testing"

	"github.com/plankit-xyz/go-plankit/model"
)

func TestSimplify_Arithmetic(t *testing.T) {
	s := NewStore()
	level := s.FluentExp(model.NewFluent("level", model.IntType()))

	tests := []struct {
		name string
		in   ID
		want ID
	}{
		{"int sum", s.Plus(s.Int(1), s.Int(2), s.Int(3)), s.Int(6)},
		{"real sum", s.Plus(s.Real(1.5), s.Int(2)), s.Real(3.5)},
		{"product", s.Times(s.Int(4), s.Int(5)), s.Int(20)},
		{"difference", s.Minus(s.Int(7), s.Int(9)), s.Int(-2)},
		{"exact int division", s.Div(s.Int(6), s.Int(3)), s.Int(2)},
		{"inexact int division kept", s.Div(s.Int(7), s.Int(3)), s.Div(s.Int(7), s.Int(3))},
		{"division by zero kept", s.Div(s.Int(1), s.Int(0)), s.Div(s.Int(1), s.Int(0))},
		{"real division", s.Div(s.Real(1.0), s.Real(4.0)), s.Real(0.25)},
		{"nested fold", s.Plus(level, s.Times(s.Int(2), s.Int(0))), s.Plus(level, s.Int(0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(s, tt.in)
			if err != nil {
				t.Fatalf("Simplify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", s.String(tt.want), s.String(got))
			}
		})
	}
}

func TestSimplify_Comparisons(t *testing.T) {
	s := NewStore()
	r1 := model.NewObject("r1", model.UserType("robot"))
	r2 := model.NewObject("r2", model.UserType("robot"))

	tests := []struct {
		name string
		in   ID
		want ID
	}{
		{"le true", s.LE(s.Int(1), s.Int(2)), s.Bool(true)},
		{"le false", s.LE(s.Int(3), s.Int(2)), s.Bool(false)},
		{"lt strict", s.LT(s.Int(2), s.Int(2)), s.Bool(false)},
		{"equals constants", s.Equals(s.Int(2), s.Real(2.0)), s.Bool(true)},
		{"equals same object", s.Equals(s.ObjectExp(r1), s.ObjectExp(r1)), s.Bool(true)},
		{"equals distinct objects", s.Equals(s.ObjectExp(r1), s.ObjectExp(r2)), s.Bool(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(s, tt.in)
			if err != nil {
				t.Fatalf("Simplify failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", s.String(tt.want), s.String(got))
			}
		})
	}
}

func TestSimplify_BooleanAbsorption(t *testing.T) {
	s := NewStore()
	p := s.FluentExp(model.NewFluent("p", model.BoolType()))

	// Folding the comparison feeds a constant into the and, which the
	// builder then absorbs.
	got, err := Simplify(s, s.And(p, s.LE(s.Int(1), s.Int(2))))
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if got != p {
		t.Errorf("Expected %s, got %s", s.String(p), s.String(got))
	}

	got, err = Simplify(s, s.And(p, s.LT(s.Int(2), s.Int(1))))
	if err != nil {
		t.Fatalf("Simplify failed: %v", err)
	}
	if got != s.Bool(false) {
		t.Errorf("Expected false, got %s", s.String(got))
	}
}

func TestConstantBool(t *testing.T) {
	s := NewStore()
	v, err := s.ConstantBool(s.Bool(true))
	if err != nil {
		t.Fatalf("ConstantBool failed: %v", err)
	}
	if !v {
		t.Errorf("Expected true")
	}
	if _, err := s.ConstantBool(s.Int(1)); err == nil {
		t.Errorf("Expected an error for a non-boolean expression")
	}
}
