// Package model defines the symbol vocabulary shared by planning problems:
// value types, fluents, action parameters, bound variables, and objects.
// Symbols are immutable once created and are shared by reference between
// expressions, actions, and problems.
package model

import (
	"fmt"
	"strconv"
)

// TypeKind discriminates the value types a fluent or parameter can carry.
type TypeKind int

const (
	BoolKind TypeKind = iota
	IntKind
	RealKind
	UserKind
)

// Type is a value type. Builtin types are bool, integer (optionally bounded
// on either side), and real. User types are named and identified by name.
type Type struct {
	Kind  TypeKind
	Name  string // user types only
	Lower *int64 // integer types: optional lower bound
	Upper *int64 // integer types: optional upper bound
}

var (
	boolType = &Type{Kind: BoolKind}
	intType  = &Type{Kind: IntKind}
	realType = &Type{Kind: RealKind}
)

// BoolType returns the boolean value type.
func BoolType() *Type { return boolType }

// IntType returns the unbounded integer value type.
func IntType() *Type { return intType }

// RealType returns the real value type.
func RealType() *Type { return realType }

// BoundedIntType returns an integer type constrained to [lower, upper].
func BoundedIntType(lower, upper int64) *Type {
	return &Type{Kind: IntKind, Lower: &lower, Upper: &upper}
}

// UserType returns a named user type.
func UserType(name string) *Type {
	return &Type{Kind: UserKind, Name: name}
}

// IsBounded reports whether the type is an integer with at least one bound.
func (t *Type) IsBounded() bool {
	return t.Kind == IntKind && (t.Lower != nil || t.Upper != nil)
}

// Equals compares types structurally. User types compare by name.
func (t *Type) Equals(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case UserKind:
		return t.Name == other.Name
	case IntKind:
		return boundEq(t.Lower, other.Lower) && boundEq(t.Upper, other.Upper)
	default:
		return true
	}
}

func boundEq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// String returns a canonical representation, used as part of interning keys.
func (t *Type) String() string {
	switch t.Kind {
	case BoolKind:
		return "bool"
	case IntKind:
		if t.Lower == nil && t.Upper == nil {
			return "integer"
		}
		lo, hi := "-inf", "inf"
		if t.Lower != nil {
			lo = strconv.FormatInt(*t.Lower, 10)
		}
		if t.Upper != nil {
			hi = strconv.FormatInt(*t.Upper, 10)
		}
		return fmt.Sprintf("integer[%s, %s]", lo, hi)
	case RealKind:
		return "real"
	case UserKind:
		return t.Name
	default:
		return "unknown"
	}
}
