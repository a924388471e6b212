package model

import (
	"fmt"
	"strings"
)

// Fluent is a state variable schema: a name, a value type, and an ordered
// parameter signature. Fluents are shared by reference; two fluents with the
// same name inside one problem are the same fluent.
type Fluent struct {
	Name   string
	Type   *Type
	Params []*Parameter
}

// NewFluent creates a fluent with the given value type and signature.
func NewFluent(name string, typ *Type, params ...*Parameter) *Fluent {
	return &Fluent{Name: name, Type: typ, Params: params}
}

// Arity returns the number of parameters in the signature.
func (f *Fluent) Arity() int { return len(f.Params) }

// String returns e.g. "at(r robot, l location): bool".
func (f *Fluent) String() string {
	if len(f.Params) == 0 {
		return fmt.Sprintf("%s: %s", f.Name, f.Type)
	}
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s): %s", f.Name, strings.Join(parts, ", "), f.Type)
}

// Parameter is a typed formal parameter of an action or fluent.
type Parameter struct {
	Name string
	Type *Type
}

// NewParameter creates a typed parameter.
func NewParameter(name string, typ *Type) *Parameter {
	return &Parameter{Name: name, Type: typ}
}

func (p *Parameter) String() string {
	return fmt.Sprintf("%s %s", p.Name, p.Type)
}

// Variable is a typed variable bound by a quantifier or a forall effect.
type Variable struct {
	Name string
	Type *Type
}

// NewVariable creates a typed bound variable.
func NewVariable(name string, typ *Type) *Variable {
	return &Variable{Name: name, Type: typ}
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s %s", v.Name, v.Type)
}

// Object is a named constant of a user type.
type Object struct {
	Name string
	Type *Type
}

// NewObject creates an object of the given user type.
func NewObject(name string, typ *Type) *Object {
	return &Object{Name: name, Type: typ}
}

func (o *Object) String() string { return o.Name }
