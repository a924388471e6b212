// Package problem models planning problems: fluents, actions and their
// effects, objects, initial values with defaults, goals, trajectory
// constraints, and quality metrics, together with the ProblemKind feature
// lattice and plan representation.
//
// Problems are mutated only while being authored. Compilation passes never
// mutate their input: they clone the problem wholesale (symbols shared by
// reference, action bodies and value tables deep-copied) and rewrite the
// clone.
package problem

import "errors"

var (
	// ErrDefinition marks malformed problems: name collisions, reserved
	// generated names, non-constant initial values, constraints already
	// violated in the initial state, or a pass-ordering violation.
	ErrDefinition = errors.New("definition error")

	// ErrUnboundVariable marks an effect whose free variables do not match
	// its forall binder set exactly.
	ErrUnboundVariable = errors.New("unbound variable")

	// ErrConflictingEffects marks two simultaneous effects that assign
	// incompatible values to the same fluent, or an increase/decrease
	// colliding with an assignment in the same instant.
	ErrConflictingEffects = errors.New("conflicting effects")
)
