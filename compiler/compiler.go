// Package compiler implements semantics-preserving problem compilers: each
// pass rewrites a problem that uses some feature (negative conditions,
// disjunctive conditions, quantifiers, bounded types, trajectory
// constraints, unground parameters, object fluents) into an equivalent
// problem that does not, and supplies a function mapping any plan for the
// compiled problem back to a plan for the original one.
//
// A pass never mutates its input problem; it clones first. Passes are
// deterministic: given the same problem they produce the same compiled
// problem, byte for byte.
package compiler

import (
	"fmt"
	"strings"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/problem"
)

// BackMap translates one step of a plan for the compiled problem into the
// corresponding steps for the source problem. Most passes translate one
// step to exactly one; synthetic bookkeeping actions translate to none.
type BackMap func(problem.ActionInstance) ([]problem.ActionInstance, error)

// IdentityBackMap passes every step through unchanged.
func IdentityBackMap(ai problem.ActionInstance) ([]problem.ActionInstance, error) {
	return []problem.ActionInstance{ai}, nil
}

// Result is the immutable outcome of one Compile call.
type Result struct {
	Problem *problem.Problem
	MapBack BackMap
	Name    string
}

// MapBackPlan translates a whole plan for the compiled problem into a plan
// for the source problem.
func (r *Result) MapBackPlan(plan *problem.Plan) (*problem.Plan, error) {
	out := &problem.Plan{}
	for _, step := range plan.Steps {
		mapped, err := r.MapBack(step)
		if err != nil {
			return nil, err
		}
		out.Steps = append(out.Steps, mapped...)
	}
	return out, nil
}

// Compiler is the contract every pass implements. SupportedKind and
// ResultingKind are pure queries; Compile does the work.
type Compiler interface {
	// Name identifies the pass in results and pipelines.
	Name() string
	// SupportedKind is the maximal input kind the pass accepts.
	SupportedKind() problem.Kind
	// Supports reports whether a problem of kind k can be compiled.
	Supports(k problem.Kind) bool
	// ResultingKind maps an input kind to the kind of the compiled
	// problem: flags the pass eliminates are cleared, flags it may
	// introduce are set.
	ResultingKind(k problem.Kind) problem.Kind
	// Compile rewrites the problem. The input is never mutated.
	Compile(p *problem.Problem) (*Result, error)
}

// origin records, per produced action, the source action and the binding
// of its parameters as constant expressions. A nil binding passes the
// instance parameters through unchanged; a zero-length non-nil binding
// produces a parameterless instance.
type origin struct {
	name    string
	binding []exprs.ID
	drop    bool // synthetic action with no source counterpart
}

// tableBackMap builds a BackMap from a produced-action table. Actions
// absent from the table map to themselves.
func tableBackMap(table map[string]origin) BackMap {
	return func(ai problem.ActionInstance) ([]problem.ActionInstance, error) {
		o, ok := table[ai.ActionName]
		if !ok {
			return []problem.ActionInstance{ai}, nil
		}
		if o.drop {
			return nil, nil
		}
		params := ai.Params
		if o.binding != nil {
			params = o.binding
		}
		return []problem.ActionInstance{{ActionName: o.name, Params: params}}, nil
	}
}

// checkSupported verifies the pass accepts the problem's kind.
func checkSupported(c Compiler, p *problem.Problem) error {
	k := p.Kind()
	if c.Supports(k) {
		return nil
	}
	var unsupported []string
	supported := c.SupportedKind()
	for _, f := range k.Features() {
		if !supported.Has(f) {
			unsupported = append(unsupported, string(f))
		}
	}
	return fmt.Errorf("%s does not support problem %q: unsupported features %s",
		c.Name(), p.Name(), strings.Join(unsupported, ", "))
}

// allFeatures returns the kind holding every known feature; passes derive
// their supported kind by subtracting what they cannot handle.
func allFeatures() problem.Kind {
	return problem.NewKind(
		problem.FeatureActionBased,
		problem.FeatureFlatTyping,
		problem.FeatureHierarchicalTyping,
		problem.FeatureActionParameters,
		problem.FeatureBoolActionParameters,
		problem.FeatureBoundedIntActionParameters,
		problem.FeatureDiscreteNumbers,
		problem.FeatureContinuousNumbers,
		problem.FeatureBoundedTypes,
		problem.FeatureNegativeConditions,
		problem.FeatureDisjunctiveConditions,
		problem.FeatureEqualities,
		problem.FeatureExistentialConditions,
		problem.FeatureUniversalConditions,
		problem.FeatureConditionalEffects,
		problem.FeatureIncreaseEffects,
		problem.FeatureDecreaseEffects,
		problem.FeatureForallEffects,
		problem.FeatureNumericFluents,
		problem.FeatureObjectFluents,
		problem.FeatureContinuousTime,
		problem.FeatureTrajectoryConstraints,
		problem.FeatureStateInvariants,
		problem.FeatureActionsCost,
		problem.FeaturePlanLength,
		problem.FeatureFinalValue,
	)
}
