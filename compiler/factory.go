package compiler

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/problem"
)

// NewByName returns the pass with the given Name, or an error listing the
// known ones.
func NewByName(name string) (Compiler, error) {
	for _, c := range AllPasses() {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown compilation pass %q (known: %s)", name, knownPassNames())
}

// AllPasses returns one instance of every pass, in the canonical
// application order: structural rewrites first, grounding in the middle,
// normal-form rewrites last.
func AllPasses() []Compiler {
	return []Compiler{
		NewUserTypeFluentsRemover(),
		NewQuantifierEliminator(),
		NewBoundedTypesRemover(),
		NewGrounder(),
		NewTrajectoryConstraintsCompiler(),
		NewDisjunctiveConditionsRemover(),
		NewNegativeConditionsRemover(),
	}
}

func knownPassNames() string {
	names := ""
	for i, c := range AllPasses() {
		if i > 0 {
			names += ", "
		}
		names += c.Name()
	}
	return names
}

// PipelineFor selects, from the canonical pass order, the shortest chain
// taking a problem of kind from to a kind within target: a pass is
// included exactly when it removes a feature that from has and target
// lacks. It errors when no such chain exists, for example when a feature
// outside every pass's reach separates the two kinds.
func PipelineFor(from, target problem.Kind) (*Pipeline, error) {
	var chain []Compiler
	k := from.Clone()
	for _, c := range AllPasses() {
		if !c.Supports(k) {
			continue
		}
		next := c.ResultingKind(k)
		if !removesNeededFeature(k, next, target) {
			continue
		}
		chain = append(chain, c)
		k = next
	}
	if !k.IsSubset(target) {
		var missing []string
		for _, f := range k.Features() {
			if !target.Has(f) {
				missing = append(missing, string(f))
			}
		}
		return nil, fmt.Errorf("no pass chain reaches the requested kind: features %v remain", missing)
	}
	return NewPipeline(chain...), nil
}

// removesNeededFeature reports whether stepping from k to next clears at
// least one feature the target does not admit.
func removesNeededFeature(k, next, target problem.Kind) bool {
	for _, f := range k.Features() {
		if target.Has(f) {
			continue
		}
		if !next.Has(f) {
			return true
		}
	}
	return false
}
