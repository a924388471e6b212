package compiler

import (
	"fmt"
	"strings"

	"github.com/plankit-xyz/go-plankit/problem"
)

// Pipeline chains passes: each pass compiles the previous pass's output,
// and the back-translations compose outer-to-inner, so a plan for the
// final problem always maps back to a plan for the very first one.
type Pipeline struct {
	passes []Compiler
}

// NewPipeline creates a pipeline running the passes in order.
func NewPipeline(passes ...Compiler) *Pipeline {
	return &Pipeline{passes: passes}
}

// Passes returns the passes in execution order.
func (pl *Pipeline) Passes() []Compiler { return pl.passes }

func (pl *Pipeline) Name() string {
	names := make([]string, len(pl.passes))
	for i, c := range pl.passes {
		names[i] = c.Name()
	}
	return strings.Join(names, "+")
}

// SupportedKind is the first pass's supported kind; later passes are
// checked against the intermediate kinds by Supports.
func (pl *Pipeline) SupportedKind() problem.Kind {
	if len(pl.passes) == 0 {
		return allFeatures()
	}
	return pl.passes[0].SupportedKind()
}

// Supports reports whether every pass accepts the kind the previous
// passes leave behind.
func (pl *Pipeline) Supports(k problem.Kind) bool {
	for _, c := range pl.passes {
		if !c.Supports(k) {
			return false
		}
		k = c.ResultingKind(k)
	}
	return true
}

// ResultingKind threads the kind through every pass.
func (pl *Pipeline) ResultingKind(k problem.Kind) problem.Kind {
	for _, c := range pl.passes {
		k = c.ResultingKind(k)
	}
	return k
}

// Compile runs the passes in order. The result's MapBack composes the
// per-pass translations outer-to-inner: a step of the final plan is
// mapped by the last pass first, and each produced step is fed to the
// pass before it.
func (pl *Pipeline) Compile(p *problem.Problem) (*Result, error) {
	current := p
	maps := make([]BackMap, 0, len(pl.passes))
	for _, c := range pl.passes {
		res, err := c.Compile(current)
		if err != nil {
			return nil, fmt.Errorf("pass %s: %w", c.Name(), err)
		}
		current = res.Problem
		maps = append(maps, res.MapBack)
	}
	return &Result{Problem: current, MapBack: composeBackMaps(maps), Name: pl.Name()}, nil
}

// composeBackMaps folds the per-pass translations, innermost pass applied
// first to each step of the compiled plan.
func composeBackMaps(maps []BackMap) BackMap {
	return func(ai problem.ActionInstance) ([]problem.ActionInstance, error) {
		steps := []problem.ActionInstance{ai}
		for i := len(maps) - 1; i >= 0; i-- {
			var mapped []problem.ActionInstance
			for _, step := range steps {
				out, err := maps[i](step)
				if err != nil {
					return nil, err
				}
				mapped = append(mapped, out...)
			}
			steps = mapped
		}
		return steps, nil
	}
}
