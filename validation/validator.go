package validation

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/problem"
)

// ValidationResult contains the outcome of validating a plan.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Errors []Issue `json:"errors,omitempty"`
	Steps  int     `json:"steps"`
}

// Issue describes one validation failure.
type Issue struct {
	Category string `json:"category"` // "plan", "precondition", "effect", "goal", "constraint"
	Step     int    `json:"step"`     // -1 when not tied to a step
	Message  string `json:"message"`
}

// Validator validates plans against a problem by sequential simulation.
type Validator struct {
	prob   *problem.Problem
	result *ValidationResult
}

// NewValidator creates a validator for the problem.
func NewValidator(p *problem.Problem) *Validator {
	return &Validator{prob: p}
}

func (v *Validator) addError(category string, step int, format string, args ...interface{}) {
	v.result.Valid = false
	v.result.Errors = append(v.result.Errors, Issue{
		Category: category,
		Step:     step,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate simulates the plan from the initial state. It checks every
// step's precondition, applies effects with conflict detection, checks the
// goals in the final state, and checks every trajectory constraint against
// the full state trace. A hard simulation failure (unknown action, arity
// mismatch, evaluation error) stops the simulation; condition failures are
// collected.
func (v *Validator) Validate(plan *problem.Plan) (*ValidationResult, error) {
	v.result = &ValidationResult{Valid: true, Steps: len(plan.Steps)}
	s := v.prob.Store()

	state := State{}
	trace := []State{state.Copy()}

	for i, step := range plan.Steps {
		act := v.prob.Action(step.ActionName)
		if act == nil {
			return nil, fmt.Errorf("step %d: unknown action %q", i, step.ActionName)
		}
		inst, ok := act.(*problem.InstantaneousAction)
		if !ok {
			return nil, fmt.Errorf("step %d: action %q is not instantaneous; durative plans are validated by temporal engines", i, step.ActionName)
		}
		core := inst.Core()
		if len(step.Params) != len(core.Params) {
			return nil, fmt.Errorf("step %d: action %q expects %d parameters, got %d",
				i, step.ActionName, len(core.Params), len(step.Params))
		}
		sub := make(exprs.Substitution, len(core.Params))
		for j, p := range core.Params {
			sub[s.ParamExp(p)] = step.Params[j]
		}

		ev := NewEvaluator(v.prob, state)
		pre, err := exprs.Substitute(s, inst.Precondition(s), sub)
		if err != nil {
			return nil, err
		}
		holds, err := ev.EvalBool(pre)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if !holds {
			v.addError("precondition", i, "precondition of %s does not hold", step.String(s))
		}

		effects := make([]*problem.Effect, 0, len(inst.Effects))
		for _, e := range inst.Effects {
			fexp, err := exprs.Substitute(s, e.Fluent, sub)
			if err != nil {
				return nil, err
			}
			value, err := exprs.Substitute(s, e.Value, sub)
			if err != nil {
				return nil, err
			}
			cond, err := exprs.Substitute(s, e.Condition, sub)
			if err != nil {
				return nil, err
			}
			effects = append(effects, &problem.Effect{
				Fluent: fexp, Value: value, Condition: cond, Kind: e.Kind, Forall: e.Forall,
			})
		}
		next, err := ev.Apply(effects)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		state = next
		trace = append(trace, state.Copy())
	}

	for _, g := range v.prob.Goals() {
		holds, err := NewEvaluator(v.prob, state).EvalBool(g)
		if err != nil {
			return nil, err
		}
		if !holds {
			v.addError("goal", -1, "goal %s does not hold in the final state", s.String(g))
		}
	}

	if err := v.checkConstraints(trace); err != nil {
		return nil, err
	}
	return v.result, nil
}

// checkConstraints checks every trajectory constraint against the trace.
func (v *Validator) checkConstraints(trace []State) error {
	s := v.prob.Store()
	for _, c := range v.prob.Constraints() {
		n := s.Node(c)
		holds := func(state State, cond exprs.ID) (bool, error) {
			return NewEvaluator(v.prob, state).EvalBool(cond)
		}
		switch n.Kind() {
		case exprs.KindAlways:
			for i, st := range trace {
				ok, err := holds(st, n.Args()[0])
				if err != nil {
					return err
				}
				if !ok {
					v.addError("constraint", i-1, "always %s violated", s.String(n.Args()[0]))
					break
				}
			}
		case exprs.KindSometime:
			sat := false
			for _, st := range trace {
				ok, err := holds(st, n.Args()[0])
				if err != nil {
					return err
				}
				if ok {
					sat = true
					break
				}
			}
			if !sat {
				v.addError("constraint", -1, "sometime %s never holds", s.String(n.Args()[0]))
			}
		case exprs.KindAtMostOnce:
			intervals := 0
			prev := false
			for _, st := range trace {
				ok, err := holds(st, n.Args()[0])
				if err != nil {
					return err
				}
				if ok && !prev {
					intervals++
				}
				prev = ok
			}
			if intervals > 1 {
				v.addError("constraint", -1, "at-most-once %s holds in %d separate intervals", s.String(n.Args()[0]), intervals)
			}
		case exprs.KindSometimeBefore:
			seenPre := false
			for i, st := range trace {
				ok, err := holds(st, n.Args()[0])
				if err != nil {
					return err
				}
				if ok && !seenPre {
					v.addError("constraint", i-1, "sometime-before: %s holds with no earlier %s",
						s.String(n.Args()[0]), s.String(n.Args()[1]))
					break
				}
				pre, err := holds(st, n.Args()[1])
				if err != nil {
					return err
				}
				if pre {
					seenPre = true
				}
			}
		case exprs.KindSometimeAfter:
			pending := -1
			for i, st := range trace {
				post, err := holds(st, n.Args()[1])
				if err != nil {
					return err
				}
				if post {
					pending = -1
				}
				ok, err := holds(st, n.Args()[0])
				if err != nil {
					return err
				}
				if ok && pending < 0 && !post {
					pending = i
				}
			}
			if pending >= 0 {
				v.addError("constraint", pending-1, "sometime-after: %s holds with no later %s",
					s.String(n.Args()[0]), s.String(n.Args()[1]))
			}
		}
	}
	return nil
}
