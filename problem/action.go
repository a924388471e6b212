package problem

import (
	"fmt"
	"strings"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
)

// ActionCore holds the fields shared by every action variant.
type ActionCore struct {
	Name   string
	Params []*model.Parameter
}

// Core returns the shared fields; it is how the Action interface exposes
// them on every variant.
func (c *ActionCore) Core() *ActionCore { return c }

// Parameter returns the named parameter, or nil.
func (c *ActionCore) Parameter(name string) *model.Parameter {
	for _, p := range c.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *ActionCore) cloneCore() ActionCore {
	return ActionCore{Name: c.Name, Params: append([]*model.Parameter(nil), c.Params...)}
}

// Action is either an instantaneous or a durative action.
type Action interface {
	Core() *ActionCore
	CloneAction() Action
}

// InstantaneousAction applies its effects atomically when its preconditions
// hold.
type InstantaneousAction struct {
	ActionCore
	Preconditions []exprs.ID
	Effects       []*Effect
}

// NewInstantaneousAction creates an action with the given parameters and no
// preconditions or effects.
func NewInstantaneousAction(name string, params ...*model.Parameter) *InstantaneousAction {
	return &InstantaneousAction{ActionCore: ActionCore{Name: name, Params: params}}
}

// AddPrecondition appends a precondition conjunct.
func (a *InstantaneousAction) AddPrecondition(cond exprs.ID) {
	a.Preconditions = append(a.Preconditions, cond)
}

// AddEffect appends an effect.
func (a *InstantaneousAction) AddEffect(e *Effect) {
	a.Effects = append(a.Effects, e)
}

// Precondition returns the conjunction of all preconditions.
func (a *InstantaneousAction) Precondition(s *exprs.Store) exprs.ID {
	return s.And(a.Preconditions...)
}

// CloneAction returns a deep copy sharing symbols and expression ids.
func (a *InstantaneousAction) CloneAction() Action {
	out := &InstantaneousAction{
		ActionCore:    a.cloneCore(),
		Preconditions: append([]exprs.ID(nil), a.Preconditions...),
	}
	for _, e := range a.Effects {
		out.Effects = append(out.Effects, e.Clone())
	}
	return out
}

func (a *InstantaneousAction) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", a.Name, strings.Join(parts, ", "))
}

// Timepoint is an endpoint of a durative action's interval.
type Timepoint uint8

const (
	AtStart Timepoint = iota
	AtEnd
)

func (t Timepoint) String() string {
	if t == AtStart {
		return "start"
	}
	return "end"
}

// Interval is a sub-interval of a durative action, delimited by timepoints.
type Interval struct {
	Lower Timepoint
	Upper Timepoint
}

// StartInterval is the instant at the action's start.
func StartInterval() Interval { return Interval{AtStart, AtStart} }

// EndInterval is the instant at the action's end.
func EndInterval() Interval { return Interval{AtEnd, AtEnd} }

// OverAll spans the whole action.
func OverAll() Interval { return Interval{AtStart, AtEnd} }

func (i Interval) String() string {
	if i.Lower == i.Upper {
		return "at " + i.Lower.String()
	}
	return fmt.Sprintf("over [%s, %s]", i.Lower, i.Upper)
}

// TimedCondition attaches a condition to an interval of a durative action.
type TimedCondition struct {
	Interval Interval
	Cond     exprs.ID
}

// TimedEffect attaches an effect to a timepoint of a durative action.
type TimedEffect struct {
	Timepoint Timepoint
	Effect    *Effect
}

// Duration bounds a durative action's length; Lower == Upper means a fixed
// duration.
type Duration struct {
	Lower exprs.ID
	Upper exprs.ID
}

// DurativeAction has per-interval conditions and per-timepoint effects.
// Condition and effect slots keep insertion order so every rewrite over
// them is deterministic.
type DurativeAction struct {
	ActionCore
	Duration   Duration
	Conditions []TimedCondition
	Effects    []TimedEffect
}

// NewDurativeAction creates a durative action with the given parameters.
func NewDurativeAction(name string, params ...*model.Parameter) *DurativeAction {
	return &DurativeAction{ActionCore: ActionCore{Name: name, Params: params}}
}

// AddCondition appends a condition over the given interval.
func (a *DurativeAction) AddCondition(ivl Interval, cond exprs.ID) {
	a.Conditions = append(a.Conditions, TimedCondition{Interval: ivl, Cond: cond})
}

// AddEffect appends an effect at the given timepoint.
func (a *DurativeAction) AddEffect(tp Timepoint, e *Effect) {
	a.Effects = append(a.Effects, TimedEffect{Timepoint: tp, Effect: e})
}

// CloneAction returns a deep copy sharing symbols and expression ids.
func (a *DurativeAction) CloneAction() Action {
	out := &DurativeAction{
		ActionCore: a.cloneCore(),
		Duration:   a.Duration,
		Conditions: append([]TimedCondition(nil), a.Conditions...),
	}
	for _, te := range a.Effects {
		out.Effects = append(out.Effects, TimedEffect{Timepoint: te.Timepoint, Effect: te.Effect.Clone()})
	}
	return out
}

func (a *DurativeAction) String() string {
	parts := make([]string, len(a.Params))
	for i, p := range a.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("%s(%s) [durative]", a.Name, strings.Join(parts, ", "))
}
