package problem

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
)

// reservedName matches the double-underscore-delimited suffix used for
// generated names (move__3__, at__not__). Problems containing such names
// are rejected rather than silently disambiguated.
var reservedName = regexp.MustCompile(`__[A-Za-z0-9]+__$`)

// IsReservedName reports whether name uses the generated-name convention.
func IsReservedName(name string) bool {
	return reservedName.MatchString(name)
}

// Problem is a planning problem: symbols, actions, the initial assignment
// with two levels of fallback (per-fluent default, then per-type default),
// goals, trajectory constraints, and metrics.
//
// All collections keep insertion order; every traversal that affects
// generated names or disjunct ordering is deterministic.
type Problem struct {
	name  string
	store *exprs.Store

	userTypes []*model.Type
	objects   []*model.Object
	fluents   []*model.Fluent
	defaults  map[string]exprs.ID // fluent name -> default initial value
	actions   []Action

	initOrder []exprs.ID
	init      map[exprs.ID]exprs.ID

	goals       []exprs.ID
	constraints []exprs.ID
	metrics     []*Metric
}

// New creates an empty problem backed by a fresh expression store.
func New(name string) *Problem {
	return NewWithStore(name, exprs.NewStore())
}

// NewWithStore creates an empty problem over an existing store. Compiled
// problems share their source problem's store, so expression ids remain
// comparable across the compilation chain.
func NewWithStore(name string, store *exprs.Store) *Problem {
	return &Problem{
		name:     name,
		store:    store,
		defaults: make(map[string]exprs.ID),
		init:     make(map[exprs.ID]exprs.ID),
	}
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// SetName renames the problem.
func (p *Problem) SetName(name string) { p.name = name }

// Store returns the expression store the problem builds into.
func (p *Problem) Store() *exprs.Store { return p.store }

func (p *Problem) checkName(what, name string) error {
	if IsReservedName(name) {
		return fmt.Errorf("%s name %q uses the reserved generated-name suffix: %w", what, name, ErrDefinition)
	}
	if p.HasName(name) {
		return fmt.Errorf("%s name %q is already used: %w", what, name, ErrDefinition)
	}
	return nil
}

// HasName reports whether name is used by any type, object, fluent, or
// action of the problem.
func (p *Problem) HasName(name string) bool {
	for _, t := range p.userTypes {
		if t.Name == name {
			return true
		}
	}
	for _, o := range p.objects {
		if o.Name == name {
			return true
		}
	}
	for _, f := range p.fluents {
		if f.Name == name {
			return true
		}
	}
	for _, a := range p.actions {
		if a.Core().Name == name {
			return true
		}
	}
	return false
}

// FreshName returns base with the smallest reserved __N__ suffix not yet
// used in the problem.
func (p *Problem) FreshName(base string) string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s__%d__", base, n)
		if !p.HasName(name) {
			return name
		}
	}
}

// AddUserType registers a user type.
func (p *Problem) AddUserType(t *model.Type) error {
	if t.Kind != model.UserKind {
		return fmt.Errorf("type %s is not a user type: %w", t, ErrDefinition)
	}
	if err := p.checkName("type", t.Name); err != nil {
		return err
	}
	p.userTypes = append(p.userTypes, t)
	return nil
}

// UserTypes returns the user types in declaration order.
func (p *Problem) UserTypes() []*model.Type { return p.userTypes }

// UserType returns the named user type, or nil.
func (p *Problem) UserType(name string) *model.Type {
	for _, t := range p.userTypes {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AddObject registers an object.
func (p *Problem) AddObject(o *model.Object) error {
	if err := p.checkName("object", o.Name); err != nil {
		return err
	}
	p.objects = append(p.objects, o)
	return nil
}

// Objects returns every object in declaration order.
func (p *Problem) Objects() []*model.Object { return p.objects }

// Object returns the named object, or nil.
func (p *Problem) Object(name string) *model.Object {
	for _, o := range p.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// ObjectsOfType returns the objects of t in declaration order.
func (p *Problem) ObjectsOfType(t *model.Type) []*model.Object {
	var out []*model.Object
	for _, o := range p.objects {
		if o.Type.Equals(t) {
			out = append(out, o)
		}
	}
	return out
}

// AddFluent registers a fluent with no default initial value.
func (p *Problem) AddFluent(f *model.Fluent) error {
	if err := p.checkName("fluent", f.Name); err != nil {
		return err
	}
	p.fluents = append(p.fluents, f)
	return nil
}

// AddFluentWithDefault registers a fluent with a per-fluent default initial
// value.
func (p *Problem) AddFluentWithDefault(f *model.Fluent, def exprs.ID) error {
	if err := p.AddFluent(f); err != nil {
		return err
	}
	if err := checkConstantValue(p.store, def); err != nil {
		return err
	}
	p.defaults[f.Name] = def
	return nil
}

// AddCompiledFluent registers a fluent produced by a compilation pass
// together with its default initial value; the generated name carries the
// reserved suffix on purpose, so only the collision check applies.
func (p *Problem) AddCompiledFluent(f *model.Fluent, def exprs.ID) error {
	if p.HasName(f.Name) {
		return fmt.Errorf("generated fluent name %q collides: %w", f.Name, ErrDefinition)
	}
	if err := checkConstantValue(p.store, def); err != nil {
		return err
	}
	p.fluents = append(p.fluents, f)
	p.defaults[f.Name] = def
	return nil
}

// Fluents returns every fluent in declaration order.
func (p *Problem) Fluents() []*model.Fluent { return p.fluents }

// Fluent returns the named fluent, or nil.
func (p *Problem) Fluent(name string) *model.Fluent {
	for _, f := range p.fluents {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FluentDefault returns the per-fluent default initial value, if any.
func (p *Problem) FluentDefault(name string) (exprs.ID, bool) {
	def, ok := p.defaults[name]
	return def, ok
}

// SetFluentDefault sets the per-fluent default initial value.
func (p *Problem) SetFluentDefault(name string, def exprs.ID) error {
	if p.Fluent(name) == nil {
		return fmt.Errorf("unknown fluent %q: %w", name, ErrDefinition)
	}
	if err := checkConstantValue(p.store, def); err != nil {
		return err
	}
	p.defaults[name] = def
	return nil
}

// AddAction registers an action.
func (p *Problem) AddAction(a Action) error {
	if err := p.checkName("action", a.Core().Name); err != nil {
		return err
	}
	p.actions = append(p.actions, a)
	return nil
}

// AddCompiledAction registers an action produced by a compilation pass; the
// generated name carries the reserved suffix on purpose, so only the
// collision check applies.
func (p *Problem) AddCompiledAction(a Action) error {
	if p.HasName(a.Core().Name) {
		return fmt.Errorf("generated action name %q collides: %w", a.Core().Name, ErrDefinition)
	}
	p.actions = append(p.actions, a)
	return nil
}

// Actions returns every action in declaration order.
func (p *Problem) Actions() []Action { return p.actions }

// Action returns the named action, or nil.
func (p *Problem) Action(name string) Action {
	for _, a := range p.actions {
		if a.Core().Name == name {
			return a
		}
	}
	return nil
}

// ReplaceActions swaps the full action list; compilation passes rebuild the
// list wholesale.
func (p *Problem) ReplaceActions(actions []Action) {
	p.actions = actions
}

func checkConstantValue(s *exprs.Store, v exprs.ID) error {
	k := s.Node(v).Kind()
	if k != exprs.KindConstant && k != exprs.KindObject {
		return fmt.Errorf("initial value %s is not a constant: %w", s.String(v), ErrDefinition)
	}
	return nil
}

// SetInitialValue assigns an explicit initial value to a ground fluent
// expression. The value must be a constant.
func (p *Problem) SetInitialValue(fexp, value exprs.ID) error {
	if p.store.Node(fexp).Kind() != exprs.KindFluent {
		return fmt.Errorf("initial state key %s is not a fluent expression: %w", p.store.String(fexp), ErrDefinition)
	}
	if err := checkConstantValue(p.store, value); err != nil {
		return err
	}
	if _, ok := p.init[fexp]; !ok {
		p.initOrder = append(p.initOrder, fexp)
	}
	p.init[fexp] = value
	return nil
}

// InitialValue resolves the initial value of a ground fluent expression:
// explicit assignment first, then the per-fluent default, then the
// per-type default.
func (p *Problem) InitialValue(fexp exprs.ID) (exprs.ID, bool) {
	if v, ok := p.init[fexp]; ok {
		return v, true
	}
	n := p.store.Node(fexp)
	if n.Kind() != exprs.KindFluent {
		return exprs.NoID, false
	}
	if def, ok := p.defaults[n.Fluent().Name]; ok {
		return def, true
	}
	return p.typeDefault(n.Fluent().Type)
}

func (p *Problem) typeDefault(t *model.Type) (exprs.ID, bool) {
	switch t.Kind {
	case model.BoolKind:
		return p.store.Bool(false), true
	case model.IntKind:
		v := int64(0)
		if t.Lower != nil && *t.Lower > 0 {
			v = *t.Lower
		}
		if t.Upper != nil && *t.Upper < v {
			v = *t.Upper
		}
		return p.store.Int(v), true
	case model.RealKind:
		return p.store.Real(0), true
	default:
		return exprs.NoID, false
	}
}

// ReplaceFluents swaps the fluent list wholesale. Compilation passes that
// retype fluents rebuild the list; the names must not change.
func (p *Problem) ReplaceFluents(fluents []*model.Fluent) {
	p.fluents = fluents
}

// ClearInitialValues drops every explicit initial assignment.
func (p *Problem) ClearInitialValues() {
	p.initOrder = nil
	p.init = make(map[exprs.ID]exprs.ID)
}

// ExplicitInitialValues iterates the explicit assignments in insertion
// order.
func (p *Problem) ExplicitInitialValues(fn func(fexp, value exprs.ID)) {
	for _, fexp := range p.initOrder {
		fn(fexp, p.init[fexp])
	}
}

// AddGoal appends a goal conjunct.
func (p *Problem) AddGoal(g exprs.ID) { p.goals = append(p.goals, g) }

// Goals returns the goal conjuncts in insertion order.
func (p *Problem) Goals() []exprs.ID { return p.goals }

// ReplaceGoals swaps the goal list.
func (p *Problem) ReplaceGoals(goals []exprs.ID) { p.goals = goals }

// AddConstraint appends a trajectory constraint (an always, sometime,
// at-most-once, sometime-before, or sometime-after expression).
func (p *Problem) AddConstraint(c exprs.ID) error {
	switch p.store.Node(c).Kind() {
	case exprs.KindAlways, exprs.KindSometime, exprs.KindAtMostOnce,
		exprs.KindSometimeBefore, exprs.KindSometimeAfter:
		p.constraints = append(p.constraints, c)
		return nil
	default:
		return fmt.Errorf("%s is not a trajectory constraint: %w", p.store.String(c), ErrDefinition)
	}
}

// Constraints returns the trajectory constraints in insertion order.
func (p *Problem) Constraints() []exprs.ID { return p.constraints }

// ClearConstraints drops all trajectory constraints.
func (p *Problem) ClearConstraints() { p.constraints = nil }

// AddMetric appends a quality metric.
func (p *Problem) AddMetric(m *Metric) { p.metrics = append(p.metrics, m) }

// Metrics returns the metrics in insertion order.
func (p *Problem) Metrics() []*Metric { return p.metrics }

// ReplaceMetrics swaps the metric list.
func (p *Problem) ReplaceMetrics(ms []*Metric) { p.metrics = ms }

// Domain enumerates the constant expressions of t in a fixed deterministic
// order: booleans, then the declared objects of a user type, or the values
// of an integer type bounded on both sides.
func (p *Problem) Domain(t *model.Type) ([]exprs.ID, error) {
	switch {
	case t.Kind == model.BoolKind:
		return []exprs.ID{p.store.Bool(true), p.store.Bool(false)}, nil
	case t.Kind == model.UserKind:
		objects := p.ObjectsOfType(t)
		out := make([]exprs.ID, len(objects))
		for i, o := range objects {
			out[i] = p.store.ObjectExp(o)
		}
		return out, nil
	case t.Kind == model.IntKind && t.Lower != nil && t.Upper != nil:
		out := make([]exprs.ID, 0, *t.Upper-*t.Lower+1)
		for v := *t.Lower; v <= *t.Upper; v++ {
			out = append(out, p.store.Int(v))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("type %s is not enumerable", t)
	}
}

// Clone copies the problem wholesale: symbols are shared by reference,
// action bodies and the value tables are deep-copied, and the expression
// store is shared so ids remain valid. The original problem is never
// observed to change through the clone.
func (p *Problem) Clone() *Problem {
	out := &Problem{
		name:        p.name,
		store:       p.store,
		userTypes:   append([]*model.Type(nil), p.userTypes...),
		objects:     append([]*model.Object(nil), p.objects...),
		fluents:     append([]*model.Fluent(nil), p.fluents...),
		defaults:    make(map[string]exprs.ID, len(p.defaults)),
		initOrder:   append([]exprs.ID(nil), p.initOrder...),
		init:        make(map[exprs.ID]exprs.ID, len(p.init)),
		goals:       append([]exprs.ID(nil), p.goals...),
		constraints: append([]exprs.ID(nil), p.constraints...),
	}
	for name, def := range p.defaults {
		out.defaults[name] = def
	}
	for fexp, v := range p.init {
		out.init[fexp] = v
	}
	for _, a := range p.actions {
		out.actions = append(out.actions, a.CloneAction())
	}
	for _, m := range p.metrics {
		out.metrics = append(out.metrics, m.Clone())
	}
	return out
}

// Kind computes the feature flags of the problem from its content.
func (p *Problem) Kind() Kind {
	k := NewKind(FeatureActionBased)

	if len(p.userTypes) > 0 {
		k.Set(FeatureFlatTyping)
	}
	for _, f := range p.fluents {
		switch f.Type.Kind {
		case model.IntKind:
			k.Set(FeatureNumericFluents)
			k.Set(FeatureDiscreteNumbers)
			if f.Type.IsBounded() {
				k.Set(FeatureBoundedTypes)
			}
		case model.RealKind:
			k.Set(FeatureNumericFluents)
			k.Set(FeatureContinuousNumbers)
		case model.UserKind:
			k.Set(FeatureObjectFluents)
		}
	}

	for _, a := range p.actions {
		core := a.Core()
		if len(core.Params) > 0 {
			k.Set(FeatureActionParameters)
		}
		for _, param := range core.Params {
			switch {
			case param.Type.Kind == model.BoolKind:
				k.Set(FeatureBoolActionParameters)
			case param.Type.Kind == model.IntKind && param.Type.IsBounded():
				k.Set(FeatureBoundedIntActionParameters)
			}
		}
		switch act := a.(type) {
		case *InstantaneousAction:
			for _, c := range act.Preconditions {
				p.condFeatures(c, k)
			}
			p.effectFeatures(act.Effects, k)
		case *DurativeAction:
			k.Set(FeatureContinuousTime)
			for _, tc := range act.Conditions {
				p.condFeatures(tc.Cond, k)
			}
			effects := make([]*Effect, 0, len(act.Effects))
			for _, te := range act.Effects {
				effects = append(effects, te.Effect)
			}
			p.effectFeatures(effects, k)
		}
	}

	for _, g := range p.goals {
		p.condFeatures(g, k)
	}
	for _, c := range p.constraints {
		n := p.store.Node(c)
		if n.Kind() == exprs.KindAlways {
			k.Set(FeatureStateInvariants)
		} else {
			k.Set(FeatureTrajectoryConstraints)
		}
		for _, arg := range n.Args() {
			p.condFeatures(arg, k)
		}
	}
	for _, m := range p.metrics {
		switch m.Kind {
		case MinimizeActionCosts:
			k.Set(FeatureActionsCost)
		case MinimizeSequentialPlanLength:
			k.Set(FeaturePlanLength)
		default:
			k.Set(FeatureFinalValue)
		}
	}
	return k
}

// condFeatures folds the condition-kind flags of the expression into k.
func (p *Problem) condFeatures(root exprs.ID, k Kind) {
	stack := []exprs.ID{root}
	seen := make(map[exprs.ID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		n := p.store.Node(id)
		switch n.Kind() {
		case exprs.KindNot:
			k.Set(FeatureNegativeConditions)
		case exprs.KindOr, exprs.KindImplies, exprs.KindIff:
			k.Set(FeatureDisjunctiveConditions)
		case exprs.KindEquals:
			k.Set(FeatureEqualities)
		case exprs.KindExists:
			k.Set(FeatureExistentialConditions)
		case exprs.KindForall:
			k.Set(FeatureUniversalConditions)
		}
		stack = append(stack, n.Args()...)
	}
}

func (p *Problem) effectFeatures(effects []*Effect, k Kind) {
	for _, e := range effects {
		if e.IsConditional(p.store) {
			k.Set(FeatureConditionalEffects)
		}
		switch e.Kind {
		case Increase:
			k.Set(FeatureIncreaseEffects)
		case Decrease:
			k.Set(FeatureDecreaseEffects)
		}
		if len(e.Forall) > 0 {
			k.Set(FeatureForallEffects)
		}
	}
}

// SortedFluentNames returns fluent names in sorted order, for output whose
// ordering must not depend on map iteration.
func (p *Problem) SortedFluentNames() []string {
	names := make([]string, len(p.fluents))
	for i, f := range p.fluents {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}
