package parser

import (
	"fmt"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

// scope is the set of action parameters visible while decoding an
// expression; quantifier bindings nest on top of it.
type scope struct {
	params map[string]*model.Parameter
	vars   map[string]*model.Variable
	parent *scope
}

func (sc *scope) lookupParam(name string) *model.Parameter {
	for s := sc; s != nil; s = s.parent {
		if s.params != nil {
			if p, ok := s.params[name]; ok {
				return p
			}
		}
	}
	return nil
}

func (sc *scope) lookupVar(name string) *model.Variable {
	for s := sc; s != nil; s = s.parent {
		if s.vars != nil {
			if v, ok := s.vars[name]; ok {
				return v
			}
		}
	}
	return nil
}

type decoder struct {
	p *problem.Problem
	s *exprs.Store
}

func (d *decoder) expr(doc *exprDoc, sc *scope) (exprs.ID, error) {
	if doc == nil {
		return exprs.NoID, fmt.Errorf("missing expression")
	}
	switch doc.Op {
	case "const":
		switch {
		case doc.Bool != nil:
			return d.s.Bool(*doc.Bool), nil
		case doc.Int != nil:
			return d.s.Int(*doc.Int), nil
		case doc.Real != nil:
			return d.s.Real(*doc.Real), nil
		default:
			return exprs.NoID, fmt.Errorf("constant without a value")
		}
	case "object":
		o := d.p.Object(doc.Name)
		if o == nil {
			return exprs.NoID, fmt.Errorf("unknown object %q", doc.Name)
		}
		return d.s.ObjectExp(o), nil
	case "param":
		if sc != nil {
			if p := sc.lookupParam(doc.Name); p != nil {
				return d.s.ParamExp(p), nil
			}
		}
		return exprs.NoID, fmt.Errorf("unknown parameter %q", doc.Name)
	case "var":
		if sc != nil {
			if v := sc.lookupVar(doc.Name); v != nil {
				return d.s.VarExp(v), nil
			}
		}
		return exprs.NoID, fmt.Errorf("unbound variable %q", doc.Name)
	case "fluent":
		f := d.p.Fluent(doc.Name)
		if f == nil {
			return exprs.NoID, fmt.Errorf("unknown fluent %q", doc.Name)
		}
		if len(doc.Args) != f.Arity() {
			return exprs.NoID, fmt.Errorf("fluent %s expects %d arguments, got %d", f.Name, f.Arity(), len(doc.Args))
		}
		args, err := d.exprs(doc.Args, sc)
		if err != nil {
			return exprs.NoID, err
		}
		return d.s.FluentExp(f, args...), nil
	case "exists", "forall":
		if len(doc.Args) != 1 {
			return exprs.NoID, fmt.Errorf("%s expects one body", doc.Op)
		}
		vars := make([]*model.Variable, len(doc.Vars))
		inner := &scope{vars: make(map[string]*model.Variable, len(doc.Vars)), parent: sc}
		for i, vd := range doc.Vars {
			typ, err := parseType(d.p, vd.Type)
			if err != nil {
				return exprs.NoID, fmt.Errorf("bound variable %s: %w", vd.Name, err)
			}
			vars[i] = model.NewVariable(vd.Name, typ)
			inner.vars[vd.Name] = vars[i]
		}
		body, err := d.expr(doc.Args[0], inner)
		if err != nil {
			return exprs.NoID, err
		}
		if doc.Op == "exists" {
			return d.s.Exists(body, vars...), nil
		}
		return d.s.Forall(body, vars...), nil
	}

	args, err := d.exprs(doc.Args, sc)
	if err != nil {
		return exprs.NoID, err
	}
	return d.combine(doc.Op, args)
}

func (d *decoder) combine(op string, args []exprs.ID) (exprs.ID, error) {
	arity := map[string]int{
		"not": 1, "implies": 2, "iff": 2, "-": 2, "/": 2,
		"<=": 2, "<": 2, "==": 2,
		"always": 1, "sometime": 1, "at-most-once": 1,
		"sometime-before": 2, "sometime-after": 2,
	}
	if want, ok := arity[op]; ok && len(args) != want {
		return exprs.NoID, fmt.Errorf("%s expects %d arguments, got %d", op, want, len(args))
	}
	switch op {
	case "and":
		return d.s.And(args...), nil
	case "or":
		return d.s.Or(args...), nil
	case "not":
		return d.s.Not(args[0]), nil
	case "implies":
		return d.s.Implies(args[0], args[1]), nil
	case "iff":
		return d.s.Iff(args[0], args[1]), nil
	case "+":
		return d.s.Plus(args...), nil
	case "-":
		return d.s.Minus(args[0], args[1]), nil
	case "*":
		return d.s.Times(args...), nil
	case "/":
		return d.s.Div(args[0], args[1]), nil
	case "<=":
		return d.s.LE(args[0], args[1]), nil
	case "<":
		return d.s.LT(args[0], args[1]), nil
	case "==":
		return d.s.Equals(args[0], args[1]), nil
	case "always":
		return d.s.Always(args[0]), nil
	case "sometime":
		return d.s.Sometime(args[0]), nil
	case "at-most-once":
		return d.s.AtMostOnce(args[0]), nil
	case "sometime-before":
		return d.s.SometimeBefore(args[0], args[1]), nil
	case "sometime-after":
		return d.s.SometimeAfter(args[0], args[1]), nil
	default:
		return exprs.NoID, fmt.Errorf("unknown operator %q", op)
	}
}

func (d *decoder) exprs(docs []*exprDoc, sc *scope) ([]exprs.ID, error) {
	out := make([]exprs.ID, len(docs))
	for i, doc := range docs {
		id, err := d.expr(doc, sc)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (d *decoder) action(doc actionDoc) error {
	params, err := parseParams(d.p, doc.Params)
	if err != nil {
		return err
	}
	sc := &scope{params: make(map[string]*model.Parameter, len(params))}
	for _, p := range params {
		sc.params[p.Name] = p
	}

	if doc.Duration == nil && len(doc.Conditions) == 0 && len(doc.TimedEffects) == 0 {
		act := problem.NewInstantaneousAction(doc.Name, params...)
		for _, pd := range doc.Preconditions {
			cond, err := d.expr(pd, sc)
			if err != nil {
				return err
			}
			act.AddPrecondition(cond)
		}
		for _, ed := range doc.Effects {
			eff, err := d.effect(ed, sc)
			if err != nil {
				return err
			}
			act.AddEffect(eff)
		}
		return d.p.AddAction(act)
	}

	act := problem.NewDurativeAction(doc.Name, params...)
	if doc.Duration != nil {
		lo, err := d.expr(doc.Duration.Lower, sc)
		if err != nil {
			return err
		}
		hi, err := d.expr(doc.Duration.Upper, sc)
		if err != nil {
			return err
		}
		act.Duration = problem.Duration{Lower: lo, Upper: hi}
	}
	for _, cd := range doc.Conditions {
		ivl, err := parseInterval(cd.Interval)
		if err != nil {
			return err
		}
		cond, err := d.expr(cd.Cond, sc)
		if err != nil {
			return err
		}
		act.AddCondition(ivl, cond)
	}
	for _, te := range doc.TimedEffects {
		tp, err := parseTimepoint(te.Timepoint)
		if err != nil {
			return err
		}
		eff, err := d.effect(te.Effect, sc)
		if err != nil {
			return err
		}
		act.AddEffect(tp, eff)
	}
	return d.p.AddAction(act)
}

func (d *decoder) effect(doc effectDoc, sc *scope) (*problem.Effect, error) {
	forall := make([]*model.Variable, len(doc.Forall))
	inner := sc
	if len(doc.Forall) > 0 {
		inner = &scope{vars: make(map[string]*model.Variable, len(doc.Forall)), parent: sc}
		for i, vd := range doc.Forall {
			typ, err := parseType(d.p, vd.Type)
			if err != nil {
				return nil, fmt.Errorf("forall variable %s: %w", vd.Name, err)
			}
			forall[i] = model.NewVariable(vd.Name, typ)
			inner.vars[vd.Name] = forall[i]
		}
	}
	fexp, err := d.expr(doc.Fluent, inner)
	if err != nil {
		return nil, err
	}
	value, err := d.expr(doc.Value, inner)
	if err != nil {
		return nil, err
	}
	cond := d.s.Bool(true)
	if doc.Condition != nil {
		cond, err = d.expr(doc.Condition, inner)
		if err != nil {
			return nil, err
		}
	}
	kind, err := parseEffectKind(doc.Kind)
	if err != nil {
		return nil, err
	}
	return problem.NewEffect(d.s, fexp, value, cond, kind, forall...)
}

func (d *decoder) metric(doc metricDoc) (*problem.Metric, error) {
	m := &problem.Metric{Expr: exprs.NoID, DefaultCost: exprs.NoID}
	switch doc.Kind {
	case "minimize-action-costs":
		m.Kind = problem.MinimizeActionCosts
	case "minimize-sequential-plan-length":
		m.Kind = problem.MinimizeSequentialPlanLength
	case "minimize-expression-on-final-state":
		m.Kind = problem.MinimizeExpressionOnFinalState
	case "maximize-expression-on-final-state":
		m.Kind = problem.MaximizeExpressionOnFinalState
	default:
		return nil, fmt.Errorf("unknown metric kind %q", doc.Kind)
	}
	if doc.Expr != nil {
		id, err := d.expr(doc.Expr, nil)
		if err != nil {
			return nil, err
		}
		m.Expr = id
	}
	if len(doc.Costs) > 0 {
		m.Costs = make(map[string]exprs.ID, len(doc.Costs))
		for name, cd := range doc.Costs {
			id, err := d.expr(cd, nil)
			if err != nil {
				return nil, fmt.Errorf("cost of %s: %w", name, err)
			}
			m.Costs[name] = id
		}
	}
	if doc.DefaultCost != nil {
		id, err := d.expr(doc.DefaultCost, nil)
		if err != nil {
			return nil, err
		}
		m.DefaultCost = id
	}
	return m, nil
}

func parseInterval(str string) (problem.Interval, error) {
	switch str {
	case "start":
		return problem.StartInterval(), nil
	case "end":
		return problem.EndInterval(), nil
	case "overall":
		return problem.OverAll(), nil
	default:
		return problem.Interval{}, fmt.Errorf("unknown interval %q", str)
	}
}

func parseTimepoint(str string) (problem.Timepoint, error) {
	switch str {
	case "start":
		return problem.AtStart, nil
	case "end":
		return problem.AtEnd, nil
	default:
		return problem.AtStart, fmt.Errorf("unknown timepoint %q", str)
	}
}

func parseEffectKind(str string) (problem.EffectKind, error) {
	switch str {
	case "", "assign":
		return problem.Assign, nil
	case "increase":
		return problem.Increase, nil
	case "decrease":
		return problem.Decrease, nil
	default:
		return problem.Assign, fmt.Errorf("unknown effect kind %q", str)
	}
}

type encoder struct {
	p *problem.Problem
	s *exprs.Store
}

func (e *encoder) expr(id exprs.ID) *exprDoc {
	n := e.s.Node(id)
	switch n.Kind() {
	case exprs.KindConstant:
		c := n.Constant()
		doc := &exprDoc{Op: "const"}
		switch c.Type.Kind {
		case model.BoolKind:
			b := c.Bool
			doc.Bool = &b
		case model.IntKind:
			v := c.Int
			doc.Int = &v
		default:
			r := c.Real
			doc.Real = &r
		}
		return doc
	case exprs.KindObject:
		return &exprDoc{Op: "object", Name: n.Object().Name}
	case exprs.KindParam:
		return &exprDoc{Op: "param", Name: n.Param().Name}
	case exprs.KindVariable:
		return &exprDoc{Op: "var", Name: n.Variable().Name}
	case exprs.KindFluent:
		return &exprDoc{Op: "fluent", Name: n.Fluent().Name, Args: e.exprs(n.Args())}
	case exprs.KindExists, exprs.KindForall:
		op := "exists"
		if n.Kind() == exprs.KindForall {
			op = "forall"
		}
		vars := make([]symbolDoc, len(n.Vars()))
		for i, v := range n.Vars() {
			vars[i] = symbolDoc{Name: v.Name, Type: v.Type.String()}
		}
		return &exprDoc{Op: op, Vars: vars, Args: e.exprs(n.Args())}
	default:
		return &exprDoc{Op: n.Kind().String(), Args: e.exprs(n.Args())}
	}
}

func (e *encoder) exprs(ids []exprs.ID) []*exprDoc {
	if len(ids) == 0 {
		return nil
	}
	out := make([]*exprDoc, len(ids))
	for i, id := range ids {
		out[i] = e.expr(id)
	}
	return out
}

func (e *encoder) action(a problem.Action) actionDoc {
	doc := actionDoc{Name: a.Core().Name, Params: encodeParams(a.Core().Params)}
	switch act := a.(type) {
	case *problem.InstantaneousAction:
		for _, c := range act.Preconditions {
			doc.Preconditions = append(doc.Preconditions, e.expr(c))
		}
		for _, eff := range act.Effects {
			doc.Effects = append(doc.Effects, e.effect(eff))
		}
	case *problem.DurativeAction:
		if act.Duration.Lower != exprs.NoID {
			doc.Duration = &durationDoc{Lower: e.expr(act.Duration.Lower), Upper: e.expr(act.Duration.Upper)}
		}
		for _, tc := range act.Conditions {
			doc.Conditions = append(doc.Conditions, conditionDoc{
				Interval: encodeInterval(tc.Interval),
				Cond:     e.expr(tc.Cond),
			})
		}
		for _, te := range act.Effects {
			doc.TimedEffects = append(doc.TimedEffects, timedEffect{
				Timepoint: te.Timepoint.String(),
				Effect:    e.effect(te.Effect),
			})
		}
	}
	return doc
}

func (e *encoder) effect(eff *problem.Effect) effectDoc {
	doc := effectDoc{Fluent: e.expr(eff.Fluent), Value: e.expr(eff.Value), Kind: eff.Kind.String()}
	if eff.IsConditional(e.s) {
		doc.Condition = e.expr(eff.Condition)
	}
	for _, v := range eff.Forall {
		doc.Forall = append(doc.Forall, symbolDoc{Name: v.Name, Type: v.Type.String()})
	}
	return doc
}

func (e *encoder) metric(m *problem.Metric) metricDoc {
	doc := metricDoc{}
	switch m.Kind {
	case problem.MinimizeActionCosts:
		doc.Kind = "minimize-action-costs"
	case problem.MinimizeSequentialPlanLength:
		doc.Kind = "minimize-sequential-plan-length"
	case problem.MinimizeExpressionOnFinalState:
		doc.Kind = "minimize-expression-on-final-state"
	case problem.MaximizeExpressionOnFinalState:
		doc.Kind = "maximize-expression-on-final-state"
	}
	if m.Expr != exprs.NoID {
		doc.Expr = e.expr(m.Expr)
	}
	if len(m.Costs) > 0 {
		doc.Costs = make(map[string]*exprDoc, len(m.Costs))
		for name, cost := range m.Costs {
			doc.Costs[name] = e.expr(cost)
		}
	}
	if m.DefaultCost != exprs.NoID {
		doc.DefaultCost = e.expr(m.DefaultCost)
	}
	return doc
}

func encodeInterval(ivl problem.Interval) string {
	switch ivl {
	case problem.StartInterval():
		return "start"
	case problem.EndInterval():
		return "end"
	default:
		return "overall"
	}
}
