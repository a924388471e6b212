// Package parser handles JSON import and export for planning problems and
// plans. The format is a plain document tree: symbol declarations first,
// then actions, initial values, goals, constraints, and metrics, with
// expressions encoded as recursive {"op": ...} objects.
package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/plankit-xyz/go-plankit/exprs"
	"github.com/plankit-xyz/go-plankit/model"
	"github.com/plankit-xyz/go-plankit/problem"
)

type problemDoc struct {
	Name        string         `json:"name"`
	Types       []string       `json:"types,omitempty"`
	Objects     []symbolDoc    `json:"objects,omitempty"`
	Fluents     []fluentDoc    `json:"fluents,omitempty"`
	Actions     []actionDoc    `json:"actions,omitempty"`
	Init        []initDoc      `json:"init,omitempty"`
	Goals       []*exprDoc     `json:"goals,omitempty"`
	Constraints []*exprDoc     `json:"constraints,omitempty"`
	Metrics     []metricDoc    `json:"metrics,omitempty"`
}

type symbolDoc struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type fluentDoc struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Params  []symbolDoc `json:"params,omitempty"`
	Default *exprDoc    `json:"default,omitempty"`
}

type actionDoc struct {
	Name          string         `json:"name"`
	Params        []symbolDoc    `json:"params,omitempty"`
	Preconditions []*exprDoc     `json:"preconditions,omitempty"`
	Effects       []effectDoc    `json:"effects,omitempty"`
	Duration      *durationDoc   `json:"duration,omitempty"`
	Conditions    []conditionDoc `json:"conditions,omitempty"`
	TimedEffects  []timedEffect  `json:"timedEffects,omitempty"`
}

type effectDoc struct {
	Fluent    *exprDoc    `json:"fluent"`
	Value     *exprDoc    `json:"value"`
	Condition *exprDoc    `json:"condition,omitempty"`
	Kind      string      `json:"kind,omitempty"` // assign, increase, decrease
	Forall    []symbolDoc `json:"forall,omitempty"`
}

type durationDoc struct {
	Lower *exprDoc `json:"lower"`
	Upper *exprDoc `json:"upper"`
}

type conditionDoc struct {
	Interval string   `json:"interval"` // start, end, overall
	Cond     *exprDoc `json:"cond"`
}

type timedEffect struct {
	Timepoint string    `json:"timepoint"` // start, end
	Effect    effectDoc `json:"effect"`
}

type initDoc struct {
	Fluent *exprDoc `json:"fluent"`
	Value  *exprDoc `json:"value"`
}

type metricDoc struct {
	Kind        string              `json:"kind"`
	Expr        *exprDoc            `json:"expr,omitempty"`
	Costs       map[string]*exprDoc `json:"costs,omitempty"`
	DefaultCost *exprDoc            `json:"defaultCost,omitempty"`
}

// exprDoc is the recursive expression encoding. Op selects the operator;
// leaves carry their payload inline, quantifiers declare their bound
// variables in Vars.
type exprDoc struct {
	Op   string      `json:"op"`
	Bool *bool       `json:"bool,omitempty"`
	Int  *int64      `json:"int,omitempty"`
	Real *float64    `json:"real,omitempty"`
	Name string      `json:"name,omitempty"`
	Args []*exprDoc  `json:"args,omitempty"`
	Vars []symbolDoc `json:"vars,omitempty"`
}

type planDoc struct {
	Steps []stepDoc `json:"steps"`
}

type stepDoc struct {
	Action string     `json:"action"`
	Params []*exprDoc `json:"params,omitempty"`
}

// ProblemFromJSON parses a planning problem from JSON bytes.
func ProblemFromJSON(data []byte) (*problem.Problem, error) {
	var doc problemDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	p := problem.New(doc.Name)
	for _, name := range doc.Types {
		if err := p.AddUserType(model.UserType(name)); err != nil {
			return nil, err
		}
	}
	for _, o := range doc.Objects {
		typ, err := parseType(p, o.Type)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", o.Name, err)
		}
		if err := p.AddObject(model.NewObject(o.Name, typ)); err != nil {
			return nil, err
		}
	}

	dec := &decoder{p: p, s: p.Store()}
	for _, fd := range doc.Fluents {
		typ, err := parseType(p, fd.Type)
		if err != nil {
			return nil, fmt.Errorf("fluent %s: %w", fd.Name, err)
		}
		params, err := parseParams(p, fd.Params)
		if err != nil {
			return nil, fmt.Errorf("fluent %s: %w", fd.Name, err)
		}
		f := model.NewFluent(fd.Name, typ, params...)
		if fd.Default == nil {
			if err := p.AddFluent(f); err != nil {
				return nil, err
			}
			continue
		}
		def, err := dec.expr(fd.Default, nil)
		if err != nil {
			return nil, fmt.Errorf("fluent %s default: %w", fd.Name, err)
		}
		if err := p.AddFluentWithDefault(f, def); err != nil {
			return nil, err
		}
	}

	for _, ad := range doc.Actions {
		if err := dec.action(ad); err != nil {
			return nil, fmt.Errorf("action %s: %w", ad.Name, err)
		}
	}
	for _, iv := range doc.Init {
		fexp, err := dec.expr(iv.Fluent, nil)
		if err != nil {
			return nil, fmt.Errorf("initial value: %w", err)
		}
		value, err := dec.expr(iv.Value, nil)
		if err != nil {
			return nil, fmt.Errorf("initial value: %w", err)
		}
		if err := p.SetInitialValue(fexp, value); err != nil {
			return nil, err
		}
	}
	for _, g := range doc.Goals {
		goal, err := dec.expr(g, nil)
		if err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
		p.AddGoal(goal)
	}
	for _, c := range doc.Constraints {
		constraint, err := dec.expr(c, nil)
		if err != nil {
			return nil, fmt.Errorf("constraint: %w", err)
		}
		if err := p.AddConstraint(constraint); err != nil {
			return nil, err
		}
	}
	for _, md := range doc.Metrics {
		m, err := dec.metric(md)
		if err != nil {
			return nil, fmt.Errorf("metric: %w", err)
		}
		p.AddMetric(m)
	}
	return p, nil
}

// ProblemToJSON serializes a planning problem to indented JSON bytes.
func ProblemToJSON(p *problem.Problem) ([]byte, error) {
	enc := &encoder{p: p, s: p.Store()}
	doc := problemDoc{Name: p.Name()}

	for _, t := range p.UserTypes() {
		doc.Types = append(doc.Types, t.Name)
	}
	for _, o := range p.Objects() {
		doc.Objects = append(doc.Objects, symbolDoc{Name: o.Name, Type: o.Type.String()})
	}
	for _, f := range p.Fluents() {
		fd := fluentDoc{Name: f.Name, Type: f.Type.String(), Params: encodeParams(f.Params)}
		if def, ok := p.FluentDefault(f.Name); ok {
			fd.Default = enc.expr(def)
		}
		doc.Fluents = append(doc.Fluents, fd)
	}
	for _, a := range p.Actions() {
		doc.Actions = append(doc.Actions, enc.action(a))
	}
	p.ExplicitInitialValues(func(fexp, value exprs.ID) {
		doc.Init = append(doc.Init, initDoc{Fluent: enc.expr(fexp), Value: enc.expr(value)})
	})
	for _, g := range p.Goals() {
		doc.Goals = append(doc.Goals, enc.expr(g))
	}
	for _, c := range p.Constraints() {
		doc.Constraints = append(doc.Constraints, enc.expr(c))
	}
	for _, m := range p.Metrics() {
		doc.Metrics = append(doc.Metrics, enc.metric(m))
	}
	return json.MarshalIndent(doc, "", "  ")
}

// PlanFromJSON parses a plan against the problem it is meant for; action
// parameters resolve in the problem's store.
func PlanFromJSON(p *problem.Problem, data []byte) (*problem.Plan, error) {
	var doc planDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	dec := &decoder{p: p, s: p.Store()}
	plan := &problem.Plan{}
	for _, sd := range doc.Steps {
		step := problem.ActionInstance{ActionName: sd.Action}
		for _, pd := range sd.Params {
			id, err := dec.expr(pd, nil)
			if err != nil {
				return nil, fmt.Errorf("step %s: %w", sd.Action, err)
			}
			step.Params = append(step.Params, id)
		}
		plan.Steps = append(plan.Steps, step)
	}
	return plan, nil
}

// PlanToJSON serializes a plan to indented JSON bytes.
func PlanToJSON(p *problem.Problem, plan *problem.Plan) ([]byte, error) {
	enc := &encoder{p: p, s: p.Store()}
	doc := planDoc{Steps: []stepDoc{}}
	for _, step := range plan.Steps {
		sd := stepDoc{Action: step.ActionName}
		for _, param := range step.Params {
			sd.Params = append(sd.Params, enc.expr(param))
		}
		doc.Steps = append(doc.Steps, sd)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// parseType resolves a canonical type string: "bool", "real", "integer",
// "integer[lo, hi]" with -inf/inf bounds, or a declared user type name.
func parseType(p *problem.Problem, str string) (*model.Type, error) {
	switch {
	case str == "bool":
		return model.BoolType(), nil
	case str == "real":
		return model.RealType(), nil
	case str == "integer":
		return model.IntType(), nil
	case strings.HasPrefix(str, "integer[") && strings.HasSuffix(str, "]"):
		body := strings.TrimSuffix(strings.TrimPrefix(str, "integer["), "]")
		parts := strings.SplitN(body, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed integer type %q", str)
		}
		t := &model.Type{Kind: model.IntKind}
		if lo := strings.TrimSpace(parts[0]); lo != "-inf" {
			v, err := strconv.ParseInt(lo, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed integer bound in %q: %w", str, err)
			}
			t.Lower = &v
		}
		if hi := strings.TrimSpace(parts[1]); hi != "inf" {
			v, err := strconv.ParseInt(hi, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed integer bound in %q: %w", str, err)
			}
			t.Upper = &v
		}
		return t, nil
	default:
		if t := p.UserType(str); t != nil {
			return t, nil
		}
		return nil, fmt.Errorf("unknown type %q", str)
	}
}

func parseParams(p *problem.Problem, docs []symbolDoc) ([]*model.Parameter, error) {
	params := make([]*model.Parameter, len(docs))
	for i, d := range docs {
		typ, err := parseType(p, d.Type)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", d.Name, err)
		}
		params[i] = model.NewParameter(d.Name, typ)
	}
	return params, nil
}

func encodeParams(params []*model.Parameter) []symbolDoc {
	docs := make([]symbolDoc, len(params))
	for i, p := range params {
		docs[i] = symbolDoc{Name: p.Name, Type: p.Type.String()}
	}
	return docs
}
