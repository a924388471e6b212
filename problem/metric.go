package problem

import "github.com/plankit-xyz/go-plankit/exprs"

// MetricKind discriminates the quality metrics a problem can carry.
type MetricKind int

const (
	MinimizeActionCosts MetricKind = iota
	MinimizeSequentialPlanLength
	MinimizeExpressionOnFinalState
	MaximizeExpressionOnFinalState
)

// Metric is a plan quality metric. For MinimizeActionCosts, Costs maps
// action names to cost expressions with DefaultCost as fallback; for the
// final-state metrics, Expr is the optimized expression.
type Metric struct {
	Kind        MetricKind
	Expr        exprs.ID
	Costs       map[string]exprs.ID
	DefaultCost exprs.ID
}

// Clone returns a deep copy.
func (m *Metric) Clone() *Metric {
	out := *m
	if m.Costs != nil {
		out.Costs = make(map[string]exprs.ID, len(m.Costs))
		for name, cost := range m.Costs {
			out.Costs[name] = cost
		}
	}
	return &out
}
