package problem

import (
	"fmt"
	"strings"

	"github.com/plankit-xyz/go-plankit/exprs"
)

// ActionInstance is one plan step: an action name applied to constant
// parameter expressions.
type ActionInstance struct {
	ActionName string
	Params     []exprs.ID
}

func (ai ActionInstance) String(s *exprs.Store) string {
	if len(ai.Params) == 0 {
		return ai.ActionName
	}
	parts := make([]string, len(ai.Params))
	for i, p := range ai.Params {
		parts[i] = s.String(p)
	}
	return fmt.Sprintf("%s(%s)", ai.ActionName, strings.Join(parts, ", "))
}

// Plan is a sequence of action instances.
type Plan struct {
	Steps []ActionInstance
}

func (p *Plan) String(s *exprs.Store) string {
	parts := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		parts[i] = step.String(s)
	}
	return strings.Join(parts, "; ")
}
