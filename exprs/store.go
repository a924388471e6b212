package exprs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plankit-xyz/go-plankit/model"
)

// Store owns every expression node of one modeling environment. It keeps an
// arena of nodes addressed by id and a unicity table from content keys to
// ids, so that interning the same content twice yields the same id.
//
// A Store is not safe for concurrent mutation; each compilation call owns
// the stores it builds into for the duration of the call.
type Store struct {
	nodes []Node
	index map[string]ID
}

// NewStore creates an empty expression store.
func NewStore() *Store {
	return &Store{index: make(map[string]ID)}
}

// Len returns the number of interned nodes.
func (s *Store) Len() int { return len(s.nodes) }

// Node returns the node at id. The returned pointer stays valid for the
// lifetime of the store and must be treated as read-only.
func (s *Store) Node(id ID) *Node {
	return &s.nodes[id]
}

// intern is the single entry point through which every builder allocates.
// It returns the existing id when a node with the same kind, child ids, and
// payload was interned before.
func (s *Store) intern(n Node) ID {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(n.kind)))
	b.WriteByte('|')
	b.WriteString(n.payloadKey())
	for _, a := range n.args {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(int(a)))
	}
	key := b.String()
	if id, ok := s.index[key]; ok {
		return id
	}
	id := ID(len(s.nodes))
	n.id = id
	if n.args != nil {
		args := make([]ID, len(n.args))
		copy(args, n.args)
		n.args = args
	}
	s.nodes = append(s.nodes, n)
	s.index[key] = id
	return id
}

// String renders the expression rooted at id in a lisp-ish prefix form,
// mainly for tests and error messages.
func (s *Store) String(id ID) string {
	n := s.Node(id)
	switch n.kind {
	case KindConstant:
		c := n.constant
		switch c.Type.Kind {
		case model.BoolKind:
			return strconv.FormatBool(c.Bool)
		case model.IntKind:
			return strconv.FormatInt(c.Int, 10)
		default:
			return strconv.FormatFloat(c.Real, 'g', -1, 64)
		}
	case KindObject:
		return n.object.Name
	case KindParam:
		return n.param.Name
	case KindVariable:
		return n.variable.Name
	case KindFluent:
		if len(n.args) == 0 {
			return n.fluent.Name
		}
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = s.String(a)
		}
		return fmt.Sprintf("%s(%s)", n.fluent.Name, strings.Join(parts, ", "))
	case KindExists, KindForall:
		vars := make([]string, len(n.vars))
		for i, v := range n.vars {
			vars[i] = v.String()
		}
		return fmt.Sprintf("(%s (%s) %s)", n.kind, strings.Join(vars, ", "), s.String(n.args[0]))
	default:
		parts := make([]string, len(n.args))
		for i, a := range n.args {
			parts[i] = s.String(a)
		}
		return fmt.Sprintf("(%s %s)", n.kind, strings.Join(parts, " "))
	}
}
