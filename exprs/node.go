// Package exprs implements the hash-consed expression representation used by
// the planning model and every compilation pass.
//
// Expressions are immutable nodes held in a Store. Nodes are identified by
// integer ids; two expressions built from the same operator, the same child
// ids, and an equal payload are the same node (same id). This makes equality
// and hashing O(1) and is what every memoized walker in this package relies
// on for correctness.
package exprs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/plankit-xyz/go-plankit/model"
)

// ID is the stable address of a node inside its Store.
type ID int32

// NoID marks the absence of a node.
const NoID ID = -1

// Kind is the operator tag of a node.
type Kind uint8

const (
	// Leaves.
	KindConstant Kind = iota
	KindObject
	KindParam
	KindVariable
	KindFluent

	// Boolean operators.
	KindNot
	KindAnd
	KindOr
	KindImplies
	KindIff
	KindExists
	KindForall

	// Arithmetic operators.
	KindPlus
	KindMinus
	KindTimes
	KindDiv

	// Comparisons.
	KindLE
	KindLT
	KindEquals

	// Trajectory constraint operators.
	KindAlways
	KindSometime
	KindAtMostOnce
	KindSometimeBefore
	KindSometimeAfter

	numKinds
)

var kindNames = [numKinds]string{
	"constant", "object", "param", "variable", "fluent",
	"not", "and", "or", "implies", "iff", "exists", "forall",
	"+", "-", "*", "/",
	"<=", "<", "==",
	"always", "sometime", "at-most-once", "sometime-before", "sometime-after",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// AllKinds returns every operator kind, in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// Constant is the payload of a KindConstant node.
type Constant struct {
	Type *model.Type // BoolType, IntType, or RealType
	Bool bool
	Int  int64
	Real float64
}

func (c Constant) key() string {
	switch c.Type.Kind {
	case model.BoolKind:
		return "b:" + strconv.FormatBool(c.Bool)
	case model.IntKind:
		return "i:" + strconv.FormatInt(c.Int, 10)
	default:
		return "r:" + strconv.FormatFloat(c.Real, 'g', -1, 64)
	}
}

// Node is an immutable expression vertex: an operator kind, ordered child
// ids, and an optional payload. At most one payload field is set, selected
// by the kind. Nodes are only created through Store builders.
type Node struct {
	id       ID
	kind     Kind
	args     []ID
	constant Constant
	object   *model.Object
	param    *model.Parameter
	variable *model.Variable
	fluent   *model.Fluent
	vars     []*model.Variable // binder payload of exists/forall
}

// ID returns the node's address in its store.
func (n *Node) ID() ID { return n.id }

// Kind returns the operator tag.
func (n *Node) Kind() Kind { return n.kind }

// Args returns the ordered child ids. The returned slice must not be
// modified.
func (n *Node) Args() []ID { return n.args }

// Constant returns the payload of a KindConstant node.
func (n *Node) Constant() Constant { return n.constant }

// Object returns the payload of a KindObject node.
func (n *Node) Object() *model.Object { return n.object }

// Param returns the payload of a KindParam node.
func (n *Node) Param() *model.Parameter { return n.param }

// Variable returns the payload of a KindVariable node.
func (n *Node) Variable() *model.Variable { return n.variable }

// Fluent returns the payload of a KindFluent node.
func (n *Node) Fluent() *model.Fluent { return n.fluent }

// Vars returns the binder payload of a KindExists or KindForall node.
func (n *Node) Vars() []*model.Variable { return n.vars }

// IsBoolConstant reports whether the node is the boolean constant b.
func (n *Node) IsBoolConstant(b bool) bool {
	return n.kind == KindConstant && n.constant.Type.Kind == model.BoolKind && n.constant.Bool == b
}

// IsConstant reports whether the node is any constant.
func (n *Node) IsConstant() bool { return n.kind == KindConstant }

// payloadKey returns the payload part of the interning key. Symbols are
// identified by name and type, which problem-level validation keeps unique
// within one modeling environment.
func (n *Node) payloadKey() string {
	switch n.kind {
	case KindConstant:
		return n.constant.key()
	case KindObject:
		return "o:" + n.object.Name
	case KindParam:
		return "p:" + n.param.Name + ":" + n.param.Type.String()
	case KindVariable:
		return "v:" + n.variable.Name + ":" + n.variable.Type.String()
	case KindFluent:
		return "f:" + n.fluent.Name
	case KindExists, KindForall:
		parts := make([]string, len(n.vars))
		for i, v := range n.vars {
			parts[i] = v.Name + ":" + v.Type.String()
		}
		return "q:" + strings.Join(parts, ",")
	default:
		return ""
	}
}
