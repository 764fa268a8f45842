package ast

import (
	"fmt"

	"spring/internal/source"
	"spring/internal/token"
)

type Kind uint8

const (
	// KindToken is a leaf holding exactly one token, trivia included.
	KindToken Kind = iota
	KindFile
	KindCompoundStatement
	KindProcedureCall
	KindAssignStatement
	KindBinaryExpr
	KindUnaryExpr
	KindParenExpr
	KindLiteral
	KindName
	// KindError wraps tokens the grammar could not place.
	KindError
)

var kindNames = [...]string{
	KindToken:             "Token",
	KindFile:              "File",
	KindCompoundStatement: "CompoundStatement",
	KindProcedureCall:     "ProcedureCall",
	KindAssignStatement:   "AssignStatement",
	KindBinaryExpr:        "BinaryExpr",
	KindUnaryExpr:         "UnaryExpr",
	KindParenExpr:         "ParenExpr",
	KindLiteral:           "Literal",
	KindName:              "Name",
	KindError:             "Error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsStatement reports whether nodes of this kind are statements.
func (k Kind) IsStatement() bool {
	switch k {
	case KindCompoundStatement, KindProcedureCall, KindAssignStatement:
		return true
	}
	return false
}

// IsExpr reports whether nodes of this kind are expressions.
func (k Kind) IsExpr() bool {
	switch k {
	case KindBinaryExpr, KindUnaryExpr, KindParenExpr, KindLiteral, KindName:
		return true
	}
	return false
}

// Node is one tree node. Leaves carry Token; composites carry Children
// and, for some kinds, a Payload.
type Node struct {
	Kind     Kind
	Span     source.Span
	Parent   NodeID
	Children []NodeID
	Token    token.Token
	Payload  Payload
}

// IsLeaf reports whether the node wraps a single token.
func (n *Node) IsLeaf() bool { return n.Kind == KindToken }

// Payload is the semantic annotation of a composite node.
type Payload interface {
	payload()
	describe(t *Tree) string
}

// AssignPayload annotates an AssignStatement. Value is NoNodeID when
// the right-hand side is missing.
type AssignPayload struct {
	Target NodeID
	Op     token.Token
	Value  NodeID
}

// BinaryPayload carries the operator joining the two operands.
type BinaryPayload struct {
	Op token.Token
}

type UnaryPayload struct {
	Op token.Token
}

// CallPayload annotates a ProcedureCall.
type CallPayload struct {
	Callee NodeID
	Arg    NodeID
}

func (AssignPayload) payload() {}
func (BinaryPayload) payload() {}
func (UnaryPayload) payload()  {}
func (CallPayload) payload()   {}

func (p AssignPayload) describe(t *Tree) string {
	return fmt.Sprintf("target=%q value=%s", t.Text(p.Target), t.kindName(p.Value))
}

func (p BinaryPayload) describe(t *Tree) string {
	return fmt.Sprintf("op=%q", t.File.Slice(p.Op.Span))
}

func (p UnaryPayload) describe(t *Tree) string {
	return fmt.Sprintf("op=%q", t.File.Slice(p.Op.Span))
}

func (p CallPayload) describe(t *Tree) string {
	return fmt.Sprintf("callee=%q arg=%s", t.Text(p.Callee), t.kindName(p.Arg))
}
