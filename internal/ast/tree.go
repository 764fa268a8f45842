package ast

import (
	"fmt"
	"strings"

	"spring/internal/diag"
	"spring/internal/source"
	"spring/internal/token"
)

// Attached is a diagnostic bound to the node it was reported on.
type Attached struct {
	Node NodeID
	Diag diag.Diagnostic
}

// Tree is the result of one parse. It is immutable once returned by
// the parser.
type Tree struct {
	File  *source.File
	Nodes *Arena[Node]
	Root  NodeID
	Diags []Attached
}

func NewTree(file *source.File, capHint uint) *Tree {
	return &Tree{
		File:  file,
		Nodes: NewArena[Node](capHint),
	}
}

// NewLeaf allocates a token leaf.
func (t *Tree) NewLeaf(tok token.Token) NodeID {
	return NodeID(t.Nodes.Allocate(Node{Kind: KindToken, Span: tok.Span, Token: tok}))
}

// NewNode allocates a composite node over children and re-parents
// them. An empty node gets an empty span at at.
func (t *Tree) NewNode(kind Kind, children []NodeID, payload Payload, at uint32) NodeID {
	span := source.Span{Start: at, End: at}
	if len(children) > 0 {
		span = source.Span{
			Start: t.Node(children[0]).Span.Start,
			End:   t.Node(children[len(children)-1]).Span.End,
		}
	}
	id := NodeID(t.Nodes.Allocate(Node{Kind: kind, Span: span, Children: children, Payload: payload}))
	for _, c := range children {
		t.Node(c).Parent = id
	}
	return id
}

// Node returns the node or nil for NoNodeID.
func (t *Tree) Node(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Len() int { return len(t.Nodes.Slice()) }

func (t *Tree) kindName(id NodeID) string {
	if n := t.Node(id); n != nil {
		return n.Kind.String()
	}
	return "none"
}

// Text returns the source text covered by the node.
func (t *Tree) Text(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	return t.File.Slice(n.Span)
}

// Significant returns the non-trivia children of id.
func (t *Tree) Significant(id NodeID) []NodeID {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	out := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if cn := t.Node(c); !cn.IsLeaf() || !cn.Token.IsTrivia() {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits nodes depth-first in document order. Returning false
// from fn skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, n *Node, depth int) bool) {
	if t.Root.IsValid() {
		t.walk(t.Root, 0, fn)
	}
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, *Node, int) bool) {
	n := t.Node(id)
	if !fn(id, n, depth) {
		return
	}
	for _, c := range n.Children {
		t.walk(c, depth+1, fn)
	}
}

// Leaves returns the tokens of all leaves in document order.
func (t *Tree) Leaves() []token.Token {
	var out []token.Token
	t.Walk(func(_ NodeID, n *Node, _ int) bool {
		if n.IsLeaf() {
			out = append(out, n.Token)
		}
		return true
	})
	return out
}

// Find returns the first node of the given kind in document order.
func (t *Tree) Find(kind Kind) NodeID {
	found := NoNodeID
	t.Walk(func(id NodeID, n *Node, _ int) bool {
		if found.IsValid() {
			return false
		}
		if n.Kind == kind {
			found = id
			return false
		}
		return true
	})
	return found
}

// NodeAt returns the innermost composite node whose span contains
// off, or Root when none does.
func (t *Tree) NodeAt(off uint32) NodeID {
	found := t.Root
	t.Walk(func(id NodeID, n *Node, _ int) bool {
		if off < n.Span.Start || off >= n.Span.End {
			return false
		}
		if !n.IsLeaf() {
			found = id
		}
		return true
	})
	return found
}

// Describe renders the node kind followed by its payload, if any.
func (t *Tree) Describe(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return "none"
	}
	if n.Payload == nil {
		return n.Kind.String()
	}
	return n.Kind.String() + " " + n.Payload.describe(t)
}

// Diagnostics returns the diagnostics in report order.
func (t *Tree) Diagnostics() []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(t.Diags))
	for i, a := range t.Diags {
		out[i] = a.Diag
	}
	return out
}

// Dump renders the tree one node per line. Two parses of the same
// text dump identically.
func (t *Tree) Dump() string {
	var b strings.Builder
	t.Walk(func(id NodeID, n *Node, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		if n.IsLeaf() {
			fmt.Fprintf(&b, "%s@%s %q\n", n.Token.Kind, n.Span, t.File.Slice(n.Span))
			return true
		}
		fmt.Fprintf(&b, "%s@%s", n.Kind, n.Span)
		if n.Payload != nil {
			b.WriteByte(' ')
			b.WriteString(n.Payload.describe(t))
		}
		b.WriteByte('\n')
		return true
	})
	if g := diag.FormatGoldenDiagnostics(t.Diagnostics(), t.File, false); g != "" {
		b.WriteString(g)
		b.WriteByte('\n')
	}
	return b.String()
}
