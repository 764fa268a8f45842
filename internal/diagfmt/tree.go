package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"spring/internal/ast"
	"spring/internal/source"
)

// NodeJSON is one tree node in JSON output.
type NodeJSON struct {
	Kind     string            `json:"kind"`
	Span     source.Span       `json:"span"`
	Token    string            `json:"token,omitempty"`
	Text     string            `json:"text,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Children []NodeJSON        `json:"children,omitempty"`
}

// TreeOutput is the root of `spring parse --format json`.
type TreeOutput struct {
	File        string            `json:"file"`
	Root        NodeJSON          `json:"root"`
	Diagnostics DiagnosticsOutput `json:"diagnostics"`
}

// TreeOpts configures tree output.
type TreeOpts struct {
	Color bool
	// Trivia keeps whitespace and comment leaves.
	Trivia bool
}

// BuildTreeOutput converts t into its JSON shape.
func BuildTreeOutput(t *ast.Tree, opts TreeOpts) TreeOutput {
	return TreeOutput{
		File:        t.File.Path,
		Root:        buildNode(t, t.Root, opts),
		Diagnostics: BuildDiagnosticsOutput(t.Diagnostics(), t.File, JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}),
	}
}

func buildNode(t *ast.Tree, id ast.NodeID, opts TreeOpts) NodeJSON {
	n := t.Node(id)
	if n.IsLeaf() {
		return NodeJSON{
			Kind:  n.Kind.String(),
			Span:  n.Span,
			Token: n.Token.Kind.String(),
			Text:  t.File.Slice(n.Span),
		}
	}
	out := NodeJSON{Kind: n.Kind.String(), Span: n.Span, Fields: payloadFields(t, n.Payload)}
	for _, c := range n.Children {
		if !opts.Trivia && t.Node(c).IsLeaf() && t.Node(c).Token.IsTrivia() {
			continue
		}
		out.Children = append(out.Children, buildNode(t, c, opts))
	}
	return out
}

func payloadFields(t *ast.Tree, p ast.Payload) map[string]string {
	switch p := p.(type) {
	case ast.AssignPayload:
		fields := map[string]string{"target": t.Text(p.Target), "op": t.File.Slice(p.Op.Span)}
		if p.Value != ast.NoNodeID {
			fields["value"] = t.Node(p.Value).Kind.String()
		}
		return fields
	case ast.BinaryPayload:
		return map[string]string{"op": t.File.Slice(p.Op.Span)}
	case ast.UnaryPayload:
		return map[string]string{"op": t.File.Slice(p.Op.Span)}
	case ast.CallPayload:
		fields := map[string]string{"callee": t.Text(p.Callee)}
		if p.Arg != ast.NoNodeID {
			fields["arg"] = t.Node(p.Arg).Kind.String()
		}
		return fields
	}
	return nil
}

// FormatTreeJSON writes the tree and its diagnostics as JSON.
func FormatTreeJSON(w io.Writer, t *ast.Tree, opts TreeOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildTreeOutput(t, opts))
}

// FormatTreePretty prints an indented outline of the tree, composite
// nodes highlighted, error nodes in red.
func FormatTreePretty(w io.Writer, t *ast.Tree, opts TreeOpts) error {
	kindColor := color.New(color.FgBlue, color.Bold)
	errColor := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)
	for _, c := range []*color.Color{kindColor, errColor, dim} {
		if opts.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	t.Walk(func(id ast.NodeID, n *ast.Node, depth int) bool {
		if n.IsLeaf() && !opts.Trivia && n.Token.IsTrivia() {
			return true
		}
		b.WriteString(strings.Repeat("  ", depth))
		if n.IsLeaf() {
			fmt.Fprintf(&b, "%s %q %s\n", n.Token.Kind, t.File.Slice(n.Span), dim.Sprint(n.Span))
			return true
		}
		name := kindColor.Sprint(n.Kind)
		if n.Kind == ast.KindError {
			name = errColor.Sprint(n.Kind)
		}
		fmt.Fprintf(&b, "%s %s", name, dim.Sprint(n.Span))
		for _, kv := range sortedFields(payloadFields(t, n.Payload)) {
			fmt.Fprintf(&b, " %s", kv)
		}
		b.WriteByte('\n')
		return true
	})
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedFields(m map[string]string) []string {
	order := []string{"target", "op", "value", "callee", "arg"}
	out := make([]string, 0, len(m))
	for _, k := range order {
		if v, ok := m[k]; ok {
			out = append(out, fmt.Sprintf("%s=%q", k, v))
		}
	}
	return out
}
