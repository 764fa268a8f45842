package parser_test

import (
	"context"
	"fmt"
	"strings"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/lexer"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/testkit"
)

type tb interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
}

func makeFile(src string) *source.File {
	return source.NewFile("test.pas", []byte(src))
}

func parseSource(t tb, src string) (*ast.Tree, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(100)
	p := parser.New(lexer.New(makeFile(src)), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	tree, err := p.ParseFile(context.Background())
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return tree, bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

// checkShape verifies the structural guarantees every tree must hold.
func checkShape(t tb, tree *ast.Tree) {
	t.Helper()
	if err := testkit.CheckTree(tree); err != nil {
		t.Fatal(err)
	}
}

// sig returns the significant children of id with their kinds, for
// compact structural assertions.
func sig(tree *ast.Tree, id ast.NodeID) []string {
	var out []string
	for _, c := range tree.Significant(id) {
		n := tree.Node(c)
		if n.IsLeaf() {
			out = append(out, n.Token.Kind.String())
			continue
		}
		out = append(out, n.Kind.String())
	}
	return out
}

func expectSig(t tb, tree *ast.Tree, id ast.NodeID, want ...string) {
	t.Helper()
	got := sig(tree, id)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("%s children: got %v, want %v", tree.Node(id).Kind, got, want)
	}
}
