package parser_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/lexer"
	"spring/internal/parser"
)

func TestCompoundWithAssignment(t *testing.T) {
	src := "begin x := 1 + 2; end"
	tree, bag := parseSource(t, src)
	checkShape(t, tree)

	expectSig(t, tree, tree.Root, "CompoundStatement")
	compound := tree.Significant(tree.Root)[0]
	expectSig(t, tree, compound, "begin", "AssignStatement", "end")

	assign := tree.Significant(compound)[1]
	expectSig(t, tree, assign, "Name", ":=", "BinaryExpr", ";")
	payload, ok := tree.Node(assign).Payload.(ast.AssignPayload)
	if !ok {
		t.Fatalf("assignment payload is %T", tree.Node(assign).Payload)
	}
	if tree.Text(payload.Target) != "x" {
		t.Fatalf("target %q, want x", tree.Text(payload.Target))
	}
	if tree.Text(payload.Value) != "1 + 2" || tree.Node(payload.Value).Kind != ast.KindBinaryExpr {
		t.Fatalf("value %s %q, want BinaryExpr \"1 + 2\"", tree.Node(payload.Value).Kind, tree.Text(payload.Value))
	}
	expectSig(t, tree, payload.Value, "Literal", "+", "Literal")

	require.Zero(t, bag.Len(), diagnosticsSummary(bag))
	require.Equal(t, src, tree.Text(compound))
}

func TestCompoundTerminator(t *testing.T) {
	for _, src := range []string{"begin x := 1; end", "begin x := 1; end;", "begin x := 1; end { eof }\n"} {
		_, bag := parseSource(t, src)
		require.Zero(t, bag.Len(), "%q: %s", src, diagnosticsSummary(bag))
	}

	// before another statement the ';' is still required
	src := "begin x := 1; end y := 2;"
	tree, bag := parseSource(t, src)
	checkShape(t, tree)
	require.NotZero(t, bag.Len())
	d := bag.Items()[0]
	require.Equal(t, diag.SynExpectSemicolon, d.Code, diagnosticsSummary(bag))
	require.Equal(t, "Expected ';' but 'y' is given.", d.Message)
	require.Equal(t, uint32(0), d.Primary.Start)
	require.Len(t, d.Fixes, 1)
	require.Equal(t, uint32(len("begin x := 1; end")), d.Fixes[0].Edits[0].Span.Start)
}

func TestLeftFold(t *testing.T) {
	tree, bag := parseSource(t, "x := a - b + c;")
	require.Zero(t, bag.Len(), diagnosticsSummary(bag))
	checkShape(t, tree)

	assign := tree.Find(ast.KindAssignStatement)
	outer := tree.Node(assign).Payload.(ast.AssignPayload).Value
	require.Equal(t, "a - b + c", tree.Text(outer))
	require.Equal(t, "+", tree.File.Slice(tree.Node(outer).Payload.(ast.BinaryPayload).Op.Span))

	expectSig(t, tree, outer, "BinaryExpr", "+", "Name")
	inner := tree.Significant(outer)[0]
	require.Equal(t, "a - b", tree.Text(inner))
	require.Equal(t, "-", tree.File.Slice(tree.Node(inner).Payload.(ast.BinaryPayload).Op.Span))
}

func TestLongChainFoldsEveryOperator(t *testing.T) {
	tree, _ := parseSource(t, "x := a + b - c + d - e;")
	var ops []string
	tree.Walk(func(_ ast.NodeID, n *ast.Node, _ int) bool {
		if p, ok := n.Payload.(ast.BinaryPayload); ok {
			ops = append(ops, tree.File.Slice(p.Op.Span))
		}
		return true
	})
	// outermost first: (((a + b) - c) + d) - e
	require.Equal(t, []string{"-", "+", "-", "+"}, ops)
}

func TestPrecedence(t *testing.T) {
	tree, bag := parseSource(t, "x := a + b * c / d;")
	require.Zero(t, bag.Len(), diagnosticsSummary(bag))
	value := tree.Node(tree.Find(ast.KindAssignStatement)).Payload.(ast.AssignPayload).Value
	expectSig(t, tree, value, "Name", "+", "BinaryExpr")
	mul := tree.Significant(value)[2]
	require.Equal(t, "b * c / d", tree.Text(mul))
	expectSig(t, tree, mul, "BinaryExpr", "/", "Name")
}

func TestUnaryAndParens(t *testing.T) {
	tree, bag := parseSource(t, "y := -(x + 1) * +2;")
	require.Zero(t, bag.Len(), diagnosticsSummary(bag))
	checkShape(t, tree)
	value := tree.Node(tree.Find(ast.KindAssignStatement)).Payload.(ast.AssignPayload).Value
	expectSig(t, tree, value, "UnaryExpr", "*", "UnaryExpr")
	neg := tree.Significant(value)[0]
	expectSig(t, tree, neg, "-", "ParenExpr")
	expectSig(t, tree, tree.Significant(neg)[1], "(", "BinaryExpr", ")")
}

func TestNoWrapperWithoutOperator(t *testing.T) {
	tree, _ := parseSource(t, "x := y;")
	assign := tree.Find(ast.KindAssignStatement)
	expectSig(t, tree, assign, "Name", ":=", "Name", ";")
}

func TestProcedureCall(t *testing.T) {
	tree, bag := parseSource(t, "writeln('hello, world');")
	require.Zero(t, bag.Len(), diagnosticsSummary(bag))
	call := tree.Find(ast.KindProcedureCall)
	require.True(t, call.IsValid())
	expectSig(t, tree, call, "Name", "(", "Literal", ")", ";")
	payload := tree.Node(call).Payload.(ast.CallPayload)
	require.Equal(t, "writeln", tree.Text(payload.Callee))
	require.Equal(t, "'hello, world'", tree.Text(payload.Arg))
}

func TestIdentWithoutParenIsAssignment(t *testing.T) {
	tree, bag := parseSource(t, "writeln;")
	require.True(t, tree.Find(ast.KindAssignStatement).IsValid())
	require.Equal(t, 1, bag.Len(), diagnosticsSummary(bag))
	require.Equal(t, "Expected ':=' but ';' is given.", bag.Items()[0].Message)
}

func TestMissingSemicolonConsumesToken(t *testing.T) {
	tree, bag := parseSource(t, "x := 1 y := 2;")
	checkShape(t, tree)
	require.NotZero(t, bag.Len())
	first := bag.Items()[0]
	require.Equal(t, diag.SynExpectSemicolon, first.Code)
	require.Equal(t, "Expected ';' but 'y' is given.", first.Message)
	require.Equal(t, "x := 1", tree.File.Slice(first.Primary))

	assign := tree.Find(ast.KindAssignStatement)
	expectSig(t, tree, assign, "Name", ":=", "Literal", "Error")
	require.Equal(t, ast.NodeID(assign), tree.Diags[0].Node)
}

func TestMissingSemicolonBeforeEnd(t *testing.T) {
	tree, bag := parseSource(t, "begin x := 1 end;")
	checkShape(t, tree)
	require.Equal(t, 1, bag.Len(), diagnosticsSummary(bag))
	compound := tree.Find(ast.KindCompoundStatement)
	expectSig(t, tree, compound, "begin", "AssignStatement", "end", ";")
}

func TestUnclosedCall(t *testing.T) {
	tree, bag := parseSource(t, "writeln(1 2;")
	checkShape(t, tree)
	require.Equal(t, diag.SynUnclosedParen, bag.Items()[0].Code)
	require.Equal(t, "Expected ')' but '2' is given.", bag.Items()[0].Message)
	call := tree.Find(ast.KindProcedureCall)
	expectSig(t, tree, call, "Name", "(", "Literal", "Error", ";")
}

func TestUnterminatedCompound(t *testing.T) {
	tree, bag := parseSource(t, "begin x := 1;")
	checkShape(t, tree)
	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	require.Contains(t, codes, diag.SynExpectEnd)
}

func TestEmptyCompound(t *testing.T) {
	_, bag := parseSource(t, "begin end;")
	require.Equal(t, 1, bag.Len())
	require.Equal(t, "Expected statement but 'end' is given.", bag.Items()[0].Message)
}

func TestBadStringReported(t *testing.T) {
	tree, bag := parseSource(t, "x := 'abc\ny := 1;")
	checkShape(t, tree)
	require.Equal(t, diag.LexUnterminatedString, bag.Items()[0].Code)
	lit := tree.Find(ast.KindLiteral)
	require.Equal(t, lit, tree.Diags[0].Node)
}

func TestStrayTokens(t *testing.T) {
	tree, bag := parseSource(t, "; ~ end")
	checkShape(t, tree)
	require.Equal(t, 3, bag.Len(), diagnosticsSummary(bag))
	require.Equal(t, diag.SynExpectStatement, bag.Items()[0].Code)
	require.Equal(t, diag.LexUnknownChar, bag.Items()[1].Code)
	expectSig(t, tree, tree.Root, "Error", "Error", "Error")
}

func TestTotality(t *testing.T) {
	inputs := []string{
		"",
		"   \n\t ",
		"begin",
		"end",
		"end.",
		")))",
		"((((",
		"x :=",
		"x := (",
		"x := 'unterminated",
		"{ never closed",
		"(* never closed\n\n",
		"begin begin begin",
		"x x x x",
		":= := :=",
		"writeln(",
		"writeln(;",
		"~!#%&|?",
		"begin x := 1; y := (2 + ; end.",
		"\x00\xff\xfe",
	}
	for _, src := range inputs {
		tree, _ := parseSource(t, src)
		if tree == nil || !tree.Root.IsValid() {
			t.Fatalf("%q: no root", src)
		}
		checkShape(t, tree)
	}
}

var pieces = []string{
	"begin", "end", "x", "writeln", " ", "\n", ":=", ";", "(", ")", "+", "-", "*", "/",
	"1", "2.5", "'s'", "'", "{c}", "(*", "*)", "~", ".",
}

func TestTotalityRandom(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(pieces), 0, 60).Draw(rt, "parts")
		tree, _ := parseSource(rt, strings.Join(parts, ""))
		checkShape(rt, tree)
	})
}

func TestMaxErrors(t *testing.T) {
	bag := diag.NewBag(100)
	p := parser.New(lexer.New(makeFile(strings.Repeat("; ", 20))), parser.Options{
		MaxErrors: 3,
		Reporter:  diag.BagReporter{Bag: bag},
	})
	tree, err := p.ParseFile(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, bag.Len())
	require.Equal(t, diag.SynTooManyErrors, bag.Items()[3].Code)
	require.Len(t, tree.Diags, 4)
	require.Equal(t, tree.Root, tree.Diags[3].Node)
}

func TestParseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := parser.New(lexer.New(makeFile("x := 1;")), parser.Options{})
	tree, err := p.ParseFile(ctx)
	require.Nil(t, tree)
	require.True(t, errors.Is(err, context.Canceled))
	require.Nil(t, p.TokenBuffer())
	require.Nil(t, p.Tree())
}

func TestDumpIsDeterministic(t *testing.T) {
	src := "begin\n  x := (1 + y) * 3;\n  writeln('a');\nend;\n"
	a, _ := parseSource(t, src)
	b, _ := parseSource(t, src)
	require.Equal(t, a.Dump(), b.Dump())
	require.Contains(t, a.Dump(), "AssignStatement@")
	require.Contains(t, a.Dump(), `target="x"`)
}
