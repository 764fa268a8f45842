// Package testkit holds invariant checkers shared by unit tests, fuzz
// harnesses and `spring rescan --verify`.
package testkit

import (
	"context"
	"fmt"
	"unicode/utf8"

	"spring/internal/ast"
	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/tokenbuf"
)

// CheckTokens verifies that buf tiles its text and that every token
// starts on a rune boundary. Invalid bytes count as one-byte runes, the
// way utf8.DecodeRune reports them.
func CheckTokens(buf *tokenbuf.Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	content := buf.File().Content
	boundary := make([]bool, len(content)+1)
	for off := 0; off < len(content); {
		boundary[off] = true
		_, w := utf8.DecodeRune(content[off:])
		off += w
	}
	boundary[len(content)] = true
	for i := range buf.Len() {
		tok := buf.At(i)
		if !boundary[tok.Span.Start] {
			return fmt.Errorf("token %d %s starts inside a UTF-8 sequence", i, tok)
		}
	}
	return nil
}

// CheckTree verifies the shape of a parse tree:
//  1. leaves are exactly the tokens of a fresh lex, trivia included
//  2. the root is a File node spanning the whole text
//  3. every child points back to its parent and lies inside it
//  4. siblings follow each other without overlap
func CheckTree(tree *ast.Tree) error {
	if tree == nil || tree.File == nil {
		return fmt.Errorf("nil tree or file")
	}
	want, err := tokenbuf.Lex(context.Background(), lexer.New(tree.File))
	if err != nil {
		return err
	}
	leaves := tree.Leaves()
	if len(leaves) != want.Len() {
		return fmt.Errorf("%d leaves, %d tokens", len(leaves), want.Len())
	}
	for i, tok := range leaves {
		w := want.At(i)
		if tok.Kind != w.Kind || tok.Span != w.Span {
			return fmt.Errorf("leaf %d = %v, token %v", i, tok, w)
		}
	}

	root := tree.Node(tree.Root)
	if root == nil {
		return fmt.Errorf("no root")
	}
	if root.Kind != ast.KindFile || root.Span != (source.Span{Start: 0, End: tree.File.Len()}) {
		return fmt.Errorf("root %s@%s does not cover the text", root.Kind, root.Span)
	}

	var walkErr error
	tree.Walk(func(id ast.NodeID, n *ast.Node, _ int) bool {
		if walkErr != nil {
			return false
		}
		prevEnd := n.Span.Start
		for _, c := range n.Children {
			cn := tree.Node(c)
			switch {
			case cn.Parent != id:
				walkErr = fmt.Errorf("node %d: child %d has parent %d", id, c, cn.Parent)
			case !n.Span.Covers(cn.Span):
				walkErr = fmt.Errorf("%s@%s does not cover child %s@%s", n.Kind, n.Span, cn.Kind, cn.Span)
			case cn.Span.Start < prevEnd:
				walkErr = fmt.Errorf("%s@%s overlaps its previous sibling in %s@%s", cn.Kind, cn.Span, n.Kind, n.Span)
			}
			if walkErr != nil {
				return false
			}
			prevEnd = cn.Span.End
		}
		return true
	})
	return walkErr
}

// CheckRescan applies edit to old and compares the result with a full
// lex of the edited text. The affected range must lie inside the new
// text.
func CheckRescan(ctx context.Context, old *tokenbuf.Buffer, edit source.Edit, f lexer.Factory, opts tokenbuf.Options) (*tokenbuf.Buffer, error) {
	got, err := old.Apply(ctx, edit, f, opts)
	if err != nil {
		return nil, err
	}
	if err := CheckTokens(got); err != nil {
		return got, fmt.Errorf("rescan: %w", err)
	}
	full, err := tokenbuf.Lex(ctx, f.New(edit.New))
	if err != nil {
		return got, err
	}
	if i := tokenbuf.FirstDifference(got, full); i >= 0 {
		return got, fmt.Errorf("rescan diverges at token %d: %s", i, describeAt(got, full, i))
	}
	if a := got.Affected(); a.IsValid() && a.End > edit.New.Len() {
		return got, fmt.Errorf("affected %s beyond %d bytes", a, edit.New.Len())
	}
	return got, nil
}

func describeAt(got, want *tokenbuf.Buffer, i int) string {
	g, w := "<none>", "<none>"
	if i < got.Len() {
		g = got.At(i).String()
	}
	if i < want.Len() {
		w = want.At(i).String()
	}
	return fmt.Sprintf("got %s, want %s", g, w)
}
