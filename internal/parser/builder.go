package parser

import (
	"context"
	"fmt"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/lexer"
	"spring/internal/source"
	"spring/internal/token"
	"spring/internal/tokenbuf"
)

// Marker is an open position in the token stream. It must be closed by
// Done or Drop, innermost first.
type Marker struct {
	depth  int
	serial uint32
}

// Completed refers to a node closed by Done. The zero value means
// "nothing was built".
type Completed struct {
	id ast.NodeID
}

func (c Completed) ID() ast.NodeID { return c.id }

func (c Completed) IsValid() bool { return c.id.IsValid() }

type openNode struct {
	serial   uint32
	start    uint32
	children []ast.NodeID
	diags    []int // indexes into tree.Diags
}

// Builder turns the lexer's token stream into a tree. Trivia is
// attached to whichever node is open when the parser looks past it,
// except that a node never ends with trivia: Done hands it up to the
// parent. Every token ends up in exactly one leaf.
type Builder struct {
	tree  *ast.Tree
	lx    lexer.Lexer
	check tokenbuf.InterruptChecker
	opts  *Options

	cur   token.Token
	ahead []token.Token

	recording bool
	recorded  []token.Token

	open     []openNode
	serial   uint32
	consumed int
	lastEnd  uint32

	errors  uint
	tooMany bool
	err     error
}

func newBuilder(ctx context.Context, lx lexer.Lexer, opts *Options, record bool) *Builder {
	f := lx.File()
	b := &Builder{
		tree:      ast.NewTree(f, uint(len(f.Content)/2+1)),
		lx:        lx,
		check:     tokenbuf.NewInterruptChecker(ctx),
		opts:      opts,
		recording: record,
	}
	if record {
		b.recorded = make([]token.Token, 0, len(f.Content)/4+1)
	}
	lx.Reset()
	b.open = append(b.open, openNode{})
	b.cur = b.pull()
	return b
}

// pullRaw reads one token from the lexer. After cancellation it keeps
// returning EOF so that every loop of the grammar unwinds.
func (b *Builder) pullRaw() token.Token {
	if b.err == nil {
		if err := b.check.Check(); err != nil {
			b.err = err
		}
	}
	if b.err != nil {
		off := b.cur.Span.End
		return token.Token{Kind: token.EOF, Span: source.Span{Start: off, End: off}}
	}
	tok := b.lx.Next()
	if b.recording && tok.Kind != token.EOF {
		b.recorded = append(b.recorded, tok)
	}
	return tok
}

func (b *Builder) pull() token.Token {
	if len(b.ahead) > 0 {
		tok := b.ahead[0]
		b.ahead = b.ahead[1:]
		return tok
	}
	return b.pullRaw()
}

func (b *Builder) attach(id ast.NodeID) {
	top := &b.open[len(b.open)-1]
	top.children = append(top.children, id)
}

func (b *Builder) skipTrivia() {
	for b.cur.IsTrivia() {
		b.attach(b.tree.NewLeaf(b.cur))
		b.cur = b.pull()
	}
}

// Kind returns the kind of the next significant token.
func (b *Builder) Kind() token.Kind {
	b.skipTrivia()
	return b.cur.Kind
}

// Token returns the next significant token.
func (b *Builder) Token() token.Token {
	b.skipTrivia()
	return b.cur
}

// EOF reports whether only trivia is left.
func (b *Builder) EOF() bool {
	return b.Kind() == token.EOF
}

// LookAhead returns the kind of the n-th significant token after the
// current one; LookAhead(0) equals Kind().
func (b *Builder) LookAhead(n int) token.Kind {
	b.skipTrivia()
	if n <= 0 || b.cur.Kind == token.EOF {
		return b.cur.Kind
	}
	seen := 0
	for i := 0; ; i++ {
		if i == len(b.ahead) {
			b.ahead = append(b.ahead, b.pullRaw())
		}
		tok := b.ahead[i]
		if tok.Kind == token.EOF {
			return token.EOF
		}
		if tok.IsTrivia() {
			continue
		}
		seen++
		if seen == n {
			return tok.Kind
		}
	}
}

// Advance consumes the current significant token into the open node.
func (b *Builder) Advance() {
	b.skipTrivia()
	if b.cur.Kind == token.EOF {
		return
	}
	b.attach(b.tree.NewLeaf(b.cur))
	b.lastEnd = b.cur.Span.End
	b.consumed++
	b.cur = b.pull()
}

// Consumed is the number of significant tokens consumed so far.
func (b *Builder) Consumed() int { return b.consumed }

// Mark opens a node at the next significant token.
func (b *Builder) Mark() Marker {
	b.skipTrivia()
	b.serial++
	b.open = append(b.open, openNode{serial: b.serial, start: b.cur.Span.Start})
	return Marker{depth: len(b.open) - 1, serial: b.serial}
}

func (b *Builder) mustBeInnermost(m Marker, op string) {
	if m.depth == 0 || m.depth != len(b.open)-1 || b.open[m.depth].serial != m.serial {
		panic(fmt.Sprintf("parser: %s of marker %d at depth %d, innermost open depth is %d", op, m.serial, m.depth, len(b.open)-1))
	}
}

func (b *Builder) mustBeOpen(m Marker, op string) {
	if m.depth == 0 || m.depth >= len(b.open) || b.open[m.depth].serial != m.serial {
		panic(fmt.Sprintf("parser: %s of marker %d which is not open", op, m.serial))
	}
}

func (b *Builder) pop() openNode {
	n := b.open[len(b.open)-1]
	b.open = b.open[:len(b.open)-1]
	return n
}

// Done closes the innermost marker into a node of kind.
func (b *Builder) Done(m Marker, kind ast.Kind, payload ast.Payload) Completed {
	b.mustBeInnermost(m, "done")
	n := b.pop()
	cut := len(n.children)
	for cut > 0 && b.isTriviaLeaf(n.children[cut-1]) {
		cut--
	}
	id := b.tree.NewNode(kind, n.children[:cut:cut], payload, n.start)
	for _, i := range n.diags {
		b.tree.Diags[i].Node = id
	}
	b.attach(id)
	// trivia seen while looking past the node belongs to the parent
	for _, c := range n.children[cut:] {
		b.attach(c)
	}
	return Completed{id: id}
}

func (b *Builder) isTriviaLeaf(id ast.NodeID) bool {
	n := b.tree.Node(id)
	return n.IsLeaf() && n.Token.IsTrivia()
}

// Drop discards the innermost marker; its children move to the parent.
func (b *Builder) Drop(m Marker) {
	b.mustBeInnermost(m, "drop")
	n := b.pop()
	top := &b.open[len(b.open)-1]
	top.children = append(top.children, n.children...)
	top.diags = append(top.diags, n.diags...)
}

// Precede opens a marker that starts at c and takes c (and anything
// attached after it) as its first children.
func (b *Builder) Precede(c Completed) Marker {
	top := &b.open[len(b.open)-1]
	idx := -1
	for i := len(top.children) - 1; i >= 0; i-- {
		if top.children[i] == c.id {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("parser: precede of node %d outside of the innermost marker", c.id))
	}
	moved := make([]ast.NodeID, len(top.children)-idx)
	copy(moved, top.children[idx:])
	top.children = top.children[:idx]
	b.serial++
	b.open = append(b.open, openNode{
		serial:   b.serial,
		start:    b.tree.Node(c.id).Span.Start,
		children: moved,
	})
	return Marker{depth: len(b.open) - 1, serial: b.serial}
}

// Error reports at the next significant token and attaches the
// diagnostic to the innermost open node.
func (b *Builder) Error(code diag.Code, msg string) {
	b.report(len(b.open)-1, code, b.Token().Span, msg, nil)
}

// ErrorAt reports against the text covered by m so far and attaches
// the diagnostic to m's node.
func (b *Builder) ErrorAt(m Marker, code diag.Code, msg string, fixes ...diag.Fix) {
	b.mustBeOpen(m, "error")
	start := b.open[m.depth].start
	end := max(b.lastEnd, start)
	b.report(m.depth, code, source.Span{Start: start, End: end}, msg, fixes)
}

// ErrorSpan reports at an explicit span, attached to the innermost node.
func (b *Builder) ErrorSpan(code diag.Code, span source.Span, msg string) {
	b.report(len(b.open)-1, code, span, msg, nil)
}

func (b *Builder) report(depth int, code diag.Code, span source.Span, msg string, fixes []diag.Fix) {
	if b.opts.MaxErrors > 0 && b.errors >= b.opts.MaxErrors {
		if !b.tooMany {
			b.tooMany = true
			b.emit(0, diag.NewError(diag.SynTooManyErrors, span, "Too many errors, further diagnostics are suppressed."))
		}
		return
	}
	b.errors++
	d := diag.NewError(code, span, msg)
	d.Fixes = fixes
	b.emit(depth, d)
}

func (b *Builder) emit(depth int, d diag.Diagnostic) {
	b.tree.Diags = append(b.tree.Diags, ast.Attached{Diag: d})
	b.open[depth].diags = append(b.open[depth].diags, len(b.tree.Diags)-1)
	if b.opts.Reporter != nil {
		b.opts.Reporter.Report(d)
	}
}

// finish consumes trailing trivia and closes the root. It returns the
// tree, the recorded tokens (when recording) and the cancellation
// error, if any.
func (b *Builder) finish() (*ast.Tree, []token.Token, error) {
	if len(b.open) != 1 {
		panic(fmt.Sprintf("parser: %d markers left open", len(b.open)-1))
	}
	for b.Kind() != token.EOF {
		b.Advance()
	}
	if b.err != nil {
		return nil, nil, b.err
	}
	root := b.pop()
	b.tree.Root = b.tree.NewNode(ast.KindFile, root.children, nil, 0)
	for _, i := range root.diags {
		b.tree.Diags[i].Node = b.tree.Root
	}
	return b.tree, b.recorded, nil
}
