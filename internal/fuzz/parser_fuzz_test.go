package fuzztests

import (
	"context"
	"testing"
	"time"

	"spring/internal/diag"
	"spring/internal/lexer"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParserBuildsTree(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		file := source.NewFile("fuzz.pas", clampInput(input))
		bag := diag.NewBag(128)
		p := parser.New(lexer.New(file), parser.Options{
			Reporter:  diag.BagReporter{Bag: bag},
			MaxErrors: 128,
		})
		tree, err := p.ParseFile(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if err := testkit.CheckTree(tree); err != nil {
			t.Fatalf("%v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzParserNoHang checks that error recovery always makes progress.
func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)

	f.Add([]byte("begin x := 1 y := 2 end"))        // missing semicolon
	f.Add([]byte("begin ) ) ) end"))                // stray closers
	f.Add([]byte("begin begin begin begin"))        // unclosed blocks
	f.Add([]byte("x := ;;;; := := 1"))              // empty statements and stray assigns
	f.Add([]byte("p(1, 2,, 3"))                     // broken argument list
	f.Add([]byte("x := ((((((((((1"))               // unclosed parens
	f.Add([]byte("end end end; begin end. x := 1")) // stray ends

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			file := source.NewFile("fuzz.pas", input)
			p := parser.New(lexer.New(file), parser.Options{MaxErrors: 128})
			_, _ = p.ParseFile(ctx)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
