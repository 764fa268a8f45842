package driver

import (
	"context"
	"fmt"

	"spring/internal/diag"
	"spring/internal/observ"
	"spring/internal/source"
	"spring/internal/tokenbuf"
)

// RescanRequest describes one edit applied to a file on disk. The file
// itself is not written.
type RescanRequest struct {
	Path  string
	Range source.Span
	Text  []byte
	// Verify lexes the edited text from scratch and compares.
	Verify bool
}

type RescanResult struct {
	Edit     source.Edit
	Old      *tokenbuf.Buffer
	New      *tokenbuf.Buffer
	Affected source.Span
	// Relexed is the number of tokens of New inside Affected.
	Relexed int
	// Mismatch is the first token where the rescan and a full lex
	// disagree, -1 when they agree or Verify is off.
	Mismatch int
	Bag      *diag.Bag
	Timer    *observ.Timer
}

// Rescan lexes path, applies the edit and rescans incrementally.
func Rescan(ctx context.Context, req RescanRequest, opts Options) (*RescanResult, error) {
	opts = opts.normalized()
	l, err := opts.Languages.ForPath(req.Path)
	if err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(req.Path)
	if err != nil {
		return nil, err
	}
	res := &RescanResult{Mismatch: -1, Bag: opts.newBag(), Timer: observ.NewTimer()}

	err = res.Timer.Measure("lex", func() error {
		var err error
		res.Old, _, err = opts.Cache.Lex(ctx, fs.Get(id), l.Lexers)
		return err
	})
	if err != nil {
		return nil, err
	}
	next, edit, err := fs.Edit(id, req.Range, req.Text)
	if err != nil {
		return nil, err
	}
	res.Edit = edit

	err = res.Timer.Measure("rescan", func() error {
		var err error
		res.New, err = res.Old.Apply(ctx, edit, l.Lexers, opts.Parser.Resync)
		return err
	})
	if err != nil {
		return nil, err
	}
	res.Affected = res.New.Affected()
	res.Relexed = len(res.New.TokensIn(res.Affected))
	res.Bag.Add(diag.New(diag.SevInfo, diag.ObsResync, res.Affected,
		fmt.Sprintf("relexed %d of %d tokens", res.Relexed, res.New.Len())))

	if req.Verify {
		var full *tokenbuf.Buffer
		err = res.Timer.Measure("verify", func() error {
			var err error
			full, err = tokenbuf.Lex(ctx, l.Lexers.New(next))
			return err
		})
		if err != nil {
			return nil, err
		}
		res.Mismatch = tokenbuf.FirstDifference(res.New, full)
		if res.Mismatch >= 0 {
			span := source.Span{Start: next.Len(), End: next.Len()}
			if res.Mismatch < full.Len() {
				span = full.At(res.Mismatch).Span
			}
			res.Bag.Add(diag.NewError(diag.ObsResync, span,
				fmt.Sprintf("rescan diverges from a full lex at token %d", res.Mismatch)))
		}
	}
	lexicalDiagnostics(res.New, res.Bag)
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, "rescan", next.Path, res.Timer, "affected="+res.Affected.String())
	}
	return res, nil
}
