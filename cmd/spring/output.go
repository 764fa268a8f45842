package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"spring/internal/ast"
	"spring/internal/diag"
	"spring/internal/diagfmt"
	"spring/internal/source"
)

// printDiagnostics writes bag to w in the chosen format. JSON always
// goes out, even empty, so that scripts get one document per file.
func printDiagnostics(w io.Writer, format string, bag *diag.Bag, f *source.File, maxDiags int) error {
	if bag == nil || f == nil {
		return nil
	}
	bag.Sort()
	if format == "json" {
		return diagfmt.JSON(w, bag.Items(), f, diagfmt.JSONOpts{
			IncludePositions: true,
			Max:              maxDiags,
			IncludeNotes:     true,
			IncludeFixes:     true,
			IncludePreviews:  true,
		})
	}
	if bag.Len() == 0 {
		return nil
	}
	return diagfmt.Pretty(w, bag.Items(), f, diagfmt.PrettyOpts{
		Color:       !color.NoColor && stderrIsTerminal(),
		Context:     2,
		ShowNotes:   true,
		ShowFixes:   true,
		ShowPreview: true,
	})
}

// summary prints "N files, E errors, W warnings" to w.
func summary(w io.Writer, files, errs, warns int) {
	label := color.GreenString("ok")
	if errs > 0 {
		label = color.RedString("failed")
	}
	fmt.Fprintf(w, "%s: %d files, %d errors, %d warnings\n", label, files, errs, warns)
}

func countSeverities(bag *diag.Bag) (errs, warns int) {
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	return errs, warns
}

func newTreeBag(tree *ast.Tree) *diag.Bag {
	diags := tree.Diagnostics()
	bag := diag.NewBag(max(len(diags), 1))
	for _, d := range diags {
		bag.Add(d)
	}
	return bag
}
