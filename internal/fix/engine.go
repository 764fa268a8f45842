// Package fix applies the quick fixes attached to diagnostics.
package fix

import (
	"errors"
	"fmt"
	"sort"

	"spring/internal/diag"
	"spring/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in document order.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every fix that does not overlap an earlier one.
	ApplyModeAll
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode ApplyMode
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Title     string
	Code      diag.Code
	Message   string
	Primary   source.Span
	EditCount int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	Title  string
	Code   diag.Code
	Reason string
}

// ApplyResult holds the edited snapshot and the single edit turning the
// original into it, ready for an incremental rescan.
type ApplyResult struct {
	Applied []AppliedFix
	Skipped []SkippedFix
	File    *source.File
	Edit    source.Edit
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics of f, selects a subset according
// to opts and applies them. f itself is not modified.
func Apply(f *source.File, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if f == nil {
		return result, fmt.Errorf("fix: file is nil")
	}

	candidates, skipped := gatherCandidates(f, diagnostics)
	result.Skipped = append(result.Skipped, skipped...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	var taken []diag.FixEdit
	for _, cand := range candidates {
		if opts.Mode == ApplyModeOnce && len(result.Applied) > 0 {
			break
		}
		if conflictsWithExisting(taken, cand.fix.Edits) {
			result.Skipped = append(result.Skipped, SkippedFix{
				Title:  cand.fix.Title,
				Code:   cand.diag.Code,
				Reason: "conflicts with a previously applied edit",
			})
			continue
		}
		for _, e := range cand.fix.Edits {
			taken = insertEditSorted(taken, e)
		}
		result.Applied = append(result.Applied, AppliedFix{
			Title:     cand.fix.Title,
			Code:      cand.diag.Code,
			Message:   cand.diag.Message,
			Primary:   cand.diag.Primary,
			EditCount: len(cand.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	content := applyEdits(f.Content, taken)
	next := source.NewFile(f.Path, content)
	next.Flags = f.Flags | source.FileEdited
	next.Version = f.Version + 1
	result.File = next
	result.Edit = source.DiffEdit(f, next)
	return result, nil
}

// gatherCandidates drops fixes without edits or with edits outside f.
func gatherCandidates(f *source.File, diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var out []candidate
	var skipped []SkippedFix
	order := 0
	for _, d := range diagnostics {
		for _, fx := range d.Fixes {
			reason := ""
			switch {
			case len(fx.Edits) == 0:
				reason = "fix has no edits"
			case !editsInside(fx.Edits, f.Len()):
				reason = "edit outside of the file"
			}
			if reason != "" {
				skipped = append(skipped, SkippedFix{Title: fx.Title, Code: d.Code, Reason: reason})
				continue
			}
			out = append(out, candidate{diag: d, fix: fx, order: order})
			order++
		}
	}
	return out, skipped
}

func editsInside(edits []diag.FixEdit, size uint32) bool {
	for _, e := range edits {
		if !e.Span.IsValid() || e.Span.End > size {
			return false
		}
	}
	return true
}

func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].diag.Primary, candidates[j].diag.Primary
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return candidates[i].order < candidates[j].order
	})
}

func conflictsWithExisting(existing, edits []diag.FixEdit) bool {
	for _, e := range edits {
		for _, prev := range existing {
			if spansConflict(prev, e) {
				return true
			}
		}
	}
	return false
}

// spansConflict treats two insertions at the same offset as a conflict:
// their order in the result would be arbitrary.
func spansConflict(a, b diag.FixEdit) bool {
	if a.Span.Start == b.Span.Start {
		return true
	}
	return a.Span.Start < b.Span.End && b.Span.Start < a.Span.End
}

func insertEditSorted(edits []diag.FixEdit, edit diag.FixEdit) []diag.FixEdit {
	i := sort.Search(len(edits), func(i int) bool { return edits[i].Span.Start > edit.Span.Start })
	edits = append(edits, diag.FixEdit{})
	copy(edits[i+1:], edits[i:])
	edits[i] = edit
	return edits
}

// applyEdits splices sorted, non-overlapping edits into a copy of content.
func applyEdits(content []byte, edits []diag.FixEdit) []byte {
	out := make([]byte, 0, len(content)+16*len(edits))
	pos := uint32(0)
	for _, e := range edits {
		out = append(out, content[pos:e.Span.Start]...)
		out = append(out, e.NewText...)
		pos = e.Span.End
	}
	return append(out, content[pos:]...)
}
