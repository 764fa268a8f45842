package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/diagfmt"
	"spring/internal/driver"
	"spring/internal/source"
)

var rescanCmd = &cobra.Command{
	Use:   "rescan [flags] old.pas [new.pas]",
	Short: "Rescan an edit incrementally and show the relexed tokens",
	Long: `Rescan lexes old.pas, applies one edit and rescans only the damaged
tokens. The edit is either derived from the difference between old.pas and
new.pas, or given with --range and --text. Neither file is written.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRescan,
}

func init() {
	rescanCmd.Flags().String("range", "", "byte range start:end replaced in old.pas")
	rescanCmd.Flags().String("text", "", "replacement text for --range")
	rescanCmd.Flags().Bool("verify", false, "compare with a full lex of the edited text")
}

type rescanPayload struct {
	Path     string                `json:"path"`
	Edit     string                `json:"edit"`
	Affected source.Span           `json:"affected"`
	Relexed  int                   `json:"relexed"`
	Tokens   int                   `json:"tokens"`
	Mismatch int                   `json:"mismatch"`
	Changed  []diagfmt.TokenOutput `json:"changed"`
}

func runRescan(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	req := driver.RescanRequest{Path: args[0], Verify: verify}
	if len(args) == 2 {
		req.Range, req.Text, err = diffFiles(args[0], args[1])
	} else {
		req.Range, req.Text, err = rangeFlags(cmd)
	}
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	opts, err := e.driverOptions(cmd)
	if err != nil {
		return err
	}
	res, err := driver.Rescan(cmd.Context(), req, opts)
	if err != nil {
		return fmt.Errorf("rescan failed: %w", err)
	}

	out := cmd.OutOrStdout()
	changed := res.New.TokensIn(res.Affected)
	if format == "json" {
		payload := rescanPayload{
			Path:     res.Edit.New.Path,
			Edit:     res.Edit.String(),
			Affected: res.Affected,
			Relexed:  res.Relexed,
			Tokens:   res.New.Len(),
			Mismatch: res.Mismatch,
			Changed:  make([]diagfmt.TokenOutput, 0, len(changed)),
		}
		for _, tok := range changed {
			state := uint32(tok.State)
			payload.Changed = append(payload.Changed, diagfmt.TokenOutput{
				Kind:  tok.Kind.String(),
				Text:  res.Edit.New.Slice(tok.Span),
				Span:  tok.Span,
				State: &state,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "edit:     %s\n", res.Edit)
		fmt.Fprintf(out, "affected: %s, relexed %d of %d tokens\n", res.Affected, res.Relexed, res.New.Len())
		err := diagfmt.FormatTokensPretty(out, changed, res.Edit.New, diagfmt.TokenOpts{Color: !color.NoColor, ShowState: true})
		if err != nil {
			return err
		}
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), format, res.Bag, res.Edit.New, opts.MaxDiagnostics); err != nil {
		return err
	}
	if res.Mismatch >= 0 {
		return fmt.Errorf("rescan diverges from a full lex at token %d", res.Mismatch)
	}
	if verify && format == "pretty" {
		fmt.Fprintln(out, color.GreenString("verified:"), "rescan matches a full lex")
	}
	return nil
}

// diffFiles derives the edit turning oldPath into newPath.
func diffFiles(oldPath, newPath string) (source.Span, []byte, error) {
	fs := source.NewFileSet()
	oldID, err := fs.Load(oldPath)
	if err != nil {
		return source.Span{}, nil, err
	}
	newID, err := fs.Load(newPath)
	if err != nil {
		return source.Span{}, nil, err
	}
	next := fs.Get(newID)
	edit := source.DiffEdit(fs.Get(oldID), next)
	return edit.Range, []byte(next.Slice(edit.Inserted())), nil
}

func rangeFlags(cmd *cobra.Command) (source.Span, []byte, error) {
	raw, err := cmd.Flags().GetString("range")
	if err != nil {
		return source.Span{}, nil, fmt.Errorf("failed to get range flag: %w", err)
	}
	text, err := cmd.Flags().GetString("text")
	if err != nil {
		return source.Span{}, nil, fmt.Errorf("failed to get text flag: %w", err)
	}
	if raw == "" {
		return source.Span{}, nil, fmt.Errorf("either new.pas or --range is required")
	}
	span, err := parseRange(raw)
	return span, []byte(text), err
}

// parseRange reads "start:end" or a bare "offset" (an insertion point).
func parseRange(s string) (source.Span, error) {
	startStr, endStr, found := strings.Cut(s, ":")
	start, err := strconv.ParseUint(strings.TrimSpace(startStr), 10, 32)
	if err != nil {
		return source.Span{}, fmt.Errorf("invalid --range %q: %w", s, err)
	}
	end := start
	if found {
		if end, err = strconv.ParseUint(strings.TrimSpace(endStr), 10, 32); err != nil {
			return source.Span{}, fmt.Errorf("invalid --range %q: %w", s, err)
		}
	}
	if end < start {
		return source.Span{}, fmt.Errorf("invalid --range %q: end before start", s)
	}
	return source.Span{Start: uint32(start), End: uint32(end)}, nil
}
