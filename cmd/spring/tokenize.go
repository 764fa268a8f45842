package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/diagfmt"
	"spring/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] path...",
	Short: "Tokenize Spring source files",
	Long: `Tokenize breaks source files into tokens. Directories are walked for
files with a registered extension`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTokenize,
}

func init() {
	tokenizeCmd.Flags().Bool("trivia", true, "include whitespace and comment tokens")
	tokenizeCmd.Flags().Bool("state", false, "show the lexer state after each token")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	trivia, err := cmd.Flags().GetBool("trivia")
	if err != nil {
		return fmt.Errorf("failed to get trivia flag: %w", err)
	}
	showState, err := cmd.Flags().GetBool("state")
	if err != nil {
		return fmt.Errorf("failed to get state flag: %w", err)
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	opts, err := e.driverOptions(cmd)
	if err != nil {
		return err
	}
	paths, err := driver.Collect(args, e.langs)
	if err != nil {
		return err
	}

	_, results, err := driver.TokenizeAll(cmd.Context(), paths, opts)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	tokOpts := diagfmt.TokenOpts{Color: !color.NoColor, SkipTrivia: !trivia, ShowState: showState, ShowEOF: true}
	var errs, warns int
	for _, r := range results {
		if err := printDiagnostics(errOut, format, r.Bag, r.File, opts.MaxDiagnostics); err != nil {
			return err
		}
		ne, nw := countSeverities(r.Bag)
		errs, warns = errs+ne, warns+nw
		if r.Buffer == nil {
			continue
		}
		if format == "json" {
			err = diagfmt.FormatTokensJSON(out, r.Buffer.Tokens(), r.File, tokOpts)
		} else {
			if len(results) > 1 {
				fmt.Fprintf(out, "== %s\n", color.CyanString(r.Path))
			}
			err = diagfmt.FormatTokensPretty(out, r.Buffer.Tokens(), r.File, tokOpts)
		}
		if err != nil {
			return err
		}
	}
	if format == "pretty" && len(results) > 1 {
		summary(errOut, len(results), errs, warns)
	}
	if errs > 0 {
		return fmt.Errorf("%d errors", errs)
	}
	return nil
}
