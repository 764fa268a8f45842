package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/diagfmt"
	"spring/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] path...",
	Short: "Parse Spring source files and report syntax errors",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Bool("tree", false, "print the syntax tree")
	parseCmd.Flags().Bool("trivia", false, "keep whitespace and comment leaves in the printed tree")
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	showTree, err := cmd.Flags().GetBool("tree")
	if err != nil {
		return fmt.Errorf("failed to get tree flag: %w", err)
	}
	trivia, err := cmd.Flags().GetBool("trivia")
	if err != nil {
		return fmt.Errorf("failed to get trivia flag: %w", err)
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

	_, results, err := driver.ParseAll(cmd.Context(), paths, opts)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	treeOpts := diagfmt.TreeOpts{Color: !color.NoColor, Trivia: trivia}
	var errs, warns int
	for _, r := range results {
		if err := printDiagnostics(errOut, format, r.Bag, r.File, opts.MaxDiagnostics); err != nil {
			return err
		}
		ne, nw := countSeverities(r.Bag)
		errs, warns = errs+ne, warns+nw
		if !showTree || r.Tree == nil {
			continue
		}
		if format == "json" {
			err = diagfmt.FormatTreeJSON(out, r.Tree, treeOpts)
		} else {
			err = diagfmt.FormatTreePretty(out, r.Tree, treeOpts)
		}
		if err != nil {
			return err
		}
	}
	if format == "pretty" {
		summary(errOut, len(results), errs, warns)
	}
	if errs > 0 {
		return fmt.Errorf("%d errors", errs)
	}
	return nil
}
