package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/driver"
	"spring/internal/fix"
	"spring/internal/parser"
	"spring/internal/source"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] path...",
	Short: "Apply quick fixes suggested by syntax diagnostics",
	Long: `Fix parses each file, applies the fixes attached to its diagnostics and
reparses the result incrementally. Without --write the files stay untouched
and only the outcome is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every non-conflicting fix instead of the first one")
	fixCmd.Flags().Bool("write", false, "write fixed files back to disk")
	fixCmd.Flags().Int("passes", 4, "reparse and fix again up to this many times (with --all)")
}

func runFix(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	all, err := flags.GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	write, err := flags.GetBool("write")
	if err != nil {
		return fmt.Errorf("failed to get write flag: %w", err)
	}
	passes, err := flags.GetInt("passes")
	if err != nil {
		return fmt.Errorf("failed to get passes flag: %w", err)
	}
	mode := fix.ApplyModeOnce
	if all {
		mode = fix.ApplyModeAll
	} else {
		passes = 1
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	paths, err := driver.Collect(args, e.langs)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	total := 0
	for _, path := range paths {
		n, err := fixFile(cmd, e, path, fix.ApplyOptions{Mode: mode}, passes, write)
		if err != nil {
			return fmt.Errorf("fix %s: %w", path, err)
		}
		total += n
	}
	if total == 0 {
		fmt.Fprintln(out, "no applicable fixes found")
	}
	return nil
}

// fixFile returns the number of applied fixes.
func fixFile(cmd *cobra.Command, e *env, path string, opts fix.ApplyOptions, passes int, write bool) (int, error) {
	ctx := cmd.Context()
	l, err := e.langs.ForPath(path)
	if err != nil {
		return 0, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return 0, err
	}
	p := parser.New(l.Lexers.New(fs.Get(id)), e.parserOptions(cmd))
	tree, err := p.ParseFile(ctx)
	if err != nil {
		return 0, err
	}

	out := cmd.OutOrStdout()
	applied := 0
	for range passes {
		fr, err := fix.Apply(tree.File, tree.Diagnostics(), opts)
		if errors.Is(err, fix.ErrNoFixes) {
			break
		}
		if err != nil {
			return applied, err
		}
		for _, a := range fr.Applied {
			pos := tree.File.Position(a.Primary.Start)
			fmt.Fprintf(out, "%s %s:%d:%d %s (%s)\n", color.GreenString("fixed"), path, pos.Line, pos.Col, a.Title, a.Code.ID())
		}
		for _, s := range fr.Skipped {
			fmt.Fprintf(out, "%s %s: %s: %s\n", color.YellowString("skipped"), path, s.Title, s.Reason)
		}
		applied += len(fr.Applied)
		if tree, _, err = p.Update(ctx, fr.Edit, l.Lexers); err != nil {
			return applied, err
		}
	}
	if applied == 0 {
		return 0, nil
	}
	if left := len(tree.Diagnostics()); left > 0 {
		fmt.Fprintf(out, "%s: %d diagnostics left\n", path, left)
	}
	if !write {
		return applied, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return applied, err
	}
	return applied, os.WriteFile(path, tree.File.Content, info.Mode().Perm())
}
