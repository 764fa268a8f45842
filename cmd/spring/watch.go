package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] path...",
	Short: "Reparse files incrementally as they are saved",
	Long: `Watch parses every file under the given paths, then reparses a file
each time it is written. Only the tokens damaged by the change are lexed
again. Press Ctrl+C to stop.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultConfig().Debounce, "wait this long after the last write before reparsing")
	watchCmd.Flags().Bool("quiet", false, "print only files with errors")
	addLogFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	opts, err := e.driverOptions(cmd)
	if err != nil {
		return err
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var mu sync.Mutex
	w, err := watch.New(watch.Config{
		Debounce:  debounce,
		Languages: e.langs,
		Parser:    opts.Parser,
		Cache:     e.cache,
		OnUpdate: func(up watch.Update) {
			mu.Lock()
			defer mu.Unlock()
			reportUpdate(out, errOut, format, up, quiet, opts.MaxDiagnostics)
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	for _, p := range args {
		if err := w.Add(cmd.Context(), p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}
	fmt.Fprintf(errOut, "watching %d files\n", len(w.Paths()))
	return w.Run(cmd.Context())
}

func reportUpdate(out, errOut io.Writer, format string, up watch.Update, quiet bool, maxDiags int) {
	if up.Err != nil {
		fmt.Fprintf(errOut, "%s %s: %v\n", color.RedString("error"), up.Path, up.Err)
		return
	}
	if up.Tree == nil {
		return
	}
	diags := up.Tree.Diagnostics()
	if quiet && len(diags) == 0 {
		return
	}
	if format == "pretty" {
		label := color.GreenString("ok")
		if len(diags) > 0 {
			label = color.RedString("%d errors", len(diags))
		}
		what := "parsed"
		if !up.Initial {
			what = fmt.Sprintf("v%d reparsed %s", up.Version, up.Affected)
		}
		fmt.Fprintf(out, "%s %s %s in %s\n", up.Path, what, label, up.Elapsed)
	}
	bag := newTreeBag(up.Tree)
	if err := printDiagnostics(errOut, format, bag, up.Tree.File, maxDiags); err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", up.Path, err)
	}
}
