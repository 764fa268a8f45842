package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/bench"
	"spring/internal/driver"
	"spring/internal/observ"
	"spring/internal/source"
	"spring/internal/ui"
)

var benchCmd = &cobra.Command{
	Use:   "bench [flags] path...",
	Short: "Compare incremental and regular reparsing on random edits",
	Long: `Bench parses every file with each parser type, applies the same
random edits to all of them and reports the time per phase. Trees of all
parser types are compared after each edit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringSlice("types", []string{"incremental", "regular"}, "parser types to compare")
	f.Int("rounds", 1, "edits of each kind per file")
	f.Int("warmup", 5, "untimed parses before measuring")
	f.Uint64("seed", 1, "random seed for edit generators")
	addUIFlag(benchCmd)
}

type outcome[T any] struct {
	result T
	err    error
}

// runBenchWithUI shows per-file progress while bench.Run works in the
// background.
func runBenchWithUI(ctx context.Context, title string, files []*source.File, cfg bench.Config) (*bench.Report, error) {
	events := make(chan bench.Event, 256)
	outcomeCh := make(chan outcome[*bench.Report], 1)

	go func() {
		cfgCopy := cfg
		cfgCopy.Sink = bench.ChannelSink{Ch: events}
		rep, err := bench.Run(ctx, files, cfgCopy)
		outcomeCh <- outcome[*bench.Report]{result: rep, err: err}
		close(events)
	}()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	model := ui.NewProgressModel(title, paths, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout), tea.WithContext(ctx))
	_, uiErr := program.Run()
	// UI мог выйти раньше: не даём Run зависнуть на полном канале
	go func() {
		for range events {
		}
	}()
	res := <-outcomeCh
	if uiErr != nil && res.err == nil {
		return res.result, uiErr
	}
	return res.result, res.err
}

type benchPayload struct {
	Files      int                                 `json:"files"`
	Mismatches []benchMismatch                     `json:"mismatches"`
	Totals     map[string]observ.Report            `json:"totals"`
	PerFile    map[string]map[string]observ.Report `json:"per_file"`
}

type benchMismatch struct {
	Path  string `json:"path"`
	Edit  string `json:"edit"`
	Round int    `json:"round"`
	Diff  string `json:"diff"`
}

func runBench(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	typeNames, err := flags.GetStringSlice("types")
	if err != nil {
		return fmt.Errorf("failed to get types flag: %w", err)
	}
	rounds, err := flags.GetInt("rounds")
	if err != nil {
		return fmt.Errorf("failed to get rounds flag: %w", err)
	}
	warmup, err := flags.GetInt("warmup")
	if err != nil {
		return fmt.Errorf("failed to get warmup flag: %w", err)
	}
	seed, err := flags.GetUint64("seed")
	if err != nil {
		return fmt.Errorf("failed to get seed flag: %w", err)
	}
	mode := uiFlag(cmd)

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	opts, err := e.driverOptions(cmd)
	if err != nil {
		return err
	}
	cfg := bench.DefaultConfig()
	cfg.Types = cfg.Types[:0]
	for _, name := range typeNames {
		typ, err := bench.ParseParserType(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		cfg.Types = append(cfg.Types, typ)
	}
	cfg.Rounds, cfg.Warmup, cfg.Seed = rounds, warmup, seed
	cfg.Jobs = opts.Jobs
	cfg.Parser = opts.Parser

	paths, err := driver.Collect(args, e.langs)
	if err != nil {
		return err
	}
	fs := source.NewFileSet()
	files := make([]*source.File, 0, len(paths))
	for _, p := range paths {
		id, err := fs.Load(p)
		if err != nil {
			return err
		}
		files = append(files, fs.Get(id))
	}

	var rep *bench.Report
	if format == "pretty" && shouldUseTUI(mode) {
		rep, err = runBenchWithUI(cmd.Context(), "bench", files, cfg)
	} else {
		rep, err = bench.Run(cmd.Context(), files, cfg)
	}
	if err != nil {
		return fmt.Errorf("bench failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		if err := writeBenchJSON(out, rep, cfg.Types); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, ui.BenchTable(rep, cfg.Types, !color.NoColor))
		for _, f := range rep.Files {
			for _, m := range f.Mismatches {
				fmt.Fprintf(out, "%s %s: %s round %d: %s\n", color.RedString("mismatch"), f.Path, m.Edit, m.Round, m.Diff)
			}
			if len(f.Skipped) > 0 {
				fmt.Fprintf(out, "%s: no target for %s\n", f.Path, strings.Join(f.Skipped, ", "))
			}
		}
	}
	if n := rep.Mismatches(); n > 0 {
		return fmt.Errorf("%d edits produced different trees", n)
	}
	return nil
}

func writeBenchJSON(w io.Writer, rep *bench.Report, types []bench.ParserType) error {
	payload := benchPayload{
		Files:      len(rep.Files),
		Mismatches: []benchMismatch{},
		Totals:     make(map[string]observ.Report, len(types)),
		PerFile:    make(map[string]map[string]observ.Report, len(rep.Files)),
	}
	for _, typ := range types {
		payload.Totals[typ.String()] = rep.Totals[typ].Report()
	}
	for _, f := range rep.Files {
		per := make(map[string]observ.Report, len(types))
		for _, typ := range types {
			per[typ.String()] = f.Timers[typ].Report()
		}
		payload.PerFile[f.Path] = per
		for _, m := range f.Mismatches {
			payload.Mismatches = append(payload.Mismatches, benchMismatch{Path: f.Path, Edit: m.Edit, Round: m.Round, Diff: m.Diff})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
