package bench

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spring/internal/ast"
	"spring/internal/observ"
	"spring/internal/parser"
	"spring/internal/source"
	"spring/internal/trace"
)

// Config controls Run.
type Config struct {
	Types []ParserType
	Edits []EditKind
	// Warmup parses run before timing starts.
	Warmup int
	// Rounds is how many times each edit kind is applied per file.
	Rounds int
	Seed   uint64
	Jobs   int
	Parser parser.Options
	Sink   Sink
}

// DefaultConfig mirrors `spring bench` without flags.
func DefaultConfig() Config {
	return Config{
		Types:  []ParserType{Incremental, Regular},
		Edits:  DefaultEdits(),
		Warmup: 5,
		Rounds: 1,
		Seed:   1,
	}
}

// Mismatch records an edit after which the parser types disagreed.
type Mismatch struct {
	Edit  string
	Round int
	Diff  string
}

// FileResult holds the timings of one file per parser type.
type FileResult struct {
	Path       string
	Timers     map[ParserType]*observ.Timer
	Mismatches []Mismatch
	Skipped    []string // edit kinds that found nothing to change
}

// Report aggregates a run.
type Report struct {
	Files  []FileResult
	Totals map[ParserType]*observ.Timer
}

// Mismatches counts disagreeing edits across files.
func (r *Report) Mismatches() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Mismatches)
	}
	return n
}

// PhaseName is the timer phase used for an edit kind.
func PhaseName(edit string) string { return "reparse/" + edit }

// Run benchmarks every file with every parser type in cfg.
func Run(ctx context.Context, files []*source.File, cfg Config) (*Report, error) {
	if len(cfg.Types) == 0 {
		cfg.Types = []ParserType{Incremental, Regular}
	}
	if cfg.Rounds < 1 {
		cfg.Rounds = 1
	}
	jobs := cfg.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "bench")
	defer span.End("")

	for _, f := range files {
		emit(cfg.Sink, Event{File: f.Path, Stage: StageWarmup, Status: StatusQueued})
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, f := range files {
		g.Go(func() error {
			res, err := runFile(gctx, f, cfg, i)
			if err != nil {
				emit(cfg.Sink, Event{File: f.Path, Status: StatusError, Err: err})
				return fmt.Errorf("bench %s: %w", f.Path, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Files: results, Totals: make(map[ParserType]*observ.Timer, len(cfg.Types))}
	for _, typ := range cfg.Types {
		total := observ.NewTimer()
		for _, r := range results {
			total.Merge(r.Timers[typ])
		}
		report.Totals[typ] = total
	}
	return report, nil
}

func runFile(ctx context.Context, f *source.File, cfg Config, idx int) (FileResult, error) {
	start := time.Now()
	res := FileResult{Path: f.Path, Timers: make(map[ParserType]*observ.Timer, len(cfg.Types))}
	harnesses := make([]*Harness, len(cfg.Types))
	for i, typ := range cfg.Types {
		harnesses[i] = NewHarness(typ, f, cfg.Parser)
		res.Timers[typ] = observ.NewTimer()
	}

	emit(cfg.Sink, Event{File: f.Path, Stage: StageWarmup, Status: StatusWorking})
	for _, h := range harnesses {
		for range cfg.Warmup {
			if _, err := h.ParseFile(ctx); err != nil {
				return res, err
			}
		}
	}

	emit(cfg.Sink, Event{File: f.Path, Stage: StageParse, Status: StatusWorking})
	for _, h := range harnesses {
		t0 := time.Now()
		if _, err := h.ParseFile(ctx); err != nil {
			return res, err
		}
		res.Timers[h.Type()].Record("parse", time.Since(t0))
	}

	// one generator per file, so both sides get the same edits
	rng := rand.New(rand.NewPCG(cfg.Seed, uint64(idx)))
	steps := len(cfg.Edits) * cfg.Rounds
	for k, kind := range cfg.Edits {
		emit(cfg.Sink, Event{
			File: f.Path, Stage: StageReparse, Status: StatusWorking,
			Edit: kind.Name, Step: k * cfg.Rounds, Steps: steps, Mismatches: len(res.Mismatches),
		})
		for round := range cfg.Rounds {
			change, ok := kind.Gen(harnesses[0].TokenBuffer(), rng)
			if !ok {
				res.Skipped = append(res.Skipped, kind.Name)
				break
			}
			trees := make([]*ast.Tree, len(harnesses))
			for i, h := range harnesses {
				t0 := time.Now()
				tree, err := h.Apply(ctx, change)
				if err != nil {
					return res, fmt.Errorf("%s round %d: %w", kind.Name, round, err)
				}
				res.Timers[h.Type()].Record(PhaseName(kind.Name), time.Since(t0))
				trees[i] = tree
			}
			if diff := compare(trees); diff != "" {
				res.Mismatches = append(res.Mismatches, Mismatch{Edit: kind.Name, Round: round, Diff: diff})
			}
		}
	}

	emit(cfg.Sink, Event{
		File: f.Path, Stage: StageCompare, Status: StatusDone,
		Step: steps, Steps: steps, Mismatches: len(res.Mismatches), Elapsed: time.Since(start),
	})
	return res, nil
}

// compare returns the first differing dump line, or "" when all trees agree.
func compare(trees []*ast.Tree) string {
	if len(trees) < 2 {
		return ""
	}
	want := trees[0].Dump()
	for _, t := range trees[1:] {
		got := t.Dump()
		if got != want {
			return firstLineDiff(want, got)
		}
	}
	return ""
}

func firstLineDiff(a, b string) string {
	al, bl := strings.Split(a, "\n"), strings.Split(b, "\n")
	for i := 0; i < len(al) || i < len(bl); i++ {
		var x, y string
		if i < len(al) {
			x = al[i]
		}
		if i < len(bl) {
			y = bl[i]
		}
		if x != y {
			return fmt.Sprintf("line %d: %q != %q", i+1, x, y)
		}
	}
	return ""
}

func emit(s Sink, ev Event) {
	if s != nil {
		s.OnEvent(ev)
	}
}
