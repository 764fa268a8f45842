package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"spring/internal/config"
	"spring/internal/driver"
	"spring/internal/lang"
	"spring/internal/parser"
	"spring/internal/tokencache"
)

// env is what every command needs besides its own flags: the merged
// configuration, the language registry built from it and the token cache.
type env struct {
	cfg   config.Config
	langs *lang.Registry
	cache *tokencache.Cache
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return config.Config{}, err
	}
	for _, key := range cfg.Undecoded {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: unknown key %q\n", cfg.Path, key)
	}
	return cfg, nil
}

// newRegistry adds the configured extensions to the built-in language.
func newRegistry(cfg config.Config) (*lang.Registry, error) {
	reg := lang.NewRegistry()
	extra := make([]string, 0, len(cfg.Files.Extensions))
	for _, ext := range cfg.Files.Extensions {
		if !slices.Contains(lang.Spring.Extensions, ext) {
			extra = append(extra, ext)
		}
	}
	if len(extra) == 0 {
		return reg, nil
	}
	l := lang.Spring
	l.Extensions = extra
	if err := reg.Register(l); err != nil {
		return nil, err
	}
	return reg, nil
}

func openCache(cmd *cobra.Command, cfg config.Config) (*tokencache.Cache, error) {
	off, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	if off || cfg.Cache.Disabled {
		return nil, nil
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		// без диска остаётся кеш в памяти
		fmt.Fprintf(cmd.ErrOrStderr(), "token cache: %v\n", err)
		dir = ""
	}
	return tokencache.Open(tokencache.Options{
		Dir:      dir,
		TTL:      cfg.Cache.MemoryTTL.Duration,
		Language: lang.Spring.Name,
	})
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	langs, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}
	cache, err := openCache(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, langs: langs, cache: cache}, nil
}

// parserOptions merges [parser] and [resync] with --max-diagnostics.
func (e *env) parserOptions(cmd *cobra.Command) parser.Options {
	opts := parser.Options{MaxErrors: e.cfg.Parser.MaxErrors, Resync: e.cfg.ResyncOptions()}
	if cmd.Flags().Changed("max-diagnostics") {
		if n, err := cmd.Flags().GetInt("max-diagnostics"); err == nil && n > 0 {
			opts.MaxErrors = uint(n)
		}
	}
	return opts
}

func (e *env) driverOptions(cmd *cobra.Command) (driver.Options, error) {
	flags := cmd.Flags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	maxDiags, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return driver.Options{}, fmt.Errorf("failed to get timings flag: %w", err)
	}
	return driver.Options{
		Languages:      e.langs,
		Jobs:           jobs,
		MaxDiagnostics: maxDiags,
		Parser:         e.parserOptions(cmd),
		Cache:          e.cache,
		Timings:        timings,
	}, nil
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}

func stderrIsTerminal() bool { return isTerminal(os.Stderr) }
