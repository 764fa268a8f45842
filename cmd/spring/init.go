package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"spring/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default spring.toml",
	Long: `Init writes spring.toml with the default settings into dir (the current
directory if omitted) and a hello.pas example when the directory has no
.pas files yet. An existing spring.toml is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

const helloProgram = `{ hello.pas }
begin
  writeln('Hello, Spring!');
end;
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path, err := config.Init(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", color.GreenString("created"), path)

	matches, err := filepath.Glob(filepath.Join(dir, "*.pas"))
	if err != nil || len(matches) > 0 {
		return nil
	}
	hello := filepath.Join(dir, "hello.pas")
	f, err := os.OpenFile(hello, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(helloProgram); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", color.GreenString("created"), hello)
	return nil
}
