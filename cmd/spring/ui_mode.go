package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// uiMode is the value of --ui; it implements pflag.Value so bad input
// fails at flag parsing.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func (m *uiMode) String() string { return string(*m) }

func (m *uiMode) Type() string { return "auto|on|off" }

func (m *uiMode) Set(value string) error {
	parsed, err := readUIMode(value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func readUIMode(value string) (uiMode, error) {
	switch v := uiMode(strings.ToLower(strings.TrimSpace(value))); v {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return v, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

func addUIFlag(cmd *cobra.Command) {
	mode := uiModeAuto
	cmd.Flags().Var(&mode, "ui", "progress UI (auto|on|off)")
}

func uiFlag(cmd *cobra.Command) uiMode {
	if m, ok := cmd.Flags().Lookup("ui").Value.(*uiMode); ok {
		return *m
	}
	return uiModeAuto
}

// shouldUseTUI: auto means an interactive stdout that can redraw.
func shouldUseTUI(mode uiMode) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return isTerminal(os.Stdout) && os.Getenv("TERM") != "dumb"
}
