package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().CountP("verbose", "v", "log verbosity (repeat for more)")
	cmd.Flags().String("log", "", "log file (default: stderr)")
}

// setupLogging configures the commonlog backend used by the watch and
// lsp layers. Verbosity 0 keeps notices and errors only.
func setupLogging(cmd *cobra.Command) error {
	verbosity, err := cmd.Flags().GetCount("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	path, err := cmd.Flags().GetString("log")
	if err != nil {
		return fmt.Errorf("failed to get log flag: %w", err)
	}
	var logPath *string
	if path != "" {
		logPath = &path
	}
	commonlog.Configure(verbosity, logPath)
	return nil
}
