package main

import (
	"github.com/spf13/cobra"

	"spring/internal/lsp"
	"spring/internal/version"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the Spring language server over stdio",
	Args:  cobra.NoArgs,
	RunE:  runLSP,
}

func init() {
	addLogFlags(lspCmd)
}

func runLSP(cmd *cobra.Command, _ []string) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	server := lsp.NewServer(lsp.Options{
		Languages: e.langs,
		Parser:    e.parserOptions(cmd),
		Version:   version.Version,
	})
	return server.RunStdio()
}
