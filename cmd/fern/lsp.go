package main

import (
	"github.com/spf13/cobra"

	"github.com/chazu/fern/server"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdio",
	Long: `Run the fern language server over stdio. Parser options and the
completion limit come from fern.toml. Use --log-file to keep logs
out of the editor's stderr.`,
	Args: cobra.NoArgs,
	RunE: runLSP,
}

func runLSP(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	return server.NewLSP(server.Config{
		Parser:         m.ParserOptions(),
		MaxCompletions: m.LSP.MaxCompletions,
		Version:        version,
	}).Run()
}
