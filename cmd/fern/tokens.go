package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/fern/parser"
)

var tokensRaw bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a file",
	Long: `Print the tokens of a fern source file (or stdin), one per line with
its line:column. By default the stream includes the blocks, separators
and in keywords inserted by the layout rule; --raw prints the lexer's
output unchanged.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	tokensCmd.Flags().BoolVar(&tokensRaw, "raw", false, "Print lexer tokens without layout")
}

func runTokens(cmd *cobra.Command, args []string) error {
	_, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	var ts parser.TokenSource = parser.NewLexer(src)
	if !tokensRaw {
		ts = parser.NewLayout(ts, commonlog.GetLogger("fern.layout"))
	}

	out := cmd.OutOrStdout()
	for {
		t := ts.NextToken()
		fmt.Fprintf(out, "%-7s %s\n", t.Loc, t)
		if t.Type == parser.TokenEOF {
			return nil
		}
	}
}
