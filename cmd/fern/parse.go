package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chazu/fern/ast"
	"github.com/chazu/fern/parser"
)

var (
	parseFormat  string
	parsePartial bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a file and print its syntax tree",
	Long: `Parse a fern source file (or stdin) and print the syntax tree.

Formats:
  sexpr  compact s-expression without spans (default)
  yaml   the span-carrying tree as YAML
  cbor   the span-carrying tree as canonical CBOR`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parseFormat, "format", "sexpr", "Output format: sexpr, yaml, cbor")
	parseCmd.Flags().BoolVar(&parsePartial, "partial", false, "Print the partial tree when parsing fails")
}

func runParse(cmd *cobra.Command, args []string) error {
	switch parseFormat {
	case "sexpr", "yaml", "cbor":
	default:
		return fmt.Errorf("unknown format %q (want sexpr, yaml or cbor)", parseFormat)
	}

	name, src, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	m, err := loadManifest()
	if err != nil {
		return err
	}

	tree, perr := parser.ParseWithOptions(src, m.ParserOptions())
	if perr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), stylesFor().renderError(parser.FormatErrorWithName(perr, name, src)))
		if !parsePartial || tree == nil {
			return errReported
		}
	}
	if err := writeTree(cmd.OutOrStdout(), tree, parseFormat); err != nil {
		return err
	}
	if perr != nil {
		return errReported
	}
	return nil
}

func writeTree(w io.Writer, tree ast.Expr, format string) error {
	switch format {
	case "yaml":
		out, err := ast.EncodeYAML(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "cbor":
		out, err := ast.EncodeCBOR(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	_, err := fmt.Fprintln(w, ast.Dump(tree))
	return err
}
