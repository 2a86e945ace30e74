package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/fern/parser"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Check files for parse errors",
	Long: `Parse the given files, or every source file of the project when none
are given, and report the first error of each file. Exits non-zero when
any file fails to parse.`,
	RunE: runCheck,
}

// checkResult is the outcome of parsing one file.
type checkResult struct {
	src string
	err error
}

func runCheck(cmd *cobra.Command, args []string) error {
	m, err := loadManifest()
	if err != nil {
		return err
	}
	files := args
	if len(files) == 0 {
		if files, err = m.SourceFiles(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "no source files")
		return nil
	}

	log := commonlog.GetLogger("fern.check")
	opts := m.ParserOptions()

	// Files parse in parallel; results print in input order
	results := make([]checkResult, len(files))
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("cannot read %s: %w", path, err)
			}
			fileOpts := opts
			fileOpts.Interner = parser.NewInterner()
			_, perr := parser.ParseWithOptions(string(data), fileOpts)
			results[i] = checkResult{src: string(data), err: perr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s := stylesFor()
	failed := 0
	for i, path := range files {
		name := displayName(m, path)
		if r := results[i]; r.err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), s.renderError(parser.FormatErrorWithName(r.err, name, r.src)))
			continue
		}
		log.Debugf("%s parsed", name)
		fmt.Fprintf(out, "%s  %s\n", s.ok.Sprint("ok"), m.ModuleName(path))
	}

	fmt.Fprintf(out, "%d files checked, %d failed\n", len(files), failed)
	if failed > 0 {
		return errReported
	}
	return nil
}
