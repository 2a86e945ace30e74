package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/chazu/fern/manifest"

	_ "github.com/tliron/commonlog/simple"
)

var (
	verbosity  int
	logFile    string
	colorMode  string
	projectDir string
)

// errReported is returned by commands whose failure has already been
// written to the user.
var errReported = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:   "fern",
	Short: "Fern - parser and language tooling for the fern language",
	Long: `Fern parses source files of a small functional language with
indentation-sensitive layout. It prints syntax trees and token streams,
checks whole projects for parse errors and serves editors over LSP.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: configureLogging,
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Color output: auto, always, never")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "C", "", "Project directory (default: current directory)")

	// Add subcommands
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func configureLogging(cmd *cobra.Command, args []string) error {
	switch colorMode {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --color %q (want auto, always or never)", colorMode)
	}
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	return nil
}

// loadManifest finds fern.toml above the project directory. Without one
// the project directory itself is the only source directory.
func loadManifest() (*manifest.Manifest, error) {
	dir := projectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = wd
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		commonlog.GetLogger("fern").Debugf("no %s found above %s", manifest.FileName, dir)
		return manifest.Default(dir), nil
	}
	return m, nil
}

// readSource reads the file named by args, or stdin when there is none
// or it is "-".
func readSource(cmd *cobra.Command, args []string) (name, src string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("cannot read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("cannot read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}

// displayName shortens path relative to the project directory.
func displayName(m *manifest.Manifest, path string) string {
	if rel, err := filepath.Rel(m.Dir, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// ---------------------------------------------------------------------------
// Diagnostic rendering
// ---------------------------------------------------------------------------

// styles holds the color formatters for diagnostics.
type styles struct {
	header *color.Color
	gutter *color.Color
	caret  *color.Color
	ok     *color.Color
}

// newStyles creates color formatters; enabled=false prints plain text.
func newStyles(enabled bool) *styles {
	s := &styles{
		header: color.New(color.Bold, color.FgHiRed),
		gutter: color.New(color.FgHiBlue),
		caret:  color.New(color.Bold, color.FgYellow),
		ok:     color.New(color.FgHiGreen),
	}
	for _, c := range []*color.Color{s.header, s.gutter, s.caret, s.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// stylesFor applies --color. auto follows color.NoColor, which already
// accounts for NO_COLOR and a non-terminal stdout.
func stylesFor() *styles {
	switch colorMode {
	case "always":
		return newStyles(true)
	case "never":
		return newStyles(false)
	}
	return newStyles(!color.NoColor)
}

// gutterWidth is the width of the "%4d | " prefix of snippet lines.
const gutterWidth = 7

// renderError colors the caret snippet of a parse error.
func (s *styles) renderError(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = s.header.Sprint(line)
		case strings.HasPrefix(line, "     | "):
			lines[i] = s.gutter.Sprint(line[:gutterWidth]) + s.caret.Sprint(line[gutterWidth:])
		case len(line) >= gutterWidth && line[gutterWidth-3:gutterWidth] == " | ":
			lines[i] = s.gutter.Sprint(line[:gutterWidth]) + line[gutterWidth:]
		}
	}
	return strings.Join(lines, "\n")
}
