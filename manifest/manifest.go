// Package manifest handles fern.toml project configuration.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/chazu/fern/parser"
)

// FileName is the name of the project configuration file.
const FileName = "fern.toml"

// Manifest represents a fern.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Parser  Parser  `toml:"parser"`
	LSP     LSP     `toml:"lsp"`

	// Dir is the directory containing the fern.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures source file locations.
type Source struct {
	Dirs       []string `toml:"dirs"`
	Extensions []string `toml:"extensions"`
	// Exclude holds .gitignore style patterns relative to the project
	// directory. The project's own .gitignore applies as well.
	Exclude []string `toml:"exclude"`
}

// Parser configures parse options for every file of the project.
type Parser struct {
	TrimBlockDocComments bool `toml:"trim-block-doc-comments"`
}

// LSP tunes the language server.
type LSP struct {
	// MaxCompletions caps a completion list. Zero or less leaves the
	// server's own default in place.
	MaxCompletions int `toml:"max-completions"`
}

// Default returns the configuration used when no fern.toml is found.
func Default(dir string) *Manifest {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"."}
	}
	if len(m.Source.Extensions) == 0 {
		m.Source.Extensions = []string{".fern", ".glu"}
	}
	for i, ext := range m.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			m.Source.Extensions[i] = "." + ext
		}
	}
}

// Load parses a fern.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a fern.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// ParserOptions returns the parse options the project asks for.
func (m *Manifest) ParserOptions() parser.Options {
	return parser.Options{TrimBlockDocComments: m.Parser.TrimBlockDocComments}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// IsSource reports whether path has one of the configured extensions.
func (m *Manifest) IsSource(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range m.Source.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SourceFiles lists the source files under the source directories, sorted
// and without duplicates. Hidden directories and excluded paths are
// skipped.
func (m *Manifest) SourceFiles() ([]string, error) {
	ignore, err := m.ignoreMatcher()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var files []string
	for _, root := range m.SourceDirPaths() {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if m.excluded(ignore, path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if m.IsSource(path) && !seen[path] {
				seen[path] = true
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot list sources in %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ignoreMatcher compiles the exclude patterns together with the project's
// .gitignore, if there is one. It returns nil when nothing is excluded.
func (m *Manifest) ignoreMatcher() (*gitignore.GitIgnore, error) {
	path := filepath.Join(m.Dir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		ignore, err := gitignore.CompileIgnoreFileAndLines(path, m.Source.Exclude...)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		return ignore, nil
	}
	if len(m.Source.Exclude) == 0 {
		return nil, nil
	}
	return gitignore.CompileIgnoreLines(m.Source.Exclude...), nil
}

func (m *Manifest) excluded(ignore *gitignore.GitIgnore, path string) bool {
	if ignore == nil {
		return false
	}
	rel, err := filepath.Rel(m.Dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return ignore.MatchesPath(filepath.ToSlash(rel))
}
