package manifest

import (
	"path/filepath"
	"strings"
)

// ModuleName returns the dotted module name of a source file, its path
// relative to the source directory that contains it without the
// extension: src/std/list.fern is std.list. A file outside every source
// directory is named by its base name.
func (m *Manifest) ModuleName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	rel := filepath.Base(abs)
	found := false
	// The innermost source directory wins when they nest.
	for _, root := range m.SourceDirPaths() {
		r, err := filepath.Rel(root, abs)
		if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(r) < len(rel) {
			rel, found = r, true
		}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.Join(strings.Split(filepath.ToSlash(rel), "/"), ".")
}
