// Package importer finds the source file an import statement refers to,
// using the same directory search-path convention as the reference module
// loader: current directory, then a local lib/ and modules/ directory,
// then a standard library root (spec §5, import statement lowering).
package importer

import (
	"os"
	"path/filepath"
	"strings"

	"luax/internal/errors"
)

const sourceExt = ".lx"

// Searcher resolves an import name to a file on disk.
type Searcher struct {
	SearchPath []string
}

func NewSearcher() *Searcher {
	return &Searcher{SearchPath: defaultSearchPath()}
}

func defaultSearchPath() []string {
	return []string{
		".",
		"./lib",
		"./modules",
		standardLibPath(),
	}
}

func standardLibPath() string {
	return filepath.Join(".", "stdlib")
}

func (s *Searcher) AddSearchPath(path string) {
	s.SearchPath = append(s.SearchPath, path)
}

// Find locates the file backing an import name. A name ending in the source
// extension is treated as a direct path; otherwise every search directory is
// tried as <dir>/<name>.lx, then <dir>/<name>/index.lx, then a slash-joined
// nested path, matching the reference loader's precedence.
func (s *Searcher) Find(name string) (string, error) {
	if strings.HasSuffix(name, sourceExt) {
		if fileExists(name) {
			return name, nil
		}
		return "", errors.Newf(errors.ImportError, "module file not found: %s", name)
	}

	for _, dir := range s.SearchPath {
		if p := filepath.Join(dir, name+sourceExt); fileExists(p) {
			return p, nil
		}
		if p := filepath.Join(dir, name, "index"+sourceExt); fileExists(p) {
			return p, nil
		}
		parts := strings.Split(name, "/")
		if p := filepath.Join(dir, filepath.Join(parts...)+sourceExt); fileExists(p) {
			return p, nil
		}
	}
	return "", errors.Newf(errors.ImportError, "module not found: %s", name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
