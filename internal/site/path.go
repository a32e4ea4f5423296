package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard keeps every artifact write inside the output directory.
type PathGuard struct {
	BaseDir string
}

// NewPathGuard roots a guard at the absolute form of baseDir.
func NewPathGuard(baseDir string) (*PathGuard, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}
	return &PathGuard{BaseDir: absBase}, nil
}

// Join resolves elems as one artifact path relative to BaseDir.
// Every element must be a plain name: separators and dot segments are rejected.
func (g *PathGuard) Join(elems ...string) (string, error) {
	if len(elems) == 0 {
		return "", fmt.Errorf("artifact path is required")
	}
	for _, e := range elems {
		if strings.TrimSpace(e) == "" || e == "." || e == ".." || strings.ContainsAny(e, `/\`) {
			return "", fmt.Errorf("invalid artifact path element %q", e)
		}
	}
	return g.Resolve(filepath.Join(elems...))
}

// Resolve returns rel as an absolute path inside BaseDir.
func (g *PathGuard) Resolve(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("artifact path is required")
	}
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute artifact path %q is not allowed", rel)
	}
	abs := filepath.Join(g.BaseDir, clean)
	if abs == g.BaseDir || !strings.HasPrefix(abs, g.BaseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("artifact path %q escapes output directory %s", rel, g.BaseDir)
	}
	return abs, nil
}
