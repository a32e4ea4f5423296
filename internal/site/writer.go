package site

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StampLayout names output files and directories after the run's start time.
const StampLayout = "20060102_150405"

const testsHeader = "# Generated test functions\n\n"

// Output file names inside a website directory.
const (
	IndexFile  = "index.html"
	StylesFile = "styles.css"
	ScriptFile = "script.js"
)

// Stamp formats t with StampLayout.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// Writer persists generated artifacts under one output directory.
type Writer struct {
	guard *PathGuard
}

// NewWriter creates dir if needed and roots a writer there.
func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		dir = "output"
	}
	guard, err := NewPathGuard(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(guard.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{guard: guard}, nil
}

// Dir returns the absolute output directory.
func (w *Writer) Dir() string {
	return w.guard.BaseDir
}

// WriteTests writes every test, each followed by a blank line, to test_website_<stamp>.py.
func (w *Writer) WriteTests(stamp string, tests []string) (string, error) {
	if err := checkStamp(stamp); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(testsHeader)
	for _, t := range tests {
		b.WriteString(t)
		b.WriteString("\n\n")
	}
	return w.write(b.String(), fmt.Sprintf("test_website_%s.py", stamp))
}

// WebsitePaths lists the files written for one website.
type WebsitePaths struct {
	HTML string
	CSS  string
	JS   string
}

// WriteWebsite writes html, css and js into the <stamp> directory.
func (w *Writer) WriteWebsite(stamp, html, css, js string) (WebsitePaths, error) {
	var out WebsitePaths
	err := checkStamp(stamp)
	if err != nil {
		return out, err
	}
	if out.HTML, err = w.write(html, stamp, IndexFile); err != nil {
		return out, err
	}
	if out.CSS, err = w.write(css, stamp, StylesFile); err != nil {
		return out, err
	}
	if out.JS, err = w.write(js, stamp, ScriptFile); err != nil {
		return out, err
	}
	return out, nil
}

func (w *Writer) write(content string, elems ...string) (string, error) {
	resolved, err := w.guard.Join(elems...)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", filepath.Join(elems...), err)
	}
	return resolved, nil
}

// A stamp becomes a file name component, so it may not carry path syntax.
func checkStamp(stamp string) error {
	if strings.TrimSpace(stamp) == "" || strings.ContainsAny(stamp, `/\`) || strings.Contains(stamp, "..") {
		return fmt.Errorf("invalid stamp %q", stamp)
	}
	return nil
}
