package fonts

import (
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flopp/go-findfont"
)

// Font styles recognized by the catalog. Each maps to a subdirectory of the
// font directory.
const (
	StyleIndustrial = "industrial"
	StyleMonospace  = "monospace"
	StyleDefault    = "default"
)

var styleDirs = []string{StyleIndustrial, StyleMonospace, StyleDefault}

// System fonts tried, in order, when the font directory yields nothing.
var systemFallbacks = []string{
	"DejaVuSans.ttf",
	"LiberationSans-Regular.ttf",
	"Arial.ttf",
}

// NoFontsError indicates that neither the font directory nor the system
// provided any usable font file.
type NoFontsError struct {
	Dir   string
	Style string
}

func (e *NoFontsError) Error() string {
	return fmt.Sprintf("no usable fonts found under %s (style %s) or on the system", e.Dir, e.Style)
}

// Catalog is an immutable list of font file paths discovered once at startup.
// Selection is driven by the caller's rand source so draws stay reproducible.
type Catalog struct {
	paths []string
}

// NewCatalog scans dir for .ttf/.otf files. The preferred style subdirectory
// is searched first, then the remaining style subdirectories, then dir itself.
// When nothing is found, a system font located via go-findfont is used as the
// sole entry.
func NewCatalog(dir, style string) (*Catalog, error) {
	seen := make(map[string]bool)
	var paths []string

	appendDir := func(d string) {
		for _, p := range scanFontDir(d) {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}

	appendDir(filepath.Join(dir, style))
	for _, sub := range styleDirs {
		if sub != style {
			appendDir(filepath.Join(dir, sub))
		}
	}
	appendDir(dir)

	// Stable order regardless of filesystem iteration
	sort.Strings(paths)

	if len(paths) == 0 {
		if fallback := findSystemFont(); fallback != "" {
			slog.Warn("no fonts in font directory, using system font",
				"dir", dir, "style", style, "fallback", fallback)
			paths = []string{fallback}
		}
	}

	if len(paths) == 0 {
		return nil, &NoFontsError{Dir: dir, Style: style}
	}

	slog.Info("font catalog loaded", "dir", dir, "style", style, "fonts", len(paths))
	return &Catalog{paths: paths}, nil
}

// Pick returns a random font path from the catalog.
func (c *Catalog) Pick(rnd *rand.Rand) string {
	return c.paths[rnd.Intn(len(c.paths))]
}

// Len returns the number of fonts in the catalog.
func (c *Catalog) Len() int {
	return len(c.paths)
}

// Paths returns the discovered font paths in catalog order.
func (c *Catalog) Paths() []string {
	out := make([]string, len(c.paths))
	copy(out, c.paths)
	return out
}

func scanFontDir(dir string) []string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var found []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf", ".otf":
			found = append(found, path)
		}
		return nil
	})
	return found
}

func findSystemFont() string {
	for _, name := range systemFallbacks {
		if path, err := findfont.Find(name); err == nil && path != "" {
			return path
		}
	}
	return ""
}
