package fonts

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeFontTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create font dir: %v", err)
		}
		if err := os.WriteFile(path, []byte("stub"), 0644); err != nil {
			t.Fatalf("failed to write font stub: %v", err)
		}
	}
	return dir
}

func TestNewCatalog_PreferredStyleFirst(t *testing.T) {
	dir := makeFontTree(t,
		"industrial/stencil.ttf",
		"monospace/mono.otf",
		"default/plain.ttf",
		"default/notes.txt", // not a font
	)

	catalog, err := NewCatalog(dir, StyleIndustrial)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}

	if catalog.Len() != 3 {
		t.Fatalf("expected 3 fonts, got %d: %v", catalog.Len(), catalog.Paths())
	}
	for _, p := range catalog.Paths() {
		if strings.HasSuffix(p, ".txt") {
			t.Errorf("non-font file in catalog: %s", p)
		}
	}
}

func TestNewCatalog_DeduplicatesAcrossScans(t *testing.T) {
	dir := makeFontTree(t, "monospace/mono.ttf")

	catalog, err := NewCatalog(dir, StyleMonospace)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}
	if catalog.Len() != 1 {
		t.Fatalf("expected 1 font after dedupe, got %d: %v", catalog.Len(), catalog.Paths())
	}
}

func TestNewCatalog_EmptyDirFallsBackOrFails(t *testing.T) {
	dir := t.TempDir()

	catalog, err := NewCatalog(dir, StyleDefault)
	if err != nil {
		var noFonts *NoFontsError
		if !errors.As(err, &noFonts) {
			t.Fatalf("expected NoFontsError, got %T: %v", err, err)
		}
		return
	}

	// A system font was found; it must be the only entry.
	if catalog.Len() != 1 {
		t.Errorf("expected exactly one fallback font, got %d", catalog.Len())
	}
}

func TestCatalog_PickIsDeterministicPerSeed(t *testing.T) {
	dir := makeFontTree(t,
		"industrial/a.ttf",
		"industrial/b.ttf",
		"industrial/c.ttf",
	)

	catalog, err := NewCatalog(dir, StyleIndustrial)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}

	draw := func() []string {
		rnd := rand.New(rand.NewSource(7))
		out := make([]string, 0, 10)
		for i := 0; i < 10; i++ {
			out = append(out, catalog.Pick(rnd))
		}
		return out
	}

	first := draw()
	second := draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pick %d differs between seeded runs", i)
		}
	}
}
