package output

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	imagesDirName = "images"
	labelsDirName = "labels"

	// maxBaseLength bounds the text portion of generated filenames.
	maxBaseLength = 50
)

// WriteError indicates a disk or permission failure while writing an output
// pair. The batch driver skips the sample; there are no retries.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Pair names the two files produced for one sample.
type Pair struct {
	BaseName  string
	ImagePath string
	LabelPath string
}

// Writer persists image/label pairs under a shared base directory:
// <base>/images/<TEXT>_<VARIANT>.png and <base>/labels/<TEXT>_<VARIANT>.txt.
type Writer struct {
	base string
}

// NewWriter creates the images/ and labels/ directories under base.
func NewWriter(base string) (*Writer, error) {
	for _, sub := range []string{imagesDirName, labelsDirName} {
		dir := filepath.Join(base, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return &Writer{base: base}, nil
}

// ImagesDir returns the image output directory.
func (w *Writer) ImagesDir() string {
	return filepath.Join(w.base, imagesDirName)
}

// LabelsDir returns the label output directory.
func (w *Writer) LabelsDir() string {
	return filepath.Join(w.base, labelsDirName)
}

// WritePair writes the rendered image and its ground-truth label. The label
// contains the exact text, byte for byte, with no trailing metadata.
func (w *Writer) WritePair(text, variant string, imageData []byte) (Pair, error) {
	base := fmt.Sprintf("%s_%s", SafeFilename(text, maxBaseLength), variant)
	pair := Pair{
		BaseName:  base,
		ImagePath: filepath.Join(w.ImagesDir(), base+".png"),
		LabelPath: filepath.Join(w.LabelsDir(), base+".txt"),
	}

	if err := os.WriteFile(pair.ImagePath, imageData, 0644); err != nil {
		return Pair{}, &WriteError{Path: pair.ImagePath, Err: err}
	}
	if err := os.WriteFile(pair.LabelPath, []byte(text), 0644); err != nil {
		return Pair{}, &WriteError{Path: pair.LabelPath, Err: err}
	}

	slog.Debug("output pair written", "image", pair.ImagePath, "label", pair.LabelPath)
	return pair, nil
}

// Clean removes every file under images/ and labels/ while preserving the
// directories themselves.
func (w *Writer) Clean() error {
	for _, dir := range []string{w.ImagesDir(), w.LabelsDir()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", dir, err)
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	slog.Info("output directories cleaned", "images", w.ImagesDir(), "labels", w.LabelsDir())
	return nil
}

// SafeFilename converts text into a filesystem-safe base name: Unicode
// letters and numbers, dashes, and underscores are kept, path separators and
// shell-hostile characters become underscores, everything else is dropped.
// The result is truncated to maxLength characters.
func SafeFilename(text string, maxLength int) string {
	var b strings.Builder
	kept := 0
	for _, r := range text {
		var out rune
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), r == '-', r == '_':
			out = r
		case strings.ContainsRune(" /\\:*\"<>|", r):
			out = '_'
		default:
			continue
		}
		if kept == maxLength {
			break
		}
		b.WriteRune(out)
		kept++
	}
	return b.String()
}
