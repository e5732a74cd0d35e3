package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
)

// ErrEmptyDictionary indicates that the dictionary file contained no usable
// (non-blank) lines.
var ErrEmptyDictionary = errors.New("dictionary contains no usable entries")

// MissingFileError indicates that the dictionary file does not exist.
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("dictionary file not found: %s", e.Path)
}

// Load reads a newline-delimited UTF-8 dictionary file and returns its
// non-empty trimmed entries in file order. Uniqueness is not enforced.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &MissingFileError{Path: path}
		}
		return nil, fmt.Errorf("failed to open dictionary file %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Error("failed to close dictionary file", "path", path, "error", cerr)
		}
	}()

	var entries []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		entries = append(entries, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDictionary)
	}

	slog.Info("dictionary loaded", "path", path, "entries", len(entries))
	return entries, nil
}

// Selection modes supported by Selector.
const (
	PickRandom = "random"
	PickCyclic = "cyclic"
)

// Selector draws entries from a dictionary either by seeded random choice or
// by cycling through the entries in order. All randomness comes from the
// provided rand.Rand so a fixed seed reproduces the draw sequence.
type Selector struct {
	entries []string
	mode    string
	rnd     *rand.Rand
	next    int
}

// NewSelector creates a selector over the given entries. Mode must be
// PickRandom or PickCyclic.
func NewSelector(entries []string, mode string, rnd *rand.Rand) (*Selector, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyDictionary
	}
	switch mode {
	case PickRandom, PickCyclic:
	default:
		return nil, fmt.Errorf("unknown selection mode: %s", mode)
	}
	if mode == PickRandom && rnd == nil {
		return nil, fmt.Errorf("random selection requires a rand source")
	}
	return &Selector{entries: entries, mode: mode, rnd: rnd}, nil
}

// Next returns the next dictionary entry according to the selection mode.
func (s *Selector) Next() string {
	if s.mode == PickCyclic {
		entry := s.entries[s.next%len(s.entries)]
		s.next++
		return entry
	}
	return s.entries[s.rnd.Intn(len(s.entries))]
}

// Len returns the number of entries backing the selector.
func (s *Selector) Len() int {
	return len(s.entries)
}
