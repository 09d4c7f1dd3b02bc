// Package dataset discovers and loads image inputs from disk.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
)

// DefaultExtensions are matched when none are given.
var DefaultExtensions = []string{".jpeg", ".jpg", ".png"}

// ErrNoInputs is returned when discovery finds nothing to ingest.
var ErrNoInputs = errors.New("no matching inputs")

// Discover walks root and returns the sorted paths of regular files whose
// extension matches one of exts, case-insensitively.
func Discover(root string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[e] = true
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if want[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w under %s (extensions %v)", ErrNoInputs, root, exts)
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadItems reads each path into an image item tagged with label.
func LoadItems(paths []string, label string) ([]embeddings.Item, error) {
	items := make([]embeddings.Item, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("reading %s: file is empty", p)
		}
		items = append(items, embeddings.Item{
			Image:  b,
			Label:  label,
			Source: p,
		})
	}
	return items, nil
}

// Expand resolves each argument to input files: directories are discovered
// with exts, files are taken as given.
func Expand(args []string, exts []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", a, err)
		}
		if !info.IsDir() {
			out = append(out, a)
			continue
		}
		found, err := Discover(a, exts)
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	return out, nil
}
