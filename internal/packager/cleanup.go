// SPDX-License-Identifier: MPL-2.0

package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Cleanup removes the regular files directly in dir whose name ends with one
// of exts, compared case-insensitively. Extensions may be compound
// (".synctex.gz"). Names listed in keep are never removed, whatever their
// extension. It returns the removed names, sorted.
func Cleanup(dir string, exts, keep []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	kept := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		kept[strings.ToLower(name)] = struct{}{}
	}

	var removed []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !hasAnySuffix(e.Name(), exts) {
			continue
		}
		if _, ok := kept[strings.ToLower(e.Name())]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", e.Name(), err)
		}
		removed = append(removed, e.Name())
	}
	slices.Sort(removed)
	return removed, nil
}

func hasAnySuffix(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		// A file named exactly ".log" is not a leftover of anything.
		if ext != "" && len(lower) > len(ext) && strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
