// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// WriteProject creates a LaTeX project under a fresh temporary directory and
// returns its root. Keys of files are slash-separated paths relative to the
// root; values are file contents.
func WriteProject(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		MustWriteFile(t, filepath.Join(root, filepath.FromSlash(rel)), content)
	}
	return root
}

// ListFiles returns the names of the regular files directly inside dir,
// sorted.
func ListFiles(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

// FakeTool writes an executable POSIX shell script named name into dir and
// returns its path. The script appends "name args..." to calls.log in its
// working directory and then runs body. Tests that use it are skipped on
// Windows.
func FakeTool(t testing.TB, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}

	script := strings.Join([]string{
		"#!/bin/sh",
		`echo "` + name + ` $*" >> calls.log`,
		body,
		"",
	}, "\n")

	path := filepath.Join(dir, name)
	MustMkdirAll(t, dir, 0o755)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake tool %s: %v", path, err)
	}
	return path
}
