// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"fmt"
	"path/filepath"

	"github.com/arxivate/arxivate/internal/latex"
)

type (
	// Result is the outcome of a Resolve call. It is read-only once returned.
	Result struct {
		// Main is the entry of the main document.
		Main Entry
		// BaseDir is the directory holding the main document.
		BaseDir string
		// Deps maps every file of the submission to its flat name.
		Deps *DependencyMap
		// Warnings lists references that could not be located.
		Warnings []UnresolvedReference

		replacements map[resolutionKey]string
		bibliography bool
	}

	// UnresolvedReference is a reference that matched no file. It is reported
	// and skipped; it never stops a run.
	UnresolvedReference struct {
		// File is the referencing source, relative to the main document's directory.
		File string `json:"file" toml:"file"`
		// Line is the 1-based line of the reference.
		Line int `json:"line" toml:"line"`
		// Kind is the construct that named the file.
		Kind latex.Kind `json:"kind" toml:"kind"`
		// Path is the argument as written.
		Path string `json:"path" toml:"path"`
	}
)

// Lookup returns the replacement function for references made from source.
// It yields the flat name, with or without extension to match how each
// reference was written, and false for references that were not resolved.
func (r *Result) Lookup(source string) latex.Lookup {
	return func(ref latex.Reference) (string, bool) {
		s, ok := r.replacements[resolutionKey{file: source, kind: ref.Kind, path: ref.Path}]
		return s, ok
	}
}

// HasBibliography reports whether at least one \bibliography database was
// found, i.e. whether running bibtex makes sense.
func (r *Result) HasBibliography() bool {
	return r.bibliography
}

// TeXSources returns the entries that must be comment-stripped and rewritten.
func (r *Result) TeXSources() []Entry {
	var out []Entry
	for _, e := range r.Deps.Entries() {
		if e.Kind.IsTeX() {
			out = append(out, e)
		}
	}
	return out
}

// Rel returns source relative to BaseDir, in slash form, for display.
func (r *Result) Rel(source string) string {
	if rel, err := filepath.Rel(r.BaseDir, source); err == nil {
		return filepath.ToSlash(rel)
	}
	return source
}

// String formats the reference as file:line: \command{path}.
func (u UnresolvedReference) String() string {
	cmd := u.Kind.String()
	if rule, ok := latex.RuleFor(u.Kind); ok {
		cmd = rule.Command
	}
	return fmt.Sprintf("%s:%d: \\%s{%s}: file not found", u.File, u.Line, cmd, u.Path)
}
