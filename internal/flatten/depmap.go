// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"path/filepath"
	"strings"

	"github.com/arxivate/arxivate/internal/latex"
)

type (
	// Entry is one file of the submission.
	Entry struct {
		// Source is the canonical path of the original file.
		Source string `json:"source" toml:"source"`
		// Flat is the file name assigned in the output directory.
		Flat string `json:"flat" toml:"flat"`
		// Kind is the construct through which the file was first reached.
		Kind latex.Kind `json:"kind" toml:"kind"`
	}

	// DependencyMap maps canonical source paths to flat names. It is
	// append-only: a source is added at most once, and the first source to
	// claim a name keeps it unsuffixed.
	//
	// Names are compared case-insensitively so the output stays valid on
	// case-insensitive filesystems. Two entries of the same kind family may
	// not share a stem either, so a reference that omits the extension
	// (\includegraphics{plot}) still names exactly one file.
	DependencyMap struct {
		entries  []Entry
		bySource map[string]int
		names    map[string]struct{}
		stems    map[stemKey]struct{}
		reserved map[string]struct{}
	}

	stemKey struct {
		family latex.Kind
		stem   string
	}
)

// NewDependencyMap creates an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{
		bySource: make(map[string]int),
		names:    make(map[string]struct{}),
		stems:    make(map[stemKey]struct{}),
		reserved: make(map[string]struct{}),
	}
}

// Reserve marks names that no entry may take, typically the files the
// compiler writes next to the main document.
func (m *DependencyMap) Reserve(names ...string) {
	for _, n := range names {
		m.reserved[strings.ToLower(n)] = struct{}{}
	}
}

// reserveStem blocks a stem for one kind family.
func (m *DependencyMap) reserveStem(kind latex.Kind, stem string) {
	m.stems[stemKey{family: kind.Family(), stem: strings.ToLower(stem)}] = struct{}{}
}

// Add inserts source under a flat name derived from its base name and
// returns the entry. Adding a source that is already present returns the
// existing entry unchanged.
func (m *DependencyMap) Add(source string, kind latex.Kind) Entry {
	if i, ok := m.bySource[source]; ok {
		return m.entries[i]
	}

	name := Sanitize(filepath.Base(source))
	flat := name
	for n := 1; m.taken(flat, kind); n++ {
		flat = withSuffix(name, n)
	}

	e := Entry{Source: source, Flat: flat, Kind: kind}
	m.bySource[source] = len(m.entries)
	m.entries = append(m.entries, e)
	m.names[strings.ToLower(flat)] = struct{}{}
	m.stems[m.stemKey(flat, kind)] = struct{}{}
	return e
}

// Lookup returns the entry for a canonical source path.
func (m *DependencyMap) Lookup(source string) (Entry, bool) {
	i, ok := m.bySource[source]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Entries returns all entries in insertion order.
func (m *DependencyMap) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries.
func (m *DependencyMap) Len() int {
	return len(m.entries)
}

func (m *DependencyMap) taken(flat string, kind latex.Kind) bool {
	lower := strings.ToLower(flat)
	if _, ok := m.names[lower]; ok {
		return true
	}
	if _, ok := m.reserved[lower]; ok {
		return true
	}
	_, ok := m.stems[m.stemKey(flat, kind)]
	return ok
}

func (m *DependencyMap) stemKey(flat string, kind latex.Kind) stemKey {
	return stemKey{family: kind.Family(), stem: strings.ToLower(latex.TrimExtension(flat))}
}
