// SPDX-License-Identifier: MPL-2.0

package latex

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

var (
	graphicsPathPattern = regexp.MustCompile(`\\graphicspath\s*\{((?:\s*\{[^}]*\})*)\s*\}`)
	graphicsPathItem    = regexp.MustCompile(`\{([^}]*)\}`)
)

// Reference is one path argument of a recognized construct.
type Reference struct {
	// Kind is the construct the path came from.
	Kind Kind
	// Path is the argument as written, without surrounding whitespace.
	Path string
	// Start and End delimit Path within its line, in bytes.
	Start int
	End   int
	// Line is the 1-based line number.
	Line int
}

// HasExtension reports whether the path as written carries a file extension.
func (r Reference) HasExtension() bool {
	return path.Ext(r.Path) != ""
}

// Scan returns every reference in a TeX source, in document order. Commented
// out text and the bodies of verbatim-like environments are skipped.
func Scan(content string) []Reference {
	var refs []Reference
	EachCodeLine(content, func(lineNo int, code string) {
		refs = append(refs, ScanLine(code, lineNo)...)
	})
	return refs
}

// EachCodeLine calls fn with the comment-stripped text of every line of
// content that lies outside a verbatim-like environment. Line numbers are
// 1-based.
func EachCodeLine(content string, fn func(lineNo int, code string)) {
	var verbatim verbatimTracker
	for i, line := range strings.Split(content, "\n") {
		if verbatim.inside(line) {
			continue
		}
		fn(i+1, StripComment(line))
	}
}

// ScanLine returns the references on a single line, ordered by position. The
// caller is responsible for stripping comments first.
func ScanLine(line string, lineNo int) []Reference {
	var refs []Reference
	for _, rule := range Rules {
		for _, m := range rule.pattern.FindAllStringSubmatchIndex(line, -1) {
			refs = append(refs, rule.arguments(line, m[2], m[3], lineNo)...)
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Start < refs[j].Start
	})
	return refs
}

// arguments splits the brace-delimited argument line[start:end] into
// references, one per list element for list rules.
func (r Rule) arguments(line string, start, end, lineNo int) []Reference {
	if !r.List {
		if ref, ok := r.reference(line, start, end, lineNo); ok {
			return []Reference{ref}
		}
		return nil
	}

	var refs []Reference
	for start <= end {
		stop := strings.IndexByte(line[start:end], ',')
		if stop < 0 {
			stop = end
		} else {
			stop += start
		}
		if ref, ok := r.reference(line, start, stop, lineNo); ok {
			refs = append(refs, ref)
		}
		start = stop + 1
	}
	return refs
}

func (r Rule) reference(line string, start, end, lineNo int) (Reference, bool) {
	for start < end && isSpace(line[start]) {
		start++
	}
	for end > start && isSpace(line[end-1]) {
		end--
	}
	if start == end {
		return Reference{}, false
	}
	return Reference{
		Kind:  r.Kind,
		Path:  line[start:end],
		Start: start,
		End:   end,
		Line:  lineNo,
	}, true
}

// GraphicsPaths returns the directories listed by a \graphicspath command on
// line, e.g. \graphicspath{{figs/}{img/}}. The line must already be
// comment-stripped.
func GraphicsPaths(line string) []string {
	var dirs []string
	for _, m := range graphicsPathPattern.FindAllStringSubmatch(line, -1) {
		for _, item := range graphicsPathItem.FindAllStringSubmatch(m[1], -1) {
			if dir := strings.TrimSpace(item[1]); dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
