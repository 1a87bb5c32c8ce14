// SPDX-License-Identifier: MPL-2.0

package latex

import "strings"

// Lookup returns the text that replaces a reference's path argument. It
// returns false for references that should be left as written.
type Lookup func(ref Reference) (string, bool)

// Rewrite replaces the path argument of every recognized reference in content
// with the value returned by lookup. Replacements are applied left to right
// and never overlap; line structure, comments and verbatim bodies are
// preserved.
func Rewrite(content string, lookup Lookup) string {
	lines := strings.Split(content, "\n")

	var verbatim verbatimTracker
	for i, line := range lines {
		if verbatim.inside(line) {
			continue
		}
		refs := ScanLine(StripComment(line), i+1)
		if len(refs) == 0 {
			continue
		}

		var b strings.Builder
		last := 0
		for _, ref := range refs {
			if ref.Start < last {
				continue
			}
			replacement, ok := lookup(ref)
			if !ok {
				continue
			}
			b.WriteString(line[last:ref.Start])
			b.WriteString(replacement)
			last = ref.End
		}
		b.WriteString(line[last:])
		lines[i] = b.String()
	}

	return strings.Join(lines, "\n")
}

// TrimExtension returns name without its final extension. A leading dot does
// not start an extension.
func TrimExtension(name string) string {
	for i := len(name) - 1; i > 0 && name[i] != '/'; i-- {
		if name[i] == '.' && name[i-1] != '/' {
			return name[:i]
		}
	}
	return name
}
