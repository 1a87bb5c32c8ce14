// SPDX-License-Identifier: MPL-2.0

package latex

import (
	"regexp"
	"strings"
)

// beginVerbatim matches environments whose body TeX reads without
// interpreting % as a comment character.
var beginVerbatim = regexp.MustCompile(`\\begin\s*\{(verbatim\*?|Verbatim\*?|BVerbatim|LVerbatim|lstlisting|minted|filecontents\*?)\}`)

// verbatimTracker follows \begin{verbatim} ... \end{verbatim} regions across
// successive lines. The zero value starts outside any region.
type verbatimTracker struct {
	end *regexp.Regexp
}

// inside reports whether line belongs to the body of a verbatim-like
// environment, and advances the tracker past it. The line holding \begin is
// not part of the body; the line holding \end is.
func (v *verbatimTracker) inside(line string) bool {
	if v.end != nil {
		if v.end.MatchString(line) {
			v.end = nil
		}
		return true
	}

	code := StripComment(line)
	m := beginVerbatim.FindStringSubmatchIndex(code)
	if m == nil {
		return false
	}
	end := regexp.MustCompile(`\\end\s*\{` + regexp.QuoteMeta(code[m[2]:m[3]]) + `\}`)
	if !end.MatchString(code[m[1]:]) {
		v.end = end
	}
	return false
}

// CommentIndex returns the byte offset of the first % in line that starts a
// comment, or -1. A % is escaped when it is preceded by an odd number of
// consecutive backslashes.
func CommentIndex(line string) int {
	backslashes := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			backslashes++
			continue
		case '%':
			if backslashes%2 == 0 {
				return i
			}
		}
		backslashes = 0
	}
	return -1
}

// StripComment returns line truncated at its first unescaped %. Lines without
// a comment are returned unchanged.
func StripComment(line string) string {
	if i := CommentIndex(line); i >= 0 {
		return line[:i]
	}
	return line
}

// StripComments removes comments from a whole TeX source for publication.
//
// Lines that held nothing but a comment are dropped, so a comment between two
// lines of a paragraph does not turn into a paragraph break. When code runs
// right up to the %, a bare % is kept to go on swallowing the end of line, as
// macro definitions split over several lines depend on it. Trailing
// whitespace is trimmed. Verbatim-like environments are copied untouched.
func StripComments(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))

	var verbatim verbatimTracker
	for _, line := range lines {
		if verbatim.inside(line) {
			out = append(out, line)
			continue
		}

		i := CommentIndex(line)
		if i < 0 {
			out = append(out, strings.TrimRight(line, " \t\r"))
			continue
		}

		code := line[:i]
		if strings.TrimSpace(code) == "" {
			continue
		}
		trimmed := strings.TrimRight(code, " \t")
		if len(trimmed) < len(code) {
			out = append(out, trimmed)
		} else {
			out = append(out, code+"%")
		}
	}

	return strings.Join(out, "\n")
}
