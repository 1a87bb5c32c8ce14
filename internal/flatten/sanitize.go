// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"fmt"
	"strings"

	"github.com/arxivate/arxivate/internal/latex"
)

// fallbackName is used when sanitizing leaves nothing usable.
const fallbackName = "file"

// Sanitize maps a file base name onto the characters arXiv accepts in
// submission file names: ASCII letters, digits, '_', '-' and '.'. Every other
// character, including each non-ASCII rune, becomes '_'.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	s := b.String()
	if strings.Trim(s, ".") == "" {
		return fallbackName
	}
	return s
}

// withSuffix inserts _n before the extension of name: fig.png -> fig_1.png.
func withSuffix(name string, n int) string {
	stem := latex.TrimExtension(name)
	return fmt.Sprintf("%s_%d%s", stem, n, name[len(stem):])
}
