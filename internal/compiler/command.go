// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"errors"
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// ErrEmptyCommand is returned when a command line contains no words.
var ErrEmptyCommand = errors.New("empty command line")

// ParseCommand splits a command line into argv with POSIX shell quoting
// rules. Parameter expansions are kept literally; no shell is involved when
// the command later runs.
func ParseCommand(line string) ([]string, error) {
	argv, err := shell.Fields(line, func(name string) string { return "$" + name })
	if err != nil {
		return nil, fmt.Errorf("invalid command line %q: %w", line, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return argv, nil
}

// FormatCommand renders argv as a line that could be pasted into bash.
func FormatCommand(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			// Only strings with NUL bytes cannot be quoted.
			q = fmt.Sprintf("%q", arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}
