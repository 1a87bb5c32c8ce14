// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"errors"
	"slices"
	"testing"
)

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"pdflatex", []string{"pdflatex"}, false},
		{"  pdflatex   -shell-escape ", []string{"pdflatex", "-shell-escape"}, false},
		{`"/Library/TeX/texbin/pdflatex" -halt-on-error`, []string{"/Library/TeX/texbin/pdflatex", "-halt-on-error"}, false},
		{`latexmk -pdflatex='pdflatex %O %S'`, []string{"latexmk", "-pdflatex=pdflatex %O %S"}, false},
		{"$HOME/bin/bibtex", []string{"$HOME/bin/bibtex"}, false},
		{"", nil, true},
		{"pdflatex 'open", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCommand(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseCommand(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}

	if _, err := ParseCommand("   "); !errors.Is(err, ErrEmptyCommand) {
		t.Errorf("ParseCommand(blank) error = %v, want ErrEmptyCommand", err)
	}
}

func TestFormatCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		argv []string
		want string
	}{
		{[]string{"pdflatex", "-interaction=nonstopmode", "main.tex"}, "pdflatex '-interaction=nonstopmode' main.tex"},
		{[]string{"bibtex", "my paper"}, "bibtex 'my paper'"},
		{[]string{"echo", "it's"}, `echo "it's"`},
	}

	for _, tt := range tests {
		if got := FormatCommand(tt.argv); got != tt.want {
			t.Errorf("FormatCommand(%q) = %s, want %s", tt.argv, got, tt.want)
		}
	}

	// Formatting then parsing gives back the same words.
	argv := []string{"/opt/tex live/pdflatex", "-jobname", "a b", "main.tex"}
	back, err := ParseCommand(FormatCommand(argv))
	if err != nil || !slices.Equal(back, argv) {
		t.Errorf("round trip = %q, %v; want %q", back, err, argv)
	}
}
