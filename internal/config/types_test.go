// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scheme ColorScheme
		want   bool
	}{
		{ColorSchemeAuto, true},
		{ColorSchemeDark, true},
		{ColorSchemeLight, true},
		{"", false},
		{"DARK", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.scheme), func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.scheme.IsValid()
			if isValid != tt.want {
				t.Errorf("ColorScheme(%q).IsValid() = %v, want %v", tt.scheme, isValid, tt.want)
			}
			if !tt.want && (len(errs) == 0 || !errors.Is(errs[0], ErrInvalidColorScheme)) {
				t.Errorf("errors should wrap ErrInvalidColorScheme, got %v", errs)
			}
		})
	}
}

func TestCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line   CommandLine
		fields []string
		valid  bool
	}{
		{"pdflatex", []string{"pdflatex"}, true},
		{"pdflatex -shell-escape", []string{"pdflatex", "-shell-escape"}, true},
		{`"/opt/tex live/pdflatex" -halt-on-error`, []string{"/opt/tex live/pdflatex", "-halt-on-error"}, true},
		{"$TEXBIN/pdflatex", []string{"$TEXBIN/pdflatex"}, true},
		{"   ", nil, false},
		{"pdflatex 'unterminated", nil, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.line), func(t *testing.T) {
			t.Parallel()

			isValid, errs := tt.line.IsValid()
			if isValid != tt.valid {
				t.Fatalf("CommandLine(%q).IsValid() = %v (%v), want %v", tt.line, isValid, errs, tt.valid)
			}
			if !tt.valid {
				if !errors.Is(errs[0], ErrInvalidCommandLine) {
					t.Errorf("error should wrap ErrInvalidCommandLine, got %v", errs[0])
				}
				return
			}

			fields, err := tt.line.Fields()
			if err != nil {
				t.Fatalf("Fields() returned error: %v", err)
			}
			if !slices.Equal(fields, tt.fields) {
				t.Errorf("Fields() = %q, want %q", fields, tt.fields)
			}
		})
	}
}

func TestScalarValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		check    func() (bool, []error)
		want     bool
		sentinel error
	}{
		{"passes 1", PassCount(1).IsValid, true, nil},
		{"passes max", MaxPasses.IsValid, true, nil},
		{"passes 0", PassCount(0).IsValid, false, ErrInvalidPassCount},
		{"passes 11", PassCount(11).IsValid, false, ErrInvalidPassCount},
		{"timeout zero", Timeout(0).IsValid, true, nil},
		{"timeout negative", Timeout(-time.Second).IsValid, false, ErrInvalidTimeout},
		{"suffix .aux", FileSuffix(".aux").IsValid, true, nil},
		{"suffix -blx.bib", FileSuffix("-blx.bib").IsValid, true, nil},
		{"suffix without dot", FileSuffix("aux").IsValid, false, ErrInvalidFileSuffix},
		{"suffix bare dot", FileSuffix(".").IsValid, false, ErrInvalidFileSuffix},
		{"suffix with slash", FileSuffix("./x").IsValid, false, ErrInvalidFileSuffix},
		{"dir suffix", DirSuffix("_arxiv").IsValid, true, nil},
		{"dir suffix empty", DirSuffix("").IsValid, false, ErrInvalidDirSuffix},
		{"dir suffix separator", DirSuffix("/out").IsValid, false, ErrInvalidDirSuffix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			isValid, errs := tt.check()
			if isValid != tt.want {
				t.Fatalf("IsValid() = %v (%v), want %v", isValid, errs, tt.want)
			}
			if tt.sentinel != nil && !errors.Is(errs[0], tt.sentinel) {
				t.Errorf("error %v should wrap %v", errs[0], tt.sentinel)
			}
		})
	}
}

func TestConfig_IsValid_CollectsSectionErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Compiler.Passes = 0
	cfg.Output.Suffix = ""
	cfg.UI.ColorScheme = "neon"

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("IsValid() should fail")
	}
	if len(errs) != 1 {
		t.Fatalf("expected one InvalidSectionError for the whole config, got %d", len(errs))
	}

	err := errs[0]
	for _, sentinel := range []error{
		ErrInvalidConfig, ErrInvalidCompilerConfig, ErrInvalidOutputConfig, ErrInvalidUIConfig,
		ErrInvalidPassCount, ErrInvalidDirSuffix, ErrInvalidColorScheme,
	} {
		if !errors.Is(err, sentinel) {
			t.Errorf("errors.Is(%v, %v) = false", err, sentinel)
		}
	}
	if errors.Is(err, ErrInvalidResolveConfig) {
		t.Error("the resolve section is valid and should not be reported")
	}

	var section *InvalidSectionError
	if !errors.As(err, &section) || section.Section != "config" || len(section.FieldErrors) != 3 {
		t.Errorf("unexpected section error: %#v", err)
	}
}

func TestTimeout_Text(t *testing.T) {
	t.Parallel()

	var to Timeout
	if err := to.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText() returned error: %v", err)
	}
	if to.Duration() != 90*time.Second {
		t.Errorf("Duration() = %s", to.Duration())
	}
	text, _ := to.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %q", text)
	}

	if err := to.UnmarshalText([]byte("later")); !errors.Is(err, ErrInvalidTimeout) {
		t.Errorf("UnmarshalText(later) error = %v, want ErrInvalidTimeout", err)
	}
}
