// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// MaxPasses bounds the number of LaTeX passes after bibtex.
	MaxPasses PassCount = 10
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidCommandLine is returned when a CommandLine is blank or cannot be split into words.
	ErrInvalidCommandLine = errors.New("invalid command line")
	// ErrInvalidPassCount is returned when a PassCount is outside 1..MaxPasses.
	ErrInvalidPassCount = errors.New("invalid pass count")
	// ErrInvalidTimeout is returned when a Timeout is negative.
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrInvalidFileSuffix is returned when a FileSuffix cannot serve as an extension.
	ErrInvalidFileSuffix = errors.New("invalid file suffix")
	// ErrInvalidDirSuffix is returned when a DirSuffix is empty or contains a path separator.
	ErrInvalidDirSuffix = errors.New("invalid output directory suffix")
	// ErrInvalidCompilerConfig is the sentinel error wrapped by InvalidSectionError for the compiler section.
	ErrInvalidCompilerConfig = errors.New("invalid compiler config")
	// ErrInvalidResolveConfig is the sentinel error wrapped by InvalidSectionError for the resolve section.
	ErrInvalidResolveConfig = errors.New("invalid resolve config")
	// ErrInvalidOutputConfig is the sentinel error wrapped by InvalidSectionError for the output section.
	ErrInvalidOutputConfig = errors.New("invalid output config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidSectionError for the ui section.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidSectionError for the whole config.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// CommandLine is a compiler invocation as the user writes it in a shell,
	// e.g. "pdflatex -shell-escape". It is split into words with POSIX shell
	// rules before execution.
	CommandLine string

	// PassCount is the number of LaTeX runs after bibtex.
	PassCount int

	// Timeout bounds each compiler step. Zero means no limit.
	Timeout time.Duration

	// FileSuffix is a file name ending such as ".aux" or "-blx.bib".
	FileSuffix string

	// DirSuffix is appended to the main document's stem to name the
	// default output directory.
	DirSuffix string

	// InvalidValueError is returned when a scalar config value is rejected.
	// It wraps the value's sentinel (ErrInvalidColorScheme, ...) for errors.Is().
	InvalidValueError struct {
		Field  string
		Value  any
		Reason string
		kind   error
	}

	// InvalidSectionError collects the field errors of a config section.
	// It wraps the section's sentinel (ErrInvalidCompilerConfig, ...) for errors.Is().
	InvalidSectionError struct {
		Section     string
		FieldErrors []error
		kind        error
	}

	// Config holds the application configuration.
	Config struct {
		// Compiler configures the verification build.
		Compiler CompilerConfig `json:"compiler" mapstructure:"compiler"`
		// Resolve configures dependency discovery.
		Resolve ResolveConfig `json:"resolve" mapstructure:"resolve"`
		// Output configures the submission directory and archive.
		Output OutputConfig `json:"output" mapstructure:"output"`
		// UI configures the user interface.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// CompilerConfig configures the pdflatex/bibtex chain.
	CompilerConfig struct {
		// Latex is the LaTeX command line (default "pdflatex").
		Latex CommandLine `json:"latex" mapstructure:"latex"`
		// Bibtex is the bibliography command line (default "bibtex").
		Bibtex CommandLine `json:"bibtex" mapstructure:"bibtex"`
		// Passes is the number of LaTeX runs after bibtex (default 2).
		Passes PassCount `json:"passes" mapstructure:"passes"`
		// Timeout bounds each step; zero disables the limit.
		Timeout Timeout `json:"timeout" mapstructure:"timeout"`
	}

	// ResolveConfig configures how references are located.
	ResolveConfig struct {
		// GraphicsExtensions are tried in order for \includegraphics without an extension.
		GraphicsExtensions []FileSuffix `json:"graphics_extensions" mapstructure:"graphics_extensions"`
		// StyleFiles copies .sty/.cls files found next to the main document.
		StyleFiles bool `json:"style_files" mapstructure:"style_files"`
		// GraphicsPath honours \graphicspath search directories.
		GraphicsPath bool `json:"graphicspath" mapstructure:"graphicspath"`
	}

	// OutputConfig configures the flattened output.
	OutputConfig struct {
		// Suffix names the default output directory: <stem><suffix>.
		Suffix DirSuffix `json:"suffix" mapstructure:"suffix"`
		// Zip writes <outdir>.zip after a successful build.
		Zip bool `json:"zip" mapstructure:"zip"`
		// Clean removes compiler intermediates after the build.
		Clean bool `json:"clean" mapstructure:"clean"`
		// TempExtensions lists the file endings removed by Clean.
		TempExtensions []FileSuffix `json:"temp_extensions" mapstructure:"temp_extensions"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultTempExtensions are the intermediate files pdflatex, bibtex and the
// common packages leave behind.
var DefaultTempExtensions = []FileSuffix{
	".aux", ".log", ".out", ".blg", ".toc", ".lof", ".lot", ".fls",
	".fdb_latexmk", ".synctex.gz", ".nav", ".snm", ".vrb", ".brf", ".idx",
	".ilg", ".ind", ".glo", ".gls", ".glg", ".ist", ".acn", ".acr", ".alg",
	".run.xml", "-blx.bib", ".bcf",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Compiler: CompilerConfig{
			Latex:  "pdflatex",
			Bibtex: "bibtex",
			Passes: 2,
		},
		Resolve: ResolveConfig{
			GraphicsExtensions: []FileSuffix{".pdf", ".png", ".jpg", ".jpeg", ".eps", ".gif"},
			StyleFiles:         true,
			GraphicsPath:       true,
		},
		Output: OutputConfig{
			Suffix:         "_arxiv",
			Zip:            true,
			Clean:          true,
			TempExtensions: append([]FileSuffix(nil), DefaultTempExtensions...),
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, check := range []func() (bool, []error){
		c.Compiler.IsValid, c.Resolve.IsValid, c.Output.IsValid, c.UI.IsValid,
	} {
		if valid, fieldErrs := check(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	return sectionResult("config", ErrInvalidConfig, errs)
}

// IsValid returns whether the CompilerConfig has valid fields.
func (c CompilerConfig) IsValid() (bool, []error) {
	var errs []error
	errs = appendInvalid(errs, c.Latex.IsValid)
	errs = appendInvalid(errs, c.Bibtex.IsValid)
	errs = appendInvalid(errs, c.Passes.IsValid)
	errs = appendInvalid(errs, c.Timeout.IsValid)
	return sectionResult("compiler", ErrInvalidCompilerConfig, errs)
}

// IsValid returns whether the ResolveConfig has valid fields.
func (c ResolveConfig) IsValid() (bool, []error) {
	var errs []error
	for _, ext := range c.GraphicsExtensions {
		errs = appendInvalid(errs, ext.IsValid)
	}
	return sectionResult("resolve", ErrInvalidResolveConfig, errs)
}

// IsValid returns whether the OutputConfig has valid fields.
func (c OutputConfig) IsValid() (bool, []error) {
	var errs []error
	errs = appendInvalid(errs, c.Suffix.IsValid)
	for _, ext := range c.TempExtensions {
		errs = appendInvalid(errs, ext.IsValid)
	}
	return sectionResult("output", ErrInvalidOutputConfig, errs)
}

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	errs = appendInvalid(errs, c.ColorScheme.IsValid)
	return sectionResult("ui", ErrInvalidUIConfig, errs)
}

// GraphicsExtensionStrings returns the graphics extensions as plain strings.
func (c ResolveConfig) GraphicsExtensionStrings() []string {
	return suffixStrings(c.GraphicsExtensions)
}

// TempExtensionStrings returns the temporary file endings as plain strings.
func (c OutputConfig) TempExtensionStrings() []string {
	return suffixStrings(c.TempExtensions)
}

func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return invalid("ui.color_scheme", cs, "must be auto, dark or light", ErrInvalidColorScheme)
	}
}

func (l CommandLine) String() string { return string(l) }

// Fields splits the command line into words using POSIX shell quoting rules.
// Parameter expansions are left unexpanded.
func (l CommandLine) Fields() ([]string, error) {
	return shell.Fields(string(l), func(name string) string { return "$" + name })
}

// IsValid returns whether the command line names a program.
func (l CommandLine) IsValid() (bool, []error) {
	if strings.TrimSpace(string(l)) == "" {
		return invalid("compiler command", l, "must not be empty", ErrInvalidCommandLine)
	}
	fields, err := l.Fields()
	if err != nil {
		return invalid("compiler command", l, err.Error(), ErrInvalidCommandLine)
	}
	if len(fields) == 0 {
		return invalid("compiler command", l, "must name a program", ErrInvalidCommandLine)
	}
	return true, nil
}

// IsValid returns whether the pass count is within 1..MaxPasses.
func (p PassCount) IsValid() (bool, []error) {
	if p < 1 || p > MaxPasses {
		return invalid("compiler.passes", p, fmt.Sprintf("must be between 1 and %d", MaxPasses), ErrInvalidPassCount)
	}
	return true, nil
}

// Duration returns the timeout as a time.Duration.
func (t Timeout) Duration() time.Duration { return time.Duration(t) }

func (t Timeout) String() string { return time.Duration(t).String() }

// MarshalText encodes the timeout as a Go duration string.
func (t Timeout) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a Go duration string such as "90s" or "10m".
func (t *Timeout) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return &InvalidValueError{Field: "compiler.timeout", Value: string(text), Reason: "must be a duration such as 90s or 10m", kind: ErrInvalidTimeout}
	}
	*t = Timeout(d)
	return nil
}

// IsValid returns whether the timeout is non-negative.
func (t Timeout) IsValid() (bool, []error) {
	if t < 0 {
		return invalid("compiler.timeout", t, "must not be negative", ErrInvalidTimeout)
	}
	return true, nil
}

func (s FileSuffix) String() string { return string(s) }

// IsValid returns whether the suffix starts with '.' or '-' and contains no
// path separator.
func (s FileSuffix) IsValid() (bool, []error) {
	if len(s) < 2 || (s[0] != '.' && s[0] != '-') {
		return invalid("file suffix", s, `must start with "." or "-"`, ErrInvalidFileSuffix)
	}
	if strings.ContainsAny(string(s), `/\`) {
		return invalid("file suffix", s, "must not contain a path separator", ErrInvalidFileSuffix)
	}
	return true, nil
}

func (s DirSuffix) String() string { return string(s) }

// IsValid returns whether the suffix is non-empty and has no path separator.
func (s DirSuffix) IsValid() (bool, []error) {
	if strings.TrimSpace(string(s)) == "" {
		return invalid("output.suffix", s, "must not be empty", ErrInvalidDirSuffix)
	}
	if strings.ContainsAny(string(s), `/\`) {
		return invalid("output.suffix", s, "must not contain a path separator", ErrInvalidDirSuffix)
	}
	return true, nil
}

// Error implements the error interface for InvalidValueError.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, fmt.Sprint(e.Value), e.Reason)
}

// Unwrap returns the value's sentinel error for errors.Is() compatibility.
func (e *InvalidValueError) Unwrap() error { return e.kind }

// Error implements the error interface for InvalidSectionError.
func (e *InvalidSectionError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid %s: %s", e.Section, strings.Join(msgs, "; "))
}

// Unwrap returns the section's sentinel and the field errors for errors.Is().
func (e *InvalidSectionError) Unwrap() []error {
	return append([]error{e.kind}, e.FieldErrors...)
}

func invalid(field string, value any, reason string, kind error) (bool, []error) {
	return false, []error{&InvalidValueError{Field: field, Value: value, Reason: reason, kind: kind}}
}

func appendInvalid(errs []error, check func() (bool, []error)) []error {
	if valid, fieldErrs := check(); !valid {
		errs = append(errs, fieldErrs...)
	}
	return errs
}

func sectionResult(section string, kind error, errs []error) (bool, []error) {
	if len(errs) > 0 {
		return false, []error{&InvalidSectionError{Section: section, FieldErrors: errs, kind: kind}}
	}
	return true, nil
}

func suffixStrings(in []FileSuffix) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}
