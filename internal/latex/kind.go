// SPDX-License-Identifier: MPL-2.0

package latex

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// KindInput is a nested TeX file pulled in with \input.
	KindInput Kind = iota + 1
	// KindInclude is a nested TeX file pulled in with \include.
	KindInclude
	// KindGraphic is an image referenced by \includegraphics.
	KindGraphic
	// KindBibliography is a .bib database named by \bibliography.
	KindBibliography
	// KindBibliographyStyle is a .bst style named by \bibliographystyle.
	KindBibliographyStyle
	// KindListing is a source file embedded with \lstinputlisting.
	KindListing
	// KindStyle is a local .sty or .cls file found next to the main document.
	// It has no reference pattern; files of this kind come from a directory scan.
	KindStyle
)

// ErrInvalidKind is returned when a Kind value is not one of the defined kinds.
var ErrInvalidKind = errors.New("invalid reference kind")

type (
	// Kind identifies which LaTeX construct produced a reference.
	Kind int

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// Rule describes how one construct is recognized, resolved and rewritten.
	Rule struct {
		// Kind is the construct this rule matches.
		Kind Kind
		// Command is the macro name without the leading backslash.
		Command string
		// Extensions are tried, in order, when locating the referenced file.
		Extensions []string
		// List marks comma-separated arguments such as \bibliography{a,b}.
		List bool
		// Recurse marks references to TeX sources that must be scanned in turn.
		Recurse bool
		// DropExtension forces rewritten arguments to omit the file extension.
		DropExtension bool
		// SystemFallback means an unresolved reference most likely names a file
		// shipped with the TeX installation (e.g. plain.bst), not a missing one.
		SystemFallback bool

		pattern *regexp.Regexp
	}
)

// DefaultGraphicsExtensions is the search order pdflatex users most often rely
// on when \includegraphics omits the extension.
var DefaultGraphicsExtensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".eps", ".gif"}

// optionGroup matches zero to two bracketed option groups before the argument.
const optionGroup = `(?:\s*\[[^\]]*\]){0,2}`

// Rules is the closed set of recognized constructs. The order is the order in
// which references on the same line are reported when spans tie.
var Rules = []Rule{
	{
		Kind:       KindInput,
		Command:    "input",
		Extensions: []string{".tex"},
		Recurse:    true,
		pattern:    regexp.MustCompile(`\\input\s*\{([^}]*)\}`),
	},
	{
		Kind:          KindInclude,
		Command:       "include",
		Extensions:    []string{".tex"},
		Recurse:       true,
		DropExtension: true,
		pattern:       regexp.MustCompile(`\\include\s*\{([^}]*)\}`),
	},
	{
		Kind:       KindGraphic,
		Command:    "includegraphics",
		Extensions: DefaultGraphicsExtensions,
		pattern:    regexp.MustCompile(`\\includegraphics\*?` + optionGroup + `\s*\{([^}]*)\}`),
	},
	{
		Kind:          KindBibliography,
		Command:       "bibliography",
		Extensions:    []string{".bib"},
		List:          true,
		DropExtension: true,
		pattern:       regexp.MustCompile(`\\bibliography\s*\{([^}]*)\}`),
	},
	{
		Kind:           KindBibliographyStyle,
		Command:        "bibliographystyle",
		Extensions:     []string{".bst"},
		DropExtension:  true,
		SystemFallback: true,
		pattern:        regexp.MustCompile(`\\bibliographystyle\s*\{([^}]*)\}`),
	},
	{
		Kind:    KindListing,
		Command: "lstinputlisting",
		pattern: regexp.MustCompile(`\\lstinputlisting` + optionGroup + `\s*\{([^}]*)\}`),
	},
}

// StyleExtensions are the file extensions picked up by the local style scan.
var StyleExtensions = []string{".sty", ".cls"}

// RuleFor returns the rule for kind. KindStyle has no rule.
func RuleFor(kind Kind) (Rule, bool) {
	for _, r := range Rules {
		if r.Kind == kind {
			return r, true
		}
	}
	return Rule{}, false
}

// String returns the construct name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindInclude:
		return "include"
	case KindGraphic:
		return "graphic"
	case KindBibliography:
		return "bibliography"
	case KindBibliographyStyle:
		return "bibliography-style"
	case KindListing:
		return "listing"
	case KindStyle:
		return "style"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name for JSON and TOML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindInput; c <= KindStyle; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidKind, text)
}

// IsValid returns whether the Kind is one of the defined kinds,
// and a list of validation errors if it is not.
func (k Kind) IsValid() (bool, []error) {
	if k >= KindInput && k <= KindStyle {
		return true, nil
	}
	return false, []error{&InvalidKindError{Value: k}}
}

// IsTeX reports whether files of this kind are TeX sources that get scanned,
// comment-stripped and rewritten.
func (k Kind) IsTeX() bool {
	return k == KindInput || k == KindInclude
}

// Family folds kinds that resolve to the same sort of file, so that
// \input{a} and \include{a} are treated alike when flat names are assigned.
func (k Kind) Family() Kind {
	if k == KindInclude {
		return KindInput
	}
	return k
}

// Error implements the error interface for InvalidKindError.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid reference kind %d", int(e.Value))
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }
