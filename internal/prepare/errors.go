// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/flatten"
	"github.com/arxivate/arxivate/internal/issue"
	"github.com/arxivate/arxivate/internal/latex"
)

var (
	// ErrMainFileNotFound is returned when the main document does not exist.
	ErrMainFileNotFound = flatten.ErrMainFileNotFound
	// ErrNotTeXFile is returned when the main document is not a .tex file.
	ErrNotTeXFile = errors.New("main file is not a .tex file")
	// ErrOutputOverlapsSource is returned when recreating the output
	// directory would delete project files.
	ErrOutputOverlapsSource = errors.New("output directory overlaps the project")
)

func mainFileError(path string, err error) error {
	return issue.NewErrorContext().
		WithOperation("read main file").
		WithResource(path).
		WithIssue(issue.MainFileNotFoundId).
		WithSuggestion("Pass the path of the document you compile with pdflatex").
		Wrap(err).
		BuildError()
}

func notTeXError(path string) error {
	return issue.NewErrorContext().
		WithOperation("read main file").
		WithResource(path).
		WithIssue(issue.NotTeXFileId).
		WithSuggestion("The main file must have a .tex extension").
		Wrap(fmt.Errorf("%w: %s", ErrNotTeXFile, path)).
		BuildError()
}

func overlapError(outDir, source string) error {
	return issue.NewErrorContext().
		WithOperation("prepare output directory").
		WithResource(outDir).
		WithIssue(issue.OutputDirInvalidId).
		WithSuggestions(
			"Choose an output directory outside the project with -o",
			"Omit -o to use <main>_arxiv in the current directory",
		).
		Wrap(fmt.Errorf("%w: recreating %s would delete %s", ErrOutputOverlapsSource, outDir, source)).
		BuildError()
}

// fileError wraps filesystem failures, pointing at the permissions guide when
// access was denied.
func fileError(operation, resource string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(resource).
		Wrap(err)
	if errors.Is(err, fs.ErrPermission) {
		ctx.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check that you can read the project and write to the output directory's parent")
	}
	return ctx.BuildError()
}

func compileError(outDir, mainFlat string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("compile submission").
		WithResource(outDir).
		Wrap(err)

	var stepErr *compiler.Error
	switch {
	case errors.Is(err, compiler.ErrCompilerNotFound):
		ctx.WithIssue(issue.CompilerNotFoundId).
			WithSuggestions(
				"Install TeX Live, MacTeX or MiKTeX",
				"Set compiler.latex and compiler.bibtex in the config file",
				"Use --no-compile to only write the submission",
			)
	case errors.As(err, &stepErr):
		ctx.WithIssue(issue.CompilationFailedId).
			WithSuggestion(fmt.Sprintf("Inspect %s in the output directory", latex.TrimExtension(mainFlat)+".log"))
		if stepErr.Err != nil {
			ctx.WithSuggestion("Raise compiler.timeout in the config file if the document is large")
		}
	}
	return ctx.BuildError()
}
