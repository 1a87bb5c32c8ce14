// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/prepare"
	"github.com/arxivate/arxivate/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCodeFor classifies err: bad input is 2, compiler failures are 3 and
// everything else is 1.
func exitCodeFor(err error) types.ExitCode {
	var exitErr *ExitError
	switch {
	case err == nil:
		return types.ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, prepare.ErrMainFileNotFound), errors.Is(err, prepare.ErrNotTeXFile):
		return types.ExitInvalidInput
	case errors.Is(err, compiler.ErrCompileFailed), errors.Is(err, compiler.ErrCompilerNotFound):
		return types.ExitCompileFailed
	default:
		return types.ExitFailure
	}
}

// usageError marks command line mistakes caught by cobra.
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: types.ExitInvalidInput, Err: err}
}
