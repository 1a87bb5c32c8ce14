// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/flatten"
)

// Report describes a run. On failure Run returns the part completed so far.
type Report struct {
	// MainFile is the flat name of the main document.
	MainFile string
	// OutputDir is the absolute submission directory.
	OutputDir string
	// Entries lists the copied files with their flat names.
	Entries []flatten.Entry
	// Warnings lists references that matched no file.
	Warnings []flatten.UnresolvedReference
	// Steps lists the compiler invocations that ran.
	Steps []compiler.StepResult
	// Compiled is set once every compiler step succeeded.
	Compiled bool
	// PDF is the compiled document, empty when none was produced.
	PDF string
	// Removed lists the intermediate files deleted after compiling.
	Removed []string
	// ArchivePath is the written archive, empty when archiving was skipped.
	ArchivePath string
	// ArchiveSize is the archive size in bytes.
	ArchiveSize int64
}
