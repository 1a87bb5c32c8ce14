// SPDX-License-Identifier: MPL-2.0

// Package flatten resolves the files a LaTeX document depends on and assigns
// each one a unique name in a single flat directory.
//
// Resolution starts at the main document, follows \input and \include
// transitively, and records every graphic, bibliography, listing and local
// style file along the way. The result is a DependencyMap from canonical
// source path to flat file name, plus the replacement text for each reference
// so that the rewriting pass agrees with resolution.
//
// A reference that cannot be located is reported as an UnresolvedReference
// and skipped; resolution only fails when the main document itself is
// missing or a source cannot be read.
package flatten
