// SPDX-License-Identifier: MPL-2.0

// Package latex recognizes the small, fixed set of LaTeX constructs that pull
// other files into a document (\input, \include, \includegraphics,
// \bibliography, \bibliographystyle, \lstinputlisting) and rewrites their path
// arguments.
//
// The package works line by line on raw source text. It does not build a
// document model: each construct is described by a Rule in the Rules table,
// and scanning is a regular-expression pass over comment-stripped lines.
// Lines inside verbatim-like environments are neither scanned nor stripped.
package latex
