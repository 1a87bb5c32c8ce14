// SPDX-License-Identifier: MPL-2.0

// Package prepare turns a LaTeX project into an arXiv submission.
//
// A Preparer runs six steps in order: resolve the dependencies of the main
// document, copy them into a flat output directory, strip comments from and
// rewrite every TeX source, compile the result, remove compiler leftovers and
// zip the directory. Compilation and archiving can be skipped.
package prepare
