// SPDX-License-Identifier: MPL-2.0

// Package packager writes the flat submission directory and turns it into
// the archive uploaded to arXiv.
//
// It knows nothing about LaTeX: callers decide which files go in and which
// extensions count as compiler leftovers.
package packager
