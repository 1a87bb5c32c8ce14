// SPDX-License-Identifier: MPL-2.0

// Package compiler runs the pdflatex/bibtex chain that verifies a flattened
// submission builds on its own.
//
// A Chain turns configured command lines into Steps and executes them
// through a Runner, stopping at the first failing step. ExecRunner runs
// programs on the host; tests substitute their own Runner.
package compiler
