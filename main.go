// SPDX-License-Identifier: MPL-2.0

// Command arxivate flattens a LaTeX project into an arXiv submission.
package main

import cmd "github.com/arxivate/arxivate/cmd/arxivate"

func main() {
	cmd.Execute()
}
