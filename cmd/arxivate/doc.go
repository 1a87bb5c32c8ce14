// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for arxivate.
//
// The root command prepares a submission from a main .tex file; subcommands
// list dependencies without writing anything, manage the configuration file
// and explain common failures.
package cmd
