// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors carry the failed operation, the resource involved and suggestions
// for fixing the problem. Recurring problems are also described by a catalog
// of Markdown guides that the CLI renders in the terminal.
package issue
