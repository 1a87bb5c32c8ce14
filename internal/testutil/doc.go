// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include project fixtures (WriteProject, MustWriteFile),
// directory operations (MustChdir, MustMkdirAll) and stand-in compilers
// (FakeTool) that record their invocations instead of running TeX.
package testutil
