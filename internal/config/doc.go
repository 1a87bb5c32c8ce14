// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from the file named by --config, else from
// ~/.config/arxivate/config.cue (XDG equivalent on Linux,
// ~/Library/Application Support/arxivate/config.cue on macOS,
// %APPDATA%\arxivate\config.cue on Windows), else from ./arxivate.cue.
// ARXIVATE_* environment variables override file values, e.g.
// ARXIVATE_COMPILER_PASSES=3.
//
// Files are validated against the embedded CUE schema (config_schema.cue)
// before being merged over the defaults.
package config
