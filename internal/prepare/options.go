// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/config"

	"github.com/charmbracelet/log"
)

// Options configures a Preparer. Start from DefaultOptions or
// OptionsFromConfig; the zero value disables style files, \graphicspath and
// cleanup.
type Options struct {
	// MainFile is the document passed to pdflatex.
	MainFile string
	// OutputDir is the submission directory. Empty means
	// DefaultOutputDir(MainFile, Suffix) in the current directory.
	OutputDir string
	// Suffix names the default output directory.
	Suffix string

	// SkipCompile skips compilation and cleanup.
	SkipCompile bool
	// SkipArchive skips writing <OutputDir>.zip.
	SkipArchive bool
	// Clean removes files ending in one of TempExtensions after compiling.
	Clean          bool
	TempExtensions []string

	// Latex and Bibtex are command lines, split like a shell would.
	Latex  string
	Bibtex string
	// Passes is the number of LaTeX runs after bibtex.
	Passes int
	// Timeout bounds each compiler step; zero disables it.
	Timeout time.Duration

	GraphicsExtensions []string
	StyleFiles         bool
	GraphicsPath       bool

	// Logger receives progress; nil discards it.
	Logger *log.Logger
	// Runner executes the compiler; nil runs programs on the host.
	Runner compiler.Runner
}

// DefaultOptions returns the options of the default configuration.
func DefaultOptions(mainFile string) Options {
	opts := OptionsFromConfig(config.DefaultConfig())
	opts.MainFile = mainFile
	return opts
}

// OptionsFromConfig maps a loaded configuration onto Options. MainFile and
// OutputDir are left for the caller.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Suffix:             string(cfg.Output.Suffix),
		SkipArchive:        !cfg.Output.Zip,
		Clean:              cfg.Output.Clean,
		TempExtensions:     cfg.Output.TempExtensionStrings(),
		Latex:              string(cfg.Compiler.Latex),
		Bibtex:             string(cfg.Compiler.Bibtex),
		Passes:             int(cfg.Compiler.Passes),
		Timeout:            cfg.Compiler.Timeout.Duration(),
		GraphicsExtensions: cfg.Resolve.GraphicsExtensionStrings(),
		StyleFiles:         cfg.Resolve.StyleFiles,
		GraphicsPath:       cfg.Resolve.GraphicsPath,
	}
}

// DefaultOutputDir names the submission directory after the main document:
// paper/main.tex with suffix "_arxiv" gives main_arxiv, relative to the
// current directory.
func DefaultOutputDir(mainFile, suffix string) string {
	base := filepath.Base(mainFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}

func (o Options) outputDir() string {
	if o.OutputDir != "" {
		return o.OutputDir
	}
	return DefaultOutputDir(o.MainFile, o.Suffix)
}

func (o Options) clone() Options {
	o.TempExtensions = slices.Clone(o.TempExtensions)
	o.GraphicsExtensions = slices.Clone(o.GraphicsExtensions)
	return o
}
