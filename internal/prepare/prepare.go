// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/flatten"
	"github.com/arxivate/arxivate/internal/latex"
	"github.com/arxivate/arxivate/internal/packager"

	"github.com/charmbracelet/log"
)

const (
	// DefaultSuffix is appended to the main document's stem to name the
	// default output directory.
	DefaultSuffix = "_arxiv"

	totalSteps = 6
)

// Preparer runs the submission pipeline for one main document.
type Preparer struct {
	opts     Options
	logger   *log.Logger
	resolver *flatten.Resolver
	chain    *compiler.Chain
}

// New validates opts and builds a Preparer. Compiler command lines are
// parsed here so a bad configuration fails before anything is written.
func New(opts Options) (*Preparer, error) {
	opts = opts.clone()
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	p := &Preparer{
		opts:   opts,
		logger: logger,
		resolver: flatten.NewResolver(
			flatten.WithLogger(logger),
			flatten.WithGraphicsExtensions(opts.GraphicsExtensions),
			flatten.WithStyleFiles(opts.StyleFiles),
			flatten.WithGraphicsPath(opts.GraphicsPath),
		),
	}

	if !opts.SkipCompile {
		latexCmd, bibtexCmd := opts.Latex, opts.Bibtex
		if latexCmd == "" {
			latexCmd = "pdflatex"
		}
		if bibtexCmd == "" {
			bibtexCmd = "bibtex"
		}
		chain, err := compiler.NewChain(latexCmd, bibtexCmd,
			compiler.WithPasses(opts.Passes),
			compiler.WithTimeout(opts.Timeout),
			compiler.WithRunner(opts.Runner),
			compiler.WithLogger(logger),
		)
		if err != nil {
			return nil, fmt.Errorf("invalid compiler command: %w", err)
		}
		p.chain = chain
	}
	return p, nil
}

// Run executes the pipeline. The output directory is left in place when
// compilation fails so it can be inspected; the archive is only written
// after a successful build.
func (p *Preparer) Run(ctx context.Context) (*Report, error) {
	if _, err := checkMainFile(p.opts.MainFile); err != nil {
		return nil, err
	}
	outDir, err := flatten.Canonical(p.opts.outputDir())
	if err != nil {
		return nil, fileError("resolve output directory", p.opts.outputDir(), err)
	}
	report := &Report{OutputDir: outDir}

	p.step(1, "Resolving dependencies", "main", p.opts.MainFile)
	res, err := p.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	report.MainFile = res.Main.Flat
	report.Entries = res.Deps.Entries()
	report.Warnings = res.Warnings
	p.logger.Info("found dependencies", "files", len(report.Entries), "unresolved", len(report.Warnings))

	if err := checkOverlap(outDir, res); err != nil {
		return report, err
	}

	p.step(2, "Copying files", "dir", outDir)
	if err := p.copyFiles(outDir, res); err != nil {
		return report, err
	}

	p.step(3, "Stripping comments and rewriting paths")
	if err := p.writeSources(outDir, res); err != nil {
		return report, err
	}

	if p.opts.SkipCompile {
		p.step(4, "Compiling", "skipped", true)
		p.step(5, "Cleaning up", "skipped", true)
	} else {
		p.step(4, "Compiling", "passes", p.chainPasses())
		if err := p.compile(ctx, outDir, res, report); err != nil {
			return report, err
		}

		if p.opts.Clean {
			p.step(5, "Cleaning up")
			keep := make([]string, 0, len(report.Entries))
			for _, e := range report.Entries {
				keep = append(keep, e.Flat)
			}
			removed, err := packager.Cleanup(outDir, p.opts.TempExtensions, keep)
			report.Removed = removed
			if err != nil {
				return report, fileError("clean output directory", outDir, err)
			}
			p.logger.Debug("removed intermediates", "files", strings.Join(removed, " "))
		} else {
			p.step(5, "Cleaning up", "skipped", true)
		}
	}

	if p.opts.SkipArchive {
		p.step(6, "Archiving", "skipped", true)
		return report, nil
	}
	p.step(6, "Archiving", "zip", packager.ArchivePath(outDir))
	path, size, err := packager.Archive(outDir, packager.ArchivePath(outDir))
	if err != nil {
		return report, fileError("archive submission", outDir, err)
	}
	report.ArchivePath = path
	report.ArchiveSize = size
	return report, nil
}

// Resolve only computes the dependency map of the main document. Nothing is
// written.
func (p *Preparer) Resolve(ctx context.Context) (*flatten.Result, error) {
	mainFile, err := checkMainFile(p.opts.MainFile)
	if err != nil {
		return nil, err
	}
	res, err := p.resolver.Resolve(ctx, mainFile)
	if err != nil {
		if errors.Is(err, flatten.ErrMainFileNotFound) {
			return nil, mainFileError(p.opts.MainFile, err)
		}
		return nil, fileError("resolve dependencies", p.opts.MainFile, err)
	}
	return res, nil
}

func (p *Preparer) step(n int, msg string, keyvals ...any) {
	p.logger.Info(fmt.Sprintf("[%d/%d] %s", n, totalSteps, msg), keyvals...)
}

func (p *Preparer) chainPasses() int {
	if p.opts.Passes >= 1 {
		return p.opts.Passes
	}
	return compiler.DefaultPasses
}

func (p *Preparer) copyFiles(outDir string, res *flatten.Result) error {
	if err := packager.Recreate(outDir); err != nil {
		return fileError("recreate output directory", outDir, err)
	}
	for _, e := range res.Deps.Entries() {
		if e.Kind.IsTeX() {
			continue
		}
		p.logger.Debug("copy", "from", res.Rel(e.Source), "to", e.Flat)
		if err := packager.CopyFile(e.Source, filepath.Join(outDir, e.Flat)); err != nil {
			return fileError("copy file", res.Rel(e.Source), err)
		}
	}
	return nil
}

func (p *Preparer) writeSources(outDir string, res *flatten.Result) error {
	for _, e := range res.TeXSources() {
		data, err := os.ReadFile(e.Source)
		if err != nil {
			return fileError("read TeX source", res.Rel(e.Source), err)
		}
		content := latex.Rewrite(latex.StripComments(string(data)), res.Lookup(e.Source))
		p.logger.Debug("rewrite", "from", res.Rel(e.Source), "to", e.Flat)
		if err := packager.WriteFile(filepath.Join(outDir, e.Flat), content); err != nil {
			return fileError("write TeX source", e.Flat, err)
		}
	}
	return nil
}

func (p *Preparer) compile(ctx context.Context, outDir string, res *flatten.Result, report *Report) error {
	bib := res.HasBibliography()
	if err := p.chain.Verify(bib); err != nil {
		return compileError(outDir, res.Main.Flat, err)
	}

	result, err := p.chain.Run(ctx, outDir, res.Main.Flat, bib)
	if result != nil {
		report.Steps = result.Steps
	}
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		return compileError(outDir, res.Main.Flat, err)
	}
	report.Compiled = true

	pdf := filepath.Join(outDir, latex.TrimExtension(res.Main.Flat)+".pdf")
	if _, err := os.Stat(pdf); err == nil {
		report.PDF = pdf
	} else {
		p.logger.Warn("compiler produced no PDF", "expected", filepath.Base(pdf))
	}
	return nil
}

// checkMainFile returns the canonical main document path.
func checkMainFile(path string) (string, error) {
	if path == "" {
		return "", mainFileError(path, fmt.Errorf("%w: no path given", ErrMainFileNotFound))
	}
	abs, err := flatten.Canonical(path)
	if err != nil {
		return "", fileError("read main file", path, err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", mainFileError(path, fmt.Errorf("%w: %s", ErrMainFileNotFound, path))
	case err != nil:
		return "", fileError("read main file", path, err)
	case info.IsDir():
		return "", mainFileError(path, fmt.Errorf("%w: %s is a directory", ErrMainFileNotFound, path))
	}
	if !strings.EqualFold(filepath.Ext(abs), ".tex") {
		return "", notTeXError(path)
	}
	return abs, nil
}

// checkOverlap refuses output directories whose removal would delete the
// project directory or any file of the submission.
func checkOverlap(outDir string, res *flatten.Result) error {
	if within(outDir, res.BaseDir) {
		return overlapError(outDir, res.BaseDir)
	}
	for _, e := range res.Deps.Entries() {
		if within(outDir, e.Source) {
			return overlapError(outDir, res.Rel(e.Source))
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel))
}
