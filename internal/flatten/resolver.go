// SPDX-License-Identifier: MPL-2.0

package flatten

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/arxivate/arxivate/internal/latex"

	"github.com/charmbracelet/log"
)

// ErrMainFileNotFound is returned when the main document does not exist.
var ErrMainFileNotFound = errors.New("main file not found")

// compilerOutputs are the files pdflatex and bibtex write next to the main
// document. Their names are reserved so that no copied file is overwritten.
var compilerOutputs = []string{
	".pdf", ".bbl", ".aux", ".log", ".out", ".blg", ".toc", ".lof", ".lot",
	".fls", ".synctex.gz", ".bcf", ".run.xml", ".nav", ".snm", ".vrb",
}

type (
	// Resolver computes the dependency closure of a LaTeX document.
	// A Resolver holds only settings; each Resolve call starts from scratch.
	Resolver struct {
		logger             *log.Logger
		graphicsExtensions []string
		styleFiles         bool
		graphicsPath       bool
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// resolution is the state of a single Resolve call.
	resolution struct {
		*Resolver
		baseDir      string
		deps         *DependencyMap
		queue        []string
		queued       map[string]struct{}
		graphicDirs  []string
		replacements map[resolutionKey]string
		missing      map[resolutionKey]struct{}
		warnings     []UnresolvedReference
		bibliography bool
	}

	resolutionKey struct {
		file string
		kind latex.Kind
		path string
	}
)

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithGraphicsExtensions replaces the extensions tried for \includegraphics
// arguments that omit one.
func WithGraphicsExtensions(exts []string) Option {
	return func(r *Resolver) {
		if len(exts) > 0 {
			r.graphicsExtensions = slices.Clone(exts)
		}
	}
}

// WithStyleFiles controls whether .sty and .cls files next to the main
// document are included.
func WithStyleFiles(enabled bool) Option {
	return func(r *Resolver) {
		r.styleFiles = enabled
	}
}

// WithGraphicsPath controls whether \graphicspath directories are searched.
func WithGraphicsPath(enabled bool) Option {
	return func(r *Resolver) {
		r.graphicsPath = enabled
	}
}

// NewResolver creates a Resolver. Without options it logs nothing, searches
// latex.DefaultGraphicsExtensions, and honours local style files and
// \graphicspath.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		logger:             log.New(io.Discard),
		graphicsExtensions: slices.Clone(latex.DefaultGraphicsExtensions),
		styleFiles:         true,
		graphicsPath:       true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks mainFile and everything it includes. The main document is
// always the first entry and keeps its own (sanitized) name.
func (r *Resolver) Resolve(ctx context.Context, mainFile string) (*Result, error) {
	main, err := Canonical(mainFile)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(main)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMainFileNotFound, mainFile)
		}
		return nil, fmt.Errorf("failed to stat main file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMainFileNotFound, mainFile)
	}

	run := &resolution{
		Resolver:     r,
		baseDir:      filepath.Dir(main),
		deps:         NewDependencyMap(),
		queued:       make(map[string]struct{}),
		replacements: make(map[resolutionKey]string),
		missing:      make(map[resolutionKey]struct{}),
	}

	mainEntry := run.deps.Add(main, latex.KindInput)
	stem := latex.TrimExtension(mainEntry.Flat)
	for _, ext := range compilerOutputs {
		run.deps.Reserve(stem + ext)
	}
	// \includegraphics{main} would otherwise pick up the compiled main.pdf.
	run.deps.reserveStem(latex.KindGraphic, stem)
	run.enqueue(main)

	if r.styleFiles {
		if err := run.addStyleFiles(); err != nil {
			return nil, err
		}
	}

	for len(run.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("dependency resolution canceled: %w", err)
		}
		file := run.queue[0]
		run.queue = run.queue[1:]
		if err := run.scan(file); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("resolved dependencies", "files", run.deps.Len(), "unresolved", len(run.warnings))

	return &Result{
		Main:         mainEntry,
		BaseDir:      run.baseDir,
		Deps:         run.deps,
		Warnings:     run.warnings,
		replacements: run.replacements,
		bibliography: run.bibliography,
	}, nil
}

// Canonical returns the absolute, cleaned path with symbolic links
// evaluated. For paths that do not exist yet, links are evaluated on the
// deepest existing ancestor and the missing tail is appended.
func Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	tail := ""
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(resolved, tail), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		tail = filepath.Join(filepath.Base(dir), tail)
		dir = parent
	}
}

func (run *resolution) enqueue(file string) {
	if _, ok := run.queued[file]; ok {
		return
	}
	run.queued[file] = struct{}{}
	run.queue = append(run.queue, file)
}

// addStyleFiles registers the package and class files that sit next to the
// main document. os.ReadDir sorts by name, which keeps the result stable.
func (run *resolution) addStyleFiles() error {
	entries, err := os.ReadDir(run.baseDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", run.baseDir, err)
	}
	for _, de := range entries {
		if !de.Type().IsRegular() {
			continue
		}
		if !slices.Contains(latex.StyleExtensions, strings.ToLower(filepath.Ext(de.Name()))) {
			continue
		}
		source, err := Canonical(filepath.Join(run.baseDir, de.Name()))
		if err != nil {
			return err
		}
		e := run.deps.Add(source, latex.KindStyle)
		if e.Flat != de.Name() {
			run.logger.Warn("local style file renamed; \\usepackage will not find it", "file", de.Name(), "flat", e.Flat)
		}
	}
	return nil
}

func (run *resolution) scan(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", run.rel(file), err)
	}
	run.logger.Debug("scanning", "file", run.rel(file))

	fromDir := filepath.Dir(file)
	latex.EachCodeLine(string(data), func(lineNo int, code string) {
		if run.graphicsPath {
			for _, dir := range latex.GraphicsPaths(code) {
				run.addGraphicDir(dir)
			}
		}
		for _, ref := range latex.ScanLine(code, lineNo) {
			run.resolve(file, fromDir, ref)
		}
	})
	return nil
}

func (run *resolution) addGraphicDir(dir string) {
	dir = filepath.FromSlash(dir)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(run.baseDir, dir)
	}
	if !slices.Contains(run.graphicDirs, dir) {
		run.graphicDirs = append(run.graphicDirs, dir)
	}
}

func (run *resolution) resolve(file, fromDir string, ref latex.Reference) {
	key := resolutionKey{file: file, kind: ref.Kind, path: ref.Path}
	if _, done := run.replacements[key]; done {
		return
	}
	if _, done := run.missing[key]; done {
		return
	}

	rule, _ := latex.RuleFor(ref.Kind)
	source, ok := run.locate(ref, rule, fromDir)
	if !ok {
		run.missing[key] = struct{}{}
		if rule.SystemFallback {
			run.logger.Debug("assuming file from the TeX installation", "kind", ref.Kind, "path", ref.Path)
			return
		}
		w := UnresolvedReference{File: run.rel(file), Line: ref.Line, Kind: ref.Kind, Path: ref.Path}
		run.warnings = append(run.warnings, w)
		run.logger.Warn("could not resolve reference", "file", w.File, "line", w.Line, "kind", w.Kind, "path", w.Path)
		return
	}

	entry, existed := run.deps.Lookup(source)
	if !existed {
		entry = run.deps.Add(source, ref.Kind)
		run.logger.Debug("found dependency", "kind", ref.Kind, "path", run.rel(source), "flat", entry.Flat)
	}
	if rule.Recurse && entry.Kind.IsTeX() {
		run.enqueue(source)
	}
	if ref.Kind == latex.KindBibliography {
		run.bibliography = true
	}

	replacement := entry.Flat
	if rule.DropExtension || !hasSuffixFold(ref.Path, filepath.Ext(source)) {
		replacement = latex.TrimExtension(replacement)
	}
	run.replacements[key] = replacement
}

// locate finds the file a reference names. Relative paths are tried against
// the main document's directory (where the compiler runs) before the
// referencing file's own directory, then any \graphicspath directories.
func (run *resolution) locate(ref latex.Reference, rule latex.Rule, fromDir string) (string, bool) {
	raw := filepath.FromSlash(ref.Path)

	dirs := []string{""}
	if !filepath.IsAbs(raw) {
		dirs = []string{run.baseDir}
		if fromDir != run.baseDir {
			dirs = append(dirs, fromDir)
		}
		if ref.Kind == latex.KindGraphic {
			dirs = append(dirs, run.graphicDirs...)
		}
	}

	exts := rule.Extensions
	if ref.Kind == latex.KindGraphic {
		exts = run.graphicsExtensions
	}

	for _, dir := range dirs {
		for _, name := range candidates(raw, exts, ref.HasExtension()) {
			p := filepath.Join(dir, name)
			if !isFile(p) {
				continue
			}
			source, err := Canonical(p)
			if err != nil {
				continue
			}
			return source, true
		}
	}
	return "", false
}

// candidates lists the names to try for raw: without an extension the
// candidate extensions come first, with one the literal name does.
func candidates(raw string, exts []string, hasExt bool) []string {
	out := make([]string, 0, len(exts)+1)
	if hasExt {
		out = append(out, raw)
	}
	for _, ext := range exts {
		out = append(out, raw+ext)
	}
	if !hasExt {
		out = append(out, raw)
	}
	return out
}

func (run *resolution) rel(path string) string {
	if rel, err := filepath.Rel(run.baseDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func hasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
