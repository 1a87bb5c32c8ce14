// SPDX-License-Identifier: MPL-2.0

package prepare

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/config"
	"github.com/arxivate/arxivate/internal/issue"
	"github.com/arxivate/arxivate/internal/latex"
	"github.com/arxivate/arxivate/internal/testutil"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paperMain = `\documentclass{article}
\usepackage{mystyle}
\begin{document}
\input{sections/intro} % the introduction
% \input{unused}
\includegraphics[width=\linewidth]{figs/plot.png}
\bibliographystyle{plain}
\bibliography{refs}
\end{document}
`

func paperProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteProject(t, map[string]string{
		"00_main.tex":        paperMain,
		"mystyle.sty":        `\ProvidesPackage{mystyle}`,
		"refs.bib":           "@article{a, title={A}}\n",
		"sections/intro.tex": "Intro.%TODO cite more\n\\includegraphics{figs/plot}\n",
		"figs/plot.png":      "png",
		"unused.tex":         "never referenced\n",
	})
}

// fakeTeX mimics pdflatex and bibtex by writing the files they would leave
// in the working directory.
type fakeTeX struct {
	mu    sync.Mutex
	calls [][]string
	// fail makes the call with this index exit with status 2 (1-based).
	fail int
	// missing names programs LookPath cannot find.
	missing []string
}

func (f *fakeTeX) Run(_ context.Context, dir string, argv []string) (*compiler.Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, argv)
	n := len(f.calls)
	f.mu.Unlock()

	if n == f.fail {
		return &compiler.Output{ExitCode: 2, Stdout: "! Undefined control sequence.\nl.3 \\foo"}, nil
	}

	stem := latex.TrimExtension(argv[len(argv)-1])
	var outputs []string
	switch filepath.Base(argv[0]) {
	case "bibtex":
		outputs = []string{".bbl", ".blg"}
	default:
		outputs = []string{".aux", ".log", ".pdf"}
	}
	for _, ext := range outputs {
		if err := os.WriteFile(filepath.Join(dir, stem+ext), []byte(argv[0]), 0o644); err != nil {
			return nil, err
		}
	}
	return &compiler.Output{Stdout: "ok"}, nil
}

func (f *fakeTeX) LookPath(name string) (string, error) {
	if slices.Contains(f.missing, name) {
		return "", compiler.ErrCompilerNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeTeX) programs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, argv := range f.calls {
		out = append(out, argv[0])
	}
	return out
}

func newOptions(t *testing.T, root string) Options {
	t.Helper()
	opts := DefaultOptions(filepath.Join(root, "00_main.tex"))
	opts.OutputDir = filepath.Join(t.TempDir(), "paper_arxiv")
	return opts
}

func run(t *testing.T, opts Options) (*Report, error) {
	t.Helper()
	p, err := New(opts)
	require.NoError(t, err)
	return p.Run(context.Background())
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer testutil.MustClose(t, r)
	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	return names
}

func TestRunSkipCompile(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := newOptions(t, root)
	opts.SkipCompile = true

	report, err := run(t, opts)
	require.NoError(t, err)

	assert.Equal(t, "00_main.tex", report.MainFile)
	assert.False(t, report.Compiled)
	assert.Empty(t, report.Steps)
	assert.Empty(t, report.Warnings)

	files := []string{"00_main.tex", "intro.tex", "mystyle.sty", "plot.png", "refs.bib"}
	assert.Equal(t, files, testutil.ListFiles(t, report.OutputDir))

	main := testutil.MustReadFile(t, filepath.Join(report.OutputDir, "00_main.tex"))
	assert.Contains(t, main, `\input{intro}`+"\n")
	assert.Contains(t, main, `\includegraphics[width=\linewidth]{plot.png}`)
	assert.Contains(t, main, `\bibliography{refs}`)
	assert.NotContains(t, main, "unused")
	assert.NotContains(t, main, "%")

	intro := testutil.MustReadFile(t, filepath.Join(report.OutputDir, "intro.tex"))
	assert.Equal(t, "Intro.%\n\\includegraphics{plot}\n", intro)

	assert.Equal(t, "paper_arxiv.zip", filepath.Base(report.ArchivePath))
	assert.Equal(t, files, zipNames(t, report.ArchivePath))
	info, err := os.Stat(report.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), report.ArchiveSize)
}

func TestRunCompiles(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	tex := &fakeTeX{}
	opts := newOptions(t, root)
	opts.Runner = tex

	report, err := run(t, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"pdflatex", "bibtex", "pdflatex", "pdflatex"}, tex.programs())
	require.Len(t, report.Steps, 4)
	assert.Equal(t, "bibtex", report.Steps[1].Name)
	assert.True(t, report.Compiled)
	assert.Equal(t, "00_main.pdf", filepath.Base(report.PDF))

	assert.Equal(t, []string{"00_main.aux", "00_main.blg", "00_main.log"}, report.Removed)
	want := []string{"00_main.bbl", "00_main.pdf", "00_main.tex", "intro.tex", "mystyle.sty", "plot.png", "refs.bib"}
	assert.Equal(t, want, testutil.ListFiles(t, report.OutputDir))
	assert.Equal(t, want, zipNames(t, report.ArchivePath))
}

func TestRunWithoutBibliographySkipsBibtex(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"00_main.tex": "\\documentclass{article}\n\\begin{document}Hi\\end{document}\n",
	})
	tex := &fakeTeX{}
	opts := newOptions(t, root)
	opts.Runner = tex
	opts.Passes = 1
	opts.SkipArchive = true

	report, err := run(t, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"pdflatex", "pdflatex"}, tex.programs())
	assert.Empty(t, report.ArchivePath)
	testutil.AssertNotExists(t, report.OutputDir+".zip")
}

func TestRunKeepsIntermediatesWithoutClean(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := newOptions(t, root)
	opts.Runner = &fakeTeX{}
	opts.Clean = false

	report, err := run(t, opts)
	require.NoError(t, err)
	assert.Empty(t, report.Removed)
	assert.Contains(t, testutil.ListFiles(t, report.OutputDir), "00_main.aux")
}

func TestRunCompileFailure(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	tex := &fakeTeX{fail: 2}
	opts := newOptions(t, root)
	opts.Runner = tex

	report, err := run(t, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, compiler.ErrCompileFailed)
	assert.Equal(t, issue.CompilationFailedId, issue.IssueOf(err))

	var stepErr *compiler.Error
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "bibtex", stepErr.Step.Name)
	assert.Contains(t, stepErr.Output, "Undefined control sequence")

	require.NotNil(t, report)
	assert.Len(t, report.Steps, 2)
	assert.False(t, report.Compiled)
	assert.Len(t, tex.programs(), 2)

	// The failed build stays for inspection, without an archive.
	assert.Contains(t, testutil.ListFiles(t, report.OutputDir), "00_main.log")
	testutil.AssertNotExists(t, report.OutputDir+".zip")

	var actionable *issue.ActionableError
	require.ErrorAs(t, err, &actionable)
	assert.Contains(t, actionable.Suggestions, "Inspect 00_main.log in the output directory")
}

func TestRunCompilerNotFound(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	tex := &fakeTeX{missing: []string{"bibtex"}}
	opts := newOptions(t, root)
	opts.Runner = tex

	_, err := run(t, opts)
	require.ErrorIs(t, err, compiler.ErrCompilerNotFound)
	assert.Equal(t, issue.CompilerNotFoundId, issue.IssueOf(err))
	assert.Empty(t, tex.programs())
}

func TestRunMainFileErrors(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"paper.md":       "# not tex",
		"dir.tex/a.tex":  "",
		"upper/MAIN.TEX": "\\documentclass{article}\n",
	})

	tests := []struct {
		name  string
		main  string
		err   error
		issue issue.Id
	}{
		{"missing", filepath.Join(root, "nope.tex"), ErrMainFileNotFound, issue.MainFileNotFoundId},
		{"empty", "", ErrMainFileNotFound, issue.MainFileNotFoundId},
		{"directory", filepath.Join(root, "dir.tex"), ErrMainFileNotFound, issue.MainFileNotFoundId},
		{"not tex", filepath.Join(root, "paper.md"), ErrNotTeXFile, issue.NotTeXFileId},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions(tt.main)
			opts.OutputDir = filepath.Join(t.TempDir(), "out")
			opts.SkipCompile = true

			report, err := run(t, opts)
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, report)
			assert.Equal(t, tt.issue, issue.IssueOf(err))
			testutil.AssertNotExists(t, opts.OutputDir)
		})
	}

	t.Run("upper case extension", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions(filepath.Join(root, "upper", "MAIN.TEX"))
		opts.OutputDir = filepath.Join(t.TempDir(), "out")
		opts.SkipCompile = true

		_, err := run(t, opts)
		require.NoError(t, err)
	})
}

func TestRunRefusesOverlap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  func(root string) string
	}{
		{"project dir", func(root string) string { return root }},
		{"parent of project", func(root string) string { return filepath.Dir(root) }},
		{"source subdir", func(root string) string { return filepath.Join(root, "figs") }},
		{"main file", func(root string) string { return filepath.Join(root, "00_main.tex") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := paperProject(t)
			opts := DefaultOptions(filepath.Join(root, "00_main.tex"))
			opts.OutputDir = tt.out(root)
			opts.SkipCompile = true

			_, err := run(t, opts)
			require.ErrorIs(t, err, ErrOutputOverlapsSource)
			assert.Equal(t, issue.OutputDirInvalidId, issue.IssueOf(err))

			assert.FileExists(t, filepath.Join(root, "00_main.tex"))
			assert.FileExists(t, filepath.Join(root, "figs", "plot.png"))
		})
	}
}

func TestRunOutputInsideProject(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := DefaultOptions(filepath.Join(root, "00_main.tex"))
	opts.OutputDir = filepath.Join(root, "build", "arxiv")
	opts.SkipCompile = true

	report, err := run(t, opts)
	require.NoError(t, err)
	assert.Contains(t, testutil.ListFiles(t, report.OutputDir), "00_main.tex")
}

func TestRunReplacesStaleOutput(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := newOptions(t, root)
	opts.SkipCompile = true
	opts.SkipArchive = true
	testutil.MustWriteFile(t, filepath.Join(opts.OutputDir, "old_figure.png"), "stale")
	testutil.MustWriteFile(t, opts.OutputDir+".zip", "stale")

	report, err := run(t, opts)
	require.NoError(t, err)
	assert.NotContains(t, testutil.ListFiles(t, report.OutputDir), "old_figure.png")
	testutil.AssertNotExists(t, opts.OutputDir+".zip")
}

func TestRunReportsUnresolvedReferences(t *testing.T) {
	t.Parallel()

	root := testutil.WriteProject(t, map[string]string{
		"00_main.tex": "\\input{missing}\n\\includegraphics{gone.png}\n",
	})
	opts := newOptions(t, root)
	opts.SkipCompile = true
	opts.SkipArchive = true

	report, err := run(t, opts)
	require.NoError(t, err)
	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "missing", report.Warnings[0].Path)

	main := testutil.MustReadFile(t, filepath.Join(report.OutputDir, "00_main.tex"))
	assert.Equal(t, "\\input{missing}\n\\includegraphics{gone.png}\n", main)
}

func TestRunLogsSteps(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	root := paperProject(t)
	opts := newOptions(t, root)
	opts.Runner = &fakeTeX{}
	opts.Logger = log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})

	_, err := run(t, opts)
	require.NoError(t, err)

	out := buf.String()
	for i := 1; i <= 6; i++ {
		assert.Contains(t, out, "["+string(rune('0'+i))+"/6]")
	}
	assert.Less(t, strings.Index(out, "[1/6]"), strings.Index(out, "[6/6]"))
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := newOptions(t, root)
	opts.Runner = &fakeTeX{}

	p, err := New(opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, compiler.ErrCompileFailed))
}

func TestNewRejectsBadCommand(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions("main.tex")
	opts.Latex = `pdflatex "unterminated`
	_, err := New(opts)
	require.Error(t, err)

	opts.SkipCompile = true
	_, err = New(opts)
	require.NoError(t, err)
}

func TestDefaultOutputDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		main, suffix, want string
	}{
		{"main.tex", "_arxiv", "main_arxiv"},
		{filepath.Join("paper", "00_main.tex"), "_arxiv", "00_main_arxiv"},
		{"thesis.TEX", "-submission", "thesis-submission"},
		{"notes", "_x", "notes_x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultOutputDir(tt.main, tt.suffix), tt.main)
	}
}

func TestRunDefaultOutputDirInWorkingDir(t *testing.T) {
	root := paperProject(t)
	work := t.TempDir()
	restore := testutil.MustChdir(t, work)
	defer restore()

	opts := DefaultOptions(filepath.Join(root, "00_main.tex"))
	opts.SkipCompile = true
	opts.Suffix = ""

	report, err := run(t, opts)
	require.NoError(t, err)
	assert.Equal(t, "00_main_arxiv", filepath.Base(report.OutputDir))
	assert.FileExists(t, filepath.Join(work, "00_main_arxiv.zip"))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Compiler.Latex = "lualatex -shell-escape"
	cfg.Compiler.Passes = 3
	cfg.Output.Zip = false
	cfg.Output.Clean = false
	cfg.Resolve.StyleFiles = false

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "lualatex -shell-escape", opts.Latex)
	assert.Equal(t, "bibtex", opts.Bibtex)
	assert.Equal(t, 3, opts.Passes)
	assert.True(t, opts.SkipArchive)
	assert.False(t, opts.Clean)
	assert.False(t, opts.StyleFiles)
	assert.True(t, opts.GraphicsPath)
	assert.Equal(t, "_arxiv", opts.Suffix)
	assert.Contains(t, opts.TempExtensions, ".aux")
	assert.Equal(t, []string{".pdf", ".png", ".jpg", ".jpeg", ".eps", ".gif"}, opts.GraphicsExtensions)
}

func TestResolveWritesNothing(t *testing.T) {
	t.Parallel()

	root := paperProject(t)
	opts := newOptions(t, root)

	p, err := New(opts)
	require.NoError(t, err)
	res, err := p.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "00_main.tex", res.Main.Flat)
	assert.Equal(t, 5, res.Deps.Len())
	assert.True(t, res.HasBibliography())
	testutil.AssertNotExists(t, opts.OutputDir)
}
