// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	xslices "golang.org/x/exp/slices"
)

const (
	MainFileNotFoundId Id = iota + 1
	NotTeXFileId
	OutputDirInvalidId
	CompilerNotFoundId
	CompilationFailedId
	UnresolvedReferencesId
	ConfigLoadFailedId
	PermissionDeniedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		title    string      // one-line summary shown by "arxivate issues"
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return xslices.Clone(i.extLinks)
}

// Markdown returns the guide followed by its "See also" links.
func (i *Issue) Markdown() string {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
	}
	return md.String()
}

// Render renders the guide for the terminal with the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	mainFileNotFoundIssue = &Issue{
		id:    MainFileNotFoundId,
		title: "The main .tex file does not exist",
		mdMsg: `
# Main file not found!

The path given on the command line does not name an existing file.

## Things you can try:
- Check the spelling and pass the path relative to your current directory:
~~~
$ arxivate paper/main.tex
~~~

- Quote paths that contain spaces:
~~~
$ arxivate "My Paper/main.tex"
~~~`,
	}

	notTeXFileIssue = &Issue{
		id:    NotTeXFileId,
		title: "The main file is not a .tex document",
		mdMsg: `
# Not a TeX document!

arxivate starts from the document you would pass to pdflatex, which must end
in ` + "`.tex`" + `.

## Things you can try:
- Pass the file that contains ` + "`\\documentclass`" + `, not a section or the compiled PDF`,
	}

	outputDirInvalidIssue = &Issue{
		id:    OutputDirInvalidId,
		title: "The output directory cannot be used",
		mdMsg: `
# Output directory cannot be used!

The output directory is deleted and recreated on every run, so it may not be
the project directory itself or one of its parents.

## Things you can try:
- Let arxivate pick a sibling directory (` + "`<project>_arxiv`" + `) by omitting ` + "`-o`" + `
- Choose a directory outside the project:
~~~
$ arxivate main.tex -o ../submission
~~~`,
	}

	compilerNotFoundIssue = &Issue{
		id:    CompilerNotFoundId,
		title: "pdflatex or bibtex is not installed",
		mdMsg: `
# Compiler not found!

arxivate verifies the flattened project by compiling it with pdflatex and
bibtex, but they could not be found in your PATH.

## Things you can try:
- Install a TeX distribution (TeX Live, MacTeX or MiKTeX)
- Point arxivate at your binaries in the config file:
~~~cue
compiler: {
	latex:  "/usr/local/texlive/2025/bin/x86_64-linux/pdflatex"
	bibtex: "/usr/local/texlive/2025/bin/x86_64-linux/bibtex"
}
~~~

- Skip verification (the submission is still written):
~~~
$ arxivate main.tex --no-compile
~~~`,
		extLinks: []HttpLink{"https://tug.org/texlive/"},
	}

	compilationFailedIssue = &Issue{
		id:    CompilationFailedId,
		title: "The flattened project does not compile",
		mdMsg: `
# Compilation failed!

The flattened copy of your project did not compile. The output directory has
been left in place, with the compiler's log files, so you can inspect it.

## Things you can try:
- Read the first error in ` + "`<output>/<main>.log`" + `
- Check for files loaded by a macro arxivate does not follow, such as
  ` + "`\\usepackage`" + ` of a style in a subdirectory or ` + "`\\import`" + `
- Check that the original project compiles from a clean checkout`,
		extLinks: []HttpLink{"https://info.arxiv.org/help/submit_tex.html"},
	}

	unresolvedReferencesIssue = &Issue{
		id:    UnresolvedReferencesId,
		title: "Some referenced files could not be found",
		mdMsg: `
# Unresolved references!

Some ` + "`\\input`" + `, ` + "`\\includegraphics`" + ` or ` + "`\\bibliography`" + ` arguments did
not match a file. They were left as written and the files were not copied.

## Things you can try:
- Check the paths listed in the warnings
- Remember that relative paths are searched from the main document's directory
- Run ` + "`arxivate deps main.tex`" + ` to see what was resolved`,
	}

	configLoadFailedIssue = &Issue{
		id:    ConfigLoadFailedId,
		title: "The configuration file is invalid",
		mdMsg: `
# Failed to load configuration!

The CUE configuration file could not be parsed or does not match the schema.

## Things you can try:
- Show where arxivate looks for its config:
~~~
$ arxivate config path
~~~

- Write a fresh file with every default:
~~~
$ arxivate config init
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id:    PermissionDeniedId,
		title: "A file could not be read or written",
		mdMsg: `
# Permission denied!

arxivate could not read a project file or write to the output directory.

## Things you can try:
- Check the permissions of the project and of the output directory's parent
- Choose an output directory you own with ` + "`-o`",
	}

	issues = map[Id]*Issue{
		mainFileNotFoundIssue.Id():     mainFileNotFoundIssue,
		notTeXFileIssue.Id():           notTeXFileIssue,
		outputDirInvalidIssue.Id():     outputDirInvalidIssue,
		compilerNotFoundIssue.Id():     compilerNotFoundIssue,
		compilationFailedIssue.Id():    compilationFailedIssue,
		unresolvedReferencesIssue.Id(): unresolvedReferencesIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, id := range slices.Sorted(maps.Keys(issues)) {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
