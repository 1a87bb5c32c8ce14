// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app. The root command itself
// prepares a submission, so "arxivate main.tex" and "arxivate prepare main.tex"
// are the same.
func NewRootCommand(app *App) *cobra.Command {
	flags := &prepareFlags{}
	rootCmd := &cobra.Command{
		Use:   "arxivate [main.tex]",
		Short: "Flatten a LaTeX project into an arXiv submission",
		Long: TitleStyle.Render("arxivate") + SubtitleStyle.Render(" - Flatten a LaTeX project into an arXiv submission") + `

arxivate follows \input, \include, \includegraphics, \bibliography and
\lstinputlisting from your main document, copies every file it finds into a
single flat directory, strips comments, rewrites the paths, checks that the
result compiles with pdflatex and bibtex, and zips it for upload.

` + SubtitleStyle.Render("Examples:") + `
  arxivate paper/main.tex              Write main_arxiv/ and main_arxiv.zip
  arxivate main.tex -o ../submission   Choose the output directory
  arxivate main.tex --no-compile       Skip the pdflatex check
  arxivate deps main.tex               List dependencies without writing
  arxivate config init                 Create a configuration file`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runPrepare(cmd, app, flags, args[0])
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/arxivate/config.cue, then ./arxivate.cue)")
	flags.register(rootCmd)

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	rootCmd.AddCommand(newPrepareCommand(app))
	rootCmd.AddCommand(newDepsCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newIssuesCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	app := NewApp(Dependencies{})
	return run(context.Background(), app, os.Args[1:])
}

// Execute runs the CLI and exits the process. It is called by main.main().
func Execute() {
	os.Exit(Main())
}

func run(ctx context.Context, app *App, args []string) int {
	rootCmd := NewRootCommand(app)
	rootCmd.SetArgs(args)

	// fang.WithVersion is required since fang overrides rootCmd.Version.
	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.renderError),
	)
	return int(exitCodeFor(err))
}

// renderError prints a failed command's error, the tail of the compiler
// output when a build step failed, and the matching issue guide pointer.
func (a *App) renderError(w io.Writer, _ fang.Styles, err error) {
	fmt.Fprintln(w, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.verbose))

	var stepErr *compiler.Error
	if errors.As(err, &stepErr) && stepErr.Output != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render("Last lines of "+stepErr.Step.Name+" output:"))
		fmt.Fprintln(w, outputTailStyle.Render(stepErr.Output))
	}

	if id := issue.IssueOf(err); id != 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("Run 'arxivate issues %d' for a guide to this problem.", id)))
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// usageArgs turns positional argument mistakes into invalid input exits.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(check(cmd, args))
	}
}
