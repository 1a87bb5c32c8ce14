// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"time"

	"github.com/arxivate/arxivate/internal/prepare"

	"github.com/spf13/cobra"
)

// prepareFlags holds the flags shared by the root and prepare commands.
// Flags the user did not set leave the configured value alone.
type prepareFlags struct {
	output    string
	noCompile bool
	noZip     bool
	noClean   bool
	passes    int
	latex     string
	bibtex    string
	timeout   time.Duration
}

func (f *prepareFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default <main>_arxiv in the current directory)")
	fs.BoolVar(&f.noCompile, "no-compile", false, "do not compile the flattened project")
	fs.BoolVar(&f.noZip, "no-zip", false, "do not write <output>.zip")
	fs.BoolVar(&f.noClean, "no-clean", false, "keep compiler intermediates (.aux, .log, ...)")
	fs.IntVar(&f.passes, "passes", 0, "LaTeX runs after bibtex (default from config, 2)")
	fs.StringVar(&f.latex, "latex", "", "LaTeX command line (default from config, pdflatex)")
	fs.StringVar(&f.bibtex, "bibtex", "", "bibtex command line (default from config, bibtex)")
	fs.DurationVar(&f.timeout, "timeout", 0, "limit for each compiler step, e.g. 5m (default from config, none)")
}

// apply overrides opts with the flags set on cmd.
func (f *prepareFlags) apply(cmd *cobra.Command, opts *prepare.Options) error {
	changed := cmd.Flags().Changed
	opts.OutputDir = f.output
	if f.noCompile {
		opts.SkipCompile = true
	}
	if f.noZip {
		opts.SkipArchive = true
	}
	if f.noClean {
		opts.Clean = false
	}
	if changed("passes") {
		if f.passes < 1 {
			return usageError(errInvalidFlag("passes", "must be at least 1"))
		}
		opts.Passes = f.passes
	}
	if changed("latex") {
		opts.Latex = f.latex
	}
	if changed("bibtex") {
		opts.Bibtex = f.bibtex
	}
	if changed("timeout") {
		if f.timeout < 0 {
			return usageError(errInvalidFlag("timeout", "must not be negative"))
		}
		opts.Timeout = f.timeout
	}
	return nil
}

func newPrepareCommand(app *App) *cobra.Command {
	flags := &prepareFlags{}
	cmd := &cobra.Command{
		Use:   "prepare <main.tex>",
		Short: "Flatten, compile and zip a LaTeX project",
		Long: `Flatten, compile and zip a LaTeX project.

The output directory is deleted and recreated. It may not be the project
directory or contain any project file.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd, app, flags, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func runPrepare(cmd *cobra.Command, app *App, flags *prepareFlags, mainFile string) error {
	cfg, err := app.loadConfig(cmd.Context())
	if err != nil {
		return err
	}

	opts := prepare.OptionsFromConfig(cfg)
	opts.MainFile = mainFile
	if err := flags.apply(cmd, &opts); err != nil {
		return err
	}
	opts.Logger = app.logger()
	opts.Runner = app.Runner

	p, err := prepare.New(opts)
	if err != nil {
		return err
	}

	report, err := p.Run(cmd.Context())
	if report != nil {
		renderReport(app.stdout, report, err == nil, app.verbose)
	}
	if err != nil {
		return &ExitError{Code: exitCodeFor(err), Err: err}
	}
	return nil
}

func errInvalidFlag(name, reason string) error {
	return fmt.Errorf("invalid --%s: %s", name, reason)
}
