// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/arxivate/arxivate/internal/compiler"
	"github.com/arxivate/arxivate/internal/prepare"

	"github.com/dustin/go-humanize"
)

// renderReport prints the outcome of a prepare run. After a failed build it
// points at the output directory kept for inspection.
func renderReport(w io.Writer, r *prepare.Report, ok, verbose bool) {
	if ok {
		fmt.Fprintf(w, "%s Submission ready: %s (%d files)\n",
			SuccessStyle.Render("✓"), CmdStyle.Render(r.OutputDir), len(r.Entries))
	} else if len(r.Steps) > 0 {
		fmt.Fprintf(w, "%s Output left in %s for inspection\n",
			WarningStyle.Render("!"), CmdStyle.Render(r.OutputDir))
	}

	if verbose {
		for _, e := range r.Entries {
			fmt.Fprintf(w, "  %s %s %s\n",
				VerboseStyle.Render(e.Kind.String()), e.Flat, SubtitleStyle.Render("<- "+e.Source))
		}
	}

	if len(r.Steps) > 0 {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("compiled:"), describeSteps(r.Steps))
		if verbose {
			for _, s := range r.Steps {
				fmt.Fprintf(w, "    %s %s %s\n",
					VerboseStyle.Render(s.Name), compiler.FormatCommand(s.Argv),
					SubtitleStyle.Render(s.Duration.Round(time.Millisecond).String()))
			}
		}
	}
	if r.PDF != "" {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("pdf:"), filepath.Base(r.PDF))
	}
	if len(r.Removed) > 0 {
		fmt.Fprintf(w, "  %s %d intermediate files\n", SubtitleStyle.Render("removed:"), len(r.Removed))
	}
	if r.ArchivePath != "" {
		fmt.Fprintf(w, "  %s %s (%s)\n",
			SubtitleStyle.Render("archive:"), CmdStyle.Render(r.ArchivePath), humanize.Bytes(uint64(r.ArchiveSize)))
	}

	renderWarnings(w, r)
}

func renderWarnings(w io.Writer, r *prepare.Report) {
	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "%s %d unresolved %s:\n",
		WarningStyle.Render("!"), len(r.Warnings), plural(len(r.Warnings), "reference", "references"))
	for _, u := range r.Warnings {
		fmt.Fprintf(w, "    %s\n", u.String())
	}
}

func describeSteps(steps []compiler.StepResult) string {
	var total time.Duration
	for _, s := range steps {
		total += s.Duration
	}
	return fmt.Sprintf("%d %s in %s", len(steps), plural(len(steps), "step", "steps"), total.Round(10*time.Millisecond))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
