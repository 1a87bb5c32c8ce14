// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/arxivate/arxivate/internal/config"
	"github.com/arxivate/arxivate/internal/issue"

	"github.com/spf13/cobra"
)

func newIssuesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "issues [id]",
		Short: "Explain common problems and how to fix them",
		Long: `Explain common problems and how to fix them.

Without an id, lists every guide. Errors print the id of the guide that
applies to them.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				listIssues(app)
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil || issue.Get(issue.Id(n)) == nil {
				return usageError(fmt.Errorf("unknown issue %q; run 'arxivate issues' for the list", args[0]))
			}

			style := string(config.ColorSchemeAuto)
			// A broken config file must not hide the guide explaining it.
			if cfg, err := app.Config.Load(cmd.Context(), app.loadOptions()); err == nil {
				style = string(cfg.UI.ColorScheme)
			}
			rendered, err := issue.Get(issue.Id(n)).Render(style)
			if err != nil {
				return fmt.Errorf("failed to render issue %d: %w", n, err)
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}

func listIssues(app *App) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Known issues"))
	fmt.Fprintln(app.stdout)
	for _, i := range issue.Values() {
		fmt.Fprintf(app.stdout, "  %s  %s\n", CmdStyle.Render(fmt.Sprintf("%2d", i.Id())), i.Title())
	}
}
