// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/arxivate/arxivate/internal/flatten"
	"github.com/arxivate/arxivate/internal/prepare"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

var depsFormats = []string{formatText, formatJSON, formatTOML}

type (
	// depsManifest is the machine-readable form of a dependency map.
	depsManifest struct {
		Main         string                        `json:"main" toml:"main"`
		BaseDir      string                        `json:"base_dir" toml:"base_dir"`
		Bibliography bool                          `json:"bibliography" toml:"bibliography"`
		Files        []depsFile                    `json:"files" toml:"files"`
		Unresolved   []flatten.UnresolvedReference `json:"unresolved,omitempty" toml:"unresolved,omitempty"`
	}

	depsFile struct {
		// Source is relative to BaseDir.
		Source string `json:"source" toml:"source"`
		Flat   string `json:"flat" toml:"flat"`
		Kind   string `json:"kind" toml:"kind"`
	}
)

func newDepsCommand(app *App) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "deps <main.tex>",
		Short: "List the files a submission would contain",
		Long: `List the files a submission would contain, with their flat names.

Nothing is written. Use --format json or --format toml for a manifest other
tools can read.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(depsFormats, format) {
				return usageError(fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(depsFormats, ", ")))
			}

			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			opts := prepare.OptionsFromConfig(cfg)
			opts.MainFile = args[0]
			opts.SkipCompile = true
			opts.Logger = app.logger()

			p, err := prepare.New(opts)
			if err != nil {
				return err
			}
			res, err := p.Resolve(cmd.Context())
			if err != nil {
				return &ExitError{Code: exitCodeFor(err), Err: err}
			}
			return writeDeps(app.stdout, format, res)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: "+strings.Join(depsFormats, ", "))
	return cmd
}

func newDepsManifest(res *flatten.Result) depsManifest {
	m := depsManifest{
		Main:         res.Main.Flat,
		BaseDir:      res.BaseDir,
		Bibliography: res.HasBibliography(),
		Unresolved:   res.Warnings,
	}
	for _, e := range res.Deps.Entries() {
		m.Files = append(m.Files, depsFile{Source: res.Rel(e.Source), Flat: e.Flat, Kind: e.Kind.String()})
	}
	return m
}

func writeDeps(w io.Writer, format string, res *flatten.Result) error {
	m := newDepsManifest(res)
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case formatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(m)
	}

	width := 0
	for _, f := range m.Files {
		width = max(width, len(f.Source))
	}
	for _, f := range m.Files {
		fmt.Fprintf(w, "%-*s  ->  %s  %s\n", width, f.Source, CmdStyle.Render(f.Flat), SubtitleStyle.Render("("+f.Kind+")"))
	}
	if len(m.Unresolved) > 0 {
		fmt.Fprintln(w)
		for _, u := range m.Unresolved {
			fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("!"), u.String())
		}
	}
	return nil
}
