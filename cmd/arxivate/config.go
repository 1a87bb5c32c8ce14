// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/arxivate/arxivate/internal/config"
	"github.com/arxivate/arxivate/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `arxivate config` command tree.
// Subcommands that read configuration use the App's config provider.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage arxivate configuration",
		Long: `Manage arxivate configuration.

Configuration is read from the first file found of:
  - the --config flag
  - Linux: ~/.config/arxivate/config.cue
    macOS: ~/Library/Application Support/arxivate/config.cue
    Windows: %APPDATA%\arxivate\config.cue
  - arxivate.cue in the current directory

Environment variables override file values: ARXIVATE_COMPILER_PASSES=3.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.Context(), app)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(app.stdout, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(app)
		},
	})

	var schema bool
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if schema {
				fmt.Fprint(app.stdout, config.Schema())
				return nil
			}
			cfg, err := app.Config.Load(cmd.Context(), app.loadOptions())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	}
	dumpCmd.Flags().BoolVar(&schema, "schema", false, "print the CUE schema instead")
	cfgCmd.AddCommand(dumpCmd)

	return cfgCmd
}

func showConfig(ctx context.Context, app *App) error {
	w := app.stdout
	cfg, err := app.Config.Load(ctx, app.loadOptions())
	if err != nil {
		if rendered, renderErr := issue.Get(issue.ConfigLoadFailedId).Render("auto"); renderErr == nil {
			fmt.Fprint(app.stderr, rendered)
		}
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(v any) string { return valueStyle.Render(fmt.Sprint(v)) }

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	path, err := config.Locate(app.loadOptions())
	if err != nil || path == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("compiler"))
	fmt.Fprintf(w, "  latex: %s\n", value(cfg.Compiler.Latex))
	fmt.Fprintf(w, "  bibtex: %s\n", value(cfg.Compiler.Bibtex))
	fmt.Fprintf(w, "  passes: %s\n", value(cfg.Compiler.Passes))
	timeout := "none"
	if cfg.Compiler.Timeout > 0 {
		timeout = cfg.Compiler.Timeout.String()
	}
	fmt.Fprintf(w, "  timeout: %s\n", value(timeout))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("resolve"))
	fmt.Fprintf(w, "  graphics_extensions: %s\n", value(strings.Join(cfg.Resolve.GraphicsExtensionStrings(), " ")))
	fmt.Fprintf(w, "  style_files: %s\n", value(cfg.Resolve.StyleFiles))
	fmt.Fprintf(w, "  graphicspath: %s\n", value(cfg.Resolve.GraphicsPath))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("output"))
	fmt.Fprintf(w, "  suffix: %s\n", value(cfg.Output.Suffix))
	fmt.Fprintf(w, "  zip: %s\n", value(cfg.Output.Zip))
	fmt.Fprintf(w, "  clean: %s\n", value(cfg.Output.Clean))
	fmt.Fprintf(w, "  temp_extensions: %s\n", value(fmt.Sprintf("%d extensions", len(cfg.Output.TempExtensions))))

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(w, "  color_scheme: %s\n", value(cfg.UI.ColorScheme))
	fmt.Fprintf(w, "  verbose: %s\n", value(cfg.UI.Verbose))

	return nil
}

func initConfig(w io.Writer, force bool) error {
	path, err := config.CreateDefaultConfig("", force)
	if err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			return issue.NewErrorContext().
				WithOperation("create config").
				WithResource(path).
				WithSuggestion("Use --force to overwrite it with the defaults").
				Wrap(err).
				BuildError()
		}
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Fprintf(w, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	w := app.stdout
	userPath, err := config.DefaultPath("")
	if err != nil {
		return err
	}
	active, err := config.Locate(app.loadOptions())
	if err != nil {
		return err
	}
	if active == "" {
		active = "(none, using defaults)"
	}

	fmt.Fprintf(w, "Config directory: %s\n", filepath.Dir(userPath))
	fmt.Fprintf(w, "Config file: %s\n", userPath)
	fmt.Fprintf(w, "Project file: %s\n", config.LocalConfigFile)
	fmt.Fprintf(w, "Active: %s\n", active)
	return nil
}
