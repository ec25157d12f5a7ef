// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cpi-sync.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pizug/cpi-sync/internal/config"

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

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	noInput    bool
	verbose    bool
}

// NewRootCommand builds the cpi-sync command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Download SAP Cloud Integration packages into a local directory",
		Long: TitleStyle.Render(config.AppName) + SubtitleStyle.Render(" - keep a local copy of your Cloud Integration packages") + `

cpi-sync connects to the management API of a Cloud Integration tenant, lists
its integration packages, selects packages with the filter rules of the
configuration file and downloads every design-time artifact of the selected
packages, either as .zip files or extracted into directories.

` + SubtitleStyle.Render("Examples:") + `
  cpi-sync                          Sync using ./cpi-sync.json
  cpi-sync --config prod.json       Sync using another configuration file
  cpi-sync --no-input               Never prompt (CI mode)
  cpi-sync packages                 Show which packages the rules select
  cpi-sync config init              Create a starter configuration`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			app.logger = newLogger(app.stderr, opts.verbose)
			if app.installLogger {
				// Library code logs through slog.Default(); route it through the same handler.
				slog.SetDefault(app.logger)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), app, opts)
		},
	}

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultConfigPath, "configuration file (JSON, CUE, or TOML)")
	rootCmd.PersistentFlags().BoolVar(&opts.noInput, "no-input", false, "disable every feature that needs user input")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging and full error chains")

	rootCmd.AddCommand(newSyncCommand(app, opts))
	rootCmd.AddCommand(newPackagesCommand(app, opts))
	rootCmd.AddCommand(newConfigCommand(app, opts))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	app.installLogger = true

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			verbose, _ := rootCmd.PersistentFlags().GetBool("verbose") //nolint:errcheck // flag is always defined
			renderError(w, err, verbose)
		}),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitConfig)
	}
}
