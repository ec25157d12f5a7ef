// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/pizug/cpi-sync/internal/app/syncrun"
	"github.com/pizug/cpi-sync/internal/config"

	"github.com/spf13/cobra"
)

const (
	startQuestion = "Start CPI sync?"
	pauseMessage  = "Press enter to continue"
)

func newSyncCommand(app *App, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Download the selected packages (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), app, opts)
		},
	}
}

// runSync runs the whole pipeline. In interactive mode it asks before starting
// and waits for a key press before returning, also after a failure.
func runSync(ctx context.Context, app *App, opts *rootOptions) error {
	interactive := app.interactive(opts)

	if interactive {
		ok, err := app.Prompts.Confirm(ctx, startQuestion)
		if err != nil {
			return classifyError(err)
		}
		if !ok {
			fmt.Fprintln(app.stdout, WarningStyle.Render("Sync cancelled."))
			return nil
		}
	}

	sum, err := syncOnce(ctx, app, opts)
	if err != nil {
		exitErr := classifyError(err)
		if !interactive {
			return exitErr
		}
		// Report before pausing so the message is visible while waiting.
		renderError(app.stderr, exitErr, opts.verbose)
		app.pause(ctx)
		return &ExitError{Code: exitErr.Code}
	}

	fmt.Fprintf(app.stdout, "%s %d packages, %d artifacts, %d files\n",
		SuccessStyle.Render("✓ Synced"), sum.Packages, sum.Artifacts, sum.Files)

	if interactive {
		app.pause(ctx)
	}
	return nil
}

func syncOnce(ctx context.Context, app *App, opts *rootOptions) (syncrun.Summary, error) {
	loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		return syncrun.Summary{}, err
	}
	app.logger.Debug("configuration loaded", "path", loaded.Path, "dataRoot", loaded.DataRoot)

	return syncrun.Run(ctx, app.syncOptions(loaded, opts))
}

func (a *App) pause(ctx context.Context) {
	if err := a.Prompts.Pause(ctx, pauseMessage); err != nil {
		a.logger.Debug("pause failed", "error", err)
	}
}
