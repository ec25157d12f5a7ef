// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/pizug/cpi-sync/internal/app/syncrun"
	"github.com/pizug/cpi-sync/internal/config"
	"github.com/pizug/cpi-sync/internal/credential"
	"github.com/pizug/cpi-sync/internal/tui"

	"github.com/spf13/afero"
)

type (
	// PromptService asks the user questions. *tui.Prompter implements it.
	PromptService interface {
		credential.SecretPrompter
		Confirm(ctx context.Context, title string) (bool, error)
		Pause(ctx context.Context, message string) error
	}

	// App wires CLI services and shared dependencies. It is the composition root
	// for the CLI layer: all Cobra command handlers receive an App reference and
	// delegate through it.
	App struct {
		Config     config.Provider
		Prompts    PromptService
		HTTPClient *http.Client
		BaseURL    string
		Fs         afero.Fs
		LookupEnv  credential.LookupEnvFunc
		IsTerminal func() bool

		stdout io.Writer
		stderr io.Writer
		logger *slog.Logger
		// installLogger makes the configured logger the process default.
		installLogger bool
	}

	// Dependencies defines the injection points for building an App. Nil fields
	// are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Prompts    PromptService
		HTTPClient *http.Client
		// BaseURL replaces https://<management_host>; tests point it at a fake tenant.
		BaseURL    string
		Fs         afero.Fs
		LookupEnv  credential.LookupEnvFunc
		IsTerminal func() bool
		Stdout     io.Writer
		Stderr     io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:     deps.Config,
		Prompts:    deps.Prompts,
		HTTPClient: deps.HTTPClient,
		BaseURL:    deps.BaseURL,
		Fs:         deps.Fs,
		LookupEnv:  deps.LookupEnv,
		IsTerminal: deps.IsTerminal,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}

	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Prompts == nil {
		app.Prompts = tui.NewPrompter(tui.DefaultConfig())
	}
	if app.HTTPClient == nil {
		app.HTTPClient = http.DefaultClient
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.LookupEnv == nil {
		app.LookupEnv = os.LookupEnv
	}
	if app.IsTerminal == nil {
		app.IsTerminal = tui.IsInputTerminal
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	app.logger = newLogger(app.stderr, false)

	return app
}

// interactive reports whether prompts may be shown.
func (a *App) interactive(opts *rootOptions) bool {
	return !opts.noInput && a.IsTerminal()
}

// syncOptions builds the pipeline options for a loaded configuration.
func (a *App) syncOptions(loaded *config.Loaded, opts *rootOptions) syncrun.Options {
	return syncrun.Options{
		Config:      loaded.Config,
		DataRoot:    loaded.DataRoot,
		HTTPClient:  a.HTTPClient,
		BaseURL:     a.BaseURL,
		UserAgent:   config.AppName + "/" + Version,
		LookupEnv:   a.LookupEnv,
		Prompter:    a.Prompts,
		AllowPrompt: a.interactive(opts),
		Fs:          a.Fs,
		Logger:      a.logger,
	}
}
