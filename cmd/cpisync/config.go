// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/pizug/cpi-sync/internal/config"
	"github.com/pizug/cpi-sync/internal/issue"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newConfigCommand creates the `cpi-sync config` command tree.
func newConfigCommand(app *App, opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the cpi-sync configuration file",
		Long: `Manage the cpi-sync configuration file.

The file is JSON, CUE, or TOML (chosen by extension) and is validated against
the built-in schema. Scalar keys can be overridden with ` + config.EnvPrefix + `_* environment
variables, for example ` + config.EnvPrefix + `_TENANT_MANAGEMENT_HOST.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateConfig(cmd.Context(), app, opts)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd.Context(), app, opts)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(app, opts, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func validateConfig(ctx context.Context, app *App, opts *rootOptions) error {
	loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		return classifyError(err)
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓ Configuration is valid:"), loaded.Path)
	fmt.Fprintf(app.stdout, "  %d filter rules, packages go to %s\n", len(loaded.Packages.FilterRules), loaded.DataRoot)
	return nil
}

func showConfig(ctx context.Context, app *App, opts *rootOptions) error {
	loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		return classifyError(err)
	}

	w := app.stdout
	keyStyle := KeyStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), loaded.Path)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Data root"), loaded.DataRoot)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s:\n", keyStyle.Render("tenant"))
	fmt.Fprintf(w, "  management_host: %s\n", valueStyle.Render(loaded.Tenant.ManagementHost))
	switch cred := loaded.Tenant.Credential; {
	case cred.SUser != nil:
		fmt.Fprintf(w, "  credential: %s\n", valueStyle.Render("s_user "+cred.SUser.Username))
		fmt.Fprintf(w, "  secret from: %s\n", envOrPrompt(cred.SUser.PasswordEnvironmentVariable))
	case cred.OAuthClientCredentials != nil:
		fmt.Fprintf(w, "  credential: %s\n", valueStyle.Render("oauth_client_credentials "+cred.OAuthClientCredentials.ClientID))
		fmt.Fprintf(w, "  token endpoint: %s\n", valueStyle.Render(cred.OAuthClientCredentials.TokenEndpointURL))
		fmt.Fprintf(w, "  secret from: %s\n", envOrPrompt(cred.OAuthClientCredentials.ClientSecretEnvironmentVariable))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", keyStyle.Render("packages"))
	fmt.Fprintf(w, "  zip_extraction: %s\n", valueStyle.Render(loaded.Packages.ZipExtraction.String()))
	fmt.Fprintf(w, "  local_dir: %s\n", valueStyle.Render(loaded.Packages.LocalDir))
	fmt.Fprintf(w, "  filter_rules:\n")
	if len(loaded.Packages.FilterRules) == 0 {
		fmt.Fprintf(w, "    %s\n", SubtitleStyle.Render("(none configured, nothing will be synced)"))
	}
	for i, r := range loaded.Packages.FilterRules {
		target := r.Pattern
		if r.Type == config.RuleTypeSingle {
			target = r.ID
		}
		fmt.Fprintf(w, "    %d. %s %s %q\n", i+1, r.Operation.OrDefault(), r.Type, target)
	}
	return nil
}

func envOrPrompt(envVar string) string {
	if envVar == "" {
		return SubtitleStyle.Render("(prompt)")
	}
	return SuccessStyle.Render("$" + envVar)
}

func initConfig(app *App, opts *rootOptions, force bool) error {
	path := opts.configPath

	exists, err := afero.Exists(app.Fs, path)
	if err != nil {
		return classifyError(err)
	}
	if exists && !force {
		return &ExitError{Code: exitConfig, Err: issue.NewErrorContext().
			WithOperation("create configuration").
			WithResource(path).
			WithSuggestion("Use --force to overwrite it").
			Wrap(errors.New("file already exists")).
			BuildError()}
	}

	data, err := config.GenerateJSON(config.Starter())
	if err != nil {
		return classifyError(err)
	}
	if err := afero.WriteFile(app.Fs, path, data, 0o644); err != nil {
		return classifyError(err)
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓ Created"), path)
	fmt.Fprintf(app.stdout, "  Edit management_host and the credential, then run %s\n", KeyStyle.Render(config.AppName))
	return nil
}
