// SPDX-License-Identifier: MPL-2.0

package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pizug/cpi-sync/internal/artifact"
	"github.com/pizug/cpi-sync/internal/catalog"
	"github.com/pizug/cpi-sync/internal/config"
	"github.com/pizug/cpi-sync/internal/credential"
	"github.com/pizug/cpi-sync/internal/selection"
	"github.com/pizug/cpi-sync/internal/tenant"

	"bitbucket.org/creachadair/stringset"
	"github.com/spf13/afero"
)

// ErrNoConfig is returned when Options carries no configuration.
var ErrNoConfig = errors.New("no configuration given")

type (
	// Options configures a run. Only Config and DataRoot are required.
	Options struct {
		Config   *config.Config
		DataRoot string

		// HTTPClient is used for the token exchange and every API call.
		// Defaults to http.DefaultClient.
		HTTPClient *http.Client
		// BaseURL replaces https://<management_host> when set.
		BaseURL   string
		UserAgent string

		// LookupEnv defaults to os.LookupEnv.
		LookupEnv   credential.LookupEnvFunc
		Prompter    credential.SecretPrompter
		AllowPrompt bool

		// Fs defaults to the operating system filesystem.
		Fs     afero.Fs
		Logger *slog.Logger
	}

	// Plan is a connected tenant together with the packages the rules select.
	Plan struct {
		Catalog  *catalog.Catalog
		Selected stringset.Set

		client *tenant.Client
	}

	// Summary reports the outcome of a completed run.
	Summary struct {
		artifact.Summary

		// Selected lists the operating set in sorted order.
		Selected []string
	}
)

// Prepare authenticates, probes the tenant, fetches the catalog and resolves
// the filter rules. Nothing is downloaded.
func Prepare(ctx context.Context, opts Options) (*Plan, error) {
	if opts.Config == nil {
		return nil, ErrNoConfig
	}
	logger := opts.logger()
	cfg := opts.Config

	// Rules are checked before any network traffic.
	rules, err := selection.FromConfig(cfg.Packages.FilterRules)
	if err != nil {
		return nil, err
	}

	cred, err := credential.FromConfig(cfg.Tenant.Credential)
	if err != nil {
		return nil, err
	}

	resolver := &credential.Resolver{
		LookupEnv:   opts.LookupEnv,
		Prompter:    opts.Prompter,
		AllowPrompt: opts.AllowPrompt,
		Logger:      logger,
	}
	secret, err := resolver.Secret(ctx, cred, cfg.Tenant.ManagementHost)
	if err != nil {
		return nil, err
	}

	authz := &credential.Authorizer{HTTPClient: opts.HTTPClient, Logger: logger}
	header, err := authz.Authorize(ctx, cred, secret)
	if err != nil {
		return nil, err
	}

	client := tenant.NewClient(cfg.Tenant.ManagementHost, header, opts.clientOptions(logger)...)
	if err := client.Ping(ctx); err != nil {
		return nil, err
	}
	logger.Info("API First Check Successful.", "host", cfg.Tenant.ManagementHost)

	cat, err := catalog.Fetch(ctx, client)
	if err != nil {
		return nil, err
	}
	logger.Debug("fetched package catalog", "packages", cat.Len())

	selected, err := selection.Resolve(cat, rules)
	if err != nil {
		return nil, err
	}

	return &Plan{Catalog: cat, Selected: selected, client: client}, nil
}

// Run prepares a plan and downloads every selected package into the data root.
func Run(ctx context.Context, opts Options) (Summary, error) {
	plan, err := Prepare(ctx, opts)
	if err != nil {
		return Summary{}, err
	}
	return plan.Execute(ctx, opts)
}

// Execute downloads the planned packages using the storage settings in opts.
func (p *Plan) Execute(ctx context.Context, opts Options) (Summary, error) {
	if opts.Config == nil {
		return Summary{}, ErrNoConfig
	}
	logger := opts.logger()

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	store, err := artifact.NewStore(opts.Config.Packages.ZipExtraction, fs, opts.DataRoot)
	if err != nil {
		return Summary{}, err
	}

	ids := p.Selected.Elements()
	logger.Info("Downloading these packages", "packages", ids, "target", opts.DataRoot)

	syncer := &artifact.Syncer{Client: p.client, Store: store, Logger: logger}
	sum, err := syncer.Sync(ctx, ids)
	out := Summary{Summary: sum, Selected: ids}
	if err != nil {
		return out, fmt.Errorf("sync packages: %w", err)
	}
	return out, nil
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) clientOptions(logger *slog.Logger) []tenant.ClientOption {
	opts := []tenant.ClientOption{tenant.WithLogger(logger)}
	if o.HTTPClient != nil {
		opts = append(opts, tenant.WithHTTPClient(o.HTTPClient))
	}
	if o.BaseURL != "" {
		opts = append(opts, tenant.WithBaseURL(o.BaseURL))
	}
	if o.UserAgent != "" {
		opts = append(opts, tenant.WithUserAgent(o.UserAgent))
	}
	return opts
}
