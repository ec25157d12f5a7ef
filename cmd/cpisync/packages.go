// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pizug/cpi-sync/internal/app/syncrun"
	"github.com/pizug/cpi-sync/internal/config"
	"github.com/pizug/cpi-sync/internal/tenant"

	"github.com/spf13/cobra"
)

func newPackagesCommand(app *App, opts *rootOptions) *cobra.Command {
	var selectedOnly bool

	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List tenant packages and show which ones the filter rules select",
		Long: `List the integration packages of the tenant and mark the ones the filter
rules of the configuration select. Nothing is downloaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listPackages(cmd.Context(), app, opts, selectedOnly)
		},
	}
	cmd.Flags().BoolVar(&selectedOnly, "selected", false, "only list the packages that would be synced")
	return cmd
}

func listPackages(ctx context.Context, app *App, opts *rootOptions, selectedOnly bool) error {
	loaded, err := app.Config.Load(ctx, config.LoadOptions{ConfigFilePath: opts.configPath})
	if err != nil {
		return classifyError(err)
	}

	plan, err := syncrun.Prepare(ctx, app.syncOptions(loaded, opts))
	if err != nil {
		return classifyError(err)
	}

	pkgs := plan.Catalog.Packages()
	slices.SortFunc(pkgs, func(a, b tenant.Package) int { return strings.Compare(a.ID, b.ID) })

	fmt.Fprintln(app.stdout, TitleStyle.Render("Integration packages"))
	fmt.Fprintln(app.stdout)
	for _, p := range pkgs {
		selected := plan.Selected.Contains(p.ID)
		if selectedOnly && !selected {
			continue
		}
		mark := SubtitleStyle.Render("·")
		if selected {
			mark = SuccessStyle.Render("✓")
		}
		fmt.Fprintf(app.stdout, "  %s %s  %s\n", mark, KeyStyle.Render(p.ID), SubtitleStyle.Render(p.Name))
	}

	fmt.Fprintln(app.stdout)
	fmt.Fprintf(app.stdout, "%d of %d packages selected, target %s\n",
		plan.Selected.Len(), plan.Catalog.Len(), loaded.DataRoot)
	return nil
}
