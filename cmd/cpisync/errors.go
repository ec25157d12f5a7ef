// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/pizug/cpi-sync/internal/artifact"
	"github.com/pizug/cpi-sync/internal/config"
	"github.com/pizug/cpi-sync/internal/credential"
	"github.com/pizug/cpi-sync/internal/issue"
	"github.com/pizug/cpi-sync/internal/selection"
	"github.com/pizug/cpi-sync/internal/tenant"
)

// errorClass maps a sentinel to its catalog entry, exit code and hints.
type errorClass struct {
	sentinel    error
	operation   string
	issueID     issue.Id
	code        int
	suggestions []string
}

// errorClasses is checked in order; the first sentinel found in the chain wins.
var errorClasses = []errorClass{
	{
		sentinel:  credential.ErrMissingCredential,
		operation: "obtain a password or client secret",
		issueID:   issue.MissingCredentialId,
		code:      exitRuntime,
		suggestions: []string{
			"Export the environment variable named in the credential section",
			"Run without --no-input in a terminal to be asked for the secret",
		},
	},
	{
		sentinel:    credential.ErrAuthExchangeFailed,
		operation:   "exchange client credentials for a token",
		issueID:     issue.AuthExchangeFailedId,
		code:        exitRuntime,
		suggestions: []string{"Check client_id, the client secret and token_endpoint_url"},
	},
	{
		sentinel:  tenant.ErrConnectivityCheckFailed,
		operation: "reach the tenant API",
		issueID:   issue.ConnectivityCheckFailedId,
		code:      exitRuntime,
		suggestions: []string{
			"Check management_host (host name only, no scheme or path)",
			"Check that the user or client has API access on the tenant",
		},
	},
	{
		sentinel:  tenant.ErrCatalogFetchFailed,
		operation: "list integration packages",
		issueID:   issue.CatalogFetchFailedId,
		code:      exitRuntime,
	},
	{
		sentinel:    selection.ErrInvalidPattern,
		operation:   "evaluate filter rules",
		issueID:     issue.InvalidPatternId,
		code:        exitConfig,
		suggestions: []string{"Fix the regular expression in packages.filter_rules"},
	},
	{
		sentinel:  selection.ErrUnknownPackageID,
		operation: "evaluate filter rules",
		issueID:   issue.UnknownPackageIdId,
		code:      exitConfig,
		suggestions: []string{
			"Single rules need the package ID, not its display name",
			"Run 'cpi-sync packages' to list package IDs",
		},
	},
	{
		sentinel:  tenant.ErrArtifactListFailed,
		operation: "list package artifacts",
		issueID:   issue.ArtifactListFailedId,
		code:      exitRuntime,
	},
	{
		sentinel:  tenant.ErrArtifactDownloadFailed,
		operation: "download an artifact",
		issueID:   issue.ArtifactDownloadFailedId,
		code:      exitRuntime,
	},
	{
		sentinel:    artifact.ErrArchiveCorrupt,
		operation:   "extract an artifact",
		issueID:     issue.ArchiveCorruptId,
		code:        exitRuntime,
		suggestions: []string{"Set packages.zip_extraction to \"disabled\" to keep the raw archive"},
	},
	{
		sentinel:  artifact.ErrUnsafeArchivePath,
		operation: "extract an artifact",
		issueID:   issue.UnsafeArchivePathId,
		code:      exitRuntime,
	},
	{
		sentinel:    fs.ErrPermission,
		operation:   "write packages",
		issueID:     issue.PermissionDeniedId,
		code:        exitRuntime,
		suggestions: []string{"Check that packages.local_dir is writable"},
	},
	{
		sentinel:  config.ErrInvalidConfig,
		operation: "validate configuration",
		issueID:   issue.ConfigLoadFailedId,
		code:      exitConfig,
	},
	{
		sentinel:  config.ErrInvalidFilterRule,
		operation: "validate configuration",
		issueID:   issue.ConfigLoadFailedId,
		code:      exitConfig,
	},
}

// classifyError wraps err in an ExitError carrying an ActionableError.
// Errors that already are ActionableErrors keep their context.
func classifyError(err error) *ExitError {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		code := exitRuntime
		if ae.IssueID == issue.ConfigLoadFailedId {
			code = exitConfig
		}
		return &ExitError{Code: code, Err: ae}
	}

	for _, class := range errorClasses {
		if errors.Is(err, class.sentinel) {
			return &ExitError{
				Code: class.code,
				Err: issue.NewErrorContext().
					WithOperation(class.operation).
					WithIssue(class.issueID).
					WithSuggestions(class.suggestions...).
					Wrap(err).
					BuildError(),
			}
		}
	}

	return &ExitError{Code: exitConfig, Err: err}
}

// renderError writes err and, when it is linked to one, the issue catalog
// entry to w. ExitErrors without a cause have been reported already.
func renderError(w io.Writer, err error, verbose bool) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID == 0 {
		return
	}
	entry := issue.Get(ae.IssueID)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		slog.Warn("failed to render issue catalog entry", "issueID", ae.IssueID, "error", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
