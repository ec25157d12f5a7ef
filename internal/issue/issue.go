// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	MissingCredentialId
	AuthExchangeFailedId
	ConnectivityCheckFailedId
	CatalogFetchFailedId
	InvalidPatternId
	UnknownPackageIdId
	ArtifactListFailedId
	ArtifactDownloadFailedId
	ArchiveCorruptId
	UnsafeArchivePathId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

const apiDocs HttpLink = "https://api.sap.com/api/IntegrationContent/overview"

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or did not pass schema validation.

## Things you can try:
- Create a starter configuration next to where you run the tool:
~~~
$ cpi-sync config init
~~~
- Check the file for errors:
~~~
$ cpi-sync config validate --config ./cpi-sync.json
~~~
- Make sure 'tenant.credential' contains exactly one of 's_user' or 'oauth_client_credentials'`,
	}

	missingCredentialIssue = &Issue{
		id: MissingCredentialId,
		mdMsg: `
# No secret available!

The configured environment variable is unset or empty and prompting is disabled.

## Things you can try:
- Export the variable named by 'password_environment_variable' or 'client_secret_environment_variable'
- Run without '--no-input' from an interactive terminal to be asked for the secret`,
	}

	authExchangeFailedIssue = &Issue{
		id: AuthExchangeFailedId,
		mdMsg: `
# Token exchange failed!

The OAuth token endpoint did not return an access token.

## Things you can try:
- Verify 'token_endpoint_url' points at the tenant's '/oauth/token' endpoint
- Verify the client id and secret belong to a service key with API access
- Run with '--verbose' to see the token endpoint response`,
		extLinks: []HttpLink{"https://help.sap.com/docs/cloud-integration"},
	}

	connectivityCheckFailedIssue = &Issue{
		id: ConnectivityCheckFailedId,
		mdMsg: `
# Tenant API check failed!

The first request to '/api/v1/' was rejected.

## Things you can try:
- Check 'tenant.management_host' (host name only, no scheme or path)
- Check that the user or client is allowed to read integration content`,
		docLinks: []HttpLink{apiDocs},
	}

	catalogFetchFailedIssue = &Issue{
		id: CatalogFetchFailedId,
		mdMsg: `
# Could not list integration packages!

The package catalog request failed or returned a body that is not the expected JSON.

## Things you can try:
- Run with '--verbose' to log the response status and body`,
		docLinks: []HttpLink{apiDocs},
	}

	invalidPatternIssue = &Issue{
		id: InvalidPatternId,
		mdMsg: `
# Invalid filter pattern!

A 'regex' filter rule does not compile. Patterns use RE2 syntax and match anywhere in the package id.

## Example:
~~~json
{ "type": "regex", "pattern": "^Demo.*", "operation": "include" }
~~~`,
		extLinks: []HttpLink{"https://github.com/google/re2/wiki/Syntax"},
	}

	unknownPackageIdIssue = &Issue{
		id: UnknownPackageIdId,
		mdMsg: `
# Package ID not found!

A 'single' filter rule names a package id that is not in the tenant catalog.
Single rules take the package **id**, not its display name.

## Things you can try:
- List the catalog and copy the id:
~~~
$ cpi-sync packages
~~~`,
	}

	artifactListFailedIssue = &Issue{
		id: ArtifactListFailedId,
		mdMsg: `
# Could not list artifacts of a package!

## Things you can try:
- Run with '--verbose' to log the response status and body
- Exclude the package with a 'single' rule and 'operation: exclude'`,
		docLinks: []HttpLink{apiDocs},
	}

	artifactDownloadFailedIssue = &Issue{
		id: ArtifactDownloadFailedId,
		mdMsg: `
# Could not download an artifact!

Only the active version of each design-time artifact is downloaded.

## Things you can try:
- Check that the artifact is not locked or in draft state on the tenant
- Run with '--verbose' to log the response status and body`,
		docLinks: []HttpLink{apiDocs},
	}

	archiveCorruptIssue = &Issue{
		id: ArchiveCorruptId,
		mdMsg: `
# Artifact is not a valid zip archive!

## Things you can try:
- Set 'packages.zip_extraction' to "disabled" to store the raw payload and inspect it`,
	}

	unsafeArchivePathIssue = &Issue{
		id: UnsafeArchivePathId,
		mdMsg: `
# Unsafe path inside artifact archive!

An archive entry is absolute or climbs out of the artifact directory with '..'.
Nothing outside the data directory was written.

## Things you can try:
- Set 'packages.zip_extraction' to "disabled" to keep the archive unextracted`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

The data directory could not be written.

## Things you can try:
- Check the permissions of 'packages.local_dir' relative to the configuration file`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():        configLoadFailedIssue,
		missingCredentialIssue.Id():       missingCredentialIssue,
		authExchangeFailedIssue.Id():      authExchangeFailedIssue,
		connectivityCheckFailedIssue.Id(): connectivityCheckFailedIssue,
		catalogFetchFailedIssue.Id():      catalogFetchFailedIssue,
		invalidPatternIssue.Id():          invalidPatternIssue,
		unknownPackageIdIssue.Id():        unknownPackageIdIssue,
		artifactListFailedIssue.Id():      artifactListFailedIssue,
		artifactDownloadFailedIssue.Id():  artifactDownloadFailedIssue,
		archiveCorruptIssue.Id():          archiveCorruptIssue,
		unsafeArchivePathIssue.Id():       unsafeArchivePathIssue,
		permissionDeniedIssue.Id():        permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
