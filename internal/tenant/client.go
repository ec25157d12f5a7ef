// SPDX-License-Identifier: MPL-2.0

package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// maxJSONResponseBytes is the upper bound on list response size (10 MB).
	maxJSONResponseBytes = 10 << 20

	// maxArtifactBytes is the upper bound on a single artifact payload (512 MB).
	maxArtifactBytes = 512 << 20

	// maxLoggedBodyBytes caps how much of an error body is kept for diagnostics.
	maxLoggedBodyBytes = 64 << 10

	apiPath = "/api/v1"
)

var (
	// ErrConnectivityCheckFailed is returned when the API root probe fails.
	ErrConnectivityCheckFailed = errors.New("API first check failed")
	// ErrCatalogFetchFailed is returned when the package list cannot be fetched or decoded.
	ErrCatalogFetchFailed = errors.New("package list failed")
	// ErrArtifactListFailed is returned when a package's artifact list cannot be fetched or decoded.
	ErrArtifactListFailed = errors.New("package artifact list failed")
	// ErrArtifactDownloadFailed is returned when an artifact payload cannot be downloaded.
	ErrArtifactDownloadFailed = errors.New("artifact download failed")
)

type (
	// APIError describes a failed API call. It wraps the operation's sentinel
	// and, for transport or decoding failures, the underlying error.
	APIError struct {
		Op  string
		URL string
		// StatusCode is zero when no response was received.
		StatusCode int
		// Body is the (possibly truncated) response body.
		Body string

		Kind error
		Err  error
	}

	// Package is an entry of the package catalog.
	Package struct {
		ID   string
		Name string
		Mode string
	}

	// Artifact is a design-time artifact inside a package.
	Artifact struct {
		ID   string
		Name string
		Mode string
	}

	// odataResult is the wire form of a catalog or artifact entry.
	odataResult struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
		Mode string `json:"Mode"`
	}

	// odataEnvelope is the {"d":{"results":[...]}} list wrapper. Pointers
	// tell a missing member from an empty one.
	odataEnvelope struct {
		D *struct {
			Results *[]odataResult `json:"results"`
		} `json:"d"`
	}

	// Client calls the tenant management API.
	Client struct {
		httpClient    *http.Client
		baseURL       string // https://<host>, overridable for tests
		authorization string
		userAgent     string
		logger        *slog.Logger
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// Error formats the failure as "<op> <url>: <cause>".
func (e *APIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.Error())
	sb.WriteString(": ")
	sb.WriteString(e.Op)
	sb.WriteString(" ")
	sb.WriteString(e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": unexpected status %d", e.StatusCode)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides https://<host>, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(base, "/")
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithLogger sets the logger used for failed-call diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = l
	}
}

// NewClient creates a Client for host that sends authorization as the
// Authorization header of every request.
func NewClient(host, authorization string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:    http.DefaultClient,
		baseURL:       "https://" + host,
		authorization: authorization,
		userAgent:     "cpi-sync/dev",
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping probes the API root. Any non-2xx status fails with ErrConnectivityCheckFailed.
func (c *Client) Ping(ctx context.Context) error {
	reqURL := c.baseURL + apiPath + "/"
	_, err := c.get(ctx, "probe API", reqURL, "", ErrConnectivityCheckFailed, maxJSONResponseBytes)
	return err
}

// ListPackages fetches the package catalog in server order.
func (c *Client) ListPackages(ctx context.Context) ([]Package, error) {
	reqURL := c.baseURL + apiPath + "/IntegrationPackages"
	results, err := c.list(ctx, "list packages", reqURL, ErrCatalogFetchFailed)
	if err != nil {
		return nil, err
	}

	pkgs := make([]Package, 0, len(results))
	for _, r := range results {
		pkgs = append(pkgs, Package(r))
	}
	return pkgs, nil
}

// ListArtifacts fetches the design-time artifacts of a package.
func (c *Client) ListArtifacts(ctx context.Context, packageID string) ([]Artifact, error) {
	reqURL := fmt.Sprintf("%s%s/IntegrationPackages('%s')/IntegrationDesigntimeArtifacts",
		c.baseURL, apiPath, odataKey(packageID))
	results, err := c.list(ctx, "list artifacts of "+packageID, reqURL, ErrArtifactListFailed)
	if err != nil {
		return nil, err
	}

	arts := make([]Artifact, 0, len(results))
	for _, r := range results {
		arts = append(arts, Artifact(r))
	}
	return arts, nil
}

// DownloadArtifact fetches the payload of the active version of an artifact.
func (c *Client) DownloadArtifact(ctx context.Context, artifactID string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s/IntegrationDesigntimeArtifacts(Id='%s',Version='Active')/$value",
		c.baseURL, apiPath, odataKey(artifactID))
	return c.get(ctx, "download artifact "+artifactID, reqURL, "", ErrArtifactDownloadFailed, maxArtifactBytes)
}

func (c *Client) list(ctx context.Context, op, reqURL string, kind error) ([]odataResult, error) {
	body, err := c.get(ctx, op, reqURL, "application/json", kind, maxJSONResponseBytes)
	if err != nil {
		return nil, err
	}

	results, err := decodeResults(body)
	if err != nil {
		apiErr := &APIError{
			Op:   op,
			URL:  reqURL,
			Body: truncate(body),
			Kind: kind,
			Err:  fmt.Errorf("decoding response: %w", err),
		}
		c.logFailure(apiErr, http.StatusOK)
		return nil, apiErr
	}
	return results, nil
}

func decodeResults(body []byte) ([]odataResult, error) {
	var env odataEnvelope
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&env); err != nil {
		return nil, err
	}
	if env.D == nil || env.D.Results == nil {
		return nil, errors.New(`missing "d.results"`)
	}
	for i, r := range *env.D.Results {
		if r.ID == "" {
			return nil, fmt.Errorf("result %d has no Id", i)
		}
	}
	return *env.D.Results, nil
}

// get performs a GET and returns the body of a 2xx response, read up to limit bytes.
func (c *Client) get(ctx context.Context, op, reqURL, accept string, kind error, limit int64) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, accept)
	if err != nil {
		apiErr := &APIError{Op: op, URL: reqURL, Kind: kind, Err: err}
		c.logFailure(apiErr, 0)
		return nil, apiErr
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBodyBytes)) //nolint:errcheck // Best-effort diagnostics.
		apiErr := &APIError{Op: op, URL: reqURL, StatusCode: resp.StatusCode, Body: string(body), Kind: kind}
		c.logFailure(apiErr, resp.StatusCode)
		return nil, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		apiErr := &APIError{Op: op, URL: reqURL, Kind: kind, Err: fmt.Errorf("reading response: %w", err)}
		c.logFailure(apiErr, resp.StatusCode)
		return nil, apiErr
	}
	if int64(len(body)) > limit {
		apiErr := &APIError{Op: op, URL: reqURL, Kind: kind, Err: fmt.Errorf("response exceeds %d bytes", limit)}
		c.logFailure(apiErr, resp.StatusCode)
		return nil, apiErr
	}

	return body, nil
}

// doRequest creates and executes an HTTP request with the common headers.
func (c *Client) doRequest(ctx context.Context, method, reqURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func (c *Client) logFailure(e *APIError, status int) {
	attrs := []any{"url", e.URL, "status", status}
	if e.Body != "" {
		attrs = append(attrs, "body", e.Body)
	}
	if e.Err != nil {
		attrs = append(attrs, "err", e.Err)
	}
	c.logger.Error(e.Kind.Error(), attrs...)
}

// odataKey quotes an entity key for use inside '...' in a resource path:
// single quotes are doubled and other reserved characters percent-encoded.
func odataKey(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), "%27", "''")
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBodyBytes {
		return string(body[:maxLoggedBodyBytes])
	}
	return string(body)
}
