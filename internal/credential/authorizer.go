// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Authorizer builds Authorization header values.
type Authorizer struct {
	// HTTPClient is used for the token exchange. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Authorize returns the Authorization header value for cred and secret.
// Basic credentials are encoded locally; client credentials are exchanged at
// the token endpoint for a bearer token.
func (a *Authorizer) Authorize(ctx context.Context, cred Credential, secret string) (string, error) {
	switch c := cred.(type) {
	case Basic:
		return BasicHeader(c.Username, secret), nil
	case ClientCredentials:
		token, err := a.exchange(ctx, c, secret)
		if err != nil {
			return "", err
		}
		return "Bearer " + token, nil
	default:
		return "", fmt.Errorf("unsupported credential type %T", cred)
	}
}

// BasicHeader returns "Basic " + base64(user:secret).
func BasicHeader(user, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+secret))
}

// exchange performs the client-credentials grant. The grant type goes in the
// query string as well as the form body.
func (a *Authorizer) exchange(ctx context.Context, c ClientCredentials, secret string) (string, error) {
	logger := a.logger()

	tokenURL, err := withGrantType(c.TokenURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthExchangeFailed, err)
	}

	cfg := clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: secret,
		TokenURL:     tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// x/oauth2 query-escapes header credentials; the token endpoint expects
	// them as configured.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.rawBasicAuthClient(c.ClientID, secret))

	tok, err := cfg.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			logger.Error("token endpoint rejected credentials",
				"url", c.TokenURL,
				"status", retrieveErr.Response.StatusCode,
				"body", string(retrieveErr.Body))
		}
		return "", fmt.Errorf("%w: %w", ErrAuthExchangeFailed, err)
	}

	logger.Debug("token endpoint issued access token", "url", c.TokenURL, "type", tok.Type())
	return tok.AccessToken, nil
}

// basicAuthTransport sets HTTP Basic authentication from unescaped values.
type basicAuthTransport struct {
	user, pass string
	base       http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.user, t.pass)
	return t.base.RoundTrip(r)
}

func (a *Authorizer) rawBasicAuthClient(user, pass string) *http.Client {
	hc := a.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport:     &basicAuthTransport{user: user, pass: pass, base: base},
		CheckRedirect: hc.CheckRedirect,
		Jar:           hc.Jar,
		Timeout:       hc.Timeout,
	}
}

func withGrantType(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid token endpoint url %q: %w", raw, err)
	}
	q := u.Query()
	q.Set("grant_type", "client_credentials")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (a *Authorizer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
