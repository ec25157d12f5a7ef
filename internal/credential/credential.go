// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"errors"
	"fmt"

	"github.com/pizug/cpi-sync/internal/config"
)

var (
	// ErrMissingCredential is returned when no secret could be obtained.
	ErrMissingCredential = errors.New("could not use any password/secret")
	// ErrAuthExchangeFailed is returned when the token endpoint did not yield an access token.
	ErrAuthExchangeFailed = errors.New("token exchange failed")
)

type (
	// Credential is a configured way to authenticate against the tenant.
	// The set of implementations is closed: Basic and ClientCredentials.
	Credential interface {
		// Principal is the user name or client id the secret belongs to.
		Principal() string
		// SecretEnv names the environment variable holding the secret, if any.
		SecretEnv() string
		// Kind is a short label for logs and prompts.
		Kind() string

		isCredential()
	}

	// Basic authenticates every request with HTTP basic auth.
	Basic struct {
		Username    string
		PasswordEnv string
	}

	// ClientCredentials exchanges a client id and secret for a bearer token
	// at TokenURL.
	ClientCredentials struct {
		ClientID        string
		TokenURL        string
		ClientSecretEnv string
	}
)

func (Basic) isCredential() {}

func (b Basic) Principal() string { return b.Username }

func (b Basic) SecretEnv() string { return b.PasswordEnv }

func (Basic) Kind() string { return "user" }

func (ClientCredentials) isCredential() {}

func (c ClientCredentials) Principal() string { return c.ClientID }

func (c ClientCredentials) SecretEnv() string { return c.ClientSecretEnv }

func (ClientCredentials) Kind() string { return "client" }

// FromConfig converts the configured credential into its variant.
func FromConfig(c config.Credential) (Credential, error) {
	if ok, errs := c.IsValid(); !ok {
		return nil, errors.Join(errs...)
	}

	switch {
	case c.SUser != nil:
		return Basic{
			Username:    c.SUser.Username,
			PasswordEnv: c.SUser.PasswordEnvironmentVariable,
		}, nil
	case c.OAuthClientCredentials != nil:
		return ClientCredentials{
			ClientID:        c.OAuthClientCredentials.ClientID,
			TokenURL:        c.OAuthClientCredentials.TokenEndpointURL,
			ClientSecretEnv: c.OAuthClientCredentials.ClientSecretEnvironmentVariable,
		}, nil
	default:
		return nil, fmt.Errorf("%w: no credential configured", config.ErrInvalidCredential)
	}
}
