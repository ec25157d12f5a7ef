// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

type (
	// SecretPrompter asks the user for a secret. Implementations must not echo
	// the input.
	SecretPrompter interface {
		PromptSecret(ctx context.Context, kind, principal, host string) (string, error)
	}

	// LookupEnvFunc has the signature of os.LookupEnv.
	LookupEnvFunc func(key string) (string, bool)

	// Resolver finds the secret for a Credential.
	Resolver struct {
		// LookupEnv defaults to os.LookupEnv.
		LookupEnv LookupEnvFunc
		// Prompter is consulted only when AllowPrompt is set.
		Prompter    SecretPrompter
		AllowPrompt bool
		Logger      *slog.Logger
	}
)

// Secret returns the secret for cred. Sources in order: the configured
// environment variable when it is set and non-empty, then the prompter when
// prompting is allowed. Otherwise it fails with ErrMissingCredential.
func (r *Resolver) Secret(ctx context.Context, cred Credential, host string) (string, error) {
	logger := r.logger()

	if key := cred.SecretEnv(); key != "" {
		lookup := r.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		if val, ok := lookup(key); ok && val != "" {
			logger.Debug("using secret from environment", "variable", key, "kind", cred.Kind())
			return val, nil
		}
		logger.Warn("secret environment variable is not set", "variable", key, "kind", cred.Kind())
	}

	if r.AllowPrompt && r.Prompter != nil {
		secret, err := r.Prompter.PromptSecret(ctx, cred.Kind(), cred.Principal(), host)
		if err != nil {
			return "", fmt.Errorf("%w: prompt for %s %s: %w", ErrMissingCredential, cred.Kind(), cred.Principal(), err)
		}
		if secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%w for %s %q", ErrMissingCredential, cred.Kind(), cred.Principal())
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
