// SPDX-License-Identifier: MPL-2.0

package credential

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pizug/cpi-sync/internal/config"
)

type stubPrompter struct {
	secret string
	err    error
	calls  int
	host   string
}

func (p *stubPrompter) PromptSecret(_ context.Context, _, _, host string) (string, error) {
	p.calls++
	p.host = host
	return p.secret, p.err
}

func envOf(m map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	basic, err := FromConfig(config.Credential{SUser: &config.SUser{Username: "S1", PasswordEnvironmentVariable: "PW"}})
	if err != nil {
		t.Fatalf("FromConfig(s_user) error = %v", err)
	}
	if b, ok := basic.(Basic); !ok || b.Username != "S1" || b.SecretEnv() != "PW" {
		t.Errorf("FromConfig(s_user) = %#v", basic)
	}

	cc, err := FromConfig(config.Credential{OAuthClientCredentials: &config.OAuthClientCredentials{
		ClientID: "cid", TokenEndpointURL: "https://auth/token",
	}})
	if err != nil {
		t.Fatalf("FromConfig(oauth) error = %v", err)
	}
	if c, ok := cc.(ClientCredentials); !ok || c.Principal() != "cid" || c.TokenURL != "https://auth/token" {
		t.Errorf("FromConfig(oauth) = %#v", cc)
	}

	if _, err := FromConfig(config.Credential{}); !errors.Is(err, config.ErrInvalidCredential) {
		t.Errorf("FromConfig(empty) error = %v, want ErrInvalidCredential", err)
	}
}

func TestResolver_Secret(t *testing.T) {
	t.Parallel()

	cred := Basic{Username: "S1", PasswordEnv: "CPI_PW"}

	tests := []struct {
		name        string
		env         map[string]string
		prompter    *stubPrompter
		allowPrompt bool
		want        string
		wantErr     error
		wantPrompts int
	}{
		{
			name:     "environment wins over prompt",
			env:      map[string]string{"CPI_PW": "from-env"},
			prompter: &stubPrompter{secret: "typed"}, allowPrompt: true,
			want: "from-env",
		},
		{
			name:     "empty variable falls through to prompt",
			env:      map[string]string{"CPI_PW": ""},
			prompter: &stubPrompter{secret: "typed"}, allowPrompt: true,
			want: "typed", wantPrompts: 1,
		},
		{
			name:     "no prompting allowed",
			env:      map[string]string{},
			prompter: &stubPrompter{secret: "typed"}, allowPrompt: false,
			wantErr: ErrMissingCredential,
		},
		{
			name:     "prompt aborted",
			env:      map[string]string{},
			prompter: &stubPrompter{err: errors.New("user aborted")}, allowPrompt: true,
			wantErr: ErrMissingCredential, wantPrompts: 1,
		},
		{
			name:     "prompt returned nothing",
			env:      map[string]string{},
			prompter: &stubPrompter{}, allowPrompt: true,
			wantErr: ErrMissingCredential, wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &Resolver{
				LookupEnv:   envOf(tt.env),
				Prompter:    tt.prompter,
				AllowPrompt: tt.allowPrompt,
				Logger:      discardLogger(),
			}

			got, err := r.Secret(t.Context(), cred, "tenant.example.com")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Secret() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Secret() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Secret() = %q, want %q", got, tt.want)
			}
			if tt.prompter.calls != tt.wantPrompts {
				t.Errorf("prompter called %d times, want %d", tt.prompter.calls, tt.wantPrompts)
			}
			if tt.wantPrompts > 0 && tt.prompter.host != "tenant.example.com" {
				t.Errorf("prompt host = %q", tt.prompter.host)
			}
		})
	}
}

func TestResolver_NoEnvConfigured(t *testing.T) {
	t.Parallel()

	r := &Resolver{
		LookupEnv: func(string) (string, bool) {
			t.Error("LookupEnv should not be called without a variable name")
			return "", false
		},
		Logger: discardLogger(),
	}

	_, err := r.Secret(t.Context(), ClientCredentials{ClientID: "cid"}, "h")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Secret() error = %v, want ErrMissingCredential", err)
	}
}

func TestAuthorize_Basic(t *testing.T) {
	t.Parallel()

	a := &Authorizer{}
	got, err := a.Authorize(t.Context(), Basic{Username: "user"}, "p@ss:word")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	// base64("user:p@ss:word")
	if want := "Basic dXNlcjpwQHNzOndvcmQ="; got != want {
		t.Errorf("Authorize() = %q, want %q", got, want)
	}
}

func TestAuthorize_ClientCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		clientID string
		secret   string
	}{
		{name: "plain", clientID: "cid", secret: "secret"},
		{name: "reserved characters sent unescaped", clientID: "sb-abc!b1|it!b2", secret: "7a$Q+x/Y="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if got := r.URL.Query().Get("grant_type"); got != "client_credentials" {
					t.Errorf("grant_type query = %q", got)
				}
				user, pass, ok := r.BasicAuth()
				if !ok || user != tt.clientID || pass != tt.secret {
					t.Errorf("basic auth = %q/%q (%v), want %q/%q", user, pass, ok, tt.clientID, tt.secret)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`)
			}))
			t.Cleanup(srv.Close)

			a := &Authorizer{HTTPClient: srv.Client(), Logger: discardLogger()}
			got, err := a.Authorize(t.Context(), ClientCredentials{ClientID: tt.clientID, TokenURL: srv.URL + "/oauth/token"}, tt.secret)
			if err != nil {
				t.Fatalf("Authorize() error = %v", err)
			}
			if got != "Bearer tok-123" {
				t.Errorf("Authorize() = %q, want %q", got, "Bearer tok-123")
			}
		})
	}
}

func TestAuthorize_ClientCredentialsFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		closeIt bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_client"}`},
		{name: "missing token", status: http.StatusOK, body: `{"token_type":"bearer"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`},
		{name: "unreachable", closeIt: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			tokenURL := srv.URL + "/oauth/token"
			if tt.closeIt {
				srv.Close()
			} else {
				t.Cleanup(srv.Close)
			}

			a := &Authorizer{HTTPClient: srv.Client(), Logger: discardLogger()}
			_, err := a.Authorize(t.Context(), ClientCredentials{ClientID: "cid", TokenURL: tokenURL}, "secret")
			if !errors.Is(err, ErrAuthExchangeFailed) {
				t.Errorf("Authorize() error = %v, want ErrAuthExchangeFailed", err)
			}
		})
	}
}

func TestWithGrantType(t *testing.T) {
	t.Parallel()

	got, err := withGrantType("https://auth.example.com/oauth/token?tenant=a")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "grant_type=client_credentials") || !strings.Contains(got, "tenant=a") {
		t.Errorf("withGrantType() = %q", got)
	}
}
