// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pizug/cpi-sync/internal/issue"

	"github.com/google/go-cmp/cmp"
)

const sUserJSON = `{
  "cpisync": "0.2.0",
  "tenant": {
    "management_host": "tenant.example.com",
    "credential": {
      "s_user": {
        "username": "S0001",
        "password_environment_variable": "CPI_PASS"
      }
    }
  },
  "packages": {
    "filter_rules": [
      { "type": "regex", "pattern": "^Demo" },
      { "type": "single", "id": "DemoOld", "operation": "exclude" }
    ]
  }
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_JSONWithDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cpi-sync.json", sUserJSON)

	cfg, err := Load(t.Context(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := &Config{
		CPISync: "0.2.0",
		Tenant: Tenant{
			ManagementHost: "tenant.example.com",
			Credential: Credential{
				SUser: &SUser{Username: "S0001", PasswordEnvironmentVariable: "CPI_PASS"},
			},
		},
		Packages: Packages{
			ZipExtraction: ZipExtractionEnabled,
			LocalDir:      ".",
			FilterRules: []FilterRule{
				{Type: RuleTypeRegex, Pattern: "^Demo", Operation: OperationInclude},
				{Type: RuleTypeSingle, ID: "DemoOld", Operation: OperationExclude},
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_OAuthTOML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "cpi-sync.toml", `
cpisync = "0.2.0"

[tenant]
management_host = "tenant.example.com"

[tenant.credential.oauth_client_credentials]
client_id = "sb-client"
token_endpoint_url = "https://auth.example.com/oauth/token"

[packages]
zip_extraction = "disabled"
local_dir = "out"

[[packages.filter_rules]]
type = "single"
id = "PkgA"
`)

	cfg, err := Load(t.Context(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	oauth := cfg.Tenant.Credential.OAuthClientCredentials
	if oauth == nil || oauth.ClientID != "sb-client" {
		t.Fatalf("unexpected oauth credential: %+v", oauth)
	}
	if cfg.Tenant.Credential.SUser != nil {
		t.Error("s_user should be unset")
	}
	if cfg.Packages.ZipExtraction != ZipExtractionDisabled {
		t.Errorf("ZipExtraction = %q, want disabled", cfg.Packages.ZipExtraction)
	}
	if got := cfg.Packages.FilterRules; len(got) != 1 || got[0].Operation != OperationInclude {
		t.Errorf("FilterRules = %+v, want one rule with default include", got)
	}
}

func TestLoad_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{
			name:     "not a document",
			content:  `{ "cpisync": `,
			contains: "cpi-sync.json",
		},
		{
			name: "both credential variants",
			content: `{"cpisync": "1", "tenant": {"management_host": "h", "credential": {
				"s_user": {"username": "u"},
				"oauth_client_credentials": {"client_id": "c", "token_endpoint_url": "https://t"}}},
				"packages": {}}`,
			contains: "credential",
		},
		{
			name: "unknown operation",
			content: `{"cpisync": "1", "tenant": {"management_host": "h", "credential": {"s_user": {"username": "u"}}},
				"packages": {"filter_rules": [{"type": "single", "id": "A", "operation": "drop"}]}}`,
			contains: "filter_rules",
		},
		{
			name: "host with scheme",
			content: `{"cpisync": "1", "tenant": {"management_host": "https://h", "credential": {"s_user": {"username": "u"}}},
				"packages": {}}`,
			contains: "management_host",
		},
		{
			name:     "missing tenant",
			content:  `{"cpisync": "1", "packages": {}}`,
			contains: "tenant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, "cpi-sync.json", tt.content)
			_, err := Load(t.Context(), path)
			if err == nil {
				t.Fatal("Load() should fail")
			}

			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected ActionableError, got %T", err)
			}
			if ae.IssueID != issue.ConfigLoadFailedId {
				t.Errorf("IssueID = %d, want ConfigLoadFailedId", ae.IssueID)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(t.Context(), filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("expected ActionableError with suggestions, got %v", err)
	}
}

// Not parallel: uses t.Setenv.
func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "cpi-sync.json", sUserJSON)
	t.Setenv("CPISYNC_TENANT_MANAGEMENT_HOST", "other.example.com")

	cfg, err := Load(t.Context(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tenant.ManagementHost != "other.example.com" {
		t.Errorf("ManagementHost = %q, want env override", cfg.Tenant.ManagementHost)
	}
}

func TestDataRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "cpi-sync.json")
	absLocal := filepath.Join(resolvedDir, "elsewhere")

	tests := []struct {
		name     string
		localDir string
		want     string
	}{
		{"default", "", resolvedDir},
		{"dot", ".", resolvedDir},
		{"relative", "packages", filepath.Join(resolvedDir, "packages")},
		{"absolute", absLocal, absLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Packages: Packages{LocalDir: tt.localDir}}
			got, err := DataRoot(configPath, cfg)
			if err != nil {
				t.Fatalf("DataRoot() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DataRoot() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStarterRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := GenerateJSON(Starter())
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}

	path := writeConfig(t, "cpi-sync.json", string(data))
	loaded, err := NewProvider().Load(t.Context(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("generated config does not load: %v\n%s", err, data)
	}
	if diff := cmp.Diff(Starter(), loaded.Config); diff != "" {
		t.Errorf("starter mismatch (-want +got):\n%s", diff)
	}
	if filepath.Base(loaded.DataRoot) != "packages" {
		t.Errorf("DataRoot = %q, want .../packages", loaded.DataRoot)
	}
}
