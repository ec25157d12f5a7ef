// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pizug/cpi-sync/internal/testutil"
)

// base64("S0001:secret")
const basicAuth = "Basic UzAwMDE6c2VjcmV0"

type stubPrompts struct {
	mu      sync.Mutex
	confirm bool
	asked   int
	pauses  int
}

func (s *stubPrompts) PromptSecret(context.Context, string, string, string) (string, error) {
	return "", errors.New("no secret prompt expected")
}

func (s *stubPrompts) Confirm(context.Context, string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked++
	return s.confirm, nil
}

func (s *stubPrompts) Pause(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses++
	return nil
}

type harness struct {
	tenant  *testutil.FakeTenant
	prompts *stubPrompts
	dir     string
	config  string
	stdout  bytes.Buffer
	stderr  bytes.Buffer
}

func newHarness(t *testing.T, zipExtraction string, rules string) *harness {
	t.Helper()

	h := &harness{prompts: &stubPrompts{}, dir: t.TempDir()}
	h.tenant = testutil.NewFakeTenant(t,
		testutil.FakePackage{ID: "PKG1", Name: "First", Artifacts: []testutil.FakeArtifact{
			{ID: "Art1", Payload: []byte("raw-bytes")},
		}},
		testutil.FakePackage{ID: "PKG2", Name: "Second"},
		testutil.FakePackage{ID: "Other", Name: "Other"},
	)
	h.tenant.Authorization = basicAuth

	h.config = filepath.Join(h.dir, "cpi-sync.json")
	testutil.MustWriteFile(t, h.config, fmt.Appendf(nil, `{
  "cpisync": "0.2.0",
  "tenant": {
    "management_host": "tenant.example.com",
    "credential": {"s_user": {"username": "S0001", "password_environment_variable": "CPI_PW"}}
  },
  "packages": {
    "zip_extraction": %q,
    "local_dir": "out",
    "filter_rules": %s
  }
}`, zipExtraction, rules))
	return h
}

func (h *harness) run(t *testing.T, interactive bool, args ...string) error {
	t.Helper()

	app := NewApp(Dependencies{
		Prompts:    h.prompts,
		HTTPClient: h.tenant.Server.Client(),
		BaseURL:    h.tenant.URL(),
		LookupEnv: func(key string) (string, bool) {
			if key == "CPI_PW" {
				return "secret", true
			}
			return "", false
		},
		IsTerminal: func() bool { return interactive },
		Stdout:     &h.stdout,
		Stderr:     &h.stderr,
	})

	root := NewRootCommand(app)
	root.SetArgs(append([]string{"--config", h.config}, args...))
	return root.ExecuteContext(t.Context())
}

const pkgRules = `[{"type": "regex", "pattern": "^PKG"}, {"type": "single", "id": "PKG2", "operation": "exclude"}]`

func TestRoot_SyncNoInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "disabled", pkgRules)
	if err := h.run(t, true, "--no-input"); err != nil {
		t.Fatalf("run() error = %v\nstderr:\n%s", err, h.stderr.String())
	}

	got := testutil.MustReadFile(t, filepath.Join(h.dir, "out", "PKG1", "Art1.zip"))
	if string(got) != "raw-bytes" {
		t.Errorf("Art1.zip = %q", got)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "out", "PKG2")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("excluded package should not be synced, stat err = %v", err)
	}
	if !strings.Contains(h.stdout.String(), "1 packages, 1 artifacts, 1 files") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
	if h.prompts.asked != 0 || h.prompts.pauses != 0 {
		t.Errorf("--no-input must not prompt: asked=%d pauses=%d", h.prompts.asked, h.prompts.pauses)
	}
}

func TestSyncSubcommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "disabled", pkgRules)
	if err := h.run(t, false, "sync"); err != nil {
		t.Fatalf("run(sync) error = %v", err)
	}
	if h.tenant.CountRequests("$value") != 1 {
		t.Errorf("expected one download, requests: %v", h.tenant.Requests())
	}
}

func TestRoot_InteractiveCancelled(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", pkgRules)
	h.prompts.confirm = false

	if err := h.run(t, true); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if h.prompts.asked != 1 {
		t.Errorf("start confirmation asked %d times", h.prompts.asked)
	}
	if n := len(h.tenant.Requests()); n != 0 {
		t.Errorf("cancelled run must not contact the tenant, saw %d requests", n)
	}
	if !strings.Contains(h.stdout.String(), "Sync cancelled.") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRoot_InteractiveFailurePauses(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", pkgRules)
	h.prompts.confirm = true
	h.tenant.CatalogStatus = http.StatusServiceUnavailable

	err := h.run(t, true)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != exitRuntime || exitErr.Err != nil {
		t.Errorf("ExitError = %+v, want code %d and a reported error", exitErr, exitRuntime)
	}
	if h.prompts.pauses != 1 {
		t.Errorf("pauses = %d, want 1", h.prompts.pauses)
	}
	if !strings.Contains(h.stderr.String(), "list integration packages") {
		t.Errorf("error should be rendered before the pause, stderr:\n%s", h.stderr.String())
	}
	if n := h.tenant.CountRequests("IntegrationDesigntimeArtifacts"); n != 0 {
		t.Errorf("no artifact calls expected, saw %d", n)
	}
}

func TestRoot_UnknownPackageExitCode(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", `[{"type": "single", "id": "First"}]`)
	err := h.run(t, false)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitConfig {
		t.Fatalf("run() error = %v, want exit code %d", err, exitConfig)
	}
	if !strings.Contains(err.Error(), "'PKG1'") {
		t.Errorf("error should suggest the package ID, got: %v", err)
	}
}

func TestPackagesCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", pkgRules)
	if err := h.run(t, false, "packages"); err != nil {
		t.Fatalf("run(packages) error = %v", err)
	}

	out := h.stdout.String()
	for _, want := range []string{"✓ PKG1", "· PKG2", "· Other", "1 of 3 packages selected"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if n := h.tenant.CountRequests("IntegrationDesigntimeArtifacts"); n != 0 {
		t.Errorf("packages must not touch artifacts, saw %d calls", n)
	}
}

func TestPackagesCommand_SelectedOnly(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", pkgRules)
	if err := h.run(t, false, "packages", "--selected"); err != nil {
		t.Fatalf("run(packages --selected) error = %v", err)
	}
	if out := h.stdout.String(); strings.Contains(out, "PKG2") || !strings.Contains(out, "PKG1") {
		t.Errorf("output:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", pkgRules)

	if err := h.run(t, false, "config", "validate"); err != nil {
		t.Fatalf("config validate error = %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Configuration is valid") {
		t.Errorf("validate output = %q", h.stdout.String())
	}

	h.stdout.Reset()
	if err := h.run(t, false, "config", "show"); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	out := h.stdout.String()
	for _, want := range []string{"tenant.example.com", "s_user S0001", "$CPI_PW", filepath.Join(h.dir, "out"), `exclude single "PKG2"`} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", "[]")
	h.config = filepath.Join(h.dir, "new.json")

	if err := h.run(t, false, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if err := h.run(t, false, "config", "validate"); err != nil {
		t.Fatalf("starter configuration should validate: %v", err)
	}

	err := h.run(t, false, "config", "init")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitConfig {
		t.Errorf("second init error = %v, want exit code %d", err, exitConfig)
	}
	if err := h.run(t, false, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
}

func TestConfigValidate_Missing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "enabled", "[]")
	h.config = filepath.Join(h.dir, "absent.json")

	err := h.run(t, false, "config", "validate")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != exitConfig {
		t.Errorf("run() error = %v, want exit code %d", err, exitConfig)
	}
}
