// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func accessibleConfig(input string) (Config, *bytes.Buffer) {
	var out bytes.Buffer
	return Config{
		Theme:      ThemeDefault,
		Accessible: true,
		Input:      strings.NewReader(input),
		Output:     &out,
	}, &out
}

func TestPrompter_Confirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"long yes", "yes\n", true},
		{"no", "n\n", false},
		{"empty answer uses default", "\n", false},
		{"end of input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, out := accessibleConfig(tt.input)
			got, err := NewPrompter(cfg).Confirm(t.Context(), "Start CPI sync?")
			if err != nil {
				t.Fatalf("Confirm() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Start CPI sync?") {
				t.Errorf("prompt not shown, output: %q", out.String())
			}
		})
	}
}

func TestPrompter_PromptSecret_NoTerminal(t *testing.T) {
	t.Parallel()

	cfg, _ := accessibleConfig("hunter2\n")
	got, err := NewPrompter(cfg).PromptSecret(t.Context(), "user", "S0001", "tenant.example.com")
	if !errors.Is(err, ErrNoTerminal) {
		t.Fatalf("PromptSecret() error = %v, want ErrNoTerminal", err)
	}
	if got != "" {
		t.Errorf("PromptSecret() = %q, want empty", got)
	}
}

func TestPrompter_Pause(t *testing.T) {
	t.Parallel()

	cfg, out := accessibleConfig("\n")
	if err := NewPrompter(cfg).Pause(t.Context(), "Press enter to continue"); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if got := out.String(); got != "Press enter to continue\n" {
		t.Errorf("Pause() output = %q", got)
	}
}

func TestSecretTitle(t *testing.T) {
	t.Parallel()

	if got := secretTitle("user", "S1", "h"); got != "Would you like to enter a password for user: S1 to connect host: h?" {
		t.Errorf("secretTitle(user) = %q", got)
	}
	if got := secretTitle("client", "cid", "h"); !strings.Contains(got, "client secret for client: cid") {
		t.Errorf("secretTitle(client) = %q", got)
	}
}

func TestHuhTheme(t *testing.T) {
	t.Parallel()

	for _, th := range []Theme{ThemeDefault, ThemeCharm, ThemeDracula, ThemeBase16, "unknown"} {
		if huhTheme(th) == nil {
			t.Errorf("huhTheme(%q) returned nil", th)
		}
	}
}
