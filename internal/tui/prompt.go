// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNoTerminal is returned when a hidden prompt is requested but the input
// is not a terminal.
var ErrNoTerminal = errors.New("secret input needs a terminal")

// Prompter asks the user questions. It satisfies credential.SecretPrompter.
type Prompter struct {
	Config Config
}

// NewPrompter returns a Prompter using cfg.
func NewPrompter(cfg Config) *Prompter {
	return &Prompter{Config: cfg}
}

// PromptSecret asks for the secret of principal without echoing it.
func (p *Prompter) PromptSecret(ctx context.Context, kind, principal, host string) (string, error) {
	if p.Config.Accessible && !hasTerminal(p.Config.input()) {
		return "", ErrNoTerminal
	}

	var secret string
	field := huh.NewInput().
		Title(secretTitle(kind, principal, host)).
		EchoMode(huh.EchoModePassword).
		Value(&secret)

	if err := p.Config.form(field).RunWithContext(ctx); err != nil {
		return "", fmt.Errorf("secret prompt: %w", err)
	}
	return secret, nil
}

// Confirm asks a yes/no question. Answering no, or aborting, returns false.
func (p *Prompter) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)

	if err := p.Config.form(field).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm prompt: %w", err)
	}
	return ok, nil
}

// Pause shows message and waits until the user presses enter.
func (p *Prompter) Pause(ctx context.Context, message string) error {
	if p.Config.Accessible {
		if _, err := fmt.Fprintln(p.Config.output(), message); err != nil {
			return err
		}
		// EOF is as good as enter here.
		_, _ = bufio.NewReader(p.Config.input()).ReadString('\n')
		return nil
	}

	note := huh.NewNote().Title(message).Next(true).NextLabel("Continue")
	if err := p.Config.form(note).RunWithContext(ctx); err != nil && !errors.Is(err, huh.ErrUserAborted) {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

func secretTitle(kind, principal, host string) string {
	switch kind {
	case "client":
		return fmt.Sprintf("Would you like to enter a client secret for client: %s to connect host: %s?", principal, host)
	default:
		return fmt.Sprintf("Would you like to enter a password for user: %s to connect host: %s?", principal, host)
	}
}

func hasTerminal(r any) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
