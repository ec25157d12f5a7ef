// SPDX-License-Identifier: MPL-2.0

// Package tui provides the terminal prompts of cpi-sync built on huh.
//
// A Prompter asks for secrets, confirmations and "press enter" pauses. When
// stdin is not a terminal, or ACCESSIBLE is set, forms run in huh's
// accessible mode, which reads plain lines from the configured input.
package tui
