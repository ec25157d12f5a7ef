// SPDX-License-Identifier: MPL-2.0

package cmd

import "fmt"

const (
	// exitConfig is used for configuration and filter-rule errors.
	exitConfig = 1
	// exitRuntime is used for credential, network, and storage failures.
	exitRuntime = 2
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
// A nil Err means the failure has already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
