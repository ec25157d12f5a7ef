// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// Errors raised while syncing (missing credentials, tenant API failures, bad
// filter rules, corrupt archives) are mapped to an issue Id whose Markdown
// guidance is rendered when the CLI exits with a failure.
package issue
