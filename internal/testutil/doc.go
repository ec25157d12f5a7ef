// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Besides the Must* helpers (MustSetenv, MustChdir, MustWriteFile, MustZip, ...)
// it offers FakeTenant, an httptest server that serves packages, artifact
// lists, artifact payloads and OAuth tokens the way a tenant does.
package testutil
